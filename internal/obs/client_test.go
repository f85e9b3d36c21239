package obs

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/five82/lookout/internal/roster"
)

type fakeOBS struct {
	password  string
	streaming bool

	mu       sync.Mutex
	requests []request
	authOK   bool
}

func (f *fakeOBS) handle(conn *websocket.Conn) {
	const salt, challenge = "c2FsdA==", "Y2hhbGxlbmdl"

	h := map[string]any{"rpcVersion": 1}
	if f.password != "" {
		h["authentication"] = map[string]string{"salt": salt, "challenge": challenge}
	}
	if err := sendOp(conn, opHello, h); err != nil {
		return
	}

	var msg message
	if err := websocket.JSON.Receive(conn, &msg); err != nil || msg.Op != opIdentify {
		return
	}
	var ident identify
	_ = json.Unmarshal(msg.D, &ident)
	f.mu.Lock()
	f.authOK = f.password == "" || ident.Authentication == authResponse(f.password, salt, challenge)
	ok := f.authOK
	f.mu.Unlock()
	if !ok {
		return
	}
	if err := sendOp(conn, opIdentified, map[string]int{"negotiatedRpcVersion": 1}); err != nil {
		return
	}

	for {
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			return
		}
		var req request
		_ = json.Unmarshal(msg.D, &req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		// An unrelated event first, which the client must skip.
		_ = sendOp(conn, 5, map[string]string{"eventType": "StreamStateChanged"})

		status := map[string]any{"result": true, "code": 100}
		var data any
		switch req.RequestType {
		case "StartStream":
			if f.streaming {
				status = map[string]any{"result": false, "code": codeOutputRunning}
			}
			f.streaming = true
		case "StopStream":
			if !f.streaming {
				status = map[string]any{"result": false, "code": codeOutputNotRunning}
			}
			f.streaming = false
		case "GetStreamStatus":
			data = map[string]bool{"outputActive": f.streaming}
		case "SetStreamServiceSettings":
		default:
			status = map[string]any{"result": false, "code": 204, "comment": "unknown request"}
		}
		_ = sendOp(conn, opRequestResponse, map[string]any{
			"requestType":   req.RequestType,
			"requestId":     req.RequestID,
			"requestStatus": status,
			"responseData":  data,
		})
	}
}

func (f *fakeOBS) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		out = append(out, r.RequestType)
	}
	return out
}

func sendOp(conn *websocket.Conn, op int, payload any) error {
	d, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return websocket.JSON.Send(conn, message{Op: op, D: d})
}

func startFake(t *testing.T, fake *fakeOBS) string {
	t.Helper()
	server := httptest.NewServer(websocket.Handler(fake.handle))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestAuthResponseIsDeterministic(t *testing.T) {
	a := authResponse("pw", "salt", "challenge")
	assert.Equal(t, a, authResponse("pw", "salt", "challenge"))
	assert.NotEqual(t, a, authResponse("pw2", "salt", "challenge"))
}

func TestDial_AuthenticatesAndStreams(t *testing.T) {
	fake := &fakeOBS{password: "secret"}
	addr := startFake(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	c, err := Dial(ctx, addr, "secret")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.SetStreamKey(ctx, "rtmp://live.example/app", "live_123"))
	require.NoError(t, c.StartStream(ctx))
	require.NoError(t, c.StartStream(ctx), "already running is not an error")

	streaming, err := c.Streaming(ctx)
	require.NoError(t, err)
	assert.True(t, streaming)

	require.NoError(t, c.StopStream(ctx))
	require.NoError(t, c.StopStream(ctx), "not running is not an error")

	_, err = c.Call(ctx, "Bogus", nil)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 204, reqErr.Code)
}

func TestDial_MissingPassword(t *testing.T) {
	addr := startFake(t, &fakeOBS{password: "secret"})
	_, err := Dial(context.Background(), addr, "")
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestBridge_StartPushesKeyThenStreams(t *testing.T) {
	fake := &fakeOBS{}
	bridge := &Bridge{Addr: startFake(t, fake), Server: "rtmp://live.example/app"}
	t.Cleanup(func() { _ = bridge.Close() })

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx, roster.Identity{Name: "caps", StreamKey: "live_1", Channel: "capsTV"}))
	require.NoError(t, bridge.Start(ctx, roster.Identity{Name: "nokey"}))
	require.NoError(t, bridge.Stop(ctx))

	assert.Equal(t, []string{"SetStreamServiceSettings", "StartStream", "StartStream", "StopStream"}, fake.types())
}

func TestBridge_UnreachableServer(t *testing.T) {
	bridge := &Bridge{Addr: "ws://127.0.0.1:1"}
	require.Error(t, bridge.Start(context.Background(), roster.Identity{Name: "x"}))
}
