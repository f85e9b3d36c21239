// Package obs speaks the OBS websocket v5 protocol, just enough to point
// the stream output at a key and start or stop streaming.
package obs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// Opcodes used by the v5 protocol.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opRequest         = 6
	opRequestResponse = 7
)

// Request status codes that mean "already in the requested state".
const (
	codeOutputRunning    = 500
	codeOutputNotRunning = 501
)

const defaultTimeout = 5 * time.Second

// RequestError is a failed request as reported by OBS.
type RequestError struct {
	Type    string
	Code    int
	Comment string
}

func (e *RequestError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("obs %s failed with code %d: %s", e.Type, e.Code, e.Comment)
	}
	return fmt.Sprintf("obs %s failed with code %d", e.Type, e.Code)
}

// ErrAuthRequired means OBS asked for a password and none was configured.
var ErrAuthRequired = errors.New("obs requires a password")

type message struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type hello struct {
	RPCVersion     int `json:"rpcVersion"`
	Authentication *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication,omitempty"`
}

type identify struct {
	RPCVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

type request struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type requestResponse struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

// Client is an identified OBS websocket session. Requests are serialised.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration

	mu sync.Mutex
}

// Dial connects to addr (ws://host:port) and completes the Hello/Identify
// handshake.
func Dial(ctx context.Context, addr, password string) (*Client, error) {
	cfg, err := websocket.NewConfig(addr, "http://localhost/")
	if err != nil {
		return nil, fmt.Errorf("obs config: %w", err)
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial obs: %w", err)
	}
	c := &Client{conn: conn, timeout: defaultTimeout}
	if err := c.identify(ctx, password); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// Close ends the session.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) identify(ctx context.Context, password string) error {
	c.setDeadline(ctx)

	var msg message
	if err := websocket.JSON.Receive(c.conn, &msg); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if msg.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", msg.Op)
	}
	var h hello
	if err := json.Unmarshal(msg.D, &h); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	ident := identify{RPCVersion: 1}
	if h.Authentication != nil {
		if password == "" {
			return ErrAuthRequired
		}
		ident.Authentication = authResponse(password, h.Authentication.Salt, h.Authentication.Challenge)
	}
	if err := c.send(opIdentify, ident); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}

	if err := websocket.JSON.Receive(c.conn, &msg); err != nil {
		return fmt.Errorf("read identified: %w", err)
	}
	if msg.Op != opIdentified {
		return fmt.Errorf("expected identified, got op %d", msg.Op)
	}
	return nil
}

// authResponse computes base64(sha256(base64(sha256(password+salt))+challenge)).
func authResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	auth := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(auth[:])
}

// Call sends one request and waits for its response. Events arriving in
// between are discarded.
func (c *Client) Call(ctx context.Context, requestType string, data any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setDeadline(ctx)
	id := uuid.NewString()
	if err := c.send(opRequest, request{RequestType: requestType, RequestID: id, RequestData: data}); err != nil {
		return nil, fmt.Errorf("send %s: %w", requestType, err)
	}

	for {
		var msg message
		if err := websocket.JSON.Receive(c.conn, &msg); err != nil {
			return nil, fmt.Errorf("read %s response: %w", requestType, err)
		}
		if msg.Op != opRequestResponse {
			continue
		}
		var resp requestResponse
		if err := json.Unmarshal(msg.D, &resp); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", requestType, err)
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return nil, &RequestError{Type: requestType, Code: resp.RequestStatus.Code, Comment: resp.RequestStatus.Comment}
		}
		return resp.ResponseData, nil
	}
}

// SetStreamKey points the stream output at a custom RTMP server and key.
func (c *Client) SetStreamKey(ctx context.Context, server, key string) error {
	_, err := c.Call(ctx, "SetStreamServiceSettings", map[string]any{
		"streamServiceType": "rtmp_custom",
		"streamServiceSettings": map[string]string{
			"server": server,
			"key":    key,
		},
	})
	return err
}

// StartStream starts streaming. An already running stream is not an error.
func (c *Client) StartStream(ctx context.Context) error {
	_, err := c.Call(ctx, "StartStream", nil)
	return ignoreCode(err, codeOutputRunning)
}

// StopStream stops streaming. A stream that is not running is not an error.
func (c *Client) StopStream(ctx context.Context) error {
	_, err := c.Call(ctx, "StopStream", nil)
	return ignoreCode(err, codeOutputNotRunning)
}

// Streaming reports whether the stream output is active.
func (c *Client) Streaming(ctx context.Context) (bool, error) {
	raw, err := c.Call(ctx, "GetStreamStatus", nil)
	if err != nil {
		return false, err
	}
	var status struct {
		OutputActive bool `json:"outputActive"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return false, fmt.Errorf("decode stream status: %w", err)
	}
	return status.OutputActive, nil
}

func (c *Client) send(op int, payload any) error {
	d, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return websocket.JSON.Send(c.conn, message{Op: op, D: d})
}

func (c *Client) setDeadline(ctx context.Context) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)
}

func ignoreCode(err error, code int) error {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Code == code {
		return nil
	}
	return err
}
