package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/lookout/internal/liveclient"
	"github.com/five82/lookout/internal/logging"
	"github.com/five82/lookout/internal/riot"
	"github.com/five82/lookout/internal/roster"
)

type fakeSupervisor struct {
	mu      sync.Mutex
	running bool
	kills   int
}

func (f *fakeSupervisor) Running(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeSupervisor) Kill(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kills++
	was := f.running
	f.running = false
	return was
}

func (f *fakeSupervisor) killCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kills
}

type fakeLauncher struct {
	sup      *fakeSupervisor
	err      error
	launched int
}

func (f *fakeLauncher) Launch(context.Context, riot.Match) error {
	f.launched++
	if f.err != nil {
		return f.err
	}
	f.sup.mu.Lock()
	f.sup.running = true
	f.sup.mu.Unlock()
	return nil
}

type fakeProber struct {
	gameReady bool
	players   []liveclient.Player
	probeErr  error
}

func (f *fakeProber) GameReady(context.Context) (bool, error) {
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return f.gameReady, nil
}

func (f *fakeProber) TelemetryReady(context.Context) ([]liveclient.Player, bool, error) {
	return f.players, len(f.players) > 0, nil
}

type fakeFocuser struct {
	err   error
	calls int
}

func (f *fakeFocuser) Focus(context.Context, []liveclient.Player, string) error {
	f.calls++
	return f.err
}

type fakeBroadcaster struct {
	starts, stops int
	startErr      error
}

func (f *fakeBroadcaster) Start(context.Context, roster.Identity) error {
	f.starts++
	return f.startErr
}

func (f *fakeBroadcaster) Stop(context.Context) error {
	f.stops++
	return nil
}

type harness struct {
	sup      *fakeSupervisor
	launcher *fakeLauncher
	prober   *fakeProber
	focuser  *fakeFocuser
	bcast    *fakeBroadcaster
	stages   []State
	ctrl     *Controller
}

func newHarness() *harness {
	h := &harness{
		sup:     &fakeSupervisor{},
		prober:  &fakeProber{gameReady: true, players: []liveclient.Player{{RiotIDGameName: "Caps", Team: "ORDER"}}},
		focuser: &fakeFocuser{},
		bcast:   &fakeBroadcaster{},
	}
	h.launcher = &fakeLauncher{sup: h.sup}
	h.ctrl = New(Options{
		Logger:      logging.Discard(),
		Supervisor:  h.sup,
		Launcher:    h.launcher,
		Prober:      h.prober,
		Focuser:     h.focuser,
		Broadcaster: h.bcast,
		Timings: Timings{
			ProcessPoll:      time.Millisecond,
			ProcessTimeout:   50 * time.Millisecond,
			GameReadyPoll:    time.Millisecond,
			GameReadyTimeout: 50 * time.Millisecond,
			TelemetryPoll:    time.Millisecond,
			TelemetryTimeout: 50 * time.Millisecond,
			Settle:           time.Millisecond,
			Teardown:         time.Second,
		},
		OnChange: func(s Snapshot) { h.stages = append(h.stages, s.Stage) },
	})
	return h
}

var (
	caps  = roster.Identity{Name: "caps", RiotID: "Caps#EUW"}
	match = riot.Match{GameID: 7, Mode: "CLASSIC", Region: "euw1", Duration: 10 * time.Minute}
)

func TestRun_ReachesActiveThroughEveryStage(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.ctrl.Run(context.Background(), caps, match))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, Active, snap.Stage)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "caps", snap.Identity.Name)
	require.NotNil(t, snap.Match)
	assert.Equal(t, int64(7), snap.Match.GameID)
	assert.Nil(t, snap.LastError)
	assert.Equal(t, []State{Launching, AwaitingProcess, AwaitingGameReady, AwaitingTelemetry, CameraFocus, Active}, h.stages)
	assert.Equal(t, 1, h.bcast.starts)
	assert.Equal(t, 0, h.sup.killCount())
}

func TestRun_SingleFlight(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.ctrl.Run(context.Background(), caps, match))

	err := h.ctrl.Run(context.Background(), roster.Identity{Name: "other"}, match)
	require.ErrorIs(t, err, ErrSessionActive)
	assert.Equal(t, "caps", h.ctrl.Snapshot().Identity.Name)
	assert.Equal(t, 1, h.launcher.launched)
}

func TestRun_ReadinessTimeoutKillsOnceAndReturnsIdle(t *testing.T) {
	h := newHarness()
	h.prober.gameReady = false

	err := h.ctrl.Run(context.Background(), caps, match)
	require.ErrorIs(t, err, ErrReadinessTimeout)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, AwaitingGameReady, stageErr.Stage)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, Idle, snap.Stage)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, AwaitingGameReady, snap.LastError.Stage)
	assert.Equal(t, 1, h.sup.killCount())
	assert.Equal(t, 0, h.focuser.calls)
	assert.Equal(t, 0, h.bcast.starts)
	assert.Contains(t, h.stages, Stopping)
	assert.Equal(t, Idle, h.stages[len(h.stages)-1])
}

func TestRun_ProbeErrorsCountAsNotReady(t *testing.T) {
	h := newHarness()
	h.prober.probeErr = errors.New("connection refused")

	err := h.ctrl.Run(context.Background(), caps, match)
	require.ErrorIs(t, err, ErrReadinessTimeout)
}

func TestRun_LaunchFailure(t *testing.T) {
	h := newHarness()
	h.launcher.err = errors.New("exec format error")

	err := h.ctrl.Run(context.Background(), caps, match)
	require.ErrorIs(t, err, ErrLaunchFailure)
	assert.Equal(t, Idle, h.ctrl.Snapshot().Stage)
	assert.Equal(t, Launching, h.ctrl.Snapshot().LastError.Stage)
	assert.Equal(t, 1, h.sup.killCount())
}

func TestRun_ProcessNeverAppears(t *testing.T) {
	h := newHarness()
	h.launcher.sup = &fakeSupervisor{} // launch "succeeds" but nothing shows up

	err := h.ctrl.Run(context.Background(), caps, match)
	require.ErrorIs(t, err, ErrReadinessTimeout)
	assert.Equal(t, AwaitingProcess, h.ctrl.Snapshot().LastError.Stage)
}

func TestRun_CameraFailureStillActive(t *testing.T) {
	h := newHarness()
	h.focuser.err = errors.New("player not found")

	require.NoError(t, h.ctrl.Run(context.Background(), caps, match))
	assert.Equal(t, Active, h.ctrl.Snapshot().Stage)
	assert.Equal(t, 0, h.sup.killCount())
}

func TestRun_BroadcastFailureNotFatal(t *testing.T) {
	h := newHarness()
	h.bcast.startErr = errors.New("obs offline")

	require.NoError(t, h.ctrl.Run(context.Background(), caps, match))
	assert.Equal(t, Active, h.ctrl.Snapshot().Stage)

	h.ctrl.Stop()
	assert.Equal(t, 0, h.bcast.stops)
}

func TestRun_CancelledContextStillTearsDown(t *testing.T) {
	h := newHarness()
	h.prober.gameReady = false
	ctx, cancel := context.WithCancel(context.Background())
	h.ctrl.opts.Timings.GameReadyTimeout = time.Minute
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := h.ctrl.Run(ctx, caps, match)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Idle, h.ctrl.Snapshot().Stage)
	assert.Equal(t, 1, h.sup.killCount())
}

func TestStop_IsIdempotent(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.ctrl.Run(context.Background(), caps, match))

	h.ctrl.Stop()
	h.ctrl.Stop()

	assert.Equal(t, Idle, h.ctrl.Snapshot().Stage)
	assert.Equal(t, 1, h.sup.killCount())
	assert.Equal(t, 1, h.bcast.stops)
}

func TestFinish_OnlyFromActive(t *testing.T) {
	h := newHarness()
	h.ctrl.Finish("viewer closed")
	assert.Equal(t, Idle, h.ctrl.Snapshot().Stage)

	require.NoError(t, h.ctrl.Run(context.Background(), caps, match))
	h.ctrl.Finish("viewer closed")

	assert.Equal(t, Idle, h.ctrl.Snapshot().Stage)
	assert.Nil(t, h.ctrl.Snapshot().LastError)
	assert.Equal(t, 0, h.sup.killCount())
	assert.Equal(t, 1, h.bcast.stops)
}

func TestSnapshot_IsACopy(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.ctrl.Run(context.Background(), caps, riot.Match{
		GameID:       1,
		Participants: []riot.Participant{{RiotID: "Caps#EUW"}},
	}))

	snap := h.ctrl.Snapshot()
	snap.Match.Participants[0].RiotID = "mutated"
	assert.Equal(t, "Caps#EUW", h.ctrl.Snapshot().Match.Participants[0].RiotID)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AwaitingTelemetry", AwaitingTelemetry.String())
	assert.Equal(t, "State(42)", State(42).String())
}
