package camera

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/lookout/internal/liveclient"
)

type recordingKeyboard struct {
	taps   []Key
	failOn Key
}

func (r *recordingKeyboard) Tap(_ context.Context, key Key) error {
	if key == r.failOn {
		return errors.New("display unavailable")
	}
	r.taps = append(r.taps, key)
	return nil
}

func TestFocusKey(t *testing.T) {
	tests := []struct {
		team, position string
		index          int
		want           Key
	}{
		{"ORDER", "TOP", 0, "KP_1"},
		{"ORDER", "UTILITY", 0, "KP_5"},
		{"CHAOS", "JUNGLE", 6, "z"},
		{"CHAOS", "BOTTOM", 8, "r"},
		{"ORDER", "NONE", 2, "KP_3"},
		{"CHAOS", "NONE", 7, "e"},
		{"chaos", "", 9, "t"},
	}
	for _, tt := range tests {
		got, err := FocusKey(tt.team, tt.position, tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s/%d", tt.team, tt.position, tt.index)
	}

	_, err := FocusKey("NEUTRAL", "TOP", 0)
	require.Error(t, err)
}

func TestFindPlayer_PrefersRiotGameNameThenSummonerName(t *testing.T) {
	players := []liveclient.Player{
		{RiotIDGameName: "Other", SummonerName: "Caps"},
		{RiotIDGameName: "caps", SummonerName: "Someone"},
		{RiotIDGameName: "", SummonerName: "Legacy"},
	}

	idx, _, ok := FindPlayer(players, "Caps#EUW")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, _, ok = FindPlayer(players, "legacy")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, _, ok = FindPlayer(players, "Ghost#000")
	assert.False(t, ok)
}

func TestAutomation_FocusSequence(t *testing.T) {
	kb := &recordingKeyboard{}
	a := &Automation{Keyboard: kb, Gap: time.Millisecond}
	players := []liveclient.Player{
		{RiotIDGameName: "A", Team: "ORDER", Position: "TOP"},
		{RiotIDGameName: "Faker", Team: "CHAOS", Position: "MIDDLE"},
	}

	require.NoError(t, a.Focus(context.Background(), players, "Faker#KR1"))
	assert.Equal(t, []Key{"e", "e", "e", "e", KeyScoreboard, KeyInterface, KeyFogChaos}, kb.taps)
}

func TestAutomation_PlayerMissingPressesNothing(t *testing.T) {
	kb := &recordingKeyboard{}
	a := &Automation{Keyboard: kb, Gap: time.Millisecond}

	err := a.Focus(context.Background(), []liveclient.Player{{RiotIDGameName: "A", Team: "ORDER"}}, "Ghost")
	require.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Empty(t, kb.taps)
}

func TestAutomation_KeyboardFailureStops(t *testing.T) {
	kb := &recordingKeyboard{failOn: KeyScoreboard}
	a := &Automation{Keyboard: kb, Gap: time.Millisecond}

	err := a.Focus(context.Background(), []liveclient.Player{{RiotIDGameName: "A", Team: "ORDER", Position: "TOP"}}, "A")
	require.Error(t, err)
	assert.Len(t, kb.taps, 4)
}

func TestAutomation_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &Automation{Keyboard: Noop{}, Gap: time.Second}

	err := a.Focus(ctx, []liveclient.Player{{RiotIDGameName: "A", Team: "ORDER", Position: "TOP"}}, "A")
	require.ErrorIs(t, err, context.Canceled)
}
