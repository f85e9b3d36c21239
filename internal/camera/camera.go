// Package camera locks the spectator camera onto the watched player by
// replaying the client's hotkeys.
package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/five82/lookout/internal/liveclient"
)

// ErrPlayerNotFound means the watched player is missing from the player
// list.
var ErrPlayerNotFound = errors.New("player not found in live client")

const (
	defaultPresses = 4
	defaultGap     = 100 * time.Millisecond
)

// FindPlayer locates riotID (tag optional) in players. The Riot game name
// is tried first, then the summoner name, both case-insensitively. The
// returned index is the player's position in the list.
func FindPlayer(players []liveclient.Player, riotID string) (int, liveclient.Player, bool) {
	name, _, _ := strings.Cut(riotID, "#")
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, liveclient.Player{}, false
	}
	for i, p := range players {
		if strings.EqualFold(p.RiotIDGameName, name) {
			return i, p, true
		}
	}
	for i, p := range players {
		if strings.EqualFold(p.SummonerName, name) {
			return i, p, true
		}
	}
	return -1, liveclient.Player{}, false
}

// Automation drives the focus sequence: the player's hotkey several times,
// then scoreboard, interface and the team's fog-of-war toggle.
type Automation struct {
	Keyboard Keyboard
	Presses  int
	Gap      time.Duration
	Logger   *slog.Logger
}

// Focus runs the sequence for riotID. Nothing is pressed when the player
// cannot be mapped to a hotkey.
func (a *Automation) Focus(ctx context.Context, players []liveclient.Player, riotID string) error {
	index, player, ok := FindPlayer(players, riotID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, riotID)
	}
	key, err := FocusKey(player.Team, player.Position, index)
	if err != nil {
		return fmt.Errorf("map camera key: %w", err)
	}
	a.logger().Debug("camera key resolved",
		"player", riotID, "team", player.Team, "position", player.Position, "key", string(key))

	presses := a.Presses
	if presses <= 0 {
		presses = defaultPresses
	}
	sequence := make([]Key, 0, presses+3)
	for range presses {
		sequence = append(sequence, key)
	}
	sequence = append(sequence, KeyScoreboard, KeyInterface, FogKey(player.Team))

	for i, k := range sequence {
		if i > 0 {
			if err := a.sleep(ctx); err != nil {
				return err
			}
		}
		if err := a.Keyboard.Tap(ctx, k); err != nil {
			return fmt.Errorf("press %s: %w", k, err)
		}
	}
	return nil
}

func (a *Automation) sleep(ctx context.Context) error {
	gap := a.Gap
	if gap <= 0 {
		gap = defaultGap
	}
	timer := time.NewTimer(gap)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Automation) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
