package camera

import (
	"fmt"
	"strings"
)

// Key is a key name in X keysym notation, as xdotool expects it.
type Key string

const (
	KeyScoreboard Key = "o"
	KeyInterface  Key = "u"
	KeyFogOrder   Key = "F1"
	KeyFogChaos   Key = "F2"
)

var (
	orderKeys = [5]Key{"KP_1", "KP_2", "KP_3", "KP_4", "KP_5"}
	chaosKeys = [5]Key{"a", "z", "e", "r", "t"}
)

var positionSlot = map[string]int{
	"TOP":     0,
	"JUNGLE":  1,
	"MIDDLE":  2,
	"BOTTOM":  3,
	"UTILITY": 4,
}

// FocusKey maps a participant to the hotkey that locks the camera on them.
// ORDER uses numpad 1-5 and CHAOS uses a z e r t in lane order. Without a
// known lane the participant's index in the player list picks the slot,
// modulo the team size.
func FocusKey(team, position string, index int) (Key, error) {
	slot, ok := positionSlot[strings.ToUpper(strings.TrimSpace(position))]
	if !ok {
		slot = ((index % 5) + 5) % 5
	}
	switch strings.ToUpper(strings.TrimSpace(team)) {
	case "ORDER":
		return orderKeys[slot], nil
	case "CHAOS":
		return chaosKeys[slot], nil
	default:
		return "", fmt.Errorf("unknown team %q", team)
	}
}

// FogKey returns the fog-of-war toggle for team.
func FogKey(team string) Key {
	if strings.EqualFold(team, "CHAOS") {
		return KeyFogChaos
	}
	return KeyFogOrder
}
