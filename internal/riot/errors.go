package riot

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrCredentialExpired means the API key was rejected. Nothing
	// succeeds until the operator replaces it.
	ErrCredentialExpired = errors.New("riot api key expired or invalid")
	// ErrTransient covers rate limiting, server errors and network failures.
	ErrTransient = errors.New("riot api unavailable")
	// ErrMalformed means a game payload had no usable game id.
	ErrMalformed = errors.New("malformed active game payload")
	// ErrUnknownIdentity means the Riot ID does not resolve to an account.
	ErrUnknownIdentity = errors.New("riot id not found")
)

// NotEligibleError explains why a live match is not spectated.
type NotEligibleError struct {
	GameID  int64
	Reasons []string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("game %d not eligible: %s", e.GameID, strings.Join(e.Reasons, "; "))
}

// Filter is the eligibility policy applied to live matches.
type Filter struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	Modes       []string
}

// DefaultFilter returns the stock policy: 60s to 5400s of game time in
// CLASSIC or ARAM.
func DefaultFilter() Filter {
	return Filter{
		MinDuration: 60 * time.Second,
		MaxDuration: 5400 * time.Second,
		Modes:       []string{"CLASSIC", "ARAM"},
	}
}

// Eligible returns nil when the match passes the filter, or a
// *NotEligibleError listing every failed check. Both duration bounds are
// inclusive.
func Eligible(m Match, f Filter) error {
	var reasons []string
	if m.Duration < f.MinDuration {
		reasons = append(reasons, fmt.Sprintf("game time %s below %s", m.Duration, f.MinDuration))
	}
	if m.Duration > f.MaxDuration {
		reasons = append(reasons, fmt.Sprintf("game time %s above %s", m.Duration, f.MaxDuration))
	}
	if !modeAllowed(m.Mode, f.Modes) {
		reasons = append(reasons, fmt.Sprintf("game mode %s is not spectatable", m.Mode))
	}
	if len(reasons) == 0 {
		return nil
	}
	return &NotEligibleError{GameID: m.GameID, Reasons: reasons}
}

func modeAllowed(mode string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mode) {
			return true
		}
	}
	return false
}
