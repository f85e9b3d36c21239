package riot

import (
	"strings"
	"time"
)

// Team sides as the spectator client names them.
const (
	TeamOrder = "ORDER"
	TeamChaos = "CHAOS"
)

// PositionNone marks a participant whose lane is unknown.
const PositionNone = "NONE"

// Match is a live game that can be spectated.
type Match struct {
	GameID        int64
	EncryptionKey string
	Duration      time.Duration
	Mode          string
	Region        string // platform routing value, lower case
	Participants  []Participant
}

// Participant is one player in a Match.
type Participant struct {
	RiotID   string
	PUUID    string
	Team     string
	Position string
}

// Participant returns the participant with the given PUUID.
func (m Match) Participant(puuid string) (Participant, bool) {
	for _, p := range m.Participants {
		if p.PUUID == puuid {
			return p, true
		}
	}
	return Participant{}, false
}

// Lookup is the outcome of FindActiveMatch. Match is nil when the identity
// is not in a game.
type Lookup struct {
	Match      *Match
	AccountRef string
	Resolved   bool // AccountRef was fetched during this lookup
}

type account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type activeGame struct {
	GameID     int64  `json:"gameId"`
	GameMode   string `json:"gameMode"`
	GameLength int64  `json:"gameLength"`
	PlatformID string `json:"platformId"`
	Observers  struct {
		EncryptionKey string `json:"encryptionKey"`
	} `json:"observers"`
	Participants []struct {
		PUUID  string `json:"puuid"`
		RiotID string `json:"riotId"`
		TeamID int    `json:"teamId"`
	} `json:"participants"`
}

func (g activeGame) match(region string) Match {
	m := Match{
		GameID:        g.GameID,
		EncryptionKey: g.Observers.EncryptionKey,
		Duration:      time.Duration(g.GameLength) * time.Second,
		Mode:          strings.ToUpper(g.GameMode),
		Region:        strings.ToLower(region),
	}
	if platform := strings.TrimSpace(g.PlatformID); platform != "" {
		m.Region = strings.ToLower(platform)
	}
	for _, p := range g.Participants {
		team := TeamOrder
		if p.TeamID == 200 {
			team = TeamChaos
		}
		m.Participants = append(m.Participants, Participant{
			RiotID:   p.RiotID,
			PUUID:    p.PUUID,
			Team:     team,
			Position: PositionNone,
		})
	}
	return m
}

// RoutingFor maps a platform region to its regional routing value used by
// the account API. Unknown regions route to europe.
func RoutingFor(region string) string {
	switch strings.ToLower(strings.TrimSpace(region)) {
	case "na1", "br1", "la1", "la2":
		return "americas"
	case "kr", "jp1", "oc1", "ph2", "sg2", "th2", "tw2", "vn2":
		return "asia"
	default:
		return "europe"
	}
}
