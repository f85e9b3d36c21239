// Package roster holds the monitored identities and persists resolved
// account references back to the roster file.
package roster

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultRosterPath = "~/.config/lookout/roster.toml"
	defaultRegion     = "euw1"
)

// Identity is one monitored account.
type Identity struct {
	Name       string
	RiotID     string // gameName#tagLine
	Region     string // platform routing value, e.g. euw1
	AccountRef string // PUUID, resolved once and cached
	Priority   int    // lower wins
	Enabled    bool
	StreamKey  string
	Channel    string
}

// GameName returns the part of the Riot ID before '#'.
func (i Identity) GameName() string {
	name, _, _ := strings.Cut(i.RiotID, "#")
	return strings.TrimSpace(name)
}

// TagLine returns the part of the Riot ID after '#', or "" when absent.
func (i Identity) TagLine() string {
	_, tag, _ := strings.Cut(i.RiotID, "#")
	return strings.TrimSpace(tag)
}

// Provider is the roster as seen by the scheduler.
type Provider interface {
	Identities() []Identity
	SaveAccountRef(name, ref string) error
}

// Snapshot returns the enabled identities sorted by ascending priority.
// Ties keep roster order.
func Snapshot(ids []Identity) []Identity {
	out := make([]Identity, 0, len(ids))
	for _, id := range ids {
		if id.Enabled {
			out = append(out, id)
		}
	}
	slices.SortStableFunc(out, func(a, b Identity) int {
		return a.Priority - b.Priority
	})
	return out
}

type fileIdentity struct {
	Name       string `toml:"name"`
	RiotID     string `toml:"riot_id"`
	Region     string `toml:"region,omitempty"`
	AccountRef string `toml:"account_ref,omitempty"`
	Priority   int    `toml:"priority"`
	Enabled    *bool  `toml:"enabled,omitempty"`
	StreamKey  string `toml:"stream_key,omitempty"`
	Channel    string `toml:"channel,omitempty"`
}

type fileRoster struct {
	Players []fileIdentity `toml:"player"`
}

// FileStore is a TOML-backed roster. Writes go straight to disk.
type FileStore struct {
	path string

	mu  sync.RWMutex
	ids []Identity
}

// DefaultPath returns the default roster file path.
func DefaultPath() string {
	return defaultRosterPath
}

// Open loads the roster at path. A missing file yields an empty roster
// that is created on the first write.
func Open(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultRosterPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	store := &FileStore{path: resolved}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var raw fileRoster
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	seen := make(map[string]struct{}, len(raw.Players))
	for _, p := range raw.Players {
		id, err := p.identity()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id.Name]; dup {
			return nil, fmt.Errorf("parse roster: duplicate player %q", id.Name)
		}
		seen[id.Name] = struct{}{}
		store.ids = append(store.ids, id)
	}
	return store, nil
}

// Path returns the resolved roster file path.
func (s *FileStore) Path() string {
	return s.path
}

// Identities returns a copy of the roster in file order.
func (s *FileStore) Identities() []Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ids)
}

// SaveAccountRef caches a resolved account reference for name and
// rewrites the roster file.
func (s *FileStore) SaveAccountRef(name, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.ids, func(id Identity) bool { return id.Name == name })
	if idx < 0 {
		return fmt.Errorf("roster has no player %q", name)
	}
	if s.ids[idx].AccountRef == ref {
		return nil
	}
	s.ids[idx].AccountRef = ref
	return s.writeLocked()
}

func (s *FileStore) writeLocked() error {
	raw := fileRoster{Players: make([]fileIdentity, 0, len(s.ids))}
	for _, id := range s.ids {
		enabled := id.Enabled
		raw.Players = append(raw.Players, fileIdentity{
			Name:       id.Name,
			RiotID:     id.RiotID,
			Region:     id.Region,
			AccountRef: id.AccountRef,
			Priority:   id.Priority,
			Enabled:    &enabled,
			StreamKey:  id.StreamKey,
			Channel:    id.Channel,
		})
	}

	bytes, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create roster dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o600); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace roster: %w", err)
	}
	return nil
}

func (p fileIdentity) identity() (Identity, error) {
	id := Identity{
		Name:       strings.TrimSpace(p.Name),
		RiotID:     strings.TrimSpace(p.RiotID),
		Region:     strings.ToLower(strings.TrimSpace(p.Region)),
		AccountRef: strings.TrimSpace(p.AccountRef),
		Priority:   p.Priority,
		Enabled:    p.Enabled == nil || *p.Enabled,
		StreamKey:  strings.TrimSpace(p.StreamKey),
		Channel:    strings.TrimSpace(p.Channel),
	}
	if id.RiotID == "" {
		return Identity{}, fmt.Errorf("parse roster: player %q has no riot_id", p.Name)
	}
	if id.Name == "" {
		id.Name = id.RiotID
	}
	if id.Region == "" {
		id.Region = defaultRegion
	}
	return id, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
