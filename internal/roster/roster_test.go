package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshot_FiltersDisabledAndSortsStable(t *testing.T) {
	ids := []Identity{
		{Name: "A", Priority: 2, Enabled: true},
		{Name: "B", Priority: 0, Enabled: true},
		{Name: "off", Priority: -5, Enabled: false},
		{Name: "C", Priority: 1, Enabled: true},
		{Name: "D", Priority: 0, Enabled: true},
	}

	got := Snapshot(ids)
	var names []string
	for _, id := range got {
		names = append(names, id.Name)
	}
	if strings.Join(names, ",") != "B,D,C,A" {
		t.Fatalf("Snapshot order = %v, want [B D C A]", names)
	}

	got[0].Name = "mutated"
	if ids[1].Name != "B" {
		t.Fatalf("Snapshot should not alias input")
	}
}

func TestIdentity_RiotIDParts(t *testing.T) {
	id := Identity{RiotID: "Hide on bush#KR1"}
	if id.GameName() != "Hide on bush" || id.TagLine() != "KR1" {
		t.Fatalf("parts = %q/%q, want Hide on bush/KR1", id.GameName(), id.TagLine())
	}
	if (Identity{RiotID: "solo"}).TagLine() != "" {
		t.Fatalf("TagLine without '#' should be empty")
	}
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if len(store.Identities()) != 0 {
		t.Fatalf("Identities = %v, want empty", store.Identities())
	}
}

func TestOpen_ParsesDefaultsAndWritesBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.toml")
	if err := os.WriteFile(path, []byte(`
[[player]]
name = "faker"
riot_id = " Hide on bush#KR1 "
region = "KR"
priority = 0

[[player]]
riot_id = "Caps#EUW"
priority = 1
enabled = false
stream_key = "live_123"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	ids := store.Identities()
	if len(ids) != 2 {
		t.Fatalf("len(ids) = %d, want 2", len(ids))
	}
	if ids[0].RiotID != "Hide on bush#KR1" || ids[0].Region != "kr" || !ids[0].Enabled {
		t.Fatalf("first identity = %#v", ids[0])
	}
	if ids[1].Name != "Caps#EUW" || ids[1].Region != defaultRegion || ids[1].Enabled {
		t.Fatalf("second identity = %#v", ids[1])
	}

	if err := store.SaveAccountRef("faker", "puuid-1"); err != nil {
		t.Fatalf("SaveAccountRef returned error: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	got := reloaded.Identities()
	if got[0].AccountRef != "puuid-1" {
		t.Fatalf("AccountRef = %q, want puuid-1", got[0].AccountRef)
	}
	if got[1].Enabled || got[1].StreamKey != "live_123" {
		t.Fatalf("second identity lost fields on write-back: %#v", got[1])
	}
}

func TestSaveAccountRef_UnknownPlayer(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "roster.toml"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.SaveAccountRef("ghost", "x"); err == nil {
		t.Fatalf("SaveAccountRef returned nil error, want error")
	}
}

func TestOpen_RejectsDuplicatesAndMissingRiotID(t *testing.T) {
	dir := t.TempDir()

	dup := filepath.Join(dir, "dup.toml")
	_ = os.WriteFile(dup, []byte(`
[[player]]
name = "a"
riot_id = "A#1"
[[player]]
name = "a"
riot_id = "B#2"
`), 0o600)
	if _, err := Open(dup); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("Open dup error = %v, want duplicate error", err)
	}

	missing := filepath.Join(dir, "missing.toml")
	_ = os.WriteFile(missing, []byte(`
[[player]]
name = "a"
`), 0o600)
	if _, err := Open(missing); err == nil || !strings.Contains(err.Error(), "riot_id") {
		t.Fatalf("Open missing error = %v, want riot_id error", err)
	}
}
