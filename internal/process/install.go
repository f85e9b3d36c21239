package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultLocale = "en_US"

// ErrExecutableNotFound means the install path holds no game executable.
var ErrExecutableNotFound = errors.New("game executable not found")

// ResolveGameDir returns the directory holding the game executable. An
// install path that already ends in "Game" is used as-is; otherwise a Game
// subdirectory wins when it exists.
func ResolveGameDir(installPath, executable string) (string, error) {
	dir := filepath.Clean(strings.TrimSpace(installPath))
	if dir == "." || dir == "" {
		return "", fmt.Errorf("install path is empty")
	}
	if !strings.EqualFold(filepath.Base(dir), "Game") {
		candidate := filepath.Join(dir, "Game")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			dir = candidate
		}
	}
	if _, err := os.Stat(filepath.Join(dir, executable)); err != nil {
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, filepath.Join(dir, executable))
	}
	return dir, nil
}

// ReadLocale reads the client locale from Config/LeagueClientSettings.yaml
// next to the game dir. Any failure yields en_US.
func ReadLocale(gameDir string) string {
	path := filepath.Join(filepath.Dir(gameDir), "Config", "LeagueClientSettings.yaml")
	bytes, err := os.ReadFile(path)
	if err != nil {
		return defaultLocale
	}
	var doc map[string]any
	if err := yaml.Unmarshal(bytes, &doc); err != nil {
		return defaultLocale
	}
	if locale, ok := findKey(doc, "locale"); ok {
		return locale
	}
	return defaultLocale
}

func findKey(node any, key string) (string, bool) {
	switch v := node.(type) {
	case map[string]any:
		if raw, ok := v[key]; ok {
			if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
		for _, child := range v {
			if found, ok := findKey(child, key); ok {
				return found, true
			}
		}
	case []any:
		for _, child := range v {
			if found, ok := findKey(child, key); ok {
				return found, true
			}
		}
	}
	return "", false
}
