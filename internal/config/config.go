package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything lookout needs to watch the roster and drive the
// spectator client.
type Config struct {
	APIKey       string
	InstallPath  string
	Executable   string
	Wrapper      []string // command prefix for the viewer, e.g. ["wine"]
	TelemetryURL string
	RosterPath   string
	LogPath      string
	InputBackend string

	Modes       []string
	MinDuration time.Duration
	MaxDuration time.Duration

	OBS     OBS
	Timings Timings
}

// OBS describes the streaming bridge connection.
type OBS struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	Server   string // RTMP ingest URL pushed along with the stream key
}

// Timings holds every wait the scheduler and session controller use.
type Timings struct {
	CycleDelay       time.Duration
	PauseInterval    time.Duration
	LookupCooldown   time.Duration
	LaunchGrace      time.Duration
	ProcessPoll      time.Duration
	ProcessTimeout   time.Duration
	GameReadyPoll    time.Duration
	GameReadyTimeout time.Duration
	TelemetryPoll    time.Duration
	TelemetryTimeout time.Duration
	Settle           time.Duration
	KeyGap           time.Duration
	ShutdownCeiling  time.Duration
}

const (
	defaultConfigPath   = "~/.config/lookout/config.toml"
	defaultRosterPath   = "~/.config/lookout/roster.toml"
	defaultLogPath      = "~/.local/state/lookout/lookout.log"
	defaultExecutable   = "League of Legends.exe"
	defaultTelemetryURL = "https://127.0.0.1:2999"
	defaultInputBackend = InputXdotool
	defaultOBSHost      = "localhost"
	defaultOBSPort      = 4455

	InputXdotool = "xdotool"
	InputNone    = "none"
)

// DefaultModes is the queue-type allow-list used when none is configured.
var DefaultModes = []string{"CLASSIC", "ARAM"}

// DefaultTimings returns the stock waits.
func DefaultTimings() Timings {
	return Timings{
		CycleDelay:       35 * time.Second,
		PauseInterval:    5 * time.Second,
		LookupCooldown:   3 * time.Second,
		LaunchGrace:      time.Second,
		ProcessPoll:      time.Second,
		ProcessTimeout:   45 * time.Second,
		GameReadyPoll:    5 * time.Second,
		GameReadyTimeout: 60 * time.Second,
		TelemetryPoll:    2 * time.Second,
		TelemetryTimeout: 30 * time.Second,
		Settle:           3 * time.Second,
		KeyGap:           100 * time.Millisecond,
		ShutdownCeiling:  10 * time.Second,
	}
}

// Default returns a configuration with every default applied and paths
// expanded.
func Default() Config {
	return Config{
		Executable:   defaultExecutable,
		TelemetryURL: defaultTelemetryURL,
		RosterPath:   mustExpand(defaultRosterPath),
		LogPath:      mustExpand(defaultLogPath),
		InputBackend: defaultInputBackend,
		Modes:        append([]string(nil), DefaultModes...),
		MinDuration:  60 * time.Second,
		MaxDuration:  5400 * time.Second,
		OBS:          OBS{Host: defaultOBSHost, Port: defaultOBSPort},
		Timings:      DefaultTimings(),
	}
}

type rawConfig struct {
	APIKey       string   `toml:"api_key"`
	InstallPath  string   `toml:"install_path"`
	Executable   string   `toml:"executable"`
	Wrapper      []string `toml:"launch_wrapper"`
	TelemetryURL string   `toml:"telemetry_url"`
	RosterPath   string   `toml:"roster_path"`
	LogPath      string   `toml:"log_path"`
	InputBackend string   `toml:"input_backend"`
	Modes        []string `toml:"modes"`
	MinDuration  string   `toml:"min_duration"`
	MaxDuration  string   `toml:"max_duration"`

	OBS struct {
		Enabled  bool   `toml:"enabled"`
		Host     string `toml:"host"`
		Port     int    `toml:"port"`
		Password string `toml:"password"`
		Server   string `toml:"server"`
	} `toml:"obs"`

	Timings map[string]string `toml:"timings"`
}

// envOverrides are read after the file; set variables win.
type envOverrides struct {
	APIKey      string `env:"LOOKOUT_API_KEY"`
	InstallPath string `env:"LOOKOUT_INSTALL_PATH"`
	OBSPassword string `env:"LOOKOUT_OBS_PASSWORD"`
}

// Load locates and parses the lookout config, falling back to defaults when
// the file is missing. Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer func() { _ = file.Close() }()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var raw rawConfig
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.apply(raw); err != nil {
			return Config{}, err
		}
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if v := strings.TrimSpace(overrides.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(overrides.InstallPath); v != "" {
		cfg.InstallPath = mustExpand(v)
	}
	if v := strings.TrimSpace(overrides.OBSPassword); v != "" {
		cfg.OBS.Password = v
	}

	return cfg, nil
}

func (c *Config) apply(raw rawConfig) error {
	c.APIKey = strings.TrimSpace(raw.APIKey)
	if v := strings.TrimSpace(raw.InstallPath); v != "" {
		c.InstallPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Executable); v != "" {
		c.Executable = v
	}
	for _, part := range raw.Wrapper {
		if p := strings.TrimSpace(part); p != "" {
			c.Wrapper = append(c.Wrapper, p)
		}
	}
	if v := strings.TrimSpace(raw.TelemetryURL); v != "" {
		c.TelemetryURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.RosterPath); v != "" {
		c.RosterPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		c.LogPath = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.InputBackend)); v != "" {
		c.InputBackend = v
	}

	var modes []string
	for _, mode := range raw.Modes {
		if m := strings.ToUpper(strings.TrimSpace(mode)); m != "" {
			modes = append(modes, m)
		}
	}
	if len(modes) > 0 {
		c.Modes = modes
	}

	if err := parseDuration("min_duration", raw.MinDuration, &c.MinDuration); err != nil {
		return err
	}
	if err := parseDuration("max_duration", raw.MaxDuration, &c.MaxDuration); err != nil {
		return err
	}

	c.OBS.Enabled = raw.OBS.Enabled
	if v := strings.TrimSpace(raw.OBS.Host); v != "" {
		c.OBS.Host = v
	}
	if raw.OBS.Port > 0 {
		c.OBS.Port = raw.OBS.Port
	}
	c.OBS.Password = raw.OBS.Password
	c.OBS.Server = strings.TrimSpace(raw.OBS.Server)

	return c.Timings.apply(raw.Timings)
}

func (t *Timings) apply(raw map[string]string) error {
	fields := map[string]*time.Duration{
		"cycle_delay":        &t.CycleDelay,
		"pause_interval":     &t.PauseInterval,
		"lookup_cooldown":    &t.LookupCooldown,
		"launch_grace":       &t.LaunchGrace,
		"process_poll":       &t.ProcessPoll,
		"process_timeout":    &t.ProcessTimeout,
		"game_ready_poll":    &t.GameReadyPoll,
		"game_ready_timeout": &t.GameReadyTimeout,
		"telemetry_poll":     &t.TelemetryPoll,
		"telemetry_timeout":  &t.TelemetryTimeout,
		"settle":             &t.Settle,
		"key_gap":            &t.KeyGap,
		"shutdown_ceiling":   &t.ShutdownCeiling,
	}
	for key, value := range raw {
		target, ok := fields[key]
		if !ok {
			return fmt.Errorf("parse config: unknown timing %q", key)
		}
		if err := parseDuration("timings."+key, value, target); err != nil {
			return err
		}
	}
	return nil
}

func parseDuration(name, value string, target *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", name, err)
	}
	if d < 0 {
		return fmt.Errorf("parse config: %s must not be negative", name)
	}
	*target = d
	return nil
}

// Validate lists the problems that keep the service from starting. An
// empty result means the configuration is usable.
func (c Config) Validate() []string {
	var problems []string
	if c.APIKey == "" {
		problems = append(problems, "Riot API key not configured")
	}
	if c.InstallPath == "" {
		problems = append(problems, "League install path not configured")
	} else if _, err := os.Stat(c.InstallPath); err != nil {
		problems = append(problems, fmt.Sprintf("League install path %s not found", c.InstallPath))
	}
	if c.MinDuration > c.MaxDuration {
		problems = append(problems, "min_duration is greater than max_duration")
	}
	switch c.InputBackend {
	case InputXdotool, InputNone:
	default:
		problems = append(problems, fmt.Sprintf("unknown input_backend %q", c.InputBackend))
	}
	if c.OBS.Enabled {
		if c.OBS.Host == "" {
			problems = append(problems, "OBS host not configured")
		}
		if c.OBS.Port <= 0 {
			problems = append(problems, "OBS port not configured")
		}
	}
	return problems
}

// OBSAddress returns the websocket URL of the OBS server.
func (c Config) OBSAddress() string {
	return fmt.Sprintf("ws://%s:%d", c.OBS.Host, c.OBS.Port)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
