// Package config loads lookout's settings.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/lookout/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. Empty fields keep their defaults
//  5. LOOKOUT_API_KEY, LOOKOUT_INSTALL_PATH and LOOKOUT_OBS_PASSWORD
//     override whatever the file said
//
// # TOML Format
//
//	api_key = "RGAPI-..."
//	install_path = "~/Games/league-of-legends/drive_c/Riot Games/League of Legends"
//	launch_wrapper = ["wine"]
//	modes = ["CLASSIC", "ARAM"]
//	min_duration = "1m"
//	max_duration = "90m"
//	input_backend = "xdotool" # or "none"
//
//	[obs]
//	enabled = true
//	host = "localhost"
//	port = 4455
//	password = ""
//	server = "rtmp://live.twitch.tv/app"
//
//	[timings]
//	cycle_delay = "35s"
//	process_timeout = "45s"
//
// Every key under [timings] is a Go duration string. Unknown timing keys
// are rejected so typos surface at startup.
//
// # Validation
//
// Load only fails on unreadable or malformed files. Missing settings are
// reported by Validate as operator-facing strings, which the UI shows
// before refusing to start the service.
package config
