// Package process launches the spectator viewer and supervises it by
// executable name.
//
// # Launch
//
// Launcher resolves the game directory from the configured install path
// (preferring a Game subdirectory), reads the client locale from
// Config/LeagueClientSettings.yaml and starts the viewer with its working
// directory set to the game directory:
//
//	"League of Legends.exe" \
//	    "spectator spectator.euw1.lol.pvp.net:8080 <key> <gameId> EUW1" \
//	    -UseRads -GameBaseDir=.. -Locale=en_US -SkipBuild \
//	    -EnableCrashpad=true -EnableLNP
//
// On Linux the executable usually runs under a wrapper such as wine, set
// through Launcher.Wrapper. A viewer that exits inside the grace window
// (one second by default) is reported as ErrExitedEarly.
//
// # Supervision
//
// Supervisor enumerates processes with gopsutil and matches the executable
// name case-insensitively. Running and Kill make one pass each and never
// retry; a process that has already exited or cannot be signalled is
// skipped.
package process
