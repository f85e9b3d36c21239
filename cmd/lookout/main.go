package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/five82/lookout/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	var opts app.Options
	flag.StringVar(&opts.ConfigPath, "config", "", "config file path (default ~/.config/lookout/config.toml)")
	flag.StringVar(&opts.RosterPath, "roster", "", "roster file path (overrides roster_path)")
	flag.StringVar(&opts.LogOutput, "log-output", "", "JSON log file path (overrides log_path)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "minimum level: debug, info, success, warning, error")
	flag.BoolVar(&opts.Headless, "headless", false, "run without the dashboard, logging to stderr")
	flag.BoolVar(&opts.NoInput, "no-input", false, "never send key taps to the viewer")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "lookout: %v\n", err)
		return 1
	}
	return 0
}
