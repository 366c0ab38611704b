package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"submanager/internal/app"
	"submanager/internal/clock"
	"submanager/internal/config"
)

// main runs the subreddit manager.
// Params: CLI flags for config paths and repeat mode.
// Returns: process exit code by startup/run result.
func main() {
	defaultStatic, defaultDynamic := config.DefaultPaths()
	var (
		configPath  = flag.String("config-path", defaultStatic, "path to the static TOML config file")
		dynamicPath = flag.String("dynamic-config-path", defaultDynamic, "path to the dynamic state file (.json or .toml)")
		repeat      = flag.Int("repeat", -1, "repeat interval in seconds; 0 uses the configured interval, negative runs once")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("submanager " + app.Version)
		return
	}

	opts := app.Options{
		ConfigPath:        *configPath,
		DynamicConfigPath: *dynamicPath,
		Repeat:            *repeat >= 0,
	}
	if *repeat > 0 {
		opts.RepeatInterval = time.Duration(*repeat) * time.Second
	}

	service, err := app.NewService(opts, clock.RealClock{})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := service.Run(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "manager run failed:", err.Error())
		os.Exit(1)
	}
}
