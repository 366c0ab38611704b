package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"submanager/internal/clock"
	"submanager/internal/config"
	"submanager/internal/reddit"
	"submanager/internal/state"
)

const testConfigBody = `
repeat_interval_s = 15

[accounts.main]
client_id = "id"
client_secret = "secret"
refresh_token = "token"

[defaults]
account = "main"
subreddit = "testsub"

[sync.pairs.demo]
description = "Demo pair"
enabled = false

[sync.pairs.demo.source]
endpoint_name = "src"

[sync.pairs.demo.targets.one]
endpoint_name = "dst"

[megathread.megathreads.daily]
description = "Daily thread"
enabled = false

[megathread.megathreads.daily.initial]
thread_number = 2
thread_id = "abc"

[megathread.megathreads.daily.source]
endpoint_name = "threads"
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte(testConfigBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &Service{
		opts: Options{
			ConfigPath:        configPath,
			DynamicConfigPath: filepath.Join(dir, "config_dynamic.json"),
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  clock.RealClock{},
		newAccount: func(account config.AccountConfig) reddit.API {
			return reddit.NewClient(account, "submanager test")
		},
	}
}

func TestRunOnceSeedsDynamicState(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	interval, err := service.runOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if interval != 15*time.Second {
		t.Fatalf("unexpected repeat interval %v", interval)
	}

	store, existed, err := state.Load(service.opts.DynamicConfigPath)
	if err != nil {
		t.Fatalf("load dynamic state: %v", err)
	}
	if !existed {
		t.Fatalf("dynamic state file was not generated")
	}
	if store.Sync["demo"] == nil {
		t.Fatalf("pair record not seeded: %#v", store.Sync)
	}
	rec := store.Megathread["daily"]
	if rec == nil || rec.ThreadNumber != 2 || rec.ThreadID != "abc" {
		t.Fatalf("thread record not seeded from initial state: %#v", rec)
	}
}

func TestRunOnceIsIdempotentOnDisabledItems(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	if _, err := service.runOnce(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	before, err := os.ReadFile(service.opts.DynamicConfigPath)
	if err != nil {
		t.Fatalf("read dynamic state: %v", err)
	}

	if _, err := service.runOnce(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	after, err := os.ReadFile(service.opts.DynamicConfigPath)
	if err != nil {
		t.Fatalf("read dynamic state: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("state rewritten without changes:\n%s\nvs\n%s", before, after)
	}
}

func TestRunStopsWithoutRepeat(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	done := make(chan error, 1)
	go func() {
		done <- service.Run(context.Background())
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not finish in single-run mode")
	}
}
