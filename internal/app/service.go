// Package app composes configuration, state, accounts and the engine
// into the runnable manager service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"submanager/internal/clock"
	"submanager/internal/config"
	"submanager/internal/engine"
	"submanager/internal/logging"
	"submanager/internal/notify"
	"submanager/internal/reddit"
	"submanager/internal/state"
)

// Version is the release version of the manager.
const Version = "0.6.0"

const userAgent = "golang:submanager:v" + Version

// Options carries the CLI-level run settings.
// Params: config paths and repeat behavior; a zero RepeatInterval
// falls back to the configured repeat_interval_s.
// Returns: service construction input.
type Options struct {
	ConfigPath        string
	DynamicConfigPath string
	Repeat            bool
	RepeatInterval    time.Duration
}

// Service runs the manager loop.
// Params: options, logger and clock; the account factory is
// replaceable for tests.
// Returns: runnable service.
type Service struct {
	opts       Options
	logger     *slog.Logger
	closeLog   func()
	clock      clock.Clock
	newAccount func(config.AccountConfig) reddit.API
}

// NewService builds the service, validating the static config and
// setting up logging sinks.
// Params: run options and clock implementation.
// Returns: initialized service or setup error; ErrNeedsSetup when the
// config skeleton was just generated.
func NewService(opts Options, clk clock.Clock) (*Service, error) {
	doc, err := config.LoadStatic(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(doc.Log)
	if err != nil {
		return nil, err
	}

	return &Service{
		opts:     opts,
		logger:   logger,
		closeLog: closeLog,
		clock:    clk,
		newAccount: func(account config.AccountConfig) reddit.API {
			return reddit.NewClient(account, userAgent)
		},
	}, nil
}

// Close releases logging resources.
func (s *Service) Close() {
	if s.closeLog != nil {
		s.closeLog()
	}
}

// Run executes manager runs until the context is canceled or, without
// repeat mode, after a single run.
// Params: root context.
// Returns: terminal run error; cancellation is a clean exit.
func (s *Service) Run(ctx context.Context) error {
	for {
		s.logger.Info("manager run starting", "config", s.opts.ConfigPath)
		interval, err := s.runOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				s.logger.Info("shutdown requested, exiting")
				return nil
			}
			return err
		}
		s.logger.Info("manager run complete")

		if !s.opts.Repeat {
			return nil
		}
		wait := s.opts.RepeatInterval
		if wait <= 0 {
			wait = interval
		}
		if !sleepSliced(ctx, wait) {
			s.logger.Info("shutdown requested, exiting")
			return nil
		}
	}
}

// runOnce performs one full manager pass: reload config, seed state,
// sync pairs, manage megathreads, persist changed state.
// Params: run context.
// Returns: configured repeat interval and terminal error.
func (s *Service) runOnce(ctx context.Context) (time.Duration, error) {
	doc, err := config.LoadStatic(s.opts.ConfigPath)
	if err != nil {
		return 0, err
	}
	resolved, err := config.Resolve(doc)
	if err != nil {
		return 0, err
	}

	store, existed, err := state.Load(s.opts.DynamicConfigPath)
	if err != nil {
		return 0, err
	}
	for _, pair := range resolved.Pairs {
		store.EnsureSync(pair.ID)
	}
	for _, thread := range resolved.Threads {
		store.EnsureThread(thread.ID, thread.Initial)
	}
	if !existed {
		if err := store.Save(s.opts.DynamicConfigPath); err != nil {
			return 0, err
		}
		s.logger.Info("generated dynamic state file", "path", s.opts.DynamicConfigPath)
	}
	snapshot := store.Snapshot()

	accounts := make(map[string]reddit.API, len(doc.Accounts))
	for name, accountCfg := range doc.Accounts {
		accounts[name] = s.newAccount(accountCfg)
	}

	telegram := notify.NewTelegram(doc.Notify.Telegram, s.logger)
	var rotation engine.RotationNotifier
	if telegram != nil {
		rotation = telegram
	}
	eng := engine.New(accounts, s.clock, s.logger, rotation)

	if resolved.SyncEnabled {
		if err := eng.SyncAll(ctx, resolved, &store); err != nil {
			return 0, s.reportFailure(ctx, telegram, fmt.Errorf("sync run: %w", err))
		}
	}
	if resolved.MegathreadEnabled {
		if err := eng.ManageAll(ctx, resolved, &store); err != nil {
			return 0, s.reportFailure(ctx, telegram, fmt.Errorf("megathread run: %w", err))
		}
	}

	if !store.Equal(snapshot) {
		if err := store.Save(s.opts.DynamicConfigPath); err != nil {
			return 0, err
		}
	}

	interval := time.Duration(doc.RepeatIntervalSec) * time.Second
	return interval, nil
}

// reportFailure forwards a fatal run error to the operator channel
// before it propagates. Cancellation is not an operator-visible failure.
func (s *Service) reportFailure(ctx context.Context, telegram *notify.Telegram, err error) error {
	if telegram != nil && !errors.Is(err, context.Canceled) {
		telegram.NotifyFailure(context.WithoutCancel(ctx), err)
	}
	return err
}

// sleepSliced waits in one-second steps so shutdown stays responsive.
// Params: context and total wait duration.
// Returns: false when the context was canceled before the wait ended.
func sleepSliced(ctx context.Context, total time.Duration) bool {
	deadline := time.Now().Add(total)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		step := time.Second
		if remaining < step {
			step = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(step):
		}
	}
}
