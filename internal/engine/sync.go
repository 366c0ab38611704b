// Package engine runs the two periodic tasks of the manager: content
// sync between configured endpoint pairs and megathread lifecycle
// management.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"submanager/internal/clock"
	"submanager/internal/config"
	"submanager/internal/domain"
	"submanager/internal/endpoint"
	"submanager/internal/menu"
	"submanager/internal/reddit"
	"submanager/internal/region"
	"submanager/internal/state"
)

// postUnpinSettleDelay gives the platform time to register an unpin
// before the replacement sticky is read and set.
const postUnpinSettleDelay = 10 * time.Second

// RotationNotifier receives a notification after a new megathread has
// been posted.
type RotationNotifier interface {
	NotifyRotation(ctx context.Context, description, title, url string)
}

// Engine executes sync pairs and megathread checks against a set of
// account API clients.
// Params: account clients keyed by account id, clock, logger and an
// optional rotation notifier.
// Returns: engine driving all per-run work; not safe for concurrent
// runs against the same state document.
type Engine struct {
	accounts map[string]reddit.API
	clock    clock.Clock
	logger   *slog.Logger
	notifier RotationNotifier

	newEndpoint func(reddit.API, config.EndpointConfig) (endpoint.Endpoint, error)
	sleep       func(time.Duration)
	settleDelay time.Duration
}

// New constructs an engine.
// Params: account clients, clock, logger, optional notifier (nil
// disables rotation notices).
// Returns: ready engine.
func New(accounts map[string]reddit.API, clk clock.Clock, logger *slog.Logger, notifier RotationNotifier) *Engine {
	return &Engine{
		accounts:    accounts,
		clock:       clk,
		logger:      logger,
		notifier:    notifier,
		newEndpoint: endpoint.New,
		sleep:       time.Sleep,
		settleDelay: postUnpinSettleDelay,
	}
}

// SyncAll runs every resolved sync pair.
// Params: resolved settings and the dynamic state document.
// Returns: error only for configuration problems or a canceled
// context; per-pair runtime failures are logged and skipped.
func (e *Engine) SyncAll(ctx context.Context, resolved config.Resolved, store *state.Document) error {
	for _, pair := range resolved.Pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := store.EnsureSync(pair.ID)
		if _, err := e.SyncOne(ctx, pair, rec); err != nil {
			if errors.Is(err, config.ErrConfiguration) {
				return err
			}
			e.logger.Error("sync pair failed", "pair", pair.ID, "error", err.Error())
		}
	}
	return nil
}

// SyncOne syncs one source endpoint into its targets.
// Params: resolved pair and its dynamic record.
// Returns: true when at least the source was processed; false when
// the pair was skipped as disabled or unchanged.
func (e *Engine) SyncOne(ctx context.Context, pair config.ResolvedPair, rec *state.PairRecord) (bool, error) {
	if !pair.Enabled || !pair.Source.Enabled {
		return false, nil
	}
	if len(pair.Targets) == 0 {
		return false, fmt.Errorf("%w: no sync targets specified for pair %s", config.ErrConfiguration, pair.ID)
	}

	content, skip, err := e.processSource(ctx, pair.Source, rec)
	if err != nil {
		return false, err
	}
	if skip {
		return false, nil
	}

	for _, target := range pair.Targets {
		if !target.Enabled {
			continue
		}
		if err := e.syncTarget(ctx, pair.Description, target, content); err != nil {
			return true, fmt.Errorf("target %s: %w", target.Name, err)
		}
	}
	return true, nil
}

// processSource fetches, gates and preprocesses the source content.
// Params: source endpoint config and the pair record carrying the
// staleness watermark.
// Returns: processed content, a skip flag for unchanged or unmatched
// sources, or an error.
func (e *Engine) processSource(ctx context.Context, cfg config.EndpointConfig, rec *state.PairRecord) (domain.Content, bool, error) {
	source, err := e.buildEndpoint(cfg)
	if err != nil {
		return nil, false, err
	}

	revision, supported, err := source.Revision(ctx)
	if err != nil {
		return nil, false, err
	}
	if supported {
		if revision <= rec.SourceTimestamp {
			return nil, true, nil
		}
		// Advance the watermark before content processing so a later
		// pattern miss does not retry the same revision forever.
		rec.SourceTimestamp = revision
	}

	content, err := source.Content(ctx)
	if err != nil {
		return nil, false, err
	}

	text, isText := content.(domain.Text)
	if !isText {
		return content, false, nil
	}

	extracted, found := region.Extract(string(text), cfg.Region())
	if !found {
		e.logger.Warn("sync pattern not found in source, skipping", "source", source.Description())
		return nil, true, nil
	}
	extracted = applyReplacePatterns(extracted, cfg.ReplacePatterns)
	return domain.Text(extracted), false, nil
}

// syncTarget deploys processed source content into one target.
func (e *Engine) syncTarget(ctx context.Context, pairDescription string, target config.ResolvedTarget, source domain.Content) error {
	ep, err := e.buildEndpoint(target.EndpointConfig)
	if err != nil {
		return err
	}

	kind, err := domain.ParseEndpointType(target.EndpointType)
	if err != nil {
		return fmt.Errorf("%w: target %q: %v", config.ErrConfiguration, target.Name, err)
	}

	var payload domain.Content
	switch sourceValue := source.(type) {
	case domain.Text:
		text := applyReplacePatterns(string(sourceValue), target.ReplacePatterns)
		if kind == domain.EndpointMenu {
			parsed, parseErr := menu.Parse(text, target.MenuConfig)
			if parseErr != nil {
				return fmt.Errorf("%w: parse menu for target %s: %v", config.ErrConfiguration, target.Name, parseErr)
			}
			payload = domain.Menu(parsed)
			break
		}

		current, contentErr := ep.Content(ctx)
		if contentErr != nil {
			return contentErr
		}
		currentText, ok := current.(domain.Text)
		if !ok {
			e.logger.Warn("source and target content kinds differ, skipping", "target", ep.Description())
			return nil
		}
		replaced, found := region.Replace(string(currentText), target.Region(), text)
		if !found {
			e.logger.Warn("sync pattern not found in target, skipping", "target", ep.Description())
			return nil
		}
		payload = domain.Text(replaced)
	case domain.Menu:
		if kind != domain.EndpointMenu {
			e.logger.Warn("menu content cannot sync into a text target, skipping", "target", ep.Description())
			return nil
		}
		payload = sourceValue
	default:
		return fmt.Errorf("unhandled source content type %T", source)
	}

	reason := fmt.Sprintf("Auto-sync %s from %s", pairDescription, ep.Name())
	return ep.Edit(ctx, payload, reason)
}

func (e *Engine) buildEndpoint(cfg config.EndpointConfig) (endpoint.Endpoint, error) {
	api, ok := e.accounts[cfg.Account]
	if !ok {
		return nil, fmt.Errorf("%w: unknown account %q for endpoint %q", config.ErrConfiguration, cfg.Account, cfg.EndpointName)
	}
	return e.newEndpoint(api, cfg)
}

// applyReplacePatterns runs the ordered literal substitutions; each
// replacement is visible to the following entries.
func applyReplacePatterns(text string, patterns []config.ReplacePattern) string {
	for _, pattern := range patterns {
		text = strings.ReplaceAll(text, pattern.Old, pattern.New)
	}
	return text
}
