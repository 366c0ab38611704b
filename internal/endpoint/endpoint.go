// Package endpoint adapts the configured content locations (wiki
// pages, threads, sidebar widgets, the topbar menu) to one common
// read/write surface for the sync engine.
package endpoint

import (
	"context"
	"fmt"

	"submanager/internal/config"
	"submanager/internal/domain"
	"submanager/internal/reddit"
)

// Endpoint is one readable and writable content location.
type Endpoint interface {
	// Name returns the configured endpoint name.
	Name() string
	// Description returns the human-readable endpoint description.
	Description() string
	// Content fetches the current content of the location.
	Content(ctx context.Context) (domain.Content, error)
	// Edit replaces the content of the location. The reason is
	// recorded where the platform supports edit reasons.
	Edit(ctx context.Context, content domain.Content, reason string) error
	// Revision returns the last-modified timestamp in unix seconds.
	// The second result is false when the location has no revision
	// history.
	Revision(ctx context.Context) (int64, bool, error)
}

// New builds the endpoint for one resolved configuration.
// Params: API client of the owning account, resolved endpoint config.
// Returns: typed endpoint, or an error for unknown endpoint types.
func New(api reddit.API, cfg config.EndpointConfig) (Endpoint, error) {
	kind, err := domain.ParseEndpointType(cfg.EndpointType)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint %q: %v", config.ErrConfiguration, cfg.EndpointName, err)
	}
	switch kind {
	case domain.EndpointWikiPage:
		return &wikiEndpoint{api: api, cfg: cfg}, nil
	case domain.EndpointThread:
		return &threadEndpoint{api: api, cfg: cfg}, nil
	case domain.EndpointWidget:
		return &widgetEndpoint{api: api, cfg: cfg}, nil
	case domain.EndpointMenu:
		return &menuEndpoint{api: api, cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: endpoint %q: unhandled type %s", config.ErrConfiguration, cfg.EndpointName, kind)
	}
}

type wikiEndpoint struct {
	api reddit.API
	cfg config.EndpointConfig
}

func (e *wikiEndpoint) Name() string        { return e.cfg.EndpointName }
func (e *wikiEndpoint) Description() string { return e.cfg.Description }

func (e *wikiEndpoint) Content(ctx context.Context) (domain.Content, error) {
	page, err := e.api.WikiPage(ctx, e.cfg.Subreddit, e.cfg.EndpointName)
	if err != nil {
		return nil, fmt.Errorf("read wiki page %s/%s: %w", e.cfg.Subreddit, e.cfg.EndpointName, err)
	}
	return domain.Text(page.Content), nil
}

func (e *wikiEndpoint) Edit(ctx context.Context, content domain.Content, reason string) error {
	text, ok := content.(domain.Text)
	if !ok {
		return fmt.Errorf("wiki page %s accepts only text content", e.cfg.EndpointName)
	}
	if err := e.api.EditWikiPage(ctx, e.cfg.Subreddit, e.cfg.EndpointName, string(text), reason); err != nil {
		return fmt.Errorf("edit wiki page %s/%s: %w", e.cfg.Subreddit, e.cfg.EndpointName, err)
	}
	return nil
}

func (e *wikiEndpoint) Revision(ctx context.Context) (int64, bool, error) {
	page, err := e.api.WikiPage(ctx, e.cfg.Subreddit, e.cfg.EndpointName)
	if err != nil {
		return 0, false, fmt.Errorf("read wiki page %s/%s: %w", e.cfg.Subreddit, e.cfg.EndpointName, err)
	}
	return page.RevisionDate, true, nil
}

type threadEndpoint struct {
	api reddit.API
	cfg config.EndpointConfig
}

func (e *threadEndpoint) Name() string        { return e.cfg.EndpointName }
func (e *threadEndpoint) Description() string { return e.cfg.Description }

func (e *threadEndpoint) Content(ctx context.Context) (domain.Content, error) {
	post, err := e.api.Submission(ctx, e.cfg.EndpointName)
	if err != nil {
		return nil, fmt.Errorf("read thread %s: %w", e.cfg.EndpointName, err)
	}
	return domain.Text(post.SelfText), nil
}

func (e *threadEndpoint) Edit(ctx context.Context, content domain.Content, reason string) error {
	text, ok := content.(domain.Text)
	if !ok {
		return fmt.Errorf("thread %s accepts only text content", e.cfg.EndpointName)
	}
	if err := e.api.EditSubmission(ctx, e.cfg.EndpointName, string(text)); err != nil {
		return fmt.Errorf("edit thread %s: %w", e.cfg.EndpointName, err)
	}
	return nil
}

func (e *threadEndpoint) Revision(ctx context.Context) (int64, bool, error) {
	post, err := e.api.Submission(ctx, e.cfg.EndpointName)
	if err != nil {
		return 0, false, fmt.Errorf("read thread %s: %w", e.cfg.EndpointName, err)
	}
	if post.Edited != 0 {
		return post.Edited, true, nil
	}
	return post.CreatedUTC, true, nil
}

type widgetEndpoint struct {
	api reddit.API
	cfg config.EndpointConfig
}

func (e *widgetEndpoint) Name() string        { return e.cfg.EndpointName }
func (e *widgetEndpoint) Description() string { return e.cfg.Description }

func (e *widgetEndpoint) Content(ctx context.Context) (domain.Content, error) {
	widget, err := e.api.SidebarWidget(ctx, e.cfg.Subreddit, e.cfg.EndpointName)
	if err != nil {
		return nil, fmt.Errorf("read widget %s/%s: %w", e.cfg.Subreddit, e.cfg.EndpointName, err)
	}
	return domain.Text(widget.Text), nil
}

func (e *widgetEndpoint) Edit(ctx context.Context, content domain.Content, reason string) error {
	text, ok := content.(domain.Text)
	if !ok {
		return fmt.Errorf("widget %s accepts only text content", e.cfg.EndpointName)
	}
	widget, err := e.api.SidebarWidget(ctx, e.cfg.Subreddit, e.cfg.EndpointName)
	if err != nil {
		return fmt.Errorf("read widget %s/%s: %w", e.cfg.Subreddit, e.cfg.EndpointName, err)
	}
	if err := e.api.UpdateSidebarWidget(ctx, e.cfg.Subreddit, widget, string(text)); err != nil {
		return fmt.Errorf("edit widget %s/%s: %w", e.cfg.Subreddit, e.cfg.EndpointName, err)
	}
	return nil
}

func (e *widgetEndpoint) Revision(ctx context.Context) (int64, bool, error) {
	return 0, false, nil
}

type menuEndpoint struct {
	api reddit.API
	cfg config.EndpointConfig
}

// Name returns the configured name, or "menu" when none is set. A
// subreddit has a single topbar menu, so the name is informational.
func (e *menuEndpoint) Name() string {
	if e.cfg.EndpointName == "" {
		return "menu"
	}
	return e.cfg.EndpointName
}

func (e *menuEndpoint) Description() string { return e.cfg.Description }

func (e *menuEndpoint) Content(ctx context.Context) (domain.Content, error) {
	menu, err := e.api.TopbarMenu(ctx, e.cfg.Subreddit)
	if err != nil {
		return nil, fmt.Errorf("read topbar menu of r/%s: %w", e.cfg.Subreddit, err)
	}
	return domain.Menu(menu.Data), nil
}

func (e *menuEndpoint) Edit(ctx context.Context, content domain.Content, _ string) error {
	data, ok := content.(domain.Menu)
	if !ok {
		return fmt.Errorf("topbar menu of r/%s accepts only menu content", e.cfg.Subreddit)
	}
	menu, err := e.api.TopbarMenu(ctx, e.cfg.Subreddit)
	if err != nil {
		return fmt.Errorf("read topbar menu of r/%s: %w", e.cfg.Subreddit, err)
	}
	if err := e.api.UpdateTopbarMenu(ctx, e.cfg.Subreddit, menu.ID, domain.MenuData(data)); err != nil {
		return fmt.Errorf("edit topbar menu of r/%s: %w", e.cfg.Subreddit, err)
	}
	return nil
}

func (e *menuEndpoint) Revision(ctx context.Context) (int64, bool, error) {
	return 0, false, nil
}
