package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"submanager/internal/config"
	"submanager/internal/domain"
	"submanager/internal/reddit"
	"submanager/internal/state"
	"submanager/internal/templatefmt"
)

// ManageAll runs the lifecycle check for every resolved megathread.
// Params: resolved settings and the dynamic state document.
// Returns: error only for configuration problems or a canceled
// context; per-thread runtime failures are logged and skipped.
func (e *Engine) ManageAll(ctx context.Context, resolved config.Resolved, store *state.Document) error {
	for _, thread := range resolved.Threads {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := store.EnsureThread(thread.ID, thread.Initial)
		if err := e.ManageThread(ctx, thread, rec); err != nil {
			if errors.Is(err, config.ErrConfiguration) {
				return err
			}
			e.logger.Error("megathread management failed", "megathread", thread.ID, "error", err.Error())
		}
	}
	return nil
}

// ManageThread checks one megathread, rotating it when its interval
// has elapsed and syncing its content otherwise.
// Params: resolved megathread and its dynamic record.
// Returns: error when rotation or sync fails.
func (e *Engine) ManageThread(ctx context.Context, thread config.ResolvedThread, rec *state.ThreadRecord) error {
	if !thread.Enabled {
		return nil
	}

	if thread.Interval != "" {
		interval, err := ParseInterval(thread.Interval)
		if err != nil {
			return fmt.Errorf("%w: megathread %s: %v", config.ErrConfiguration, thread.ID, err)
		}

		rotate := true
		if rec.ThreadID != "" {
			api, err := e.account(thread.Account)
			if err != nil {
				return err
			}
			current, err := api.Submission(ctx, rec.ThreadID)
			if err != nil {
				return fmt.Errorf("fetch current thread %s: %w", rec.ThreadID, err)
			}
			created := time.Unix(current.CreatedUTC, 0).UTC()
			rotate = interval.Elapsed(created, e.clock.Now().UTC())
		}
		if rotate {
			return e.rotate(ctx, thread, rec)
		}
	}

	if rec.ThreadID == "" {
		e.logger.Warn("megathread has no current thread and no rotation interval, skipping", "megathread", thread.ID)
		return nil
	}

	pair, err := thread.SyncPair(rec.ThreadID)
	if err != nil {
		return err
	}
	_, err = e.SyncOne(ctx, pair, &rec.PairRecord)
	return err
}

// rotate posts a fresh megathread and migrates pins, links and
// redirects from the previous one.
func (e *Engine) rotate(ctx context.Context, thread config.ResolvedThread, rec *state.ThreadRecord) error {
	e.logger.Info("creating new megathread", "megathread", thread.ID, "description", thread.Description)

	rec.SourceTimestamp = 0
	rec.ThreadNumber++

	vars := TemplateVars{
		CurrentDatetime:      e.clock.Now().UTC(),
		CurrentDatetimeLocal: e.clock.NowLocal(),
		Subreddit:            thread.Subreddit,
		ThreadNumber:         rec.ThreadNumber,
		ThreadNumberPrevious: rec.ThreadNumber - 1,
		ThreadIDPrevious:     rec.ThreadID,
	}
	title, err := templatefmt.Render("post_title", thread.PostTitleTemplate, vars)
	if err != nil {
		return fmt.Errorf("%w: megathread %s title template: %v", config.ErrConfiguration, thread.ID, err)
	}
	vars.PostTitle = title

	modAPI, err := e.account(thread.Account)
	if err != nil {
		return err
	}
	targetCfg, err := thread.TargetEndpoint("")
	if err != nil {
		return err
	}
	postAPI, err := e.account(targetCfg.Account)
	if err != nil {
		return err
	}

	content, skip, err := e.processSource(ctx, thread.Source, &rec.PairRecord)
	if err != nil {
		return fmt.Errorf("megathread %s source: %w", thread.ID, err)
	}
	if skip {
		return fmt.Errorf("megathread %s source region not found, cannot build post body", thread.ID)
	}
	body, ok := content.(domain.Text)
	if !ok {
		return fmt.Errorf("megathread %s source must provide text content", thread.ID)
	}

	var previous reddit.Submission
	hasPrevious := rec.ThreadID != ""
	if hasPrevious {
		previous, err = modAPI.Submission(ctx, rec.ThreadID)
		if err != nil {
			return fmt.Errorf("fetch previous thread %s: %w", rec.ThreadID, err)
		}
	}

	newPost, err := postAPI.Submit(ctx, targetCfg.Subreddit, title, string(body))
	if err != nil {
		return fmt.Errorf("submit megathread %s: %w", thread.ID, err)
	}
	if err := postAPI.DisableInboxReplies(ctx, newPost.ID); err != nil {
		return fmt.Errorf("disable inbox replies on %s: %w", newPost.ID, err)
	}
	if err := modAPI.Approve(ctx, newPost.ID); err != nil {
		return fmt.Errorf("approve %s: %w", newPost.ID, err)
	}

	vars.ThreadID = newPost.ID
	vars.ThreadURL = newPost.URL
	vars.ThreadPermalink = newPost.Permalink
	vars.ThreadShortlink = newPost.Shortlink()

	if thread.PinThread != "" {
		if err := e.migratePins(ctx, thread, previous, hasPrevious, newPost); err != nil {
			return err
		}
	}

	if hasPrevious {
		if err := e.updateLinkPages(ctx, thread, previous, newPost); err != nil {
			return err
		}
		if err := e.redirectPrevious(ctx, thread, previous, vars); err != nil {
			return err
		}
	}

	if e.notifier != nil {
		e.notifier.NotifyRotation(ctx, thread.Description, title, newPost.URL)
	}

	rec.ThreadID = newPost.ID
	return nil
}

// migratePins unpins the previous thread, pins the new one and keeps
// the unrelated sticky in place.
func (e *Engine) migratePins(ctx context.Context, thread config.ResolvedThread, previous reddit.Submission, hasPrevious bool, newPost reddit.Submission) error {
	modAPI, err := e.account(thread.Account)
	if err != nil {
		return err
	}

	if hasPrevious {
		if err := modAPI.SetSticky(ctx, previous.ID, false, 0); err != nil {
			return fmt.Errorf("unpin previous thread %s: %w", previous.ID, err)
		}
		e.sleep(e.settleDelay)
	}

	keep, err := modAPI.Sticky(ctx, thread.Subreddit, 1)
	hasKeep := err == nil
	if err != nil && !errors.Is(err, reddit.ErrNotFound) {
		return fmt.Errorf("read sticky slot 1: %w", err)
	}
	// The unpin above may not be visible yet; fall back to the second
	// slot when slot 1 still reports the previous thread.
	if hasKeep && hasPrevious && keep.ID == previous.ID {
		keep, err = modAPI.Sticky(ctx, thread.Subreddit, 2)
		hasKeep = err == nil
		if err != nil && !errors.Is(err, reddit.ErrNotFound) {
			return fmt.Errorf("read sticky slot 2: %w", err)
		}
	}

	slot := 1
	if thread.PinThread != "top" {
		slot = 2
	}
	if err := modAPI.SetSticky(ctx, newPost.ID, true, slot); err != nil {
		return fmt.Errorf("pin new thread %s: %w", newPost.ID, err)
	}
	if hasKeep {
		if err := modAPI.SetSticky(ctx, keep.ID, true, 0); err != nil {
			return fmt.Errorf("restore sticky %s: %w", keep.ID, err)
		}
	}
	return nil
}

// updateLinkPages rewrites links to the previous thread on the
// configured wiki pages.
func (e *Engine) updateLinkPages(ctx context.Context, thread config.ResolvedThread, previous, newPost reddit.Submission) error {
	if len(thread.LinkUpdatePages) == 0 {
		return nil
	}
	modAPI, err := e.account(thread.Account)
	if err != nil {
		return err
	}

	replacements := [][2]string{
		{strings.Trim(previous.Permalink, "/"), strings.Trim(newPost.Permalink, "/")},
		{strings.Trim(previous.Shortlink(), "/"), strings.Trim(newPost.Shortlink(), "/")},
	}

	for idx, pageName := range thread.LinkUpdatePages {
		page, err := e.newEndpoint(modAPI, config.EndpointConfig{
			Account:      thread.Account,
			Subreddit:    thread.Subreddit,
			EndpointName: pageName,
			EndpointType: string(domain.EndpointWikiPage),
			Description:  fmt.Sprintf("Megathread link page %d", idx+1),
		})
		if err != nil {
			return err
		}
		content, err := page.Content(ctx)
		if err != nil {
			return err
		}
		text := string(content.(domain.Text))
		for _, pair := range replacements {
			matcher := regexp.MustCompile("(?i)" + regexp.QuoteMeta(pair[0]))
			text = matcher.ReplaceAllLiteralString(text, pair[1])
		}
		reason := fmt.Sprintf("Update %s megathread URLs", thread.Description)
		if err := page.Edit(ctx, domain.Text(text), reason); err != nil {
			return err
		}
	}
	return nil
}

// redirectPrevious points readers of the previous thread at the new
// one, via an OP edit and/or a stickied comment.
func (e *Engine) redirectPrevious(ctx context.Context, thread config.ResolvedThread, previous reddit.Submission, vars TemplateVars) error {
	if !thread.RedirectOp && !thread.RedirectSticky {
		return nil
	}
	message, err := templatefmt.Render("redirect", thread.RedirectTemplate, vars)
	if err != nil {
		return fmt.Errorf("%w: megathread %s redirect template: %v", config.ErrConfiguration, thread.ID, err)
	}
	modAPI, err := e.account(thread.Account)
	if err != nil {
		return err
	}

	if thread.RedirectOp {
		if err := modAPI.EditSubmission(ctx, previous.ID, message+"\n\n"+previous.SelfText); err != nil {
			return fmt.Errorf("redirect edit on %s: %w", previous.ID, err)
		}
	}
	if thread.RedirectSticky {
		commentID, err := modAPI.Reply(ctx, previous.ID, message)
		if err != nil {
			return fmt.Errorf("redirect comment on %s: %w", previous.ID, err)
		}
		if err := modAPI.DistinguishSticky(ctx, commentID); err != nil {
			return fmt.Errorf("distinguish redirect comment %s: %w", commentID, err)
		}
	}
	return nil
}

func (e *Engine) account(name string) (reddit.API, error) {
	api, ok := e.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown account %q", config.ErrConfiguration, name)
	}
	return api, nil
}
