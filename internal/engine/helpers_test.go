package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"submanager/internal/domain"
	"submanager/internal/reddit"
)

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time      { return c.now }
func (c fakeClock) NowLocal() time.Time { return c.now }

// fakeWikiPage is one in-memory wiki page.
type fakeWikiPage struct {
	content  string
	revision int64
}

// fakeAPI is an in-memory implementation of the Reddit surface. It
// records every mutating call for assertions.
type fakeAPI struct {
	now         int64
	submissions map[string]*reddit.Submission
	wikiPages   map[string]*fakeWikiPage
	widgets     map[string]*reddit.Widget
	menuID      string
	menuData    domain.MenuData
	stickies    map[int]string
	nextPost    int
	replies     map[string]string
	calls       []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		now:         1700000000,
		submissions: map[string]*reddit.Submission{},
		wikiPages:   map[string]*fakeWikiPage{},
		widgets:     map[string]*reddit.Widget{},
		stickies:    map[int]string{},
		replies:     map[string]string{},
	}
}

func (f *fakeAPI) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAPI) called(call string) bool {
	for _, entry := range f.calls {
		if entry == call {
			return true
		}
	}
	return false
}

func (f *fakeAPI) Submission(_ context.Context, id string) (reddit.Submission, error) {
	post, ok := f.submissions[id]
	if !ok {
		return reddit.Submission{}, fmt.Errorf("submission %s: %w", id, reddit.ErrNotFound)
	}
	return *post, nil
}

func (f *fakeAPI) Submit(_ context.Context, subreddit, title, text string) (reddit.Submission, error) {
	f.nextPost++
	id := fmt.Sprintf("new%d", f.nextPost)
	permalink := "/r/" + subreddit + "/comments/" + id + "/thread/"
	post := &reddit.Submission{
		ID:         id,
		Title:      title,
		SelfText:   text,
		URL:        "https://www.reddit.com" + permalink,
		Permalink:  permalink,
		CreatedUTC: f.now,
	}
	f.submissions[id] = post
	f.record("submit:%s", id)
	return *post, nil
}

func (f *fakeAPI) EditSubmission(_ context.Context, id, text string) error {
	post, ok := f.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s: %w", id, reddit.ErrNotFound)
	}
	post.SelfText = text
	post.Edited = f.now
	f.record("edit:%s", id)
	return nil
}

func (f *fakeAPI) Approve(_ context.Context, id string) error {
	f.record("approve:%s", id)
	return nil
}

func (f *fakeAPI) SetSticky(_ context.Context, id string, state bool, slot int) error {
	f.record("sticky:%s:%t:%d", id, state, slot)
	if !state {
		for existingSlot, existingID := range f.stickies {
			if existingID == id {
				delete(f.stickies, existingSlot)
			}
		}
		return nil
	}
	f.stickies[slot] = id
	return nil
}

func (f *fakeAPI) Sticky(_ context.Context, subreddit string, slot int) (reddit.Submission, error) {
	id, ok := f.stickies[slot]
	if !ok {
		return reddit.Submission{}, fmt.Errorf("sticky %d in r/%s: %w", slot, subreddit, reddit.ErrNotFound)
	}
	return *f.submissions[id], nil
}

func (f *fakeAPI) Reply(_ context.Context, parentID, text string) (string, error) {
	commentID := "c_" + parentID
	f.replies[commentID] = text
	f.record("reply:%s", parentID)
	return commentID, nil
}

func (f *fakeAPI) DistinguishSticky(_ context.Context, commentID string) error {
	f.record("distinguish:%s", commentID)
	return nil
}

func (f *fakeAPI) DisableInboxReplies(_ context.Context, id string) error {
	f.record("sendreplies_off:%s", id)
	return nil
}

func (f *fakeAPI) WikiPage(_ context.Context, subreddit, page string) (reddit.WikiPage, error) {
	entry, ok := f.wikiPages[subreddit+"/"+page]
	if !ok {
		return reddit.WikiPage{}, fmt.Errorf("wiki %s/%s: %w", subreddit, page, reddit.ErrNotFound)
	}
	return reddit.WikiPage{Content: entry.content, RevisionDate: entry.revision}, nil
}

func (f *fakeAPI) EditWikiPage(_ context.Context, subreddit, page, content, reason string) error {
	entry, ok := f.wikiPages[subreddit+"/"+page]
	if !ok {
		return fmt.Errorf("wiki %s/%s: %w", subreddit, page, reddit.ErrNotFound)
	}
	entry.content = content
	entry.revision = f.now
	f.record("wiki_edit:%s/%s:%s", subreddit, page, reason)
	return nil
}

func (f *fakeAPI) SidebarWidget(_ context.Context, subreddit, shortName string) (reddit.Widget, error) {
	widget, ok := f.widgets[shortName]
	if !ok {
		return reddit.Widget{}, fmt.Errorf("widget %s in r/%s: %w", shortName, subreddit, reddit.ErrNotFound)
	}
	return *widget, nil
}

func (f *fakeAPI) UpdateSidebarWidget(_ context.Context, subreddit string, widget reddit.Widget, text string) error {
	entry, ok := f.widgets[widget.ShortName]
	if !ok {
		return fmt.Errorf("widget %s in r/%s: %w", widget.ShortName, subreddit, reddit.ErrNotFound)
	}
	entry.Text = text
	f.record("widget_edit:%s", widget.ShortName)
	return nil
}

func (f *fakeAPI) TopbarMenu(_ context.Context, subreddit string) (reddit.Menu, error) {
	if f.menuID == "" {
		return reddit.Menu{}, fmt.Errorf("menu in r/%s: %w", subreddit, reddit.ErrNotFound)
	}
	return reddit.Menu{ID: f.menuID, Data: f.menuData}, nil
}

func (f *fakeAPI) UpdateTopbarMenu(_ context.Context, subreddit, id string, data domain.MenuData) error {
	f.menuData = data
	f.record("menu_edit:%s", id)
	return nil
}

// newTestEngine wires a fake API under the given account names with
// silent logging and no settle delays.
func newTestEngine(api *fakeAPI, accountNames ...string) *Engine {
	return newTestEngineAPI(api, api.now, accountNames...)
}

func newTestEngineAPI(api reddit.API, now int64, accountNames ...string) *Engine {
	accounts := map[string]reddit.API{}
	for _, name := range accountNames {
		accounts[name] = api
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := New(accounts, fakeClock{now: time.Unix(now, 0).UTC()}, logger, nil)
	eng.sleep = func(time.Duration) {}
	return eng
}
