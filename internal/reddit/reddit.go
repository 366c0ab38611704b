// Package reddit provides a minimal Reddit API surface for managing
// subreddit content: submissions, wiki pages, sidebar widgets and the
// topbar menu.
package reddit

import (
	"context"
	"errors"

	"submanager/internal/domain"
)

// ErrNotFound marks a lookup for content that does not exist, such as
// a missing sticky slot or an unknown widget.
var ErrNotFound = errors.New("reddit: not found")

// Submission is one self post.
// Params: identifiers and content as returned by the API.
// Returns: post snapshot; CreatedUTC and Edited are unix seconds,
// Edited is zero when the post was never edited.
type Submission struct {
	ID         string
	Title      string
	SelfText   string
	URL        string
	Permalink  string
	CreatedUTC int64
	Edited     int64
}

// Shortlink returns the canonical short URL of the submission.
// Params: none.
// Returns: redd.it link.
func (s Submission) Shortlink() string {
	return "https://redd.it/" + s.ID
}

// WikiPage is one wiki page snapshot.
type WikiPage struct {
	Content      string
	RevisionDate int64
}

// Widget is one sidebar text widget.
type Widget struct {
	ID        string
	ShortName string
	Text      string
}

// Menu is the subreddit topbar menu.
type Menu struct {
	ID   string
	Data domain.MenuData
}

// API is the Reddit surface the engines depend on. Implementations
// take a context on every call and return ErrNotFound for absent
// stickies, widgets and menus.
type API interface {
	// Submission fetches one self post by id.
	Submission(ctx context.Context, id string) (Submission, error)
	// Submit creates a new self post and returns it.
	Submit(ctx context.Context, subreddit, title, text string) (Submission, error)
	// EditSubmission replaces the body of an existing self post.
	EditSubmission(ctx context.Context, id, text string) error
	// Approve re-approves a post caught by automated filters.
	Approve(ctx context.Context, id string) error
	// SetSticky pins or unpins a post. Slot 1 or 2 selects the sticky
	// position; slot 0 leaves the choice to the platform.
	SetSticky(ctx context.Context, id string, state bool, slot int) error
	// Sticky fetches the post pinned in the given slot.
	Sticky(ctx context.Context, subreddit string, slot int) (Submission, error)
	// Reply posts a comment under a submission and returns the comment id.
	Reply(ctx context.Context, parentID, text string) (string, error)
	// DistinguishSticky marks a comment as a stickied mod comment.
	DistinguishSticky(ctx context.Context, commentID string) error
	// DisableInboxReplies turns off inbox notifications for a post.
	DisableInboxReplies(ctx context.Context, id string) error
	// WikiPage fetches one wiki page.
	WikiPage(ctx context.Context, subreddit, page string) (WikiPage, error)
	// EditWikiPage writes one wiki page with an edit reason.
	EditWikiPage(ctx context.Context, subreddit, page, content, reason string) error
	// SidebarWidget finds a sidebar text widget by its short name.
	SidebarWidget(ctx context.Context, subreddit, shortName string) (Widget, error)
	// UpdateSidebarWidget replaces the text of a sidebar widget.
	UpdateSidebarWidget(ctx context.Context, subreddit string, widget Widget, text string) error
	// TopbarMenu fetches the subreddit topbar menu.
	TopbarMenu(ctx context.Context, subreddit string) (Menu, error)
	// UpdateTopbarMenu replaces the topbar menu structure.
	UpdateTopbarMenu(ctx context.Context, subreddit, id string, data domain.MenuData) error
}
