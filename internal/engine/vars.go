package engine

import "time"

// TemplateVars holds the values available to post title and redirect
// templates.
// Params: current time, subreddit, thread counters and identifiers of
// the previous and freshly created thread.
// Returns: template context; the thread fields of the new post are
// filled only after it has been submitted.
type TemplateVars struct {
	CurrentDatetime      time.Time
	CurrentDatetimeLocal time.Time
	Subreddit            string
	ThreadNumber         int
	ThreadNumberPrevious int
	ThreadIDPrevious     string
	PostTitle            string
	ThreadID             string
	ThreadURL            string
	ThreadPermalink      string
	ThreadShortlink      string
}
