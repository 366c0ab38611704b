package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func parseTOML(t *testing.T, body string) Document {
	t.Helper()
	var raw map[string]any
	if err := toml.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("decode test config: %v", err)
	}
	doc, err := parseDocument(raw)
	if err != nil {
		t.Fatalf("parse test config: %v", err)
	}
	return doc
}

func TestLoadStaticGeneratesSkeleton(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	_, err := LoadStatic(path)
	if !errors.Is(err, ErrNeedsSetup) {
		t.Fatalf("expected needs-setup error, got %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("skeleton not written: %v", statErr)
	}

	// A second run against the untouched skeleton must still abort.
	_, err = LoadStatic(path)
	if !errors.Is(err, ErrNeedsSetup) {
		t.Fatalf("expected needs-setup on unedited skeleton, got %v", err)
	}
}

func TestLoadStaticAcceptsEditedConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
repeat_interval_s = 30

[accounts.main]
client_id = "id"
client_secret = "secret"
refresh_token = "token"

[defaults]
account = "main"
subreddit = "testsub"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	doc, err := LoadStatic(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if doc.RepeatIntervalSec != 30 {
		t.Fatalf("unexpected repeat interval %d", doc.RepeatIntervalSec)
	}
	if doc.Accounts["main"].ClientID != "id" {
		t.Fatalf("unexpected accounts %#v", doc.Accounts)
	}
	if !doc.Sync.Enabled || !doc.Megathread.Enabled {
		t.Fatalf("sections should default to enabled")
	}
	if !doc.Log.Console.Enabled || doc.Log.Console.Format != "line" {
		t.Fatalf("unexpected log defaults %#v", doc.Log)
	}
}

func TestParseDocumentMissingSectionsBecomeEmpty(t *testing.T) {
	t.Parallel()

	doc := parseTOML(t, `repeat_interval_s = 10`)
	if len(doc.Defaults) != 0 || len(doc.Sync.Items) != 0 || len(doc.Megathread.Items) != 0 {
		t.Fatalf("expected empty sections, got %#v", doc)
	}
}

func TestResolveLayeringOrder(t *testing.T) {
	t.Parallel()

	doc := parseTOML(t, `
[defaults]
account = "global"
subreddit = "globsub"
pattern_start = " GlobalStart"

[sync.defaults]
account = "section"

[sync.pairs.demo]
description = "demo pair"

[sync.pairs.demo.defaults]
account = "pairlevel"

[sync.pairs.demo.source]
endpoint_name = "src"

[sync.pairs.demo.targets.one]
endpoint_name = "dst"
account = "itemlevel"
`)

	resolved, err := Resolve(doc)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(resolved.Pairs) != 1 {
		t.Fatalf("expected one pair, got %d", len(resolved.Pairs))
	}
	pair := resolved.Pairs[0]

	// Item defaults beat section defaults which beat global defaults.
	if pair.Source.Account != "pairlevel" {
		t.Fatalf("unexpected source account %q", pair.Source.Account)
	}
	// Item fields beat every defaults layer.
	if pair.Targets[0].Account != "itemlevel" {
		t.Fatalf("unexpected target account %q", pair.Targets[0].Account)
	}
	// A key set only in the global layer survives into every item.
	if pair.Source.Subreddit != "globsub" || pair.Targets[0].Subreddit != "globsub" {
		t.Fatalf("global default lost: %q / %q", pair.Source.Subreddit, pair.Targets[0].Subreddit)
	}
	// Layer values beat schema defaults.
	if pair.Source.PatternStart != " GlobalStart" {
		t.Fatalf("unexpected pattern start %q", pair.Source.PatternStart)
	}
	// Schema keys absent from every layer still resolve.
	if pair.Source.PatternEnd != " End" || pair.Source.EndpointType != "WIKI_PAGE" {
		t.Fatalf("schema defaults missing: %#v", pair.Source)
	}
	if !pair.Enabled || pair.Description != "demo pair" {
		t.Fatalf("unexpected pair fields %#v", pair)
	}
}

func TestResolveNormalizesPatternFalse(t *testing.T) {
	t.Parallel()

	doc := parseTOML(t, `
[sync.pairs.demo.source]
pattern = false

[sync.pairs.demo.targets.one]
pattern = "Menu"

[sync.pairs.demo.targets.two]
pattern = ""
`)
	resolved, err := Resolve(doc)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	pair := resolved.Pairs[0]
	if pair.Source.Pattern != "" {
		t.Fatalf("pattern=false should resolve empty, got %q", pair.Source.Pattern)
	}
	// pattern=false switches matching off without touching the suffixes.
	if pair.Source.PatternStart != " Start" || pair.Source.PatternEnd != " End" {
		t.Fatalf("marker suffixes lost: %#v", pair.Source)
	}
	if pair.Source.Region().Enabled() {
		t.Fatalf("region matching should be disabled for pattern=false")
	}
	if !pair.Targets[0].Region().Enabled() {
		t.Fatalf("region matching should be enabled with a pattern")
	}
	// An explicit empty pattern keeps suffix-only markers live.
	if !pair.Targets[1].Region().Enabled() {
		t.Fatalf("region matching should be enabled for suffix-only markers")
	}
}

func TestResolveReplacePatternsKeepOrder(t *testing.T) {
	t.Parallel()

	doc := parseTOML(t, `
[sync.pairs.demo.source]
endpoint_name = "src"

[[sync.pairs.demo.source.replace_patterns]]
old = "first"
new = "second"

[[sync.pairs.demo.source.replace_patterns]]
old = "second"
new = "third"

[sync.pairs.demo.targets.one]
endpoint_name = "dst"
`)
	resolved, err := Resolve(doc)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	patterns := resolved.Pairs[0].Source.ReplacePatterns
	if len(patterns) != 2 || patterns[0].Old != "first" || patterns[1].New != "third" {
		t.Fatalf("unexpected replace patterns %#v", patterns)
	}
}

func TestResolveThreadAndTargetEndpoint(t *testing.T) {
	t.Parallel()

	doc := parseTOML(t, `
[defaults]
account = "mod"
subreddit = "mainsub"

[megathread.defaults]
new_thread_redirect_op = true

[megathread.megathreads.daily]
description = "Daily thread"
new_thread_interval = "2 days"
pin_thread = "bottom"
link_update_pages = ["threads", "index"]

[megathread.megathreads.daily.initial]
thread_number = 5
thread_id = "abc"

[megathread.megathreads.daily.source]
endpoint_name = "daily_source"

[megathread.megathreads.daily.target]
account = "poster"
`)

	resolved, err := Resolve(doc)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(resolved.Threads) != 1 {
		t.Fatalf("expected one thread, got %d", len(resolved.Threads))
	}
	thread := resolved.Threads[0]

	if thread.Account != "mod" || thread.Subreddit != "mainsub" {
		t.Fatalf("defaults not applied to thread: %#v", thread)
	}
	if thread.Interval != "2 days" || thread.PinThread != "bottom" {
		t.Fatalf("unexpected interval/pin %q/%q", thread.Interval, thread.PinThread)
	}
	if !thread.RedirectOp || thread.RedirectSticky {
		t.Fatalf("unexpected redirect flags %#v", thread)
	}
	if thread.Initial.ThreadNumber != 5 || thread.Initial.ThreadID != "abc" {
		t.Fatalf("unexpected initial state %#v", thread.Initial)
	}
	if thread.Source.EndpointName != "daily_source" || thread.Source.Account != "mod" {
		t.Fatalf("unexpected source %#v", thread.Source)
	}
	if thread.PostTitleTemplate != DefaultPostTitleTemplate {
		t.Fatalf("schema default template missing")
	}

	target, err := thread.TargetEndpoint("live123")
	if err != nil {
		t.Fatalf("target endpoint failed: %v", err)
	}
	if target.EndpointName != "live123" || target.EndpointType != "THREAD" {
		t.Fatalf("unexpected live target %#v", target)
	}
	// The configured target overlay wins over the synthetic descriptor
	// and the defaults chain.
	if target.Account != "poster" || target.Subreddit != "mainsub" {
		t.Fatalf("unexpected target account/subreddit %q/%q", target.Account, target.Subreddit)
	}
}

func TestResolveThreadDisabledRotationForms(t *testing.T) {
	t.Parallel()

	doc := parseTOML(t, `
[megathread.megathreads.manual]
new_thread_interval = false
pin_thread = false
`)
	resolved, err := Resolve(doc)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	thread := resolved.Threads[0]
	if thread.Interval != "" || thread.PinThread != "" {
		t.Fatalf("false toggles should resolve empty: %q/%q", thread.Interval, thread.PinThread)
	}
}

func TestSyncPairWrapsLiveThread(t *testing.T) {
	t.Parallel()

	doc := parseTOML(t, `
[defaults]
account = "mod"
subreddit = "mainsub"

[megathread.megathreads.daily]
description = "Daily thread"

[megathread.megathreads.daily.source]
endpoint_name = "daily_source"
`)
	resolved, err := Resolve(doc)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	pair, err := resolved.Threads[0].SyncPair("t3live")
	if err != nil {
		t.Fatalf("sync pair failed: %v", err)
	}
	if !pair.Enabled || len(pair.Targets) != 1 {
		t.Fatalf("unexpected synthetic pair %#v", pair)
	}
	target := pair.Targets[0]
	if target.Name != "megathread" || target.EndpointName != "t3live" || target.EndpointType != "THREAD" {
		t.Fatalf("unexpected synthetic target %#v", target)
	}
	if pair.Source.EndpointName != "daily_source" {
		t.Fatalf("source lost in synthetic pair %#v", pair.Source)
	}
}

func TestMergeLayersIsShallowAndPure(t *testing.T) {
	t.Parallel()

	base := map[string]any{"a": 1, "nested": map[string]any{"x": 1}}
	over := map[string]any{"nested": map[string]any{"y": 2}}

	merged := MergeLayers(base, over)
	nested := merged["nested"].(map[string]any)
	if _, ok := nested["x"]; ok {
		t.Fatalf("merge must be shallow, got %#v", nested)
	}
	if base["nested"].(map[string]any)["y"] != nil {
		t.Fatalf("inputs must not be mutated")
	}
}
