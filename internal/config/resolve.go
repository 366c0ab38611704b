package config

import (
	"fmt"
	"sort"

	"submanager/internal/menu"
	"submanager/internal/region"
)

// ReplacePattern is one sequential literal substitution.
// Params: literal text to find and its replacement.
// Returns: ordered find/replace entry; entries apply in list order and
// each replacement is visible to the next.
type ReplacePattern struct {
	Old string `mapstructure:"old"`
	New string `mapstructure:"new"`
}

// EndpointConfig is one fully resolved endpoint descriptor.
// Params: every schema endpoint key after layer resolution.
// Returns: settings for the endpoint factory and the sync engine.
type EndpointConfig struct {
	Account         string           `mapstructure:"account"`
	Subreddit       string           `mapstructure:"subreddit"`
	EndpointName    string           `mapstructure:"endpoint_name"`
	EndpointType    string           `mapstructure:"endpoint_type"`
	Description     string           `mapstructure:"description"`
	Enabled         bool             `mapstructure:"enabled"`
	Pattern         string           `mapstructure:"pattern"`
	PatternStart    string           `mapstructure:"pattern_start"`
	PatternEnd      string           `mapstructure:"pattern_end"`
	ReplacePatterns []ReplacePattern `mapstructure:"replace_patterns"`
	MenuConfig      menu.Options     `mapstructure:"menu_config"`

	// pattern = false in the config switches region matching off even
	// though the marker suffixes keep their resolved values.
	patternOff bool
}

// Region returns the region spec of this endpoint.
// Params: none.
// Returns: marker spec for extraction/replacement.
func (c EndpointConfig) Region() region.Spec {
	if c.patternOff {
		return region.Spec{}
	}
	return region.Spec{Pattern: c.Pattern, Start: c.PatternStart, End: c.PatternEnd}
}

// ResolvedTarget is one named sync target.
// Params: target name from the pair's targets table.
// Returns: resolved endpoint under its name.
type ResolvedTarget struct {
	Name string
	EndpointConfig
}

// ResolvedPair is one fully resolved sync pair.
// Params: pair identity plus resolved source and ordered targets.
// Returns: settings the sync engine consumes without further layering.
type ResolvedPair struct {
	ID          string
	Description string
	Enabled     bool
	Source      EndpointConfig
	Targets     []ResolvedTarget
}

// InitialState seeds the dynamic record of one megathread.
// Params: starting thread number and optional pre-existing thread id.
// Returns: first-sight defaults for the state store.
type InitialState struct {
	ThreadNumber int    `mapstructure:"thread_number"`
	ThreadID     string `mapstructure:"thread_id"`
}

// ResolvedThread is one fully resolved megathread definition.
// Params: every schema megathread key after layer resolution; the raw
// defaults and target overlay stay available for the live-thread merge.
// Returns: settings the lifecycle engine consumes.
type ResolvedThread struct {
	ID                string
	Description       string
	Enabled           bool
	Account           string       `mapstructure:"account"`
	Subreddit         string       `mapstructure:"subreddit"`
	PostTitleTemplate string       `mapstructure:"post_title_template"`
	Interval          string       `mapstructure:"new_thread_interval"`
	PinThread         string       `mapstructure:"pin_thread"`
	LinkUpdatePages   []string     `mapstructure:"link_update_pages"`
	RedirectOp        bool         `mapstructure:"new_thread_redirect_op"`
	RedirectSticky    bool         `mapstructure:"new_thread_redirect_sticky"`
	RedirectTemplate  string       `mapstructure:"new_thread_redirect_template"`
	Initial           InitialState `mapstructure:"initial"`
	Source            EndpointConfig
	defaults          map[string]any
	targetOverlay     map[string]any
}

// Resolved is the full per-run settings snapshot.
// Params: section enable flags and resolved items in sorted-id order.
// Returns: input for the sync and lifecycle engines.
type Resolved struct {
	SyncEnabled       bool
	MegathreadEnabled bool
	Pairs             []ResolvedPair
	Threads           []ResolvedThread
}

// Resolve collapses all configuration layers into concrete settings.
// Params: loaded static document.
// Returns: resolved pairs and megathreads; pure function of its input.
func Resolve(doc Document) (Resolved, error) {
	out := Resolved{
		SyncEnabled:       doc.Sync.Enabled,
		MegathreadEnabled: doc.Megathread.Enabled,
	}

	for _, id := range sortedIDs(doc.Sync.Items) {
		pair, err := resolvePair(doc, id, doc.Sync.Items[id])
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: sync pair %q: %v", ErrConfiguration, id, err)
		}
		out.Pairs = append(out.Pairs, pair)
	}
	for _, id := range sortedIDs(doc.Megathread.Items) {
		thread, err := resolveThread(doc, id, doc.Megathread.Items[id])
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: megathread %q: %v", ErrConfiguration, id, err)
		}
		out.Threads = append(out.Threads, thread)
	}
	return out, nil
}

// resolvePair resolves one sync pair from its raw item map.
// Params: document, pair id, and raw item map.
// Returns: pair with source and every target fully resolved.
func resolvePair(doc Document, id string, raw map[string]any) (ResolvedPair, error) {
	pairMap := MergeLayers(defaultPair(), raw)
	itemDefaults := MergeLayers(doc.Defaults, doc.Sync.Defaults, asMap(pairMap["defaults"]))
	endpointDefaults := MergeLayers(defaultEndpoint(), itemDefaults)

	source, err := decodeEndpoint(MergeLayers(endpointDefaults, asMap(pairMap["source"])))
	if err != nil {
		return ResolvedPair{}, fmt.Errorf("source: %w", err)
	}

	pair := ResolvedPair{
		ID:          id,
		Description: stringOr(pairMap["description"], ""),
		Enabled:     boolOr(pairMap["enabled"], true),
		Source:      source,
	}

	targets := asMap(pairMap["targets"])
	for _, name := range sortedAnyIDs(targets) {
		target, err := decodeEndpoint(MergeLayers(endpointDefaults, asMap(targets[name])))
		if err != nil {
			return ResolvedPair{}, fmt.Errorf("target %q: %w", name, err)
		}
		pair.Targets = append(pair.Targets, ResolvedTarget{Name: name, EndpointConfig: target})
	}
	return pair, nil
}

// resolveThread resolves one megathread from its raw item map.
// Params: document, thread id, and raw item map.
// Returns: thread with its defaults chain retained for the live-thread
// target merge at run time.
func resolveThread(doc Document, id string, raw map[string]any) (ResolvedThread, error) {
	threadMap := MergeLayers(defaultThread(), raw)
	itemDefaults := MergeLayers(doc.Defaults, doc.Megathread.Defaults, asMap(threadMap["defaults"]))
	threadMap = MergeLayers(itemDefaults, threadMap)
	normalizeFlagString(threadMap, "pin_thread")
	normalizeFlagString(threadMap, "new_thread_interval")

	thread := ResolvedThread{
		ID:            id,
		Description:   stringOr(threadMap["description"], ""),
		Enabled:       boolOr(threadMap["enabled"], true),
		defaults:      itemDefaults,
		targetOverlay: asMap(threadMap["target"]),
	}
	if err := decodeMap(threadMap, &thread); err != nil {
		return ResolvedThread{}, err
	}

	source, err := decodeEndpoint(MergeLayers(defaultEndpoint(), itemDefaults, asMap(threadMap["source"])))
	if err != nil {
		return ResolvedThread{}, fmt.Errorf("source: %w", err)
	}
	thread.Source = source
	return thread, nil
}

// TargetEndpoint resolves the live-thread target of one megathread.
// Params: current live thread id (empty before the first rotation).
// Returns: endpoint for the thread body, with the configured target
// overlay winning over the synthetic live-thread descriptor.
func (t ResolvedThread) TargetEndpoint(liveThreadID string) (EndpointConfig, error) {
	synthetic := map[string]any{
		"description":   t.Description + " Megathread",
		"endpoint_name": liveThreadID,
		"endpoint_type": "THREAD",
	}
	return decodeEndpoint(MergeLayers(defaultEndpoint(), t.defaults, synthetic, t.targetOverlay))
}

// SyncPair builds the synthetic single-target pair for the resync path.
// Params: current live thread id.
// Returns: pair whose sole target is the live thread body.
func (t ResolvedThread) SyncPair(liveThreadID string) (ResolvedPair, error) {
	target, err := t.TargetEndpoint(liveThreadID)
	if err != nil {
		return ResolvedPair{}, err
	}
	return ResolvedPair{
		ID:          t.ID,
		Description: t.Description,
		Enabled:     true,
		Source:      t.Source,
		Targets:     []ResolvedTarget{{Name: "megathread", EndpointConfig: target}},
	}, nil
}

// decodeEndpoint decodes one merged endpoint layer map.
// Params: merged map with every schema endpoint key present.
// Returns: typed endpoint config or decode error.
func decodeEndpoint(merged map[string]any) (EndpointConfig, error) {
	_, patternOff := merged["pattern"].(bool)
	if patternOff {
		merged["pattern"] = ""
	}
	var endpoint EndpointConfig
	if err := decodeMap(merged, &endpoint); err != nil {
		return EndpointConfig{}, err
	}
	endpoint.patternOff = patternOff
	return endpoint, nil
}

// stringOr coerces one raw value into a string.
// Params: raw value and fallback.
// Returns: the string or fallback for missing/foreign values.
func stringOr(value any, fallback string) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fallback
}

// sortedIDs returns item ids in deterministic order.
// Params: section item table.
// Returns: sorted id list.
func sortedIDs(items map[string]map[string]any) []string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sortedAnyIDs returns raw map keys in deterministic order.
// Params: raw layer map.
// Returns: sorted key list.
func sortedAnyIDs(items map[string]any) []string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
