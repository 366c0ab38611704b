package config

import (
	"github.com/go-viper/mapstructure/v2"
)

// DefaultRedirectTemplate is rendered onto retired threads when redirect
// notices are enabled and no template is configured.
const DefaultRedirectTemplate = `
This thread is no longer being updated, and has been replaced by:

# [{{.PostTitle}}]({{.ThreadURL}})
`

// DefaultPostTitleTemplate names new megathreads when none is configured.
const DefaultPostTitleTemplate = "{{.Subreddit}} Megathread (#{{.ThreadNumber}})"

// MergeLayers overlays layer maps left to right, one level deep.
// Params: ordered layer maps, later layers winning on key collision.
// Returns: new merged map; inputs are never mutated.
func MergeLayers(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		for key, value := range layer {
			out[key] = value
		}
	}
	return out
}

// defaultEndpoint returns the schema defaults for one sync endpoint.
// Params: none.
// Returns: fresh layer map with every endpoint key present.
func defaultEndpoint() map[string]any {
	return map[string]any{
		"account":          "",
		"subreddit":        "",
		"description":      "",
		"enabled":          true,
		"endpoint_name":    "",
		"endpoint_type":    "WIKI_PAGE",
		"menu_config":      map[string]any{},
		"pattern":          false,
		"pattern_start":    " Start",
		"pattern_end":      " End",
		"replace_patterns": []any{},
	}
}

// defaultPair returns the schema defaults for one sync pair.
// Params: none.
// Returns: fresh layer map with every pair key present.
func defaultPair() map[string]any {
	return map[string]any{
		"defaults":    map[string]any{},
		"description": "",
		"enabled":     true,
		"source":      map[string]any{},
		"targets":     map[string]any{},
	}
}

// defaultThread returns the schema defaults for one megathread.
// Params: none.
// Returns: fresh layer map with every megathread key present.
func defaultThread() map[string]any {
	return map[string]any{
		"defaults":    map[string]any{},
		"description": "",
		"enabled":     true,
		"initial": map[string]any{
			"thread_number": int64(0),
			"thread_id":     "",
		},
		"link_update_pages":            []any{},
		"new_thread_interval":          "month",
		"new_thread_redirect_op":       false,
		"new_thread_redirect_sticky":   false,
		"new_thread_redirect_template": DefaultRedirectTemplate,
		"pin_thread":                   "top",
		"post_title_template":          DefaultPostTitleTemplate,
		"source":                       map[string]any{},
		"target":                       map[string]any{},
	}
}

// asMap coerces one layer value into a map.
// Params: raw value from a decoded document.
// Returns: the map itself or an empty map for missing/foreign values;
// missing nested keys are never an error.
func asMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// boolOr coerces one raw value into bool.
// Params: raw value and fallback.
// Returns: the bool or fallback for missing/foreign values.
func boolOr(value any, fallback bool) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	return fallback
}

// intOr coerces one raw numeric value into int.
// Params: raw value and fallback.
// Returns: the number or fallback for missing/foreign values.
func intOr(value any, fallback int) int {
	switch n := value.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// normalizeFlagString rewrites boolean "off" markers into empty strings.
// Params: layer map and key holding a string-or-false toggle
// (pin_thread, new_thread_interval).
// Returns: normalization applied in place.
func normalizeFlagString(m map[string]any, key string) {
	if _, ok := m[key].(bool); ok {
		m[key] = ""
	}
}

// decodeMap decodes one merged layer map into a typed settings struct.
// Params: source map and destination pointer.
// Returns: decode error for incompatible values.
func decodeMap(src map[string]any, dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(src)
}
