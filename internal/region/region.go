// Package region extracts and replaces marker-delimited sub-ranges of
// markdown content. Markers are invisible link-reference comments of the
// form "[](/# <pattern><suffix>)" so they never render on the platform.
package region

import (
	"fmt"
	"regexp"
	"strings"
)

// Spec names one delimited region inside a content body.
// Params: logical pattern plus start/end marker suffixes.
// Returns: matcher settings for extraction and replacement.
type Spec struct {
	Pattern string
	Start   string
	End     string
}

// Enabled reports whether region matching applies at all.
// Params: none.
// Returns: false when pattern and both suffixes are empty, meaning the
// whole content body is treated as the region. A spec with only marker
// suffixes still matches.
func (s Spec) Enabled() bool {
	return s.Pattern != "" || s.Start != "" || s.End != ""
}

// StartMarker renders the literal start anchor.
// Params: none.
// Returns: full markdown comment text of the start marker.
func (s Spec) StartMarker() string {
	return marker(s.Pattern + s.Start)
}

// EndMarker renders the literal end anchor.
// Params: none.
// Returns: full markdown comment text of the end marker.
func (s Spec) EndMarker() string {
	return marker(s.Pattern + s.End)
}

// marker wraps text as an invisible markdown link-reference comment.
func marker(text string) string {
	return "[](/# " + text + ")"
}

// compile builds the non-greedy capture between the two literal anchors.
// Params: none.
// Returns: compiled pattern; compile cannot fail because both anchors
// are regexp-escaped.
func (s Spec) compile() *regexp.Regexp {
	pattern := fmt.Sprintf("(?s)%s(.*?)%s",
		regexp.QuoteMeta(s.StartMarker()), regexp.QuoteMeta(s.EndMarker()))
	return regexp.MustCompile(pattern)
}

// Extract returns the delimited substring of content.
// Params: content body and region spec.
// Returns: region text and found flag; a disabled spec yields the whole
// content, absent markers yield found=false (never an empty region).
func Extract(content string, s Spec) (string, bool) {
	if !s.Enabled() {
		return content, true
	}
	match := s.compile().FindStringSubmatch(content)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Replace substitutes new text for the delimited region inside content.
// Params: content body, region spec, and replacement text.
// Returns: updated content and found flag; only the first literal
// occurrence of the extracted region is replaced, markers and the
// surrounding content stay untouched. A disabled spec replaces the
// whole content.
func Replace(content string, s Spec, text string) (string, bool) {
	if !s.Enabled() {
		return text, true
	}
	match := s.compile().FindStringSubmatchIndex(content)
	if match == nil {
		return "", false
	}
	current := content[match[2]:match[3]]
	if current == "" {
		// Adjacent markers: splice directly, a literal replace of the
		// empty string would land at offset zero instead.
		return content[:match[2]] + text + content[match[3]:], true
	}
	return strings.Replace(content, current, text, 1), true
}
