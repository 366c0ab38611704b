// Package menu parses free markdown text into the structured section/link
// form the topbar menu widget expects.
package menu

import (
	"fmt"
	"regexp"
	"strings"

	"submanager/internal/domain"
)

const (
	defaultSplit           = "\n\n"
	defaultSubsplit        = "\n"
	defaultPatternTitle    = `\[([^\n\]]*)\]\(`
	defaultPatternURL      = `\]\(([^\s\)]*)[\s\)]`
	defaultPatternSubtitle = `\[([^\n\]]*)\]\(`
)

// Options controls how source text is split and matched into menu data.
// Params: section/child separators and title/url extraction patterns.
// Returns: parse settings; empty fields fall back to defaults.
type Options struct {
	Split           string `mapstructure:"split"`
	Subsplit        string `mapstructure:"subsplit"`
	PatternTitle    string `mapstructure:"pattern_title"`
	PatternURL      string `mapstructure:"pattern_url"`
	PatternSubtitle string `mapstructure:"pattern_subtitle"`
}

// withDefaults fills omitted option fields.
func (o Options) withDefaults() Options {
	if o.Split == "" {
		o.Split = defaultSplit
	}
	if o.Subsplit == "" {
		o.Subsplit = defaultSubsplit
	}
	if o.PatternTitle == "" {
		o.PatternTitle = defaultPatternTitle
	}
	if o.PatternURL == "" {
		o.PatternURL = defaultPatternURL
	}
	if o.PatternSubtitle == "" {
		o.PatternSubtitle = defaultPatternSubtitle
	}
	return o
}

// Parse renders markdown text into structured menu data.
// Params: source text and parse options.
// Returns: menu sections or pattern compile error. Sections without an
// extractable title are dropped; children missing a title or link are
// dropped from their section.
func Parse(text string, opts Options) (domain.MenuData, error) {
	opts = opts.withDefaults()

	titleRE, err := regexp.Compile(opts.PatternTitle)
	if err != nil {
		return nil, fmt.Errorf("compile title pattern: %w", err)
	}
	urlRE, err := regexp.Compile(opts.PatternURL)
	if err != nil {
		return nil, fmt.Errorf("compile url pattern: %w", err)
	}
	subtitleRE, err := regexp.Compile(opts.PatternSubtitle)
	if err != nil {
		return nil, fmt.Errorf("compile subtitle pattern: %w", err)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	data := domain.MenuData{}
	for _, section := range splitAndClean(text, opts.Split) {
		lines := splitAndClean(section, opts.Subsplit)
		if len(lines) == 0 {
			continue
		}
		title, ok := extract(titleRE, lines[0])
		if !ok {
			continue
		}
		entry := domain.MenuSection{Text: title}
		if len(lines) == 1 {
			url, ok := extract(urlRE, lines[0])
			if !ok {
				continue
			}
			entry.URL = url
			data = append(data, entry)
			continue
		}
		children := []domain.MenuLink{}
		for _, line := range lines[1:] {
			childTitle, titleOK := extract(subtitleRE, line)
			childURL, urlOK := extract(urlRE, line)
			if titleOK && urlOK {
				children = append(children, domain.MenuLink{Text: childTitle, URL: childURL})
			}
		}
		entry.Children = children
		data = append(data, entry)
	}
	return data, nil
}

// splitAndClean splits text on one separator and strips each piece.
// Params: source text and separator; empty separator keeps the whole text.
// Returns: trimmed non-empty pieces.
func splitAndClean(text, sep string) []string {
	text = strings.TrimSpace(text)
	pieces := []string{text}
	if sep != "" {
		pieces = strings.Split(text, sep)
	}
	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// extract matches one pattern and returns the captured text.
// Params: compiled pattern and source line.
// Returns: first capture group (or whole match without groups) and ok flag.
func extract(re *regexp.Regexp, line string) (string, bool) {
	match := re.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	if len(match) > 1 {
		return match[1], true
	}
	return match[0], true
}
