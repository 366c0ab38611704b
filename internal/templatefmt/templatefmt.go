package templatefmt

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// FuncMap returns shared template helpers for titles, bodies, and
// redirect notices.
// Params: none.
// Returns: deterministic helper map shared by parsing and rendering.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"date":  FormatDate,
		"trim":  strings.TrimSpace,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
}

// Parse parses one content template with shared helpers.
// Params: template name and body.
// Returns: compiled template or parse error; unknown variables fail at
// render time rather than silently emitting "<no value>".
func Parse(name, body string) (*template.Template, error) {
	return template.New(name).Funcs(FuncMap()).Option("missingkey=error").Parse(body)
}

// Render parses and executes one template in a single step.
// Params: template name, body, and variable struct.
// Returns: rendered text with outer whitespace trimmed, or parse/exec error.
func Render(name, body string, vars any) (string, error) {
	tpl, err := Parse(name, strings.TrimSpace(body))
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var out strings.Builder
	if err := tpl.Execute(&out, vars); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return out.String(), nil
}

// FormatDate renders one timestamp with a Go reference layout.
// Params: template value expected as time.Time or *time.Time, and layout.
// Returns: formatted date string; zero/foreign values render empty.
func FormatDate(value any, layout string) string {
	switch typed := value.(type) {
	case time.Time:
		return typed.Format(layout)
	case *time.Time:
		if typed == nil {
			return ""
		}
		return typed.Format(layout)
	default:
		return ""
	}
}
