package domain

import (
	"fmt"
	"strings"
)

// EndpointType identifies one addressable content region kind.
// Params: constants for the four supported platform surfaces.
// Returns: normalized endpoint kind used by the factory and engine.
type EndpointType string

const (
	// EndpointMenu marks the subreddit topbar menu widget.
	EndpointMenu EndpointType = "MENU"
	// EndpointThread marks one selfpost submission body.
	EndpointThread EndpointType = "THREAD"
	// EndpointWidget marks one sidebar text widget.
	EndpointWidget EndpointType = "WIDGET"
	// EndpointWikiPage marks one wiki page.
	EndpointWikiPage EndpointType = "WIKI_PAGE"
)

// ParseEndpointType normalizes one endpoint kind name.
// Params: raw kind string from configuration.
// Returns: endpoint type or error for unknown kinds.
func ParseEndpointType(raw string) (EndpointType, error) {
	switch EndpointType(strings.ToUpper(strings.TrimSpace(raw))) {
	case EndpointMenu:
		return EndpointMenu, nil
	case EndpointThread:
		return EndpointThread, nil
	case EndpointWidget:
		return EndpointWidget, nil
	case EndpointWikiPage:
		return EndpointWikiPage, nil
	default:
		return "", fmt.Errorf("unsupported endpoint type %q", raw)
	}
}
