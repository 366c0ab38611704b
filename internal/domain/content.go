package domain

// Content is the closed set of payloads a sync endpoint can carry.
// Params: text body or structured menu data.
// Returns: content value the engine branches on.
type Content interface {
	isContent()
}

// Text is one markdown content body.
type Text string

func (Text) isContent() {}

// Menu is structured topbar menu content.
type Menu MenuData

func (Menu) isContent() {}

// MenuLink is one child entry of a menu section.
// Params: link text and destination URL.
// Returns: serializable menu child.
type MenuLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// MenuSection is one topbar menu section.
// Params: section title with either a direct URL or child links.
// Returns: serializable menu section.
type MenuSection struct {
	Text     string     `json:"text"`
	URL      string     `json:"url,omitempty"`
	Children []MenuLink `json:"children,omitempty"`
}

// MenuData is the full structured topbar menu.
type MenuData []MenuSection
