package model

import "time"

// Document is the raw content of a source log page, read fresh for every render.
type Document struct {
	Path    string `json:"path"`
	Content string `json:"-"`
}

// Excerpt is a rendered, single-line HTML fragment ready for inline display.
type Excerpt struct {
	Source     string    `json:"source"`
	HTML       string    `json:"html,omitempty"`
	RenderedAt time.Time `json:"rendered_at"`
	Digest     string    `json:"digest,omitempty"` // sha256 of HTML, hex
	Err        string    `json:"error,omitempty"`  // set when the source could not be read
}

// Failed reports whether the excerpt carries a render error instead of HTML.
func (e Excerpt) Failed() bool {
	return e.Err != ""
}

// Entry is one list item of a rendered excerpt.
type Entry struct {
	Text string `json:"text"`
	Href string `json:"href,omitempty"` // first link inside the item
}
