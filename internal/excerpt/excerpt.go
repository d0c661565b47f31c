// Package excerpt turns a CVS log page into the single-line list fragment
// that gets included inline in the development page.
package excerpt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/atikulmunna/logpage/internal/model"
)

// DefaultSource is the path the include has always read from.
const DefaultSource = "cvs/index.html"

// Attribution is appended to every rendered excerpt.
const Attribution = `You can also browse the CVS online at <a href="http://cvs.gnome.org/viewcvs/anjuta/">GNOME ViewCVS interface</a>`

var (
	lineBreaks = regexp.MustCompile(`[\r\n]`)
	beforeList = regexp.MustCompile(`(?i)^.*?<ul>`)
	afterList  = regexp.MustCompile(`(?i)</ul>.*$`)
)

// IoError reports a source file that could not be opened or read.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("read log source %s: %v", e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// Renderer renders log pages with a configurable trailing attribution.
// The zero value uses Attribution.
type Renderer struct {
	Attribution string
	now         func() time.Time
}

// NewRenderer returns a Renderer that appends the given attribution.
// An empty attribution selects the default.
func NewRenderer(attribution string) *Renderer {
	return &Renderer{Attribution: attribution}
}

// Render applies the excerpt transform to content using the default attribution.
func Render(content string) string {
	return (&Renderer{}).Render(content)
}

// Render strips line breaks, trims the content down to its first list and
// appends the attribution. Missing list tags leave the content untouched.
func (r *Renderer) Render(content string) string {
	s := lineBreaks.ReplaceAllLiteralString(content, "")
	s = beforeList.ReplaceAllLiteralString(s, "<ul>")
	s = afterList.ReplaceAllLiteralString(s, "</ul>")
	return s + r.attribution()
}

// RenderFile loads path and renders it. Read failures are returned as *IoError.
func (r *Renderer) RenderFile(path string) (string, error) {
	doc, err := Load(path)
	if err != nil {
		return "", err
	}
	return r.Render(doc.Content), nil
}

// Excerpt renders path into a model.Excerpt stamped with time and digest.
func (r *Renderer) Excerpt(path string) (model.Excerpt, error) {
	html, err := r.RenderFile(path)
	if err != nil {
		return model.Excerpt{}, err
	}
	return model.Excerpt{
		Source:     path,
		HTML:       html,
		RenderedAt: r.clock(),
		Digest:     Digest(html),
	}, nil
}

// Load reads the whole source document.
func Load(path string) (model.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, &IoError{Path: path, Err: err}
	}
	return model.Document{Path: path, Content: string(raw)}, nil
}

// Digest returns the hex sha256 of a rendered fragment.
func Digest(html string) string {
	sum := sha256.Sum256([]byte(html))
	return hex.EncodeToString(sum[:])
}

func (r *Renderer) attribution() string {
	if r.Attribution == "" {
		return Attribution
	}
	return r.Attribution
}

func (r *Renderer) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now().UTC()
}
