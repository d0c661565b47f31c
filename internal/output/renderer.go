package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atikulmunna/logpage/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Renderer writes rendered excerpts to an output stream.
type Renderer interface {
	Render(ex model.Excerpt) error
}

// New returns the renderer for a format name: raw, text or json.
func New(format string, w io.Writer) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "raw":
		return NewRawRenderer(w), nil
	case "text":
		return NewTextRenderer(w), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// ---------------------------------------------------------------------------
// Raw Renderer (fragment for server-side includes)
// ---------------------------------------------------------------------------

// RawRenderer writes the fragment exactly as rendered, with no trailing newline.
type RawRenderer struct {
	w io.Writer
}

func NewRawRenderer(w io.Writer) *RawRenderer {
	return &RawRenderer{w: w}
}

func (r *RawRenderer) Render(ex model.Excerpt) error {
	_, err := io.WriteString(r.w, ex.HTML)
	return err
}

// ---------------------------------------------------------------------------
// Text Renderer (terminal preview)
// ---------------------------------------------------------------------------

var (
	styleSource = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true) // cyan
	styleTime   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))           // gray
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleBody   = lipgloss.NewStyle().PaddingLeft(2)
)

// TextRenderer prints a styled header followed by the fragment.
type TextRenderer struct {
	w io.Writer
}

func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(ex model.Excerpt) error {
	header := fmt.Sprintf("%s %s",
		styleSource.Render(ex.Source),
		styleTime.Render(ex.RenderedAt.Format("2006-01-02 15:04:05")))

	body := ex.HTML
	if ex.Failed() {
		body = styleError.Render(ex.Err)
	}

	_, err := fmt.Fprintf(r.w, "%s\n%s\n", header, styleBody.Render(body))
	return err
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each excerpt as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONRenderer{enc: enc}
}

func (r *JSONRenderer) Render(ex model.Excerpt) error {
	return r.enc.Encode(ex)
}
