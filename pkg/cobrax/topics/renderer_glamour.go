package topics

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// DefaultWidth is the wrap width used when none is configured.
const DefaultWidth = 80

// GlamourRenderer renders markdown topics with glamour. Other extensions
// pass through untouched.
type GlamourRenderer struct {
	Style string // "dark", "light", "notty", "auto" or a style file path
	Width int
}

// NewGlamourRenderer picks the notty style when stdout is not a terminal
// or NO_COLOR is set, so piped help stays free of escape codes.
func NewGlamourRenderer() *GlamourRenderer {
	style := "auto"
	if os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		style = "notty"
	}
	return &GlamourRenderer{Style: style, Width: DefaultWidth}
}

// Render falls back to the raw content whenever glamour fails.
func (r *GlamourRenderer) Render(content string, ext string) string {
	if ext != ".md" {
		return content
	}

	options := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if r.Style != "" && r.Style != "auto" {
		options[0] = glamour.WithStylePath(r.Style)
	}
	if r.Width > 0 {
		options = append(options, glamour.WithWordWrap(r.Width))
	}

	tr, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return content
	}
	out, err := tr.Render(content)
	if err != nil {
		return content
	}
	return out
}
