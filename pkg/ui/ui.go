// Package ui renders merge results, library inspections and errors as rich
// terminal output, plain text or JSON.
package ui

import (
	"io"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/ui/json"
	"github.com/arthur-debert/gdsmerge/pkg/ui/terminal"
	"github.com/arthur-debert/gdsmerge/pkg/ui/text"
)

// Renderer writes command output. Results are *merge.Result or
// *inspect.Summary; anything else is printed as-is.
type Renderer interface {
	RenderResult(result interface{}) error
	RenderError(err error) error
	// RenderMessage prints a status line. Markup tags are styled or stripped.
	RenderMessage(msg string) error
}

// NewRenderer returns the renderer for format, resolving FormatAuto
// against output.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format.Resolve(output) {
	case FormatTerminal:
		return terminal.New(output), nil
	case FormatText:
		return text.New(output), nil
	case FormatJSON:
		return json.New(output), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %s", format).
			WithDetail("format", string(format))
	}
}
