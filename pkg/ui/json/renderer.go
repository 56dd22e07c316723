// Package json renders results as indented JSON documents, one per call.
package json

import (
	"encoding/json"
	"io"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/inspect"
	"github.com/arthur-debert/gdsmerge/pkg/merge"
	"github.com/arthur-debert/gdsmerge/pkg/report"
	"github.com/arthur-debert/gdsmerge/pkg/style"
)

type errorPayload struct {
	Error   string                 `json:"error"`
	Code    errors.ErrorCode       `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type messagePayload struct {
	Message string `json:"message"`
}

// inspectPayload adds the derived totals to a summary.
type inspectPayload struct {
	*inspect.Summary
	Elements int  `json:"elements"`
	Dangling bool `json:"dangling"`
}

// Renderer writes JSON for scripts and pipelines.
type Renderer struct {
	encoder *json.Encoder
}

// New creates a JSON renderer writing to output.
func New(output io.Writer) *Renderer {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return &Renderer{encoder: encoder}
}

// RenderResult writes merge results in report form.
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *merge.Result:
		return r.encoder.Encode(report.New(v))
	case *inspect.Summary:
		return r.encoder.Encode(inspectPayload{Summary: v, Elements: v.Elements(), Dangling: v.Dangling()})
	default:
		return r.encoder.Encode(result)
	}
}

func (r *Renderer) RenderError(err error) error {
	return r.encoder.Encode(errorPayload{
		Error:   err.Error(),
		Code:    errors.GetErrorCode(err),
		Details: errors.GetErrorDetails(err),
	})
}

func (r *Renderer) RenderMessage(msg string) error {
	return r.encoder.Encode(messagePayload{Message: style.Strip(msg)})
}
