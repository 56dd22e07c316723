// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/arthur-debert/gdsmerge/pkg/inspect"
	"github.com/arthur-debert/gdsmerge/pkg/merge"
	"github.com/arthur-debert/gdsmerge/pkg/report"
	"github.com/arthur-debert/gdsmerge/pkg/style"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) *Renderer {
	return &Renderer{output: output}
}

// RenderResult renders a merge result or an inspection as plain text
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *merge.Result:
		_, err := io.WriteString(r.output, Merge(report.New(v)))
		return err
	case *inspect.Summary:
		_, err := io.WriteString(r.output, Inspect(v))
		return err
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(r.output, style.PlainError(err))
	return werr
}

// RenderMessage renders a simple message as plain text
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, style.Strip(msg))
	return err
}

// Merge formats a merge report. Only renamed structures are listed.
func Merge(rep *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "merged %d input(s) into %s (library %s)\n", len(rep.Inputs), rep.Output, rep.Library)
	renamed := 0
	for _, in := range rep.Inputs {
		renamed += in.Renamed
	}
	fmt.Fprintf(&b, "  structures: %d  renamed: %d  bytes: %d  digest: %s\n",
		rep.Structures, renamed, rep.Bytes, rep.Digest)
	for _, in := range rep.Inputs {
		if in.Renamed == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%s)\n", in.Path, in.Library)
		for _, rn := range in.Renames {
			if rn.From != rn.To {
				fmt.Fprintf(&b, "  %s -> %s\n", rn.From, rn.To)
			}
		}
	}
	return b.String()
}

// Inspect formats a library summary.
func Inspect(sum *inspect.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: library %s, version %d, units %g user / %g m\n",
		sum.Path, sum.Library, sum.Version, sum.UserUnit, sum.DBUnit)
	if !sum.Modified.IsZero() {
		fmt.Fprintf(&b, "  modified %s\n", sum.Modified.Format(time.DateTime))
	}
	fmt.Fprintf(&b, "  structures %d, elements %d, top: %s\n",
		len(sum.Structures), sum.Elements(), strings.Join(sum.Top, ", "))
	for _, st := range sum.Structures {
		fmt.Fprintf(&b, "  %s: %d element(s) %s", st.Name, st.Elements, Kinds(st.Kinds))
		if len(st.References) > 0 {
			fmt.Fprintf(&b, " -> %s", strings.Join(st.References, ", "))
		}
		if len(st.Missing) > 0 {
			fmt.Fprintf(&b, " (missing: %s)", strings.Join(st.Missing, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Kinds formats element counts as KIND=n pairs in record type order.
func Kinds(kinds map[string]int) string {
	var parts []string
	for _, k := range []string{"BOUNDARY", "PATH", "SREF", "AREF", "TEXT", "NODE", "BOX"} {
		if n := kinds[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
	}
	return strings.Join(parts, " ")
}
