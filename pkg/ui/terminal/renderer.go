// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/arthur-debert/gdsmerge/pkg/inspect"
	"github.com/arthur-debert/gdsmerge/pkg/merge"
	"github.com/arthur-debert/gdsmerge/pkg/report"
	"github.com/arthur-debert/gdsmerge/pkg/style"
	"github.com/arthur-debert/gdsmerge/pkg/ui/text"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

// Renderer provides rich terminal output: lipgloss styled headings, a
// pterm table of renames and a pterm tree of structures.
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) *Renderer {
	return &Renderer{output: w}
}

// RenderResult renders a merge result or an inspection
func (r *Renderer) RenderResult(result interface{}) error {
	var (
		out string
		err error
	)
	switch v := result.(type) {
	case *merge.Result:
		out, err = Merge(report.New(v))
	case *inspect.Summary:
		out, err = Inspect(v)
	default:
		out = fmt.Sprintf("%+v\n", result)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(r.output, out)
	return err
}

// RenderError renders an error in a styled box
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(r.output, style.RenderError(err))
	return werr
}

// RenderMessage renders a message with markup
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, style.Render(msg))
	return err
}

// Merge renders a merge report.
func Merge(rep *report.Report) (string, error) {
	var b strings.Builder
	renamed := 0
	for _, in := range rep.Inputs {
		renamed += in.Renamed
	}

	b.WriteString(style.RenderTemplate(
		"{{ok}} [title]Merged {{inputs}} input(s)[/title] into [path]{{output}}[/path]\n",
		map[string]string{
			"ok":     style.SuccessIndicator,
			"inputs": fmt.Sprint(len(rep.Inputs)),
			"output": rep.Output,
		}))
	fmt.Fprintf(&b, "  %s %s  %s %d  %s %d  %s %s\n",
		style.MutedStyle.Render("library"), style.StructureStyle.Render(rep.Library),
		style.MutedStyle.Render("structures"), rep.Structures,
		style.MutedStyle.Render("renamed"), renamed,
		style.MutedStyle.Render("digest"), style.CodeStyle.Render(rep.Digest))

	if renamed == 0 {
		return b.String(), nil
	}

	data := pterm.TableData{{"Input", "Structure", "", "Final name"}}
	for _, in := range rep.Inputs {
		for _, rn := range in.Renames {
			if rn.From == rn.To {
				continue
			}
			data = append(data, []string{in.Path, rn.From, style.RenameIndicator, style.RenamedStyle.Render(rn.To)})
		}
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", err
	}
	b.WriteString("\n" + table + "\n")
	return b.String(), nil
}

// Inspect renders a library summary as a tree of structures.
func Inspect(sum *inspect.Summary) (string, error) {
	var b strings.Builder
	b.WriteString(style.RenderTemplate(
		"[title]{{library}}[/title] [path]{{path}}[/path]\n",
		map[string]string{"library": sum.Library, "path": sum.Path}))
	fmt.Fprintf(&b, "  %s %d  %s %g / %g m",
		style.MutedStyle.Render("version"), sum.Version,
		style.MutedStyle.Render("units"), sum.UserUnit, sum.DBUnit)
	if !sum.Modified.IsZero() {
		fmt.Fprintf(&b, "  %s %s", style.MutedStyle.Render("modified"), sum.Modified.Format(time.DateTime))
	}
	b.WriteString("\n")

	list := pterm.LeveledList{{Level: 0, Text: fmt.Sprintf("%d structures, %d elements", len(sum.Structures), sum.Elements())}}
	for _, st := range sum.Structures {
		list = append(list, pterm.LeveledListItem{
			Level: 1,
			Text:  fmt.Sprintf("%s %s", style.StructureStyle.Render(st.Name), style.MutedStyle.Render(text.Kinds(st.Kinds))),
		})
		for _, ref := range st.References {
			label := style.ReferenceStyle.Render(ref)
			for _, missing := range st.Missing {
				if missing == ref {
					label = style.ErrorIndicator + " " + style.ErrorStyle.Render(ref+" (undefined)")
				}
			}
			list = append(list, pterm.LeveledListItem{Level: 2, Text: label})
		}
	}
	tree, err := pterm.DefaultTree.WithRoot(putils.TreeFromLeveledList(list)).Srender()
	if err != nil {
		return "", err
	}
	b.WriteString(tree)
	if len(sum.Top) > 0 {
		fmt.Fprintf(&b, "%s %s\n", style.MutedStyle.Render("top:"), strings.Join(sum.Top, ", "))
	}
	return b.String(), nil
}
