package ui

import (
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format selects how results are rendered.
type Format string

const (
	FormatAuto     Format = "auto"
	FormatTerminal Format = "term"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// Formats lists the values accepted by ParseFormat.
var Formats = []Format{FormatAuto, FormatTerminal, FormatText, FormatJSON}

func (f Format) String() string {
	return string(f)
}

// ParseFormat accepts the names in Formats, case-insensitively, plus the
// aliases "terminal" and "plain". Empty means auto.
func ParseFormat(s string) (Format, error) {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case "":
		return FormatAuto, nil
	case "terminal":
		return FormatTerminal, nil
	case "plain":
		return FormatText, nil
	default:
		for _, f := range Formats {
			if name == string(f) {
				return f, nil
			}
		}
	}
	return FormatAuto, errors.Newf(errors.ErrInvalidInput, "unknown format: %s", s).
		WithDetail("format", s)
}

// Resolve replaces FormatAuto with the format suited to w. Writers that are
// not files get plain text.
func (f Format) Resolve(w io.Writer) Format {
	if f != FormatAuto {
		return f
	}
	if file, ok := w.(*os.File); ok {
		return DetectFormat(file)
	}
	return FormatText
}

// DetectFormat picks terminal output only for a color-capable tty, and
// honors NO_COLOR.
func DetectFormat(output *os.File) Format {
	if os.Getenv("NO_COLOR") != "" {
		return FormatText
	}
	fd := output.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return FormatText
	}
	if termenv.NewOutput(output).Profile == termenv.Ascii {
		return FormatText
	}
	return FormatTerminal
}
