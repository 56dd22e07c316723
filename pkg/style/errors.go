package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
)

// RenderError formats err for a terminal: the error code and message in a
// box, followed by its details sorted by key.
func RenderError(err error) string {
	var b strings.Builder
	code := errors.GetErrorCode(err)
	message := err.Error()
	if me, ok := err.(*errors.MergeError); ok {
		message = strings.TrimPrefix(me.Error(), "["+string(me.Code)+"] ")
	}
	fmt.Fprintf(&b, "%s %s %s", ErrorIndicator, ErrorStyle.Render(string(code)), NormalStyle.Render(message))

	details := errors.GetErrorDetails(err)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s %v", MutedStyle.Render(k+":"), details[k])
	}
	return ErrorBoxStyle.Render(b.String())
}

// PlainError formats err without styling.
func PlainError(err error) string {
	var b strings.Builder
	b.WriteString("error: " + err.Error())
	details := errors.GetErrorDetails(err)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, details[k])
	}
	return b.String()
}
