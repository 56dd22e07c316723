package topics

import "strings"

// Renderer turns raw topic content into terminal output. ext is the topic
// file extension, including the dot.
type Renderer interface {
	Render(content string, ext string) string
}

// PlainRenderer prints topics as written, trimmed to a single trailing newline.
type PlainRenderer struct{}

// Render returns content unchanged apart from trailing whitespace.
func (r *PlainRenderer) Render(content string, ext string) string {
	return strings.TrimRight(content, "\n\t ") + "\n"
}
