package style

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MarkupParser renders [tag]text[/tag] markup with lipgloss styles.
type MarkupParser struct {
	styles   map[string]lipgloss.Style
	patterns map[string]*regexp.Regexp
}

var anyTag = regexp.MustCompile(`\[/?[a-z_]+\]`)

// NewMarkupParser creates a new markup parser with default styles
func NewMarkupParser() *MarkupParser {
	p := &MarkupParser{
		styles:   make(map[string]lipgloss.Style),
		patterns: make(map[string]*regexp.Regexp),
	}
	for tag, s := range map[string]lipgloss.Style{
		"title":     TitleStyle,
		"success":   SuccessStyle,
		"error":     ErrorStyle,
		"code":      CodeStyle,
		"path":      PathStyle,
		"muted":     MutedStyle,
		"bold":      lipgloss.NewStyle().Bold(true),
		"structure": StructureStyle,
		"renamed":   RenamedStyle,
		"reference": ReferenceStyle,
	} {
		p.AddStyle(tag, s)
	}
	return p
}

// AddStyle allows adding custom styles
func (p *MarkupParser) AddStyle(tag string, style lipgloss.Style) {
	p.styles[tag] = style
	p.patterns[tag] = regexp.MustCompile(`\[` + regexp.QuoteMeta(tag) + `\](.*?)\[/` + regexp.QuoteMeta(tag) + `\]`)
}

// Render processes markup text and returns styled output. Nested tags are
// resolved by repeating until nothing changes.
func (p *MarkupParser) Render(text string) string {
	result := text
	for {
		before := result
		for tag, pattern := range p.patterns {
			s := p.styles[tag]
			result = pattern.ReplaceAllStringFunc(result, func(match string) string {
				sub := pattern.FindStringSubmatch(match)
				return s.Render(sub[1])
			})
		}
		if result == before {
			return result
		}
	}
}

// RenderTemplate substitutes {{key}} placeholders and renders the markup.
func (p *MarkupParser) RenderTemplate(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return p.Render(result)
}

// Strip removes markup tags, leaving the plain text.
func Strip(text string) string {
	return anyTag.ReplaceAllString(text, "")
}

var defaultParser = NewMarkupParser()

// Render is a convenience function using the default parser
func Render(text string) string {
	return defaultParser.Render(text)
}

// RenderTemplate is a convenience function using the default parser
func RenderTemplate(template string, vars map[string]string) string {
	return defaultParser.RenderTemplate(template, vars)
}
