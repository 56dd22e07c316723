// Package style holds the lipgloss palette and the markup used by the
// terminal renderer and CLI messages.
package style

import (
	"github.com/charmbracelet/lipgloss"
)

func adaptive(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette. Each color has a light and a dark terminal variant.
var (
	HeadingColor = adaptive("#212529", "#F8F9FA")
	TextColor    = adaptive("#495057", "#E9ECEF")
	MutedColor   = adaptive("#6C757D", "#ADB5BD")
	AccentColor  = adaptive("#007ACC", "#3D9EFF")
	SuccessColor = adaptive("#28A745", "#4CDD76")
	ErrorColor   = adaptive("#DC3545", "#FF6B7D")

	// Cells keep their own hue, renamed cells stand out in amber and
	// references are green.
	StructureColor = adaptive("#8B5CF6", "#A78BFA")
	RenamedColor   = adaptive("#F59E0B", "#FBBF24")
	ReferenceColor = adaptive("#10B981", "#34D399")
)

var (
	TitleStyle   = lipgloss.NewStyle().Foreground(HeadingColor).Bold(true)
	NormalStyle  = lipgloss.NewStyle().Foreground(TextColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	CodeStyle    = lipgloss.NewStyle().Foreground(AccentColor)
	PathStyle    = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)

	StructureStyle = lipgloss.NewStyle().Foreground(StructureColor)
	RenamedStyle   = lipgloss.NewStyle().Foreground(RenamedColor).Bold(true)
	ReferenceStyle = lipgloss.NewStyle().Foreground(ReferenceColor)

	// ErrorBoxStyle frames errors printed by the terminal renderer.
	ErrorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Padding(0, 1)
)

var (
	SuccessIndicator = SuccessStyle.Render("✓")
	ErrorIndicator   = ErrorStyle.Render("✗")
	RenameIndicator  = RenamedStyle.Render("→")
)
