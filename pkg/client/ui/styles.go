package ui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	PrimaryColor = lipgloss.Color("#5FAFFF")
	SuccessColor = lipgloss.Color("#5FD787")
	WarningColor = lipgloss.Color("#FFAF5F")
	ErrorColor   = lipgloss.Color("#FF5555")
	MutedColor   = lipgloss.Color("240")
	TextColor    = lipgloss.Color("252")
	BorderColor  = lipgloss.Color("238")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	StatusStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 1)

	FeedPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	SidePaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	SectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor)

	MessageTimeStyle = lipgloss.NewStyle().Foreground(MutedColor)
	MessageTextStyle = lipgloss.NewStyle().Foreground(TextColor)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Italic(true)

	CodeStyle = lipgloss.NewStyle().Foreground(WarningColor)

	ButtonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(PrimaryColor).
			Padding(0, 1)

	DisabledButtonStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	MutedTextStyle = lipgloss.NewStyle().Foreground(MutedColor)
	SuccessStyle   = lipgloss.NewStyle().Foreground(SuccessColor)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ErrorColor)
)

// RenderError renders an error line for the footer
func RenderError(message string) string {
	return ErrorStyle.Render("✗ " + message)
}
