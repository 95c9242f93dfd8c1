package modal

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrorModal shows a failure that must be acknowledged, with an optional
// retry action bound to [r]
type ErrorModal struct {
	title   string
	message string
	onRetry func() tea.Cmd
}

// NewErrorModal creates a new error modal. onRetry may be nil.
func NewErrorModal(title, message string, onRetry func() tea.Cmd) *ErrorModal {
	return &ErrorModal{
		title:   title,
		message: message,
		onRetry: onRetry,
	}
}

// Type returns the modal type
func (m *ErrorModal) Type() ModalType {
	return ModalError
}

// HandleKey processes keyboard input
func (m *ErrorModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		return true, nil, nil
	case "r":
		if m.onRetry != nil {
			return true, nil, m.onRetry()
		}
	}
	return true, m, nil
}

// Render returns the modal content
func (m *ErrorModal) Render(width, height int) string {
	errorColor := lipgloss.Color("#FF5555")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(errorColor).
		Align(lipgloss.Center)

	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	hint := "Press Enter or Esc to dismiss"
	if m.onRetry != nil {
		hint = "[r] Retry  [Enter/Esc] Dismiss"
	}

	content := titleStyle.Render(m.title) + "\n\n" +
		messageStyle.Render(m.message) + "\n\n" +
		hintStyle.Render(hint)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Padding(1, 2)

	modalWidth := 50
	if width < modalWidth+4 {
		modalWidth = width - 4
	}

	box := borderStyle.Width(modalWidth - 4).Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// IsBlockingInput returns whether this modal blocks input to the main view
func (m *ErrorModal) IsBlockingInput() bool {
	return true
}
