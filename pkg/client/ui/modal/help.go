package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// KeyHelp is one line of the help modal
type KeyHelp struct {
	Keys        string
	Description string
}

// HelpModal lists the key bindings of the channel view
type HelpModal struct {
	bindings []KeyHelp
}

// NewHelpModal creates a help modal for the given bindings
func NewHelpModal(bindings []KeyHelp) *HelpModal {
	return &HelpModal{bindings: bindings}
}

// Type returns the modal type
func (m *HelpModal) Type() ModalType {
	return ModalHelp
}

// HandleKey closes the modal
func (m *HelpModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "?", "h", "q":
		return true, nil, nil
	}
	return true, m, nil
}

// Render returns the modal content
func (m *HelpModal) Render(width, height int) string {
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFFF"))

	keyWidth := 0
	for _, b := range m.bindings {
		if w := lipgloss.Width(b.Keys); w > keyWidth {
			keyWidth = w
		}
	}

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Keyboard shortcuts"))
	sb.WriteString("\n\n")
	for _, b := range m.bindings {
		sb.WriteString(keyStyle.Render(b.Keys))
		sb.WriteString(strings.Repeat(" ", keyWidth-lipgloss.Width(b.Keys)+2))
		sb.WriteString(b.Description)
		sb.WriteString("\n")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Render(strings.TrimRight(sb.String(), "\n"))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// IsBlockingInput returns whether this modal blocks input to the main view
func (m *HelpModal) IsBlockingInput() bool {
	return true
}
