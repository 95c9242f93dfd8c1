package modal

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// QRCodeModal shows the channel page as a full size QR code so a phone
// can open it and subscribe
type QRCodeModal struct {
	link string
	code string
}

// NewQRCodeModal creates the modal. code is the pre-rendered QR code of link.
func NewQRCodeModal(link, code string) *QRCodeModal {
	return &QRCodeModal{link: link, code: code}
}

// Type returns the modal type
func (m *QRCodeModal) Type() ModalType {
	return ModalQRCode
}

// HandleKey closes the modal on any dismiss key
func (m *QRCodeModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "c", "q":
		return true, nil, nil
	}
	return true, m, nil
}

// Render returns the modal content
func (m *QRCodeModal) Render(width, height int) string {
	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	code := m.code
	if code == "" {
		code = "(QR code unavailable)"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Bold(true).Render("Scan to subscribe another device"),
		"",
		code,
		m.link,
		"",
		hintStyle.Render("Press Esc to close"),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5FAFFF")).
		Padding(0, 2).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// IsBlockingInput returns whether this modal blocks input to the main view
func (m *QRCodeModal) IsBlockingInput() bool {
	return true
}
