package ui

import (
	"fmt"
	"strings"

	"github.com/76creates/stickers/flexbox"
	"github.com/aeolun/notify/pkg/channelview"
	"github.com/aeolun/notify/pkg/client"
	"github.com/charmbracelet/lipgloss"
)

// EmptyFeedPlaceholder is shown instead of an empty message list
const EmptyFeedPlaceholder = "Messages to this channel will appear here."

const (
	subscribeLabel  = "Subscribe on this device"
	subscribedLabel = "Already Subscribed"
)

// View renders the current view
func (m Model) View() string {
	// Don't render until we have dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if top := m.modalStack.Top(); top != nil {
		return top.Render(m.width, m.height)
	}

	return m.renderChannel()
}

// renderChannel renders the feed and the send/subscribe pane side by side
func (m Model) renderChannel() string {
	layout := flexbox.NewHorizontal(m.width, m.height-2) // header(1) + footer(1)

	feedWidth, _ := m.feedSize()
	sideWidth := m.width - feedWidth - 4 - 4
	if sideWidth < 20 {
		sideWidth = 20
	}

	feedCol := layout.NewColumn().AddCells(
		flexbox.NewCell(2, 1).
			SetStyle(FeedPaneStyle).
			SetContent(m.renderFeedPane()),
	)

	sideCol := layout.NewColumn().AddCells(
		flexbox.NewCell(1, 1).
			SetStyle(SidePaneStyle).
			SetContent(m.buildSidePane(sideWidth)),
	)

	layout.AddColumns([]*flexbox.Column{feedCol, sideCol})

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		layout.Render(),
		m.renderFooter(),
	)
}

// feedSize returns the viewport size of the message feed: two thirds of
// the width minus border and padding, the full height minus header,
// footer, border and the pane title
func (m Model) feedSize() (int, int) {
	width := m.width*2/3 - 4
	if width < 20 {
		width = 20
	}
	height := m.height - 2 - 2 - 2
	if height < 3 {
		height = 3
	}
	return width, height
}

func (m Model) renderHeader() string {
	left := HeaderStyle.Render("notify.run  " + m.view.ChannelID())

	var status string
	switch {
	case m.viewClosed:
		status = "Closed"
	case m.state.Phase != channelview.PhaseReady:
		status = "Loading"
	case m.state.Subscribed:
		status = SuccessStyle.Render("● Subscribed")
	default:
		status = "○ Not subscribed"
	}
	if m.state.Phase == channelview.PhaseReady {
		status += MutedTextStyle.Render(fmt.Sprintf("  %d messages", len(m.state.Messages)))
	}

	right := StatusStyle.Render(status)
	spacer := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))

	return left + spacer + right
}

func (m Model) renderFooter() string {
	footerContent := "[s] Subscribe  [r] Refresh  [c] QR code  [?] Help  [q] Quit"

	if m.statusMessage != "" {
		footerContent += "  " + SuccessStyle.Render(m.statusMessage)
	}
	if m.errorMessage != "" {
		footerContent += "  " + RenderError(m.errorMessage)
	}

	// FooterStyle has Padding(0, 1)
	if maxWidth := m.width - 2; lipgloss.Width(footerContent) > maxWidth {
		footerContent = truncateString(footerContent, maxWidth-1) + "…"
	}

	return FooterStyle.Render(footerContent)
}

// renderFeedPane renders the message list, or a spinner until the first
// snapshot arrived
func (m Model) renderFeedPane() string {
	title := SectionTitleStyle.Render("Messages")
	if m.state.Phase != channelview.PhaseReady {
		return title + "\n\n" + m.spinner.View() + " Loading channel…"
	}
	return title + "\n\n" + m.feed.View()
}

// buildMessageList renders the current messages at the feed width
func (m Model) buildMessageList() string {
	return renderMessageList(m.state.Messages, m.feed.Width)
}

// renderMessageList renders messages in the order given, one block per
// message. An empty list renders the placeholder.
func renderMessageList(msgs []client.Message, width int) string {
	if len(msgs) == 0 {
		return PlaceholderStyle.Render(EmptyFeedPlaceholder)
	}

	items := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, formatMessage(msg, width))
	}
	return strings.Join(items, "\n\n")
}

// formatMessage renders the timestamp line followed by the wrapped text
func formatMessage(msg client.Message, width int) string {
	lines := wrapText(msg.Message, width)
	for i, line := range lines {
		lines[i] = MessageTextStyle.Render(line)
	}
	return MessageTimeStyle.Render(msg.Time) + "\n" + strings.Join(lines, "\n")
}

// buildSidePane renders the send help, the subscribe button and the links
func (m Model) buildSidePane(width int) string {
	var sections []string

	curl := fmt.Sprintf(`curl %s -d "message goes here"`, m.links.Endpoint)
	sections = append(sections,
		SectionTitleStyle.Render("Send Messages"),
		"Send a message from any shell:",
		CodeStyle.Width(width).Render(curl),
		"",
		SectionTitleStyle.Render("Subscribe"),
		m.renderSubscribeButton(),
		"",
		"Subscribe another device:",
		MutedTextStyle.Width(width).Render(m.links.WebLink),
	)

	// Small QR only when it fits below the rest
	if m.qrCode != "" {
		used := lipgloss.Height(strings.Join(sections, "\n"))
		if lipgloss.Width(m.qrCode) <= width && used+1+lipgloss.Height(m.qrCode) <= m.height-4 {
			sections = append(sections, "", m.qrCode)
		} else {
			sections = append(sections, MutedTextStyle.Render("[c] show QR code"))
		}
	}

	return strings.Join(sections, "\n")
}

// renderSubscribeButton renders the subscribe affordance for the current state
func (m Model) renderSubscribeButton() string {
	switch {
	case m.state.Subscribed:
		return DisabledButtonStyle.Render(subscribedLabel)
	case m.state.Subscribing:
		return m.spinner.View() + " Subscribing…"
	case m.state.Identity == nil:
		return DisabledButtonStyle.Render(subscribeLabel)
	default:
		return ButtonStyle.Render(subscribeLabel) + MutedTextStyle.Render(" [s]")
	}
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		currentLine := ""
		for _, word := range words {
			// Words longer than the width overflow on their own line
			if lipgloss.Width(word) > width {
				if currentLine != "" {
					lines = append(lines, currentLine)
					currentLine = ""
				}
				lines = append(lines, word)
				continue
			}

			testLine := currentLine
			if testLine != "" {
				testLine += " "
			}
			testLine += word

			if lipgloss.Width(testLine) > width {
				lines = append(lines, currentLine)
				currentLine = word
			} else {
				currentLine = testLine
			}
		}
		if currentLine != "" {
			lines = append(lines, currentLine)
		}
	}

	return lines
}

// truncateString truncates s to maxLen visible characters, keeping ANSI
// escape sequences intact
func truncateString(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}

	var result strings.Builder
	currentWidth := 0
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		}
		if inEscape {
			result.WriteRune(r)
			if r == 'm' {
				inEscape = false
			}
			continue
		}

		if currentWidth >= maxLen {
			break
		}
		result.WriteRune(r)
		currentWidth++
	}

	return result.String()
}
