package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/aeolun/notify/pkg/channelview"
	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/client/ui/modal"
	"github.com/aeolun/notify/pkg/subscription"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		feedWidth, feedHeight := m.feedSize()
		if m.feed.Width == 0 || m.feed.Height == 0 {
			m.feed = viewport.New(feedWidth, feedHeight)
		} else {
			m.feed.Width = feedWidth
			m.feed.Height = feedHeight
		}
		m.feed.SetContent(m.buildMessageList())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StateMsg:
		cmd := m.applyState(msg.State)
		return m, tea.Batch(cmd, listenForChannelEvents(m.view))

	case ErrorMsg:
		m.logger.Debug().Err(msg.Err).Msg("channel error")
		m.errorMessage = describeError(msg.Err)
		return m, listenForChannelEvents(m.view)

	case ViewClosedMsg:
		m.viewClosed = true
		return m, tea.Quit

	case SubscribeResultMsg:
		return m.handleSubscribeResult(msg)

	case ClearStatusMsg:
		if msg.Version == m.statusVersion {
			m.statusMessage = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if top := m.modalStack.Top(); top != nil {
		handled, next, cmd := top.HandleKey(msg)
		if handled {
			if next != top {
				m.modalStack.Replace(next)
			}
			return m, cmd
		}
		if top.IsBlockingInput() {
			return m, nil
		}
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "s":
		if m.state.Subscribed {
			cmd := m.setStatus("Already subscribed on this device")
			return m, cmd
		}
		if m.state.Subscribing {
			return m, nil
		}
		if m.state.Identity == nil {
			cmd := m.setStatus("Still loading the channel, try again in a moment")
			return m, cmd
		}
		cmd := m.setStatus("Subscribing…")
		return m, tea.Batch(subscribeCmd(m.view), cmd)

	case "r":
		m.view.Refresh()
		cmd := m.setStatus("Refreshing…")
		return m, cmd

	case "c":
		m.modalStack.Push(modal.NewQRCodeModal(m.links.WebLink, m.qrCode))
		return m, nil

	case "?", "h":
		m.modalStack.Push(modal.NewHelpModal(keyBindings))
		return m, nil
	}

	var cmd tea.Cmd
	m.feed, cmd = m.feed.Update(msg)
	return m, cmd
}

// applyState takes a new controller state and returns the notification
// command for messages not seen before
func (m *Model) applyState(s channelview.State) tea.Cmd {
	m.state = s
	if s.LastErr == nil {
		m.errorMessage = ""
	}
	if m.feed.Width > 0 {
		m.feed.SetContent(m.buildMessageList())
	}

	if s.Phase != channelview.PhaseReady {
		return nil
	}
	fresh := m.recordMessages(s.Messages)
	if len(fresh) == 0 || !m.desktopNotifications || !s.Subscribed {
		return nil
	}
	return m.notifyCmd(fresh)
}

// recordMessages marks msgs as seen and returns the ones that were not.
// The first snapshot only seeds the set.
func (m *Model) recordMessages(msgs []client.Message) []client.Message {
	var fresh []client.Message
	for _, msg := range msgs {
		key := messageKey(msg)
		if _, ok := m.seen[key]; ok {
			continue
		}
		m.seen[key] = struct{}{}
		if m.seenInitialized {
			fresh = append(fresh, msg)
		}
	}
	m.seenInitialized = true
	return fresh
}

func (m Model) handleSubscribeResult(msg SubscribeResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err == nil {
		cmd := m.setStatus("Subscribed on this device")
		return m, cmd
	}

	if errors.Is(msg.Err, channelview.ErrIdentityUnresolved) {
		cmd := m.setStatus("Still loading the channel, try again in a moment")
		return m, cmd
	}
	if errors.Is(msg.Err, channelview.ErrDeactivated) {
		return m, nil
	}

	view := m.view
	m.modalStack.Push(modal.NewErrorModal(
		"Subscribe failed",
		describeError(msg.Err),
		func() tea.Cmd { return subscribeCmd(view) },
	))
	return m, nil
}

// statusTimeout returns a command that clears the status after 3 seconds
func statusTimeout(version uint64) tea.Cmd {
	return tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
		return ClearStatusMsg{Version: version}
	})
}

// setStatus sets the status message and returns the timeout command
func (m *Model) setStatus(message string) tea.Cmd {
	m.statusVersion++
	m.statusMessage = message
	return statusTimeout(m.statusVersion)
}

// describeError turns a controller error into a footer line
func describeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, subscription.ErrRegistration):
		return "Could not register this device: " + err.Error()
	case errors.Is(err, subscription.ErrIdentity):
		return "Device identity unavailable: " + err.Error()
	case errors.Is(err, channelview.ErrIdentityUnresolved):
		return "Channel is still loading"
	case errors.Is(err, client.ErrNotFound):
		return "Channel not found"
	case errors.Is(err, client.ErrNetwork):
		return "Could not reach the server, retrying"
	default:
		return err.Error()
	}
}

func messageKey(msg client.Message) string {
	return msg.Time + "\x00" + msg.Message
}

// notificationBody summarizes new messages for a desktop notification
func notificationBody(msgs []client.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	body := truncateString(msgs[0].Message, 100)
	if len(msgs) > 1 {
		body = fmt.Sprintf("%s (+%d more)", body, len(msgs)-1)
	}
	return body
}
