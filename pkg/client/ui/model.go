package ui

import (
	"context"

	"github.com/aeolun/notify/pkg/channelview"
	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/client/ui/modal"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// ChannelView is the controller the model renders. *channelview.Controller
// implements it.
type ChannelView interface {
	ChannelID() string
	State() channelview.State
	Updates() <-chan channelview.State
	Errors() <-chan error
	Subscribe(ctx context.Context) error
	Refresh()
	Links() channelview.Links
}

// Notifier shows a desktop notification
type Notifier func(title, body string) error

// Config holds the model's options
type Config struct {
	// DesktopNotifications announces new messages while subscribed
	DesktopNotifications bool

	// NotificationIcon is passed to the desktop notifier (may be empty)
	NotificationIcon string

	// Notifier overrides the desktop notifier (tests)
	Notifier Notifier

	Logger zerolog.Logger
}

// Model represents the channel view application state
type Model struct {
	view   ChannelView
	links  channelview.Links
	state  channelview.State
	logger zerolog.Logger

	// Desktop notifications
	notify               Notifier
	desktopNotifications bool
	seen                 map[string]struct{} // Messages already shown
	seenInitialized      bool                // First snapshot recorded

	// QR code of the web link, rendered once
	qrCode string

	// Layout
	width   int
	height  int
	feed    viewport.Model
	spinner spinner.Model

	modalStack modal.ModalStack

	// Footer status
	statusMessage string
	statusVersion uint64
	errorMessage  string

	// viewClosed is set once the controller was deactivated
	viewClosed bool
}

// NewModel creates the model for a channel view
func NewModel(view ChannelView, config Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SectionTitleStyle

	notify := config.Notifier
	if notify == nil {
		icon := config.NotificationIcon
		notify = func(title, body string) error {
			return beeep.Notify(title, body, icon)
		}
	}

	links := view.Links()
	logger := config.Logger.With().Str("component", "ui").Logger()

	qr, err := RenderQR(links.WebLink)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to render QR code")
	}

	return Model{
		view:                 view,
		links:                links,
		state:                view.State(),
		logger:               logger,
		notify:               notify,
		desktopNotifications: config.DesktopNotifications,
		seen:                 make(map[string]struct{}),
		qrCode:               qr,
		spinner:              s,
	}
}

// StateMsg carries a new controller state
type StateMsg struct {
	State channelview.State
}

// ErrorMsg carries a failure reported by the controller
type ErrorMsg struct {
	Err error
}

// ViewClosedMsg is sent once the controller has been deactivated
type ViewClosedMsg struct{}

// SubscribeResultMsg is sent when a subscribe triggered from the UI returns
type SubscribeResultMsg struct {
	Err error
}

// ClearStatusMsg clears the status message after a timeout
type ClearStatusMsg struct {
	Version uint64 // Only clear if this matches current statusVersion
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		listenForChannelEvents(m.view),
		m.spinner.Tick,
	)
}

// listenForChannelEvents waits for the next state update or error
func listenForChannelEvents(view ChannelView) tea.Cmd {
	return func() tea.Msg {
		select {
		case s, ok := <-view.Updates():
			if !ok {
				return ViewClosedMsg{}
			}
			return StateMsg{State: s}
		case err, ok := <-view.Errors():
			if !ok {
				return ViewClosedMsg{}
			}
			return ErrorMsg{Err: err}
		}
	}
}

// subscribeCmd runs the subscribe action off the UI loop
func subscribeCmd(view ChannelView) tea.Cmd {
	return func() tea.Msg {
		return SubscribeResultMsg{Err: view.Subscribe(context.Background())}
	}
}

// notifyCmd sends desktop notifications for new messages
func (m Model) notifyCmd(msgs []client.Message) tea.Cmd {
	notify := m.notify
	logger := m.logger
	title := "notify.run - " + m.view.ChannelID()
	return func() tea.Msg {
		body := notificationBody(msgs)
		if err := notify(title, body); err != nil {
			logger.Warn().Err(err).Msg("failed to send desktop notification")
		}
		return nil
	}
}

// keyBindings are shown in the help modal
var keyBindings = []modal.KeyHelp{
	{Keys: "s", Description: "Subscribe on this device"},
	{Keys: "r", Description: "Refresh now"},
	{Keys: "c", Description: "Show QR code of the channel page"},
	{Keys: "↑/↓ PgUp/PgDn", Description: "Scroll messages"},
	{Keys: "?/h", Description: "Help"},
	{Keys: "q", Description: "Quit"},
}
