package ui

import (
	"context"
	"sync"

	"github.com/aeolun/notify/pkg/channelview"
	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/subscription"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// fakeView is a ChannelView driven directly by tests
type fakeView struct {
	mu sync.Mutex

	state        channelview.State
	updates      chan channelview.State
	errs         chan error
	subscribeErr error

	subscribeCalls int
	refreshCalls   int
}

func newFakeView() *fakeView {
	return &fakeView{
		state:   channelview.State{Messages: []client.Message{}},
		updates: make(chan channelview.State, 16),
		errs:    make(chan error, 16),
	}
}

func (f *fakeView) ChannelID() string { return "abc" }

func (f *fakeView) State() channelview.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeView) Updates() <-chan channelview.State { return f.updates }
func (f *fakeView) Errors() <-chan error              { return f.errs }

func (f *fakeView) Subscribe(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribeCalls++
	return f.subscribeErr
}

func (f *fakeView) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
}

func (f *fakeView) Links() channelview.Links {
	return channelview.Links{
		Endpoint:     "https://notify.run/api/abc",
		WebLink:      "https://notify.run/c/abc",
		PreviewImage: "https://notify.run/api/abc/qr.svg",
	}
}

// recordingNotifier captures desktop notifications
type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (r *recordingNotifier) notify(title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
	return nil
}

// NewTestModel creates a Model with a fake view and window dimensions set
func NewTestModel(view *fakeView, notifier *recordingNotifier) Model {
	cfg := Config{
		DesktopNotifications: true,
		Logger:               zerolog.Nop(),
	}
	if notifier != nil {
		cfg.Notifier = notifier.notify
	}
	m := NewModel(view, cfg)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

// readyState builds a ready state with the given messages
func readyState(subscribed bool, msgs ...client.Message) channelview.State {
	if msgs == nil {
		msgs = []client.Message{}
	}
	return channelview.State{
		Phase:      channelview.PhaseReady,
		Messages:   msgs,
		Subscribed: subscribed,
		Identity:   &subscription.Identity{ID: "dev1", PushKey: "k1"},
	}
}

// update applies msg and returns the resulting Model
func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// keyPress builds a key message for a single rune
func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}
