package client

import (
	"context"
	"sync"
)

// MockSource is a test implementation of ChannelSource
type MockSource struct {
	mu sync.RWMutex

	// Canned responses
	snapshots map[string]ChannelSnapshot
	fetchErr  error

	// Manual mode: every fetch waits until the test resolves it
	manual  bool
	pending chan *PendingFetch

	// Fetch count for verification
	Fetches int
}

// PendingFetch is a fetch waiting for the test to resolve it
type PendingFetch struct {
	ChannelID string
	done      chan fetchResult
}

type fetchResult struct {
	snap ChannelSnapshot
	err  error
}

// Resolve completes the fetch with a snapshot
func (p *PendingFetch) Resolve(snap ChannelSnapshot) {
	p.done <- fetchResult{snap: snap}
}

// Fail completes the fetch with an error
func (p *PendingFetch) Fail(err error) {
	p.done <- fetchResult{err: err}
}

// NewMockSource creates a new mock source answering from canned snapshots
func NewMockSource() *MockSource {
	return &MockSource{
		snapshots: make(map[string]ChannelSnapshot),
		pending:   make(chan *PendingFetch, 100),
	}
}

// NewManualMockSource creates a mock source whose fetches block until resolved
func NewManualMockSource() *MockSource {
	m := NewMockSource()
	m.manual = true
	return m
}

// FetchChannel returns the canned snapshot, or waits for the test in manual mode.
// Manual fetches ignore ctx so a result can arrive after the caller gave up.
func (m *MockSource) FetchChannel(ctx context.Context, channelID string) (ChannelSnapshot, error) {
	m.mu.Lock()
	m.Fetches++
	manual := m.manual
	snap, ok := m.snapshots[channelID]
	fetchErr := m.fetchErr
	m.mu.Unlock()

	if manual {
		p := &PendingFetch{ChannelID: channelID, done: make(chan fetchResult, 1)}
		m.pending <- p
		res := <-p.done
		return res.snap, res.err
	}

	if fetchErr != nil {
		return ChannelSnapshot{}, fetchErr
	}
	if !ok {
		return ChannelSnapshot{}, ErrNotFound
	}
	return snap, nil
}

// PreviewImageURL returns a fixed mock location
func (m *MockSource) PreviewImageURL(channelID string) string {
	return "http://mock.local/" + channelID + "/qr.svg"
}

// Test helpers

// SetSnapshot sets the snapshot returned for a channel
func (m *MockSource) SetSnapshot(channelID string, snap ChannelSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[channelID] = snap
}

// SetFetchError sets an error to return from FetchChannel()
func (m *MockSource) SetFetchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// Pending delivers manual-mode fetches in the order they were issued
func (m *MockSource) Pending() <-chan *PendingFetch {
	return m.pending
}

// FetchCount returns the number of FetchChannel calls
func (m *MockSource) FetchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Fetches
}

// Verify that MockSource implements ChannelSource
var _ ChannelSource = (*MockSource)(nil)
