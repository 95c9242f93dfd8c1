package subscription

import (
	"context"
	"fmt"
	"sync"
)

// MockManager is a test implementation of Manager
type MockManager struct {
	mu sync.Mutex

	pushKey     string
	identityID  string
	identityErr error
	registerErr error

	// registerGate, when set, blocks Register until it is closed or receives
	registerGate chan struct{}
	identityGate chan struct{}

	// Calls for verification
	IdentityCalls int
	RegisterCalls []string
}

// NewMockManager creates a mock whose identity id is identityID
func NewMockManager(pushKey, identityID string) *MockManager {
	return &MockManager{
		pushKey:    pushKey,
		identityID: identityID,
	}
}

// LocalIdentity returns the configured identity
func (m *MockManager) LocalIdentity(ctx context.Context) (Identity, error) {
	m.mu.Lock()
	gate := m.identityGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Identity{}, fmt.Errorf("%w: %w", ErrIdentity, ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.IdentityCalls++
	if m.identityErr != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrIdentity, m.identityErr)
	}
	return Identity{ID: m.identityID, PushKey: m.pushKey}, nil
}

// Register records the call and returns the configured error
func (m *MockManager) Register(ctx context.Context, channelID string) error {
	m.mu.Lock()
	gate := m.registerGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrRegistration, ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.RegisterCalls = append(m.RegisterCalls, channelID)
	if m.registerErr != nil {
		return fmt.Errorf("%w: %w", ErrRegistration, m.registerErr)
	}
	return nil
}

// PushKey returns the push key
func (m *MockManager) PushKey() string {
	return m.pushKey
}

// Test helpers

// SetIdentityError sets an error to return from LocalIdentity()
func (m *MockManager) SetIdentityError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identityErr = err
}

// SetRegisterError sets an error to return from Register()
func (m *MockManager) SetRegisterError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerErr = err
}

// SetRegisterGate makes Register wait on gate
func (m *MockManager) SetRegisterGate(gate chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerGate = gate
}

// SetIdentityGate makes LocalIdentity wait on gate
func (m *MockManager) SetIdentityGate(gate chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identityGate = gate
}

// RegisterCount returns the number of completed Register calls
func (m *MockManager) RegisterCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RegisterCalls)
}

// MockFactory hands out one MockManager per push key and records requests
type MockFactory struct {
	mu       sync.Mutex
	managers map[string]*MockManager
	ids      map[string]string

	// Requested push keys, in order
	Requested []string
}

// NewMockFactory creates a factory; ids maps push key to identity id
func NewMockFactory(ids map[string]string) *MockFactory {
	if ids == nil {
		ids = make(map[string]string)
	}
	return &MockFactory{
		managers: make(map[string]*MockManager),
		ids:      ids,
	}
}

// Factory returns the Factory func backed by this mock
func (f *MockFactory) Factory() Factory {
	return func(pushKey string) Manager {
		return f.Manager(pushKey)
	}
}

// Manager returns the mock for a push key, creating it on first use
func (f *MockFactory) Manager(pushKey string) *MockManager {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requested = append(f.Requested, pushKey)
	if m, ok := f.managers[pushKey]; ok {
		return m
	}
	m := NewMockManager(pushKey, f.ids[pushKey])
	f.managers[pushKey] = m
	return m
}

// Get returns the mock for a push key without recording a request,
// creating it if needed so tests can configure it up front
func (f *MockFactory) Get(pushKey string) *MockManager {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.managers[pushKey]; ok {
		return m
	}
	m := NewMockManager(pushKey, f.ids[pushKey])
	f.managers[pushKey] = m
	return m
}

// RequestCount returns how many managers were requested
func (f *MockFactory) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requested)
}
