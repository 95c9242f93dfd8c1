package client

import (
	"sort"
	"sync"
	"time"
)

// MockState is an in-memory test implementation of StateInterface
type MockState struct {
	mu sync.RWMutex

	// In-memory storage
	config        map[string]string
	identities    map[string]IdentityRecord
	registrations map[string]Registration
	dir           string

	// Error injection
	getConfigErr    error
	setConfigErr    error
	getIdentityErr  error
	saveIdentityErr error
	recordErr       error
}

// NewMockState creates a new mock state
func NewMockState() *MockState {
	return &MockState{
		config:        make(map[string]string),
		identities:    make(map[string]IdentityRecord),
		registrations: make(map[string]Registration),
		dir:           "/tmp/mock-state",
	}
}

// GetConfig retrieves a configuration value
func (s *MockState) GetConfig(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getConfigErr != nil {
		return "", s.getConfigErr
	}

	return s.config[key], nil
}

// SetConfig stores a configuration value
func (s *MockState) SetConfig(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setConfigErr != nil {
		return s.setConfigErr
	}

	s.config[key] = value
	return nil
}

// GetEndpoint returns the stored endpoint
func (s *MockState) GetEndpoint() string {
	endpoint, _ := s.GetConfig(configKeyEndpoint)
	return endpoint
}

// SetEndpoint stores the endpoint
func (s *MockState) SetEndpoint(endpoint string) error {
	if err := ValidateEndpoint(endpoint); err != nil {
		return err
	}
	return s.SetConfig(configKeyEndpoint, endpoint)
}

// GetIdentity returns the identity for a push key, or nil
func (s *MockState) GetIdentity(pushKey string) (*IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getIdentityErr != nil {
		return nil, s.getIdentityErr
	}

	rec, ok := s.identities[pushKey]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// SaveIdentity stores an identity
func (s *MockState) SaveIdentity(record IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveIdentityErr != nil {
		return s.saveIdentityErr
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	s.identities[record.PushKey] = record
	return nil
}

// RecordRegistration stores a registration
func (s *MockState) RecordRegistration(reg Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recordErr != nil {
		return s.recordErr
	}

	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now()
	}
	s.registrations[reg.ChannelID+"/"+reg.SubscriptionID] = reg
	return nil
}

// ListRegistrations returns registrations, newest first
func (s *MockState) ListRegistrations() ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regs := make([]Registration, 0, len(s.registrations))
	for _, reg := range s.registrations {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].RegisteredAt.Equal(regs[j].RegisteredAt) {
			return regs[i].RegisteredAt.After(regs[j].RegisteredAt)
		}
		return regs[i].ChannelID < regs[j].ChannelID
	})
	return regs, nil
}

// GetStateDir returns the directory where state is stored
func (s *MockState) GetStateDir() string {
	return s.dir
}

// Close closes the mock state (no-op for in-memory)
func (s *MockState) Close() error {
	return nil
}

// Test helpers

// SetStateDir points the mock at a real directory (for key files)
func (s *MockState) SetStateDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
}

// SetGetConfigError sets an error to return from GetConfig()
func (s *MockState) SetGetConfigError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getConfigErr = err
}

// SetSetConfigError sets an error to return from SetConfig()
func (s *MockState) SetSetConfigError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setConfigErr = err
}

// SetGetIdentityError sets an error to return from GetIdentity()
func (s *MockState) SetGetIdentityError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getIdentityErr = err
}

// SetSaveIdentityError sets an error to return from SaveIdentity()
func (s *MockState) SetSaveIdentityError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveIdentityErr = err
}

// SetRecordRegistrationError sets an error to return from RecordRegistration()
func (s *MockState) SetRecordRegistrationError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordErr = err
}

// IdentityCount returns the number of stored identities (for testing)
func (s *MockState) IdentityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities)
}

// Verify that MockState implements StateInterface
var _ StateInterface = (*MockState)(nil)
