package client

import (
	"context"
)

// ChannelSource defines the read side of the notify API used by the channel view.
// The real API implements it; tests substitute MockSource.
type ChannelSource interface {
	// FetchChannel returns a fresh snapshot of the channel. Errors wrap
	// ErrNetwork or ErrNotFound.
	FetchChannel(ctx context.Context, channelID string) (ChannelSnapshot, error)

	// PreviewImageURL returns the location of the channel's QR code image.
	PreviewImageURL(channelID string) string
}

// Registrar submits a device push subscription for a channel.
type Registrar interface {
	RegisterSubscription(ctx context.Context, channelID string, req SubscribeRequest) error
}

// StateInterface defines the interface for client state persistence
// This allows for mocking in tests while the real State implements all these methods
type StateInterface interface {
	// Configuration
	GetConfig(key string) (string, error)
	SetConfig(key, value string) error

	// Endpoint of the channel created by `register`
	GetEndpoint() string
	SetEndpoint(endpoint string) error

	// Device identities, one per channel push key
	GetIdentity(pushKey string) (*IdentityRecord, error)
	SaveIdentity(record IdentityRecord) error

	// Subscriptions this device registered
	RecordRegistration(reg Registration) error
	ListRegistrations() ([]Registration, error)

	// State directory
	GetStateDir() string

	// Close the state
	Close() error
}
