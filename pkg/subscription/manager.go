// Package subscription owns the device side of channel push subscriptions:
// a per-push-key identity and its registration with a channel.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/client/crypto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrIdentity     = errors.New("device identity unavailable")
	ErrRegistration = errors.New("subscription registration failed")
)

// subscriptionNamespace scopes subscription ids derived from device public keys
var subscriptionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://notify.run/subscription"))

// Identity is the device identity used for one channel push key
type Identity struct {
	ID        string
	PushKey   string
	PublicKey []byte
}

// Manager resolves the local identity for one push key and registers it
// with channels.
type Manager interface {
	// LocalIdentity creates or retrieves the persisted identity. Errors wrap ErrIdentity.
	LocalIdentity(ctx context.Context) (Identity, error)

	// Register subscribes this device to a channel. Errors wrap ErrRegistration.
	Register(ctx context.Context, channelID string) error

	// PushKey returns the push key this manager was built for
	PushKey() string
}

// Factory builds the Manager for a push key
type Factory func(pushKey string) Manager

// SubscriptionID derives the stable subscription id for a device public key
func SubscriptionID(publicKey []byte) string {
	return uuid.NewSHA1(subscriptionNamespace, publicKey).String()
}

// NewFactory returns a Factory producing DeviceManagers that share storage
func NewFactory(state client.StateInterface, registrar client.Registrar, logger zerolog.Logger) Factory {
	keys := crypto.NewKeyStore(state.GetStateDir())
	return func(pushKey string) Manager {
		return NewDeviceManager(pushKey, state, keys, registrar, logger)
	}
}

// DeviceManager is the Manager backed by the local key store and client state
type DeviceManager struct {
	pushKey   string
	state     client.StateInterface
	keys      *crypto.KeyStore
	registrar client.Registrar
	logger    zerolog.Logger

	mu       sync.Mutex
	identity *Identity
	keyPair  *crypto.X25519KeyPair
}

// NewDeviceManager creates a manager for one push key
func NewDeviceManager(pushKey string, state client.StateInterface, keys *crypto.KeyStore, registrar client.Registrar, logger zerolog.Logger) *DeviceManager {
	return &DeviceManager{
		pushKey:   pushKey,
		state:     state,
		keys:      keys,
		registrar: registrar,
		logger: logger.With().
			Str("component", "subscription").
			Str("push_key", crypto.PushKeyFingerprint(pushKey)).
			Logger(),
	}
}

// PushKey returns the push key this manager was built for
func (m *DeviceManager) PushKey() string {
	return m.pushKey
}

// LocalIdentity loads or creates the device key pair for the push key and
// returns the identity derived from it. The result is cached.
func (m *DeviceManager) LocalIdentity(ctx context.Context) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity != nil {
		return *m.identity, nil
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrIdentity, err)
	}

	kp, generated, err := m.keys.LoadOrGenerateKey(m.pushKey)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrIdentity, err)
	}

	id := SubscriptionID(kp.PublicKey[:])

	rec, err := m.state.GetIdentity(m.pushKey)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: failed to read identity: %w", ErrIdentity, err)
	}
	if rec == nil || rec.SubscriptionID != id {
		if rec != nil {
			m.logger.Warn().Str("stored_id", rec.SubscriptionID).Str("id", id).Msg("stored identity does not match device key, replacing")
		}
		err := m.state.SaveIdentity(client.IdentityRecord{
			PushKey:        m.pushKey,
			SubscriptionID: id,
			PublicKey:      append([]byte(nil), kp.PublicKey[:]...),
		})
		if err != nil {
			return Identity{}, fmt.Errorf("%w: failed to save identity: %w", ErrIdentity, err)
		}
	}

	m.logger.Debug().Str("id", id).Bool("generated", generated).Msg("local identity resolved")

	m.keyPair = kp
	m.identity = &Identity{
		ID:        id,
		PushKey:   m.pushKey,
		PublicKey: append([]byte(nil), kp.PublicKey[:]...),
	}
	return *m.identity, nil
}

// Register submits this device's subscription for a channel and records it locally
func (m *DeviceManager) Register(ctx context.Context, channelID string) error {
	identity, err := m.LocalIdentity(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	m.mu.Lock()
	privateKey := m.keyPair.PrivateKey
	m.mu.Unlock()

	auth, err := crypto.DeriveAuthSecret(privateKey[:], m.pushKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	req := client.SubscribeRequest{
		ID: identity.ID,
		Subscription: client.PushSubscription{
			Keys: client.SubscriptionKeys{
				P256dh: crypto.EncodeKey(identity.PublicKey),
				Auth:   crypto.EncodeKey(auth),
			},
		},
	}
	if err := m.registrar.RegisterSubscription(ctx, channelID, req); err != nil {
		return fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	if err := m.state.RecordRegistration(client.Registration{
		ChannelID:      channelID,
		SubscriptionID: identity.ID,
	}); err != nil {
		m.logger.Warn().Err(err).Str("channel", channelID).Msg("failed to record registration")
	}

	m.logger.Info().Str("channel", channelID).Str("id", identity.ID).Msg("subscribed")
	return nil
}

// Verify that DeviceManager implements Manager
var _ Manager = (*DeviceManager)(nil)
