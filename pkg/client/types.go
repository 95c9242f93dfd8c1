package client

import "time"

// Message is one entry of a channel feed. Time is already formatted for display.
type Message struct {
	Message string `json:"message"`
	Time    string `json:"time"`
}

// ChannelSnapshot is one read of a channel's server-side state.
type ChannelSnapshot struct {
	Messages      []Message `json:"messages"`
	Subscriptions []string  `json:"subscriptions"`
	PushKey       string    `json:"pubKey"`
}

// HasSubscriber reports whether id is in the snapshot's subscriber set.
func (s ChannelSnapshot) HasSubscriber(id string) bool {
	if id == "" {
		return false
	}
	for _, sub := range s.Subscriptions {
		if sub == id {
			return true
		}
	}
	return false
}

// EndpointInfo describes a registered channel
type EndpointInfo struct {
	ChannelID   string `json:"channelId"`
	Endpoint    string `json:"endpoint"`
	ChannelPage string `json:"channel_page"`
}

// SubscriptionKeys carries the device key material of a push subscription
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is the subscription body stored by the server
type PushSubscription struct {
	Keys SubscriptionKeys `json:"keys"`
}

// SubscribeRequest is the body of POST /<channel>/subscribe
type SubscribeRequest struct {
	ID           string           `json:"id"`
	Subscription PushSubscription `json:"subscription"`
}

// IdentityRecord is a persisted device identity for one push key
type IdentityRecord struct {
	PushKey        string
	SubscriptionID string
	PublicKey      []byte
	CreatedAt      time.Time
}

// Registration records a successful subscribe from this device
type Registration struct {
	ChannelID      string
	SubscriptionID string
	RegisteredAt   time.Time
}
