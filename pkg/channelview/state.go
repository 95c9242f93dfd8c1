package channelview

import (
	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/subscription"
)

// Phase is the lifecycle phase of a channel view
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading             // First poll in flight, nothing to show yet
	PhaseReady               // At least one snapshot applied
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Ordering decides which of several overlapping poll results is shown
type Ordering int

const (
	// OrderLastCompleted applies every result as it arrives, so the last
	// poll to complete wins even if it was issued earlier. A slow poll can
	// therefore replace a fresher feed with older content.
	OrderLastCompleted Ordering = iota

	// OrderLatestIssued drops results of polls issued before the one
	// currently displayed.
	OrderLatestIssued
)

func (o Ordering) String() string {
	if o == OrderLatestIssued {
		return "latest-issued"
	}
	return "last-completed"
}

// State is the view state of one channel. Values are never mutated in
// place; Reduce returns a new State.
type State struct {
	Phase    Phase
	Ordering Ordering

	// Messages of the last applied snapshot, in server order
	Messages []client.Message

	// Subscribed is true when Identity.ID is in the last applied
	// snapshot's subscriber set, or after a successful subscribe
	Subscribed  bool
	Subscribing bool

	// Identity resolved for the last applied snapshot's push key
	Identity *subscription.Identity

	// Sequence numbers of the polls whose results are displayed
	MessagesSeq uint64
	IdentitySeq uint64

	// SubscribedSeq is the newest poll issued when a subscribe succeeded.
	// Those polls may have fetched the subscriber set before the
	// registration landed.
	SubscribedSeq uint64

	// LastErr is the most recent failure, cleared by the next success
	LastErr error
}

// Event is an input to Reduce
type Event interface {
	event()
}

// PollStarted is applied when a poll is issued
type PollStarted struct {
	Seq uint64
}

// PollSucceeded carries the snapshot fetched by poll Seq
type PollSucceeded struct {
	Seq      uint64
	Snapshot client.ChannelSnapshot
}

// PollFailed is applied when poll Seq could not fetch the channel
type PollFailed struct {
	Seq uint64
	Err error
}

// IdentityResolved carries the membership computed for poll Seq's snapshot
type IdentityResolved struct {
	Seq        uint64
	Identity   subscription.Identity
	Subscribed bool
}

// IdentityFailed is applied when the local identity for poll Seq could not be resolved
type IdentityFailed struct {
	Seq uint64
	Err error
}

// SubscribeStarted is applied when the user triggers subscribe
type SubscribeStarted struct{}

// SubscribeSucceeded is applied when registration succeeded. Seq is the
// newest poll issued at that moment.
type SubscribeSucceeded struct {
	Seq uint64
}

// SubscribeFailed is applied when registration failed
type SubscribeFailed struct {
	Err error
}

func (PollStarted) event()        {}
func (PollSucceeded) event()      {}
func (PollFailed) event()         {}
func (IdentityResolved) event()   {}
func (IdentityFailed) event()     {}
func (SubscribeStarted) event()   {}
func (SubscribeSucceeded) event() {}
func (SubscribeFailed) event()    {}

// IsStale reports whether a result of poll seq must be dropped because a
// newer poll's result is already displayed.
func (s State) IsStale(seq uint64) bool {
	return s.Ordering == OrderLatestIssued && seq < s.MessagesSeq
}

// IsIdentityStale reports whether the identity result of poll seq must be
// dropped. Under OrderLatestIssued it must belong to the displayed snapshot
// or a newer one, so membership is never computed from an older push key
// and subscriber set than the feed shows.
func (s State) IsIdentityStale(seq uint64) bool {
	return s.Ordering == OrderLatestIssued && (seq < s.MessagesSeq || seq < s.IdentitySeq)
}

// Reduce applies one event to a state and returns the resulting state
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case PollStarted:
		if s.Phase == PhaseUninitialized {
			s.Phase = PhaseLoading
		}

	case PollSucceeded:
		if s.IsStale(ev.Seq) {
			return s
		}
		msgs := ev.Snapshot.Messages
		if msgs == nil {
			msgs = []client.Message{}
		}
		s.Messages = msgs
		s.MessagesSeq = ev.Seq
		s.Phase = PhaseReady
		s.LastErr = nil

	case PollFailed:
		s.LastErr = ev.Err

	case IdentityResolved:
		if s.IsIdentityStale(ev.Seq) {
			return s
		}
		subscribed := ev.Subscribed
		// A poll issued before the registration succeeded cannot see it yet
		if !subscribed && s.Subscribed && ev.Seq <= s.SubscribedSeq &&
			s.Identity != nil && s.Identity.ID == ev.Identity.ID {
			subscribed = true
		}
		id := ev.Identity
		s.Identity = &id
		s.IdentitySeq = ev.Seq
		s.Subscribed = subscribed

	case IdentityFailed:
		if s.IsIdentityStale(ev.Seq) {
			return s
		}
		s.LastErr = ev.Err

	case SubscribeStarted:
		s.Subscribing = true

	case SubscribeSucceeded:
		s.Subscribing = false
		s.Subscribed = true
		if ev.Seq > s.SubscribedSeq {
			s.SubscribedSeq = ev.Seq
		}
		s.LastErr = nil

	case SubscribeFailed:
		s.Subscribing = false
		s.LastErr = ev.Err
	}
	return s
}
