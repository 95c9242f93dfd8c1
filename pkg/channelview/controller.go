// Package channelview keeps the view of one notification channel in sync
// with the server: it polls the channel, works out whether this device is
// subscribed and registers the device on request.
package channelview

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/subscription"
	"github.com/rs/zerolog"
)

const (
	DefaultPollInterval = 30 * time.Second

	// updateBufferSize is how many state updates are kept for a slow reader
	updateBufferSize = 16
	errorBufferSize  = 16
)

var (
	ErrAlreadyActive      = errors.New("channel view already active")
	ErrDeactivated        = errors.New("channel view deactivated")
	ErrIdentityUnresolved = errors.New("device identity not resolved yet")
)

// LinkBuilder produces the presentation links of a channel. *client.API
// implements it.
type LinkBuilder interface {
	EndpointURL(channelID string) string
	WebLink(channelID string) string
}

// Links are the strings shown next to the feed
type Links struct {
	Endpoint     string // URL messages are posted to
	WebLink      string // channel page for subscribing other devices
	PreviewImage string // QR code image of the channel
}

// Config holds controller configuration
type Config struct {
	// PollInterval between channel fetches (default 30s)
	PollInterval time.Duration

	// Ordering of overlapping poll results (default OrderLastCompleted)
	Ordering Ordering

	// RequestTimeout bounds each fetch, identity lookup and registration (0 = none)
	RequestTimeout time.Duration

	// VerifyAfterSubscribe polls the channel again after a successful subscribe
	VerifyAfterSubscribe bool

	// Links builds the endpoint and web links. If nil the source is used
	// when it implements LinkBuilder, otherwise the public notify.run servers.
	Links LinkBuilder

	Logger  zerolog.Logger
	Metrics *Metrics
}

// SetDefaults fills in unset values
func (c *Config) SetDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// Controller owns the view state of one channel. All state changes go
// through Reduce under one mutex, and nothing is applied once the
// controller has been deactivated.
type Controller struct {
	channelID string
	source    client.ChannelSource
	managers  subscription.Factory
	config    Config
	links     LinkBuilder
	logger    zerolog.Logger

	mu     sync.Mutex
	state  State
	active bool
	done   bool
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc

	// Manager for the most recently seen push key
	pushKey string
	manager subscription.Manager

	// Manager that resolved state.Identity; Subscribe registers through it
	identityManager subscription.Manager

	updates chan State
	errs    chan error
}

// New creates a controller for a channel. It does nothing until Activate.
func New(channelID string, source client.ChannelSource, managers subscription.Factory, config Config) *Controller {
	config.SetDefaults()

	links := config.Links
	if links == nil {
		if lb, ok := source.(LinkBuilder); ok {
			links = lb
		} else {
			links = defaultLinks{}
		}
	}

	return &Controller{
		channelID: channelID,
		source:    source,
		managers:  managers,
		config:    config,
		links:     links,
		logger:    config.Logger.With().Str("component", "channelview").Str("channel", channelID).Logger(),
		state:     State{Ordering: config.Ordering, Messages: []client.Message{}},
		updates:   make(chan State, updateBufferSize),
		errs:      make(chan error, errorBufferSize),
	}
}

// ChannelID returns the channel this controller views
func (c *Controller) ChannelID() string {
	return c.channelID
}

// Activate issues the first poll and starts polling every PollInterval
// until Deactivate or ctx is done.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return ErrDeactivated
	}
	if c.active {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.active = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	runCtx := c.ctx
	c.mu.Unlock()

	c.logger.Info().Dur("interval", c.config.PollInterval).Str("ordering", c.config.Ordering.String()).Msg("channel view activated")

	c.Refresh()
	go c.run(runCtx)
	return nil
}

// run fires a poll on every tick whether or not the previous one finished
func (c *Controller) run(ctx context.Context) {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh()
		}
	}
}

// Deactivate stops polling and freezes the state. Results of requests
// still in flight are discarded. The Updates and Errors channels are
// closed. Safe to call more than once.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return
	}
	c.done = true
	c.active = false
	if c.cancel != nil {
		c.cancel()
	}
	close(c.updates)
	close(c.errs)

	c.logger.Info().Msg("channel view deactivated")
}

// Refresh issues a poll now. It does nothing unless the controller is active.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	ctx := c.ctx
	c.apply(PollStarted{Seq: seq})
	c.mu.Unlock()

	go c.poll(ctx, seq)
}

// poll fetches the channel and resolves the subscription status against
// the same snapshot
func (c *Controller) poll(ctx context.Context, seq uint64) {
	fetchCtx, cancel := c.requestContext(ctx)
	start := time.Now()
	snap, err := c.source.FetchChannel(fetchCtx, c.channelID)
	cancel()
	c.config.Metrics.observePoll(err, time.Since(start))

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.logger.Warn().Err(err).Uint64("seq", seq).Msg("poll failed")
		c.apply(PollFailed{Seq: seq, Err: err})
		c.report(err)
		c.mu.Unlock()
		return
	}
	if c.state.IsStale(seq) {
		c.logger.Debug().Uint64("seq", seq).Uint64("shown", c.state.MessagesSeq).Msg("discarding stale poll")
		c.config.Metrics.observeStale()
		c.mu.Unlock()
		return
	}
	c.apply(PollSucceeded{Seq: seq, Snapshot: snap})
	manager := c.managerFor(snap.PushKey)
	c.mu.Unlock()

	idCtx, cancel := c.requestContext(ctx)
	identity, err := manager.LocalIdentity(idCtx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return
	}
	if c.state.IsIdentityStale(seq) {
		c.logger.Debug().Uint64("seq", seq).Uint64("shown", c.state.MessagesSeq).Msg("discarding stale identity")
		c.config.Metrics.observeStale()
		return
	}
	if err != nil {
		c.logger.Warn().Err(err).Uint64("seq", seq).Msg("failed to resolve local identity")
		c.apply(IdentityFailed{Seq: seq, Err: err})
		c.report(err)
		return
	}

	c.apply(IdentityResolved{
		Seq:        seq,
		Identity:   identity,
		Subscribed: snap.HasSubscriber(identity.ID),
	})
	if c.state.IdentitySeq == seq {
		c.identityManager = manager
	}
}

// managerFor returns the manager for pushKey, replacing the current one
// when the key changed. Caller holds mu.
func (c *Controller) managerFor(pushKey string) subscription.Manager {
	if c.manager != nil && c.pushKey == pushKey {
		return c.manager
	}
	if c.manager != nil {
		c.logger.Info().Msg("channel push key changed, new device identity required")
	}
	c.pushKey = pushKey
	c.manager = c.managers(pushKey)
	return c.manager
}

// Subscribe registers this device with the channel through the manager
// that resolved the current identity. On success the view is marked
// subscribed without asking the server again unless VerifyAfterSubscribe
// is set. Polls issued before the registration returned do not clear the
// flag; the first poll issued after it decides. It is a no-op while
// subscribed or while a registration is in flight.
func (c *Controller) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return ErrDeactivated
	}
	if c.state.Subscribed || c.state.Subscribing {
		c.mu.Unlock()
		return nil
	}
	if c.state.Identity == nil || c.identityManager == nil {
		c.report(ErrIdentityUnresolved)
		c.mu.Unlock()
		return ErrIdentityUnresolved
	}
	manager := c.identityManager
	c.apply(SubscribeStarted{})
	c.mu.Unlock()

	regCtx, cancel := c.requestContext(ctx)
	err := manager.Register(regCtx, c.channelID)
	cancel()
	c.config.Metrics.observeSubscribe(err)

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("subscribe failed")
		c.apply(SubscribeFailed{Err: err})
		c.report(err)
		c.mu.Unlock()
		return err
	}
	c.apply(SubscribeSucceeded{Seq: c.seq})
	c.mu.Unlock()

	if c.config.VerifyAfterSubscribe {
		c.Refresh()
	}
	return nil
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates delivers every new state. When the reader falls behind the
// oldest pending state is dropped; the newest is always delivered.
func (c *Controller) Updates() <-chan State {
	return c.updates
}

// Errors delivers poll, identity and subscribe failures. Errors are
// dropped when nobody reads them.
func (c *Controller) Errors() <-chan error {
	return c.errs
}

// Links returns the presentation links of the channel
func (c *Controller) Links() Links {
	return Links{
		Endpoint:     c.links.EndpointURL(c.channelID),
		WebLink:      c.links.WebLink(c.channelID),
		PreviewImage: c.source.PreviewImageURL(c.channelID),
	}
}

// apply reduces ev into the state and publishes the result. Caller holds mu.
func (c *Controller) apply(ev Event) {
	c.state = Reduce(c.state, ev)
	c.config.Metrics.setSubscribed(c.state.Subscribed)

	for {
		select {
		case c.updates <- c.state:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

// report sends err on the error channel if there is room. Caller holds mu.
func (c *Controller) report(err error) {
	if c.done {
		return
	}
	select {
	case c.errs <- err:
	default:
		c.logger.Debug().Err(err).Msg("error channel full, dropping error")
	}
}

func (c *Controller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.RequestTimeout > 0 {
		return context.WithTimeout(ctx, c.config.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

type defaultLinks struct{}

func (defaultLinks) EndpointURL(channelID string) string {
	return client.DefaultAPIServer + "/" + url.PathEscape(channelID)
}

func (defaultLinks) WebLink(channelID string) string {
	return client.DefaultWebServer + "/c/" + url.PathEscape(channelID)
}
