package cookiechannel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/gateway/units"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/repository/session"
	"github.com/uber-go/tally"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _configKey = "cookies"

// Module provides the channel Registry.
var Module = fx.Provide(NewRegistry)

// Config tunes every channel created by the Registry.
type Config struct {
	TimeoutMs   int `yaml:"timeoutMs"`
	FreshnessMs int `yaml:"freshnessMs"`
}

// Registry owns one Channel per unit, wired to an in-process Responder, and the Responder
// that answers the remote client's cookies/message notifications.
type Registry interface {
	// Channel returns the unit's channel, replacing it when the unit navigated to another URL.
	Channel(ctx context.Context, unitID entity.UnitID, rawURL string) (*Channel, error)
	// Drop closes and forgets the unit's channel.
	Drop(unitID entity.UnitID)
	// Deliver hands an inbound cookies/message notification to the remote Responder.
	Deliver(ctx context.Context, m *Message) error
	// Len returns the number of open channels.
	Len() int
	Close(ctx context.Context) error
}

// Params are inbound parameters to initialize a new Registry.
type Params struct {
	fx.In

	Sessions  session.Repository
	Units     units.Gateway
	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Clock     clock.Clock
}

type entry struct {
	ch   *Channel
	link *LocalTransport
}

type registry struct {
	responder *Responder
	remote    *RemoteTransport
	opts      Options
	logger    *zap.SugaredLogger

	mu       sync.Mutex
	channels map[entity.UnitID]*entry
}

// NewRegistry creates the Registry and closes its channels on stop.
func NewRegistry(p Params) (Registry, error) {
	var cfg Config
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}

	logger := p.Logger.With("component", "cookie-channel")
	r := &registry{
		responder: NewResponder(p.Sessions, p.Clock, logger, p.Stats),
		remote:    NewRemoteTransport(p.Units),
		opts: Options{
			Timeout:   time.Duration(cfg.TimeoutMs) * time.Millisecond,
			Freshness: time.Duration(cfg.FreshnessMs) * time.Millisecond,
			Clock:     p.Clock,
			Logger:    logger,
			Stats:     p.Stats,
		},
		logger:   logger,
		channels: make(map[entity.UnitID]*entry),
	}
	r.responder.Serve(r.remote)

	p.Lifecycle.Append(fx.Hook{
		OnStop: r.Close,
	})
	return r, nil
}

func (r *registry) Channel(ctx context.Context, unitID entity.UnitID, rawURL string) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.channels[unitID]; ok {
		if e.ch.URL() == rawURL {
			return e.ch, nil
		}
		e.close()
		delete(r.channels, unitID)
	}

	pageEnd, storeEnd := NewLocalPair()
	r.responder.Serve(storeEnd)
	ch, err := New(unitID, rawURL, pageEnd, r.opts)
	if err != nil {
		pageEnd.Close()
		return nil, err
	}
	r.channels[unitID] = &entry{ch: ch, link: pageEnd}
	return ch, nil
}

func (r *registry) Drop(unitID entity.UnitID) {
	r.mu.Lock()
	e, ok := r.channels[unitID]
	delete(r.channels, unitID)
	r.mu.Unlock()
	if ok {
		e.close()
	}
}

func (r *registry) Deliver(ctx context.Context, m *Message) error {
	return r.remote.Deliver(ctx, m)
}

func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

func (r *registry) Close(ctx context.Context) error {
	r.mu.Lock()
	channels := r.channels
	r.channels = make(map[entity.UnitID]*entry)
	r.mu.Unlock()

	for _, e := range channels {
		e.close()
	}
	if len(channels) > 0 {
		r.logger.Infow("closed cookie channels", "count", len(channels))
	}
	return nil
}

func (e *entry) close() {
	e.ch.Close()
	e.link.Close()
}
