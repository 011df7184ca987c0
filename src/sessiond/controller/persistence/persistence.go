// Package persistence mirrors session index mutations into every storage layer and owns the
// verified delete protocol.
package persistence

import (
	"context"
	stderr "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/eapache/queue"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage"
	"github.com/tabvault/sessiond/src/sessiond/model"
	"github.com/uber-go/tally"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -destination=persistencemock/persistence_mock.go -package=persistencemock . Synchronizer

const (
	_configKey = "storage.sync"

	_defaultInitialInterval = 50 * time.Millisecond
	_defaultMaxInterval     = time.Second
	_defaultMaxRetries      = 5
	_defaultCommitWait      = 2 * time.Second
	_commitPollInterval     = 50 * time.Millisecond
)

// Synchronizer is the write-through bridge between the session index and the storage layers.
type Synchronizer interface {
	// Enqueue schedules r for writing to every layer. It never blocks on I/O.
	Enqueue(r *model.Record)
	// DeleteSession runs the verified delete protocol for id after any pending write for id.
	DeleteSession(ctx context.Context, id string) DeleteReport
	// CloseDurableHandle releases the handle of every durable layer. It is reopened on next access.
	CloseDurableHandle(ctx context.Context) error
	// Wipe clears every layer that supports it.
	Wipe(ctx context.Context) WipeReport
	// LoadAll reads every persisted record, preferring durable layers.
	LoadAll(ctx context.Context) ([]*model.Record, error)
	// Stats returns the record count of every layer.
	Stats(ctx context.Context) []LayerCount
	// Flush waits until every queued write has been applied.
	Flush(ctx context.Context) error
	// Close stops accepting writes and flushes the queues.
	Close(ctx context.Context) error

	GetPreference(ctx context.Context, key string) (entity.Preference, error)
	SetPreference(ctx context.Context, key string, p entity.Preference) error
}

// Config tunes the synchronizer.
type Config struct {
	InitialIntervalMs int    `yaml:"initialIntervalMs"`
	MaxIntervalMs     int    `yaml:"maxIntervalMs"`
	MaxRetries        uint64 `yaml:"maxRetries"`
	// CommitWaitMs bounds how long a delete that was only accepted is polled for commit.
	CommitWaitMs int `yaml:"commitWaitMs"`
	// CompactOnEmpty wipes the durable store after a delete leaves it without records.
	CompactOnEmpty bool `yaml:"compactOnEmpty"`
}

// Params are inbound parameters to initialize a new Synchronizer.
type Params struct {
	fx.In

	Layers    []storage.Layer `group:"layers"`
	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Clock     clock.Clock
}

type job struct {
	record *model.Record
	delete *deleteJob
}

type deleteJob struct {
	id     string
	result chan DeleteReport
}

type synchronizer struct {
	layers []storage.Layer
	cfg    Config
	logger *zap.SugaredLogger
	stats  tally.Scope
	clock  clock.Clock

	// ctx outlives callers: queued work is not tied to the request that enqueued it.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queues map[string]*queue.Queue
	idle   chan struct{}
	closed bool
}

// New creates the synchronizer. Durable layers are ordered before volatile ones so reads and
// deletes reach the durable tier first.
func New(p Params) (Synchronizer, error) {
	var cfg Config
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}
	s, err := newSynchronizer(p.Layers, cfg, p.Logger, p.Stats, p.Clock)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: s.Close,
	})
	return s, nil
}

func newSynchronizer(layers []storage.Layer, cfg Config, logger *zap.SugaredLogger, stats tally.Scope, c clock.Clock) (*synchronizer, error) {
	var hasDurable, hasVolatile bool
	for _, l := range layers {
		switch l.Tier() {
		case storage.TierDurable:
			hasDurable = true
		case storage.TierVolatile:
			hasVolatile = true
		}
	}
	if !hasDurable || !hasVolatile {
		return nil, fmt.Errorf("at least one durable and one volatile layer are required, got %d layers", len(layers))
	}

	ordered := append([]storage.Layer{}, layers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tier() > ordered[j].Tier()
	})

	if cfg.InitialIntervalMs <= 0 {
		cfg.InitialIntervalMs = int(_defaultInitialInterval / time.Millisecond)
	}
	if cfg.MaxIntervalMs <= 0 {
		cfg.MaxIntervalMs = int(_defaultMaxInterval / time.Millisecond)
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = _defaultMaxRetries
	}
	if cfg.CommitWaitMs <= 0 {
		cfg.CommitWaitMs = int(_defaultCommitWait / time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &synchronizer{
		layers: ordered,
		cfg:    cfg,
		logger: logger.With("component", "persistence"),
		stats:  stats.SubScope("persistence"),
		clock:  c,
		ctx:    ctx,
		cancel: cancel,
		queues: make(map[string]*queue.Queue),
	}, nil
}

func (s *synchronizer) Enqueue(r *model.Record) {
	if r == nil {
		return
	}
	if !s.submit(r.ID, &job{record: r}) {
		s.stats.Counter("dropped_writes").Inc(1)
		s.logger.Warnw("write dropped after close", "session", r.ID)
	}
}

// submit appends j to the queue of key, starting a drain goroutine when the key was idle.
func (s *synchronizer) submit(key string, j *job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	q, ok := s.queues[key]
	if !ok {
		q = queue.New()
		s.queues[key] = q
		if len(s.queues) == 1 {
			s.idle = make(chan struct{})
		}
		go s.drain(key, q)
	}
	q.Add(j)
	s.stats.Gauge("busy_keys").Update(float64(len(s.queues)))
	return true
}

func (s *synchronizer) drain(key string, q *queue.Queue) {
	for {
		s.mu.Lock()
		if q.Length() == 0 {
			delete(s.queues, key)
			if len(s.queues) == 0 {
				close(s.idle)
			}
			s.stats.Gauge("busy_keys").Update(float64(len(s.queues)))
			s.mu.Unlock()
			return
		}
		j := q.Remove().(*job)
		// A newer snapshot of the same record supersedes this one.
		superseded := j.record != nil && q.Length() > 0 && q.Peek().(*job).record != nil
		s.mu.Unlock()

		switch {
		case superseded:
			s.stats.Counter("coalesced_writes").Inc(1)
		case j.record != nil:
			s.write(s.ctx, j.record)
		case j.delete != nil:
			j.delete.result <- s.runDelete(s.ctx, j.delete.id)
		}
	}
}

// write fans the record out to every layer. Failures are retried, then logged and counted.
func (s *synchronizer) write(ctx context.Context, r *model.Record) {
	var g errgroup.Group
	for _, l := range s.layers {
		l := l
		g.Go(func() error {
			err := s.retry(ctx, func() error { return l.Put(ctx, r) })
			if err != nil {
				s.stats.Tagged(map[string]string{"layer": l.Name()}).Counter("write_errors").Inc(1)
				s.logger.Errorw("writing session record", "layer", l.Name(), "session", r.ID, zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	s.stats.Counter("writes").Inc(1)
}

// retry runs op with bounded exponential backoff. Only TransientIOError is retried.
func (s *synchronizer) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(s.cfg.InitialIntervalMs) * time.Millisecond
	b.MaxInterval = time.Duration(s.cfg.MaxIntervalMs) * time.Millisecond
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := op()
		var transient *errors.TransientIOError
		if err != nil && !stderr.As(err, &transient) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, s.cfg.MaxRetries), ctx))
}

func (s *synchronizer) CloseDurableHandle(ctx context.Context) error {
	var errs error
	for _, l := range s.layers {
		if h, ok := l.(storage.Handle); ok {
			errs = multierr.Append(errs, h.Close(ctx))
		}
	}
	return errs
}

func (s *synchronizer) LoadAll(ctx context.Context) ([]*model.Record, error) {
	var errs error
	for _, tier := range []storage.Tier{storage.TierDurable, storage.TierVolatile} {
		for _, l := range s.layers {
			if l.Tier() != tier {
				continue
			}
			var records []*model.Record
			err := s.retry(ctx, func() error {
				var err error
				records, err = l.List(ctx)
				return err
			})
			if err == nil {
				if errs != nil {
					s.logger.Warnw("loaded sessions from fallback layer", "layer", l.Name(), zap.Error(errs))
				}
				return records, nil
			}
			errs = multierr.Append(errs, fmt.Errorf("listing %s: %w", l.Name(), err))
		}
	}
	return nil, errs
}

// LayerCount is the number of records held by a layer.
type LayerCount struct {
	Layer string `json:"layer"`
	Tier  string `json:"tier"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

func (s *synchronizer) Stats(ctx context.Context) []LayerCount {
	out := make([]LayerCount, len(s.layers))
	var g errgroup.Group
	for i, l := range s.layers {
		i, l := i, l
		g.Go(func() error {
			out[i] = LayerCount{Layer: l.Name(), Tier: l.Tier().String()}
			n, err := l.Count(ctx)
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].Count = n
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *synchronizer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.queues) == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *synchronizer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	err := s.Flush(ctx)
	s.cancel()
	return err
}

func (s *synchronizer) GetPreference(ctx context.Context, key string) (entity.Preference, error) {
	ps, ok := s.preferenceStore()
	if !ok {
		return entity.PreferenceUnset, nil
	}
	return ps.GetPreference(ctx, key)
}

func (s *synchronizer) SetPreference(ctx context.Context, key string, p entity.Preference) error {
	ps, ok := s.preferenceStore()
	if !ok {
		return errors.New("no layer stores preferences")
	}
	return s.retry(ctx, func() error { return ps.SetPreference(ctx, key, p) })
}

func (s *synchronizer) preferenceStore() (storage.PreferenceStore, bool) {
	for _, l := range s.layers {
		if ps, ok := l.(storage.PreferenceStore); ok {
			return ps, true
		}
	}
	return nil, false
}
