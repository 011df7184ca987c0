// Package sessiond implements the sessiond business logic.
package sessiond

import (
	"context"
	stderr "errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	cookiechannel "github.com/tabvault/sessiond/src/sessiond/controller/cookie-channel"
	"github.com/tabvault/sessiond/src/sessiond/controller/lifecycle"
	"github.com/tabvault/sessiond/src/sessiond/controller/persistence"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/gateway/policy"
	"github.com/tabvault/sessiond/src/sessiond/gateway/units"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/internal/initguard"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"github.com/tabvault/sessiond/src/sessiond/repository/session"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=sessiondmock/sessiond_mock.go -package=sessiondmock . Controller

// Controller orchestrates the business logic for each request.
type Controller interface {
	// Ready triggers initialization if it has not run yet and waits for it to finish.
	Ready(ctx context.Context) error

	// Session methods.
	Create(ctx context.Context, params *CreateParams) (*SessionResult, error)
	ListActive(ctx context.Context) (*ListResult, error)
	ListDormant(ctx context.Context) (*ListResult, error)
	ResolveForUnit(ctx context.Context, params *UnitParams) (*SessionResult, error)
	Delete(ctx context.Context, params *SessionParams) (*DeleteResult, error)
	Restore(ctx context.Context, params *SessionParams) (*RestoreResult, error)

	// Cookie methods.
	CookiesRead(ctx context.Context, params *CookieReadParams) (*CookieReadResult, error)
	CookiesWrite(ctx context.Context, params *CookieWriteParams) (*OKResult, error)
	CookieMessage(ctx context.Context, msg *cookiechannel.Message) error

	// Unit methods.
	SwitchTo(ctx context.Context, params *UnitParams) (*OKResult, error)
	UnitAttached(ctx context.Context, params *UnitEventParams) (*SessionResult, error)
	UnitUpdated(ctx context.Context, params *UnitEventParams) (*OKResult, error)
	UnitDetached(ctx context.Context, params *UnitParams) (*DetachResult, error)

	// Storage methods.
	CloseDurableHandle(ctx context.Context) (*OKResult, error)
	Stats(ctx context.Context) (*StatsResult, error)
	Wipe(ctx context.Context) (*WipeResult, error)
	GetPreferences(ctx context.Context) (*PreferencesResult, error)
	SetPreferences(ctx context.Context, params *PreferencesParams) (*PreferencesResult, error)

	// Lifecycle methods.
	VersionUpdated(ctx context.Context) (*VersionUpdatedResult, error)
	InitSession(ctx context.Context, conn jsonrpc2.Conn) (uuid.UUID, error)
	EndSession(ctx context.Context, id uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Sessions  session.Repository
	Sync      persistence.Synchronizer
	Manager   lifecycle.Manager
	Cookies   cookiechannel.Registry
	Policy    policy.Provider
	Units     units.Gateway
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Clock     clock.Clock
}

type controller struct {
	sessions session.Repository
	sync     persistence.Synchronizer
	manager  lifecycle.Manager
	cookies  cookiechannel.Registry
	policy   policy.Provider
	units    units.Gateway
	logger   *zap.SugaredLogger
	stats    tally.Scope
	clock    clock.Clock

	guard initguard.Guard
	// rootCtx parents background work that outlives a request.
	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu           sync.Mutex
	lastRecovery *lifecycle.RecoveryReport
}

// New constructs a new top-level controller for the service. Initialization starts in the
// background when the application starts.
func New(p Params) (Controller, error) {
	c := newController(p)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.background(func(ctx context.Context) {
				if err := c.guard.Do(ctx); err != nil {
					c.logger.Errorf("initialization failed: %v", err)
				}
			})
			return nil
		},
		OnStop: c.stop,
	})
	return c, nil
}

func newController(p Params) *controller {
	rootCtx, cancel := context.WithCancel(context.Background())
	c := &controller{
		sessions: p.Sessions,
		sync:     p.Sync,
		manager:  p.Manager,
		cookies:  p.Cookies,
		policy:   p.Policy,
		units:    p.Units,
		logger:   p.Logger,
		stats:    p.Stats.SubScope("controller"),
		clock:    p.Clock,
		rootCtx:  rootCtx,
		cancel:   cancel,
	}
	c.guard = initguard.New(c.initialize)
	return c
}

// initialize loads persisted sessions into the index and runs crash recovery. It runs once
// per process, whichever trigger fires first.
func (c *controller) initialize(ctx context.Context) error {
	start := c.clock.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(c.rootCtx, cancel)()

	records, err := c.sync.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted sessions: %w", err)
	}
	loaded := make([]*entity.Session, 0, len(records))
	for _, r := range records {
		loaded = append(loaded, mapper.RecordToSession(r))
	}
	c.sessions.Load(ctx, loaded)
	c.logger.Infow("persisted sessions loaded", "count", len(loaded))

	report, err := c.manager.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recovering sessions: %w", err)
	}

	c.mu.Lock()
	c.lastRecovery = report
	c.mu.Unlock()

	c.stats.Timer("init_latency").Record(c.clock.Since(start))
	c.logger.Infow("initialization complete",
		"attached", report.Attached,
		"preserved", len(report.Classification.Preserved),
		"recovered", len(report.Classification.Recovered),
		"deleted", len(report.Deleted),
		"restored", len(report.Restored),
	)
	return nil
}

func (c *controller) Ready(ctx context.Context) error {
	if err := c.guard.Do(ctx); err != nil {
		if stderr.Is(err, errors.ErrReentrantInit) {
			return nil
		}
		return fmt.Errorf("initialization: %w", err)
	}
	return nil
}

// background runs fn on a tracked goroutine that stop waits for.
func (c *controller) background(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(c.rootCtx)
	}()
}

func (c *controller) stop(ctx context.Context) error {
	c.cancel()
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := c.guard.Wait(ctx); err != nil && !stderr.Is(err, context.Canceled) {
		c.logger.Warnf("initialization ended with error during shutdown: %v", err)
	}
	return nil
}

// checkIndex rebuilds the index from storage when err reports that it is inconsistent.
func (c *controller) checkIndex(ctx context.Context, err error) {
	var inconsistent *errors.IndexInconsistencyError
	if !stderr.As(err, &inconsistent) {
		return
	}
	c.stats.Counter("index_rebuilds").Inc(1)
	c.logger.Errorw("session index inconsistent, rebuilding from storage", zap.Error(err))

	if err := c.sync.Flush(ctx); err != nil {
		c.logger.Warnw("flushing before rebuild", zap.Error(err))
	}
	records, loadErr := c.sync.LoadAll(ctx)
	if loadErr != nil {
		c.logger.Errorw("rebuilding session index", zap.Error(loadErr))
		return
	}
	sessions := make([]*entity.Session, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, mapper.RecordToSession(r))
	}
	if dropped := c.sessions.Rebuild(ctx, sessions); len(dropped) > 0 {
		c.logger.Warnw("units dropped during rebuild", "units", dropped)
		for _, id := range dropped {
			c.cookies.Drop(id)
		}
	}
}
