// Package lifecycle decides session state transitions: graceful dormancy, restart-time
// classification of orphaned sessions, and restoration of dormant sessions.
package lifecycle

import (
	"context"
	stderr "errors"
	"fmt"
	"time"

	"github.com/tabvault/sessiond/src/sessiond/controller/persistence"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/gateway/policy"
	"github.com/tabvault/sessiond/src/sessiond/gateway/units"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/repository/session"
	"github.com/uber-go/tally"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKey = "lifecycle"

	_defaultFreshnessWindow = 60 * time.Second
	_defaultClientWait      = 3 * time.Second
	_defaultClientCall      = 5 * time.Second
)

//go:generate mockgen -destination=lifecyclemock/lifecycle_mock.go -package=lifecyclemock . Manager

// Module provides the lifecycle Manager.
var Module = fx.Provide(New)

// Manager drives session state transitions.
type Manager interface {
	// Detach removes a unit from its session. When that empties the session it becomes dormant
	// with a snapshot of its units, or is deleted when the policy is in ephemeral mode.
	Detach(ctx context.Context, unitID entity.UnitID) (*DetachOutcome, error)
	// Attach maps a unit into a session. A unit moved out of a session it leaves empty settles
	// that session the way Detach does.
	Attach(ctx context.Context, unitID entity.UnitID, id entity.SessionID, meta entity.UnitMeta) (*AttachOutcome, error)
	// Recover rebuilds unit membership after a restart, classifies every session left without
	// units, deletes the ephemeral ones and auto-restores dormant sessions when allowed.
	Recover(ctx context.Context) (*RecoveryReport, error)
	// Reconcile attributes the units currently open in the client to loaded sessions.
	Reconcile(ctx context.Context) (int, error)
	// Classify sorts every session without units into preserved, recovered and ephemeral.
	// Recovered sessions are marked dormant with an empty unit list. Nothing is deleted.
	Classify(ctx context.Context) Classification
	// DeleteEphemeral removes the given sessions from the index and every storage layer.
	DeleteEphemeral(ctx context.Context, ids []entity.SessionID) []persistence.DeleteReport
	// AutoRestore reopens dormant sessions when both the preference and the policy allow it.
	AutoRestore(ctx context.Context) ([]entity.SessionID, error)
	// RestoreSession reopens the persisted units of a dormant session and attaches them.
	RestoreSession(ctx context.Context, id entity.SessionID) ([]entity.UnitID, error)
}

// Config tunes the lifecycle manager.
type Config struct {
	FreshnessWindowSeconds int `yaml:"freshnessWindowSeconds"`
	ClientWaitMs           int `yaml:"clientWaitMs"`
	// ClientCallMs bounds every call made to the client, such as querying or opening units.
	ClientCallMs int `yaml:"clientCallMs"`
}

// Params are inbound parameters to initialize a new Manager.
type Params struct {
	fx.In

	Sessions session.Repository
	Sync     persistence.Synchronizer
	Policy   policy.Provider
	Units    units.Gateway
	Config   config.Provider
	Logger   *zap.SugaredLogger
	Stats    tally.Scope
	Clock    clock.Clock
}

// DetachOutcome reports what happened to the session of a detached unit.
type DetachOutcome struct {
	SessionID entity.SessionID
	// Emptied is true when the unit was the last member of its session.
	Emptied bool
	// Dormant is true when the emptied session was kept with a unit snapshot.
	Dormant bool
	// Deleted holds the delete report when the emptied session was removed in ephemeral mode.
	Deleted *persistence.DeleteReport
}

// AttachOutcome reports the session a unit joined and, for a moved unit, what happened to the
// session it left.
type AttachOutcome struct {
	Session *entity.Session
	Left    *DetachOutcome
}

// Classification is the result of restart-time classification.
type Classification struct {
	// Preserved sessions carry persisted units and are kept dormant unconditionally.
	Preserved []entity.SessionID `json:"preserved"`
	// Recovered sessions had no snapshot but were accessed within the freshness window.
	Recovered []entity.SessionID `json:"recovered"`
	// Ephemeral sessions are stale with nothing to restore and are due for deletion.
	Ephemeral []entity.SessionID `json:"ephemeral"`
}

// RecoveryReport summarises a restart recovery.
type RecoveryReport struct {
	Attached       int                        `json:"attached"`
	Classification Classification             `json:"classification"`
	Deleted        []persistence.DeleteReport `json:"deleted"`
	Restored       []entity.SessionID         `json:"restored"`
}

type manager struct {
	sessions session.Repository
	sync     persistence.Synchronizer
	policy   policy.Provider
	units    units.Gateway
	logger   *zap.SugaredLogger
	stats    tally.Scope
	clock    clock.Clock

	freshness  time.Duration
	clientWait time.Duration
	clientCall time.Duration
}

// New creates the lifecycle Manager.
func New(p Params) (Manager, error) {
	var cfg Config
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}

	m := &manager{
		sessions:   p.Sessions,
		sync:       p.Sync,
		policy:     p.Policy,
		units:      p.Units,
		logger:     p.Logger.With("component", "lifecycle"),
		stats:      p.Stats.SubScope("lifecycle"),
		clock:      p.Clock,
		freshness:  _defaultFreshnessWindow,
		clientWait: _defaultClientWait,
		clientCall: _defaultClientCall,
	}
	if cfg.FreshnessWindowSeconds > 0 {
		m.freshness = time.Duration(cfg.FreshnessWindowSeconds) * time.Second
	}
	if cfg.ClientWaitMs > 0 {
		m.clientWait = time.Duration(cfg.ClientWaitMs) * time.Millisecond
	}
	if cfg.ClientCallMs > 0 {
		m.clientCall = time.Duration(cfg.ClientCallMs) * time.Millisecond
	}
	return m, nil
}

func (m *manager) Detach(ctx context.Context, unitID entity.UnitID) (*DetachOutcome, error) {
	res, err := m.sessions.DetachUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return m.settle(ctx, res)
}

func (m *manager) Attach(ctx context.Context, unitID entity.UnitID, id entity.SessionID, meta entity.UnitMeta) (*AttachOutcome, error) {
	res, err := m.sessions.AttachUnit(ctx, unitID, id, meta)
	if err != nil {
		return nil, err
	}
	out := &AttachOutcome{Session: res.Session}
	if res.Left == nil {
		return out, nil
	}
	m.stats.Counter("moved_units").Inc(1)
	if out.Left, err = m.settle(ctx, res.Left); err != nil {
		return nil, fmt.Errorf("settling session %q left by unit %d: %w", res.Left.Session.ID, unitID, err)
	}
	return out, nil
}

// settle decides the fate of the session a unit was removed from. An emptied session becomes
// dormant with the unit snapshot, or is deleted in ephemeral mode.
func (m *manager) settle(ctx context.Context, res *session.DetachResult) (*DetachOutcome, error) {
	out := &DetachOutcome{SessionID: res.Session.ID, Emptied: res.Emptied}
	if !res.Emptied {
		return out, nil
	}

	if m.policy.Policy(ctx).EphemeralMode {
		m.sessions.Remove(ctx, res.Session.ID)
		report := m.sync.DeleteSession(ctx, string(res.Session.ID))
		out.Deleted = &report
		m.stats.Counter("ephemeral_detach").Inc(1)
		if !report.OK() {
			m.logger.Warnw("ephemeral session delete incomplete", "session", res.Session.ID, zap.Error(report.Err()))
		}
		return out, nil
	}

	if _, err := m.sessions.MarkDormant(ctx, res.Session.ID, res.Snapshot); err != nil {
		return nil, err
	}
	out.Dormant = true
	m.stats.Counter("dormant").Inc(1)
	m.logger.Infow("session dormant", "session", res.Session.ID, "units", len(res.Snapshot))
	return out, nil
}

func (m *manager) Recover(ctx context.Context) (*RecoveryReport, error) {
	report := &RecoveryReport{}

	attached, err := m.Reconcile(ctx)
	if err != nil {
		m.logger.Warnf("unit reconciliation failed, classifying without live units: %v", err)
	}
	report.Attached = attached

	report.Classification = m.Classify(ctx)
	report.Deleted = m.DeleteEphemeral(ctx, report.Classification.Ephemeral)

	restored, err := m.AutoRestore(ctx)
	if err != nil {
		m.logger.Warnf("auto-restore failed: %v", err)
	}
	report.Restored = restored
	return report, ctx.Err()
}

func (m *manager) Classify(ctx context.Context) Classification {
	var c Classification
	now := m.clock.Now()
	for _, s := range m.sessions.ListAll(ctx) {
		if s.HasMembers() {
			continue
		}
		switch {
		case s.Preserved():
			c.Preserved = append(c.Preserved, s.ID)
		case now.Sub(s.LastAccessed) < m.freshness:
			if _, err := m.sessions.MarkDormant(ctx, s.ID, []entity.PersistedUnit{}); err != nil {
				m.logger.Errorw("marking recovered session dormant", "session", s.ID, zap.Error(err))
				// A session that cannot be marked is kept.
				c.Preserved = append(c.Preserved, s.ID)
				continue
			}
			c.Recovered = append(c.Recovered, s.ID)
		default:
			c.Ephemeral = append(c.Ephemeral, s.ID)
		}
	}

	m.stats.Tagged(map[string]string{"class": "preserved"}).Counter("classified").Inc(int64(len(c.Preserved)))
	m.stats.Tagged(map[string]string{"class": "recovered"}).Counter("classified").Inc(int64(len(c.Recovered)))
	m.stats.Tagged(map[string]string{"class": "ephemeral"}).Counter("classified").Inc(int64(len(c.Ephemeral)))
	m.logger.Infow("restart classification complete",
		"preserved", len(c.Preserved), "recovered", len(c.Recovered), "ephemeral", len(c.Ephemeral))
	return c
}

func (m *manager) DeleteEphemeral(ctx context.Context, ids []entity.SessionID) []persistence.DeleteReport {
	reports := make([]persistence.DeleteReport, 0, len(ids))
	for _, id := range ids {
		s, err := m.sessions.GetBySession(ctx, id)
		if err != nil {
			continue
		}
		// Re-check: a unit may have attached since classification.
		if s.HasMembers() || s.Preserved() {
			m.logger.Infow("skipping deletion of session that gained data", "session", id)
			continue
		}
		m.sessions.Remove(ctx, id)
		report := m.sync.DeleteSession(ctx, string(id))
		if !report.OK() {
			m.logger.Warnw("ephemeral session delete incomplete", "session", id, zap.Error(report.Err()))
		}
		reports = append(reports, report)
	}
	return reports
}

func (m *manager) AutoRestore(ctx context.Context) ([]entity.SessionID, error) {
	pref, err := m.sync.GetPreference(ctx, entity.PreferenceAutoRestore)
	var corrupt *errors.CorruptPreferenceError
	switch {
	case stderr.As(err, &corrupt):
		m.logger.Warnw("stored auto-restore preference is malformed, treating as disabled", zap.Error(err))
		pref = entity.PreferenceDisabled
	case err != nil:
		return nil, fmt.Errorf("reading auto-restore preference: %w", err)
	}
	if !pref.Effective() || !m.policy.Policy(ctx).AutoRestoreEligible {
		return nil, nil
	}

	var restored []entity.SessionID
	for _, s := range m.sessions.ListAll(ctx) {
		if s.State != entity.StateDormant || !s.Preserved() {
			continue
		}
		if _, err := m.RestoreSession(ctx, s.ID); err != nil {
			m.logger.Warnw("auto-restoring session", "session", s.ID, zap.Error(err))
			continue
		}
		restored = append(restored, s.ID)
	}
	return restored, nil
}

func (m *manager) RestoreSession(ctx context.Context, id entity.SessionID) ([]entity.UnitID, error) {
	s, err := m.sessions.GetBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Preserved() {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, m.clientCall)
	ids, err := m.units.Open(callCtx, id, s.PersistedUnits)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("opening units for session %q: %w", id, err)
	}
	for i, unitID := range ids {
		var meta entity.UnitMeta
		if i < len(s.PersistedUnits) {
			pu := s.PersistedUnits[i]
			meta = entity.UnitMeta{URL: pu.URL, Title: pu.Title, IconRef: pu.IconRef}
		}
		if _, err := m.Attach(ctx, unitID, id, meta); err != nil {
			return ids[:i], err
		}
	}
	m.stats.Counter("restored").Inc(1)
	return ids, nil
}
