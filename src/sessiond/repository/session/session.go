package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/factory"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/cookies"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"github.com/tabvault/sessiond/src/sessiond/model"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
)

// _recentWindow bounds how long detached unit metadata stays eligible for the dormancy
// snapshot of its session, so that closing a whole window captures every unit in it.
const _recentWindow = 2 * time.Second

// Sink receives a record every time a session changes. Enqueue must not block.
type Sink interface {
	Enqueue(r *model.Record)
}

// DetachResult describes the effect of detaching a unit.
type DetachResult struct {
	// Session is a snapshot of the session the unit belonged to, after detaching.
	Session *entity.Session
	// Emptied is true when the unit was the last member of the session.
	Emptied bool
	// Snapshot holds the metadata of the last unit and of units detached shortly before it,
	// in detach order. It is only populated when Emptied is true.
	Snapshot []entity.PersistedUnit
}

// AttachResult describes the effect of attaching a unit.
type AttachResult struct {
	// Session is a snapshot of the session the unit joined.
	Session *entity.Session
	// Left is set when the unit was moved out of another session. It reports that session
	// exactly as DetachUnit would.
	Left *DetachResult
}

// Repository is the authoritative in-memory index of sessions, unit membership and cookie jars.
type Repository interface {
	Create(ctx context.Context, seedURL string, maxSessions int) (*entity.Session, error)
	AttachUnit(ctx context.Context, unitID entity.UnitID, sessionID entity.SessionID, meta entity.UnitMeta) (*AttachResult, error)
	UpdateUnit(ctx context.Context, unitID entity.UnitID, meta entity.UnitMeta) error
	DetachUnit(ctx context.Context, unitID entity.UnitID) (*DetachResult, error)
	MarkDormant(ctx context.Context, id entity.SessionID, units []entity.PersistedUnit) (*entity.Session, error)
	Remove(ctx context.Context, id entity.SessionID) bool
	Load(ctx context.Context, sessions []*entity.Session)
	Rebuild(ctx context.Context, sessions []*entity.Session) []entity.UnitID

	CookieRead(ctx context.Context, id entity.SessionID, target cookies.Target) ([]entity.Cookie, error)
	CookieWrite(ctx context.Context, id entity.SessionID, target cookies.Target, c entity.Cookie) error

	ListActive(ctx context.Context) []*entity.Session
	ListAll(ctx context.Context) []*entity.Session
	GetBySession(ctx context.Context, id entity.SessionID) (*entity.Session, error)
	GetByUnit(ctx context.Context, unitID entity.UnitID) (*entity.Session, error)
	Unit(ctx context.Context, unitID entity.UnitID) (entity.Unit, error)
	Units(ctx context.Context, id entity.SessionID) []entity.Unit
	Count(ctx context.Context) int
	Check(ctx context.Context) error
}

// Params define values to be used by New.
type Params struct {
	fx.In

	Sink  Sink
	Clock clock.Clock
	Stats tally.Scope
}

type recentUnit struct {
	meta entity.UnitMeta
	at   time.Time
}

type repository struct {
	mu       sync.Mutex
	sessions map[entity.SessionID]*entity.Session
	units    map[entity.UnitID]*entity.Unit
	recent   map[entity.SessionID][]recentUnit
	created  int

	sink  Sink
	clock clock.Clock
	stats tally.Scope
}

// New returns the session index. Every mutation is forwarded to the sink while the index
// lock is held, so records for one session reach the sink in mutation order.
func New(p Params) Repository {
	return &repository{
		sessions: make(map[entity.SessionID]*entity.Session),
		units:    make(map[entity.UnitID]*entity.Unit),
		recent:   make(map[entity.SessionID][]recentUnit),
		sink:     p.Sink,
		clock:    p.Clock,
		stats:    p.Stats.SubScope("store"),
	}
}

// Create adds a new dormant session. The seed URL, when given, becomes its only persisted
// unit so the session is restorable before any unit attaches.
func (r *repository) Create(ctx context.Context, seedURL string, maxSessions int) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if maxSessions > 0 && len(r.sessions) >= maxSessions {
		return nil, &errors.SessionLimitError{Limit: maxSessions}
	}

	now := r.clock.Now()
	s := &entity.Session{
		ID:             entity.SessionID(factory.UUID().String()),
		CreatedAt:      now,
		LastAccessed:   now,
		State:          entity.StateDormant,
		MemberUnits:    make(map[entity.UnitID]struct{}),
		PersistedUnits: []entity.PersistedUnit{},
		CookieJar:      make(entity.CookieJar),
		ColorTag:       entity.Colors[r.created%len(entity.Colors)],
	}
	if seedURL != "" {
		s.PersistedUnits = append(s.PersistedUnits, entity.PersistedUnit{URL: seedURL})
	}
	r.created++
	r.sessions[s.ID] = s
	r.persistLocked(s)
	return s.Clone(), nil
}

// AttachUnit maps the unit to the session. A unit already mapped elsewhere is moved out of
// its previous session first; when that empties it, the caller settles it like a detach.
func (r *repository) AttachUnit(ctx context.Context, unitID entity.UnitID, id entity.SessionID, meta entity.UnitMeta) (*AttachResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, &errors.SessionNotFoundError{SessionID: string(id)}
	}

	out := &AttachResult{}
	if prev, ok := r.units[unitID]; ok && prev.SessionID != id {
		left, err := r.detachLocked(prev)
		if err != nil {
			return nil, err
		}
		out.Left = left
	}

	r.units[unitID] = &entity.Unit{ID: unitID, SessionID: id, Meta: meta}
	s.MemberUnits[unitID] = struct{}{}
	s.State = entity.StateActive
	s.LastAccessed = r.clock.Now()
	delete(r.recent, id)
	r.persistLocked(s)
	out.Session = s.Clone()
	return out, nil
}

// UpdateUnit refreshes the cached metadata of a unit and touches its session.
func (r *repository) UpdateUnit(ctx context.Context, unitID entity.UnitID, meta entity.UnitMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[unitID]
	if !ok {
		return &errors.UnitNotFoundError{UnitID: int64(unitID)}
	}
	u.Meta = meta
	s, ok := r.sessions[u.SessionID]
	if !ok {
		return &errors.IndexInconsistencyError{Reason: fmt.Sprintf("unit %d maps to missing session %q", unitID, u.SessionID)}
	}
	s.LastAccessed = r.clock.Now()
	r.persistLocked(s)
	return nil
}

// DetachUnit removes the unit from its session. An emptied session is left dormant with its
// previous persisted units; the caller decides its snapshot or deletion from the result.
func (r *repository) DetachUnit(ctx context.Context, unitID entity.UnitID) (*DetachResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[unitID]
	if !ok {
		return nil, &errors.UnitNotFoundError{UnitID: int64(unitID)}
	}
	return r.detachLocked(u)
}

func (r *repository) detachLocked(u *entity.Unit) (*DetachResult, error) {
	delete(r.units, u.ID)

	s, ok := r.sessions[u.SessionID]
	if !ok {
		return nil, &errors.IndexInconsistencyError{Reason: fmt.Sprintf("unit %d maps to missing session %q", u.ID, u.SessionID)}
	}
	delete(s.MemberUnits, u.ID)
	now := r.clock.Now()
	s.LastAccessed = now

	res := &DetachResult{Emptied: !s.HasMembers()}
	if res.Emptied {
		s.State = entity.StateDormant
		for _, ru := range r.recent[s.ID] {
			if now.Sub(ru.at) <= _recentWindow && ru.meta.URL != "" {
				res.Snapshot = append(res.Snapshot, persistedUnit(ru.meta))
			}
		}
		if u.Meta.URL != "" {
			res.Snapshot = append(res.Snapshot, persistedUnit(u.Meta))
		}
		delete(r.recent, s.ID)
	} else {
		r.recent[s.ID] = append(r.recent[s.ID], recentUnit{meta: u.Meta, at: now})
	}
	r.persistLocked(s)
	res.Session = s.Clone()
	return res, nil
}

// MarkDormant records the persisted units of an emptied session and makes it dormant.
// A nil units slice is stored as an empty list.
func (r *repository) MarkDormant(ctx context.Context, id entity.SessionID, units []entity.PersistedUnit) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, &errors.SessionNotFoundError{SessionID: string(id)}
	}
	if s.HasMembers() {
		return nil, &errors.IndexInconsistencyError{Reason: fmt.Sprintf("session %q still has %d units", id, len(s.MemberUnits))}
	}
	s.PersistedUnits = append([]entity.PersistedUnit{}, units...)
	s.State = entity.StateDormant
	r.persistLocked(s)
	return s.Clone(), nil
}

// Remove drops the session and its unit mappings from the index. Persistence of the deletion
// is handled by the caller.
func (r *repository) Remove(ctx context.Context, id entity.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	for unitID := range s.MemberUnits {
		delete(r.units, unitID)
	}
	delete(r.sessions, id)
	delete(r.recent, id)
	r.updateGaugesLocked()
	return true
}

// Load adds sessions read from storage and forwards each to the sink, so every storage
// layer holds the restored set.
func (r *repository) Load(ctx context.Context, sessions []*entity.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range sessions {
		c := s.Clone()
		if c.CookieJar == nil {
			c.CookieJar = make(entity.CookieJar)
		}
		r.sessions[c.ID] = c
		r.persistLocked(c)
	}
	r.created += len(sessions)
	r.updateGaugesLocked()
}

// Rebuild replaces the session index with sessions and re-attaches every known unit whose
// session still exists. Units whose session is gone are dropped and returned.
func (r *repository) Rebuild(ctx context.Context, sessions []*entity.Session) []entity.UnitID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = make(map[entity.SessionID]*entity.Session, len(sessions))
	r.recent = make(map[entity.SessionID][]recentUnit)
	for _, s := range sessions {
		c := s.Clone()
		c.MemberUnits = make(map[entity.UnitID]struct{})
		if c.CookieJar == nil {
			c.CookieJar = make(entity.CookieJar)
		}
		r.sessions[c.ID] = c
	}

	var dropped []entity.UnitID
	for unitID, u := range r.units {
		s, ok := r.sessions[u.SessionID]
		if !ok {
			delete(r.units, unitID)
			dropped = append(dropped, unitID)
			continue
		}
		s.MemberUnits[unitID] = struct{}{}
		s.State = entity.StateActive
	}
	for _, s := range r.sessions {
		if !s.HasMembers() && s.State == entity.StateActive {
			s.State = entity.StateDormant
		}
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i] < dropped[j] })
	r.updateGaugesLocked()
	return dropped
}

// CookieRead returns the cookies of the session's jar visible at target.
func (r *repository) CookieRead(ctx context.Context, id entity.SessionID, target cookies.Target) ([]entity.Cookie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, &errors.SessionNotFoundError{SessionID: string(id)}
	}
	return cookies.Select(s.CookieJar, target, r.clock.Now()), nil
}

// CookieWrite upserts c into the session's jar after checking that target may set its domain.
func (r *repository) CookieWrite(ctx context.Context, id entity.SessionID, target cookies.Target, c entity.Cookie) error {
	if err := cookies.ValidateDomain(c.Domain, target.Host); err != nil {
		r.stats.Counter("cookie_rejected").Inc(1)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return &errors.SessionNotFoundError{SessionID: string(id)}
	}
	now := r.clock.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	s.CookieJar = cookies.Upsert(s.CookieJar, c, now)
	s.LastAccessed = now
	r.persistLocked(s)
	return nil
}

// ListActive returns the sessions that have attached units, oldest first.
func (r *repository) ListActive(ctx context.Context) []*entity.Session {
	return r.list(func(s *entity.Session) bool { return s.State == entity.StateActive })
}

// ListAll returns every session, oldest first.
func (r *repository) ListAll(ctx context.Context) []*entity.Session {
	return r.list(func(*entity.Session) bool { return true })
}

// GetBySession returns the session with the given id.
func (r *repository) GetBySession(ctx context.Context, id entity.SessionID) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, &errors.SessionNotFoundError{SessionID: string(id)}
	}
	return s.Clone(), nil
}

// GetByUnit returns the session the unit is attached to.
func (r *repository) GetByUnit(ctx context.Context, unitID entity.UnitID) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[unitID]
	if !ok {
		return nil, &errors.NoSessionError{UnitID: int64(unitID)}
	}
	s, ok := r.sessions[u.SessionID]
	if !ok {
		return nil, &errors.IndexInconsistencyError{Reason: fmt.Sprintf("unit %d maps to missing session %q", unitID, u.SessionID)}
	}
	return s.Clone(), nil
}

// Unit returns the mapping and cached metadata of a unit.
func (r *repository) Unit(ctx context.Context, unitID entity.UnitID) (entity.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[unitID]
	if !ok {
		return entity.Unit{}, &errors.UnitNotFoundError{UnitID: int64(unitID)}
	}
	return *u, nil
}

// Units returns the units attached to a session in ascending id order.
func (r *repository) Units(ctx context.Context, id entity.SessionID) []entity.Unit {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	out := make([]entity.Unit, 0, len(s.MemberUnits))
	for _, unitID := range s.Members() {
		if u, ok := r.units[unitID]; ok {
			out = append(out, *u)
		}
	}
	return out
}

// Count returns the number of sessions in the index.
func (r *repository) Count(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Check audits the index invariants and reports the first violation found.
func (r *repository) Check(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.State == entity.StateActive && !s.HasMembers() {
			return &errors.IndexInconsistencyError{Reason: fmt.Sprintf("active session %q has no units", id)}
		}
		for unitID := range s.MemberUnits {
			u, ok := r.units[unitID]
			if !ok || u.SessionID != id {
				return &errors.IndexInconsistencyError{Reason: fmt.Sprintf("session %q lists unit %d it does not own", id, unitID)}
			}
		}
	}
	for unitID, u := range r.units {
		s, ok := r.sessions[u.SessionID]
		if !ok {
			return &errors.IndexInconsistencyError{Reason: fmt.Sprintf("unit %d maps to missing session %q", unitID, u.SessionID)}
		}
		if _, ok := s.MemberUnits[unitID]; !ok {
			return &errors.IndexInconsistencyError{Reason: fmt.Sprintf("unit %d missing from session %q", unitID, u.SessionID)}
		}
	}
	return nil
}

func (r *repository) list(keep func(*entity.Session) bool) []*entity.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// persistLocked forwards the session to the sink. r.mu must be held.
func (r *repository) persistLocked(s *entity.Session) {
	r.updateGaugesLocked()
	if r.sink != nil {
		r.sink.Enqueue(mapper.SessionToRecord(s))
	}
}

func (r *repository) updateGaugesLocked() {
	active := 0
	for _, s := range r.sessions {
		if s.State == entity.StateActive {
			active++
		}
	}
	r.stats.Gauge("sessions").Update(float64(len(r.sessions)))
	r.stats.Gauge("active_sessions").Update(float64(active))
	r.stats.Gauge("units").Update(float64(len(r.units)))
}

func persistedUnit(m entity.UnitMeta) entity.PersistedUnit {
	return entity.PersistedUnit{URL: m.URL, Title: m.Title, IconRef: m.IconRef}
}
