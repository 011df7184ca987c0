package sessiond

import (
	"context"
	"fmt"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/cookies"
	"go.uber.org/zap"
)

// Create adds a dormant session, optionally seeded with one unit to open on restore.
func (c *controller) Create(ctx context.Context, params *CreateParams) (*SessionResult, error) {
	pol := c.policy.Policy(ctx)
	s, err := c.sessions.Create(ctx, params.SeedURL, pol.MaxSessions)
	if err != nil {
		return nil, err
	}
	c.stats.Counter("sessions_created").Inc(1)
	c.logger.Infow("session created", "session", s.ID, "color", s.ColorTag)
	return &SessionResult{SessionID: s.ID}, nil
}

// ListActive lists sessions with attached units and their live unit metadata.
func (c *controller) ListActive(ctx context.Context) (*ListResult, error) {
	active := c.sessions.ListActive(ctx)
	out := &ListResult{Sessions: make([]SessionSummary, 0, len(active))}
	for _, s := range active {
		out.Sessions = append(out.Sessions, c.summarize(ctx, s))
	}
	return out, nil
}

// ListDormant lists sessions without attached units and their persisted units.
func (c *controller) ListDormant(ctx context.Context) (*ListResult, error) {
	out := &ListResult{Sessions: []SessionSummary{}}
	for _, s := range c.sessions.ListAll(ctx) {
		if s.State != entity.StateDormant {
			continue
		}
		out.Sessions = append(out.Sessions, c.summarize(ctx, s))
	}
	return out, nil
}

// ResolveForUnit returns the session a unit belongs to.
func (c *controller) ResolveForUnit(ctx context.Context, params *UnitParams) (*SessionResult, error) {
	s, err := c.sessions.GetByUnit(ctx, params.UnitID)
	if err != nil {
		return nil, err
	}
	return &SessionResult{SessionID: s.ID}, nil
}

// Delete removes a session from the index and runs the verified delete on every layer.
// Deleting an unknown id still reaches storage so stale records are cleaned up.
func (c *controller) Delete(ctx context.Context, params *SessionParams) (*DeleteResult, error) {
	if params.SessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	for _, u := range c.sessions.Units(ctx, params.SessionID) {
		c.cookies.Drop(u.ID)
	}
	c.sessions.Remove(ctx, params.SessionID)

	report := c.sync.DeleteSession(ctx, string(params.SessionID))
	if !report.OK() {
		c.logger.Warnw("session delete incomplete", "session", params.SessionID, zap.Error(report.Err()))
	}
	return &DeleteResult{
		OK:              report.OK(),
		AlreadyAbsent:   report.AlreadyAbsent(),
		PerLayerResults: report.Results,
		Compaction:      report.Compaction,
	}, nil
}

// Restore reopens a dormant session's persisted units.
func (c *controller) Restore(ctx context.Context, params *SessionParams) (*RestoreResult, error) {
	ids, err := c.manager.RestoreSession(ctx, params.SessionID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []entity.UnitID{}
	}
	return &RestoreResult{OK: true, UnitIDs: ids}, nil
}

func (c *controller) summarize(ctx context.Context, s *entity.Session) SessionSummary {
	out := SessionSummary{
		SessionID:    s.ID,
		Color:        s.ColorTag,
		State:        s.State,
		LastAccessed: s.LastAccessed,
		Units:        []UnitSummary{},
	}
	if s.HasMembers() {
		for _, u := range c.sessions.Units(ctx, s.ID) {
			out.Units = append(out.Units, UnitSummary{
				UnitID:  u.ID,
				Title:   u.Meta.Title,
				Domain:  domainOf(u.Meta.URL),
				URL:     u.Meta.URL,
				IconRef: u.Meta.IconRef,
			})
		}
		return out
	}
	for _, pu := range s.PersistedUnits {
		out.Units = append(out.Units, UnitSummary{
			Title:   pu.Title,
			Domain:  domainOf(pu.URL),
			URL:     pu.URL,
			IconRef: pu.IconRef,
		})
	}
	return out
}

func domainOf(rawURL string) string {
	t, err := cookies.ParseURL(rawURL)
	if err != nil {
		return ""
	}
	return t.Host
}
