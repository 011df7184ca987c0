package lifecycle

import (
	"context"
	"fmt"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/cookies"
	"go.uber.org/zap"
)

type candidate struct {
	sessionID entity.SessionID
	url       string
	origin    string
}

func (m *manager) Reconcile(ctx context.Context) (int, error) {
	waitCtx, cancel := context.WithTimeout(ctx, m.clientWait)
	err := m.units.WaitForClient(waitCtx)
	cancel()
	if err != nil {
		m.logger.Infow("no client connected, skipping unit reconciliation", "waited", m.clientWait)
		return 0, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, m.clientCall)
	open, err := m.units.Query(queryCtx)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("querying open units: %w", err)
	}

	known := make(map[entity.SessionID]bool)
	var pool []*candidate
	for _, s := range m.sessions.ListAll(ctx) {
		known[s.ID] = true
		for _, pu := range s.PersistedUnits {
			pool = append(pool, &candidate{sessionID: s.ID, url: pu.URL, origin: origin(pu.URL)})
		}
	}

	attached := 0
	for _, u := range open {
		sessionID := u.SessionID
		if !known[sessionID] {
			sessionID = match(pool, u.Meta.URL)
		}
		if sessionID == "" {
			continue
		}
		if _, err := m.Attach(ctx, u.ID, sessionID, u.Meta); err != nil {
			m.logger.Warnw("attaching reconciled unit", "unit", u.ID, "session", sessionID, zap.Error(err))
			continue
		}
		attached++
	}
	m.stats.Counter("reconciled_units").Inc(int64(attached))
	return attached, nil
}

// match finds the session whose persisted units best fit url: an exact URL first, then the
// same origin. A matched entry is consumed so it attributes at most one unit.
func match(pool []*candidate, url string) entity.SessionID {
	if url == "" {
		return ""
	}
	for i, c := range pool {
		if c != nil && c.url == url {
			pool[i] = nil
			return c.sessionID
		}
	}
	o := origin(url)
	if o == "" {
		return ""
	}
	for i, c := range pool {
		if c != nil && c.origin == o {
			pool[i] = nil
			return c.sessionID
		}
	}
	return ""
}

func origin(rawURL string) string {
	t, err := cookies.ParseURL(rawURL)
	if err != nil {
		return ""
	}
	if t.Secure {
		return "https://" + t.Host
	}
	return "http://" + t.Host
}
