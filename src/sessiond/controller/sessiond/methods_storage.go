package sessiond

import (
	"context"
	stderr "errors"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"go.uber.org/zap"
)

// CloseDurableHandle releases the durable store's handle. The next access reopens it.
func (c *controller) CloseDurableHandle(ctx context.Context) (*OKResult, error) {
	if err := c.sync.CloseDurableHandle(ctx); err != nil {
		return nil, err
	}
	return &OKResult{OK: true}, nil
}

// Stats reports the index size, the per-layer record counts and the session list.
func (c *controller) Stats(ctx context.Context) (*StatsResult, error) {
	all := c.sessions.ListAll(ctx)
	out := &StatsResult{
		SessionCount:   len(all),
		PerLayerCounts: c.sync.Stats(ctx),
		SessionList:    make([]SessionSummary, 0, len(all)),
		Consistent:     true,
		Initialized:    c.guard.Done(),
	}
	for _, s := range all {
		out.SessionList = append(out.SessionList, c.summarize(ctx, s))
	}
	if err := c.sessions.Check(ctx); err != nil {
		out.Consistent = false
		c.checkIndex(ctx, err)
	}

	c.mu.Lock()
	out.LastRecovery = c.lastRecovery
	c.mu.Unlock()
	return out, nil
}

// Wipe clears every storage layer and then the index. The index is kept when any layer
// could not be cleared, so it still reflects what storage holds.
func (c *controller) Wipe(ctx context.Context) (*WipeResult, error) {
	report := c.sync.Wipe(ctx)
	out := &WipeResult{OK: report.OK(), PerLayerResults: report.Results}
	if !report.OK() {
		c.logger.Warnw("wipe incomplete, keeping session index", "results", report.Results)
		return out, nil
	}

	for _, s := range c.sessions.ListAll(ctx) {
		for _, u := range c.sessions.Units(ctx, s.ID) {
			c.cookies.Drop(u.ID)
		}
		if c.sessions.Remove(ctx, s.ID) {
			out.Removed++
		}
	}
	c.logger.Infow("storage wiped", "removed", out.Removed)
	return out, nil
}

// GetPreferences returns the stored auto-restore preference.
func (c *controller) GetPreferences(ctx context.Context) (*PreferencesResult, error) {
	pref, err := c.sync.GetPreference(ctx, entity.PreferenceAutoRestore)
	var corrupt *errors.CorruptPreferenceError
	switch {
	case stderr.As(err, &corrupt):
		c.logger.Warnw("stored auto-restore preference is malformed", zap.Error(err))
		pref = entity.PreferenceUnset
	case err != nil:
		return nil, err
	}
	return preferencesResult(pref), nil
}

// SetPreferences stores the auto-restore preference.
func (c *controller) SetPreferences(ctx context.Context, params *PreferencesParams) (*PreferencesResult, error) {
	pref := entity.PreferenceOf(params.AutoRestore)
	if err := c.sync.SetPreference(ctx, entity.PreferenceAutoRestore, pref); err != nil {
		return nil, err
	}
	return preferencesResult(pref), nil
}

func preferencesResult(p entity.Preference) *PreferencesResult {
	out := &PreferencesResult{Effective: p.Effective()}
	if p != entity.PreferenceUnset {
		v := p.Effective()
		out.AutoRestore = &v
	}
	return out
}
