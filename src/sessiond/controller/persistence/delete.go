package persistence

import (
	"context"
	stderr "errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Outcome is the terminal result of an operation against one layer.
type Outcome string

const (
	// OutcomeDeleted means the record was removed and verified absent.
	OutcomeDeleted Outcome = "deleted"
	// OutcomeAlreadyAbsent means the layer held no record before the delete.
	OutcomeAlreadyAbsent Outcome = "already_absent"
	// OutcomeWiped means a whole-store wipe completed.
	OutcomeWiped Outcome = "wiped"
	// OutcomeFailed means the layer could not complete the operation.
	OutcomeFailed Outcome = "failed"
	// OutcomeBlocked means a whole-store operation was blocked by an open handle.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeMismatch means verification found the record still present.
	OutcomeMismatch Outcome = "mismatch"
)

// LayerResult is the outcome of an operation on a single layer.
type LayerResult struct {
	Layer   string  `json:"layer"`
	Tier    string  `json:"tier"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
	Err     error   `json:"-"`
}

// Succeeded reports whether the outcome is terminal success.
func (r LayerResult) Succeeded() bool {
	switch r.Outcome {
	case OutcomeDeleted, OutcomeAlreadyAbsent, OutcomeWiped:
		return true
	}
	return false
}

// DeleteReport is the per-layer result of a verified delete.
type DeleteReport struct {
	SessionID string        `json:"sessionId"`
	Results   []LayerResult `json:"perLayerResults"`
	// Compaction is set when a whole-store compaction ran after the delete.
	Compaction *LayerResult `json:"compaction,omitempty"`
}

// OK reports whether every layer confirmed the record absent.
func (r DeleteReport) OK() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Succeeded() {
			return false
		}
	}
	return true
}

// AlreadyAbsent reports whether no layer held the record.
func (r DeleteReport) AlreadyAbsent() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Outcome != OutcomeAlreadyAbsent {
			return false
		}
	}
	return true
}

// Err combines the errors of every failed layer.
func (r DeleteReport) Err() error {
	var errs error
	for _, res := range r.Results {
		errs = multierr.Append(errs, res.Err)
	}
	return errs
}

// WipeReport is the per-layer result of a wipe.
type WipeReport struct {
	Results []LayerResult `json:"perLayerResults"`
}

// OK reports whether every layer was wiped.
func (r WipeReport) OK() bool {
	for _, res := range r.Results {
		if !res.Succeeded() {
			return false
		}
	}
	return len(r.Results) > 0
}

func (s *synchronizer) DeleteSession(ctx context.Context, id string) DeleteReport {
	if err := ctx.Err(); err != nil {
		return s.failAll(id, err)
	}
	j := &deleteJob{id: id, result: make(chan DeleteReport, 1)}
	if !s.submit(id, &job{delete: j}) {
		return s.failAll(id, errors.New("synchronizer closed"))
	}

	select {
	case report := <-j.result:
		return report
	case <-ctx.Done():
		// The delete keeps running on the queue; only this caller stops waiting.
		return s.failAll(id, ctx.Err())
	}
}

// runDelete executes the verified delete protocol. It runs on the queue of id so it never
// races a write of the same record.
func (s *synchronizer) runDelete(ctx context.Context, id string) DeleteReport {
	start := s.clock.Now()
	report := DeleteReport{SessionID: id, Results: make([]LayerResult, len(s.layers))}
	for i, l := range s.layers {
		report.Results[i] = LayerResult{Layer: l.Name(), Tier: l.Tier().String()}
	}

	// Durable layers first, and only on committed acknowledgment.
	durableOK := true
	for i, l := range s.layers {
		if l.Tier() != storage.TierDurable {
			continue
		}
		report.Results[i].Outcome, report.Results[i].Err = s.deleteCommitted(ctx, l, id)
		if report.Results[i].Outcome == OutcomeFailed {
			durableOK = false
		}
	}

	for i, l := range s.layers {
		if l.Tier() == storage.TierDurable {
			continue
		}
		if !durableOK {
			// Dropping the volatile copy would hide a record that still exists durably.
			report.Results[i].Outcome = OutcomeFailed
			report.Results[i].Err = errors.New("skipped: durable delete did not commit")
			continue
		}
		report.Results[i].Outcome, report.Results[i].Err = s.deleteOnce(ctx, l, id)
	}

	if err := s.CloseDurableHandle(ctx); err != nil {
		s.logger.Warnw("closing durable handle after delete", "session", id, zap.Error(err))
	}

	if durableOK && s.cfg.CompactOnEmpty {
		report.Compaction = s.compactIfEmpty(ctx)
	}

	s.verify(ctx, id, report.Results)
	// Verification reads through the durable layer, which reopens the handle.
	if err := s.CloseDurableHandle(ctx); err != nil {
		s.logger.Warnw("closing durable handle after verification", "session", id, zap.Error(err))
	}

	for i := range report.Results {
		if report.Results[i].Err != nil {
			report.Results[i].Error = report.Results[i].Err.Error()
		}
	}

	outcome := "ok"
	switch {
	case report.AlreadyAbsent():
		outcome = "already_absent"
	case !report.OK():
		outcome = "failed"
		s.logger.Warnw("session delete incomplete", "session", id, zap.Error(report.Err()))
	}
	s.stats.Tagged(map[string]string{"outcome": outcome}).Counter("deletes").Inc(1)
	s.stats.Timer("delete_latency").Record(s.clock.Since(start))
	return report
}

// deleteCommitted deletes id from a durable layer. A delete that is only accepted is polled
// until the record is gone or the commit wait expires.
func (s *synchronizer) deleteCommitted(ctx context.Context, l storage.Layer, id string) (Outcome, error) {
	var ack storage.Ack
	err := s.retry(ctx, func() error {
		var err error
		ack, err = l.Delete(ctx, id)
		if stderr.Is(err, errors.ErrRecordNotFound) {
			return backoff.Permanent(err)
		}
		return err
	})
	switch {
	case stderr.Is(err, errors.ErrRecordNotFound):
		return OutcomeAlreadyAbsent, nil
	case err != nil:
		return OutcomeFailed, err
	case ack == storage.AckCommitted:
		return OutcomeDeleted, nil
	}

	wait := time.Duration(s.cfg.CommitWaitMs) * time.Millisecond
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(_commitPollInterval), uint64(wait/_commitPollInterval))
	err = backoff.Retry(func() error {
		_, err := l.Get(ctx, id)
		if stderr.Is(err, errors.ErrRecordNotFound) {
			return nil
		}
		if err == nil {
			return errors.New("delete accepted but not committed")
		}
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return OutcomeFailed, err
	}
	return OutcomeDeleted, nil
}

func (s *synchronizer) deleteOnce(ctx context.Context, l storage.Layer, id string) (Outcome, error) {
	err := s.retry(ctx, func() error {
		_, err := l.Delete(ctx, id)
		if stderr.Is(err, errors.ErrRecordNotFound) {
			return backoff.Permanent(err)
		}
		return err
	})
	switch {
	case stderr.Is(err, errors.ErrRecordNotFound):
		return OutcomeAlreadyAbsent, nil
	case err != nil:
		return OutcomeFailed, err
	}
	return OutcomeDeleted, nil
}

// verify queries every layer for id and downgrades results where the record is still present.
func (s *synchronizer) verify(ctx context.Context, id string, results []LayerResult) {
	for i, l := range s.layers {
		_, err := l.Get(ctx, id)
		switch {
		case stderr.Is(err, errors.ErrRecordNotFound):
		case err != nil:
			if results[i].Succeeded() {
				results[i].Outcome = OutcomeFailed
			}
			results[i].Err = multierr.Append(results[i].Err, err)
		default:
			results[i].Outcome = OutcomeMismatch
			results[i].Err = multierr.Append(results[i].Err, &errors.VerificationMismatchError{Layer: l.Name(), SessionID: id})
			s.stats.Tagged(map[string]string{"layer": l.Name()}).Counter("verify_mismatch").Inc(1)
		}
	}
}

// compactIfEmpty wipes durable layers that hold no records, keeping stored preferences.
func (s *synchronizer) compactIfEmpty(ctx context.Context) *LayerResult {
	for _, l := range s.layers {
		if l.Tier() != storage.TierDurable {
			continue
		}
		if _, ok := l.(storage.Wiper); !ok {
			continue
		}
		n, err := l.Count(ctx)
		if err != nil || n > 0 {
			continue
		}

		var pref entity.Preference
		ps, hasPrefs := l.(storage.PreferenceStore)
		if hasPrefs {
			pref, err = ps.GetPreference(ctx, entity.PreferenceAutoRestore)
			if err != nil {
				s.logger.Warnw("reading preference before compaction", zap.Error(err))
			}
		}
		res := s.wipeLayer(ctx, l)
		if res.Succeeded() && hasPrefs && pref != entity.PreferenceUnset {
			if err := ps.SetPreference(ctx, entity.PreferenceAutoRestore, pref); err != nil {
				s.logger.Errorw("restoring preference after compaction", zap.Error(err))
			}
		}
		return &res
	}
	return nil
}

func (s *synchronizer) Wipe(ctx context.Context) WipeReport {
	if err := s.Flush(ctx); err != nil {
		s.logger.Warnw("wiping with writes still queued", zap.Error(err))
	}

	var report WipeReport
	for _, l := range s.layers {
		if _, ok := l.(storage.Wiper); !ok {
			continue
		}
		report.Results = append(report.Results, s.wipeLayer(ctx, l))
	}
	return report
}

// wipeLayer closes the layer's handle before wiping. A blocked wipe closes the handle again
// and retries once; a second block is reported, never treated as success.
func (s *synchronizer) wipeLayer(ctx context.Context, l storage.Layer) LayerResult {
	res := LayerResult{Layer: l.Name(), Tier: l.Tier().String()}
	w := l.(storage.Wiper)
	h, hasHandle := l.(storage.Handle)

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if hasHandle {
			if cerr := h.Close(ctx); cerr != nil {
				s.logger.Warnw("closing handle before wipe", "layer", l.Name(), zap.Error(cerr))
			}
		}
		err = w.Wipe(ctx)
		var blocked *errors.BlockedOperationError
		if !stderr.As(err, &blocked) {
			break
		}
		s.logger.Warnw("wipe blocked by open handle", "layer", l.Name(), "attempt", attempt+1, zap.Error(err))
	}

	var blocked *errors.BlockedOperationError
	switch {
	case err == nil:
		res.Outcome = OutcomeWiped
	case stderr.As(err, &blocked):
		res.Outcome = OutcomeBlocked
		res.Err = err
	default:
		res.Outcome = OutcomeFailed
		res.Err = err
	}
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
	s.stats.Tagged(map[string]string{"layer": l.Name(), "outcome": string(res.Outcome)}).Counter("wipes").Inc(1)
	return res
}

func (s *synchronizer) failAll(id string, err error) DeleteReport {
	report := DeleteReport{SessionID: id}
	for _, l := range s.layers {
		report.Results = append(report.Results, LayerResult{
			Layer:   l.Name(),
			Tier:    l.Tier().String(),
			Outcome: OutcomeFailed,
			Err:     err,
			Error:   err.Error(),
		})
	}
	return report
}
