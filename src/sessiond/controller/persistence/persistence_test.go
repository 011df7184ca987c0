package persistence

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage/durable"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage/storagemock"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage/volatile"
	"github.com/tabvault/sessiond/src/sessiond/model"
	"github.com/uber-go/tally"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newDurable(t *testing.T, blockedWait time.Duration) *durable.Store {
	t.Helper()
	s := durable.New(durable.Options{
		Path:        filepath.Join(t.TempDir(), "sessions.db"),
		OpenTimeout: 100 * time.Millisecond,
		BlockedWait: blockedWait,
	}, zap.NewNop().Sugar(), tally.NoopScope)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func newTestSync(t *testing.T, cfg Config, layers ...storage.Layer) *synchronizer {
	t.Helper()
	if cfg.InitialIntervalMs == 0 {
		cfg.InitialIntervalMs = 1
		cfg.MaxIntervalMs = 5
	}
	s, err := newSynchronizer(layers, cfg, zap.NewNop().Sugar(), tally.NewTestScope("testing", nil), clock.New())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func mockLayer(ctrl *gomock.Controller, name string, tier storage.Tier) *storagemock.MockLayer {
	l := storagemock.NewMockLayer(ctrl)
	l.EXPECT().Name().Return(name).AnyTimes()
	l.EXPECT().Tier().Return(tier).AnyTimes()
	return l
}

func record(id string, state string) *model.Record {
	return &model.Record{ID: id, State: state, PersistedUnits: []model.PersistedUnit{}}
}

func TestNew(t *testing.T) {
	provider, err := config.NewStaticProvider(map[string]interface{}{
		"storage": map[string]interface{}{
			"sync": map[string]interface{}{
				"maxRetries":     3,
				"compactOnEmpty": true,
			},
		},
	})
	require.NoError(t, err)

	t.Run("requires both tiers", func(t *testing.T) {
		_, err := New(Params{
			Layers:    []storage.Layer{volatile.New(tally.NoopScope)},
			Config:    provider,
			Lifecycle: fxtest.NewLifecycle(t),
			Logger:    zap.NewNop().Sugar(),
			Stats:     tally.NoopScope,
			Clock:     clock.New(),
		})
		assert.Error(t, err)
	})

	t.Run("reads config and orders durable first", func(t *testing.T) {
		lc := fxtest.NewLifecycle(t)
		s, err := New(Params{
			Layers:    []storage.Layer{volatile.New(tally.NoopScope), newDurable(t, time.Second)},
			Config:    provider,
			Lifecycle: lc,
			Logger:    zap.NewNop().Sugar(),
			Stats:     tally.NoopScope,
			Clock:     clock.New(),
		})
		require.NoError(t, err)
		impl := s.(*synchronizer)
		assert.Equal(t, uint64(3), impl.cfg.MaxRetries)
		assert.True(t, impl.cfg.CompactOnEmpty)
		assert.Equal(t, storage.TierDurable, impl.layers[0].Tier())
		lc.RequireStart()
		lc.RequireStop()
	})
}

func TestWriteThrough(t *testing.T) {
	ctx := context.Background()
	d := newDurable(t, time.Second)
	v := volatile.New(tally.NoopScope)
	s := newTestSync(t, Config{}, d, v)

	for i := 0; i < 3; i++ {
		s.Enqueue(record(fmt.Sprintf("s%d", i), "DORMANT"))
	}
	require.NoError(t, s.Flush(ctx))

	for _, l := range []storage.Layer{d, v} {
		n, err := l.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n, l.Name())
	}
}

func TestWriteOrderPerKey(t *testing.T) {
	ctx := context.Background()
	d := newDurable(t, time.Second)
	v := volatile.New(tally.NoopScope)
	s := newTestSync(t, Config{}, d, v)

	for i := 0; i < 100; i++ {
		r := record("s1", "ACTIVE")
		r.Color = fmt.Sprintf("c%d", i)
		s.Enqueue(r)
	}
	require.NoError(t, s.Flush(ctx))

	for _, l := range []storage.Layer{d, v} {
		got, err := l.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "c99", got.Color, l.Name())
	}
}

func TestWriteRetry(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	t.Run("transient errors are retried", func(t *testing.T) {
		d := mockLayer(ctrl, "durable", storage.TierDurable)
		transient := &errors.TransientIOError{Layer: "durable", Op: "put", Err: errors.New("disk busy")}
		gomock.InOrder(
			d.EXPECT().Put(gomock.Any(), gomock.Any()).Return(transient),
			d.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil),
		)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{}, d, v)

		s.Enqueue(record("s1", "DORMANT"))
		require.NoError(t, s.Flush(ctx))
	})

	t.Run("exhausted retries are not surfaced", func(t *testing.T) {
		d := mockLayer(ctrl, "durable", storage.TierDurable)
		transient := &errors.TransientIOError{Layer: "durable", Op: "put", Err: errors.New("disk busy")}
		d.EXPECT().Put(gomock.Any(), gomock.Any()).Return(transient).Times(3)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{MaxRetries: 2}, d, v)

		s.Enqueue(record("s1", "DORMANT"))
		require.NoError(t, s.Flush(ctx))

		n, err := v.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "other layers still receive the write")
	})
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("verified delete with open handle", func(t *testing.T) {
		d := newDurable(t, time.Second)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{}, d, v)

		s.Enqueue(record("s1", "DORMANT"))
		require.NoError(t, s.Flush(ctx))
		require.True(t, d.IsOpen())

		report := s.DeleteSession(ctx, "s1")
		assert.True(t, report.OK())
		require.Len(t, report.Results, 2)
		assert.Equal(t, "durable", report.Results[0].Layer)
		assert.Equal(t, OutcomeDeleted, report.Results[0].Outcome)
		assert.Equal(t, OutcomeDeleted, report.Results[1].Outcome)
		assert.False(t, d.IsOpen())

		for _, l := range []storage.Layer{d, v} {
			_, err := l.Get(ctx, "s1")
			assert.ErrorIs(t, err, errors.ErrRecordNotFound)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		d := newDurable(t, time.Second)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{}, d, v)

		for i := 0; i < 2; i++ {
			report := s.DeleteSession(ctx, "missing")
			assert.True(t, report.OK())
			assert.True(t, report.AlreadyAbsent())
			assert.NoError(t, report.Err())
		}
	})

	t.Run("delete after pending write", func(t *testing.T) {
		d := newDurable(t, time.Second)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{}, d, v)

		s.Enqueue(record("s1", "DORMANT"))
		report := s.DeleteSession(ctx, "s1")
		assert.True(t, report.OK())
		assert.False(t, report.AlreadyAbsent())
	})

	t.Run("accepted delete is polled until committed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		d := mockLayer(ctrl, "durable", storage.TierDurable)
		d.EXPECT().Delete(gomock.Any(), "s1").Return(storage.AckAccepted, nil)
		d.EXPECT().Get(gomock.Any(), "s1").Return(record("s1", "DORMANT"), nil)
		d.EXPECT().Get(gomock.Any(), "s1").Return(nil, errors.ErrRecordNotFound).AnyTimes()
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{CommitWaitMs: 500}, d, v)

		report := s.DeleteSession(ctx, "s1")
		assert.True(t, report.OK())
		assert.Equal(t, OutcomeDeleted, report.Results[0].Outcome)
	})

	t.Run("uncommitted delete fails and keeps volatile copy", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		d := mockLayer(ctrl, "durable", storage.TierDurable)
		d.EXPECT().Delete(gomock.Any(), "s1").Return(storage.AckAccepted, nil)
		d.EXPECT().Get(gomock.Any(), "s1").Return(record("s1", "DORMANT"), nil).AnyTimes()
		v := volatile.New(tally.NoopScope)
		require.NoError(t, v.Put(ctx, record("s1", "DORMANT")))
		s := newTestSync(t, Config{CommitWaitMs: 100}, d, v)

		report := s.DeleteSession(ctx, "s1")
		assert.False(t, report.OK())
		assert.Equal(t, OutcomeMismatch, report.Results[0].Outcome)
		assert.Equal(t, OutcomeMismatch, report.Results[1].Outcome)
		assert.Error(t, report.Err())

		_, err := v.Get(ctx, "s1")
		assert.NoError(t, err)
	})

	t.Run("verification mismatch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		d := newDurable(t, time.Second)
		v := mockLayer(ctrl, "volatile", storage.TierVolatile)
		v.EXPECT().Delete(gomock.Any(), "s1").Return(storage.AckCommitted, nil)
		v.EXPECT().Get(gomock.Any(), "s1").Return(record("s1", "DORMANT"), nil)
		s := newTestSync(t, Config{}, d, v)

		report := s.DeleteSession(ctx, "s1")
		assert.False(t, report.OK())
		assert.Equal(t, OutcomeAlreadyAbsent, report.Results[0].Outcome)
		assert.Equal(t, OutcomeMismatch, report.Results[1].Outcome)
		var mismatch *errors.VerificationMismatchError
		assert.ErrorAs(t, report.Results[1].Err, &mismatch)
	})

	t.Run("compaction keeps preferences", func(t *testing.T) {
		d := newDurable(t, time.Second)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{CompactOnEmpty: true}, d, v)

		require.NoError(t, s.SetPreference(ctx, entity.PreferenceAutoRestore, entity.PreferenceEnabled))
		s.Enqueue(record("s1", "DORMANT"))
		report := s.DeleteSession(ctx, "s1")
		assert.True(t, report.OK())
		require.NotNil(t, report.Compaction)
		assert.Equal(t, OutcomeWiped, report.Compaction.Outcome)

		p, err := s.GetPreference(ctx, entity.PreferenceAutoRestore)
		require.NoError(t, err)
		assert.Equal(t, entity.PreferenceEnabled, p)
	})

	t.Run("cancelled caller", func(t *testing.T) {
		d := newDurable(t, time.Second)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{}, d, v)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		report := s.DeleteSession(cctx, "s1")
		assert.False(t, report.OK())
		assert.ErrorIs(t, report.Err(), context.Canceled)
		require.NoError(t, s.Flush(ctx))
	})
}

func TestWipe(t *testing.T) {
	ctx := context.Background()

	t.Run("closes own handle first", func(t *testing.T) {
		d := newDurable(t, time.Second)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{}, d, v)

		s.Enqueue(record("s1", "DORMANT"))
		require.NoError(t, s.Flush(ctx))
		require.True(t, d.IsOpen())

		report := s.Wipe(ctx)
		assert.True(t, report.OK())
		for _, l := range []storage.Layer{d, v} {
			n, err := l.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		}
	})

	t.Run("blocked by foreign handle", func(t *testing.T) {
		d := newDurable(t, 50*time.Millisecond)
		v := volatile.New(tally.NoopScope)
		s := newTestSync(t, Config{}, d, v)

		db, err := bolt.Open(d.Path(), 0o600, &bolt.Options{Timeout: time.Second})
		require.NoError(t, err)
		defer db.Close()

		report := s.Wipe(ctx)
		assert.False(t, report.OK())
		require.Len(t, report.Results, 2)
		assert.Equal(t, OutcomeBlocked, report.Results[0].Outcome)
		var blocked *errors.BlockedOperationError
		assert.ErrorAs(t, report.Results[0].Err, &blocked)
		assert.Equal(t, OutcomeWiped, report.Results[1].Outcome)
	})
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("durable first", func(t *testing.T) {
		d := newDurable(t, time.Second)
		v := volatile.New(tally.NoopScope)
		require.NoError(t, d.Put(ctx, record("d1", "DORMANT")))
		require.NoError(t, v.Put(ctx, record("v1", "DORMANT")))
		s := newTestSync(t, Config{}, d, v)

		records, err := s.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "d1", records[0].ID)
	})

	t.Run("volatile fallback", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		d := mockLayer(ctrl, "durable", storage.TierDurable)
		d.EXPECT().List(gomock.Any()).Return(nil, errors.New("corrupt file"))
		v := volatile.New(tally.NoopScope)
		require.NoError(t, v.Put(ctx, record("v1", "DORMANT")))
		s := newTestSync(t, Config{}, d, v)

		records, err := s.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "v1", records[0].ID)
	})
}

func TestStatsAndClose(t *testing.T) {
	ctx := context.Background()
	d := newDurable(t, time.Second)
	v := volatile.New(tally.NoopScope)
	s := newTestSync(t, Config{}, d, v)

	s.Enqueue(record("s1", "DORMANT"))
	require.NoError(t, s.Flush(ctx))

	stats := s.Stats(ctx)
	assert.Equal(t, []LayerCount{
		{Layer: "durable", Tier: "durable", Count: 1},
		{Layer: "volatile", Tier: "volatile", Count: 1},
	}, stats)

	require.NoError(t, s.Close(ctx))
	s.Enqueue(record("s2", "DORMANT"))
	n, err := v.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	report := s.DeleteSession(ctx, "s1")
	assert.False(t, report.OK())
}
