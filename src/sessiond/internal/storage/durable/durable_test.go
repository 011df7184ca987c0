package durable

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/internal/fs"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage"
	"github.com/tabvault/sessiond/src/sessiond/model"
	"github.com/uber-go/tally"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T, blockedWait time.Duration) *Store {
	t.Helper()
	s := New(Options{
		Path:        filepath.Join(t.TempDir(), "sessions.db"),
		OpenTimeout: 100 * time.Millisecond,
		BlockedWait: blockedWait,
	}, zap.NewNop().Sugar(), tally.NoopScope)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	provider, err := config.NewStaticProvider(map[string]interface{}{
		"storage": map[string]interface{}{
			"durable": map[string]interface{}{
				"dir":           filepath.Join(dir, "data"),
				"file":          "test.db",
				"blockedWaitMs": 250,
			},
		},
	})
	require.NoError(t, err)

	lc := fxtest.NewLifecycle(t)
	s, err := NewFromConfig(Params{
		Config:    provider,
		Lifecycle: lc,
		Logger:    zap.NewNop().Sugar(),
		Stats:     tally.NoopScope,
		FS:        fs.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "test.db"), s.Path())
	assert.Equal(t, 250*time.Millisecond, s.opts.BlockedWait)
	assert.Equal(t, _defaultOpenTimeout, s.opts.OpenTimeout)

	lc.RequireStart()
	require.NoError(t, s.Put(context.Background(), &model.Record{ID: "s1"}))
	assert.True(t, s.IsOpen())
	lc.RequireStop()
	assert.False(t, s.IsOpen())
}

func TestStoreRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Second)

	assert.Equal(t, "durable", s.Name())
	assert.Equal(t, storage.TierDurable, s.Tier())
	assert.False(t, s.IsOpen(), "handle is opened lazily")

	rec := &model.Record{
		ID:             "s1",
		State:          string(entity.StateDormant),
		PersistedUnits: []model.PersistedUnit{},
		CookieJar: map[string][]model.Cookie{
			"example.com": {{Name: "a", Value: "1", Domain: "example.com", Path: "/"}},
		},
	}
	require.NoError(t, s.Put(ctx, rec))
	assert.True(t, s.IsOpen())

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, got.PersistedUnits, "empty persisted units survive a round trip")
	assert.Empty(t, got.PersistedUnits)
	assert.Equal(t, "1", got.CookieJar["example.com"][0].Value)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	ack, err := s.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, storage.AckCommitted, ack)

	ack, err = s.Delete(ctx, "s1")
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)
	assert.Equal(t, storage.AckCommitted, ack)

	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)
}

func TestStoreLazyReopen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Second)

	require.NoError(t, s.Put(ctx, &model.Record{ID: "s1"}))
	require.NoError(t, s.Close(ctx))
	assert.False(t, s.IsOpen())
	require.NoError(t, s.Close(ctx), "closing a closed handle is a no-op")

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.True(t, s.IsOpen())
}

func TestStoreWipe(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses while own handle is open", func(t *testing.T) {
		s := newTestStore(t, time.Second)
		require.NoError(t, s.Put(ctx, &model.Record{ID: "s1"}))

		err := s.Wipe(ctx)
		var blocked *errors.BlockedOperationError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, "wipe", blocked.Op)

		got, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", got.ID)
	})

	t.Run("succeeds after close", func(t *testing.T) {
		s := newTestStore(t, time.Second)
		require.NoError(t, s.Put(ctx, &model.Record{ID: "s1"}))
		require.NoError(t, s.Close(ctx))

		require.NoError(t, s.Wipe(ctx))
		_, err := os.Stat(s.Path())
		assert.True(t, os.IsNotExist(err))

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("reports blocked when another handle holds the file", func(t *testing.T) {
		wait := 150 * time.Millisecond
		s := newTestStore(t, wait)
		require.NoError(t, s.Put(ctx, &model.Record{ID: "s1"}))
		require.NoError(t, s.Close(ctx))

		other, err := bolt.Open(s.Path(), 0o600, &bolt.Options{Timeout: time.Second})
		require.NoError(t, err)
		defer other.Close()

		err = s.Wipe(ctx)
		var blocked *errors.BlockedOperationError
		require.ErrorAs(t, err, &blocked)
		assert.GreaterOrEqual(t, blocked.Waited, wait)

		_, err = os.Stat(s.Path())
		assert.NoError(t, err, "file must survive a blocked wipe")
	})
}

func TestStorePreferences(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Second)

	p, err := s.GetPreference(ctx, entity.PreferenceAutoRestore)
	require.NoError(t, err)
	assert.Equal(t, entity.PreferenceUnset, p)
	assert.False(t, p.Effective())

	require.NoError(t, s.SetPreference(ctx, entity.PreferenceAutoRestore, entity.PreferenceEnabled))
	p, err = s.GetPreference(ctx, entity.PreferenceAutoRestore)
	require.NoError(t, err)
	assert.Equal(t, entity.PreferenceEnabled, p)

	require.NoError(t, s.SetPreference(ctx, entity.PreferenceAutoRestore, entity.PreferenceUnset))
	p, err = s.GetPreference(ctx, entity.PreferenceAutoRestore)
	require.NoError(t, err)
	assert.Equal(t, entity.PreferenceUnset, p)

	require.NoError(t, s.update("test", func(tx *bolt.Tx) error {
		return tx.Bucket(_bucketPreferences).Put([]byte(entity.PreferenceAutoRestore), []byte("yes"))
	}))
	p, err = s.GetPreference(ctx, entity.PreferenceAutoRestore)
	var corrupt *errors.CorruptPreferenceError
	assert.ErrorAs(t, err, &corrupt)
	assert.Equal(t, entity.PreferenceDisabled, p)
}
