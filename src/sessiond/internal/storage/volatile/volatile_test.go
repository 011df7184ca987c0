package volatile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage"
	"github.com/tabvault/sessiond/src/sessiond/model"
	"github.com/uber-go/tally"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLayer(t *testing.T) {
	ctx := context.Background()
	testScope := tally.NewTestScope("testing", make(map[string]string, 0))
	l := New(testScope)

	assert.Equal(t, "volatile", l.Name())
	assert.Equal(t, storage.TierVolatile, l.Tier())

	t.Run("should Put and Get successfully", func(t *testing.T) {
		rec := &model.Record{ID: "s1", State: "DORMANT", CreatedAt: time.Unix(100, 0).UTC()}
		require.NoError(t, l.Put(ctx, rec))

		got, err := l.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.CreatedAt, got.CreatedAt)

		// Mutating the caller's copy does not leak into the layer.
		rec.State = "ACTIVE"
		got, err = l.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "DORMANT", got.State)
	})

	t.Run("should fail to Put nil", func(t *testing.T) {
		assert.Error(t, l.Put(ctx, nil))
	})

	t.Run("should report missing records", func(t *testing.T) {
		_, err := l.Get(ctx, "missing")
		assert.ErrorIs(t, err, errors.ErrRecordNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, l.Put(ctx, &model.Record{ID: "s2"}))

		ack, err := l.Delete(ctx, "s2")
		assert.NoError(t, err)
		assert.Equal(t, storage.AckCommitted, ack)

		ack, err = l.Delete(ctx, "s2")
		assert.ErrorIs(t, err, errors.ErrRecordNotFound)
		assert.Equal(t, storage.AckCommitted, ack)
	})

	t.Run("list count and wipe", func(t *testing.T) {
		require.NoError(t, l.Put(ctx, &model.Record{ID: "s3"}))
		count, err := l.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		records, err := l.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 2)

		require.NoError(t, l.(storage.Wiper).Wipe(ctx))
		count, err = l.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}
