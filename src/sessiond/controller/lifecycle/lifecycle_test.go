package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/sessiond/src/sessiond/controller/persistence"
	"github.com/tabvault/sessiond/src/sessiond/controller/persistence/persistencemock"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/factory"
	"github.com/tabvault/sessiond/src/sessiond/gateway/policy"
	"github.com/tabvault/sessiond/src/sessiond/gateway/units/unitsmock"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/repository/session"
	"github.com/uber-go/tally"
	"go.uber.org/config"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var _now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	m        *manager
	sessions session.Repository
	sync     *persistencemock.MockSynchronizer
	units    *unitsmock.MockGateway
}

func newFixture(t *testing.T, pol entity.Policy) *fixture {
	ctrl := gomock.NewController(t)
	sync := persistencemock.NewMockSynchronizer(ctrl)
	sync.EXPECT().Enqueue(gomock.Any()).AnyTimes()
	stats := tally.NewTestScope("testing", make(map[string]string, 0))
	c := clock.Fixed{At: _now}

	sessions := session.New(session.Params{Sink: sync, Clock: c, Stats: stats})
	gw := unitsmock.NewMockGateway(ctrl)

	cfg, err := config.NewStaticProvider(map[string]interface{}{
		_configKey: map[string]interface{}{
			"freshnessWindowSeconds": 60,
			"clientWaitMs":           10,
			"clientCallMs":           50,
		},
	})
	require.NoError(t, err)

	m, err := New(Params{
		Sessions: sessions,
		Sync:     sync,
		Policy:   policy.NewStatic(pol),
		Units:    gw,
		Config:   cfg,
		Logger:   zap.NewNop().Sugar(),
		Stats:    stats,
		Clock:    c,
	})
	require.NoError(t, err)
	return &fixture{m: m.(*manager), sessions: sessions, sync: sync, units: gw}
}

func okReport(id entity.SessionID) persistence.DeleteReport {
	return persistence.DeleteReport{
		SessionID: string(id),
		Results: []persistence.LayerResult{
			{Layer: "durable", Tier: "durable", Outcome: persistence.OutcomeDeleted},
			{Layer: "volatile", Tier: "volatile", Outcome: persistence.OutcomeDeleted},
		},
	}
}

func orphan(id int, age time.Duration) *entity.Session {
	s := factory.Session(id, 0, _now.Add(-age))
	s.PersistedUnits = nil
	return s
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.NewStaticProvider(map[string]interface{}{})
		require.NoError(t, err)
		m, err := New(Params{
			Config: cfg,
			Logger: zap.NewNop().Sugar(),
			Stats:  tally.NoopScope,
			Clock:  clock.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, _defaultFreshnessWindow, m.(*manager).freshness)
		assert.Equal(t, _defaultClientWait, m.(*manager).clientWait)
		assert.Equal(t, _defaultClientCall, m.(*manager).clientCall)
	})

	t.Run("malformed config", func(t *testing.T) {
		cfg, err := config.NewStaticProvider(map[string]interface{}{
			_configKey: map[string]interface{}{"freshnessWindowSeconds": "soon"},
		})
		require.NoError(t, err)
		_, err = New(Params{Config: cfg, Logger: zap.NewNop().Sugar(), Stats: tally.NoopScope})
		assert.Error(t, err)
	})
}

func TestDetach(t *testing.T) {
	ctx := context.Background()

	t.Run("last unit leaves session dormant with snapshot", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		s, err := f.sessions.Create(ctx, "", 0)
		require.NoError(t, err)
		_, err = f.sessions.AttachUnit(ctx, 1, s.ID, entity.UnitMeta{URL: "https://example.com"})
		require.NoError(t, err)

		out, err := f.m.Detach(ctx, 1)
		require.NoError(t, err)
		assert.True(t, out.Emptied)
		assert.True(t, out.Dormant)
		assert.Nil(t, out.Deleted)

		got, err := f.sessions.GetBySession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateDormant, got.State)
		assert.Equal(t, []entity.PersistedUnit{{URL: "https://example.com"}}, got.PersistedUnits)
	})

	t.Run("other units keep the session active", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		s, _ := f.sessions.Create(ctx, "", 0)
		_, _ = f.sessions.AttachUnit(ctx, 1, s.ID, entity.UnitMeta{})
		_, _ = f.sessions.AttachUnit(ctx, 2, s.ID, entity.UnitMeta{})

		out, err := f.m.Detach(ctx, 1)
		require.NoError(t, err)
		assert.False(t, out.Emptied)
		assert.False(t, out.Dormant)
	})

	t.Run("ephemeral mode deletes the emptied session", func(t *testing.T) {
		f := newFixture(t, entity.Policy{EphemeralMode: true})
		s, _ := f.sessions.Create(ctx, "", 0)
		_, _ = f.sessions.AttachUnit(ctx, 1, s.ID, entity.UnitMeta{URL: "https://example.com"})
		f.sync.EXPECT().DeleteSession(gomock.Any(), string(s.ID)).Return(okReport(s.ID))

		out, err := f.m.Detach(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, out.Deleted)
		assert.True(t, out.Deleted.OK())

		_, err = f.sessions.GetBySession(ctx, s.ID)
		var nf *errors.SessionNotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("unknown unit", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		_, err := f.m.Detach(ctx, 99)
		var nf *errors.UnitNotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestAttach(t *testing.T) {
	ctx := context.Background()
	cart := entity.UnitMeta{URL: "https://shop.example/cart", Title: "Cart"}

	t.Run("moving the last unit leaves the old session dormant with snapshot", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		a, _ := f.sessions.Create(ctx, "", 0)
		b, _ := f.sessions.Create(ctx, "", 0)
		_, err := f.m.Attach(ctx, 1, a.ID, cart)
		require.NoError(t, err)

		out, err := f.m.Attach(ctx, 1, b.ID, cart)
		require.NoError(t, err)
		assert.Equal(t, b.ID, out.Session.ID)
		require.NotNil(t, out.Left)
		assert.Equal(t, a.ID, out.Left.SessionID)
		assert.True(t, out.Left.Dormant)

		got, err := f.sessions.GetBySession(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateDormant, got.State)
		assert.Equal(t, []entity.PersistedUnit{{URL: cart.URL, Title: cart.Title}}, got.PersistedUnits)
	})

	t.Run("ephemeral mode deletes the session a unit moved out of", func(t *testing.T) {
		f := newFixture(t, entity.Policy{EphemeralMode: true})
		a, _ := f.sessions.Create(ctx, "", 0)
		b, _ := f.sessions.Create(ctx, "", 0)
		_, err := f.m.Attach(ctx, 1, a.ID, cart)
		require.NoError(t, err)
		f.sync.EXPECT().DeleteSession(gomock.Any(), string(a.ID)).Return(okReport(a.ID))

		out, err := f.m.Attach(ctx, 1, b.ID, cart)
		require.NoError(t, err)
		require.NotNil(t, out.Left)
		require.NotNil(t, out.Left.Deleted)
		assert.True(t, out.Left.Deleted.OK())

		_, err = f.sessions.GetBySession(ctx, a.ID)
		var nf *errors.SessionNotFoundError
		assert.ErrorAs(t, err, &nf)
		assert.Equal(t, 1, f.sessions.Count(ctx))
	})

	t.Run("old session with other units stays active", func(t *testing.T) {
		f := newFixture(t, entity.Policy{EphemeralMode: true})
		a, _ := f.sessions.Create(ctx, "", 0)
		b, _ := f.sessions.Create(ctx, "", 0)
		_, _ = f.m.Attach(ctx, 1, a.ID, cart)
		_, _ = f.m.Attach(ctx, 2, a.ID, cart)

		out, err := f.m.Attach(ctx, 1, b.ID, cart)
		require.NoError(t, err)
		require.NotNil(t, out.Left)
		assert.False(t, out.Left.Emptied)
		got, err := f.sessions.GetBySession(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateActive, got.State)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		_, err := f.m.Attach(ctx, 1, "missing", cart)
		var nf *errors.SessionNotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, entity.Policy{})

	fresh := orphan(1, 15*time.Second)
	stale := orphan(2, 120*time.Second)
	preserved := factory.Session(3, 2, _now.Add(-24*time.Hour))
	f.sessions.Load(ctx, []*entity.Session{fresh, stale, preserved})

	c := f.m.Classify(ctx)
	assert.Equal(t, []entity.SessionID{preserved.ID}, c.Preserved)
	assert.Equal(t, []entity.SessionID{fresh.ID}, c.Recovered)
	assert.Equal(t, []entity.SessionID{stale.ID}, c.Ephemeral)

	got, err := f.sessions.GetBySession(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateDormant, got.State)
	assert.NotNil(t, got.PersistedUnits)
	assert.Empty(t, got.PersistedUnits)

	// Classification never deletes.
	assert.Equal(t, 3, f.sessions.Count(ctx))

	t.Run("freshness window is exclusive", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		edge := orphan(1, 60*time.Second)
		inside := orphan(2, 60*time.Second-time.Millisecond)
		f.sessions.Load(ctx, []*entity.Session{edge, inside})

		c := f.m.Classify(ctx)
		assert.Equal(t, []entity.SessionID{inside.ID}, c.Recovered)
		assert.Equal(t, []entity.SessionID{edge.ID}, c.Ephemeral)
	})

	t.Run("empty persisted units are classified like none", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		s := orphan(1, time.Hour)
		s.PersistedUnits = []entity.PersistedUnit{}
		f.sessions.Load(ctx, []*entity.Session{s})

		c := f.m.Classify(ctx)
		assert.Equal(t, []entity.SessionID{s.ID}, c.Ephemeral)
	})
}

func TestRecover(t *testing.T) {
	ctx := context.Background()

	t.Run("stale orphan is deleted and the rest kept", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		fresh := orphan(1, 15*time.Second)
		stale := orphan(2, 120*time.Second)
		preserved := factory.Session(3, 1, _now.Add(-24*time.Hour))
		f.sessions.Load(ctx, []*entity.Session{fresh, stale, preserved})

		f.units.EXPECT().WaitForClient(gomock.Any()).Return(context.DeadlineExceeded)
		f.sync.EXPECT().DeleteSession(gomock.Any(), string(stale.ID)).Return(okReport(stale.ID))
		f.sync.EXPECT().GetPreference(gomock.Any(), entity.PreferenceAutoRestore).Return(entity.PreferenceUnset, nil)

		report, err := f.m.Recover(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Attached)
		require.Len(t, report.Deleted, 1)
		assert.Equal(t, string(stale.ID), report.Deleted[0].SessionID)
		assert.Empty(t, report.Restored)
		assert.Equal(t, 2, f.sessions.Count(ctx))
	})

	t.Run("live units attach before classification", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		stale := orphan(1, time.Hour)
		f.sessions.Load(ctx, []*entity.Session{stale})

		f.units.EXPECT().WaitForClient(gomock.Any()).Return(nil)
		f.units.EXPECT().Query(gomock.Any()).Return([]entity.Unit{
			{ID: 4, SessionID: stale.ID, Meta: entity.UnitMeta{URL: "https://a.test"}},
		}, nil)
		f.sync.EXPECT().GetPreference(gomock.Any(), entity.PreferenceAutoRestore).Return(entity.PreferenceUnset, nil)

		report, err := f.m.Recover(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Attached)
		assert.Empty(t, report.Classification.Ephemeral)
		assert.Empty(t, report.Deleted)
	})
}

func TestDeleteEphemeralRechecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, entity.Policy{})
	s := orphan(1, time.Hour)
	f.sessions.Load(ctx, []*entity.Session{s})

	c := f.m.Classify(ctx)
	require.Equal(t, []entity.SessionID{s.ID}, c.Ephemeral)

	_, err := f.sessions.AttachUnit(ctx, 5, s.ID, entity.UnitMeta{})
	require.NoError(t, err)

	assert.Empty(t, f.m.DeleteEphemeral(ctx, c.Ephemeral))
	assert.Equal(t, 1, f.sessions.Count(ctx))
}

func TestAutoRestore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		pref     entity.Preference
		prefErr  error
		eligible bool
		restore  bool
	}{
		{name: "enabled and eligible", pref: entity.PreferenceEnabled, eligible: true, restore: true},
		{name: "unset preference", pref: entity.PreferenceUnset, eligible: true},
		{name: "disabled preference", pref: entity.PreferenceDisabled, eligible: true},
		{name: "policy not eligible", pref: entity.PreferenceEnabled},
		{name: "corrupt preference", prefErr: &errors.CorruptPreferenceError{Key: "autoRestore", Raw: []byte("maybe")}, eligible: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, entity.Policy{AutoRestoreEligible: tt.eligible})
			s := factory.Session(1, 2, _now)
			f.sessions.Load(ctx, []*entity.Session{s})
			f.sync.EXPECT().GetPreference(gomock.Any(), entity.PreferenceAutoRestore).Return(tt.pref, tt.prefErr)
			if tt.restore {
				f.units.EXPECT().Open(gomock.Any(), s.ID, s.PersistedUnits).Return([]entity.UnitID{11, 12}, nil)
			}

			restored, err := f.m.AutoRestore(ctx)
			require.NoError(t, err)
			if !tt.restore {
				assert.Empty(t, restored)
				return
			}
			assert.Equal(t, []entity.SessionID{s.ID}, restored)
			got, err := f.sessions.GetBySession(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.StateActive, got.State)
			assert.Equal(t, []entity.UnitID{11, 12}, got.Members())
			u, err := f.sessions.Unit(ctx, 12)
			require.NoError(t, err)
			assert.Equal(t, s.PersistedUnits[1].URL, u.Meta.URL)
		})
	}

	t.Run("storage error", func(t *testing.T) {
		f := newFixture(t, entity.Policy{AutoRestoreEligible: true})
		f.sync.EXPECT().GetPreference(gomock.Any(), entity.PreferenceAutoRestore).Return(entity.PreferenceUnset, errors.New("io"))
		_, err := f.m.AutoRestore(ctx)
		assert.Error(t, err)
	})
}

func TestRestoreSession(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to restore", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		s := factory.Session(1, 0, _now)
		f.sessions.Load(ctx, []*entity.Session{s})
		ids, err := f.m.RestoreSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("open failure", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		s := factory.Session(1, 1, _now)
		f.sessions.Load(ctx, []*entity.Session{s})
		f.units.EXPECT().Open(gomock.Any(), s.ID, gomock.Any()).Return(nil, errors.New("client gone"))
		_, err := f.m.RestoreSession(ctx, s.ID)
		assert.ErrorContains(t, err, "client gone")
	})

	t.Run("client that never answers", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		s := factory.Session(1, 1, _now)
		f.sessions.Load(ctx, []*entity.Session{s})
		f.units.EXPECT().Open(gomock.Any(), s.ID, gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ entity.SessionID, _ []entity.PersistedUnit) ([]entity.UnitID, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})
		_, err := f.m.RestoreSession(ctx, s.ID)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		_, err := f.m.RestoreSession(ctx, "missing")
		var nf *errors.SessionNotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("matches by url then origin", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		a := factory.Session(1, 0, _now)
		a.PersistedUnits = []entity.PersistedUnit{{URL: "https://mail.test/inbox"}}
		b := factory.Session(2, 0, _now)
		b.PersistedUnits = []entity.PersistedUnit{{URL: "https://shop.test/cart"}}
		f.sessions.Load(ctx, []*entity.Session{a, b})

		f.units.EXPECT().WaitForClient(gomock.Any()).Return(nil)
		f.units.EXPECT().Query(gomock.Any()).Return([]entity.Unit{
			{ID: 1, Meta: entity.UnitMeta{URL: "https://shop.test/checkout"}},
			{ID: 2, Meta: entity.UnitMeta{URL: "https://mail.test/inbox"}},
			{ID: 3, Meta: entity.UnitMeta{URL: "https://unrelated.test/"}},
		}, nil)

		n, err := f.m.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := f.sessions.GetByUnit(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
		got, err = f.sessions.GetByUnit(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		_, err = f.sessions.GetByUnit(ctx, 3)
		var ns *errors.NoSessionError
		assert.ErrorAs(t, err, &ns)
	})

	t.Run("no client", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		f.units.EXPECT().WaitForClient(gomock.Any()).Return(context.DeadlineExceeded)
		n, err := f.m.Reconcile(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("query that never answers is abandoned", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		f.units.EXPECT().WaitForClient(gomock.Any()).Return(nil)
		f.units.EXPECT().Query(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]entity.Unit, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			<-ctx.Done()
			return nil, ctx.Err()
		})

		done := make(chan error, 1)
		go func() {
			_, err := f.m.Reconcile(ctx)
			done <- err
		}()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		case <-time.After(time.Second):
			t.Fatal("reconciliation did not give up on the client")
		}
	})

	t.Run("query failure", func(t *testing.T) {
		f := newFixture(t, entity.Policy{})
		f.units.EXPECT().WaitForClient(gomock.Any()).Return(nil)
		f.units.EXPECT().Query(gomock.Any()).Return(nil, errors.New("boom"))
		_, err := f.m.Reconcile(ctx)
		assert.Error(t, err)
	})
}

func TestMatch(t *testing.T) {
	pool := []*candidate{
		{sessionID: "a", url: "https://x.test/1", origin: origin("https://x.test/1")},
		{sessionID: "b", url: "https://x.test/2", origin: origin("https://x.test/2")},
	}
	assert.Equal(t, entity.SessionID("b"), match(pool, "https://x.test/2"))
	assert.Equal(t, entity.SessionID("a"), match(pool, "https://x.test/other"))
	assert.Equal(t, entity.SessionID(""), match(pool, "https://x.test/again"))
	assert.Equal(t, entity.SessionID(""), match(pool, ""))
	assert.Equal(t, "http://plain.test", origin("http://plain.test/a"))
}
