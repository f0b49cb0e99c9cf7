package domains

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/session"
)

func newService(t *testing.T) (*Service, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewService(store, NewBus(), logger, nil), store
}

func seedSession(t *testing.T, store *session.MemoryStore, selected int64) *session.Session {
	t.Helper()
	sess := &session.Session{
		ID:               "sess-1",
		Email:            "ops@novaflow.local",
		ExpiresAt:        time.Now().Add(time.Hour),
		SelectedDomainID: selected,
	}
	require.NoError(t, store.Put(context.Background(), sess))
	return sess
}

func twoDomainProfile() *auth.UserProfile {
	return &auth.UserProfile{
		Email: "ops@novaflow.local",
		Domains: []auth.UserDomain{
			{ID: 10, Code: "FIN", Name: "Finance"},
			{ID: 20, Code: "OPS", Name: "Operations"},
		},
	}
}

func TestLoadUserDomains_EmptySetFallsBackToAdmin(t *testing.T) {
	got := LoadUserDomains(&auth.UserProfile{Email: "new@novaflow.local"})
	require.Len(t, got, 1)
	assert.Equal(t, FallbackDomain, got[0])

	got = LoadUserDomains(nil)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "ADMIN", got[0].Code)
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("saved selection still available wins", func(t *testing.T) {
		svc, store := newService(t)
		sess := seedSession(t, store, 20)

		d, err := svc.Resolve(ctx, sess, twoDomainProfile())
		require.NoError(t, err)
		assert.Equal(t, "OPS", d.Code)
	})

	t.Run("no saved selection picks the first and persists it", func(t *testing.T) {
		svc, store := newService(t)
		sess := seedSession(t, store, 0)

		d, err := svc.Resolve(ctx, sess, twoDomainProfile())
		require.NoError(t, err)
		assert.Equal(t, "FIN", d.Code)

		stored, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.SelectedDomainID)
	})

	t.Run("stale saved selection falls back to the first", func(t *testing.T) {
		svc, store := newService(t)
		sess := seedSession(t, store, 99)

		d, err := svc.Resolve(ctx, sess, twoDomainProfile())
		require.NoError(t, err)
		assert.Equal(t, "FIN", d.Code)

		stored, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.SelectedDomainID)
	})

	t.Run("empty profile resolves to the synthetic admin domain", func(t *testing.T) {
		svc, store := newService(t)
		sess := seedSession(t, store, 0)

		d, err := svc.Resolve(ctx, sess, &auth.UserProfile{Email: sess.Email})
		require.NoError(t, err)
		assert.Equal(t, FallbackDomain, d)
	})
}

func TestService_Select(t *testing.T) {
	ctx := context.Background()

	t.Run("persists before broadcasting", func(t *testing.T) {
		svc, store := newService(t)
		sess := seedSession(t, store, 10)

		// The subscriber reads the store the moment it hears the event; the
		// persisted value must already match.
		events, cancel := svc.Bus().Subscribe()
		defer cancel()

		d, err := svc.Select(ctx, sess, twoDomainProfile(), 20)
		require.NoError(t, err)
		assert.Equal(t, "OPS", d.Code)

		select {
		case sel := <-events:
			assert.Equal(t, int64(20), sel.DomainID)
			stored, err := store.Get(ctx, sel.SessionID)
			require.NoError(t, err)
			assert.Equal(t, int64(20), stored.SelectedDomainID)
		case <-time.After(time.Second):
			t.Fatal("no selection event delivered")
		}
	})

	t.Run("selecting the current domain is idempotent and silent", func(t *testing.T) {
		svc, store := newService(t)
		sess := seedSession(t, store, 10)

		events, cancel := svc.Bus().Subscribe()
		defer cancel()

		d, err := svc.Select(ctx, sess, twoDomainProfile(), 10)
		require.NoError(t, err)
		assert.Equal(t, "FIN", d.Code)

		select {
		case <-events:
			t.Fatal("re-selecting the same domain must not broadcast")
		default:
		}

		stored, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.SelectedDomainID)
	})

	t.Run("selection outside the membership set is refused", func(t *testing.T) {
		svc, store := newService(t)
		sess := seedSession(t, store, 10)

		_, err := svc.Select(ctx, sess, twoDomainProfile(), 77)
		assert.ErrorIs(t, err, ErrNotMember)

		stored, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.SelectedDomainID, "refused selection must not change the store")
	})
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()
	defer cancel()

	// Fill past the channel buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Selection{DomainID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBus_CancelRemovesSubscription(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()
	require.Equal(t, 1, bus.Len())
	cancel()
	assert.Zero(t, bus.Len())
	// Double cancel is safe.
	cancel()
}
