package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/courseforge/internal/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSessionStore_HistoryAndDraft(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	store := NewSessionStore(rdb, time.Hour)

	require.NoError(t, store.AppendHistory(ctx, "s1",
		domain.ChatTurn{Role: domain.TurnUser, Content: "make a course"},
		domain.ChatTurn{Role: domain.TurnAssistant, Content: "{}"},
	))

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "make a course", history[0].Content)
	assert.Equal(t, domain.TurnAssistant, history[1].Role)

	_, ok, err := store.Draft(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetDraft(ctx, "s1", map[string]any{"title": "Go"}))
	d, ok, err := store.Draft(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Go", d["title"])
	assert.Equal(t, time.Hour, mr.TTL(draftKey("s1")))

	mr.FastForward(2 * time.Hour)
	_, ok, err = store.Draft(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_ClearAndDelete(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	store := NewSessionStore(rdb, time.Hour)

	require.NoError(t, store.SetDraft(ctx, "s1", map[string]any{"title": "Go"}))
	require.NoError(t, store.ClearDraft(ctx, "s1"))
	_, ok, _ := store.Draft(ctx, "s1")
	assert.False(t, ok)

	require.NoError(t, store.AppendHistory(ctx, "s1", domain.ChatTurn{Role: domain.TurnUser, Content: "x"}))
	require.NoError(t, store.Delete(ctx, "s1"))
	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAuthSessionCache_SlidingExpiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	sessions := NewAuthSessionCache(rdb, 24*time.Hour)

	require.NoError(t, sessions.Create(ctx, "sid-1", 42))

	mr.FastForward(20 * time.Hour)
	id, err := sessions.Resolve(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, 24*time.Hour, mr.TTL(authKey("sid-1")))

	require.NoError(t, sessions.Destroy(ctx, "sid-1"))
	_, err = sessions.Resolve(ctx, "sid-1")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
