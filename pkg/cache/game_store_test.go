package cache

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"quizmas-service/config"
	"quizmas-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDocPath(t *testing.T) {
	p, err := splitDocPath("games/123456/players/p1/score")
	require.NoError(t, err)
	assert.Equal(t, "games:123456", p.key)
	assert.Equal(t, []string{"players", "p1", "score"}, p.rest)

	_, err = splitDocPath("games")
	assert.ErrorIs(t, err, store.ErrInvalidPath)
}

func TestSnapshotOfNestedPath(t *testing.T) {
	change := changeMessage{Rev: 3, Exists: true, Data: json.RawMessage(`{"status":"reveal","players":{"p1":{"score":10}}}`)}

	snap := snapshotOf("games/1/players/p1", []string{"players", "p1"}, change)
	require.True(t, snap.Exists)
	assert.JSONEq(t, `{"score":10}`, string(snap.Data))

	snap = snapshotOf("games/1/players/p2", []string{"players", "p2"}, change)
	assert.False(t, snap.Exists)

	snap = snapshotOf("games/1", nil, changeMessage{Rev: 4})
	assert.False(t, snap.Exists)
}

// newTestStore connects to the Redis instance named by REDIS_TEST_HOST.
func newTestStore(t *testing.T) *GameStore {
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}
	port := os.Getenv("REDIS_TEST_PORT")
	if port == "" {
		port = "6379"
	}
	client, err := NewRedisClient(&config.RedisConfig{Host: host, Port: port, DB: 15})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewGameStore(client, time.Minute)
}

func TestGameStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pin := "990001"
	t.Cleanup(func() { s.Delete(context.Background(), store.GamePath(pin)) })

	require.NoError(t, s.Write(ctx, store.GamePath(pin), map[string]any{"pin": pin, "status": "lobby"}))
	require.NoError(t, s.UpdateFields(ctx, map[string]any{
		store.GameFieldPath(pin, "status"):            "question",
		store.PlayerFieldPath(pin, "p1", "score"): 1375,
	}))

	raw, ok, err := s.Read(ctx, store.GamePath(pin))
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"pin":"990001","status":"question","players":{"p1":{"score":1375}}}`, string(raw))

	created, err := s.WriteIfAbsent(ctx, store.AnswerPath(pin, 0, "p1"), map[string]any{"value": 1})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.WriteIfAbsent(ctx, store.AnswerPath(pin, 0, "p1"), map[string]any{"value": 2})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestGameStoreSubscribeSeesDeletion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pin := "990002"
	require.NoError(t, s.Write(ctx, store.GamePath(pin), map[string]any{"status": "lobby"}))

	var mu sync.Mutex
	var snaps []store.Snapshot
	sub, err := s.Subscribe(ctx, store.GamePath(pin), func(snap store.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, snap)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, s.Delete(ctx, store.GamePath(pin)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snaps) >= 2 && snaps[0].Exists && !snaps[len(snaps)-1].Exists
	}, 2*time.Second, 10*time.Millisecond)
}
