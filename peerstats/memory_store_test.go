package peerstats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("accumulates outcomes", func(t *testing.T) {
		s := NewMemoryStore(cache.NoExpiration, time.Minute)

		require.NoError(t, s.Record(ctx, "10.0.0.2", Outcome{Completed: true, Regions: 4}))
		require.NoError(t, s.Record(ctx, "10.0.0.2", Outcome{Regions: 1, Reason: "short_read"}))

		c, err := s.Get(ctx, "10.0.0.2")
		require.NoError(t, err)
		assert.Equal(t, Counters{Completed: 1, Aborted: 1, Regions: 5, LastReason: "short_read"}, c)
	})

	t.Run("unknown peer", func(t *testing.T) {
		s := NewMemoryStore(cache.NoExpiration, time.Minute)
		_, err := s.Get(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent records do not lose updates", func(t *testing.T) {
		s := NewMemoryStore(cache.NoExpiration, time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Record(ctx, "peer", Outcome{Completed: true, Regions: 2})
			}()
		}
		wg.Wait()

		c, err := s.Get(ctx, "peer")
		require.NoError(t, err)
		assert.Equal(t, int64(50), c.Completed)
		assert.Equal(t, int64(100), c.Regions)
	})

	t.Run("entries expire", func(t *testing.T) {
		s := NewMemoryStore(20*time.Millisecond, time.Minute)
		require.NoError(t, s.Record(ctx, "peer", Outcome{Completed: true}))

		time.Sleep(40 * time.Millisecond)
		_, err := s.Get(ctx, "peer")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := NewMemoryStore(cache.NoExpiration, time.Minute)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, s.Record(cctx, "peer", Outcome{}), context.Canceled)
		_, err := s.Get(cctx, "peer")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, s.Delete(cctx, "peer"), context.Canceled)
		_, err = s.Peers(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryStore_PeersAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(cache.NoExpiration, time.Minute)

	for _, p := range []string{"c", "a", "b"} {
		require.NoError(t, s.Record(ctx, p, Outcome{Completed: true}))
	}

	peers, err := s.Peers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, peers)

	require.NoError(t, s.Delete(ctx, "b"))
	require.NoError(t, s.Delete(ctx, "missing"))

	peers, err = s.Peers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, peers)
}
