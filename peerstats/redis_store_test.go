package peerstats

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCounters(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		c, err := parseCounters(map[string]string{
			fieldCompleted:  "3",
			fieldAborted:    "2",
			fieldRegions:    "40",
			fieldLastReason: "timeout",
		})
		require.NoError(t, err)
		assert.Equal(t, Counters{Completed: 3, Aborted: 2, Regions: 40, LastReason: "timeout"}, c)
	})

	t.Run("missing fields default to zero", func(t *testing.T) {
		c, err := parseCounters(map[string]string{fieldAborted: "1"})
		require.NoError(t, err)
		assert.Equal(t, Counters{Aborted: 1}, c)
	})

	t.Run("corrupt numbers", func(t *testing.T) {
		_, err := parseCounters(map[string]string{fieldCompleted: "x", fieldRegions: "1.5"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "completed")
		assert.Contains(t, err.Error(), "regions")
	})
}

func TestNewRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	s := NewRedisStore(client, "", time.Hour)
	assert.Equal(t, DefaultKeyPrefix+"10.0.0.2", s.key("10.0.0.2"))

	s = NewRedisStore(client, "test:", time.Hour)
	assert.Equal(t, "test:peer", s.key("peer"))
}

func TestRedisStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := NewRedisStore(client, "test:", time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.Record(ctx, "peer", Outcome{Completed: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "peerstats: record peer")

	_, err = s.Get(ctx, "peer")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Delete(ctx, "peer"))
	_, err = s.Peers(ctx)
	assert.Error(t, err)
}
