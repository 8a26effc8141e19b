package peerstats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DefaultKeyPrefix namespaces peer hashes in Redis.
const DefaultKeyPrefix = "regionpush:peer:"

const (
	fieldCompleted  = "completed"
	fieldAborted    = "aborted"
	fieldRegions    = "regions"
	fieldLastReason = "last_reason"
)

// RedisStore keeps one hash per peer under Prefix+peer. Counters are updated
// with HINCRBY inside a MULTI/EXEC pipeline so concurrent writers never lose
// increments. Concurrent Get calls for the same peer share one round trip.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

// NewRedisStore creates a Redis-backed store.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := NewRedisStore(client, "", 24*time.Hour)
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(peer string) string {
	return s.prefix + peer
}

// Record implements Store.
func (s *RedisStore) Record(ctx context.Context, peer string, o Outcome) error {
	key := s.key(peer)
	field := fieldAborted
	if o.Completed {
		field = fieldCompleted
	}

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, key, field, 1)
		p.HIncrBy(ctx, key, fieldRegions, int64(o.Regions))
		p.HSet(ctx, key, fieldLastReason, o.Reason)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("peerstats: record %s: %w", peer, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, peer string) (Counters, error) {
	v, err, _ := s.group.Do(peer, func() (interface{}, error) {
		fields, err := s.client.HGetAll(ctx, s.key(peer)).Result()
		if err != nil {
			return Counters{}, fmt.Errorf("peerstats: get %s: %w", peer, err)
		}
		if len(fields) == 0 {
			return Counters{}, ErrNotFound
		}
		return parseCounters(fields)
	})
	if err != nil {
		return Counters{}, err
	}
	return v.(Counters), nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, peer string) error {
	if err := s.client.Del(ctx, s.key(peer)).Err(); err != nil {
		return fmt.Errorf("peerstats: delete %s: %w", peer, err)
	}
	return nil
}

// Peers implements Store. It walks the key space with SCAN, never KEYS.
func (s *RedisStore) Peers(ctx context.Context) ([]string, error) {
	var peers []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		peers = append(peers, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("peerstats: scan peers: %w", err)
	}
	sort.Strings(peers)
	return peers, nil
}

func parseCounters(fields map[string]string) (Counters, error) {
	var c Counters
	var errs []error
	parse := func(name string, dst *int64) {
		raw, ok := fields[name]
		if !ok {
			return
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", name, err))
			return
		}
		*dst = n
	}

	parse(fieldCompleted, &c.Completed)
	parse(fieldAborted, &c.Aborted)
	parse(fieldRegions, &c.Regions)
	c.LastReason = fields[fieldLastReason]

	if err := errors.Join(errs...); err != nil {
		return Counters{}, fmt.Errorf("peerstats: corrupt counters: %w", err)
	}
	return c, nil
}
