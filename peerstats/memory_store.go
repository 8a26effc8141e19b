package peerstats

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps counters in a go-cache with a per-peer TTL that is
// refreshed on every Record.
type MemoryStore struct {
	ttl   time.Duration
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire ttl after the peer's
// last session. A ttl of cache.NoExpiration keeps entries forever.
//
// Parameters:
//   - ttl: Time-to-live per peer
//   - cleanupInterval: How often expired peers are purged
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		cache: cache.New(ttl, cleanupInterval),
	}
}

// Record implements Store.
func (s *MemoryStore) Record(ctx context.Context, peer string, o Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var c Counters
	if v, found := s.cache.Get(peer); found {
		c = v.(Counters)
	}
	c.apply(o)
	s.cache.Set(peer, c, s.ttl)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, peer string) (Counters, error) {
	if err := ctx.Err(); err != nil {
		return Counters{}, err
	}

	v, found := s.cache.Get(peer)
	if !found {
		return Counters{}, ErrNotFound
	}
	return v.(Counters), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, peer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Delete(peer)
	return nil
}

// Peers implements Store. The result is sorted.
func (s *MemoryStore) Peers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := s.cache.Items()
	peers := make([]string, 0, len(items))
	for k := range items {
		peers = append(peers, k)
	}
	sort.Strings(peers)
	return peers, nil
}
