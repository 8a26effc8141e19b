// Package peerstats keeps per-peer counters of session outcomes, in memory
// or in Redis, so operators can see which clients keep failing.
package peerstats

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a peer with no recorded sessions.
var ErrNotFound = errors.New("peerstats: peer not found")

// Outcome is the result of one session as seen by the store.
type Outcome struct {
	Completed bool
	Regions   int
	// Reason is a short machine-readable failure cause; empty on success.
	Reason string
}

// Counters are the accumulated outcomes for one peer.
type Counters struct {
	Completed  int64  `json:"completed"`
	Aborted    int64  `json:"aborted"`
	Regions    int64  `json:"regions"`
	LastReason string `json:"last_reason"`
}

func (c *Counters) apply(o Outcome) {
	if o.Completed {
		c.Completed++
	} else {
		c.Aborted++
	}
	c.Regions += int64(o.Regions)
	c.LastReason = o.Reason
}

// Store records session outcomes keyed by peer host. Implementations must be
// safe for concurrent use.
type Store interface {
	// Record adds one outcome to the peer's counters and refreshes its TTL.
	Record(ctx context.Context, peer string, o Outcome) error

	// Get returns the peer's counters, or ErrNotFound.
	Get(ctx context.Context, peer string) (Counters, error)

	// Delete forgets a peer. Deleting an unknown peer is not an error.
	Delete(ctx context.Context, peer string) error

	// Peers lists every peer with live counters.
	Peers(ctx context.Context) ([]string, error)
}
