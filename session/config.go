package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyberinferno/regionpush/region"
)

const (
	// DefaultMaxRegions is the largest region count a batch may declare.
	DefaultMaxRegions = 100
	// wireMaxRegions is the largest count a single byte can carry.
	wireMaxRegions = 255
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("session: invalid config")

// Config holds the timing and size limits of a session.
type Config struct {
	// AcceptWait bounds the wait for the first byte after accept.
	AcceptWait time.Duration
	// ReadTimeout bounds every header read, row read and the ack write.
	ReadTimeout time.Duration
	// DrainTimeout is how long the peer may stay silent before draining ends.
	DrainTimeout time.Duration
	// MaxRegions is the largest accepted region count.
	MaxRegions int
}

// DefaultConfig returns the device defaults: 5s accept wait, 1s per read,
// 10ms drain and at most 100 regions per batch.
func DefaultConfig() Config {
	return Config{
		AcceptWait:   5 * time.Second,
		ReadTimeout:  region.DefaultReadTimeout,
		DrainTimeout: 10 * time.Millisecond,
		MaxRegions:   DefaultMaxRegions,
	}
}

// Validate checks that every duration is positive and MaxRegions fits the
// one-byte count field.
func (c Config) Validate() error {
	if c.AcceptWait <= 0 {
		return fmt.Errorf("%w: accept wait %s", ErrInvalidConfig, c.AcceptWait)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read timeout %s", ErrInvalidConfig, c.ReadTimeout)
	}
	if c.DrainTimeout <= 0 {
		return fmt.Errorf("%w: drain timeout %s", ErrInvalidConfig, c.DrainTimeout)
	}
	if c.MaxRegions < 1 || c.MaxRegions > wireMaxRegions {
		return fmt.Errorf("%w: max regions %d", ErrInvalidConfig, c.MaxRegions)
	}
	return nil
}
