package pushclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cyberinferno/regionpush/logger"
	"github.com/cyberinferno/regionpush/region"
)

// ErrNoAck is returned when the device closes the connection or answers
// with anything other than "OK".
var ErrNoAck = errors.New("pushclient: batch not acknowledged")

var ack = []byte("OK")

// Client pushes batches to one device. Every batch uses its own connection,
// matching the device's one-batch-per-connection protocol.
type Client struct {
	Addr        string
	DialTimeout time.Duration
	// AckTimeout bounds the write of a batch plus the wait for its ack.
	AckTimeout time.Duration
	Limits     region.Limits
	Logger     logger.Logger
}

// NewClient returns a client with 5s dial and ack timeouts and the default
// display limits.
func NewClient(addr string, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Client{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
		AckTimeout:  5 * time.Second,
		Limits:      region.DefaultLimits(),
		Logger:      log,
	}
}

// Push sends one batch and waits for the acknowledgment.
//
// Returns:
//   - nil once the device answered "OK"
//   - an encode error, a dial/write error, or ErrNoAck
func (c *Client) Push(ctx context.Context, regions []Region) error {
	payload, err := EncodeBatch(regions, c.Limits)
	if err != nil {
		return err
	}

	d := net.Dialer{Timeout: c.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("pushclient: dial %s: %w", c.Addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.AckTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("pushclient: set deadline: %w", err)
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("pushclient: write batch: %w", err)
	}

	reply := make([]byte, len(ack))
	if _, err := io.ReadFull(conn, reply); err != nil {
		return fmt.Errorf("%w: %w", ErrNoAck, err)
	}
	if !bytes.Equal(reply, ack) {
		return fmt.Errorf("%w: got %q", ErrNoAck, reply)
	}

	c.Logger.Debug("batch acknowledged", logger.F("addr", c.Addr), logger.F("regions", len(regions)), logger.F("bytes", len(payload)))
	return nil
}

// PushFrame sends the tiles of next that differ from prev (every tile when
// prev is nil), split into as many batches as needed. It stops at the first
// failed batch and returns the number of regions acknowledged so far.
func (c *Client) PushFrame(ctx context.Context, prev, next []uint16) (int, error) {
	l := c.Limits
	if err := l.Validate(); err != nil {
		return 0, err
	}
	if len(next) != l.DisplayWidth*l.DisplayHeight {
		return 0, fmt.Errorf("%w: frame has %d pixels, want %d", ErrPixelCount, len(next), l.DisplayWidth*l.DisplayHeight)
	}
	if prev != nil && len(prev) != len(next) {
		return 0, fmt.Errorf("%w: previous frame has %d pixels", ErrPixelCount, len(prev))
	}

	sent := 0
	for _, b := range Batches(DirtyRegions(prev, next, l.DisplayWidth, l.DisplayHeight, l.MaxChunk), MaxRegionsPerBatch) {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := c.Push(ctx, b); err != nil {
			return sent, err
		}
		sent += len(b)
	}

	c.Logger.Info("frame pushed", logger.F("addr", c.Addr), logger.F("regions", sent))
	return sent, nil
}
