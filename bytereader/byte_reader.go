// Package bytereader reads exact byte counts from a stream under a deadline.
// It never blocks indefinitely: every read is bounded by an absolute deadline
// set on the underlying connection, and the wait itself happens in the Go
// network poller so other goroutines keep running.
package bytereader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

var (
	// ErrTimeout is returned when the deadline elapses before all bytes arrive.
	ErrTimeout = errors.New("bytereader: timeout")
	// ErrClosed is returned when the peer closes the stream before all bytes arrive.
	ErrClosed = errors.New("bytereader: stream closed")
)

// DeadlineReader is a byte stream whose reads can be bounded by an absolute
// deadline. net.Conn satisfies it.
type DeadlineReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// ReadExact fills buf completely from r or fails. The caller bounds len(buf);
// it must never be derived from unchecked network input. Bytes read before a
// failure are discarded: a failed call leaves buf in an unspecified state and
// the next call starts from scratch.
//
// Parameters:
//   - r: The stream to read from
//   - buf: Destination; exactly len(buf) bytes are read
//   - deadline: Absolute point in time after which the read is abandoned
//
// Returns:
//   - nil when buf was filled
//   - ErrTimeout if the deadline elapsed, ErrClosed if the peer closed the
//     stream, or a wrapped transport error otherwise
func ReadExact(r DeadlineReader, buf []byte, deadline time.Time) error {
	if len(buf) == 0 {
		return nil
	}

	if err := r.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("bytereader: set deadline: %w", err)
	}
	defer func() { _ = r.SetReadDeadline(time.Time{}) }()

	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}

	return classify(err, n, len(buf))
}

// ReadExactWithin is ReadExact with a deadline of now+timeout.
func ReadExactWithin(r DeadlineReader, buf []byte, timeout time.Duration) error {
	return ReadExact(r, buf, time.Now().Add(timeout))
}

// IsTimeout reports whether err is, or wraps, ErrTimeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func classify(err error, got, want int) error {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%w: got %d of %d bytes", ErrTimeout, got, want)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.ErrClosedPipe):
		return fmt.Errorf("%w: got %d of %d bytes", ErrClosed, got, want)
	default:
		var te interface{ Timeout() bool }
		if errors.As(err, &te) && te.Timeout() {
			return fmt.Errorf("%w: got %d of %d bytes", ErrTimeout, got, want)
		}
		return fmt.Errorf("bytereader: read: %w", err)
	}
}
