package region

import (
	"fmt"
	"time"

	"github.com/cyberinferno/regionpush/bytereader"
)

// DefaultReadTimeout bounds every individual header or row read.
const DefaultReadTimeout = time.Second

// Region is one validated rectangle and its pixels. Pixels is row-major with
// stride Header.Width and aliases the decoder's scratch area: it is only valid
// until the next DecodeAndFill call on the same decoder.
type Region struct {
	Header Header
	Pixels []uint16
}

// Decoder reads regions off a stream into its own scratch area. A Decoder
// is not safe for concurrent use; give each concurrent connection its own.
type Decoder struct {
	limits      Limits
	readTimeout time.Duration
	scratch     *Scratch
	header      [HeaderLen]byte
}

// NewDecoder creates a Decoder for the given limits. Each header read and each
// row read gets its own deadline of now+readTimeout.
//
// Parameters:
//   - limits: Display extent and chunk limit; validated here
//   - readTimeout: Per-read deadline; DefaultReadTimeout when <= 0
//
// Returns:
//   - The decoder, or an error wrapping ErrInvalidLimits
func NewDecoder(limits Limits, readTimeout time.Duration) (*Decoder, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	return &Decoder{
		limits:      limits,
		readTimeout: readTimeout,
		scratch:     NewScratch(limits.MaxChunk),
	}, nil
}

// Limits returns the limits the decoder validates against.
func (d *Decoder) Limits() Limits {
	return d.limits
}

// DecodeAndFill reads one header, validates it and reads the pixel payload
// row by row into the scratch area, byte-swapping every pixel.
//
// A zero-width or zero-height region is a valid no-op: only the header is
// consumed and the returned Region has no pixels.
//
// Returns:
//   - The validated region on success
//   - A bytereader error if the header could not be read, ErrOutOfBounds or
//     ErrChunkTooLarge for an invalid header, or ErrShortRead wrapping the
//     reader error if a row did not arrive in time
func (d *Decoder) DecodeAndFill(r bytereader.DeadlineReader) (Region, error) {
	if err := bytereader.ReadExactWithin(r, d.header[:], d.readTimeout); err != nil {
		return Region{}, fmt.Errorf("region header: %w", err)
	}

	h, err := ParseHeader(d.header[:])
	if err != nil {
		return Region{}, err
	}
	if err := h.Validate(d.limits); err != nil {
		return Region{}, err
	}
	if h.Empty() {
		return Region{Header: h}, nil
	}

	width, height := int(h.Width), int(h.Height)
	for row := 0; row < height; row++ {
		if err := bytereader.ReadExactWithin(r, d.scratch.rowBytes(width), d.readTimeout); err != nil {
			return Region{}, fmt.Errorf("%w: row %d of %s: %w", ErrShortRead, row, h, err)
		}
		d.scratch.storeRow(row, width)
	}

	return Region{Header: h, Pixels: d.scratch.region(width, height)}, nil
}
