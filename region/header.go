// Package region decodes and validates rectangular pixel-region updates and
// fills them into a fixed-capacity scratch buffer.
package region

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// DisplayWidth is the width of the target display in pixels.
	DisplayWidth = 240
	// DisplayHeight is the height of the target display in pixels.
	DisplayHeight = 240
	// MaxChunk is the largest permitted region side in pixels.
	MaxChunk = 32
	// MaxChunkLimit caps a configured MaxChunk; scratch memory is MaxChunk² pixels.
	MaxChunkLimit = 256
	// HeaderLen is the size of an encoded region header.
	HeaderLen = 8
	// BytesPerPixel is the wire size of one RGB565 pixel.
	BytesPerPixel = 2
)

var (
	// ErrOutOfBounds is returned when a region extends past the display edge.
	ErrOutOfBounds = errors.New("region: out of display bounds")
	// ErrChunkTooLarge is returned when a region side exceeds the chunk limit.
	ErrChunkTooLarge = errors.New("region: chunk too large")
	// ErrShortRead wraps a failed row read; the region is abandoned.
	ErrShortRead = errors.New("region: short read")
	// ErrShortHeader is returned by ParseHeader for input that is not HeaderLen bytes.
	ErrShortHeader = errors.New("region: short header")
	// ErrInvalidLimits is returned for limits that cannot size a scratch area.
	ErrInvalidLimits = errors.New("region: invalid limits")
)

// Header is the position and size of one region, in pixels.
type Header struct {
	X      uint16
	Y      uint16
	Width  uint16
	Height uint16
}

// ParseHeader decodes a big-endian header laid out as x, y, width, height.
func ParseHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}

	return Header{
		X:      binary.BigEndian.Uint16(b[0:2]),
		Y:      binary.BigEndian.Uint16(b[2:4]),
		Width:  binary.BigEndian.Uint16(b[4:6]),
		Height: binary.BigEndian.Uint16(b[6:8]),
	}, nil
}

// Encode returns the wire form of h.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], h.X)
	binary.BigEndian.PutUint16(buf[2:4], h.Y)
	binary.BigEndian.PutUint16(buf[4:6], h.Width)
	binary.BigEndian.PutUint16(buf[6:8], h.Height)
	return buf
}

// Empty reports whether the region covers no pixels.
func (h Header) Empty() bool {
	return h.Width == 0 || h.Height == 0
}

// PixelCount returns width*height.
func (h Header) PixelCount() int {
	return int(h.Width) * int(h.Height)
}

// PayloadLen returns the number of pixel bytes that follow the header on the wire.
func (h Header) PayloadLen() int {
	return h.PixelCount() * BytesPerPixel
}

// Validate checks h against the display extent and the chunk limit. Bounds
// are checked before chunk size. Sums are computed in int so a crafted
// header cannot wrap around uint16.
func (h Header) Validate(l Limits) error {
	if int(h.X)+int(h.Width) > l.DisplayWidth || int(h.Y)+int(h.Height) > l.DisplayHeight {
		return fmt.Errorf("%w: %s on %dx%d", ErrOutOfBounds, h, l.DisplayWidth, l.DisplayHeight)
	}
	if int(h.Width) > l.MaxChunk || int(h.Height) > l.MaxChunk {
		return fmt.Errorf("%w: %s exceeds %d", ErrChunkTooLarge, h, l.MaxChunk)
	}

	return nil
}

func (h Header) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", h.Width, h.Height, h.X, h.Y)
}

// Limits bounds what a decoder accepts.
type Limits struct {
	DisplayWidth  int
	DisplayHeight int
	MaxChunk      int
}

// DefaultLimits returns the limits of the 240x240 panel with 32-pixel chunks.
func DefaultLimits() Limits {
	return Limits{
		DisplayWidth:  DisplayWidth,
		DisplayHeight: DisplayHeight,
		MaxChunk:      MaxChunk,
	}
}

// Validate rejects limits that cannot be expressed on the wire or that would
// size the scratch buffer beyond MaxChunkLimit.
func (l Limits) Validate() error {
	if l.DisplayWidth <= 0 || l.DisplayWidth > 0xFFFF {
		return fmt.Errorf("%w: display width %d", ErrInvalidLimits, l.DisplayWidth)
	}
	if l.DisplayHeight <= 0 || l.DisplayHeight > 0xFFFF {
		return fmt.Errorf("%w: display height %d", ErrInvalidLimits, l.DisplayHeight)
	}
	if l.MaxChunk <= 0 || l.MaxChunk > MaxChunkLimit {
		return fmt.Errorf("%w: max chunk %d", ErrInvalidLimits, l.MaxChunk)
	}

	return nil
}
