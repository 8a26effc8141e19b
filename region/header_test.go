package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	t.Run("decodes big-endian fields in order", func(t *testing.T) {
		h, err := ParseHeader([]byte{0x00, 0x0A, 0x01, 0x02, 0x00, 0x20, 0x00, 0x10})
		require.NoError(t, err)
		assert.Equal(t, Header{X: 10, Y: 258, Width: 32, Height: 16}, h)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseHeader([]byte{0x00, 0x01})
		assert.ErrorIs(t, err, ErrShortHeader)
	})

	t.Run("encode is the inverse", func(t *testing.T) {
		h := Header{X: 208, Y: 1, Width: 32, Height: 7}
		got, err := ParseHeader(h.Encode())
		require.NoError(t, err)
		assert.Equal(t, h, got)
	})
}

func TestHeader_Validate(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		name   string
		header Header
		want   error
	}{
		{"origin chunk", Header{X: 0, Y: 0, Width: 32, Height: 32}, nil},
		{"touches right and bottom edge", Header{X: 208, Y: 208, Width: 32, Height: 32}, nil},
		{"zero width", Header{X: 240, Y: 0, Width: 0, Height: 5}, nil},
		{"zero height", Header{X: 3, Y: 240, Width: 5, Height: 0}, nil},
		{"past right edge", Header{X: 230, Y: 0, Width: 32, Height: 1}, ErrOutOfBounds},
		{"past bottom edge", Header{X: 0, Y: 239, Width: 1, Height: 2}, ErrOutOfBounds},
		{"x outside display", Header{X: 241, Y: 0, Width: 0, Height: 0}, ErrOutOfBounds},
		{"wide chunk", Header{X: 0, Y: 0, Width: 33, Height: 1}, ErrChunkTooLarge},
		{"tall chunk", Header{X: 0, Y: 0, Width: 1, Height: 33}, ErrChunkTooLarge},
		{"uint16 wraparound", Header{X: 0xFFFF, Y: 0, Width: 2, Height: 1}, ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.header.Validate(limits)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHeader_Sizes(t *testing.T) {
	h := Header{Width: 3, Height: 4}
	assert.Equal(t, 12, h.PixelCount())
	assert.Equal(t, 24, h.PayloadLen())
	assert.False(t, h.Empty())
	assert.True(t, Header{Width: 3}.Empty())
	assert.Equal(t, "3x4+0+0", h.String())
}

func TestLimits_Validate(t *testing.T) {
	assert.NoError(t, DefaultLimits().Validate())

	bad := []Limits{
		{DisplayWidth: 0, DisplayHeight: 240, MaxChunk: 32},
		{DisplayWidth: 240, DisplayHeight: -1, MaxChunk: 32},
		{DisplayWidth: 70000, DisplayHeight: 240, MaxChunk: 32},
		{DisplayWidth: 240, DisplayHeight: 240, MaxChunk: 0},
		{DisplayWidth: 240, DisplayHeight: 240, MaxChunk: MaxChunkLimit + 1},
	}
	for _, l := range bad {
		assert.ErrorIs(t, l.Validate(), ErrInvalidLimits, "%+v", l)
	}
}
