package display

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGB565(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    uint16
	}{
		{"black", 0, 0, 0, 0x0000},
		{"white", 0xFF, 0xFF, 0xFF, 0xFFFF},
		{"red", 0xFF, 0, 0, 0xF800},
		{"green", 0, 0xFF, 0, 0x07E0},
		{"blue", 0, 0, 0xFF, 0x001F},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RGB565(tt.r, tt.g, tt.b))
			r, g, b := RGB888(tt.want)
			assert.Equal(t, tt.want, RGB565(r, g, b))
		})
	}

	r, g, b := RGB888(0xFFFF)
	assert.Equal(t, []uint8{0xFF, 0xFF, 0xFF}, []uint8{r, g, b})
}

func TestFramebuffer_Paint(t *testing.T) {
	t.Run("writes rows at offset", func(t *testing.T) {
		fb := NewFramebuffer(8, 6)
		err := fb.Paint(2, 3, 3, 2, []uint16{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)

		assert.Equal(t, uint16(1), fb.Pixel(2, 3))
		assert.Equal(t, uint16(3), fb.Pixel(4, 3))
		assert.Equal(t, uint16(4), fb.Pixel(2, 4))
		assert.Equal(t, uint16(6), fb.Pixel(4, 4))
		assert.Equal(t, uint16(0), fb.Pixel(5, 3))
		assert.Equal(t, uint16(0), fb.Pixel(2, 5))
		assert.Equal(t, int64(1), fb.Paints())
	})

	t.Run("reaches bottom right corner", func(t *testing.T) {
		fb := NewFramebuffer(240, 240)
		pix := make([]uint16, 32*32)
		for i := range pix {
			pix[i] = 0xBEEF
		}
		require.NoError(t, fb.Paint(208, 208, 32, 32, pix))
		assert.Equal(t, uint16(0xBEEF), fb.Pixel(239, 239))
		assert.Equal(t, uint16(0), fb.Pixel(207, 239))
	})
}

func TestFramebuffer_FillAndPixels(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.Fill(0x1234)

	pix := fb.Pixels()
	assert.Equal(t, []uint16{0x1234, 0x1234, 0x1234, 0x1234}, pix)

	pix[0] = 0
	assert.Equal(t, uint16(0x1234), fb.Pixel(0, 0))
}

func TestFramebuffer_WritePNG(t *testing.T) {
	fb := NewFramebuffer(4, 2)
	require.NoError(t, fb.Paint(1, 1, 1, 1, []uint16{0xF800}))

	var buf bytes.Buffer
	require.NoError(t, fb.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
}

func TestSnapshotSink_Flush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	sink := NewSnapshotSink(NewFramebuffer(3, 3), path)
	require.NoError(t, sink.Paint(0, 0, 1, 1, []uint16{0x07E0}))
	require.NoError(t, sink.Flush())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	_, g, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), g)
}

func TestFromImage(t *testing.T) {
	t.Run("same size copies pixels", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 2, 1))
		src.Set(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
		src.Set(1, 0, color.RGBA{B: 0xFF, A: 0xFF})

		assert.Equal(t, []uint16{0xF800, 0x001F}, FromImage(src, 2, 1))
	})

	t.Run("downscales with nearest neighbour", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(10, 10, 14, 14))
		for y := 10; y < 14; y++ {
			for x := 10; x < 14; x++ {
				if x < 12 {
					src.Set(x, y, color.White)
				} else {
					src.Set(x, y, color.Black)
				}
			}
		}

		assert.Equal(t, []uint16{0xFFFF, 0x0000, 0xFFFF, 0x0000}, FromImage(src, 2, 2))
	})

	t.Run("empty image yields black frame", func(t *testing.T) {
		assert.Equal(t, []uint16{0, 0}, FromImage(image.NewRGBA(image.Rectangle{}), 2, 1))
	})
}

func TestSinkFunc(t *testing.T) {
	var got []int
	s := SinkFunc(func(x, y, w, h int, _ []uint16) error {
		got = []int{x, y, w, h}
		return nil
	})
	require.NoError(t, s.Paint(1, 2, 3, 4, nil))
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}
