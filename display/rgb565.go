package display

import (
	"image"
	"image/color"
)

// RGB565 packs 8-bit channels into a 16-bit 5-6-5 pixel.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

// RGB888 expands a 5-6-5 pixel to 8-bit channels, replicating the high bits
// into the low bits so full-scale values map to 0xFF.
func RGB888(p uint16) (r, g, b uint8) {
	r5 := uint8(p >> 11 & 0x1F)
	g6 := uint8(p >> 5 & 0x3F)
	b5 := uint8(p & 0x1F)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// FromImage scales img to width×height with nearest-neighbour sampling and
// returns the frame as row-major RGB565 pixels.
func FromImage(img image.Image, width, height int) []uint16 {
	out := make([]uint16, width*height)
	bounds := img.Bounds()
	if bounds.Empty() || width <= 0 || height <= 0 {
		return out
	}

	sw, sh := bounds.Dx(), bounds.Dy()
	for y := 0; y < height; y++ {
		sy := bounds.Min.Y + y*sh/height
		for x := 0; x < width; x++ {
			sx := bounds.Min.X + x*sw/width
			c := color.RGBAModel.Convert(img.At(sx, sy)).(color.RGBA)
			out[y*width+x] = RGB565(c.R, c.G, c.B)
		}
	}

	return out
}
