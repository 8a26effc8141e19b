package region

import "encoding/binary"

// Scratch is the fixed-capacity work area a Decoder fills. It holds one
// MaxChunk×MaxChunk pixel grid and one row of raw wire bytes. It is sized once
// at construction and never grows in response to network input.
type Scratch struct {
	chunk  int
	pixels []uint16
	row    []byte
}

// NewScratch allocates a scratch area for regions up to chunk×chunk pixels.
func NewScratch(chunk int) *Scratch {
	return &Scratch{
		chunk:  chunk,
		pixels: make([]uint16, chunk*chunk),
		row:    make([]byte, chunk*BytesPerPixel),
	}
}

// Capacity returns the maximum region side the scratch area holds.
func (s *Scratch) Capacity() int {
	return s.chunk
}

// rowBytes returns the raw byte window for a row of width pixels.
func (s *Scratch) rowBytes(width int) []byte {
	return s.row[:width*BytesPerPixel]
}

// storeRow byte-swaps the raw row into the pixel grid at row r of a region
// with the given width. Wire bytes [b0, b1] become the pixel b1<<8 | b0.
func (s *Scratch) storeRow(r, width int) {
	dst := s.pixels[r*width : (r+1)*width]
	src := s.row[:width*BytesPerPixel]
	for j := range dst {
		dst[j] = binary.LittleEndian.Uint16(src[j*BytesPerPixel:])
	}
}

// region returns the first width*height pixels, row-major with stride width.
func (s *Scratch) region(width, height int) []uint16 {
	return s.pixels[:width*height]
}

// EncodePixels is the inverse of the arrival byte swap: it produces the wire
// bytes a sender emits for pixels.
func EncodePixels(pixels []uint16) []byte {
	buf := make([]byte, len(pixels)*BytesPerPixel)
	for i, p := range pixels {
		binary.LittleEndian.PutUint16(buf[i*BytesPerPixel:], p)
	}
	return buf
}
