package pushclient

import "github.com/cyberinferno/regionpush/region"

// DirtyRegions tiles a width×height frame into chunk×chunk tiles (smaller at
// the right and bottom edges) and returns the tiles of next that differ from
// prev, in row-major tile order.
//
// Parameters:
//   - prev: The frame currently on the device; nil marks every tile dirty
//   - next: The frame to show, width*height pixels
//   - width, height: Frame extent in pixels
//   - chunk: Tile side; normally the device's MaxChunk
//
// Returns:
//   - The dirty tiles with their pixels copied out of next, or nil when
//     chunk, width or height is not positive
func DirtyRegions(prev, next []uint16, width, height, chunk int) []Region {
	if chunk <= 0 || width <= 0 || height <= 0 {
		return nil
	}

	var out []Region
	for ty := 0; ty < height; ty += chunk {
		th := min(chunk, height-ty)
		for tx := 0; tx < width; tx += chunk {
			tw := min(chunk, width-tx)
			if prev != nil && !tileChanged(prev, next, width, tx, ty, tw, th) {
				continue
			}
			out = append(out, Region{
				Header: region.Header{X: uint16(tx), Y: uint16(ty), Width: uint16(tw), Height: uint16(th)},
				Pixels: extract(next, width, tx, ty, tw, th),
			})
		}
	}
	return out
}

func tileChanged(prev, next []uint16, stride, x, y, w, h int) bool {
	for r := 0; r < h; r++ {
		off := (y+r)*stride + x
		for i := off; i < off+w; i++ {
			if prev[i] != next[i] {
				return true
			}
		}
	}
	return false
}

func extract(frame []uint16, stride, x, y, w, h int) []uint16 {
	out := make([]uint16, 0, w*h)
	for r := 0; r < h; r++ {
		off := (y+r)*stride + x
		out = append(out, frame[off:off+w]...)
	}
	return out
}
