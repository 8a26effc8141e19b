// Package pushclient sends region batches to a regionpush device and waits
// for its acknowledgment. It also computes which tiles of a frame changed so
// only dirty regions go over the wire.
package pushclient

import (
	"errors"
	"fmt"

	"github.com/cyberinferno/regionpush/region"
	"github.com/cyberinferno/regionpush/utils"
)

// MaxRegionsPerBatch is the largest region count one batch may carry.
const MaxRegionsPerBatch = 100

var (
	// ErrEmptyBatch is returned for a batch with no regions.
	ErrEmptyBatch = errors.New("pushclient: empty batch")
	// ErrBatchTooLarge is returned for more than MaxRegionsPerBatch regions.
	ErrBatchTooLarge = errors.New("pushclient: too many regions in batch")
	// ErrPixelCount is returned when a pixel slice does not match its geometry.
	ErrPixelCount = errors.New("pushclient: pixel count does not match region size")
)

// Region is one rectangle to send. Pixels are row-major RGB565 with stride
// Header.Width.
type Region struct {
	Header region.Header
	Pixels []uint16
}

// EncodeBatch validates regions against limits and returns the request
// bytes: the count byte followed by each header and its pixel payload.
//
// Parameters:
//   - regions: 1 to MaxRegionsPerBatch regions, each with Header.PixelCount pixels
//   - limits: The device's display extent and chunk limit
//
// Returns:
//   - The encoded request
//   - ErrEmptyBatch, ErrBatchTooLarge, ErrPixelCount or a region validation error
func EncodeBatch(regions []Region, limits region.Limits) ([]byte, error) {
	if len(regions) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(regions) > MaxRegionsPerBatch {
		return nil, fmt.Errorf("%w: %d", ErrBatchTooLarge, len(regions))
	}

	for i, r := range regions {
		if err := r.Header.Validate(limits); err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}
		if len(r.Pixels) != r.Header.PixelCount() {
			return nil, fmt.Errorf("%w: region %d has %d pixels, want %d", ErrPixelCount, i, len(r.Pixels), r.Header.PixelCount())
		}
	}

	parts := make([][]byte, 0, 1+2*len(regions))
	parts = append(parts, []byte{byte(len(regions))})
	for _, r := range regions {
		parts = append(parts, r.Header.Encode(), region.EncodePixels(r.Pixels))
	}
	return utils.JoinBytes(parts...), nil
}

// Batches splits regions into consecutive groups of at most size regions.
func Batches(regions []Region, size int) [][]Region {
	if size <= 0 {
		size = MaxRegionsPerBatch
	}

	var out [][]Region
	for len(regions) > 0 {
		n := min(size, len(regions))
		out = append(out, regions[:n])
		regions = regions[n:]
	}
	return out
}
