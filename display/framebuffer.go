package display

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// Framebuffer is an in-memory RGB565 raster. It implements Sink and is safe
// for concurrent use, so snapshots can be taken while a session paints.
type Framebuffer struct {
	width  int
	height int
	mu     sync.RWMutex
	pix    []uint16
	paints atomic.Int64
}

// NewFramebuffer returns a black width×height framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]uint16, width*height),
	}
}

// Width returns the framebuffer width in pixels.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the framebuffer height in pixels.
func (f *Framebuffer) Height() int { return f.height }

// Paint implements Sink. Geometry is trusted.
func (f *Framebuffer) Paint(x, y, width, height int, pixels []uint16) error {
	f.mu.Lock()
	for r := 0; r < height; r++ {
		off := (y+r)*f.width + x
		copy(f.pix[off:off+width], pixels[r*width:(r+1)*width])
	}
	f.mu.Unlock()

	f.paints.Add(1)
	return nil
}

// Paints returns the number of Paint calls so far.
func (f *Framebuffer) Paints() int64 {
	return f.paints.Load()
}

// Pixel returns the pixel at (x, y). It panics if the point is outside.
func (f *Framebuffer) Pixel(x, y int) uint16 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pix[y*f.width+x]
}

// Fill sets every pixel to c.
func (f *Framebuffer) Fill(c uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.pix {
		f.pix[i] = c
	}
}

// Pixels returns a copy of the raster, row-major.
func (f *Framebuffer) Pixels() []uint16 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]uint16, len(f.pix))
	copy(out, f.pix)
	return out
}

// Image converts the raster to an RGBA image.
func (f *Framebuffer) Image() *image.RGBA {
	pix := f.Pixels()
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for i, p := range pix {
		r, g, b := RGB888(p)
		img.SetRGBA(i%f.width, i/f.width, color.RGBA{R: r, G: g, B: b, A: 0xFF})
	}
	return img
}

// WritePNG encodes the raster as PNG to w.
func (f *Framebuffer) WritePNG(w io.Writer) error {
	if err := png.Encode(w, f.Image()); err != nil {
		return fmt.Errorf("display: encode png: %w", err)
	}
	return nil
}

// SnapshotSink paints into a Framebuffer and, on Flush, writes the current
// raster to a PNG file. The file is replaced atomically via rename.
type SnapshotSink struct {
	*Framebuffer
	Path string
}

// NewSnapshotSink wraps fb so that Flush writes it to path.
func NewSnapshotSink(fb *Framebuffer, path string) *SnapshotSink {
	return &SnapshotSink{Framebuffer: fb, Path: path}
}

// Flush writes the framebuffer to Path.
func (s *SnapshotSink) Flush() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".snapshot-*.png")
	if err != nil {
		return fmt.Errorf("display: create snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := s.WritePNG(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("display: close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("display: replace snapshot: %w", err)
	}

	return nil
}
