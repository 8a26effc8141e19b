// Package display holds the sink contract the session handler paints into,
// and an in-memory RGB565 framebuffer that implements it.
package display

// Sink paints a rectangle of RGB565 pixels at (x, y). Pixels are row-major
// with stride width. Callers validate geometry before painting; a Sink does
// not re-check it. Paint is synchronous: pixels may be reused once it returns.
type Sink interface {
	Paint(x, y, width, height int, pixels []uint16) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(x, y, width, height int, pixels []uint16) error

// Paint implements Sink.
func (f SinkFunc) Paint(x, y, width, height int, pixels []uint16) error {
	return f(x, y, width, height, pixels)
}
