// Package perfmonitor measures wall-clock time between a start and a stop mark.
package perfmonitor

import (
	"sync"
	"time"
)

// PerformanceMonitor records a start and an end instant. Stop without a prior
// Start is ignored; calling Stop again moves the end mark forward. It is safe
// for concurrent use.
type PerformanceMonitor struct {
	mu        sync.Mutex
	startTime time.Time
	endTime   time.Time
}

// NewPerformanceMonitor returns a monitor with no marks set.
func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{}
}

// Start sets the start mark to now, replacing any previous one.
func (p *PerformanceMonitor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTime = time.Now()
}

// Stop sets the end mark to now if Start was called.
func (p *PerformanceMonitor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startTime.IsZero() {
		return
	}
	p.endTime = time.Now()
}

// Reset clears both marks.
func (p *PerformanceMonitor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTime = time.Time{}
	p.endTime = time.Time{}
}

// ElapsedMilliseconds returns end-start in milliseconds, or 0 when either
// mark is missing.
func (p *PerformanceMonitor) ElapsedMilliseconds() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startTime.IsZero() || p.endTime.IsZero() {
		return 0
	}
	return float64(p.endTime.Sub(p.startTime).Microseconds()) / 1000.0
}
