package app

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics tracks frame loop performance. Compile cycle statistics live in
// the viewer; these cover the terminal side.
type Metrics struct {
	// Frame timing
	frameCount    atomic.Uint64
	frameTotalNs  atomic.Int64
	frameMinNs    atomic.Int64
	frameMaxNs    atomic.Int64
	lastFrameNs   atomic.Int64
	droppedFrames atomic.Uint64

	// Input handling
	inputCount   atomic.Uint64
	inputTotalNs atomic.Int64
	inputDropped atomic.Uint64

	// Screen drawing
	renderCount   atomic.Uint64
	renderTotalNs atomic.Int64

	// Start time for uptime calculation
	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
	}
	// Initialize min to max int64 so first frame will be smaller
	m.frameMinNs.Store(1<<63 - 1)
	return m
}

// RecordFrame records frame timing. A frame longer than budget also counts
// as dropped; a compile cycle stalls the loop for its whole duration.
func (m *Metrics) RecordFrame(duration, budget time.Duration) {
	ns := duration.Nanoseconds()

	m.frameCount.Add(1)
	m.frameTotalNs.Add(ns)
	m.lastFrameNs.Store(ns)
	if budget > 0 && duration > budget {
		m.droppedFrames.Add(1)
	}

	for {
		old := m.frameMinNs.Load()
		if ns >= old {
			break
		}
		if m.frameMinNs.CompareAndSwap(old, ns) {
			break
		}
	}

	for {
		old := m.frameMaxNs.Load()
		if ns <= old {
			break
		}
		if m.frameMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordInput records input processing timing.
func (m *Metrics) RecordInput(duration time.Duration) {
	m.inputCount.Add(1)
	m.inputTotalNs.Add(duration.Nanoseconds())
}

// RecordInputDropped records an input event lost to a full queue.
func (m *Metrics) RecordInputDropped() {
	m.inputDropped.Add(1)
}

// RecordRender records how long drawing and flushing the screen took.
func (m *Metrics) RecordRender(duration time.Duration) {
	m.renderCount.Add(1)
	m.renderTotalNs.Add(duration.Nanoseconds())
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	frameCount := m.frameCount.Load()
	inputCount := m.inputCount.Load()
	renderCount := m.renderCount.Load()

	var avgFrameNs int64
	if frameCount > 0 {
		avgFrameNs = m.frameTotalNs.Load() / int64(frameCount)
	}

	var avgInputNs int64
	if inputCount > 0 {
		avgInputNs = m.inputTotalNs.Load() / int64(inputCount)
	}

	var avgRenderNs int64
	if renderCount > 0 {
		avgRenderNs = m.renderTotalNs.Load() / int64(renderCount)
	}

	minFrameNs := m.frameMinNs.Load()
	if minFrameNs == 1<<63-1 {
		minFrameNs = 0
	}

	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		FrameCount:     frameCount,
		AvgFrameTimeNs: avgFrameNs,
		MinFrameTimeNs: minFrameNs,
		MaxFrameTimeNs: m.frameMaxNs.Load(),
		LastFrameNs:    m.lastFrameNs.Load(),
		DroppedFrames:  m.droppedFrames.Load(),
		InputCount:     inputCount,
		AvgInputTimeNs: avgInputNs,
		InputDropped:   m.inputDropped.Load(),
		RenderCount:    renderCount,
		AvgRenderNs:    avgRenderNs,
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	FrameCount     uint64
	AvgFrameTimeNs int64
	MinFrameTimeNs int64
	MaxFrameTimeNs int64
	LastFrameNs    int64
	DroppedFrames  uint64
	InputCount     uint64
	AvgInputTimeNs int64
	InputDropped   uint64
	RenderCount    uint64
	AvgRenderNs    int64
}

// AvgFPS returns the average frames per second.
func (s MetricsSnapshot) AvgFPS() float64 {
	if s.AvgFrameTimeNs == 0 {
		return 0
	}
	return float64(time.Second) / float64(s.AvgFrameTimeNs)
}

// DropRate returns the fraction of frames that overran their budget.
func (s MetricsSnapshot) DropRate() float64 {
	if s.FrameCount == 0 {
		return 0
	}
	return float64(s.DroppedFrames) / float64(s.FrameCount)
}

// String summarizes the snapshot for the log.
func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("%d frames, avg %s, max %s, %d over budget, %d inputs (%d dropped)",
		s.FrameCount, time.Duration(s.AvgFrameTimeNs), time.Duration(s.MaxFrameTimeNs),
		s.DroppedFrames, s.InputCount, s.InputDropped)
}
