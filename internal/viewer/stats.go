package viewer

import (
	"sync/atomic"
	"time"
)

// Stats counts compile cycles and renders. The counters are atomic so the
// status line can read them from any goroutine.
type Stats struct {
	cycles          atomic.Uint64
	failedCycles    atomic.Uint64
	compileTotalNs  atomic.Int64
	lastCompileNs   atomic.Int64
	renders         atomic.Uint64
	failedRenders   atomic.Uint64
	renderTotalNs   atomic.Int64
	lastRenderNs    atomic.Int64
	lastTriggerCode atomic.Int32
}

// RecordCycle records a finished compile cycle. failed means no new image
// came out of it.
func (s *Stats) RecordCycle(trigger Trigger, compile time.Duration, failed bool) {
	ns := compile.Nanoseconds()
	s.cycles.Add(1)
	s.compileTotalNs.Add(ns)
	s.lastCompileNs.Store(ns)
	s.lastTriggerCode.Store(int32(trigger))
	if failed {
		s.failedCycles.Add(1)
	}
}

// RecordRender records one rasterization.
func (s *Stats) RecordRender(d time.Duration, failed bool) {
	ns := d.Nanoseconds()
	s.renders.Add(1)
	s.renderTotalNs.Add(ns)
	s.lastRenderNs.Store(ns)
	if failed {
		s.failedRenders.Add(1)
	}
}

// Snapshot returns a point-in-time copy.
func (s *Stats) Snapshot() StatsSnapshot {
	cycles := s.cycles.Load()
	renders := s.renders.Load()

	var avgCompile, avgRender time.Duration
	if cycles > 0 {
		avgCompile = time.Duration(s.compileTotalNs.Load() / int64(cycles))
	}
	if renders > 0 {
		avgRender = time.Duration(s.renderTotalNs.Load() / int64(renders))
	}

	return StatsSnapshot{
		Cycles:        cycles,
		FailedCycles:  s.failedCycles.Load(),
		LastCompile:   time.Duration(s.lastCompileNs.Load()),
		AvgCompile:    avgCompile,
		LastTrigger:   Trigger(s.lastTriggerCode.Load()),
		Renders:       renders,
		FailedRenders: s.failedRenders.Load(),
		LastRender:    time.Duration(s.lastRenderNs.Load()),
		AvgRender:     avgRender,
	}
}

// StatsSnapshot is a point-in-time view of Stats.
type StatsSnapshot struct {
	Cycles        uint64
	FailedCycles  uint64
	LastCompile   time.Duration
	AvgCompile    time.Duration
	LastTrigger   Trigger
	Renders       uint64
	FailedRenders uint64
	LastRender    time.Duration
	AvgRender     time.Duration
}
