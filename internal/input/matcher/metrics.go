package matcher

import (
	"sync/atomic"
	"time"
)

// Metrics counts matcher outcomes. Counters may be read from another
// goroutine while the matcher runs.
type Metrics struct {
	events         atomic.Uint64
	consumed       atomic.Uint64
	passedThrough  atomic.Uint64
	gestures       atomic.Uint64
	fallbacks      atomic.Uint64
	replays        atomic.Uint64
	replayedEvents atomic.Uint64
	timeouts       atomic.Uint64
	aborts         atomic.Uint64
	overflows      atomic.Uint64
	dispatchErrors atomic.Uint64

	peakLatency atomic.Int64
	startTime   atomic.Pointer[time.Time]
}

// NewMetrics creates a zeroed metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.markStart()
	return m
}

func (m *Metrics) markStart() {
	now := time.Now()
	m.startTime.Store(&now)
}

func (m *Metrics) recordEvent(r Result, latency time.Duration) {
	if m == nil {
		return
	}
	m.events.Add(1)
	if r == Consumed {
		m.consumed.Add(1)
	} else {
		m.passedThrough.Add(1)
	}

	ns := latency.Nanoseconds()
	for {
		current := m.peakLatency.Load()
		if ns <= current || m.peakLatency.CompareAndSwap(current, ns) {
			break
		}
	}
}

func (m *Metrics) recordGesture(fallback bool) {
	if m == nil {
		return
	}
	m.gestures.Add(1)
	if fallback {
		m.fallbacks.Add(1)
	}
}

func (m *Metrics) recordReplay(n int) {
	if m == nil {
		return
	}
	m.replays.Add(1)
	m.replayedEvents.Add(uint64(n))
}

func (m *Metrics) recordEnd(reason Reason) {
	if m == nil {
		return
	}
	switch reason {
	case ReasonTimeout:
		m.timeouts.Add(1)
	case ReasonAbort:
		m.aborts.Add(1)
	case ReasonOverflow:
		m.overflows.Add(1)
	}
}

func (m *Metrics) recordDispatchError() {
	if m == nil {
		return
	}
	m.dispatchErrors.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Events         uint64
	Consumed       uint64
	PassedThrough  uint64
	Gestures       uint64
	Fallbacks      uint64
	Replays        uint64
	ReplayedEvents uint64
	Timeouts       uint64
	Aborts         uint64
	Overflows      uint64
	DispatchErrors uint64
	PeakLatency    time.Duration
	Uptime         time.Duration
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	var uptime time.Duration
	if start := m.startTime.Load(); start != nil {
		uptime = time.Since(*start)
	}
	return Snapshot{
		Events:         m.events.Load(),
		Consumed:       m.consumed.Load(),
		PassedThrough:  m.passedThrough.Load(),
		Gestures:       m.gestures.Load(),
		Fallbacks:      m.fallbacks.Load(),
		Replays:        m.replays.Load(),
		ReplayedEvents: m.replayedEvents.Load(),
		Timeouts:       m.timeouts.Load(),
		Aborts:         m.aborts.Load(),
		Overflows:      m.overflows.Load(),
		DispatchErrors: m.dispatchErrors.Load(),
		PeakLatency:    time.Duration(m.peakLatency.Load()),
		Uptime:         uptime,
	}
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Uint64{
		&m.events, &m.consumed, &m.passedThrough, &m.gestures, &m.fallbacks,
		&m.replays, &m.replayedEvents, &m.timeouts, &m.aborts, &m.overflows,
		&m.dispatchErrors,
	} {
		c.Store(0)
	}
	m.peakLatency.Store(0)
	m.markStart()
}
