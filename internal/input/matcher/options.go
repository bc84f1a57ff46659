package matcher

import (
	"time"

	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/record"
	"github.com/dshills/keymelody/internal/logging"
)

// Default configuration values.
const (
	DefaultTimeout = 200 * time.Millisecond
)

// DefaultAbortPosition is the abort position used when none is configured.
// It lies outside any real matrix, so by default nothing aborts.
var DefaultAbortPosition = key.Pos(100, 100)

// LayerFunc reports the host's active layer. It is queried once per event.
type LayerFunc func() key.Layer

// ReplayFunc re-injects a withheld event into the host pipeline.
type ReplayFunc func(ev key.Event)

// Option configures a Matcher during creation.
type Option func(*Matcher)

// WithTimeout sets how long a gesture may wait for its next event.
func WithTimeout(d time.Duration) Option {
	return func(m *Matcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithAbortPosition sets the position that cancels a gesture in progress.
func WithAbortPosition(pos key.Position) Option {
	return func(m *Matcher) {
		m.abort = pos
	}
}

// WithBufferCapacity sets how many events a single gesture may hold back.
func WithBufferCapacity(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.buffer = record.NewBuffer(n)
		}
	}
}

// WithLayerFunc sets the active layer source. The default is always layer 0.
func WithLayerFunc(fn LayerFunc) Option {
	return func(m *Matcher) {
		if fn != nil {
			m.layer = fn
		}
	}
}

// WithClock sets the clock used by Tick and Flush.
func WithClock(c key.Clock) Option {
	return func(m *Matcher) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the matcher logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l.WithComponent("matcher")
		}
	}
}

// WithHook adds an observer.
func WithHook(h Hook) Option {
	return func(m *Matcher) {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
	}
}

// WithMetrics enables metrics collection into mt.
func WithMetrics(mt *Metrics) Option {
	return func(m *Matcher) {
		m.metrics = mt
	}
}
