package matcher

import (
	"time"

	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/melody"
	"github.com/dshills/keymelody/internal/input/phrase"
	"github.com/dshills/keymelody/internal/input/record"
	"github.com/dshills/keymelody/internal/logging"
)

// Result tells the host what to do with the event it just handed over.
type Result uint8

const (
	// PassThrough means the host should handle the event normally.
	PassThrough Result = iota
	// Consumed means the matcher took the event; the host must ignore it.
	Consumed
)

func (r Result) String() string {
	if r == Consumed {
		return "consumed"
	}
	return "pass-through"
}

// Matcher drives key events through a gesture tree.
type Matcher struct {
	registry   *melody.Registry
	dispatcher *action.Dispatcher
	replay     ReplayFunc

	// current is the node whose children are evaluated next; nil while idle.
	current      *phrase.Node
	buffer       *record.Buffer
	lastAccepted key.Timestamp
	replaying    bool

	// swallow holds keys still down when their gesture fired; their
	// releases belong to that gesture.
	swallow map[key.Position]struct{}

	timeout time.Duration
	abort   key.Position
	layer   LayerFunc
	clock   key.Clock
	logger  *logging.Logger
	hooks   []Hook
	metrics *Metrics
}

// New creates a matcher over the gestures in reg. Completed gestures fire
// through d; withheld events go back to the host through replay.
func New(reg *melody.Registry, d *action.Dispatcher, replay ReplayFunc, opts ...Option) *Matcher {
	m := &Matcher{
		registry:   reg,
		dispatcher: d,
		replay:     replay,
		buffer:     record.NewBuffer(record.DefaultCapacity),
		swallow:    make(map[key.Position]struct{}),
		timeout:    DefaultTimeout,
		abort:      DefaultAbortPosition,
		layer:      func() key.Layer { return 0 },
		clock:      key.NewSystemClock(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dispatcher == nil {
		m.dispatcher = action.NewDispatcher(nil, action.WithLogger(m.logger))
	}
	return m
}

// SetTimeout changes the gesture timeout. Non-positive values are ignored.
func (m *Matcher) SetTimeout(d time.Duration) {
	if d > 0 {
		m.timeout = d
	}
}

// Timeout returns the gesture timeout.
func (m *Matcher) Timeout() time.Duration { return m.timeout }

// SetAbortPosition changes the abort position.
func (m *Matcher) SetAbortPosition(pos key.Position) { m.abort = pos }

// AbortPosition returns the abort position.
func (m *Matcher) AbortPosition() key.Position { return m.abort }

// Matching reports whether a gesture is in progress.
func (m *Matcher) Matching() bool { return m.current != nil }

// Current returns the last completed phrase of the gesture in progress,
// the root when nothing has completed yet, or nil while idle.
func (m *Matcher) Current() *phrase.Node { return m.current }

// Pending returns the events held back so far.
func (m *Matcher) Pending() []key.Event { return m.buffer.Events() }

// Metrics returns the metrics tracker, or nil when disabled.
func (m *Matcher) Metrics() *Metrics { return m.metrics }

// Process handles one physical key transition.
func (m *Matcher) Process(ev key.Event) Result {
	if m.replaying {
		return PassThrough
	}
	start := time.Now()
	r := m.process(ev)
	m.metrics.recordEvent(r, time.Since(start))
	return r
}

func (m *Matcher) process(ev key.Event) Result {
	if ev.Position == m.abort {
		if !m.Matching() {
			return PassThrough
		}
		m.logger.Debug("abort at %s", ev)
		m.end(ReasonAbort, ev.Time)
		return Consumed
	}

	if m.Matching() && key.Elapsed(ev.Time, m.lastAccepted, m.timeout) {
		m.expire(ev.Time)
	}

	if _, ok := m.swallow[ev.Position]; ok {
		delete(m.swallow, ev.Position)
		if !ev.Pressed {
			m.logger.Debug("release of fired gesture key %s", ev)
			return Consumed
		}
	}

	if m.Matching() && m.buffer.Full() {
		m.logger.Error("gesture exceeded %d buffered events, replaying", m.buffer.Cap())
		m.end(ReasonOverflow, ev.Time)
	}

	if !m.Matching() {
		if !ev.Pressed {
			return PassThrough
		}
		m.current = m.registry.Root()
	}
	return m.evaluate(ev)
}

// evaluate feeds ev to every eligible child of the current node.
func (m *Matcher) evaluate(ev key.Event) Result {
	active := m.layer()

	var best *phrase.Node
	eligible, invalid := 0, 0
	for _, c := range m.current.Children() {
		if c.Layer() > active || c.State() == phrase.Invalid {
			continue
		}
		eligible++
		switch c.Consider(ev) {
		case phrase.Invalid:
			invalid++
		case phrase.Completed:
			if best == nil || c.Layer() > best.Layer() {
				best = c
			}
		}
	}

	if invalid == eligible {
		m.logger.Debug("no gesture matches %s", ev)
		m.end(ReasonInvalid, ev.Time)
		return PassThrough
	}

	if err := m.buffer.Append(ev); err != nil {
		// Overflow is checked before evaluation, so this is unreachable
		// unless the buffer was replaced underneath us.
		m.logger.Error("buffer: %v", err)
	}
	m.lastAccepted = ev.Time

	if best == nil {
		return Consumed
	}

	m.current.ResetChildren()
	m.current = best
	m.logger.Debug("completed %s", best)

	if best.IsLeaf() {
		m.complete(best, ev.Time)
	}
	return Consumed
}

// complete fires the action of a finished leaf and returns to idle. A
// transparent leaf borrows the nearest concrete ancestor action; a leaf
// that resolves to nothing absorbs the gesture.
func (m *Matcher) complete(leaf *phrase.Node, now key.Timestamp) {
	owner, a, ok := resolve(leaf)
	m.consume()
	m.current = nil
	if !ok {
		m.logger.Debug("gesture %s absorbed", leaf)
		m.metrics.recordGesture(false)
		m.notifyGesture(leaf, leaf.Action(), false)
		return
	}
	m.fire(owner, a, now, false)
}

// expire runs the timeout: fire a fallback action if one is reachable,
// otherwise replay.
func (m *Matcher) expire(now key.Timestamp) {
	m.current.ResetChildren()
	owner, a, ok := resolve(m.current)
	if !ok {
		m.logger.Debug("timeout at %s, replaying", m.current)
		m.end(ReasonTimeout, now)
		return
	}

	m.logger.Debug("timeout at %s, falling back to %s", m.current, owner)
	m.consume()
	m.current = nil
	m.metrics.recordEnd(ReasonTimeout)
	m.fire(owner, a, now, true)
}

// consume discards the held events of a gesture that fired and marks
// the keys it left down so their releases are swallowed.
func (m *Matcher) consume() {
	for _, ev := range m.buffer.Events() {
		if ev.Pressed {
			m.swallow[ev.Position] = struct{}{}
		} else {
			delete(m.swallow, ev.Position)
		}
	}
	m.buffer.Reset()
}

// end abandons the match and replays every held event.
func (m *Matcher) end(reason Reason, now key.Timestamp) {
	if m.current != nil {
		m.current.ResetChildren()
	}
	m.current = nil
	m.metrics.recordEnd(reason)
	m.replayBuffer(reason, now)
}

func (m *Matcher) replayBuffer(reason Reason, now key.Timestamp) {
	if m.buffer.Len() == 0 {
		return
	}

	m.replaying = true
	defer func() { m.replaying = false }()

	delivered := make([]key.Event, 0, m.buffer.Len())
	n := m.buffer.Replay(now, func(ev key.Event) {
		delivered = append(delivered, ev)
		if m.replay != nil {
			m.replay(ev)
		}
	})

	m.logger.Debug("replayed %d events (%s)", n, reason)
	m.metrics.recordReplay(n)
	for _, h := range m.hooks {
		h.Replayed(reason, delivered)
	}
}

func (m *Matcher) fire(owner *phrase.Node, a action.Action, now key.Timestamp, fallback bool) {
	if _, err := m.dispatcher.Fire(a, now); err != nil {
		m.metrics.recordDispatchError()
	}
	m.metrics.recordGesture(fallback)
	m.notifyGesture(owner, a, fallback)
}

func (m *Matcher) notifyGesture(n *phrase.Node, a action.Action, fallback bool) {
	for _, h := range m.hooks {
		h.GestureCompleted(n, a, fallback)
	}
}

// resolve walks up from n through transparent actions. It stops at the
// first keycode or callback; None, an unset action or the root end the
// walk empty-handed.
func resolve(n *phrase.Node) (*phrase.Node, action.Action, bool) {
	for ; n != nil && !n.IsRoot(); n = n.Parent() {
		a := n.Action()
		switch a.Kind() {
		case action.KindTransparent:
			continue
		case action.KindKeycode, action.KindCallback:
			return n, a, true
		default:
			return nil, action.Action{}, false
		}
	}
	return nil, action.Action{}, false
}

// Tick checks the timeout against the clock. Hosts call it from their
// polling loop. It reports whether a gesture expired.
func (m *Matcher) Tick() bool {
	if m.replaying || !m.Matching() {
		return false
	}
	now := m.clock.Now()
	if !key.Elapsed(now, m.lastAccepted, m.timeout) {
		return false
	}
	m.expire(now)
	return true
}

// Abort cancels the gesture in progress and replays its events, as the
// abort position does. It reports whether a gesture was in progress.
func (m *Matcher) Abort() bool {
	if !m.Matching() {
		return false
	}
	m.end(ReasonAbort, m.clock.Now())
	return true
}

// Flush hands every held event back to the host and returns to idle
// without considering fallback actions.
func (m *Matcher) Flush() {
	if !m.Matching() {
		return
	}
	m.end(ReasonFlush, m.clock.Now())
}

// Reset drops the gesture in progress without replaying anything and
// forgets keys left down by fired gestures.
func (m *Matcher) Reset() {
	clear(m.swallow)
	if m.current != nil {
		m.current.ResetChildren()
	}
	m.current = nil
	m.buffer.Reset()
}
