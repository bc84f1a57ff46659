package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/matcher"
)

// TraceStep is one entry of an event trace. Exactly one of Key, Tick or
// Layer is set. A trace is a YAML sequence:
//
//   - {key: r0c1, down: true, at: 10}  # physical transition
//   - {key: A, down: false}            # keycode name, resolved via the key map
//   - {tick: 250}                      # set the clock to 250 and run Tick
//   - {layer: 1}                       # switch the active layer
type TraceStep struct {
	Key   string  `yaml:"key,omitempty"`
	Down  *bool   `yaml:"down,omitempty"`
	At    *uint16 `yaml:"at,omitempty"`
	Tick  *uint16 `yaml:"tick,omitempty"`
	Layer *uint8  `yaml:"layer,omitempty"`

	// Line is the source line, filled in by ParseTrace.
	Line int `yaml:"-"`
}

func (s TraceStep) validate() error {
	set := 0
	if s.Key != "" {
		set++
	}
	if s.Tick != nil {
		set++
	}
	if s.Layer != nil {
		set++
	}
	switch {
	case set == 0:
		return fmt.Errorf("%w: step needs key, tick or layer", ErrInvalidTrace)
	case set > 1:
		return fmt.Errorf("%w: key, tick and layer are exclusive", ErrInvalidTrace)
	case s.Key != "" && s.Down == nil:
		return fmt.Errorf("%w: key step needs down", ErrInvalidTrace)
	case s.Key == "" && (s.Down != nil || s.At != nil):
		return fmt.Errorf("%w: down and at only apply to key steps", ErrInvalidTrace)
	}
	return nil
}

// LoadTrace reads a YAML trace file.
func LoadTrace(path string) ([]TraceStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTrace(data)
}

// ParseTrace decodes a YAML sequence of trace steps.
func ParseTrace(data []byte) ([]TraceStep, error) {
	var nodes []yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&nodes); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrace, err)
	}

	steps := make([]TraceStep, 0, len(nodes))
	for i := range nodes {
		var st TraceStep
		if err := nodes[i].Decode(&st); err != nil {
			return nil, &TraceError{Step: i, Line: nodes[i].Line, Err: fmt.Errorf("%w: %v", ErrInvalidTrace, err)}
		}
		st.Line = nodes[i].Line
		if err := st.validate(); err != nil {
			return nil, &TraceError{Step: i, Line: st.Line, Err: err}
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// Report summarizes a trace run.
type Report struct {
	Session    string
	Source     string
	Steps      int
	Keystrokes []Keystroke
	Gestures   []GestureRecord
	Replays    []ReplayRecord
	Metrics    matcher.Snapshot
}

// RunTrace plays steps against the application. The clock must be a
// *key.ManualClock; key steps without an explicit time reuse the current
// one. After the last step the clock is advanced past the timeout and
// Tick runs once so a trailing gesture resolves the way it would on a
// real keyboard.
func (app *Application) RunTrace(steps []TraceStep) (*Report, error) {
	clock, ok := app.clock.(*key.ManualClock)
	if !ok {
		return nil, ErrManualClockRequired
	}

	for i, st := range steps {
		if err := app.runStep(clock, st); err != nil {
			return nil, &TraceError{Step: i, Line: st.Line, Err: err}
		}
	}

	if app.Matching() {
		clock.Advance(app.matcher.Timeout() + time.Millisecond)
		app.Tick()
	}

	return &Report{
		Session:    app.ID(),
		Source:     sourceName(app.file),
		Steps:      len(steps),
		Keystrokes: app.Keystrokes(),
		Gestures:   app.Gestures(),
		Replays:    app.Replays(),
		Metrics:    app.metrics.Snapshot(),
	}, nil
}

func (app *Application) runStep(clock *key.ManualClock, st TraceStep) error {
	if err := st.validate(); err != nil {
		return err
	}

	switch {
	case st.Layer != nil:
		app.SetLayer(key.Layer(*st.Layer))

	case st.Tick != nil:
		clock.Set(key.Timestamp(*st.Tick))
		app.Tick()

	default:
		pos, err := app.resolvePosition(st.Key)
		if err != nil {
			return err
		}
		if st.At != nil {
			clock.Set(key.Timestamp(*st.At))
		}
		now := clock.Now()
		if *st.Down {
			app.HandleEvent(key.NewPress(pos, now))
		} else {
			app.HandleEvent(key.NewRelease(pos, now))
		}
	}
	return nil
}

// resolvePosition accepts a position ("r0c1", "0,1", "0x01") or a keycode
// name bound in the key map on the active layer.
func (app *Application) resolvePosition(spec string) (key.Position, error) {
	if pos, err := key.ParsePosition(spec); err == nil {
		return pos, nil
	}
	code, err := key.ParseKeycode(spec)
	if err != nil {
		return key.NoPosition, fmt.Errorf("%w: key %q is neither a position nor a keycode", ErrInvalidTrace, spec)
	}
	pos, ok := app.keymap.Reverse(app.Layer(), code)
	if !ok {
		return key.NoPosition, fmt.Errorf("%w: keycode %s is not in the key map", ErrInvalidTrace, code)
	}
	return pos, nil
}

// WriteTo writes a human-readable report.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "session %s\n", r.Session)
	fmt.Fprintf(&b, "source  %s (%d steps)\n", r.Source, r.Steps)

	b.WriteString("\nkeystrokes:\n")
	for _, k := range r.Keystrokes {
		fmt.Fprintf(&b, "  %s\n", k)
	}

	b.WriteString("\ngestures:\n")
	for _, g := range r.Gestures {
		fmt.Fprintf(&b, "  %s\n", g)
	}

	b.WriteString("\nreplays:\n")
	for _, rp := range r.Replays {
		fmt.Fprintf(&b, "  %s\n", rp)
	}

	b.WriteString("\n")
	writeSnapshot(&b, r.Metrics)

	n, err := w.Write(b.Bytes())
	return int64(n), err
}

func writeSnapshot(w io.Writer, s matcher.Snapshot) {
	fmt.Fprintf(w, "events %d (consumed %d, passed %d)\n", s.Events, s.Consumed, s.PassedThrough)
	fmt.Fprintf(w, "gestures %d (fallbacks %d)\n", s.Gestures, s.Fallbacks)
	fmt.Fprintf(w, "replays %d (%d events)\n", s.Replays, s.ReplayedEvents)
	fmt.Fprintf(w, "timeouts %d  aborts %d  overflows %d  dispatch errors %d\n", s.Timeouts, s.Aborts, s.Overflows, s.DispatchErrors)
	fmt.Fprintf(w, "peak latency %s\n", s.PeakLatency)
}

// WriteMetrics writes the current metrics snapshot.
func (app *Application) WriteMetrics(w io.Writer) {
	writeSnapshot(w, app.metrics.Snapshot())
}
