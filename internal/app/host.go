package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/matcher"
	"github.com/dshills/keymelody/internal/input/phrase"
)

// Source tells where an emitted keystroke came from.
type Source uint8

const (
	// SourcePassThrough is an event the matcher declined.
	SourcePassThrough Source = iota
	// SourceReplay is a withheld event released by the matcher.
	SourceReplay
	// SourceAction is a keycode produced by a gesture action or script.
	SourceAction
)

func (s Source) String() string {
	switch s {
	case SourcePassThrough:
		return "pass"
	case SourceReplay:
		return "replay"
	case SourceAction:
		return "action"
	default:
		return "unknown"
	}
}

// Keystroke is one keycode transition delivered to the host.
type Keystroke struct {
	Code     key.Keycode
	Pressed  bool
	At       key.Timestamp
	Position key.Position // SentinelPosition for action output
	Source   Source
}

func (k Keystroke) String() string {
	dir := "up"
	if k.Pressed {
		dir = "down"
	}
	if k.Source == SourceAction {
		return fmt.Sprintf("%6d %-6s %s %s", k.At, k.Source, k.Code, dir)
	}
	return fmt.Sprintf("%6d %-6s %s %s [%s]", k.At, k.Source, k.Code, dir, k.Position)
}

// GestureRecord describes a fired gesture.
type GestureRecord struct {
	Node     string
	Action   string
	Fallback bool
}

func (g GestureRecord) String() string {
	if g.Fallback {
		return fmt.Sprintf("%s -> %s (fallback)", g.Node, g.Action)
	}
	return fmt.Sprintf("%s -> %s", g.Node, g.Action)
}

// ReplayRecord describes one replay of withheld events.
type ReplayRecord struct {
	Reason matcher.Reason
	Events int
}

func (r ReplayRecord) String() string {
	return fmt.Sprintf("%s: %d events", r.Reason, r.Events)
}

// SetOutput installs an observer for every emitted keystroke.
func (app *Application) SetOutput(fn func(Keystroke)) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.output = fn
}

// HandleEvent feeds one physical key transition through the matcher.
// Events the matcher passes through are emitted immediately.
func (app *Application) HandleEvent(ev key.Event) matcher.Result {
	app.mu.Lock()
	defer app.mu.Unlock()

	r := app.matcher.Process(ev)
	if r == matcher.PassThrough {
		app.emitEvent(ev, SourcePassThrough)
	}
	return r
}

// Press feeds a press of pos at the current clock time.
func (app *Application) Press(pos key.Position) matcher.Result {
	return app.HandleEvent(key.NewPress(pos, app.clock.Now()))
}

// Release feeds a release of pos at the current clock time.
func (app *Application) Release(pos key.Position) matcher.Result {
	return app.HandleEvent(key.NewRelease(pos, app.clock.Now()))
}

// Tick runs the timeout check. It reports whether a match ended.
func (app *Application) Tick() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.matcher.Tick()
}

// Abort cancels a match in progress and replays its events.
func (app *Application) Abort() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.matcher.Abort()
}

// Flush replays any withheld events.
func (app *Application) Flush() {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.matcher.Flush()
}

// Matching reports whether a gesture is in progress.
func (app *Application) Matching() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.matcher.Matching()
}

// Pending returns the withheld events.
func (app *Application) Pending() []key.Event {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.matcher.Pending()
}

// Keystrokes returns a copy of everything emitted so far.
func (app *Application) Keystrokes() []Keystroke {
	app.mu.Lock()
	defer app.mu.Unlock()
	return append([]Keystroke(nil), app.keystrokes...)
}

// Gestures returns a copy of the fired gestures.
func (app *Application) Gestures() []GestureRecord {
	app.mu.Lock()
	defer app.mu.Unlock()
	return append([]GestureRecord(nil), app.gestures...)
}

// Replays returns a copy of the replay records.
func (app *Application) Replays() []ReplayRecord {
	app.mu.Lock()
	defer app.mu.Unlock()
	return append([]ReplayRecord(nil), app.replays...)
}

// replay, emitKeycode and the record hooks run inside matcher calls,
// with app.mu already held.

func (app *Application) replay(ev key.Event) {
	app.emitEvent(ev, SourceReplay)
}

func (app *Application) emitEvent(ev key.Event, src Source) {
	code, ok := app.keymap.Lookup(app.Layer(), ev.Position)
	if !ok {
		app.logger.Debug("no keycode for %s on layer %d", ev.Position, app.Layer())
	}
	app.emit(Keystroke{
		Code:     code,
		Pressed:  ev.Pressed,
		At:       ev.Time,
		Position: ev.Position,
		Source:   src,
	})
}

func (app *Application) emitKeycode(code key.Keycode, pressed bool, at key.Timestamp) {
	app.emit(Keystroke{
		Code:     code,
		Pressed:  pressed,
		At:       at,
		Position: key.SentinelPosition,
		Source:   SourceAction,
	})
}

func (app *Application) emit(k Keystroke) {
	app.keystrokes = append(app.keystrokes, k)
	if app.output != nil {
		app.output(k)
	}
}

func (app *Application) recordGesture(n *phrase.Node, a action.Action, fallback bool) {
	rec := GestureRecord{Node: n.String(), Action: a.String(), Fallback: fallback}
	app.gestures = append(app.gestures, rec)
	app.logger.Info("gesture %s", rec)
}

func (app *Application) recordReplay(reason matcher.Reason, events []key.Event) {
	app.replays = append(app.replays, ReplayRecord{Reason: reason, Events: len(events)})
	app.logger.Debug("replay %s: %d events", reason, len(events))
}

// Dump writes the phrase tree, one node per line indented by depth.
func (app *Application) Dump(w io.Writer) error {
	var err error
	app.registry.Walk(func(n *phrase.Node, depth int) bool {
		line := strings.Repeat("  ", depth) + n.String()
		if a := n.Action(); a.IsSet() {
			line += " -> " + a.String()
		}
		_, err = fmt.Fprintln(w, line)
		return err == nil
	})
	if err != nil {
		return err
	}
	for _, c := range app.registry.Conflicts() {
		if _, err := fmt.Fprintf(w, "conflict: %s\n", c); err != nil {
			return err
		}
	}
	return nil
}
