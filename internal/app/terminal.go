package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keymelody/internal/input/key"
)

// Terminals report key presses only. The driver synthesizes the release
// once a key has been held for HoldTime without repeating.
const (
	DefaultHoldTime   = 150 * time.Millisecond
	DefaultTickPeriod = 10 * time.Millisecond
	maxLogLines       = 200
)

// DefaultLayout maps the four main rows of a US keyboard onto matrix
// positions, row by row from the number row.
var DefaultLayout = []string{
	"1234567890",
	"qwertyuiop",
	"asdfghjkl;",
	"zxcvbnm,./",
}

// Terminal drives an Application from a tcell screen. Esc presses the
// abort position, F1 to F4 select layers 0 to 3 and Ctrl-C quits.
type Terminal struct {
	app    *Application
	screen tcell.Screen
	layout map[rune]key.Position

	hold time.Duration
	tick time.Duration

	held  map[key.Position]key.Timestamp // press times
	lines []string
}

// NewTerminal creates a driver on screen. The application should run on
// the system clock.
func NewTerminal(app *Application, screen tcell.Screen) *Terminal {
	t := &Terminal{
		app:    app,
		screen: screen,
		layout: BuildLayout(DefaultLayout),
		hold:   DefaultHoldTime,
		tick:   DefaultTickPeriod,
		held:   make(map[key.Position]key.Timestamp),
	}
	app.SetOutput(t.record)
	return t
}

// BuildLayout maps each rune of rows[r][c] to position r,c. Letters map
// in both cases.
func BuildLayout(rows []string) map[rune]key.Position {
	m := make(map[rune]key.Position)
	for r, row := range rows {
		for c, ch := range []rune(row) {
			pos := key.Pos(uint8(r), uint8(c))
			m[ch] = pos
			if ch >= 'a' && ch <= 'z' {
				m[ch-'a'+'A'] = pos
			}
		}
	}
	return m
}

// SetHoldTime changes how long a synthesized key stays down.
func (t *Terminal) SetHoldTime(d time.Duration) {
	if d > 0 {
		t.hold = d
	}
}

// Run initializes the screen and processes input until ctx is cancelled
// or the user quits. Screen events are forwarded from tcell's goroutine;
// all matcher work happens here.
func (t *Terminal) Run(ctx context.Context) error {
	if err := t.screen.Init(); err != nil {
		return &InitError{Component: "terminal", Err: err}
	}
	defer t.screen.Fini()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go t.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	t.logf("session %s  type on the keyboard, Ctrl-C quits", t.app.ShortID())
	for {
		t.draw()

		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := t.handle(ev); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		case <-ticker.C:
			t.releaseExpired()
			t.app.Tick()
		}
	}
}

func (t *Terminal) handle(ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		return t.handleKey(ev)
	}
	return nil
}

func (t *Terminal) handleKey(ev *tcell.EventKey) error {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return ErrQuit
	case tcell.KeyEscape:
		t.tap(t.app.Matcher().AbortPosition())
	case tcell.KeyF1, tcell.KeyF2, tcell.KeyF3, tcell.KeyF4:
		l := key.Layer(ev.Key() - tcell.KeyF1)
		t.app.SetLayer(l)
		t.logf("layer %d", l)
	case tcell.KeyRune:
		pos, ok := t.layout[ev.Rune()]
		if !ok {
			t.logf("no position for %q", ev.Rune())
			return nil
		}
		t.tap(pos)
	}
	return nil
}

// tap presses pos and schedules its release. A repeated key releases
// the previous press first.
func (t *Terminal) tap(pos key.Position) {
	if !pos.IsValid() {
		return
	}
	now := t.app.Clock().Now()
	if _, down := t.held[pos]; down {
		delete(t.held, pos)
		t.app.HandleEvent(key.NewRelease(pos, now))
	}
	t.app.HandleEvent(key.NewPress(pos, now))
	t.held[pos] = now
}

// releaseExpired releases keys held for at least the hold time, in
// position order.
func (t *Terminal) releaseExpired() {
	now := t.app.Clock().Now()
	hold := uint16(t.hold.Milliseconds())
	var due []key.Position
	for pos, pressedAt := range t.held {
		if now.Sub(pressedAt) >= hold {
			due = append(due, pos)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Row != due[j].Row {
			return due[i].Row < due[j].Row
		}
		return due[i].Col < due[j].Col
	})
	for _, pos := range due {
		delete(t.held, pos)
		t.app.HandleEvent(key.NewRelease(pos, now))
	}
}

func (t *Terminal) record(k Keystroke) {
	t.logf("%s", k)
}

func (t *Terminal) logf(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
	if len(t.lines) > maxLogLines {
		t.lines = t.lines[len(t.lines)-maxLogLines:]
	}
}

func (t *Terminal) draw() {
	t.screen.Clear()
	width, height := t.screen.Size()

	status := fmt.Sprintf(" keymelody  layer %d  matching %v  pending %d ",
		t.app.Layer(), t.app.Matching(), len(t.app.Pending()))
	drawString(t.screen, 0, 0, width, status, tcell.StyleDefault.Reverse(true))

	rows := height - 1
	start := 0
	if len(t.lines) > rows {
		start = len(t.lines) - rows
	}
	for i, line := range t.lines[start:] {
		drawString(t.screen, 0, i+1, width, line, tcell.StyleDefault)
	}
	t.screen.Show()
}

func drawString(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
