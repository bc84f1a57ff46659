package script

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/logging"
)

// DefaultTimeout bounds a single callback run.
const DefaultTimeout = 100 * time.Millisecond

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("script: engine closed")

	// ErrUnknownScript is returned for a name Load never saw.
	ErrUnknownScript = errors.New("script: unknown script")

	// ErrTimeout is returned when a run exceeds its time limit.
	ErrTimeout = errors.New("script: execution timeout")
)

// Engine holds one sandboxed Lua state and the compiled snippets.
type Engine struct {
	mu      sync.Mutex
	L       *lua.LState
	scripts map[string]*lua.LFunction
	closed  bool

	timeout time.Duration
	sink    action.KeycodeFunc
	layer   func() key.Layer
	clock   key.Clock
	logger  *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets where tap, press and release deliver keycodes.
func WithSink(fn action.KeycodeFunc) Option {
	return func(e *Engine) {
		e.sink = fn
	}
}

// WithLayerFunc sets the source of layer().
func WithLayerFunc(fn func() key.Layer) Option {
	return func(e *Engine) {
		if fn != nil {
			e.layer = fn
		}
	}
}

// WithClock sets the clock used to timestamp synthetic keycodes.
func WithClock(c key.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithTimeout sets the per-run time limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger used by log().
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.WithComponent("script")
		}
	}
}

// New creates an engine with an empty sandboxed state.
func New(opts ...Option) *Engine {
	e := &Engine{
		scripts: make(map[string]*lua.LFunction),
		timeout: DefaultTimeout,
		layer:   func() key.Layer { return 0 },
		clock:   key.NewSystemClock(),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.installHostFuncs()
	return e
}

// openSafeLibraries opens the side-effect free standard libraries and
// removes the loaders that could pull code from disk.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (e *Engine) installHostFuncs() {
	keyFunc := func(press, release bool) lua.LGFunction {
		return func(L *lua.LState) int {
			name := L.CheckString(1)
			code, err := key.ParseKeycode(name)
			if err != nil {
				L.RaiseError("%v", err)
				return 0
			}
			if e.sink == nil {
				L.RaiseError("no keycode sink")
				return 0
			}
			now := e.clock.Now()
			if press {
				e.sink(code, true, now)
			}
			if release {
				e.sink(code, false, now)
			}
			return 0
		}
	}

	e.L.SetGlobal("tap", e.L.NewFunction(keyFunc(true, true)))
	e.L.SetGlobal("press", e.L.NewFunction(keyFunc(true, false)))
	e.L.SetGlobal("release", e.L.NewFunction(keyFunc(false, true)))
	e.L.SetGlobal("log", e.L.NewFunction(func(L *lua.LState) int {
		e.logger.Info("%s", L.CheckString(1))
		return 0
	}))
	e.L.SetGlobal("print", e.L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		e.logger.Info("%s", strings.Join(parts, "\t"))
		return 0
	}))
	e.L.SetGlobal("layer", e.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(e.layer()))
		return 1
	}))
}

// Load compiles every snippet. Nothing is run. A snippet that fails to
// compile leaves previously loaded snippets in place.
func (e *Engine) Load(scripts map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	compiled := make(map[string]*lua.LFunction, len(scripts))
	for _, name := range names {
		fn, err := e.L.LoadString(scripts[name])
		if err != nil {
			return fmt.Errorf("compiling script %q: %w", name, err)
		}
		compiled[name] = fn
	}
	for name, fn := range compiled {
		e.scripts[name] = fn
	}
	return nil
}

// Has reports whether a snippet with this name is loaded.
func (e *Engine) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.scripts[name]
	return ok
}

// Names returns the loaded snippet names in order.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.scripts))
	for name := range e.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Callback returns a callback action that runs the named snippet with
// the snippet name as its context value.
func (e *Engine) Callback(name string) (action.Action, error) {
	if !e.Has(name) {
		return action.Action{}, fmt.Errorf("%w: %s", ErrUnknownScript, name)
	}
	return action.Callback(name, func(arg any) error {
		return e.Run(name, arg)
	}, name), nil
}

// Run executes the named snippet with ctx bound to arg.
func (e *Engine) Run(name string, arg any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	fn, ok := e.scripts[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScript, name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	e.L.SetGlobal("ctx", toLValue(e.L, arg))

	err := e.doWithRecovery(func() error {
		e.L.Push(fn)
		return e.L.PCall(0, lua.MultRet, nil)
	})
	e.L.SetTop(0)

	if ctx.Err() != nil {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, name, e.timeout)
	}
	if err != nil {
		return fmt.Errorf("script %q: %w", name, err)
	}
	return nil
}

func (e *Engine) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the Lua state.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.L.Close()
	e.closed = true
	return nil
}

func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case key.Layer:
		return lua.LNumber(x)
	case map[string]any:
		t := L.NewTable()
		for k, val := range x {
			t.RawSetString(k, toLValue(L, val))
		}
		return t
	case []string:
		t := L.NewTable()
		for _, s := range x {
			t.Append(lua.LString(s))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
