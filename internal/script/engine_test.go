package script

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/logging"
)

type emitted struct {
	code    key.Keycode
	pressed bool
	at      key.Timestamp
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *[]emitted) {
	t.Helper()
	var out []emitted
	sink := func(code key.Keycode, pressed bool, at key.Timestamp) {
		out = append(out, emitted{code, pressed, at})
	}
	clock := key.NewManualClock(1000)
	e := New(append([]Option{WithSink(sink), WithClock(clock)}, opts...)...)
	t.Cleanup(func() { _ = e.Close() })
	return e, &out
}

func TestTapPressRelease(t *testing.T) {
	e, out := newTestEngine(t)
	require.NoError(t, e.Load(map[string]string{
		"esc":   `tap("ESC")`,
		"shift": `press("LSFT") release("LSFT")`,
	}))

	require.NoError(t, e.Run("esc", nil))
	require.NoError(t, e.Run("shift", nil))

	assert.Equal(t, []emitted{
		{key.KeyEscape, true, 1000},
		{key.KeyEscape, false, 1000},
		{key.KeyLShift, true, 1000},
		{key.KeyLShift, false, 1000},
	}, *out)
}

func TestCallbackAction(t *testing.T) {
	e, out := newTestEngine(t)
	require.NoError(t, e.Load(map[string]string{
		"named": `if ctx == "named" then tap("A") end`,
	}))

	a, err := e.Callback("named")
	require.NoError(t, err)
	assert.Equal(t, action.KindCallback, a.Kind())
	assert.Equal(t, "named", a.Name())

	d := action.NewDispatcher(nil)
	fired, err := d.Fire(a, 0)
	require.NoError(t, err)
	assert.True(t, fired)
	require.Len(t, *out, 2)
	assert.Equal(t, key.KeyA, (*out)[0].code)
}

func TestCallbackUnknown(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Callback("missing")
	assert.ErrorIs(t, err, ErrUnknownScript)
	assert.ErrorIs(t, e.Run("missing", nil), ErrUnknownScript)
}

func TestContextValues(t *testing.T) {
	e, out := newTestEngine(t)
	require.NoError(t, e.Load(map[string]string{
		"ctx": `
			if type(ctx) == "table" and ctx.count == 3 and ctx.key == "B" then
				tap(ctx.key)
			end
		`,
	}))

	require.NoError(t, e.Run("ctx", map[string]any{"count": 3, "key": "B"}))
	require.Len(t, *out, 2)
	assert.Equal(t, key.KeyB, (*out)[0].code)
}

func TestLayerFunc(t *testing.T) {
	current := key.Layer(2)
	e, out := newTestEngine(t, WithLayerFunc(func() key.Layer { return current }))
	require.NoError(t, e.Load(map[string]string{
		"layered": `if layer() == 2 then tap("X") else tap("Y") end`,
	}))

	require.NoError(t, e.Run("layered", nil))
	current = 0
	require.NoError(t, e.Run("layered", nil))

	require.Len(t, *out, 4)
	assert.Equal(t, key.KeyX, (*out)[0].code)
	assert.Equal(t, key.KeyY, (*out)[2].code)
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown keycode", `tap("NOT_A_KEY")`},
		{"explicit error", `error("boom")`},
		{"nil call", `undefined_function()`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, out := newTestEngine(t)
			require.NoError(t, e.Load(map[string]string{"s": tt.src}))
			err := e.Run("s", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), `script "s"`)
			assert.Empty(t, *out)
		})
	}
}

func TestNoSink(t *testing.T) {
	e := New()
	defer e.Close()
	require.NoError(t, e.Load(map[string]string{"s": `tap("A")`}))
	assert.Error(t, e.Run("s", nil))
}

func TestSandbox(t *testing.T) {
	blocked := []string{"dofile", "loadfile", "load", "loadstring", "require", "io", "os", "debug", "package"}

	e, _ := newTestEngine(t)
	for _, name := range blocked {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, e.Load(map[string]string{"probe": `assert(` + name + ` == nil)`}))
			assert.NoError(t, e.Run("probe", nil))
		})
	}

	require.NoError(t, e.Load(map[string]string{
		"libs": `assert(string.upper("a") == "A") assert(math.max(1, 2) == 2) assert(table.concat({"a", "b"}) == "ab")`,
	}))
	assert.NoError(t, e.Run("libs", nil))
}

func TestTimeout(t *testing.T) {
	e, _ := newTestEngine(t, WithTimeout(20*time.Millisecond))
	require.NoError(t, e.Load(map[string]string{
		"spin": `while true do end`,
		"ok":   `local x = 1`,
	}))

	err := e.Run("spin", nil)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)

	// The state stays usable after a timeout.
	assert.NoError(t, e.Run("ok", nil))
}

func TestLoadCompileError(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Load(map[string]string{"good": `tap("A")`}))

	err := e.Load(map[string]string{"bad": `tap(`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)

	assert.True(t, e.Has("good"))
	assert.False(t, e.Has("bad"))
	assert.Equal(t, []string{"good"}, e.Names())
}

func TestClose(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Load(map[string]string{"s": `tap("A")`}))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.ErrorIs(t, e.Run("s", nil), ErrClosed)
	assert.ErrorIs(t, e.Load(map[string]string{"t": ""}), ErrClosed)
}

func TestLogAndPrint(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})
	e, _ := newTestEngine(t, WithLogger(logger))
	require.NoError(t, e.Load(map[string]string{
		"say": `log("hello from lua") print("count", 2)`,
	}))

	require.NoError(t, e.Run("say", nil))
	assert.Contains(t, buf.String(), "hello from lua")
	assert.Contains(t, buf.String(), "count\t2")
	assert.Contains(t, buf.String(), "component=script")
}
