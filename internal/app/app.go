// Package app wires the gesture matcher into a host pipeline. It loads a
// gesture file, builds the phrase tree and the Lua callbacks, and feeds
// key events through the matcher the way keyboard firmware would: events
// the matcher passes through or replays are translated by the key map
// and emitted as host keystrokes.
package app

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/keymelody/internal/config"
	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/matcher"
	"github.com/dshills/keymelody/internal/input/melody"
	"github.com/dshills/keymelody/internal/logging"
	"github.com/dshills/keymelody/internal/script"
)

// Application owns one matcher session.
type Application struct {
	mu sync.Mutex

	id     uuid.UUID
	logger *logging.Logger
	clock  key.Clock
	layer  atomic.Uint32

	file     *config.File
	keymap   *config.KeyMap
	registry *melody.Registry
	handles  map[string][]melody.Handle
	scripts  *script.Engine
	matcher  *matcher.Matcher
	metrics  *matcher.Metrics

	output     func(Keystroke)
	keystrokes []Keystroke
	gestures   []GestureRecord
	replays    []ReplayRecord

	closed atomic.Bool
}

// Options configures the application.
type Options struct {
	// ConfigPath is the gesture file. Ignored when Config is set.
	ConfigPath string

	// Config is an already parsed gesture file.
	Config *config.File

	// Layer overrides the initial layer from the settings.
	Layer *key.Layer

	// LogLevel overrides the level from the settings.
	LogLevel string

	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer

	// Clock defaults to the system clock. Trace replay needs a
	// *key.ManualClock.
	Clock key.Clock
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		id:    uuid.New(),
		clock: opts.Clock,
	}
	if app.clock == nil {
		app.clock = key.NewSystemClock()
	}

	if err := app.bootstrap(opts); err != nil {
		if app.scripts != nil {
			_ = app.scripts.Close()
		}
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap(opts Options) error {
	// 1. Gesture file
	file, err := loadFile(opts)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.file = file

	// 2. Logger
	levelName := file.Settings.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}
	level, ok := logging.ParseLevel(levelName)
	if !ok {
		return &InitError{Component: "logger", Err: &config.ValidationError{Path: "log_level", Message: "unknown level " + levelName}}
	}
	output := opts.LogOutput
	if output == nil {
		output = os.Stderr
	}
	app.logger = logging.New(logging.Config{
		Level:  level,
		Output: output,
		Prefix: "keymelody",
	}).WithField("session", app.ShortID())

	// 3. Key map
	app.keymap, err = file.KeyMap()
	if err != nil {
		return &InitError{Component: "keymap", Err: err}
	}

	layer := key.Layer(file.Settings.Layer)
	if opts.Layer != nil {
		layer = *opts.Layer
	}
	app.layer.Store(uint32(layer))

	// 4. Lua callbacks
	app.scripts = script.New(
		script.WithSink(app.emitKeycode),
		script.WithLayerFunc(app.Layer),
		script.WithClock(app.clock),
		script.WithLogger(app.logger),
	)
	if err := app.scripts.Load(file.Scripts); err != nil {
		return &InitError{Component: "scripts", Err: err}
	}

	// 5. Phrase tree
	app.registry = melody.NewRegistry(melody.WithLogger(app.logger))
	app.handles, err = file.Apply(app.registry, app.scripts)
	if err != nil {
		return &InitError{Component: "gestures", Err: err}
	}

	// 6. Matcher
	mopts, err := file.Settings.MatcherOptions()
	if err != nil {
		return &InitError{Component: "matcher", Err: err}
	}
	app.metrics = matcher.NewMetrics()
	mopts = append(mopts,
		matcher.WithLayerFunc(app.Layer),
		matcher.WithClock(app.clock),
		matcher.WithLogger(app.logger),
		matcher.WithMetrics(app.metrics),
		matcher.WithHook(matcher.HookFuncs{
			OnGesture: app.recordGesture,
			OnReplay:  app.recordReplay,
		}),
	)
	dispatcher := action.NewDispatcher(app.emitKeycode, action.WithLogger(app.logger))
	app.matcher = matcher.New(app.registry, dispatcher, app.replay, mopts...)

	app.logger.Info("loaded %d gestures (%d nodes) from %s", app.registry.Len(), app.registry.NodeCount(), sourceName(file))
	for _, c := range app.registry.Conflicts() {
		app.logger.Warn("conflicting definition: %s", c)
	}
	return nil
}

func loadFile(opts Options) (*config.File, error) {
	switch {
	case opts.Config != nil:
		return opts.Config, nil
	case opts.ConfigPath != "":
		return config.Load(opts.ConfigPath)
	default:
		return config.Parse("", config.FormatTOML, nil)
	}
}

func sourceName(f *config.File) string {
	if f.Source == "" {
		return "<empty>"
	}
	return f.Source
}

// ID returns the session id.
func (app *Application) ID() string {
	return app.id.String()
}

// ShortID returns the first block of the session id.
func (app *Application) ShortID() string {
	return app.id.String()[:8]
}

// Logger returns the session logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Config returns the loaded gesture file.
func (app *Application) Config() *config.File {
	return app.file
}

// Registry returns the phrase tree.
func (app *Application) Registry() *melody.Registry {
	return app.registry
}

// Handles returns the registered handles keyed by gesture name.
func (app *Application) Handles() map[string][]melody.Handle {
	return app.handles
}

// Matcher returns the matcher.
func (app *Application) Matcher() *matcher.Matcher {
	return app.matcher
}

// Metrics returns the matcher metrics.
func (app *Application) Metrics() *matcher.Metrics {
	return app.metrics
}

// Clock returns the session clock.
func (app *Application) Clock() key.Clock {
	return app.clock
}

// Layer returns the active layer.
func (app *Application) Layer() key.Layer {
	return key.Layer(app.layer.Load())
}

// SetLayer changes the active layer. A match in progress keeps its
// candidates and is filtered against the new layer from the next event.
func (app *Application) SetLayer(l key.Layer) {
	if old := key.Layer(app.layer.Swap(uint32(l))); old != l {
		app.logger.Debug("layer %d -> %d", old, l)
	}
}

// Shutdown flushes any pending match and releases the Lua state. It is
// safe to call more than once.
func (app *Application) Shutdown() {
	if !app.closed.CompareAndSwap(false, true) {
		return
	}

	app.mu.Lock()
	if app.matcher.Matching() {
		app.matcher.Flush()
	}
	app.mu.Unlock()

	if err := app.scripts.Close(); err != nil {
		app.logger.Error("closing scripts: %v", err)
	}
}
