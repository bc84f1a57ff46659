package config

import (
	"time"

	"github.com/dshills/keymelody/internal/input/matcher"
	"github.com/dshills/keymelody/internal/input/record"
)

// Gesture kinds.
const (
	KindNoteLine = "note_line"
	KindChord    = "chord"
	KindCluster  = "cluster"
	KindTapDance = "tap_dance"
	KindSequence = "sequence"
)

// File is a parsed configuration document.
type File struct {
	Settings Settings          `toml:"settings" yaml:"settings"`
	Keymaps  []Keymap          `toml:"keymap" yaml:"keymap"`
	Gestures []Gesture         `toml:"gesture" yaml:"gesture"`
	Scripts  map[string]string `toml:"scripts" yaml:"scripts"`

	// Source is the path the file was read from.
	Source string `toml:"-" yaml:"-"`
}

// Settings configures the matcher and the host.
type Settings struct {
	TimeoutMS      int    `toml:"timeout_ms" yaml:"timeout_ms"`
	AbortKey       string `toml:"abort_key" yaml:"abort_key"`
	BufferCapacity int    `toml:"buffer_capacity" yaml:"buffer_capacity"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`
	Layer          int    `toml:"layer" yaml:"layer"`
}

// DefaultSettings returns the settings used for absent fields.
func DefaultSettings() Settings {
	return Settings{
		TimeoutMS:      int(matcher.DefaultTimeout / time.Millisecond),
		BufferCapacity: record.DefaultCapacity,
		LogLevel:       "info",
	}
}

// Keymap maps positions to keycode names on one layer.
type Keymap struct {
	Layer int               `toml:"layer" yaml:"layer"`
	Keys  map[string]string `toml:"keys" yaml:"keys"`
}

// Gesture is one gesture definition.
type Gesture struct {
	Name  string `toml:"name" yaml:"name"`
	Layer int    `toml:"layer" yaml:"layer"`
	Kind  string `toml:"kind" yaml:"kind"`

	// Keys lists positions for note lines, chords, clusters and the single
	// position of a tap dance.
	Keys []string `toml:"keys" yaml:"keys"`

	// Phrases describes a sequence gesture.
	Phrases []Phrase `toml:"phrases" yaml:"phrases"`

	Action   *ActionSpec `toml:"action" yaml:"action"`
	Taps     []TapSpec   `toml:"taps" yaml:"taps"`
	Fallback *ActionSpec `toml:"fallback" yaml:"fallback"`
}

// Phrase is one step of a sequence gesture.
type Phrase struct {
	Kind string   `toml:"kind" yaml:"kind"`
	Keys []string `toml:"keys" yaml:"keys"`
}

// TapSpec binds an action to a tap count.
type TapSpec struct {
	Count  int        `toml:"count" yaml:"count"`
	Action ActionSpec `toml:"action" yaml:"action"`
}

// ActionSpec is an action table. Exactly one field must be set.
type ActionSpec struct {
	Keycode     string `toml:"keycode" yaml:"keycode"`
	Lua         string `toml:"lua" yaml:"lua"`
	None        bool   `toml:"none" yaml:"none"`
	Transparent bool   `toml:"transparent" yaml:"transparent"`
}

func (a ActionSpec) variants() int {
	n := 0
	for _, set := range []bool{a.Keycode != "", a.Lua != "", a.None, a.Transparent} {
		if set {
			n++
		}
	}
	return n
}
