package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[settings]
timeout_ms = 300
abort_key = "r3c0"
log_level = "debug"

[[keymap]]
layer = 0
keys = { r0c1 = "A", r0c2 = "B", r0c3 = "C", r1c1 = "D" }

[[keymap]]
layer = 1
keys = { r0c1 = "1" }

[[gesture]]
name = "esc"
kind = "chord"
keys = ["r0c1", "r0c2"]
action = { keycode = "ESC" }

[[gesture]]
name = "line"
kind = "note_line"
keys = ["r0c1", "r0c3"]
action = { keycode = "TAB" }

[[gesture]]
name = "seq"
kind = "sequence"
layer = 1
phrases = [
  { kind = "cluster", keys = ["r0c1", "r0c2"] },
  { kind = "note", keys = ["r0c3"] },
]
action = { lua = "hello" }

[[gesture]]
name = "dance"
kind = "tap_dance"
keys = ["r1c1"]
fallback = { transparent = true }
taps = [
  { count = 2, action = { keycode = "ENT" } },
  { count = 4, action = { none = true } },
]

[scripts]
hello = "tap('H')"
`

const sampleYAML = `
settings:
  timeout_ms: 300
  abort_key: r3c0
  log_level: debug
keymap:
  - layer: 0
    keys: {r0c1: A, r0c2: B, r0c3: C, r1c1: D}
  - layer: 1
    keys: {r0c1: "1"}
gesture:
  - name: esc
    kind: chord
    keys: [r0c1, r0c2]
    action: {keycode: ESC}
  - name: line
    kind: note_line
    keys: [r0c1, r0c3]
    action: {keycode: TAB}
  - name: seq
    kind: sequence
    layer: 1
    phrases:
      - {kind: cluster, keys: [r0c1, r0c2]}
      - {kind: note, keys: [r0c3]}
    action: {lua: hello}
  - name: dance
    kind: tap_dance
    keys: [r1c1]
    fallback: {transparent: true}
    taps:
      - {count: 2, action: {keycode: ENT}}
      - {count: 4, action: {none: true}}
scripts:
  hello: "tap('H')"
`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
	}{
		{"toml", FormatTOML, sampleTOML},
		{"yaml", FormatYAML, sampleYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse("sample", tt.format, []byte(tt.doc))
			require.NoError(t, err)

			assert.Equal(t, 300, f.Settings.TimeoutMS)
			assert.Equal(t, "r3c0", f.Settings.AbortKey)
			assert.Equal(t, "debug", f.Settings.LogLevel)
			assert.Equal(t, DefaultSettings().BufferCapacity, f.Settings.BufferCapacity)
			assert.Equal(t, "sample", f.Source)

			require.Len(t, f.Keymaps, 2)
			assert.Equal(t, "B", f.Keymaps[0].Keys["r0c2"])

			require.Len(t, f.Gestures, 4)
			assert.Equal(t, KindChord, f.Gestures[0].Kind)
			require.NotNil(t, f.Gestures[0].Action)
			assert.Equal(t, "ESC", f.Gestures[0].Action.Keycode)

			seq := f.Gestures[2]
			assert.Equal(t, 1, seq.Layer)
			require.Len(t, seq.Phrases, 2)
			assert.Equal(t, []string{"r0c3"}, seq.Phrases[1].Keys)

			dance := f.Gestures[3]
			require.Len(t, dance.Taps, 2)
			assert.True(t, dance.Taps[1].Action.None)
			require.NotNil(t, dance.Fallback)
			assert.True(t, dance.Fallback.Transparent)

			assert.Equal(t, "tap('H')", f.Scripts["hello"])
		})
	}
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		f, err := Parse("empty", format, nil)
		require.NoError(t, err, format)
		assert.Equal(t, DefaultSettings(), f.Settings)
		assert.Empty(t, f.Gestures)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
	}{
		{"toml syntax", FormatTOML, "[[gesture]\nname = 1"},
		{"toml unknown field", FormatTOML, "[settings]\ntimeout = 5\n"},
		{"toml type mismatch", FormatTOML, "[settings]\ntimeout_ms = \"slow\"\n"},
		{"yaml syntax", FormatYAML, "settings: [unclosed"},
		{"yaml unknown field", FormatYAML, "settings:\n  timeout: 5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad", tt.format, []byte(tt.doc))
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "bad", perr.Path)
			assert.Contains(t, err.Error(), "parse error in bad")
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("pos.toml", FormatTOML, []byte("[settings]\ntimeout_ms = = 3\n"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
	assert.Positive(t, perr.Column)
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse("x", Format("ini"), nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"gestures.toml", FormatTOML, false},
		{"/etc/km/GESTURES.TOML", FormatTOML, false},
		{"g.yaml", FormatYAML, false},
		{"g.yml", FormatYAML, false},
		{"g.json", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownFormat, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gestures.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Source)
	assert.Len(t, f.Gestures, 4)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadReader(t *testing.T) {
	f, err := LoadReader(strings.NewReader(sampleYAML), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "<reader>", f.Source)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
		wantErr  error
	}{
		{"bad timeout", "[settings]\ntimeout_ms = -5\n", "settings.timeout_ms", nil},
		{"unreachable timeout", "[settings]\ntimeout_ms = 65535\n", "settings.timeout_ms", nil},
		{"bad abort key", "[settings]\nabort_key = \"nowhere\"\n", "settings.abort_key", nil},
		{"bad log level", "[settings]\nlog_level = \"shout\"\n", "settings.log_level", nil},
		{"bad keymap code", "[[keymap]]\nkeys = { r0c0 = \"NOPE\" }\n", "keymap[0].keys.r0c0", nil},
		{"unknown kind", "[[gesture]]\nkind = \"arpeggio\"\n", "gesture[0].kind", ErrUnknownKind},
		{"missing action", "[[gesture]]\nkind = \"chord\"\nkeys = [\"r0c1\"]\n", "gesture[0].action", ErrMissingAction},
		{"ambiguous action", "[[gesture]]\nkind = \"chord\"\nkeys = [\"r0c1\"]\naction = { none = true, keycode = \"A\" }\n", "gesture[0].action", ErrAmbiguousAction},
		{"empty keys", "[[gesture]]\nkind = \"cluster\"\nkeys = []\naction = { none = true }\n", "gesture[0].keys", nil},
		{"bad key", "[[gesture]]\nkind = \"note_line\"\nkeys = [\"r0c1\", \"zz\"]\naction = { none = true }\n", "gesture[0].keys[1]", nil},
		{"unknown script", "[[gesture]]\nkind = \"chord\"\nkeys = [\"r0c1\"]\naction = { lua = \"nope\" }\n", "gesture[0].action.lua", nil},
		{"tap dance two keys", "[[gesture]]\nkind = \"tap_dance\"\nkeys = [\"r0c1\", \"r0c2\"]\ntaps = [{ count = 1, action = { none = true } }]\n", "gesture[0].keys", nil},
		{"tap count zero", "[[gesture]]\nkind = \"tap_dance\"\nkeys = [\"r0c1\"]\ntaps = [{ count = 0, action = { none = true } }]\n", "gesture[0].taps[0].count", nil},
		{"tap count repeated", "[[gesture]]\nkind = \"tap_dance\"\nkeys = [\"r0c1\"]\ntaps = [{ count = 1, action = { none = true } }, { count = 1, action = { none = true } }]\n", "gesture[0].taps[1].count", nil},
		{"wide note phrase", "[[gesture]]\nkind = \"sequence\"\nphrases = [{ kind = \"note\", keys = [\"r0c1\", \"r0c2\"] }]\naction = { none = true }\n", "gesture[0].phrases[0].keys", nil},
		{"duplicate name", "[[gesture]]\nname = \"x\"\nkind = \"chord\"\nkeys = [\"r0c1\"]\naction = { none = true }\n[[gesture]]\nname = \"x\"\nkind = \"chord\"\nkeys = [\"r0c2\"]\naction = { none = true }\n", "gesture[1].name", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("v.toml", FormatTOML, []byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidationFailed)
			assert.Contains(t, err.Error(), tt.wantPath)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLongestTimeout(t *testing.T) {
	f, err := Parse("v.toml", FormatTOML, []byte("[settings]\ntimeout_ms = 65534\n"))
	require.NoError(t, err)
	assert.Equal(t, 65534, f.Settings.TimeoutMS)
}

func TestValidationReportsEverything(t *testing.T) {
	doc := "[settings]\nlog_level = \"shout\"\n[[gesture]]\nkind = \"arpeggio\"\n"
	_, err := Parse("v.toml", FormatTOML, []byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings.log_level")
	assert.Contains(t, err.Error(), "gesture[0].kind")
}

func TestEncodeRoundTrip(t *testing.T) {
	f, err := Parse("sample", FormatTOML, []byte(sampleTOML))
	require.NoError(t, err)

	for _, format := range []Format{FormatTOML, FormatYAML} {
		var sb strings.Builder
		require.NoError(t, f.Encode(&sb, format))

		again, err := Parse("again", format, []byte(sb.String()))
		require.NoError(t, err, sb.String())
		assert.Equal(t, f.Settings, again.Settings)
		require.Len(t, again.Gestures, len(f.Gestures))
		for i, g := range f.Gestures {
			assert.Equal(t, g.Name, again.Gestures[i].Name)
			assert.Equal(t, g.Kind, again.Gestures[i].Kind)
			assert.Equal(t, g.Action, again.Gestures[i].Action)
		}
	}
}

func TestSettingsTimeout(t *testing.T) {
	assert.Equal(t, 300*time.Millisecond, Settings{TimeoutMS: 300}.Timeout())
}
