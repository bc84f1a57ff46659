package config

import (
	"errors"
	"fmt"

	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/phrase"
	"github.com/dshills/keymelody/internal/logging"
)

const maxTimeoutMS = 0xFFFE

// Validate checks every field that can be checked without building the
// gesture tree. All problems are reported together.
func (f *File) Validate() error {
	var errs []error
	add := func(path, msg string, cause error) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Err: cause})
	}

	s := f.Settings
	// Elapsed time is measured on the 16-bit timer, so 65535 ms can
	// never be exceeded.
	if s.TimeoutMS < 1 || s.TimeoutMS > maxTimeoutMS {
		add("settings.timeout_ms", fmt.Sprintf("%d out of range 1..%d", s.TimeoutMS, maxTimeoutMS), nil)
	}
	if s.BufferCapacity < 1 {
		add("settings.buffer_capacity", "must be positive", nil)
	}
	if s.AbortKey != "" {
		if _, err := key.ParsePosition(s.AbortKey); err != nil {
			add("settings.abort_key", "invalid position", err)
		}
	}
	if _, ok := logging.ParseLevel(s.LogLevel); !ok {
		add("settings.log_level", fmt.Sprintf("unknown level %q", s.LogLevel), nil)
	}
	if s.Layer < 0 || s.Layer > 0xFF {
		add("settings.layer", "out of range 0..255", nil)
	}

	for i, km := range f.Keymaps {
		path := fmt.Sprintf("keymap[%d]", i)
		if km.Layer < 0 || km.Layer > 0xFF {
			add(path+".layer", "out of range 0..255", nil)
		}
		for pos, code := range km.Keys {
			if _, err := key.ParsePosition(pos); err != nil {
				add(fmt.Sprintf("%s.keys.%s", path, pos), "invalid position", err)
			}
			if _, err := key.ParseKeycode(code); err != nil {
				add(fmt.Sprintf("%s.keys.%s", path, pos), "invalid keycode", err)
			}
		}
	}

	names := map[string]int{}
	for i, g := range f.Gestures {
		path := fmt.Sprintf("gesture[%d]", i)
		if g.Name != "" {
			if prev, dup := names[g.Name]; dup {
				add(path+".name", fmt.Sprintf("%q already used by gesture[%d]", g.Name, prev), nil)
			}
			names[g.Name] = i
		}
		errs = append(errs, f.validateGesture(path, g)...)
	}

	return errors.Join(errs...)
}

func (f *File) validateGesture(path string, g Gesture) []error {
	var errs []error
	add := func(p, msg string, cause error) {
		errs = append(errs, &ValidationError{Path: p, Message: msg, Err: cause})
	}

	if g.Layer < 0 || g.Layer > 0xFF {
		add(path+".layer", "out of range 0..255", nil)
	}

	checkKeys := func(p string, keys []string) {
		if len(keys) == 0 {
			add(p, "no keys", phrase.ErrNoMembers)
		}
		for j, k := range keys {
			if _, err := key.ParsePosition(k); err != nil {
				add(fmt.Sprintf("%s[%d]", p, j), "invalid position", err)
			}
		}
	}
	checkAction := func(p string, a *ActionSpec, required bool) {
		if a == nil {
			if required {
				add(p, "required", ErrMissingAction)
			}
			return
		}
		switch n := a.variants(); {
		case n == 0:
			add(p, "empty action table", ErrMissingAction)
		case n > 1:
			add(p, "set exactly one of keycode, lua, none, transparent", ErrAmbiguousAction)
		}
		if a.Keycode != "" {
			if _, err := key.ParseKeycode(a.Keycode); err != nil {
				add(p+".keycode", "invalid keycode", err)
			}
		}
		if a.Lua != "" {
			if _, ok := f.Scripts[a.Lua]; !ok {
				add(p+".lua", fmt.Sprintf("no script named %q", a.Lua), nil)
			}
		}
	}

	switch g.Kind {
	case KindNoteLine, KindChord, KindCluster:
		checkKeys(path+".keys", g.Keys)
		checkAction(path+".action", g.Action, true)

	case KindSequence:
		if len(g.Phrases) == 0 {
			add(path+".phrases", "no phrases", nil)
		}
		for j, ph := range g.Phrases {
			p := fmt.Sprintf("%s.phrases[%d]", path, j)
			v, err := phrase.ParseVariant(ph.Kind)
			if err != nil {
				add(p+".kind", "invalid phrase kind", err)
			}
			checkKeys(p+".keys", ph.Keys)
			if v == phrase.VariantNote && len(ph.Keys) > 1 {
				add(p+".keys", "note takes one key", phrase.ErrNoteArity)
			}
		}
		checkAction(path+".action", g.Action, true)

	case KindTapDance:
		if len(g.Keys) != 1 {
			add(path+".keys", "tap dance takes exactly one key", nil)
		} else {
			checkKeys(path+".keys", g.Keys)
		}
		if len(g.Taps) == 0 {
			add(path+".taps", "no taps", nil)
		}
		seen := map[int]bool{}
		for j, t := range g.Taps {
			p := fmt.Sprintf("%s.taps[%d]", path, j)
			if t.Count < 1 {
				add(p+".count", "must be at least 1", nil)
			}
			if seen[t.Count] {
				add(p+".count", fmt.Sprintf("count %d repeated", t.Count), nil)
			}
			seen[t.Count] = true
			checkAction(p+".action", &t.Action, true)
		}
		checkAction(path+".fallback", g.Fallback, false)

	default:
		add(path+".kind", fmt.Sprintf("%q", g.Kind), ErrUnknownKind)
	}
	return errs
}
