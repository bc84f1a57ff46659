package config

import (
	"fmt"
	"time"

	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/matcher"
	"github.com/dshills/keymelody/internal/input/melody"
	"github.com/dshills/keymelody/internal/input/phrase"
)

// Resolver turns a script name into a callback action.
type Resolver interface {
	Callback(name string) (action.Action, error)
}

// Build converts the table into an action. Lua actions need scripts.
func (a ActionSpec) Build(scripts Resolver) (action.Action, error) {
	switch {
	case a.Keycode != "":
		code, err := key.ParseKeycode(a.Keycode)
		if err != nil {
			return action.Action{}, err
		}
		return action.Keycode(code), nil
	case a.Lua != "":
		if scripts == nil {
			return action.Action{}, fmt.Errorf("%w: %s", ErrNoResolver, a.Lua)
		}
		return scripts.Callback(a.Lua)
	case a.None:
		return action.None(), nil
	case a.Transparent:
		return action.Transparent(), nil
	default:
		return action.Action{}, ErrMissingAction
	}
}

// Apply registers every gesture with reg, in file order. It returns the
// handles of each named gesture.
func (f *File) Apply(reg *melody.Registry, scripts Resolver) (map[string][]melody.Handle, error) {
	named := make(map[string][]melody.Handle)
	for i, g := range f.Gestures {
		handles, err := applyGesture(reg, g, scripts)
		if err != nil {
			label := g.Name
			if label == "" {
				label = fmt.Sprintf("gesture[%d]", i)
			}
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		if g.Name != "" {
			named[g.Name] = handles
		}
	}
	return named, nil
}

func applyGesture(reg *melody.Registry, g Gesture, scripts Resolver) ([]melody.Handle, error) {
	layer := key.Layer(g.Layer)

	if g.Kind == KindTapDance {
		pos, err := key.ParsePosition(g.Keys[0])
		if err != nil {
			return nil, err
		}
		fallback := action.Transparent()
		if g.Fallback != nil {
			if fallback, err = g.Fallback.Build(scripts); err != nil {
				return nil, fmt.Errorf("fallback: %w", err)
			}
		}
		taps := make([]melody.Tap, len(g.Taps))
		for i, t := range g.Taps {
			a, err := t.Action.Build(scripts)
			if err != nil {
				return nil, fmt.Errorf("tap %d: %w", t.Count, err)
			}
			taps[i] = melody.Tap{Count: t.Count, Action: a}
		}
		return reg.TapDance(layer, pos, fallback, taps)
	}

	if g.Action == nil {
		return nil, ErrMissingAction
	}
	a, err := g.Action.Build(scripts)
	if err != nil {
		return nil, fmt.Errorf("action: %w", err)
	}
	specs, err := g.specs()
	if err != nil {
		return nil, err
	}
	h, err := reg.Register(layer, specs, a)
	if err != nil {
		return nil, err
	}
	return []melody.Handle{h}, nil
}

func (g Gesture) specs() ([]phrase.Spec, error) {
	switch g.Kind {
	case KindNoteLine, KindChord, KindCluster:
		positions, err := key.ParsePositions(g.Keys)
		if err != nil {
			return nil, err
		}
		switch g.Kind {
		case KindChord:
			return []phrase.Spec{phrase.Chord(positions...)}, nil
		case KindCluster:
			return []phrase.Spec{phrase.Cluster(positions...)}, nil
		default:
			return phrase.Notes(positions...), nil
		}

	case KindSequence:
		specs := make([]phrase.Spec, 0, len(g.Phrases))
		for _, ph := range g.Phrases {
			v, err := phrase.ParseVariant(ph.Kind)
			if err != nil {
				return nil, err
			}
			positions, err := key.ParsePositions(ph.Keys)
			if err != nil {
				return nil, err
			}
			specs = append(specs, phrase.Spec{Variant: v, Members: positions})
		}
		return specs, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, g.Kind)
	}
}

// Timeout returns the configured timeout.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// MatcherOptions converts the settings into matcher options.
func (s Settings) MatcherOptions() ([]matcher.Option, error) {
	opts := []matcher.Option{
		matcher.WithTimeout(s.Timeout()),
		matcher.WithBufferCapacity(s.BufferCapacity),
	}
	if s.AbortKey != "" {
		pos, err := key.ParsePosition(s.AbortKey)
		if err != nil {
			return nil, fmt.Errorf("abort_key: %w", err)
		}
		opts = append(opts, matcher.WithAbortPosition(pos))
	}
	return opts, nil
}
