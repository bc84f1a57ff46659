package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/matcher"
	"github.com/dshills/keymelody/internal/input/melody"
	"github.com/dshills/keymelody/internal/input/phrase"
)

type fakeScripts struct {
	asked []string
	fail  bool
}

func (s *fakeScripts) Callback(name string) (action.Action, error) {
	s.asked = append(s.asked, name)
	if s.fail {
		return action.Action{}, errors.New("no engine")
	}
	return action.Callback(name, func(any) error { return nil }, nil), nil
}

func TestApply(t *testing.T) {
	f, err := Parse("sample", FormatTOML, []byte(sampleTOML))
	require.NoError(t, err)

	reg := melody.NewRegistry()
	scripts := &fakeScripts{}
	named, err := f.Apply(reg, scripts)
	require.NoError(t, err)

	assert.Equal(t, 7, reg.Len())
	assert.Equal(t, []string{"hello"}, scripts.asked)

	require.Len(t, named["esc"], 1)
	esc := named["esc"][0].Node()
	assert.Equal(t, phrase.VariantChord, esc.Variant())
	assert.True(t, esc.Action().Equal(action.Keycode(key.KeyEscape)))

	require.Len(t, named["seq"], 1)
	seq := named["seq"][0].Node()
	assert.Equal(t, phrase.VariantNote, seq.Variant())
	assert.Equal(t, phrase.VariantCluster, seq.Parent().Variant())
	assert.Equal(t, key.Layer(1), seq.Layer())
	assert.Equal(t, action.KindCallback, seq.Action().Kind())

	dance := named["dance"]
	require.Len(t, dance, 4)
	assert.Equal(t, action.KindTransparent, dance[0].Node().Action().Kind())
	assert.True(t, dance[1].Node().Action().Equal(action.Keycode(key.KeyEnter)))
	assert.Equal(t, action.KindTransparent, dance[2].Node().Action().Kind())
	assert.Equal(t, action.KindNone, dance[3].Node().Action().Kind())

	line := named["line"][0].Node()
	assert.Equal(t, 2, line.Depth())
	assert.Empty(t, reg.Conflicts())
}

func TestApplyLuaWithoutResolver(t *testing.T) {
	f, err := Parse("sample", FormatTOML, []byte(sampleTOML))
	require.NoError(t, err)

	_, err = f.Apply(melody.NewRegistry(), nil)
	assert.ErrorIs(t, err, ErrNoResolver)
	assert.Contains(t, err.Error(), "seq")
}

func TestApplyResolverFailure(t *testing.T) {
	f, err := Parse("sample", FormatYAML, []byte(sampleYAML))
	require.NoError(t, err)

	_, err = f.Apply(melody.NewRegistry(), &fakeScripts{fail: true})
	assert.ErrorContains(t, err, "no engine")
}

func TestActionSpecBuild(t *testing.T) {
	tests := []struct {
		spec ActionSpec
		want action.Action
	}{
		{ActionSpec{Keycode: "kc_tab"}, action.Keycode(key.KeyTab)},
		{ActionSpec{None: true}, action.None()},
		{ActionSpec{Transparent: true}, action.Transparent()},
	}
	for _, tt := range tests {
		got, err := tt.spec.Build(nil)
		require.NoError(t, err)
		assert.True(t, got.Equal(tt.want), "%+v built %v", tt.spec, got)
	}

	_, err := ActionSpec{}.Build(nil)
	assert.ErrorIs(t, err, ErrMissingAction)
	_, err = ActionSpec{Keycode: "bogus"}.Build(nil)
	assert.ErrorIs(t, err, key.ErrUnknownKeycode)
}

func TestMatcherOptions(t *testing.T) {
	s := DefaultSettings()
	s.TimeoutMS = 450
	s.AbortKey = "0,7"

	opts, err := s.MatcherOptions()
	require.NoError(t, err)

	m := matcher.New(melody.NewRegistry(), nil, nil, opts...)
	assert.Equal(t, 450*time.Millisecond, m.Timeout())
	assert.Equal(t, key.Pos(0, 7), m.AbortPosition())

	opts, err = DefaultSettings().MatcherOptions()
	require.NoError(t, err)
	m = matcher.New(melody.NewRegistry(), nil, nil, opts...)
	assert.Equal(t, matcher.DefaultAbortPosition, m.AbortPosition())

	s.AbortKey = "junk"
	_, err = s.MatcherOptions()
	assert.Error(t, err)
}

func TestAppliedGesturesMatch(t *testing.T) {
	f, err := Parse("sample", FormatTOML, []byte(sampleTOML))
	require.NoError(t, err)

	reg := melody.NewRegistry()
	_, err = f.Apply(reg, &fakeScripts{})
	require.NoError(t, err)

	var taps []key.Keycode
	d := action.NewDispatcher(func(code key.Keycode, pressed bool, _ key.Timestamp) {
		if pressed {
			taps = append(taps, code)
		}
	})
	opts, err := f.Settings.MatcherOptions()
	require.NoError(t, err)
	m := matcher.New(reg, d, nil, opts...)

	m.Process(key.NewPress(key.Pos(0, 2), 0))
	m.Process(key.NewPress(key.Pos(0, 1), 5))
	assert.Equal(t, []key.Keycode{key.KeyEscape}, taps)
}
