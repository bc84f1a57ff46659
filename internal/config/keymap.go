package config

import (
	"fmt"

	"github.com/dshills/keymelody/internal/input/key"
)

// KeyMap translates positions to keycodes per layer. A position missing
// on a layer falls through to the next lower layer that defines it.
type KeyMap struct {
	layers map[key.Layer]map[key.Position]key.Keycode
}

// NewKeyMap creates an empty key map.
func NewKeyMap() *KeyMap {
	return &KeyMap{layers: make(map[key.Layer]map[key.Position]key.Keycode)}
}

// Set binds pos on layer to code.
func (m *KeyMap) Set(layer key.Layer, pos key.Position, code key.Keycode) {
	l, ok := m.layers[layer]
	if !ok {
		l = make(map[key.Position]key.Keycode)
		m.layers[layer] = l
	}
	l[pos] = code
}

// Lookup returns the keycode for pos as seen from layer.
func (m *KeyMap) Lookup(layer key.Layer, pos key.Position) (key.Keycode, bool) {
	for l := int(layer); l >= 0; l-- {
		if code, ok := m.layers[key.Layer(l)][pos]; ok {
			return code, true
		}
	}
	return key.KeyNone, false
}

// Positions returns every position bound on layer.
func (m *KeyMap) Positions(layer key.Layer) []key.Position {
	out := make([]key.Position, 0, len(m.layers[layer]))
	for p := range m.layers[layer] {
		out = append(out, p)
	}
	return out
}

// Reverse returns the position bound to code on layer or below. When
// several positions share the code, the lowest row and column wins.
func (m *KeyMap) Reverse(layer key.Layer, code key.Keycode) (key.Position, bool) {
	for l := int(layer); l >= 0; l-- {
		best, found := key.NoPosition, false
		for p, c := range m.layers[key.Layer(l)] {
			if c == code && (!found || less(p, best)) {
				best, found = p, true
			}
		}
		if found {
			return best, true
		}
	}
	return key.NoPosition, false
}

func less(a, b key.Position) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

// KeyMap builds the key map from the [[keymap]] sections.
func (f *File) KeyMap() (*KeyMap, error) {
	m := NewKeyMap()
	for i, km := range f.Keymaps {
		for ps, cs := range km.Keys {
			pos, err := key.ParsePosition(ps)
			if err != nil {
				return nil, fmt.Errorf("keymap[%d]: %w", i, err)
			}
			code, err := key.ParseKeycode(cs)
			if err != nil {
				return nil, fmt.Errorf("keymap[%d]: %w", i, err)
			}
			m.Set(key.Layer(km.Layer), pos, code)
		}
	}
	return m, nil
}
