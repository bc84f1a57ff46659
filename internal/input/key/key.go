package key

import (
	"fmt"
	"strings"
)

// Keycode is a logical key code as understood by the host's action
// pipeline. Values follow the USB HID keyboard usage table.
type Keycode uint16

const (
	// KeyNone represents no key.
	KeyNone Keycode = 0x00

	// Letters
	KeyA Keycode = 0x04
	KeyB Keycode = 0x05
	KeyC Keycode = 0x06
	KeyD Keycode = 0x07
	KeyE Keycode = 0x08
	KeyF Keycode = 0x09
	KeyG Keycode = 0x0A
	KeyH Keycode = 0x0B
	KeyI Keycode = 0x0C
	KeyJ Keycode = 0x0D
	KeyK Keycode = 0x0E
	KeyL Keycode = 0x0F
	KeyM Keycode = 0x10
	KeyN Keycode = 0x11
	KeyO Keycode = 0x12
	KeyP Keycode = 0x13
	KeyQ Keycode = 0x14
	KeyR Keycode = 0x15
	KeyS Keycode = 0x16
	KeyT Keycode = 0x17
	KeyU Keycode = 0x18
	KeyV Keycode = 0x19
	KeyW Keycode = 0x1A
	KeyX Keycode = 0x1B
	KeyY Keycode = 0x1C
	KeyZ Keycode = 0x1D

	// Digits
	Key1 Keycode = 0x1E
	Key2 Keycode = 0x1F
	Key3 Keycode = 0x20
	Key4 Keycode = 0x21
	Key5 Keycode = 0x22
	Key6 Keycode = 0x23
	Key7 Keycode = 0x24
	Key8 Keycode = 0x25
	Key9 Keycode = 0x26
	Key0 Keycode = 0x27

	// Special keys
	KeyEnter     Keycode = 0x28
	KeyEscape    Keycode = 0x29
	KeyBackspace Keycode = 0x2A
	KeyTab       Keycode = 0x2B
	KeySpace     Keycode = 0x2C
	KeyMinus     Keycode = 0x2D
	KeyEqual     Keycode = 0x2E
	KeyLBracket  Keycode = 0x2F
	KeyRBracket  Keycode = 0x30
	KeyBackslash Keycode = 0x31
	KeySemicolon Keycode = 0x33
	KeyQuote     Keycode = 0x34
	KeyGrave     Keycode = 0x35
	KeyComma     Keycode = 0x36
	KeyDot       Keycode = 0x37
	KeySlash     Keycode = 0x38
	KeyCapsLock  Keycode = 0x39

	// Function keys
	KeyF1  Keycode = 0x3A
	KeyF2  Keycode = 0x3B
	KeyF3  Keycode = 0x3C
	KeyF4  Keycode = 0x3D
	KeyF5  Keycode = 0x3E
	KeyF6  Keycode = 0x3F
	KeyF7  Keycode = 0x40
	KeyF8  Keycode = 0x41
	KeyF9  Keycode = 0x42
	KeyF10 Keycode = 0x43
	KeyF11 Keycode = 0x44
	KeyF12 Keycode = 0x45

	// Navigation
	KeyPrintScreen Keycode = 0x46
	KeyScrollLock  Keycode = 0x47
	KeyPause       Keycode = 0x48
	KeyInsert      Keycode = 0x49
	KeyHome        Keycode = 0x4A
	KeyPageUp      Keycode = 0x4B
	KeyDelete      Keycode = 0x4C
	KeyEnd         Keycode = 0x4D
	KeyPageDown    Keycode = 0x4E
	KeyRight       Keycode = 0x4F
	KeyLeft        Keycode = 0x50
	KeyDown        Keycode = 0x51
	KeyUp          Keycode = 0x52

	// Modifiers
	KeyLCtrl  Keycode = 0xE0
	KeyLShift Keycode = 0xE1
	KeyLAlt   Keycode = 0xE2
	KeyLGui   Keycode = 0xE3
	KeyRCtrl  Keycode = 0xE4
	KeyRShift Keycode = 0xE5
	KeyRAlt   Keycode = 0xE6
	KeyRGui   Keycode = 0xE7
)

// keycodeNames maps canonical names to keycodes. Lookups are case-insensitive.
var keycodeNames = map[string]Keycode{
	"NO": KeyNone,
	"A":  KeyA, "B": KeyB, "C": KeyC, "D": KeyD, "E": KeyE, "F": KeyF,
	"G": KeyG, "H": KeyH, "I": KeyI, "J": KeyJ, "K": KeyK, "L": KeyL,
	"M": KeyM, "N": KeyN, "O": KeyO, "P": KeyP, "Q": KeyQ, "R": KeyR,
	"S": KeyS, "T": KeyT, "U": KeyU, "V": KeyV, "W": KeyW, "X": KeyX,
	"Y": KeyY, "Z": KeyZ,
	"1": Key1, "2": Key2, "3": Key3, "4": Key4, "5": Key5,
	"6": Key6, "7": Key7, "8": Key8, "9": Key9, "0": Key0,
	"ENT":  KeyEnter,
	"ESC":  KeyEscape,
	"BSPC": KeyBackspace,
	"TAB":  KeyTab,
	"SPC":  KeySpace,
	"MINS": KeyMinus,
	"EQL":  KeyEqual,
	"LBRC": KeyLBracket,
	"RBRC": KeyRBracket,
	"BSLS": KeyBackslash,
	"SCLN": KeySemicolon,
	"QUOT": KeyQuote,
	"GRV":  KeyGrave,
	"COMM": KeyComma,
	"DOT":  KeyDot,
	"SLSH": KeySlash,
	"CAPS": KeyCapsLock,
	"F1":   KeyF1, "F2": KeyF2, "F3": KeyF3, "F4": KeyF4,
	"F5": KeyF5, "F6": KeyF6, "F7": KeyF7, "F8": KeyF8,
	"F9": KeyF9, "F10": KeyF10, "F11": KeyF11, "F12": KeyF12,
	"PSCR": KeyPrintScreen,
	"SLCK": KeyScrollLock,
	"PAUS": KeyPause,
	"INS":  KeyInsert,
	"HOME": KeyHome,
	"PGUP": KeyPageUp,
	"DEL":  KeyDelete,
	"END":  KeyEnd,
	"PGDN": KeyPageDown,
	"RGHT": KeyRight,
	"LEFT": KeyLeft,
	"DOWN": KeyDown,
	"UP":   KeyUp,
	"LCTL": KeyLCtrl,
	"LSFT": KeyLShift,
	"LALT": KeyLAlt,
	"LGUI": KeyLGui,
	"RCTL": KeyRCtrl,
	"RSFT": KeyRShift,
	"RALT": KeyRAlt,
	"RGUI": KeyRGui,
}

// keycodeAliases are accepted by KeycodeFromName but never produced by String.
var keycodeAliases = map[string]Keycode{
	"ENTER":     KeyEnter,
	"RETURN":    KeyEnter,
	"ESCAPE":    KeyEscape,
	"BACKSPACE": KeyBackspace,
	"SPACE":     KeySpace,
	"DELETE":    KeyDelete,
	"INSERT":    KeyInsert,
	"PAGEUP":    KeyPageUp,
	"PAGEDOWN":  KeyPageDown,
	"RIGHT":     KeyRight,
	"CTRL":      KeyLCtrl,
	"SHIFT":     KeyLShift,
	"ALT":       KeyLAlt,
	"GUI":       KeyLGui,
}

var keycodeStrings = func() map[Keycode]string {
	m := make(map[Keycode]string, len(keycodeNames))
	for name, kc := range keycodeNames {
		m[kc] = name
	}
	return m
}()

// String returns the canonical name of the keycode.
func (k Keycode) String() string {
	if name, ok := keycodeStrings[k]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint16(k))
}

// IsModifier returns true for the eight modifier keycodes.
func (k Keycode) IsModifier() bool {
	return k >= KeyLCtrl && k <= KeyRGui
}

// IsFunctionKey returns true if this is a function key (F1-F12).
func (k Keycode) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF12
}

// KeycodeFromName returns the keycode for a given name (case-insensitive).
// An optional "KC_" prefix is accepted. Returns KeyNone if the name is not
// recognized.
func KeycodeFromName(name string) Keycode {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "KC_")
	if k, ok := keycodeNames[name]; ok {
		return k
	}
	if k, ok := keycodeAliases[name]; ok {
		return k
	}
	return KeyNone
}
