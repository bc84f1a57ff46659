// Package config loads gesture definitions and matcher settings.
//
// A configuration file is TOML or YAML, chosen by extension. It carries
// four sections:
//
//	[settings]
//	timeout_ms = 200
//	abort_key = "r3c0"
//	buffer_capacity = 100
//	log_level = "info"
//	layer = 0
//
//	[[keymap]]
//	layer = 0
//	keys = { r0c1 = "A", r0c2 = "B" }
//
//	[[gesture]]
//	name = "escape-chord"
//	kind = "chord"
//	keys = ["r0c1", "r0c2"]
//	action = { keycode = "ESC" }
//
//	[[gesture]]
//	name = "tap-a"
//	kind = "tap_dance"
//	keys = ["r0c1"]
//	fallback = { transparent = true }
//	taps = [{ count = 3, action = { lua = "hello" } }]
//
//	[scripts]
//	hello = "tap('H') tap('I')"
//
// Loading parses and validates the document. Apply then registers every
// gesture with a melody.Registry, and Settings.MatcherOptions turns the
// settings into matcher options. Keymaps are not used by the matcher; they
// let a host translate positions to keycodes when it has no keyboard
// firmware of its own.
package config
