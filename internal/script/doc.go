// Package script runs Lua snippets as gesture callbacks.
//
// Each named snippet is compiled once by Load and becomes the body of a
// callback action through Engine.Callback. Snippets run in a sandboxed
// gopher-lua state with only the base, table, string and math libraries
// and with a per-call time limit. The host surface is small:
//
//	tap("ESC")        -- press and release a keycode
//	press("LSFT")     -- press only
//	release("LSFT")   -- release only
//	log("text")       -- write an info line; print does the same
//	layer()           -- the active layer
//	ctx               -- the callback's context value
//
// The Engine is not safe for concurrent callbacks; the matcher fires them
// from its own goroutine.
package script
