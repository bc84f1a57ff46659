//go:build !melodydebug

package phrase

// Debug reports whether assertions are compiled in.
const Debug = false

func assertf(bool, string, ...any) {}
