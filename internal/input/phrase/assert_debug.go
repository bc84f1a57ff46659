//go:build melodydebug

package phrase

import "fmt"

// Debug reports whether assertions are compiled in.
const Debug = true

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("phrase: "+format, args...))
	}
}
