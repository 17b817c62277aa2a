//go:build debug

package debug

// Assert panics if condition is false. It compiles to nothing unless the
// debug build tag is set.
func Assert(condition bool, message ...string) {
	if !condition {
		if len(message) > 0 {
			panic(message[0])
		}
		panic("assertion failed")
	}
}
