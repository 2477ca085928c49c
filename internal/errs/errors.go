package errs

import "errors"

// Allocator error taxonomy. zero-size and double-free/invalid-free/corruption
// are not represented here: the first maps to a (0, nil) return at the
// façade boundary, the rest are undefined behavior with no runtime
// detection, per design.
var (
	// ErrOutOfMemory is returned when the growth primitive cannot satisfy a
	// request: the growth region's reservation is exhausted or the
	// underlying mapping call itself failed.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrRegionExhausted wraps into ErrOutOfMemory at the façade boundary;
	// it distinguishes "reservation exceeded" from "mmap syscall failed"
	// for anyone inspecting the error chain.
	ErrRegionExhausted = errors.New("heap: growth region reservation exhausted")
)
