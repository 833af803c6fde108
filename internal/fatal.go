package internal

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// FatalKind classifies conditions from which the runtime does not recover.
type FatalKind int

// Fatal condition kinds.
const (
	// AllocationFailure means the managed heap could not satisfy a request.
	AllocationFailure FatalKind = iota
	// NullSelf means an operation that requires a receiver got nil.
	NullSelf
	// MissingCapability means a required virtual slot was not found anywhere
	// up to the root type.
	MissingCapability
	// CorruptContext means the throw context stack is inconsistent, e.g. an
	// unwind targeted a context that is not the innermost one.
	CorruptContext
	// PreconditionViolation covers the remaining documented preconditions,
	// such as switching into an exited task.
	PreconditionViolation
)

var fatalNames = [...]string{"allocation failure", "null self", "missing capability", "corrupt throw context", "precondition violation"}

// String returns a readable name for the kind.
func (k FatalKind) String() string {
	if k < 0 || int(k) >= len(fatalNames) {
		return fmt.Sprintf("FatalKind(%d)", int(k))
	}
	return fatalNames[k]
}

// FatalError is the value panicked for abort-class conditions. The runtime
// never recovers it; an uncaught FatalError terminates the process with the
// Go runtime's traceback.
type FatalError struct {
	Kind    FatalKind
	Message string
	Where   Location
}

// Error returns the kind, message, and location.
func (e *FatalError) Error() string {
	return fmt.Sprintf("avium: %v: %s (at %v)", e.Kind, e.Message, e.Where)
}

// Fatalf panics with a FatalError located at its caller.
func Fatalf(kind FatalKind, format string, args ...interface{}) {
	panic(&FatalError{Kind: kind, Message: fmt.Sprintf(format, args...), Where: Caller(2)})
}

// Location is a source position recorded for throws and fatal errors.
type Location struct {
	File string
	Line int
	Func string
}

// Caller returns the location skip frames above the function calling Caller,
// with the same convention as runtime.Caller.
func Caller(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{}
	}
	var fn string
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
	}
	return Location{File: file, Line: line, Func: fn}
}

// String formats the location as file:line (func).
func (l Location) String() string {
	if l.File == "" {
		return "unknown location"
	}
	fn := l.Func
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		fn = fn[i+1:]
	}
	return fmt.Sprintf("%s:%d (%s)", filepath.Base(l.File), l.Line, fn)
}
