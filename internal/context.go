package internal

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Exit codes reported by RunTop, RunMain, and Join.
const (
	// ExitSuccess is the conventional successful exit code.
	ExitSuccess = 0
	// ExitUncaught is the exit code of an entry point that threw a value
	// nothing caught.
	ExitUncaught = 1
	// ExitTerminated is the exit code of a thread ended by Terminate.
	ExitTerminated = -1
)

// execution is the state shared by a thread or task and the VM view running
// it: a name, an identity for the scheduler, and the throw-context stack.
// The lock guards the stack and, for threads, the thread's flags.
type execution struct {
	sync.Mutex
	name string
	id   uintptr
	top  *ThrowContext
}

func newExecution(name string) *execution {
	return &execution{name: name, id: nextObject()}
}

// ctxState is the lifecycle state of a ThrowContext. Contexts only move
// forward through the states.
type ctxState int

const (
	ctxNew ctxState = iota
	ctxActive
	ctxThrown
	ctxPopped
)

func (s ctxState) String() string {
	switch s {
	case ctxNew:
		return "new"
	case ctxActive:
		return "active"
	case ctxThrown:
		return "thrown"
	case ctxPopped:
		return "popped"
	}
	return fmt.Sprintf("ctxState(%d)", int(s))
}

// ThrowContext is one dynamic exception-handling scope. Contexts form a stack
// per execution. A context is used once: it is pushed, possibly receives one
// thrown value, and is popped.
type ThrowContext struct {
	prev   *ThrowContext
	thrown *Object
	where  Location
	state  ctxState
}

// NewThrowContext creates a context ready to be pushed.
func NewThrowContext() *ThrowContext {
	return &ThrowContext{}
}

// Thrown returns the value thrown to the context and where it was thrown. The
// object is nil if nothing has been thrown.
func (c *ThrowContext) Thrown() (*Object, Location) {
	return c.thrown, c.where
}

// unwind is the panic value that carries a throw to its context.
type unwind struct {
	ctx *ThrowContext
}

// PushContext makes c the innermost context of the view's execution. Pushing
// a context that has been pushed before is fatal.
func (vm *VM) PushContext(c *ThrowContext) {
	if c == nil {
		Fatalf(NullSelf, "push of nil context")
	}
	vm.x.Lock()
	defer vm.x.Unlock()
	if c.state != ctxNew {
		Fatalf(CorruptContext, "push of %v context", c.state)
	}
	c.prev = vm.x.top
	c.state = ctxActive
	vm.x.top = c
}

// PopContext removes and returns the innermost context. Popping an empty
// stack is fatal.
func (vm *VM) PopContext() *ThrowContext {
	vm.x.Lock()
	defer vm.x.Unlock()
	c := vm.x.top
	if c == nil {
		Fatalf(CorruptContext, "pop of empty context stack in %s", vm.x.name)
	}
	vm.x.top = c.prev
	c.state = ctxPopped
	return c
}

// CurrentContext returns the innermost context, or nil if there is none.
func (vm *VM) CurrentContext() *ThrowContext {
	vm.x.Lock()
	defer vm.x.Unlock()
	return vm.x.top
}

// popExact pops c, which must be the innermost context.
func (vm *VM) popExact(c *ThrowContext) {
	vm.x.Lock()
	defer vm.x.Unlock()
	if vm.x.top != c {
		Fatalf(CorruptContext, "scope exit in %s does not match innermost context", vm.x.name)
	}
	vm.x.top = c.prev
	c.state = ctxPopped
}

// Throw throws v to the innermost context, recording the caller's location.
// Throw does not return.
func (vm *VM) Throw(v *Object) {
	vm.ThrowAt(v, Caller(2))
}

// ThrowAt throws v to the innermost context with the given location. The
// value must be managed; unmanaged values are promoted if the configuration
// allows and are fatal otherwise. Throwing with no active context is fatal.
// ThrowAt does not return.
func (vm *VM) ThrowAt(v *Object, where Location) {
	if v == nil {
		Fatalf(NullSelf, "throw of nil object")
	}
	if !IsManaged(v) {
		if !vm.Config.Heap.PromoteOnThrow {
			Fatalf(PreconditionViolation, "throw of unmanaged %s", v.typ.name)
		}
		v = vm.Promote(v)
	}
	vm.x.Lock()
	c := vm.x.top
	if c == nil || c.state != ctxActive {
		vm.x.Unlock()
		Fatalf(CorruptContext, "throw of %s in %s with no active context", v.typ.name, vm.x.name)
	}
	c.thrown, c.where, c.state = v, where, ctxThrown
	vm.x.Unlock()
	panic(&unwind{ctx: c})
}

// Guard pushes c, runs body, and pops c. If body throws to c, Guard returns
// true and c holds the thrown value. A throw that reaches Guard but targets
// a different context is fatal. Other panics pass through.
func (vm *VM) Guard(c *ThrowContext, body func()) (thrown bool) {
	vm.PushContext(c)
	done := false
	defer func() {
		if done {
			return
		}
		r := recover()
		switch r := r.(type) {
		case nil:
			// runtime.Goexit, from a terminated thread.
			vm.dropContext(c)
		case *unwind:
			if r.ctx != c {
				Fatalf(CorruptContext, "throw to a context that is not the innermost guarded one in %s", vm.x.name)
			}
			vm.popExact(c)
			thrown = true
		default:
			vm.dropContext(c)
			panic(r)
		}
	}()
	body()
	done = true
	vm.popExact(c)
	return false
}

// dropContext pops c if it is innermost, for scopes exiting by a panic that
// is not a throw.
func (vm *VM) dropContext(c *ThrowContext) {
	vm.x.Lock()
	if vm.x.top == c {
		vm.x.top = c.prev
		c.state = ctxPopped
	}
	vm.x.Unlock()
}

// Try runs body in a new context. If body throws, Try returns the thrown
// value and its location; otherwise the object is nil.
func (vm *VM) Try(body func()) (*Object, Location) {
	c := NewThrowContext()
	if vm.Guard(c, body) {
		return c.thrown, c.where
	}
	return nil, Location{}
}

// Catch runs body in a new context. If body throws a value whose type is or
// inherits from t, Catch calls handler with it and returns true. Values of
// other types are thrown again to the next outer context with their
// original locations.
func (vm *VM) Catch(t *Type, body func(), handler func(thrown *Object, where Location)) bool {
	v, where := vm.Try(body)
	if v == nil {
		return false
	}
	if !v.IsKindOf(t) {
		vm.ThrowAt(v, where)
	}
	if handler != nil {
		handler(v, where)
	}
	return true
}

// RunTop runs entry in a top-level context. If entry throws a value nothing
// catches, RunTop logs it and returns ExitUncaught.
func (vm *VM) RunTop(entry func() int) int {
	code := ExitUncaught
	c := NewThrowContext()
	if vm.Guard(c, func() { code = entry() }) {
		vm.entry.WithFields(logrus.Fields{
			"function": "RunTop",
			"type":     c.thrown.typ.name,
			"where":    c.where.String(),
		}).Error("uncaught: ", vm.safeString(c.thrown))
		return ExitUncaught
	}
	return code
}

// safeString is ToString for an object that might throw from its toString.
func (vm *VM) safeString(o *Object) (s string) {
	if v, _ := vm.Try(func() { s = vm.ToString(o) }); v != nil {
		s = objectToString(vm, o)
	}
	return s
}
