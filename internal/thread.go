package internal

import (
	"context"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ThreadFn is the entry point of a thread. Its result is the thread's exit
// code.
type ThreadFn func(vm *VM, arg *Object) int

// ThreadOptions configures a new thread.
type ThreadOptions struct {
	// Name identifies the thread in logs. If empty, a name is generated.
	Name string
	// StackSize is the requested stack size in bytes. Zero means the
	// configured default. Otherwise it must exceed 4096 and be a multiple
	// of the OS page size.
	StackSize int
}

// Thread is a handle to a running or finished OS thread.
type Thread struct {
	obj *Object
	t   *thread
}

// thread is the state shared by a Thread handle and the goroutine it runs.
// The handle owns the thread object, so the object's finalizer can run
// while the goroutine is still alive.
type thread struct {
	// x's lock guards the fields below as well as the context stack.
	x         *execution
	stackSize int
	nativeID  int

	alive      bool
	detached   bool
	joined     bool
	terminated bool
	code       int

	ctx    context.Context
	cancel context.CancelFunc
	// done is closed once the exit code is final.
	done chan struct{}
	log  *logrus.Entry
}

// threadData is the data of a Thread object.
type threadData struct {
	state *thread
}

// ThreadType is the type of thread objects. Reclaiming a thread object whose
// thread is still alive and not detached terminates the thread.
var ThreadType = Declare(TypeSpec{
	Name: "Thread",
	Data: threadData{},
	VTable: VTable{
		SlotToString: ToStringFn(func(vm *VM, self *Object) string {
			return fmt.Sprintf("Thread(%s)", self.Value.(*threadData).state.x.name)
		}),
		SlotFinalize: FinalizeFn(func(self *Object) {
			st := self.Value.(*threadData).state
			st.x.Lock()
			orphan := st.alive && !st.detached
			st.x.Unlock()
			if orphan && st.terminate() {
				st.log.WithField("function", "finalize").Warn("terminated unreachable thread")
			}
		}),
	},
})

// Spawn starts entry on a new goroutine locked to its own OS thread. The
// entry runs in a top-level context of its own, so a value it throws and
// does not catch ends only that thread, with exit code ExitUncaught. Spawn
// returns after the thread has initialized.
func (vm *VM) Spawn(entry ThreadFn, arg *Object, opts ThreadOptions) (*Thread, error) {
	if entry == nil {
		Fatalf(NullSelf, "spawn of nil entry point")
	}
	size := opts.StackSize
	if size == 0 {
		size = vm.Config.Thread.DefaultStackSize
	} else if err := checkStackSize(size); err != nil {
		return nil, err
	}
	x := newExecution(opts.Name)
	if x.name == "" {
		x.name = fmt.Sprintf("thread-%d", x.id)
	}
	ctx, cancel := context.WithCancel(context.Background())
	st := &thread{
		x:         x,
		stackSize: size,
		alive:     true,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		log:       vm.Log.WithField("thread", x.name),
	}
	tv := vm.viewFor(x)
	tv.thread = st
	tv.entry = st.log
	ready := make(chan struct{})
	go func() {
		// The goroutine never unlocks, so the OS thread exits with it.
		runtime.LockOSThread()
		st.nativeID = nativeThreadID()
		close(ready)
		code := ExitTerminated
		defer func() { st.finish(code) }()
		st.log.WithFields(logrus.Fields{
			"function": "Spawn",
			"tid":      st.nativeID,
		}).Debug("thread started")
		code = tv.RunTop(func() int { return entry(tv, arg) })
	}()
	<-ready
	obj := vm.Allocate(ThreadType)
	obj.Value.(*threadData).state = st
	return &Thread{obj: obj, t: st}, nil
}

// finish records the thread's exit code unless it was terminated.
func (st *thread) finish(code int) {
	st.x.Lock()
	if st.terminated {
		st.x.Unlock()
		return
	}
	st.alive = false
	st.code = code
	st.x.Unlock()
	st.cancel()
	close(st.done)
	st.log.WithFields(logrus.Fields{"function": "finish", "code": code}).Debug("thread exited")
}

// terminate marks the thread dead with ExitTerminated and cancels it.
// Returns false if the thread had already finished.
func (st *thread) terminate() bool {
	st.x.Lock()
	if !st.alive {
		st.x.Unlock()
		return false
	}
	st.alive = false
	st.terminated = true
	st.code = ExitTerminated
	st.x.Unlock()
	st.cancel()
	close(st.done)
	return true
}

// Join waits for t to finish and returns its exit code. Joining a detached
// thread, a thread that has been joined, the calling thread itself, or a
// thread whose wait would deadlock fails with a *ThreadJoinError.
func (vm *VM) Join(t *Thread) (int, error) {
	st := t.t
	st.x.Lock()
	var reason string
	switch {
	case st.detached:
		reason = "thread is detached"
	case st.joined:
		reason = "thread was already joined"
	case st.x == vm.x:
		reason = "thread cannot join itself"
	}
	if reason != "" {
		st.x.Unlock()
		return 0, errors.WithStack(&ThreadJoinError{Thread: st.x.name, Reason: reason})
	}
	st.joined = true
	st.x.Unlock()
	if !vm.Sched.await(vm.x, st.x) {
		st.x.Lock()
		st.joined = false
		st.x.Unlock()
		return 0, errors.WithStack(&ThreadJoinError{Thread: st.x.name, Reason: "deadlock"})
	}
	<-st.done
	vm.Sched.resume(vm.x)
	vm.Suppress(t.obj)
	st.x.Lock()
	code := st.code
	st.x.Unlock()
	return code, nil
}

// Detach releases t so that it can no longer be joined. Detaching a thread
// twice or after joining it fails with a *ThreadDetachError.
func (vm *VM) Detach(t *Thread) error {
	st := t.t
	st.x.Lock()
	defer st.x.Unlock()
	switch {
	case st.detached:
		return errors.WithStack(&ThreadDetachError{Thread: st.x.name, Reason: "thread is already detached"})
	case st.joined:
		return errors.WithStack(&ThreadDetachError{Thread: st.x.name, Reason: "thread was already joined"})
	}
	st.detached = true
	return nil
}

// Terminate marks t dead and cancels its context. This is unsafe: the
// thread's goroutine is not unwound and keeps running until it returns or
// reaches TestCancel, and resources it holds are not released through the
// throw mechanism. The thread object's finalizer is suppressed first. A
// later Join reports ExitTerminated.
func (vm *VM) Terminate(t *Thread) error {
	vm.Suppress(t.obj)
	if !t.t.terminate() {
		return errors.WithStack(&ThreadTerminateError{Thread: t.t.x.name, Reason: "thread is not alive"})
	}
	t.t.log.WithField("function", "Terminate").Warn("thread terminated")
	return nil
}

// TestCancel ends the calling thread's goroutine if the thread has been
// terminated. It does nothing for views that are not threads.
func (vm *VM) TestCancel() {
	if vm.thread == nil {
		return
	}
	select {
	case <-vm.thread.ctx.Done():
		vm.thread.x.Lock()
		dead := vm.thread.terminated
		vm.thread.x.Unlock()
		if dead {
			runtime.Goexit()
		}
	default:
	}
}

// ThreadName returns the name of the thread running the view, or the empty
// string for views that are not threads.
func (vm *VM) ThreadName() string {
	if vm.thread == nil {
		return ""
	}
	return vm.thread.x.name
}

// Object returns the thread's object.
func (t *Thread) Object() *Object {
	return t.obj
}

// Name returns the thread's name.
func (t *Thread) Name() string {
	return t.t.x.name
}

// IsAlive returns true until the thread's entry point returns or the thread
// is terminated.
func (t *Thread) IsAlive() bool {
	t.t.x.Lock()
	defer t.t.x.Unlock()
	return t.t.alive
}

// IsDetached returns true after the thread is detached.
func (t *Thread) IsDetached() bool {
	t.t.x.Lock()
	defer t.t.x.Unlock()
	return t.t.detached
}

// NativeID returns the OS thread ID, or 0 where the OS has none.
func (t *Thread) NativeID() int {
	return t.t.nativeID
}

// StackSize returns the thread's stack size.
func (t *Thread) StackSize() int {
	return t.t.stackSize
}

// Done returns a channel that is closed when the thread's exit code is
// final.
func (t *Thread) Done() <-chan struct{} {
	return t.t.done
}
