package internal

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// TaskFn is the entry point of a task. Its result is the task's final value.
type TaskFn func(vm *VM, arg *Object) *Object

// TaskOptions configures a new task.
type TaskOptions struct {
	// Name identifies the task in logs. If empty, a name is generated.
	Name string
	// StackSize is the requested stack size in bytes, with the same rules as
	// for threads.
	StackSize int
}

// TaskState is the state of a task.
type TaskState int

// Task states.
const (
	// TaskCreated is a task that has never been switched to.
	TaskCreated TaskState = iota
	// TaskRunning is a task that is executing or has switched to another
	// task and is waiting for it.
	TaskRunning
	// TaskSuspended is a task that switched back to its caller.
	TaskSuspended
	// TaskExited is a task whose entry point has returned.
	TaskExited
)

func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "created"
	case TaskRunning:
		return "running"
	case TaskSuspended:
		return "suspended"
	case TaskExited:
		return "exited"
	}
	return fmt.Sprintf("TaskState(%d)", int(s))
}

// Task is a cooperatively scheduled execution. Exactly one of a task and the
// task that switched to it runs at a time. Each task runs on its own
// goroutine with its own view of the VM.
type Task struct {
	name      string
	stackSize int
	entry     TaskFn
	arg       *Object
	// root is true for the implicit task of a view that is not itself a
	// task. Root tasks have no caller.
	root bool
	// vm is the task's own view. Nil for root tasks.
	vm *VM

	// m guards state, caller, and result.
	m      sync.Mutex
	state  TaskState
	caller *Task
	result *Object

	// wake resumes a suspended task.
	wake chan struct{}
	// reply receives the value produced by the task this one switched to.
	reply chan *Object
}

// NewTask creates a task that runs entry(arg) when it is first switched to.
func (vm *VM) NewTask(entry TaskFn, arg *Object, opts TaskOptions) (*Task, error) {
	if entry == nil {
		Fatalf(NullSelf, "task with nil entry point")
	}
	size := opts.StackSize
	if size == 0 {
		size = vm.Config.Task.DefaultStackSize
	} else if err := checkStackSize(size); err != nil {
		return nil, err
	}
	x := newExecution(opts.Name)
	if x.name == "" {
		x.name = fmt.Sprintf("task-%d", x.id)
	}
	t := &Task{
		name:      x.name,
		stackSize: size,
		entry:     entry,
		arg:       arg,
		state:     TaskCreated,
		wake:      make(chan struct{}),
		reply:     make(chan *Object),
	}
	t.vm = vm.viewFor(x)
	t.vm.task = t
	t.vm.entry = vm.Log.WithField("task", x.name)
	return t, nil
}

// currentTask returns the task running the view, creating the view's root
// task if needed.
func (vm *VM) currentTask() *Task {
	if vm.task == nil {
		vm.task = &Task{
			name:  vm.x.name,
			root:  true,
			state: TaskRunning,
			reply: make(chan *Object),
		}
	}
	return vm.task
}

// SwitchTo suspends the calling task and runs t until it switches back. The
// result is NoValue if t yielded with SwitchBack, Exited if its entry point
// returned, or the value it passed to ReturnValue. Switching to an exited
// task, a running task, or the calling task itself is fatal.
func (vm *VM) SwitchTo(t *Task) *Object {
	if t == nil {
		Fatalf(NullSelf, "switch to nil task")
	}
	cur := vm.currentTask()
	if t == cur {
		Fatalf(PreconditionViolation, "task %s switched to itself", t.name)
	}
	t.m.Lock()
	state := t.state
	if state == TaskExited || state == TaskRunning {
		t.m.Unlock()
		Fatalf(PreconditionViolation, "switch to %v task %s", state, t.name)
	}
	t.state = TaskRunning
	t.caller = cur
	t.m.Unlock()
	if state == TaskCreated {
		go t.run()
	} else {
		t.wake <- struct{}{}
	}
	return <-cur.reply
}

// SwitchBack suspends the calling task and resumes the task that switched to
// it, which receives NoValue. Calling SwitchBack outside a task is fatal.
func (vm *VM) SwitchBack() {
	vm.ReturnValue(vm.NoValue)
}

// ReturnValue suspends the calling task and resumes the task that switched to
// it, which receives v. A nil v is sent as NoValue. Calling ReturnValue
// outside a task is fatal.
func (vm *VM) ReturnValue(v *Object) {
	cur := vm.currentTask()
	if cur.root {
		Fatalf(PreconditionViolation, "switch back from %s, which is not a task", cur.name)
	}
	if v == nil {
		v = vm.NoValue
	}
	cur.m.Lock()
	c := cur.caller
	cur.caller = nil
	cur.state = TaskSuspended
	cur.m.Unlock()
	c.reply <- v
	<-cur.wake
}

// RunToCompletion switches to t until it exits and returns the last value it
// produced, counting the entry point's result. The result is NoValue if the
// task never produced a value; it is never Exited.
func (vm *VM) RunToCompletion(t *Task) *Object {
	last := vm.NoValue
	for t.State() != TaskExited {
		v := vm.SwitchTo(t)
		if v == vm.Exited {
			break
		}
		if v != vm.NoValue {
			last = v
		}
	}
	if r := t.Result(); r != nil && r != vm.NoValue && r != vm.Exited {
		last = r
	}
	return last
}

// run is the body of a task's goroutine.
func (t *Task) run() {
	var r *Object
	code := t.vm.RunTop(func() int {
		r = t.entry(t.vm, t.arg)
		return ExitSuccess
	})
	t.m.Lock()
	t.state = TaskExited
	t.result = r
	c := t.caller
	t.caller = nil
	t.m.Unlock()
	t.vm.entry.WithFields(logrus.Fields{"function": "run", "code": code}).Debug("task exited")
	c.reply <- t.vm.Exited
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.name
}

// StackSize returns the task's stack size.
func (t *Task) StackSize() int {
	return t.stackSize
}

// State returns the task's current state.
func (t *Task) State() TaskState {
	t.m.Lock()
	defer t.m.Unlock()
	return t.state
}

// Result returns the entry point's result once the task has exited, or nil.
func (t *Task) Result() *Object {
	t.m.Lock()
	defer t.m.Unlock()
	return t.result
}
