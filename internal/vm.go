package internal

import (
	"context"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Version is the runtime version.
const Version = "0.3.0"

// VM is the process-wide runtime context: configuration, logging, dispatch
// cache, heap counters, and the thread scheduler. A VM is created once with
// NewVM. Each thread and task runs with its own view of the VM, which shares
// all of this state but has its own throw-context stack; a view must only be
// used by the goroutine it was made for.
type VM struct {
	// Config is the configuration the VM was created with. It must not be
	// modified afterward.
	Config Config
	// Log is the logger shared by all views.
	Log *logrus.Logger
	// Sched tracks which executions wait on which others.
	Sched *Scheduler

	// NoValue is returned by SwitchTo when a task yields without a value.
	NoValue *Object
	// Exited is returned by SwitchTo when a task's entry point has returned.
	Exited *Object

	// StartTime is the time at which the VM was created.
	StartTime time.Time

	// cache memoizes slot resolution. Nil if disabled.
	cache *lru.Cache
	heap  *heap

	// entry is the view's logger with its execution fields.
	entry *logrus.Entry
	// x is the execution this view belongs to.
	x *execution
	// thread is the thread running this view, or nil for the main view.
	thread *thread
	// task is the task running this view. It is created lazily for views
	// that are not tasks.
	task *Task
}

// SentinelType is the type of NoValue and Exited.
var SentinelType = Declare(TypeSpec{
	Name: "Sentinel",
	Data: Sentinel{},
	VTable: VTable{
		SlotToString: ToStringFn(func(vm *VM, self *Object) string {
			return self.Value.(*Sentinel).Name
		}),
	},
})

// Sentinel is the data of a sentinel object.
type Sentinel struct {
	Name string
}

// NewVM creates a VM. Logs go to standard error.
func NewVM(cfg Config) (*VM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	vm := &VM{
		Config:    cfg,
		Log:       log,
		Sched:     newScheduler(),
		StartTime: time.Now(),
		heap:      &heap{log: log},
	}
	if cfg.Dispatch.CacheSize > 0 {
		vm.cache, err = lru.New(cfg.Dispatch.CacheSize)
		if err != nil {
			return nil, errors.WithStack(&ConfigError{Err: err})
		}
	}
	vm.x = newExecution("main")
	vm.entry = log.WithField("execution", vm.x.name)
	vm.NoValue = vm.newSentinel("NoValue")
	vm.Exited = vm.newSentinel("Exited")
	return vm, nil
}

func (vm *VM) newSentinel(name string) *Object {
	o := vm.Allocate(SentinelType)
	o.Value.(*Sentinel).Name = name
	return o
}

// viewFor creates a view of the VM for a new execution.
func (vm *VM) viewFor(x *execution) *VM {
	return &VM{
		Config:    vm.Config,
		Log:       vm.Log,
		Sched:     vm.Sched,
		NoValue:   vm.NoValue,
		Exited:    vm.Exited,
		StartTime: vm.StartTime,
		cache:     vm.cache,
		heap:      vm.heap,
		entry:     vm.Log.WithField("execution", x.name),
		x:         x,
	}
}

// Logger returns the view's logger, which carries the name of the execution.
func (vm *VM) Logger() *logrus.Entry {
	return vm.entry
}

// Context returns a context that is cancelled when the view's thread is
// terminated. Views that are not threads get a context that is never
// cancelled.
func (vm *VM) Context() context.Context {
	if vm.thread != nil {
		return vm.thread.ctx
	}
	return context.Background()
}

// RunMain runs entry as the program's top level and returns its exit code,
// or ExitUncaught if it throws.
func (vm *VM) RunMain(entry ThreadFn, arg *Object) int {
	code := vm.RunTop(func() int { return entry(vm, arg) })
	vm.entry.WithFields(logrus.Fields{
		"function": "RunMain",
		"code":     code,
		"uptime":   time.Since(vm.StartTime),
	}).Debug("main exited")
	return code
}
