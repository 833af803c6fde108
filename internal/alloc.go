package internal

import (
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// heap tracks managed allocations for one VM and all its views. All fields
// must be accessed atomically.
type heap struct {
	allocated   uint64
	finalizable uint64
	finalized   uint64
	suppressed  uint64

	log *logrus.Logger
}

// HeapStats is a snapshot of managed heap counters.
type HeapStats struct {
	// Allocated is the number of managed objects ever allocated.
	Allocated uint64 `yaml:"allocated"`
	// Finalizable is the number of those which registered a finalizer.
	Finalizable uint64 `yaml:"finalizable"`
	// Finalized is the number of finalizers that have run, either
	// deterministically or from the collector.
	Finalized uint64 `yaml:"finalized"`
	// Suppressed is the number of finalizers cancelled without running.
	Suppressed uint64 `yaml:"suppressed"`
}

// Pending returns the number of registered finalizers that have neither run
// nor been suppressed.
func (s HeapStats) Pending() uint64 {
	return s.Finalizable - s.Finalized - s.Suppressed
}

// HeapStats returns the current heap counters.
func (vm *VM) HeapStats() HeapStats {
	return HeapStats{
		Allocated:   atomic.LoadUint64(&vm.heap.allocated),
		Finalizable: atomic.LoadUint64(&vm.heap.finalizable),
		Finalized:   atomic.LoadUint64(&vm.heap.finalized),
		Suppressed:  atomic.LoadUint64(&vm.heap.suppressed),
	}
}

// Allocate creates a managed object of type t with zeroed data. If t resolves
// a finalize slot, the collector runs it before reclaiming the object, unless
// the object was already finalized or its finalizer was suppressed.
// Allocating a type larger than the configured maximum object size is fatal.
func (vm *VM) Allocate(t *Type) *Object {
	if t == nil {
		Fatalf(NullSelf, "allocation of nil type")
	}
	if max := vm.Config.Heap.MaxObjectSize; max > 0 && t.size > max {
		Fatalf(AllocationFailure, "%s needs %d bytes, limit is %d", t.name, t.size, max)
	}
	o := newObject(t, true)
	atomic.AddUint64(&vm.heap.allocated, 1)
	if f := vm.optional(o, SlotFinalize); f != nil {
		atomic.AddUint64(&vm.heap.finalizable, 1)
		h := vm.heap
		fn := f.(FinalizeFn)
		runtime.SetFinalizer(o, func(o *Object) { h.collect(o, fn) })
	}
	return o
}

// Local creates an unmanaged object of type t with zeroed data. Local objects
// never have collector finalizers. They must be promoted before they are
// thrown.
func (vm *VM) Local(t *Type) *Object {
	if t == nil {
		Fatalf(NullSelf, "allocation of nil type")
	}
	return newObject(t, false)
}

// IsManaged returns true if the object came from the managed heap.
func IsManaged(o *Object) bool {
	return o != nil && o.managed
}

// Promote returns o if it is managed or a managed clone of it otherwise.
func (vm *VM) Promote(o *Object) *Object {
	if IsManaged(o) {
		return o
	}
	r := vm.Clone(o)
	if !r.managed {
		Fatalf(PreconditionViolation, "clone of %s did not come from the managed heap", o.typ.name)
	}
	return r
}

// Finalize runs the object's finalize slot now, if it has one and it has not
// already run, and cancels any collector finalizer. Returns false if the
// object was already finalized or suppressed.
func (vm *VM) Finalize(o *Object) bool {
	if o == nil {
		Fatalf(NullSelf, "finalize of nil object")
	}
	if !atomic.CompareAndSwapUint32(&o.fin, finPending, finDone) {
		return false
	}
	f := vm.optional(o, SlotFinalize)
	if f == nil {
		return true
	}
	if o.managed {
		runtime.SetFinalizer(o, nil)
		atomic.AddUint64(&vm.heap.finalized, 1)
	}
	f.(FinalizeFn)(o)
	return true
}

// Suppress cancels the object's pending finalizer without running it.
// Returns false if the object was already finalized or suppressed.
func (vm *VM) Suppress(o *Object) bool {
	if o == nil {
		Fatalf(NullSelf, "suppress of nil object")
	}
	if !atomic.CompareAndSwapUint32(&o.fin, finPending, finSuppressed) {
		return false
	}
	if o.managed && vm.optional(o, SlotFinalize) != nil {
		runtime.SetFinalizer(o, nil)
		atomic.AddUint64(&vm.heap.suppressed, 1)
	}
	return true
}

// collect is the collector finalizer for managed objects.
func (h *heap) collect(o *Object, fn FinalizeFn) {
	if !atomic.CompareAndSwapUint32(&o.fin, finPending, finDone) {
		return
	}
	atomic.AddUint64(&h.finalized, 1)
	h.log.WithFields(logrus.Fields{
		"function": "collect",
		"type":     o.typ.name,
		"id":       o.id,
	}).Trace("finalizing")
	fn(o)
}
