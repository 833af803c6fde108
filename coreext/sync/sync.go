// Package sync provides mutex and barrier objects. Blocking operations on a
// thread end the thread's goroutine if the thread is terminated while it
// waits.
package sync

import (
	"fmt"
	gosync "sync"

	"github.com/sirupsen/logrus"

	"github.com/zephyrtronium/avium"
	"github.com/zephyrtronium/avium/internal"
)

// Mutex is the data of a Mutex object.
type Mutex struct {
	// ch holds a token while the mutex is locked.
	ch chan struct{}
}

// MutexType is the type of mutual exclusion locks. Clones are new, unlocked
// mutexes. A mutex is equal only to itself.
var MutexType *avium.Type

func init() {
	MutexType = avium.Declare(avium.TypeSpec{
		Name: "Mutex",
		Data: Mutex{},
		VTable: avium.VTable{
			avium.SlotToString: avium.ToStringFn(func(vm *avium.VM, self *avium.Object) string {
				state := "unlocked"
				if len(mutexOf(self).ch) > 0 {
					state = "locked"
				}
				return fmt.Sprintf("Mutex_%#x(%s)", self.UniqueID(), state)
			}),
			avium.SlotClone: avium.CloneFn(func(vm *avium.VM, self *avium.Object) *avium.Object {
				return NewMutex(vm)
			}),
			avium.SlotFinalize: avium.FinalizeFn(func(self *avium.Object) {
				if len(mutexOf(self).ch) > 0 {
					logrus.WithFields(logrus.Fields{"function": "finalize", "id": self.UniqueID()}).Warn("mutex reclaimed while locked")
				}
			}),
		},
	})
}

// NewMutex creates a managed, unlocked Mutex.
func NewMutex(vm *avium.VM) *avium.Object {
	o := vm.Allocate(MutexType)
	o.Value.(*Mutex).ch = make(chan struct{}, 1)
	return o
}

func mutexOf(o *avium.Object) *Mutex {
	m, ok := o.DataAs(MutexType).(*Mutex)
	if !ok || m.ch == nil {
		internal.Fatalf(avium.PreconditionViolation, "%v is not a Mutex from NewMutex", o.Type())
	}
	return m
}

// Lock locks the mutex, blocking until it is available.
func Lock(vm *avium.VM, o *avium.Object) {
	m := mutexOf(o)
	for {
		select {
		case m.ch <- struct{}{}:
			return
		case <-vm.Context().Done():
			vm.TestCancel()
		}
	}
}

// TryLock locks the mutex if it is available and reports whether it did.
func TryLock(vm *avium.VM, o *avium.Object) bool {
	select {
	case mutexOf(o).ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock unlocks the mutex. Unlocking an unlocked mutex is fatal.
func Unlock(vm *avium.VM, o *avium.Object) {
	select {
	case <-mutexOf(o).ch:
	default:
		internal.Fatalf(avium.PreconditionViolation, "unlock of unlocked %s", vm.ToString(o))
	}
}

// Barrier is the data of a Barrier object.
type Barrier struct {
	b *barrier
}

type barrier struct {
	m     gosync.Mutex
	n     int
	count int
	// gen is closed when the current generation is released.
	gen chan struct{}
}

// BarrierType is the type of barriers, which release their waiters together
// once a fixed number of them have arrived. Clones are new barriers for the
// same number of waiters with nobody waiting.
var BarrierType *avium.Type

func init() {
	BarrierType = avium.Declare(avium.TypeSpec{
		Name: "Barrier",
		Data: Barrier{},
		VTable: avium.VTable{
			avium.SlotToString: avium.ToStringFn(func(vm *avium.VM, self *avium.Object) string {
				b := barrierOf(self)
				b.m.Lock()
				defer b.m.Unlock()
				return fmt.Sprintf("Barrier_%#x(%d/%d)", self.UniqueID(), b.count, b.n)
			}),
			avium.SlotClone: avium.CloneFn(func(vm *avium.VM, self *avium.Object) *avium.Object {
				return NewBarrier(vm, barrierOf(self).n)
			}),
		},
	})
}

// NewBarrier creates a managed Barrier for n waiters. n must be positive.
func NewBarrier(vm *avium.VM, n int) *avium.Object {
	if n <= 0 {
		internal.Fatalf(avium.PreconditionViolation, "barrier for %d waiters", n)
	}
	o := vm.Allocate(BarrierType)
	o.Value.(*Barrier).b = &barrier{n: n, gen: make(chan struct{})}
	return o
}

func barrierOf(o *avium.Object) *barrier {
	b, ok := o.DataAs(BarrierType).(*Barrier)
	if !ok || b.b == nil {
		internal.Fatalf(avium.PreconditionViolation, "%v is not a Barrier from NewBarrier", o.Type())
	}
	return b.b
}

// Wait blocks until the barrier's number of waiters have called Wait, then
// releases them all. Exactly one waiter of each generation, the last to
// arrive, receives true. A thread terminated while it waits is no longer
// counted.
func Wait(vm *avium.VM, o *avium.Object) bool {
	b := barrierOf(o)
	b.m.Lock()
	b.count++
	if b.count == b.n {
		close(b.gen)
		b.gen = make(chan struct{})
		b.count = 0
		b.m.Unlock()
		return true
	}
	gen := b.gen
	b.m.Unlock()
	select {
	case <-gen:
		return false
	case <-vm.Context().Done():
		b.m.Lock()
		if b.gen != gen {
			b.m.Unlock()
			return false
		}
		// Withdraw the arrival so the thread does not count toward the
		// generation after it ends.
		b.count--
		b.m.Unlock()
		vm.TestCancel()
		return false
	}
}
