package internal_test

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/avium/internal"
	"github.com/zephyrtronium/avium/testutils"
)

type handle struct {
	Closed *int32
}

var handleType = internal.Declare(internal.TypeSpec{
	Name: "Handle",
	Data: handle{},
	VTable: internal.VTable{
		internal.SlotFinalize: internal.FinalizeFn(func(self *internal.Object) {
			atomic.AddInt32(self.Value.(*handle).Closed, 1)
		}),
	},
})

type big struct {
	Data [1 << 12]byte
}

var bigType = internal.Declare(internal.TypeSpec{Name: "Big", Data: big{}})

// TestAllocate tests managed allocation.
func TestAllocate(t *testing.T) {
	vm := testutils.TestingVM()
	before := vm.HeapStats()
	o := vm.Allocate(pointType)
	assert.True(t, internal.IsManaged(o))
	assert.Same(t, pointType, o.Type())
	assert.Equal(t, point{}, *o.Value.(*point))
	assert.Nil(t, vm.Allocate(aType).Value)
	after := vm.HeapStats()
	assert.Equal(t, before.Allocated+2, after.Allocated)
	assert.Equal(t, before.Finalizable, after.Finalizable)
	assert.NotEqual(t, o.UniqueID(), vm.Allocate(pointType).UniqueID())
	testutils.CheckFatal(t, internal.NullSelf, func() { vm.Allocate(nil) })
	testutils.CheckFatal(t, internal.NullSelf, func() { vm.Local(nil) })
	assert.False(t, internal.IsManaged(nil))
}

// TestAllocateLimit tests that oversized allocations are fatal.
func TestAllocateLimit(t *testing.T) {
	cfg := internal.DefaultConfig()
	cfg.Heap.MaxObjectSize = 1 << 10
	vm, err := internal.NewVM(cfg)
	require.NoError(t, err)
	testutils.CheckFatal(t, internal.AllocationFailure, func() { vm.Allocate(bigType) })
	assert.NotNil(t, vm.Allocate(pointType))
	assert.NotNil(t, vm.Local(bigType), "local objects are not limited")
}

// TestLocalPromote tests unmanaged objects and promotion.
func TestLocalPromote(t *testing.T) {
	vm := testutils.TestingVM()
	l := vm.Local(pointType)
	l.Value.(*point).X = 9
	assert.False(t, internal.IsManaged(l))
	p := vm.Promote(l)
	assert.NotSame(t, l, p)
	assert.True(t, internal.IsManaged(p))
	assert.Equal(t, 9.0, p.Value.(*point).X)
	assert.Same(t, p, vm.Promote(p))
}

// TestFinalize tests deterministic finalization.
func TestFinalize(t *testing.T) {
	vm := testutils.TestingVM()
	var closed int32
	before := vm.HeapStats()
	o := vm.Allocate(handleType)
	o.Value.(*handle).Closed = &closed
	assert.Equal(t, before.Finalizable+1, vm.HeapStats().Finalizable)
	assert.True(t, vm.Finalize(o))
	assert.False(t, vm.Finalize(o))
	assert.False(t, vm.Suppress(o))
	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))
	assert.Equal(t, before.Finalized+1, vm.HeapStats().Finalized)

	s := vm.Allocate(handleType)
	s.Value.(*handle).Closed = &closed
	assert.True(t, vm.Suppress(s))
	assert.False(t, vm.Finalize(s))
	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))
	assert.Equal(t, before.Suppressed+1, vm.HeapStats().Suppressed)

	l := vm.Local(handleType)
	l.Value.(*handle).Closed = &closed
	assert.True(t, vm.Finalize(l))
	assert.Equal(t, int32(2), atomic.LoadInt32(&closed))
	assert.True(t, vm.Finalize(vm.Allocate(aType)), "objects without finalizers finalize trivially")
	testutils.CheckFatal(t, internal.NullSelf, func() { vm.Finalize(nil) })
	testutils.CheckFatal(t, internal.NullSelf, func() { vm.Suppress(nil) })
}

// TestCollectorFinalizer tests that the collector runs finalizers of
// unreachable objects.
func TestCollectorFinalizer(t *testing.T) {
	if testing.Short() {
		t.Skip("depends on collector timing")
	}
	vm := testutils.TestingVM()
	var closed int32
	func() {
		o := vm.Allocate(handleType)
		o.Value.(*handle).Closed = &closed
	}()
	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(&closed) == 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))
}
