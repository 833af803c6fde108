package sync_test

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/avium"
	"github.com/zephyrtronium/avium/coreext/sync"
	"github.com/zephyrtronium/avium/testutils"
)

func TestMutex(t *testing.T) {
	vm := testutils.TestingVM()
	m := sync.NewMutex(vm)
	assert.Regexp(t, `^Mutex_0x[0-9a-f]+\(unlocked\)$`, vm.ToString(m))
	assert.True(t, sync.TryLock(vm, m))
	assert.False(t, sync.TryLock(vm, m))
	assert.Regexp(t, `\(locked\)$`, vm.ToString(m))
	sync.Unlock(vm, m)
	testutils.CheckFatal(t, avium.PreconditionViolation, func() { sync.Unlock(vm, m) })

	c := vm.Clone(m)
	sync.Lock(vm, m)
	assert.True(t, sync.TryLock(vm, c), "clone shares lock state")
	assert.True(t, vm.Equals(m, m))
	assert.False(t, vm.Equals(m, c))
	sync.Unlock(vm, c)
	sync.Unlock(vm, m)
}

// TestMutexThreads tests mutual exclusion across threads.
func TestMutexThreads(t *testing.T) {
	vm := testutils.TestingVM()
	m := sync.NewMutex(vm)
	var inside, peak int32
	entry := func(vm *avium.VM, arg *avium.Object) int {
		for i := 0; i < 50; i++ {
			sync.Lock(vm, m)
			n := atomic.AddInt32(&inside, 1)
			if n > atomic.LoadInt32(&peak) {
				atomic.StoreInt32(&peak, n)
			}
			atomic.AddInt32(&inside, -1)
			sync.Unlock(vm, m)
		}
		return 0
	}
	threads := make([]*avium.Thread, 4)
	for i := range threads {
		th, err := vm.Spawn(entry, nil, avium.ThreadOptions{})
		require.NoError(t, err)
		threads[i] = th
	}
	for _, th := range threads {
		_, err := vm.Join(th)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

// TestLockTerminate tests that a thread blocked on a mutex can be terminated.
func TestLockTerminate(t *testing.T) {
	vm := testutils.TestingVM()
	m := sync.NewMutex(vm)
	sync.Lock(vm, m)
	defer sync.Unlock(vm, m)
	th, err := vm.Spawn(func(vm *avium.VM, arg *avium.Object) int {
		sync.Lock(vm, m)
		return 0
	}, nil, avium.ThreadOptions{})
	require.NoError(t, err)
	require.NoError(t, vm.Terminate(th))
	code, err := vm.Join(th)
	require.NoError(t, err)
	assert.Equal(t, avium.ExitTerminated, code)
}

// TestBarrier tests that one waiter per generation is chosen.
func TestBarrier(t *testing.T) {
	vm := testutils.TestingVM()
	const n = 3
	b := sync.NewBarrier(vm, n)
	assert.Regexp(t, `\(0/3\)$`, vm.ToString(b))
	var chosen int32
	entry := func(vm *avium.VM, arg *avium.Object) int {
		for i := 0; i < 2; i++ {
			if sync.Wait(vm, b) {
				atomic.AddInt32(&chosen, 1)
			}
		}
		return 0
	}
	threads := make([]*avium.Thread, n)
	for i := range threads {
		th, err := vm.Spawn(entry, nil, avium.ThreadOptions{})
		require.NoError(t, err)
		threads[i] = th
	}
	for _, th := range threads {
		_, err := vm.Join(th)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&chosen))
	assert.True(t, sync.Wait(vm, sync.NewBarrier(vm, 1)))
	testutils.CheckFatal(t, avium.PreconditionViolation, func() { sync.NewBarrier(vm, 0) })
}

// TestBarrierBlocks tests that waiters are held until the barrier fills.
func TestBarrierBlocks(t *testing.T) {
	vm := testutils.TestingVM()
	b := sync.NewBarrier(vm, 2)
	released := make(chan bool, 1)
	th, err := vm.Spawn(func(vm *avium.VM, arg *avium.Object) int {
		released <- sync.Wait(vm, b)
		return 0
	}, nil, avium.ThreadOptions{})
	require.NoError(t, err)
	select {
	case <-released:
		t.Fatal("waiter released early")
	case <-time.After(20 * time.Millisecond):
	}
	last := sync.Wait(vm, b)
	first := <-released
	assert.True(t, last != first, "both or neither waiter chosen")
	_, err = vm.Join(th)
	assert.NoError(t, err)
	assert.NotSame(t, b, vm.Clone(b))
}

// TestBarrierTerminate tests that a terminated waiter does not count toward
// releasing the barrier.
func TestBarrierTerminate(t *testing.T) {
	vm := testutils.TestingVM()
	b := sync.NewBarrier(vm, 2)
	th, err := vm.Spawn(func(vm *avium.VM, arg *avium.Object) int {
		sync.Wait(vm, b)
		return 0
	}, nil, avium.ThreadOptions{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.HasSuffix(vm.ToString(b), "(1/2)") }, time.Second, time.Millisecond)
	require.NoError(t, vm.Terminate(th))
	require.Eventually(t, func() bool { return strings.HasSuffix(vm.ToString(b), "(0/2)") }, time.Second, time.Millisecond)
	code, err := vm.Join(th)
	require.NoError(t, err)
	assert.Equal(t, avium.ExitTerminated, code)

	released := make(chan bool, 1)
	other, err := vm.Spawn(func(vm *avium.VM, arg *avium.Object) int {
		released <- sync.Wait(vm, b)
		return 0
	}, nil, avium.ThreadOptions{})
	require.NoError(t, err)
	select {
	case <-released:
		t.Fatal("barrier released by a single waiter")
	case <-time.After(20 * time.Millisecond):
	}
	last := sync.Wait(vm, b)
	first := <-released
	assert.True(t, last != first, "both or neither waiter chosen")
	_, err = vm.Join(other)
	assert.NoError(t, err)
}
