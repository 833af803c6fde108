package collector_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/avium/coreext/collector"
	"github.com/zephyrtronium/avium/testutils"
)

func TestCollect(t *testing.T) {
	vm := testutils.TestingVM()
	before := collector.Snapshot(vm)
	for i := 0; i < 100; i++ {
		vm.NewInt(int64(i))
	}
	collector.Collect(vm)
	after := collector.Snapshot(vm)
	assert.Greater(t, after.Cycles, before.Cycles)
	assert.False(t, after.LastGC.IsZero())
	assert.GreaterOrEqual(t, after.Heap.Allocated, before.Heap.Allocated+100)
	assert.GreaterOrEqual(t, int64(collector.TimeUsed()), int64(before.Pause))
}

func TestShowStats(t *testing.T) {
	vm := testutils.TestingVM()
	collector.Collect(vm)
	var b bytes.Buffer
	require.NoError(t, collector.ShowStats(vm, &b))
	s := b.String()
	assert.Contains(t, s, "Last GC at")
	assert.Contains(t, s, "Completed cycles:")
	assert.Contains(t, s, "Pending finalizers:")
}
