package list_test

import (
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/avium"
	"github.com/zephyrtronium/avium/coreext/list"
	"github.com/zephyrtronium/avium/testutils"
)

var finalized int32

var countedType = avium.Declare(avium.TypeSpec{
	Name: "Counted",
	VTable: avium.VTable{
		avium.SlotFinalize: avium.FinalizeFn(func(*avium.Object) { atomic.AddInt32(&finalized, 1) }),
	},
})

// labeled is a list type derived from ArrayList.
type labeled struct {
	list.ArrayList
	Label string
}

var labeledType = avium.Declare(avium.TypeSpec{
	Name: "LabeledList",
	Base: list.ArrayListType,
	Data: labeled{},
})

func ints(vm *avium.VM, vals ...int64) *avium.Object {
	o := list.New(vm, avium.IntType, 0)
	for _, v := range vals {
		if err := list.Append(vm, o, vm.NewInt(v)); err != nil {
			panic(err)
		}
	}
	return o
}

func TestSlots(t *testing.T) {
	testutils.CheckSlots(t, list.ArrayListType, map[avium.Slot]string{
		avium.SlotLength:   "ArrayList",
		avium.SlotCapacity: "ArrayList",
		avium.SlotInsert:   "ArrayList",
		avium.SlotRemove:   "ArrayList",
		avium.SlotItemAt:   "ArrayList",
		avium.SlotClear:    "ArrayList",
	})
	assert.True(t, list.ArrayListType.Implements(list.Interface))
}

// TestInsertRemove tests positional insertion and removal.
func TestInsertRemove(t *testing.T) {
	vm := testutils.TestingVM()
	o := ints(vm, 1, 3)
	require.NoError(t, vm.Insert(o, 1, vm.NewInt(2)))
	require.NoError(t, vm.Insert(o, 0, vm.NewInt(0)))
	assert.Equal(t, "[0, 1, 2, 3]", vm.ToString(o))
	assert.Equal(t, int64(4), vm.Length(o))
	assert.GreaterOrEqual(t, vm.Capacity(o), 4)

	r, err := vm.Remove(o, 2)
	require.NoError(t, err)
	n, _ := avium.AsInt(r)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "[0, 1, 3]", vm.ToString(o))

	it, err := vm.ItemAt(o, 2)
	require.NoError(t, err)
	n, _ = avium.AsInt(it)
	assert.Equal(t, int64(3), n)
}

// TestErrors tests rejected operations.
func TestErrors(t *testing.T) {
	vm := testutils.TestingVM()
	o := ints(vm, 1)
	cases := map[string]struct {
		err   error
		index int
	}{
		"InsertPast":   {vm.Insert(o, 2, vm.NewInt(0)), 2},
		"InsertBefore": {vm.Insert(o, -1, vm.NewInt(0)), -1},
		"Remove":       {second(vm.Remove(o, 1)), 1},
		"ItemAt":       {second(vm.ItemAt(o, 5)), 5},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			var ie *list.IndexError
			require.True(t, errors.As(c.err, &ie), "wrong error %v", c.err)
			assert.Equal(t, c.index, ie.Index)
			assert.Equal(t, 1, ie.Len)
		})
	}

	err := vm.Insert(o, 0, vm.NewString("1"))
	var te *list.ElemTypeError
	require.True(t, errors.As(err, &te))
	assert.Same(t, avium.StringType, te.Have)
	assert.Same(t, avium.IntType, te.Elem)
	assert.Error(t, list.Append(vm, o, nil))
	assert.Equal(t, int64(1), vm.Length(o))
}

func second(_ *avium.Object, err error) error {
	return err
}

// TestCloneEquals tests deep clones and elementwise equality.
func TestCloneEquals(t *testing.T) {
	vm := testutils.TestingVM()
	o := ints(vm, 1, 2, 3)
	c := vm.Clone(o)
	assert.NotSame(t, o, c)
	assert.True(t, vm.Equals(o, c))
	a, b := list.Items(o), list.Items(c)
	for i := range a {
		assert.NotSame(t, a[i], b[i], "item %d not cloned", i)
	}
	assert.False(t, vm.Equals(o, ints(vm, 1, 2)))
	assert.False(t, vm.Equals(o, ints(vm, 1, 2, 4)))
	assert.False(t, vm.Equals(o, vm.NewInt(1)))

	mixed := list.New(vm, avium.ObjectType, 2)
	require.NoError(t, list.Append(vm, mixed, vm.NewInt(1), vm.NewString("a")))
	other := list.New(vm, avium.ObjectType, 2)
	require.NoError(t, list.Append(vm, other, vm.NewString("a"), vm.NewInt(1)))
	assert.False(t, vm.Equals(mixed, other))
	assert.Same(t, avium.ObjectType, list.Elem(vm.Clone(mixed)))
}

// TestCloneDerived tests that clones keep the type of a derived list.
func TestCloneDerived(t *testing.T) {
	vm := testutils.TestingVM()
	o := vm.Allocate(labeledType)
	o.Value.(*labeled).Elem = avium.IntType
	require.NoError(t, list.Append(vm, o, vm.NewInt(1), vm.NewInt(2)))
	c := vm.Clone(o)
	assert.Same(t, labeledType, c.Type())
	assert.Same(t, avium.IntType, list.Elem(c))
	assert.Equal(t, "[1, 2]", vm.ToString(c))
	assert.True(t, vm.Equals(o, c))
	assert.NotSame(t, list.Items(o)[0], list.Items(c)[0])
}

// TestClearFinalizes tests that clearing and deleting finalize items.
func TestClearFinalizes(t *testing.T) {
	vm := testutils.TestingVM()
	before := atomic.LoadInt32(&finalized)
	o := list.New(vm, countedType, 4)
	for i := 0; i < 3; i++ {
		require.NoError(t, list.Append(vm, o, vm.Allocate(countedType)))
	}
	kept, err := vm.Remove(o, 0)
	require.NoError(t, err)
	vm.Clear(o)
	assert.Equal(t, before+2, atomic.LoadInt32(&finalized))
	assert.Equal(t, int64(0), vm.Length(o))
	assert.Equal(t, 4, vm.Capacity(o))

	require.NoError(t, list.Append(vm, o, kept))
	list.Delete(vm, o)
	assert.Equal(t, before+3, atomic.LoadInt32(&finalized))
	assert.False(t, vm.Finalize(kept), "item finalized twice")
}

func TestNewNil(t *testing.T) {
	vm := testutils.TestingVM()
	testutils.CheckFatal(t, avium.NullSelf, func() { list.New(vm, nil, 0) })
}
