package internal_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/avium/internal"
	"github.com/zephyrtronium/avium/testutils"
)

// TestResolveFallback tests that resolution walks two levels to the root's
// toString.
func TestResolveFallback(t *testing.T) {
	v, owner, err := bType.Resolve(internal.SlotToString)
	require.NoError(t, err)
	assert.Same(t, internal.ObjectType, owner)
	assert.NotNil(t, v)

	vm := testutils.TestingVM()
	b := vm.Allocate(bType)
	assert.Regexp(t, regexp.MustCompile(`^B_0x[0-9a-f]+$`), vm.ToString(b))
	assert.Equal(t, "nil", vm.ToString(nil))
}

// TestResolveMissing tests that a slot no type implements fails at the root.
func TestResolveMissing(t *testing.T) {
	_, _, err := bType.Resolve(internal.SlotRead)
	var mc *internal.MissingCapabilityError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, internal.SlotRead, mc.Slot)
	assert.Same(t, bType, mc.Type)
	assert.Same(t, internal.ObjectType, mc.At)

	vm := testutils.TestingVM()
	b := vm.Allocate(bType)
	assert.False(t, vm.Responds(b, internal.SlotRead))
	assert.True(t, vm.Responds(b, internal.SlotToString))
	assert.False(t, vm.Responds(nil, internal.SlotToString))
	cases := map[string]func(){
		"Read":     func() { vm.Read(b, nil) },
		"Write":    func() { vm.Write(b, nil) },
		"Seek":     func() { vm.Seek(b, 0, 0) },
		"Flush":    func() { vm.Flush(b) },
		"Length":   func() { vm.Length(b) },
		"Position": func() { vm.Position(b) },
		"Capacity": func() { vm.Capacity(b) },
		"Insert":   func() { vm.Insert(b, 0, b) },
		"Remove":   func() { vm.Remove(b, 0) },
		"ItemAt":   func() { vm.ItemAt(b, 0) },
		"Clear":    func() { vm.Clear(b) },
		"Invoke":   func() { vm.Invoke(b, distanceSlot) },
	}
	for name, f := range cases {
		f := f
		t.Run(name, func(t *testing.T) {
			testutils.CheckFatal(t, internal.MissingCapability, f)
		})
	}
	testutils.CheckFatal(t, internal.NullSelf, func() { vm.Read(nil, nil) })
	testutils.CheckFatal(t, internal.PreconditionViolation, func() { vm.Invoke(b, internal.SlotToString) })
}

// TestResolveCached tests that the VM's cache agrees with direct resolution.
func TestResolveCached(t *testing.T) {
	vm := testutils.TestingVM()
	for i := 0; i < 2; i++ {
		_, owner, err := vm.Resolve(pointType, distanceSlot)
		require.NoError(t, err)
		assert.Same(t, pointType, owner)
		_, _, err = vm.Resolve(pointType, internal.SlotRead)
		assert.Error(t, err)
	}
	cfg := internal.DefaultConfig()
	cfg.Dispatch.CacheSize = 0
	nocache, err := internal.NewVM(cfg)
	require.NoError(t, err)
	_, owner, err := nocache.Resolve(bType, internal.SlotToString)
	require.NoError(t, err)
	assert.Same(t, internal.ObjectType, owner)
}

// TestPointDistance tests dispatch of a custom slot through a base-typed
// view of a derived object.
func TestPointDistance(t *testing.T) {
	vm := testutils.TestingVM()
	p := newPoint(vm, 3, 4)
	s, ok := internal.Cast(p, shapeType)
	require.True(t, ok)
	d, ok := internal.AsFloat(vm.Invoke(s, distanceSlot))
	require.True(t, ok)
	assert.Equal(t, 5.0, d)
	assert.Equal(t, "point", s.DataAs(shapeType).(*shape).Name)

	base := vm.Allocate(shapeType)
	d, _ = internal.AsFloat(vm.Invoke(base, distanceSlot))
	assert.Equal(t, 0.0, d)
}

// TestDefaultEquals tests bytewise equality.
func TestDefaultEquals(t *testing.T) {
	vm := testutils.TestingVM()
	p := newPoint(vm, 1, 2)
	q := newPoint(vm, 1, 2)
	r := newPoint(vm, 2, 1)
	assert.True(t, vm.Equals(p, p))
	assert.True(t, vm.Equals(p, q))
	assert.False(t, vm.Equals(p, r))
	assert.False(t, vm.Equals(p, nil))
	a := vm.Allocate(aType)
	assert.True(t, vm.Equals(a, vm.Allocate(aType)), "types without data are all equal")
	testutils.CheckFatal(t, internal.PreconditionViolation, func() { vm.Equals(p, vm.Allocate(shapeType)) })
	testutils.CheckFatal(t, internal.NullSelf, func() { vm.Equals(nil, p) })
}

// TestDefaultClone tests shallow cloning.
func TestDefaultClone(t *testing.T) {
	vm := testutils.TestingVM()
	p := newPoint(vm, 3, 4)
	c := vm.Clone(p)
	assert.NotSame(t, p, c)
	assert.NotEqual(t, p.UniqueID(), c.UniqueID())
	assert.Same(t, pointType, c.Type())
	assert.True(t, internal.IsManaged(c))
	assert.True(t, vm.Equals(p, c))
	c.Value.(*point).X = 6
	assert.Equal(t, 3.0, p.Value.(*point).X, "clone shares data with original")
	assert.False(t, vm.Equals(p, c))
	testutils.CheckFatal(t, internal.NullSelf, func() { vm.Clone(nil) })
}

func BenchmarkResolve(b *testing.B) {
	vm := testutils.TestingVM()
	b.Run("Direct", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			testutils.BenchDummy, _, _ = bType.Resolve(internal.SlotToString)
		}
	})
	b.Run("Cached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			testutils.BenchDummy, _, _ = vm.Resolve(bType, internal.SlotToString)
		}
	})
}

func BenchmarkInvoke(b *testing.B) {
	vm := testutils.TestingVM()
	p := newPoint(vm, 3, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		testutils.BenchDummy = vm.Invoke(p, distanceSlot)
	}
}
