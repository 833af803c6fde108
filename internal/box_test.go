package internal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/avium/internal"
	"github.com/zephyrtronium/avium/testutils"
)

var bytesBoxType = internal.DeclareBox("Bytes", []byte(nil))

// TestBoxRoundTrip tests that clones of boxes equal their originals.
func TestBoxRoundTrip(t *testing.T) {
	vm := testutils.TestingVM()
	cases := map[string]struct {
		o    *internal.Object
		str  string
		diff *internal.Object
	}{
		"Int":    {vm.NewInt(42), "42", vm.NewInt(43)},
		"Float":  {vm.NewFloat(2.5), "2.5", vm.NewFloat(-2.5)},
		"String": {vm.NewString("avium"), "avium", vm.NewString("Avium")},
		"Bool":   {vm.NewBool(true), "true", vm.NewBool(false)},
		"Bytes":  {vm.Box(bytesBoxType, []byte("ab")), "[97 98]", vm.Box(bytesBoxType, []byte("ba"))},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			assert.True(t, internal.InheritsFrom(c.o.Type(), internal.BoxType))
			assert.Equal(t, c.str, vm.ToString(c.o))
			clone := vm.Clone(c.o)
			assert.NotSame(t, c.o, clone)
			assert.True(t, vm.Equals(c.o, c.o))
			assert.True(t, vm.Equals(c.o, clone))
			assert.True(t, vm.Equals(clone, c.o))
			assert.False(t, vm.Equals(c.o, c.diff))
		})
	}
}

// TestBoxAccessors tests typed unboxing.
func TestBoxAccessors(t *testing.T) {
	vm := testutils.TestingVM()
	i, ok := internal.AsInt(vm.NewInt(-7))
	assert.True(t, ok)
	assert.Equal(t, int64(-7), i)
	f, ok := internal.AsFloat(vm.NewFloat(0.5))
	assert.True(t, ok)
	assert.Equal(t, 0.5, f)
	s, ok := internal.AsString(vm.NewString("x"))
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	b, ok := internal.AsBool(vm.NewBool(true))
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = internal.AsInt(vm.NewFloat(1))
	assert.False(t, ok)
	_, ok = internal.AsString(nil)
	assert.False(t, ok)
	_, ok = internal.AsBool(newPoint(vm, 0, 0))
	assert.False(t, ok)

	assert.False(t, vm.Equals(vm.NewInt(1), vm.NewFloat(1)), "boxes of different types are unequal")
	assert.Equal(t, []byte("ab"), internal.Unbox(vm.Box(bytesBoxType, []byte("ab"))))
}

// TestBoxInvalid tests boxing mistakes.
func TestBoxInvalid(t *testing.T) {
	vm := testutils.TestingVM()
	testutils.CheckFatal(t, internal.PreconditionViolation, func() { vm.Box(internal.IntType, "1") })
	testutils.CheckFatal(t, internal.PreconditionViolation, func() { vm.Box(internal.IntType, nil) })
	testutils.CheckFatal(t, internal.PreconditionViolation, func() { vm.Box(pointType, 1) })
	testutils.CheckFatal(t, internal.PreconditionViolation, func() { internal.Unbox(newPoint(vm, 0, 0)) })
	assert.Panics(t, func() { internal.DeclareBox("Untyped", nil) })
	d := internal.IntType.Describe()
	require.Len(t, d.Members, 1)
	assert.Equal(t, "V", d.Members[0].Name)
	assert.Equal(t, "int64", d.Members[0].Type)
}
