package internal_test

import (
	"math"

	"github.com/zephyrtronium/avium/internal"
)

// Fixture types shared by the tests in this package.
//
//	Object
//	├── A ── B            (no slots of their own)
//	├── Shape ── Point    (distance; Point overrides)
//	└── Exception ── StatusError

var distanceSlot = internal.NewSlot("distance")

type shape struct {
	Name string
}

type point struct {
	shape
	X, Y float64
}

type statusError struct {
	internal.Exception
	Status int
}

var statusErrorType = internal.Declare(internal.TypeSpec{
	Name: "StatusError",
	Base: internal.ExceptionType,
	Data: statusError{},
})

var drawable = &internal.Interface{Name: "Drawable", Slots: []internal.Slot{distanceSlot, internal.SlotToString}}

var (
	aType = internal.Declare(internal.TypeSpec{Name: "A"})
	bType = internal.Declare(internal.TypeSpec{Name: "B", Base: aType})

	shapeType = internal.Declare(internal.TypeSpec{
		Name: "Shape",
		Data: shape{},
		VTable: internal.VTable{
			distanceSlot: internal.Fn(func(vm *internal.VM, self *internal.Object, args ...*internal.Object) *internal.Object {
				return vm.NewFloat(0)
			}),
		},
		Interfaces: []*internal.Interface{drawable},
		Enum: []internal.EnumConstant{
			{Name: "Open", Value: 0},
			{Name: "Closed", Value: 1},
		},
	})

	pointType = internal.Declare(internal.TypeSpec{
		Name: "Point",
		Base: shapeType,
		Data: point{},
		VTable: internal.VTable{
			distanceSlot: internal.Fn(func(vm *internal.VM, self *internal.Object, args ...*internal.Object) *internal.Object {
				p := self.Value.(*point)
				return vm.NewFloat(math.Hypot(p.X, p.Y))
			}),
		},
		Enum: []internal.EnumConstant{
			{Name: "Origin", Value: 2},
		},
	})
)

// newPoint allocates a managed Point.
func newPoint(vm *internal.VM, x, y float64) *internal.Object {
	o := vm.Allocate(pointType)
	p := o.Value.(*point)
	p.Name = "point"
	p.X, p.Y = x, y
	return o
}
