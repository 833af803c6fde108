package internal

import (
	"fmt"
	"reflect"
)

// BoxType is the base type of boxes, which give primitive values object
// identity.
var BoxType = Declare(TypeSpec{Name: "Box"})

// Built-in box types.
var (
	IntType    = DeclareBox("Int", int64(0))
	FloatType  = DeclareBox("Float", float64(0))
	StringType = DeclareBox("String", "")
	BoolType   = DeclareBox("Bool", false)
)

// DeclareBox declares a box type deriving from BoxType around values of the
// exemplar's Go type. The box's data is a struct with one field V. Boxes
// print their values with fmt and compare them with ==, or with
// reflect.DeepEqual if the type is not comparable.
func DeclareBox(name string, exemplar interface{}) *Type {
	vt := reflect.TypeOf(exemplar)
	if vt == nil {
		panic(fmt.Errorf("avium: box %s needs a typed exemplar", name))
	}
	data := reflect.StructOf([]reflect.StructField{{Name: "V", Type: vt}})
	cmp := vt.Comparable()
	return Declare(TypeSpec{
		Name: name,
		Base: BoxType,
		Data: reflect.Zero(data).Interface(),
		VTable: VTable{
			SlotToString: ToStringFn(func(vm *VM, self *Object) string {
				return fmt.Sprint(Unbox(self))
			}),
			SlotEquals: EqualsFn(func(vm *VM, self, other *Object) bool {
				if other == nil || other.typ != self.typ {
					return false
				}
				a, b := Unbox(self), Unbox(other)
				if cmp {
					return a == b
				}
				return reflect.DeepEqual(a, b)
			}),
		},
	})
}

// boxField returns the addressable V field of a box.
func boxField(o *Object) reflect.Value {
	if o == nil || !InheritsFrom(o.typ, BoxType) || o.Value == nil {
		Fatalf(PreconditionViolation, "%#v is not a box", o)
	}
	return reflect.ValueOf(o.Value).Elem().Field(0)
}

// Box creates a managed box of type t holding v. v must be assignable to the
// box's value type.
func (vm *VM) Box(t *Type, v interface{}) *Object {
	o := vm.Allocate(t)
	f := boxField(o)
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !rv.Type().AssignableTo(f.Type()) {
		Fatalf(PreconditionViolation, "cannot box %T in %s", v, t.name)
	}
	f.Set(rv)
	return o
}

// Unbox returns the value in a box.
func Unbox(o *Object) interface{} {
	o.Lock()
	defer o.Unlock()
	return boxField(o).Interface()
}

// NewInt boxes an int64.
func (vm *VM) NewInt(v int64) *Object {
	return vm.Box(IntType, v)
}

// NewFloat boxes a float64.
func (vm *VM) NewFloat(v float64) *Object {
	return vm.Box(FloatType, v)
}

// NewString boxes a string.
func (vm *VM) NewString(v string) *Object {
	return vm.Box(StringType, v)
}

// NewBool boxes a bool.
func (vm *VM) NewBool(v bool) *Object {
	return vm.Box(BoolType, v)
}

// AsInt returns the value of an Int box.
func AsInt(o *Object) (int64, bool) {
	if _, ok := Cast(o, IntType); !ok {
		return 0, false
	}
	return Unbox(o).(int64), true
}

// AsFloat returns the value of a Float box.
func AsFloat(o *Object) (float64, bool) {
	if _, ok := Cast(o, FloatType); !ok {
		return 0, false
	}
	return Unbox(o).(float64), true
}

// AsString returns the value of a String box.
func AsString(o *Object) (string, bool) {
	if _, ok := Cast(o, StringType); !ok {
		return "", false
	}
	return Unbox(o).(string), true
}

// AsBool returns the value of a Bool box.
func AsBool(o *Object) (bool, bool) {
	if _, ok := Cast(o, BoolType); !ok {
		return false, false
	}
	return Unbox(o).(bool), true
}
