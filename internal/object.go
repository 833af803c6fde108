package internal

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Object is an instance of a declared type. Every object carries its type tag,
// set once when the object is allocated, and a pointer to its instance data.
//
// Always use VM.Allocate, VM.Local, or a type-specific constructor to obtain
// new objects. Creating objects directly will result in arbitrary failures.
type Object struct {
	// Mutex is a lock which must be held when accessing the value of the
	// object if it is or may be mutable.
	sync.Mutex
	// Value is a pointer to the object's instance data, a value of the
	// type's data struct. It is nil if the type has no data.
	Value interface{}
	// typ is the object's type tag.
	typ *Type

	// id is the object's unique ID.
	id uintptr
	// managed is true for objects obtained from the managed heap.
	managed bool
	// fin is the finalization state. All accesses must be atomic.
	fin uint32
}

// Finalization states.
const (
	finPending uint32 = iota
	finDone
	finSuppressed
)

// objcounter is the global counter for object IDs. All accesses to this must
// be atomic.
var objcounter uintptr

// nextObject increments the object counter and returns its value as a unique
// ID for a new object.
func nextObject() uintptr {
	return atomic.AddUintptr(&objcounter, 1)
}

// newObject creates an object of type t with zeroed instance data.
func newObject(t *Type, managed bool) *Object {
	o := &Object{typ: t, id: nextObject(), managed: managed}
	if t.data != nil {
		o.Value = reflect.New(t.data).Interface()
	}
	return o
}

// Type returns the object's type tag.
func (o *Object) Type() *Type {
	return o.typ
}

// UniqueID returns the object's unique ID.
func (o *Object) UniqueID() uintptr {
	return o.id
}

// IsKindOf returns true if the object's type is t or inherits from t.
func (o *Object) IsKindOf(t *Type) bool {
	if o == nil {
		return false
	}
	return InheritsFrom(o.typ, t)
}

// DataAs returns a pointer to the part of the object's instance data that
// belongs to type t, which must be the object's type or one of its bases.
// Because derived data embeds base data as its first field, the result is
// the same memory viewed as the base's data struct. Returns nil if t has no
// data or the object is not a kind of t.
func (o *Object) DataAs(t *Type) interface{} {
	if o.Value == nil || t.data == nil || !o.IsKindOf(t) {
		return nil
	}
	p := unsafe.Pointer(reflect.ValueOf(o.Value).Pointer())
	return reflect.NewAt(t.data, p).Interface()
}

// MemberValue returns the addressable field of the object's data described
// by m, which must come from the object's type or one of its bases.
func (o *Object) MemberValue(m Member) reflect.Value {
	var d interface{}
	if m.owner != nil {
		d = o.DataAs(m.owner)
	}
	if d == nil {
		Fatalf(PreconditionViolation, "%s has no member %s", o.typ.name, m.Name)
	}
	return reflect.ValueOf(d).Elem().FieldByIndex(m.index)
}

// GoString returns a debugging representation of the object.
func (o *Object) GoString() string {
	if o == nil {
		return "(*Object)(nil)"
	}
	return fmt.Sprintf("%s_%#x@%p", o.typ.name, o.id, o)
}
