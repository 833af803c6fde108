package internal

import (
	"fmt"
)

// MissingCapabilityError is returned when a slot does not resolve on a type.
// At is always the root type, since resolution fails only after the whole
// base chain has been searched.
type MissingCapabilityError struct {
	Slot Slot
	Type *Type
	At   *Type
}

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("avium: %s does not implement %v (searched to %s)", e.Type.name, e.Slot, e.At.name)
}

// Resolve finds the callback for slot s by checking t's vtable, then its
// base's, and so on to the root. It returns the callback along with the type
// that provides it.
func (t *Type) Resolve(s Slot) (Virtual, *Type, error) {
	c := t
	for {
		if v := c.Own(s); v != nil {
			return v, c, nil
		}
		if c.base == nil {
			return nil, nil, &MissingCapabilityError{Slot: s, Type: t, At: c}
		}
		c = c.base
	}
}

// resolution is a cached result of Type.Resolve.
type resolution struct {
	v     Virtual
	owner *Type
	err   error
}

// dispatchKey is the dispatch cache key.
type dispatchKey struct {
	t *Type
	s Slot
}

// Resolve is Type.Resolve memoized in the VM's dispatch cache.
func (vm *VM) Resolve(t *Type, s Slot) (Virtual, *Type, error) {
	if vm.cache == nil {
		return t.Resolve(s)
	}
	k := dispatchKey{t, s}
	if r, ok := vm.cache.Get(k); ok {
		r := r.(resolution)
		return r.v, r.owner, r.err
	}
	v, owner, err := t.Resolve(s)
	vm.cache.Add(k, resolution{v, owner, err})
	return v, owner, err
}

// Responds returns true if slot s resolves on the object's type.
func (vm *VM) Responds(o *Object, s Slot) bool {
	if o == nil {
		return false
	}
	_, _, err := vm.Resolve(o.typ, s)
	return err == nil
}

// require resolves a slot that the caller cannot do without. A missing slot
// is fatal.
func (vm *VM) require(o *Object, s Slot) Virtual {
	if o == nil {
		Fatalf(NullSelf, "%v on nil object", s)
	}
	v, _, err := vm.Resolve(o.typ, s)
	if err != nil {
		panic(&FatalError{Kind: MissingCapability, Message: err.Error(), Where: Caller(3)})
	}
	return v
}

// optional resolves a slot that has a default. The result is nil if the
// slot resolves nowhere.
func (vm *VM) optional(o *Object, s Slot) Virtual {
	v, _, err := vm.Resolve(o.typ, s)
	if err != nil {
		return nil
	}
	return v
}

// ToString returns the string form of an object. Every object has one, since
// the root type implements toString.
func (vm *VM) ToString(o *Object) string {
	if o == nil {
		return "nil"
	}
	return vm.require(o, SlotToString).(ToStringFn)(vm, o)
}

// Equals compares two objects with the receiver's equals slot. Without one,
// the objects' data are compared byte for byte, which requires both to have
// the same type.
func (vm *VM) Equals(self, other *Object) bool {
	if self == nil {
		Fatalf(NullSelf, "equals on nil object")
	}
	if f := vm.optional(self, SlotEquals); f != nil {
		return f.(EqualsFn)(vm, self, other)
	}
	if other == nil {
		return false
	}
	if self.typ != other.typ {
		Fatalf(PreconditionViolation, "bytewise equals between %s and %s", self.typ.name, other.typ.name)
	}
	return shallowEqual(self, other)
}

// Clone copies an object with its clone slot. Without one, the clone is a
// new managed object whose data is a shallow copy of the original's.
func (vm *VM) Clone(o *Object) *Object {
	if o == nil {
		Fatalf(NullSelf, "clone of nil object")
	}
	if f := vm.optional(o, SlotClone); f != nil {
		return f.(CloneFn)(vm, o)
	}
	r := vm.Allocate(o.typ)
	shallowCopy(r, o)
	return r
}

// Invoke calls a slot created by NewSlot.
func (vm *VM) Invoke(o *Object, s Slot, args ...*Object) *Object {
	if !s.Custom() {
		Fatalf(PreconditionViolation, "Invoke of core slot %v", s)
	}
	return vm.require(o, s).(Fn)(vm, o, args...)
}

// Read reads from a stream.
func (vm *VM) Read(o *Object, p []byte) (int, error) {
	return vm.require(o, SlotRead).(ReadFn)(vm, o, p)
}

// Write writes to a stream.
func (vm *VM) Write(o *Object, p []byte) (int, error) {
	return vm.require(o, SlotWrite).(WriteFn)(vm, o, p)
}

// Seek sets a stream's position.
func (vm *VM) Seek(o *Object, offset int64, whence int) (int64, error) {
	return vm.require(o, SlotSeek).(SeekFn)(vm, o, offset, whence)
}

// Flush commits a stream's buffered writes.
func (vm *VM) Flush(o *Object) error {
	return vm.require(o, SlotFlush).(FlushFn)(vm, o)
}

// Length returns a stream's size or a collection's item count.
func (vm *VM) Length(o *Object) int64 {
	return vm.require(o, SlotLength).(LengthFn)(vm, o)
}

// Position returns a stream's current offset.
func (vm *VM) Position(o *Object) int64 {
	return vm.require(o, SlotPosition).(PositionFn)(vm, o)
}

// Capacity returns a collection's capacity.
func (vm *VM) Capacity(o *Object) int {
	return vm.require(o, SlotCapacity).(CapacityFn)(vm, o)
}

// Insert adds an item to a collection before index i.
func (vm *VM) Insert(o *Object, i int, item *Object) error {
	return vm.require(o, SlotInsert).(InsertFn)(vm, o, i, item)
}

// Remove removes and returns a collection's item at index i.
func (vm *VM) Remove(o *Object, i int) (*Object, error) {
	return vm.require(o, SlotRemove).(RemoveFn)(vm, o, i)
}

// ItemAt returns a collection's item at index i.
func (vm *VM) ItemAt(o *Object, i int) (*Object, error) {
	return vm.require(o, SlotItemAt).(ItemAtFn)(vm, o, i)
}

// Clear removes every item from a collection.
func (vm *VM) Clear(o *Object) {
	vm.require(o, SlotClear).(ClearFn)(vm, o)
}
