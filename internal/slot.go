package internal

import (
	"fmt"
	"reflect"
	"sync"
)

// Slot is an index into a type's virtual-function table. Each slot names one
// capability and has one fixed callback signature.
type Slot int

// Core slots. Length is shared by streams and collections.
const (
	SlotFinalize Slot = iota
	SlotToString
	SlotClone
	SlotEquals

	SlotRead
	SlotWrite
	SlotSeek
	SlotFlush
	SlotLength
	SlotPosition

	SlotCapacity
	SlotInsert
	SlotRemove
	SlotItemAt
	SlotClear

	// numCoreSlots is the index of the first slot created by NewSlot.
	numCoreSlots
)

// Virtual is a callback stored in a vtable. Its dynamic type is always the
// function type of the slot it occupies.
type Virtual interface{}

// Callback signatures, one per core slot.
type (
	// FinalizeFn runs deterministic cleanup before an object is reclaimed. It
	// may run on the collector's goroutine, so it receives no VM.
	FinalizeFn func(self *Object)
	// ToStringFn produces the string form of an object.
	ToStringFn func(vm *VM, self *Object) string
	// CloneFn produces a managed copy of an object.
	CloneFn func(vm *VM, self *Object) *Object
	// EqualsFn compares two objects.
	EqualsFn func(vm *VM, self, other *Object) bool

	// ReadFn reads into p like io.Reader.
	ReadFn func(vm *VM, self *Object, p []byte) (int, error)
	// WriteFn writes p like io.Writer.
	WriteFn func(vm *VM, self *Object, p []byte) (int, error)
	// SeekFn moves the position like io.Seeker.
	SeekFn func(vm *VM, self *Object, offset int64, whence int) (int64, error)
	// FlushFn commits buffered writes.
	FlushFn func(vm *VM, self *Object) error
	// LengthFn reports a stream's size in bytes or a collection's count.
	LengthFn func(vm *VM, self *Object) int64
	// PositionFn reports a stream's current offset.
	PositionFn func(vm *VM, self *Object) int64

	// CapacityFn reports a collection's capacity.
	CapacityFn func(vm *VM, self *Object) int
	// InsertFn inserts item before index i.
	InsertFn func(vm *VM, self *Object, i int, item *Object) error
	// RemoveFn removes and returns the item at index i.
	RemoveFn func(vm *VM, self *Object, i int) (*Object, error)
	// ItemAtFn returns the item at index i.
	ItemAtFn func(vm *VM, self *Object, i int) (*Object, error)
	// ClearFn removes every item.
	ClearFn func(vm *VM, self *Object)
)

// An Fn is the callback type of every slot created by NewSlot.
type Fn func(vm *VM, self *Object, args ...*Object) *Object

// slotInfo is the registry entry for one slot.
type slotInfo struct {
	name string
	sig  reflect.Type
}

var slotTable = struct {
	sync.RWMutex
	info []slotInfo
}{
	info: []slotInfo{
		SlotFinalize: {"finalize", reflect.TypeOf(FinalizeFn(nil))},
		SlotToString: {"toString", reflect.TypeOf(ToStringFn(nil))},
		SlotClone:    {"clone", reflect.TypeOf(CloneFn(nil))},
		SlotEquals:   {"equals", reflect.TypeOf(EqualsFn(nil))},
		SlotRead:     {"read", reflect.TypeOf(ReadFn(nil))},
		SlotWrite:    {"write", reflect.TypeOf(WriteFn(nil))},
		SlotSeek:     {"seek", reflect.TypeOf(SeekFn(nil))},
		SlotFlush:    {"flush", reflect.TypeOf(FlushFn(nil))},
		SlotLength:   {"length", reflect.TypeOf(LengthFn(nil))},
		SlotPosition: {"position", reflect.TypeOf(PositionFn(nil))},
		SlotCapacity: {"capacity", reflect.TypeOf(CapacityFn(nil))},
		SlotInsert:   {"insert", reflect.TypeOf(InsertFn(nil))},
		SlotRemove:   {"remove", reflect.TypeOf(RemoveFn(nil))},
		SlotItemAt:   {"itemAt", reflect.TypeOf(ItemAtFn(nil))},
		SlotClear:    {"clear", reflect.TypeOf(ClearFn(nil))},
	},
}

// NewSlot creates a new slot with the given name. Callbacks for the slot must
// be Fns. Panics if a slot with the same name already exists. NewSlot should
// be called from package-level variable declarations so that slot indices are
// fixed before any type is declared.
func NewSlot(name string) Slot {
	slotTable.Lock()
	defer slotTable.Unlock()
	for _, s := range slotTable.info {
		if s.name == name {
			panic(fmt.Errorf("avium: slot %q already exists", name))
		}
	}
	slotTable.info = append(slotTable.info, slotInfo{name: name, sig: reflect.TypeOf(Fn(nil))})
	return Slot(len(slotTable.info) - 1)
}

// SlotByName finds a slot by its name.
func SlotByName(name string) (Slot, bool) {
	slotTable.RLock()
	defer slotTable.RUnlock()
	for i, s := range slotTable.info {
		if s.name == name {
			return Slot(i), true
		}
	}
	return -1, false
}

// NumSlots returns the number of slots that currently exist.
func NumSlots() int {
	slotTable.RLock()
	defer slotTable.RUnlock()
	return len(slotTable.info)
}

// String returns the slot's name.
func (s Slot) String() string {
	slotTable.RLock()
	defer slotTable.RUnlock()
	if s < 0 || int(s) >= len(slotTable.info) {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotTable.info[s].name
}

// Custom reports whether the slot was created by NewSlot.
func (s Slot) Custom() bool {
	return s >= numCoreSlots
}

// signature returns the required callback type for the slot, or nil if the
// slot does not exist.
func (s Slot) signature() reflect.Type {
	slotTable.RLock()
	defer slotTable.RUnlock()
	if s < 0 || int(s) >= len(slotTable.info) {
		return nil
	}
	return slotTable.info[s].sig
}

// VTable maps slots to callbacks for a type declaration. Missing or nil
// entries mean the type does not implement that slot itself.
type VTable map[Slot]Virtual

// checkSignature returns an error if v cannot occupy slot s. present is false
// if v is nil or a nil function of the right type.
func checkSignature(s Slot, v Virtual) (present bool, err error) {
	sig := s.signature()
	if sig == nil {
		return false, fmt.Errorf("no slot %v", s)
	}
	if v == nil {
		return false, nil
	}
	if t := reflect.TypeOf(v); t != sig {
		return false, fmt.Errorf("slot %v needs %v, not %v", s, sig, t)
	}
	return !reflect.ValueOf(v).IsNil(), nil
}
