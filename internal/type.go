package internal

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/zephyrtronium/contains"
)

// Type is the static descriptor of an object type: its name, instance size,
// virtual-function table, and base type, plus optional member, interface, and
// enum-constant tables. Types are created once with Declare and are
// immutable afterward.
type Type struct {
	name string
	size uint64
	base *Type
	// vtable is indexed by Slot. Entries past its end are nil.
	vtable []Virtual
	// data is the struct type of instance data, or nil if instances carry
	// none.
	data    reflect.Type
	members []Member
	ifaces  []*Interface
	enum    []EnumConstant
	depth   int
	id      uintptr
}

// TypeSpec is the declaration of a type.
type TypeSpec struct {
	// Name is the unique name of the type.
	Name string
	// Base is the type's base. If nil, the base is ObjectType.
	Base *Type
	// Data is an exemplar of the instance data, normally the zero value of a
	// struct type. If the base type has data, the struct's first field must
	// embed the base's data struct. Nil means instances have no data.
	Data interface{}
	// VTable holds the slots this type implements itself.
	VTable VTable
	// Interfaces lists interfaces the type claims to implement. Every slot
	// of each interface must resolve on the new type.
	Interfaces []*Interface
	// Enum lists named integer constants belonging to the type.
	Enum []EnumConstant
}

// Member describes one field of a type's instance data.
type Member struct {
	Name   string `yaml:"name" cbor:"name"`
	Type   string `yaml:"type" cbor:"type"`
	Offset uint64 `yaml:"offset" cbor:"offset"`
	Size   uint64 `yaml:"size" cbor:"size"`

	index []int
	owner *Type
}

// Interface is a named set of slots.
type Interface struct {
	Name  string
	Slots []Slot
}

// EnumConstant is a named integer constant.
type EnumConstant struct {
	Name  string `yaml:"name" cbor:"name"`
	Value int64  `yaml:"value" cbor:"value"`
}

// typeRegistry holds every declared type by name.
var typeRegistry = struct {
	sync.RWMutex
	byName map[string]*Type
}{byName: make(map[string]*Type)}

// typecounter is the source of type IDs. All accesses must be atomic.
var typecounter uintptr

// ObjectType is the root type. Its only slot is toString, which produces the
// generic Name_0xID form used for every object without a better one.
var ObjectType = declareRoot()

func declareRoot() *Type {
	t := &Type{
		name:   "Object",
		vtable: []Virtual{SlotToString: ToStringFn(objectToString)},
		id:     atomic.AddUintptr(&typecounter, 1),
	}
	register(t)
	return t
}

// objectToString is the root toString.
func objectToString(vm *VM, self *Object) string {
	return fmt.Sprintf("%s_%#x", self.Type().Name(), self.UniqueID())
}

// Declare creates and registers a new type. Panics if the declaration is
// invalid: the name is empty or taken, a vtable entry has the wrong
// signature, the data layout does not embed the base's data, or an interface
// is claimed but not implemented.
func Declare(spec TypeSpec) *Type {
	if spec.Name == "" {
		panic(fmt.Errorf("avium: type declared without a name"))
	}
	base := spec.Base
	if base == nil {
		base = ObjectType
	}
	t := &Type{
		name:  spec.Name,
		base:  base,
		depth: base.depth + 1,
		enum:  append([]EnumConstant(nil), spec.Enum...),
		id:    atomic.AddUintptr(&typecounter, 1),
	}
	for s, v := range spec.VTable {
		present, err := checkSignature(s, v)
		if err != nil {
			panic(fmt.Errorf("avium: declaring %s: %w", spec.Name, err))
		}
		if !present {
			continue
		}
		for int(s) >= len(t.vtable) {
			t.vtable = append(t.vtable, nil)
		}
		t.vtable[s] = v
	}
	if err := t.setData(spec.Data); err != nil {
		panic(fmt.Errorf("avium: declaring %s: %w", spec.Name, err))
	}
	if err := t.checkChain(); err != nil {
		panic(fmt.Errorf("avium: declaring %s: %w", spec.Name, err))
	}
	for _, iface := range spec.Interfaces {
		for _, s := range iface.Slots {
			if _, _, err := t.Resolve(s); err != nil {
				panic(fmt.Errorf("avium: %s claims %s but does not implement %v", spec.Name, iface.Name, s))
			}
		}
		t.ifaces = append(t.ifaces, iface)
	}
	register(t)
	return t
}

// setData computes the size and member table of the type from its data
// exemplar and checks the layout against the base.
func (t *Type) setData(exemplar interface{}) error {
	if exemplar == nil {
		if t.base.data != nil {
			return fmt.Errorf("base %s has data but %s has none", t.base.name, t.name)
		}
		return nil
	}
	dt := reflect.TypeOf(exemplar)
	if dt.Kind() != reflect.Struct {
		return fmt.Errorf("data must be a struct, not %v", dt)
	}
	if bd := t.base.data; bd != nil {
		if dt.NumField() == 0 || !dt.Field(0).Anonymous || dt.Field(0).Type != bd {
			return fmt.Errorf("data %v must embed %v as its first field", dt, bd)
		}
	}
	t.data = dt
	t.size = uint64(dt.Size())
	for _, f := range reflect.VisibleFields(dt) {
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			continue
		}
		var off uintptr
		cur := dt
		for _, i := range f.Index {
			sf := cur.Field(i)
			off += sf.Offset
			cur = sf.Type
		}
		t.members = append(t.members, Member{
			Name:   f.Name,
			Type:   f.Type.String(),
			Offset: uint64(off),
			Size:   uint64(f.Type.Size()),
			index:  f.Index,
			owner:  t,
		})
	}
	return nil
}

// checkChain verifies that walking the base chain reaches the root without
// revisiting a type.
func (t *Type) checkChain() error {
	set := contains.Set{}
	for c := t; c != nil; c = c.base {
		if !set.Add(c.id) {
			return fmt.Errorf("base chain of %s revisits %s", t.name, c.name)
		}
		if c.base == nil && c != ObjectType {
			return fmt.Errorf("base chain of %s ends at %s, not %s", t.name, c.name, ObjectType.name)
		}
	}
	return nil
}

func register(t *Type) {
	typeRegistry.Lock()
	defer typeRegistry.Unlock()
	if _, ok := typeRegistry.byName[t.name]; ok {
		panic(fmt.Errorf("avium: type %s declared twice", t.name))
	}
	typeRegistry.byName[t.name] = t
}

// TypeByName finds a declared type.
func TypeByName(name string) (*Type, bool) {
	typeRegistry.RLock()
	defer typeRegistry.RUnlock()
	t, ok := typeRegistry.byName[name]
	return t, ok
}

// Types returns all declared types sorted by name.
func Types() []*Type {
	typeRegistry.RLock()
	r := make([]*Type, 0, len(typeRegistry.byName))
	for _, t := range typeRegistry.byName {
		r = append(r, t)
	}
	typeRegistry.RUnlock()
	sort.Slice(r, func(i, j int) bool { return r[i].name < r[j].name })
	return r
}

// Name returns the type's name.
func (t *Type) Name() string {
	return t.name
}

// String returns the type's name.
func (t *Type) String() string {
	return t.name
}

// Size returns the size in bytes of the type's instance data.
func (t *Type) Size() uint64 {
	return t.size
}

// Base returns the type's base, or nil for the root.
func (t *Type) Base() *Type {
	return t.base
}

// Depth returns the number of steps from the type to the root.
func (t *Type) Depth() int {
	return t.depth
}

// DataType returns the struct type of instance data, or nil.
func (t *Type) DataType() reflect.Type {
	return t.data
}

// Own returns the callback the type itself puts in slot s, without looking
// at its bases.
func (t *Type) Own(s Slot) Virtual {
	if s < 0 || int(s) >= len(t.vtable) {
		return nil
	}
	return t.vtable[s]
}

// Members returns the member table, including members inherited from bases.
func (t *Type) Members() []Member {
	return append([]Member(nil), t.members...)
}

// EnumConstants returns the type's own enum constants.
func (t *Type) EnumConstants() []EnumConstant {
	return append([]EnumConstant(nil), t.enum...)
}

// Description is a serializable summary of a type.
type Description struct {
	Name       string            `yaml:"name" cbor:"name"`
	Size       uint64            `yaml:"size" cbor:"size"`
	Base       string            `yaml:"base,omitempty" cbor:"base,omitempty"`
	Depth      int               `yaml:"depth" cbor:"depth"`
	Slots      []SlotDescription `yaml:"slots,omitempty" cbor:"slots,omitempty"`
	Members    []Member          `yaml:"members,omitempty" cbor:"members,omitempty"`
	Interfaces []string          `yaml:"interfaces,omitempty" cbor:"interfaces,omitempty"`
	Enum       []EnumConstant    `yaml:"enum,omitempty" cbor:"enum,omitempty"`
}

// SlotDescription names a slot that resolves on a type and the type that
// provides it.
type SlotDescription struct {
	Slot  string `yaml:"slot" cbor:"slot"`
	Owner string `yaml:"owner" cbor:"owner"`
}

// Describe summarizes the type.
func (t *Type) Describe() Description {
	d := Description{
		Name:  t.name,
		Size:  t.size,
		Depth: t.depth,
		Enum:  t.EnumConstants(),
	}
	for _, m := range t.members {
		m.index, m.owner = nil, nil
		d.Members = append(d.Members, m)
	}
	if t.base != nil {
		d.Base = t.base.name
	}
	for s, n := Slot(0), Slot(NumSlots()); s < n; s++ {
		if _, owner, err := t.Resolve(s); err == nil {
			d.Slots = append(d.Slots, SlotDescription{Slot: s.String(), Owner: owner.name})
		}
	}
	for c := t; c != nil; c = c.base {
		for _, iface := range c.ifaces {
			d.Interfaces = append(d.Interfaces, iface.Name)
		}
	}
	return d
}
