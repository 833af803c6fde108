// Package list provides ArrayList, a collection of objects of one element
// type implementing the collection slots.
package list

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zephyrtronium/avium"
	"github.com/zephyrtronium/avium/internal"
)

// Interface lists the collection slots.
var Interface = &avium.Interface{
	Name: "Collection",
	Slots: []avium.Slot{
		avium.SlotLength,
		avium.SlotCapacity,
		avium.SlotInsert,
		avium.SlotRemove,
		avium.SlotItemAt,
		avium.SlotClear,
	},
}

// ArrayList is the data of an ArrayList object.
type ArrayList struct {
	// Elem is the type every item is a kind of.
	Elem  *avium.Type
	Items []*avium.Object
}

// ArrayListType is the type of array lists. Items are owned by the list:
// clearing or deleting the list finalizes them, and cloning it clones them.
var ArrayListType *avium.Type

func init() {
	ArrayListType = avium.Declare(avium.TypeSpec{
		Name: "ArrayList",
		Data: ArrayList{},
		VTable: avium.VTable{
			avium.SlotToString: avium.ToStringFn(listString),
			avium.SlotClone:    avium.CloneFn(listClone),
			avium.SlotEquals:   avium.EqualsFn(listEquals),
			avium.SlotLength: avium.LengthFn(func(vm *avium.VM, self *avium.Object) int64 {
				self.Lock()
				defer self.Unlock()
				return int64(len(listOf(self).Items))
			}),
			avium.SlotCapacity: avium.CapacityFn(func(vm *avium.VM, self *avium.Object) int {
				self.Lock()
				defer self.Unlock()
				return cap(listOf(self).Items)
			}),
			avium.SlotInsert: avium.InsertFn(listInsert),
			avium.SlotRemove: avium.RemoveFn(listRemove),
			avium.SlotItemAt: avium.ItemAtFn(func(vm *avium.VM, self *avium.Object, i int) (*avium.Object, error) {
				self.Lock()
				defer self.Unlock()
				l := listOf(self)
				if i < 0 || i >= len(l.Items) {
					return nil, errors.WithStack(&IndexError{Index: i, Len: len(l.Items)})
				}
				return l.Items[i], nil
			}),
			avium.SlotClear: avium.ClearFn(func(vm *avium.VM, self *avium.Object) {
				for _, item := range take(self) {
					vm.Finalize(item)
				}
			}),
		},
		Interfaces: []*avium.Interface{Interface},
	})
}

// IndexError is returned for an index outside a list.
type IndexError struct {
	Index, Len int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("list: index %d out of bounds for length %d", e.Index, e.Len)
}

// ElemTypeError is returned when inserting an item that is not a kind of the
// list's element type.
type ElemTypeError struct {
	Elem, Have *avium.Type
}

func (e *ElemTypeError) Error() string {
	return fmt.Sprintf("list: %v item in list of %v", e.Have, e.Elem)
}

// New creates a managed ArrayList of items of type elem with space reserved
// for capacity items.
func New(vm *avium.VM, elem *avium.Type, capacity int) *avium.Object {
	if elem == nil {
		internal.Fatalf(avium.NullSelf, "list of nil element type")
	}
	o := vm.Allocate(ArrayListType)
	l := o.Value.(*ArrayList)
	l.Elem = elem
	l.Items = make([]*avium.Object, 0, capacity)
	return o
}

// Append adds items to the end of the list.
func Append(vm *avium.VM, o *avium.Object, items ...*avium.Object) error {
	for _, item := range items {
		if err := vm.Insert(o, int(vm.Length(o)), item); err != nil {
			return err
		}
	}
	return nil
}

// Items returns a copy of the list's items.
func Items(o *avium.Object) []*avium.Object {
	o.Lock()
	defer o.Unlock()
	return append([]*avium.Object(nil), listOf(o).Items...)
}

// Elem returns the list's element type.
func Elem(o *avium.Object) *avium.Type {
	o.Lock()
	defer o.Unlock()
	return listOf(o).Elem
}

// Delete finalizes every item and then the list itself.
func Delete(vm *avium.VM, o *avium.Object) {
	vm.Clear(o)
	vm.Finalize(o)
}

func listOf(o *avium.Object) *ArrayList {
	l, ok := o.DataAs(ArrayListType).(*ArrayList)
	if !ok {
		internal.Fatalf(avium.PreconditionViolation, "%v is not an ArrayList", o.Type())
	}
	return l
}

// take empties the list and returns its former items.
func take(o *avium.Object) []*avium.Object {
	o.Lock()
	defer o.Unlock()
	l := listOf(o)
	items := l.Items
	l.Items = make([]*avium.Object, 0, cap(items))
	return items
}

func listInsert(vm *avium.VM, self *avium.Object, i int, item *avium.Object) error {
	self.Lock()
	defer self.Unlock()
	l := listOf(self)
	if !item.IsKindOf(l.Elem) {
		var have *avium.Type
		if item != nil {
			have = item.Type()
		}
		return errors.WithStack(&ElemTypeError{Elem: l.Elem, Have: have})
	}
	switch {
	case i < 0 || i > len(l.Items):
		return errors.WithStack(&IndexError{Index: i, Len: len(l.Items)})
	case i == len(l.Items):
		l.Items = append(l.Items, item)
	default:
		// Make space for the new item, then copy items after its new location
		// up a spot.
		l.Items = append(l.Items, nil)
		copy(l.Items[i+1:], l.Items[i:])
		l.Items[i] = item
	}
	return nil
}

func listRemove(vm *avium.VM, self *avium.Object, i int) (*avium.Object, error) {
	self.Lock()
	defer self.Unlock()
	l := listOf(self)
	if i < 0 || i >= len(l.Items) {
		return nil, errors.WithStack(&IndexError{Index: i, Len: len(l.Items)})
	}
	r := l.Items[i]
	copy(l.Items[i:], l.Items[i+1:])
	l.Items[len(l.Items)-1] = nil
	l.Items = l.Items[:len(l.Items)-1]
	return r, nil
}

func listString(vm *avium.VM, self *avium.Object) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range Items(self) {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(vm.ToString(item))
	}
	b.WriteByte(']')
	return b.String()
}

func listClone(vm *avium.VM, self *avium.Object) *avium.Object {
	items := Items(self)
	o := vm.Allocate(self.Type())
	l := listOf(o)
	l.Elem = Elem(self)
	l.Items = make([]*avium.Object, 0, len(items))
	for _, item := range items {
		l.Items = append(l.Items, vm.Clone(item))
	}
	return o
}

func listEquals(vm *avium.VM, self, other *avium.Object) bool {
	if other == nil || !other.IsKindOf(ArrayListType) {
		return false
	}
	if self == other {
		return true
	}
	a, b := Items(self), Items(other)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type() != b[i].Type() && !vm.Responds(a[i], avium.SlotEquals) {
			return false
		}
		if !vm.Equals(a[i], b[i]) {
			return false
		}
	}
	return true
}
