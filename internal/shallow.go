package internal

import (
	"bytes"
	"reflect"
	"unsafe"
)

// dataBytes views an object's instance data as raw memory.
func dataBytes(o *Object) []byte {
	if o.Value == nil || o.typ.size == 0 {
		return nil
	}
	p := unsafe.Pointer(reflect.ValueOf(o.Value).Pointer())
	return unsafe.Slice((*byte)(p), int(o.typ.size))
}

// shallowEqual compares two objects of the same type byte for byte.
func shallowEqual(a, b *Object) bool {
	if a == b {
		return true
	}
	// Lock in ID order so concurrent comparisons cannot deadlock.
	x, y := a, b
	if x.id > y.id {
		x, y = y, x
	}
	x.Lock()
	defer x.Unlock()
	y.Lock()
	defer y.Unlock()
	return bytes.Equal(dataBytes(a), dataBytes(b))
}

// shallowCopy copies src's data into dst, which must have the same type.
// Pointers, slices, maps, and strings in the data are shared, not cloned.
func shallowCopy(dst, src *Object) {
	if src.Value == nil {
		return
	}
	src.Lock()
	reflect.ValueOf(dst.Value).Elem().Set(reflect.ValueOf(src.Value).Elem())
	src.Unlock()
}
