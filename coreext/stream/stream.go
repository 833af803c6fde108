// Package stream provides byte stream types implementing the stream slots:
// in-memory buffers and operating system files.
package stream

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/zephyrtronium/avium"
	"github.com/zephyrtronium/avium/internal"
)

// Interface lists the stream slots. Every concrete stream type implements it.
var Interface = &avium.Interface{
	Name: "Stream",
	Slots: []avium.Slot{
		avium.SlotRead,
		avium.SlotWrite,
		avium.SlotSeek,
		avium.SlotFlush,
		avium.SlotLength,
		avium.SlotPosition,
	},
}

// Stream is the data common to all streams.
type Stream struct {
	// Name describes the stream's origin for messages.
	Name string
}

// Memory is the data of a MemoryStream.
type Memory struct {
	Stream
	Buf []byte
	Pos int64
}

// Stream types. FileStreamType is declared here rather than in file.go so
// that its base is declared first.
var (
	// StreamType is the abstract base of stream types. It implements none of
	// the stream slots itself, so dispatching a stream operation on a bare
	// Stream is a missing capability.
	StreamType *avium.Type
	// MemoryStreamType is the type of streams over a byte buffer. Writes past
	// the end grow the buffer; seeking past the end is allowed and a later
	// write fills the gap with zeros.
	MemoryStreamType *avium.Type
	// FileStreamType is the type of streams over operating system files.
	// Reclaiming a FileStream closes its file.
	FileStreamType *avium.Type
)

func init() {
	StreamType = avium.Declare(avium.TypeSpec{
		Name: "Stream",
		Data: Stream{},
		VTable: avium.VTable{
			avium.SlotToString: avium.ToStringFn(func(vm *avium.VM, self *avium.Object) string {
				return fmt.Sprintf("%s(%s)", self.Type().Name(), self.DataAs(StreamType).(*Stream).Name)
			}),
		},
		Enum: []avium.EnumConstant{
			{Name: "SeekStart", Value: io.SeekStart},
			{Name: "SeekCurrent", Value: io.SeekCurrent},
			{Name: "SeekEnd", Value: io.SeekEnd},
		},
	})
	MemoryStreamType = avium.Declare(avium.TypeSpec{
		Name: "MemoryStream",
		Base: StreamType,
		Data: Memory{},
		VTable: avium.VTable{
			avium.SlotRead:     avium.ReadFn(memRead),
			avium.SlotWrite:    avium.WriteFn(memWrite),
			avium.SlotSeek:     avium.SeekFn(memSeek),
			avium.SlotFlush:    avium.FlushFn(func(*avium.VM, *avium.Object) error { return nil }),
			avium.SlotLength:   avium.LengthFn(memLength),
			avium.SlotPosition: avium.PositionFn(memPosition),
			avium.SlotClone:    avium.CloneFn(memClone),
			avium.SlotEquals:   avium.EqualsFn(memEquals),
		},
		Interfaces: []*avium.Interface{Interface},
	})
	FileStreamType = avium.Declare(fileStreamSpec())
}

// NewMemory creates a managed MemoryStream holding a copy of b, positioned
// at the start.
func NewMemory(vm *avium.VM, b []byte) *avium.Object {
	o := vm.Allocate(MemoryStreamType)
	m := o.Value.(*Memory)
	m.Name = "memory"
	m.Buf = append([]byte(nil), b...)
	return o
}

// Bytes returns a copy of a MemoryStream's contents.
func Bytes(o *avium.Object) []byte {
	m := memOf(o)
	o.Lock()
	defer o.Unlock()
	return append([]byte(nil), m.Buf...)
}

func memOf(o *avium.Object) *Memory {
	m, ok := o.DataAs(MemoryStreamType).(*Memory)
	if !ok {
		internal.Fatalf(avium.PreconditionViolation, "%v is not a MemoryStream", o.Type())
	}
	return m
}

func memRead(vm *avium.VM, self *avium.Object, p []byte) (int, error) {
	m := memOf(self)
	self.Lock()
	defer self.Unlock()
	if m.Pos >= int64(len(m.Buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.Buf[m.Pos:])
	m.Pos += int64(n)
	return n, nil
}

func memWrite(vm *avium.VM, self *avium.Object, p []byte) (int, error) {
	m := memOf(self)
	self.Lock()
	defer self.Unlock()
	end := m.Pos + int64(len(p))
	if end > int64(len(m.Buf)) {
		if end > int64(cap(m.Buf)) {
			b := make([]byte, end, 2*end)
			copy(b, m.Buf)
			m.Buf = b
		} else {
			m.Buf = m.Buf[:end]
		}
	}
	copy(m.Buf[m.Pos:], p)
	m.Pos = end
	return len(p), nil
}

func memSeek(vm *avium.VM, self *avium.Object, offset int64, whence int) (int64, error) {
	m := memOf(self)
	self.Lock()
	defer self.Unlock()
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.Pos + offset
	case io.SeekEnd:
		abs = int64(len(m.Buf)) + offset
	default:
		return m.Pos, errors.Errorf("memory stream: invalid whence %d", whence)
	}
	if abs < 0 {
		return m.Pos, errors.Errorf("memory stream: negative position %d", abs)
	}
	m.Pos = abs
	return abs, nil
}

func memLength(vm *avium.VM, self *avium.Object) int64 {
	m := memOf(self)
	self.Lock()
	defer self.Unlock()
	return int64(len(m.Buf))
}

func memPosition(vm *avium.VM, self *avium.Object) int64 {
	m := memOf(self)
	self.Lock()
	defer self.Unlock()
	return m.Pos
}

func memClone(vm *avium.VM, self *avium.Object) *avium.Object {
	m := memOf(self)
	self.Lock()
	defer self.Unlock()
	o := vm.Allocate(self.Type())
	c := o.DataAs(MemoryStreamType).(*Memory)
	c.Name = m.Name
	c.Buf = append([]byte(nil), m.Buf...)
	c.Pos = m.Pos
	return o
}

// memEquals compares contents. Positions do not matter.
func memEquals(vm *avium.VM, self, other *avium.Object) bool {
	if other == nil || !other.IsKindOf(MemoryStreamType) {
		return false
	}
	return self == other || bytes.Equal(Bytes(self), Bytes(other))
}
