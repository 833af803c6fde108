package stream

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/zephyrtronium/avium"
	"github.com/zephyrtronium/avium/internal"
)

// File is the data of a FileStream.
type File struct {
	Stream
	File *os.File
	// Path is the path the file was opened with.
	Path string
}

func fileStreamSpec() avium.TypeSpec {
	return avium.TypeSpec{
		Name: "FileStream",
		Base: StreamType,
		Data: File{},
		VTable: avium.VTable{
			avium.SlotRead: avium.ReadFn(func(vm *avium.VM, self *avium.Object, p []byte) (int, error) {
				return fileOf(self).File.Read(p)
			}),
			avium.SlotWrite: avium.WriteFn(func(vm *avium.VM, self *avium.Object, p []byte) (int, error) {
				return fileOf(self).File.Write(p)
			}),
			avium.SlotSeek: avium.SeekFn(func(vm *avium.VM, self *avium.Object, offset int64, whence int) (int64, error) {
				return fileOf(self).File.Seek(offset, whence)
			}),
			avium.SlotFlush: avium.FlushFn(func(vm *avium.VM, self *avium.Object) error {
				return fileOf(self).File.Sync()
			}),
			avium.SlotLength:   avium.LengthFn(fileLength),
			avium.SlotPosition: avium.PositionFn(filePosition),
			avium.SlotClone: avium.CloneFn(func(vm *avium.VM, self *avium.Object) *avium.Object {
				vm.Raise("%s cannot be cloned", vm.ToString(self))
				panic("unreachable")
			}),
			avium.SlotEquals: avium.EqualsFn(func(vm *avium.VM, self, other *avium.Object) bool {
				return self == other
			}),
			avium.SlotFinalize: avium.FinalizeFn(func(self *avium.Object) {
				f := fileOf(self)
				if err := f.File.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
					logrus.WithFields(logrus.Fields{"function": "finalize", "path": f.Path}).Warn(err)
				}
			}),
		},
		Interfaces: []*avium.Interface{Interface},
	}
}

// OpenFile opens a file with os.OpenFile and wraps it in a managed
// FileStream.
func OpenFile(vm *avium.VM, path string, flag int, perm os.FileMode) (*avium.Object, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	o := vm.Allocate(FileStreamType)
	d := o.Value.(*File)
	d.Name = path
	d.File = f
	d.Path = path
	vm.Logger().WithFields(logrus.Fields{"function": "OpenFile", "path": path}).Trace("opened file")
	return o, nil
}

// Close closes a FileStream's file now instead of when the stream is
// reclaimed.
func Close(vm *avium.VM, o *avium.Object) error {
	f := fileOf(o)
	vm.Suppress(o)
	return errors.WithStack(f.File.Close())
}

func fileOf(o *avium.Object) *File {
	f, ok := o.DataAs(FileStreamType).(*File)
	if !ok || f.File == nil {
		internal.Fatalf(avium.PreconditionViolation, "%v is not an open FileStream", o.Type())
	}
	return f
}

func fileLength(vm *avium.VM, self *avium.Object) int64 {
	fi, err := fileOf(self).File.Stat()
	if err != nil {
		vm.ThrowError(err)
	}
	return fi.Size()
}

func filePosition(vm *avium.VM, self *avium.Object) int64 {
	n, err := fileOf(self).File.Seek(0, io.SeekCurrent)
	if err != nil {
		vm.ThrowError(err)
	}
	return n
}
