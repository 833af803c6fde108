package stream

import (
	"io"
	"io/ioutil"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"github.com/zephyrtronium/avium"
)

// adapter makes a stream object usable as a Go io.ReadWriteSeeker. Every
// call dispatches through the object's slots.
type adapter struct {
	vm *avium.VM
	o  *avium.Object
}

// Adapt returns an io.ReadWriteSeeker over any object implementing the
// stream slots. Using the result with an object that lacks one of the slots
// is a fatal missing capability.
func Adapt(vm *avium.VM, o *avium.Object) io.ReadWriteSeeker {
	return adapter{vm: vm, o: o}
}

func (a adapter) Read(p []byte) (int, error) {
	return a.vm.Read(a.o, p)
}

func (a adapter) Write(p []byte) (int, error) {
	return a.vm.Write(a.o, p)
}

func (a adapter) Seek(offset int64, whence int) (int64, error) {
	return a.vm.Seek(a.o, offset, whence)
}

// encodings maps text encoding names to their codecs. Text is always UTF-8
// on the Go side.
var encodings = map[string]encoding.Encoding{
	"utf8":    encoding.Nop,
	"ascii":   charmap.Windows1252,
	"latin1":  charmap.Windows1252,
	"utf16":   unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf16be": unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"utf32":   utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"utf32be": utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
}

// Encodings returns the names of the supported text encodings.
func Encodings() []string {
	r := make([]string, 0, len(encodings))
	for name := range encodings {
		r = append(r, name)
	}
	sort.Strings(r)
	return r
}

func lookup(name string) (encoding.Encoding, error) {
	e, ok := encodings[name]
	if !ok {
		return nil, errors.Errorf("unsupported text encoding %q", name)
	}
	return e, nil
}

// WriteText encodes s and writes it to a stream at its current position. It
// returns the number of encoded bytes written.
func WriteText(vm *avium.VM, o *avium.Object, s string, enc string) (int, error) {
	e, err := lookup(enc)
	if err != nil {
		return 0, err
	}
	b, err := e.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return 0, errors.Wrapf(err, "encoding text as %s", enc)
	}
	n, err := vm.Write(o, b)
	return n, errors.WithStack(err)
}

// ReadText reads a stream from its current position to the end and decodes
// the bytes as text.
func ReadText(vm *avium.VM, o *avium.Object, enc string) (string, error) {
	e, err := lookup(enc)
	if err != nil {
		return "", err
	}
	r := transform.NewReader(Adapt(vm, o), e.NewDecoder())
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return "", errors.Wrapf(err, "decoding text as %s", enc)
	}
	return string(b), nil
}
