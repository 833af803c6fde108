package internal

import (
	"fmt"

	"github.com/pkg/errors"
)

// Exception is the data of an Exception object.
type Exception struct {
	Message string
}

func (e *Exception) exception() *Exception { return e }

// exceptionData returns the Exception data of an object whose data embeds
// Exception, as every kind of Exception does.
func exceptionData(o *Object) *Exception {
	d, ok := o.Value.(interface{ exception() *Exception })
	if !ok {
		return nil
	}
	return d.exception()
}

// Error is the data of an Error object, an exception wrapping a Go error.
type Error struct {
	Exception
	Err error
}

// ExceptionType is the base type of thrown conditions carrying a message.
var ExceptionType = Declare(TypeSpec{
	Name: "Exception",
	Data: Exception{},
	VTable: VTable{
		SlotToString: ToStringFn(func(vm *VM, self *Object) string {
			msg := ""
			if d := exceptionData(self); d != nil {
				msg = d.Message
			}
			return self.Type().Name() + ": " + msg
		}),
	},
})

// ErrorType is the type of exceptions wrapping Go errors.
var ErrorType = Declare(TypeSpec{
	Name: "Error",
	Base: ExceptionType,
	Data: Error{},
})

// NewException creates a managed Exception with the given message.
func (vm *VM) NewException(msg string) *Object {
	o := vm.Allocate(ExceptionType)
	o.Value.(*Exception).Message = msg
	return o
}

// NewError creates a managed Error wrapping err. If err has no stack trace,
// one is attached at the caller.
func (vm *VM) NewError(err error) *Object {
	if err == nil {
		Fatalf(NullSelf, "NewError of nil error")
	}
	var st interface{ StackTrace() errors.StackTrace }
	if !errors.As(err, &st) {
		err = errors.WithStack(err)
	}
	o := vm.Allocate(ErrorType)
	e := o.Value.(*Error)
	e.Message = err.Error()
	e.Err = err
	return o
}

// Raise throws a new Exception with a formatted message. Raise does not
// return.
func (vm *VM) Raise(format string, args ...interface{}) {
	vm.ThrowAt(vm.NewException(fmt.Sprintf(format, args...)), Caller(2))
}

// ThrowError throws err as an Error. ThrowError does not return.
func (vm *VM) ThrowError(err error) {
	vm.ThrowAt(vm.NewError(err), Caller(2))
}

// ExceptionMessage returns the message of an object that is a kind of
// Exception.
func ExceptionMessage(o *Object) (string, bool) {
	d, ok := o.DataAs(ExceptionType).(*Exception)
	if !ok {
		return "", false
	}
	return d.Message, true
}

// ErrorOf returns the Go error wrapped by an Error object.
func ErrorOf(o *Object) (error, bool) {
	d, ok := o.DataAs(ErrorType).(*Error)
	if !ok {
		return nil, false
	}
	return d.Err, true
}

// Backtrace returns the stack trace recorded with an Error object's error,
// formatted one frame per line, or the empty string.
func Backtrace(o *Object) string {
	err, ok := ErrorOf(o)
	if !ok {
		return ""
	}
	var st interface{ StackTrace() errors.StackTrace }
	if !errors.As(err, &st) {
		return ""
	}
	return fmt.Sprintf("%+v", st.StackTrace())
}
