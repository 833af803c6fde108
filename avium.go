package avium

import (
	"io"

	"github.com/zephyrtronium/avium/internal"
)

// A VM is the process-wide runtime context, or a thread's or task's view of
// it.
type VM = internal.VM

// Config is the runtime configuration of a VM.
type Config = internal.Config

// Object is an instance of a declared type.
//
// Always use VM.Allocate, VM.Local, or a type-specific constructor to obtain
// new objects. Creating objects directly will result in arbitrary failures.
type Object = internal.Object

// Type is the static descriptor of an object type.
type Type = internal.Type

// TypeSpec is the declaration of a type.
type TypeSpec = internal.TypeSpec

// Description is a serializable summary of a type.
type Description = internal.Description

// Member describes one field of a type's instance data.
type Member = internal.Member

// Interface is a named set of slots.
type Interface = internal.Interface

// EnumConstant is a named integer constant.
type EnumConstant = internal.EnumConstant

// Slot is an index into a type's virtual-function table.
type Slot = internal.Slot

// VTable maps slots to callbacks for a type declaration.
type VTable = internal.VTable

// Callback types for the core slots.
type (
	FinalizeFn = internal.FinalizeFn
	ToStringFn = internal.ToStringFn
	CloneFn    = internal.CloneFn
	EqualsFn   = internal.EqualsFn
	ReadFn     = internal.ReadFn
	WriteFn    = internal.WriteFn
	SeekFn     = internal.SeekFn
	FlushFn    = internal.FlushFn
	LengthFn   = internal.LengthFn
	PositionFn = internal.PositionFn
	CapacityFn = internal.CapacityFn
	InsertFn   = internal.InsertFn
	RemoveFn   = internal.RemoveFn
	ItemAtFn   = internal.ItemAtFn
	ClearFn    = internal.ClearFn
)

// An Fn is the callback type of every slot created by NewSlot.
type Fn = internal.Fn

// ThrowContext is one dynamic exception-handling scope.
type ThrowContext = internal.ThrowContext

// Location is a source position recorded for throws and fatal errors.
type Location = internal.Location

// Thread is a handle to an OS thread.
type Thread = internal.Thread

// ThreadFn is the entry point of a thread.
type ThreadFn = internal.ThreadFn

// ThreadOptions configures a new thread.
type ThreadOptions = internal.ThreadOptions

// Task is a cooperatively scheduled execution.
type Task = internal.Task

// TaskFn is the entry point of a task.
type TaskFn = internal.TaskFn

// TaskOptions configures a new task.
type TaskOptions = internal.TaskOptions

// TaskState is the state of a task.
type TaskState = internal.TaskState

// HeapStats is a snapshot of managed heap counters.
type HeapStats = internal.HeapStats

// Error types.
type (
	FatalError             = internal.FatalError
	FatalKind              = internal.FatalKind
	MissingCapabilityError = internal.MissingCapabilityError
	ThreadJoinError        = internal.ThreadJoinError
	ThreadDetachError      = internal.ThreadDetachError
	ThreadTerminateError   = internal.ThreadTerminateError
	StackSizeError         = internal.StackSizeError
	ConfigError            = internal.ConfigError
)

// Core slots.
const (
	SlotFinalize = internal.SlotFinalize
	SlotToString = internal.SlotToString
	SlotClone    = internal.SlotClone
	SlotEquals   = internal.SlotEquals
	SlotRead     = internal.SlotRead
	SlotWrite    = internal.SlotWrite
	SlotSeek     = internal.SlotSeek
	SlotFlush    = internal.SlotFlush
	SlotLength   = internal.SlotLength
	SlotPosition = internal.SlotPosition
	SlotCapacity = internal.SlotCapacity
	SlotInsert   = internal.SlotInsert
	SlotRemove   = internal.SlotRemove
	SlotItemAt   = internal.SlotItemAt
	SlotClear    = internal.SlotClear
)

// Fatal condition kinds.
const (
	AllocationFailure     = internal.AllocationFailure
	NullSelf              = internal.NullSelf
	MissingCapability     = internal.MissingCapability
	CorruptContext        = internal.CorruptContext
	PreconditionViolation = internal.PreconditionViolation
)

// Exit codes.
const (
	ExitSuccess    = internal.ExitSuccess
	ExitUncaught   = internal.ExitUncaught
	ExitTerminated = internal.ExitTerminated
)

// Task states.
const (
	TaskCreated   = internal.TaskCreated
	TaskRunning   = internal.TaskRunning
	TaskSuspended = internal.TaskSuspended
	TaskExited    = internal.TaskExited
)

// Version is the runtime version.
const Version = internal.Version

// Built-in types.
var (
	ObjectType    = internal.ObjectType
	ExceptionType = internal.ExceptionType
	ErrorType     = internal.ErrorType
	BoxType       = internal.BoxType
	IntType       = internal.IntType
	FloatType     = internal.FloatType
	StringType    = internal.StringType
	BoolType      = internal.BoolType
	ThreadType    = internal.ThreadType
	SentinelType  = internal.SentinelType
)

// NewVM creates a VM.
func NewVM(cfg Config) (*VM, error) {
	return internal.NewVM(cfg)
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return internal.DefaultConfig()
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	return internal.LoadConfig(path)
}

// ParseConfig reads TOML configuration from r. Keys that are not
// configuration options are an error.
func ParseConfig(r io.Reader) (Config, error) {
	return internal.ParseConfig(r)
}

// Declare creates and registers a new type. Panics if the declaration is
// invalid.
func Declare(spec TypeSpec) *Type {
	return internal.Declare(spec)
}

// DeclareBox declares a box type around values of the exemplar's Go type.
func DeclareBox(name string, exemplar interface{}) *Type {
	return internal.DeclareBox(name, exemplar)
}

// NewSlot creates a new named slot whose callbacks are Fns.
func NewSlot(name string) Slot {
	return internal.NewSlot(name)
}

// SlotByName finds a slot by its name.
func SlotByName(name string) (Slot, bool) {
	return internal.SlotByName(name)
}

// TypeByName finds a declared type.
func TypeByName(name string) (*Type, bool) {
	return internal.TypeByName(name)
}

// Types returns all declared types sorted by name.
func Types() []*Type {
	return internal.Types()
}

// InheritsFrom returns true if base is the root type or appears in t's base
// chain starting with t itself.
func InheritsFrom(t, base *Type) bool {
	return internal.InheritsFrom(t, base)
}

// Cast returns o viewed as an instance of t, or nil and false.
func Cast(o *Object, t *Type) (*Object, bool) {
	return internal.Cast(o, t)
}

// IsManaged returns true if the object came from the managed heap.
func IsManaged(o *Object) bool {
	return internal.IsManaged(o)
}

// NewThrowContext creates a context ready to be pushed.
func NewThrowContext() *ThrowContext {
	return internal.NewThrowContext()
}

// Unbox returns the value in a box.
func Unbox(o *Object) interface{} {
	return internal.Unbox(o)
}

// AsInt returns the value of an Int box.
func AsInt(o *Object) (int64, bool) {
	return internal.AsInt(o)
}

// AsFloat returns the value of a Float box.
func AsFloat(o *Object) (float64, bool) {
	return internal.AsFloat(o)
}

// AsString returns the value of a String box.
func AsString(o *Object) (string, bool) {
	return internal.AsString(o)
}

// AsBool returns the value of a Bool box.
func AsBool(o *Object) (bool, bool) {
	return internal.AsBool(o)
}

// ExceptionMessage returns the message of an Exception.
func ExceptionMessage(o *Object) (string, bool) {
	return internal.ExceptionMessage(o)
}

// ErrorOf returns the Go error wrapped by an Error object.
func ErrorOf(o *Object) (error, bool) {
	return internal.ErrorOf(o)
}

// Backtrace returns the stack trace recorded with an Error object's error.
func Backtrace(o *Object) string {
	return internal.Backtrace(o)
}

// Platform returns the OS name and version.
func Platform() string {
	return internal.Platform()
}
