package internal

import (
	"fmt"

	"github.com/pkg/errors"
)

// ThreadJoinError is returned when a thread cannot be joined.
type ThreadJoinError struct {
	Thread string
	Reason string
}

func (e *ThreadJoinError) Error() string {
	return fmt.Sprintf("avium: cannot join thread %s: %s", e.Thread, e.Reason)
}

// ThreadDetachError is returned when a thread cannot be detached.
type ThreadDetachError struct {
	Thread string
	Reason string
}

func (e *ThreadDetachError) Error() string {
	return fmt.Sprintf("avium: cannot detach thread %s: %s", e.Thread, e.Reason)
}

// ThreadTerminateError is returned when a thread cannot be terminated.
type ThreadTerminateError struct {
	Thread string
	Reason string
}

func (e *ThreadTerminateError) Error() string {
	return fmt.Sprintf("avium: cannot terminate thread %s: %s", e.Thread, e.Reason)
}

// StackSizeError is returned for a stack size that is too small or not a
// multiple of the page size.
type StackSizeError struct {
	Size     int
	PageSize int
}

func (e *StackSizeError) Error() string {
	return fmt.Sprintf("avium: stack size %d must exceed %d and be a multiple of the page size %d", e.Size, minStackSize, e.PageSize)
}

// minStackSize is the exclusive lower bound on requested stack sizes.
const minStackSize = 4096

// checkStackSize validates a nonzero requested stack size.
func checkStackSize(n int) error {
	ps := pageSize()
	if n <= minStackSize || n%ps != 0 {
		return errors.WithStack(&StackSizeError{Size: n, PageSize: ps})
	}
	return nil
}
