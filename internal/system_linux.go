package internal

import "golang.org/x/sys/unix"

// nativeThreadID returns the kernel ID of the calling OS thread.
func nativeThreadID() int {
	return unix.Gettid()
}
