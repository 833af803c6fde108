//go:build !linux && !windows
// +build !linux,!windows

package internal

// nativeThreadID returns 0 where the OS has no portable thread ID.
func nativeThreadID() int {
	return 0
}
