//go:build !aix && !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !solaris && !windows
// +build !aix,!darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd,!solaris,!windows

package internal

import (
	"os"
	"runtime"
)

func pageSize() int {
	return os.Getpagesize()
}

// Platform returns the OS name.
func Platform() string {
	return runtime.GOOS
}
