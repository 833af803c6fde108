//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package internal

import (
	"bytes"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// pageSize returns the OS memory page size.
func pageSize() int {
	return unix.Getpagesize()
}

var (
	platformOnce    sync.Once
	platformVersion string
)

// Platform returns the OS name and version, e.g. "Linux 6.1.0".
func Platform() string {
	platformOnce.Do(func() {
		var uname unix.Utsname
		if unix.Uname(&uname) == nil {
			s, r := uname.Sysname[:], uname.Release[:]
			platformVersion = fmt.Sprintf("%s %s", bytes.Trim(s, "\x00"), bytes.Trim(r, "\x00"))
		}
		// If uname failed, we don't have anything else to try.
	})
	return platformVersion
}
