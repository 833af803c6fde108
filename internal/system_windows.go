package internal

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// pageSize returns the OS memory page size.
func pageSize() int {
	return os.Getpagesize()
}

// nativeThreadID returns the Windows ID of the calling OS thread.
func nativeThreadID() int {
	return int(windows.GetCurrentThreadId())
}

// Platform returns the OS name and version, e.g. "Windows 10.0.19045".
func Platform() string {
	v := windows.RtlGetVersion()
	return fmt.Sprintf("Windows %d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber)
}
