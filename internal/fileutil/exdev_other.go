//go:build !unix

package fileutil

import "syscall"

// Windows reports ERROR_NOT_SAME_DEVICE (17) for cross-volume renames.
var errCrossDevice error = syscall.Errno(17)
