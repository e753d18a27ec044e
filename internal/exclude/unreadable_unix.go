//go:build unix

package exclude

import (
	"os"

	"golang.org/x/sys/unix"
)

func isUnreadable(path string) bool {
	if _, err := os.Lstat(path); err != nil {
		return false
	}

	return unix.Access(path, unix.R_OK) != nil
}
