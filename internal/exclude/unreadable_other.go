//go:build !unix

package exclude

import "os"

func isUnreadable(path string) bool {
	if _, err := os.Lstat(path); err != nil {
		return false
	}

	f, err := os.Open(path) //nolint:gosec // probing readability only
	if err != nil {
		return true
	}

	_ = f.Close()

	return false
}
