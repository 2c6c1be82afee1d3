//go:build unix

package resolve

import (
	"os"

	"golang.org/x/sys/unix"
)

// canExecute checks the execute permission with access(2).
func canExecute(path string, _ os.FileInfo) bool {
	return unix.Access(path, unix.X_OK) == nil
}
