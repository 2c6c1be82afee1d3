//go:build !unix

package resolve

import "os"

func canExecute(_ string, info os.FileInfo) bool {
	return info.Mode().Perm()&0o111 != 0
}
