//go:build !unix

package dialog

import "os"

// canWrite falls back to the permission bits where access(2) is missing.
func canWrite(_ string, info os.FileInfo) bool {
	return info.Mode().Perm()&0o222 != 0
}
