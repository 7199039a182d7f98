//go:build !unix

package archive

import "os"

// permissionBits は POSIX のパーミッションを持たないプラットフォームでは何も返しません
func permissionBits(os.FileInfo) (os.FileMode, bool) {
	return 0, false
}
