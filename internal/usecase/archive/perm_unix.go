//go:build unix

package archive

import "os"

// permissionBits は UNIX 系ではファイル種別とパーミッションを返します
func permissionBits(info os.FileInfo) (os.FileMode, bool) {
	return info.Mode(), true
}
