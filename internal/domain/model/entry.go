// package model はドメインモデルを定義します
package model

import "path/filepath"

// EntryKind はエントリの種別（ファイルまたはディレクトリ）を表します
type EntryKind int

const (
	// KindFile はファイル（シンボリックリンク等のファイル相当を含む）を表します
	KindFile EntryKind = iota
	// KindDirectory はディレクトリを表します
	KindDirectory
)

// String は種別の表示名を返します
func (k EntryKind) String() string {
	if k == KindDirectory {
		return "dir"
	}
	return "file"
}

// Entry はスキャンルート配下のファイルシステム要素を表します
type Entry struct {
	// Path は要素の絶対パスを表します
	Path string
	// RelPath はルートディレクトリからの相対パスを表します
	RelPath string
	// Depth はルートディレクトリからの深さを表します（ルート直下は 1）
	Depth int
	// Kind はファイルかディレクトリかを示します
	Kind EntryKind
	// IsLast は同じ親を持つ要素のうち、走査順で最後に現れたものかどうかを示します
	IsLast bool
}

// IsDir はディレクトリであるかどうかを返します
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// Name はツリー表示に使う末尾のパス要素を返します
func (e Entry) Name() string {
	return filepath.Base(e.RelPath)
}

// Parent は親ディレクトリの絶対パスを返します
func (e Entry) Parent() string {
	return filepath.Dir(e.Path)
}

// Partition はエントリをディレクトリとファイルに分割します。元の順序は保持されます
func Partition(entries []Entry) (dirs, files []Entry) {
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	return dirs, files
}
