// Package tree は走査結果への兄弟位置の付与と、ASCIIツリーの描画を提供します
package tree

import (
	"errors"
	"fmt"
	"path/filepath"

	"ZipScope/internal/domain/model"
)

// ErrOrphanEntry はルートにも既出のディレクトリにも属さないエントリを受け取った場合に返されます
var ErrOrphanEntry = errors.New("親ディレクトリが不明なエントリです")

// Annotator は走査順に受け取ったエントリを保持し、親ごとに最後の子を記録します
type Annotator struct {
	root    string
	entries []model.Entry
	// last は親ディレクトリの絶対パスから、最後に見た子のインデックスへの対応です
	last map[string]int
	dirs map[string]struct{}
}

// NewAnnotator は root を走査ルートとする Annotator を作成します
func NewAnnotator(root string) *Annotator {
	return &Annotator{
		root: filepath.Clean(root),
		last: make(map[string]int),
		dirs: make(map[string]struct{}),
	}
}

// Add はエントリを1件追加します。Walker のコールバックとしてそのまま渡せます
func (a *Annotator) Add(e model.Entry) error {
	parent := e.Parent()
	if _, ok := a.dirs[parent]; !ok && parent != a.root {
		return fmt.Errorf("%s: %w", e.Path, ErrOrphanEntry)
	}

	e.IsLast = false
	a.entries = append(a.entries, e)
	a.last[parent] = len(a.entries) - 1
	if e.IsDir() {
		a.dirs[filepath.Clean(e.Path)] = struct{}{}
	}
	return nil
}

// Len は保持しているエントリ数を返します
func (a *Annotator) Len() int {
	return len(a.entries)
}

// Entries は IsLast を確定させたエントリを走査順で返します。
// 走査が完了するまで「最後の子」は決まらないため、全件を受け取った後に呼び出してください
func (a *Annotator) Entries() []model.Entry {
	for i := range a.entries {
		a.entries[i].IsLast = false
	}
	for _, i := range a.last {
		a.entries[i].IsLast = true
	}
	return a.entries
}

// Annotate は走査済みのエントリ列に IsLast を付与した新しいスライスを返します
func Annotate(root string, entries []model.Entry) ([]model.Entry, error) {
	a := NewAnnotator(root)
	for _, e := range entries {
		if err := a.Add(e); err != nil {
			return nil, err
		}
	}
	return a.Entries(), nil
}
