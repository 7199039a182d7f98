package archive

import (
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"

	"ZipScope/internal/domain/model"
)

// zip の MS-DOS 時刻は 1980 年以降の 2 秒単位です。拡張タイムスタンプは符号なし32ビットの UNIX 秒なので、
// 上限は両者の小さい方（2106-02-07）になります
var (
	minArchiveTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxArchiveTime = time.Unix(math.MaxUint32-1, 0).UTC()
)

// EntryOptions はエントリ1件から導出されるアーカイブ上のメタデータです
type EntryOptions struct {
	// Name はアーカイブ内のエントリ名です。ディレクトリは "/" で終わります
	Name string
	// Modified は更新時刻をローカル時刻に変換し、zip の表現範囲に収めたものです
	Modified time.Time
	// Clamped は Modified が範囲外だったため丸められたことを示します
	Clamped bool
	// Mode はパーミッションビットです。HasMode が偽なら記録しません
	Mode    os.FileMode
	HasMode bool
	// Method は zip のメソッドIDです
	Method uint16
}

// EntryName は相対パスからアーカイブ内のエントリ名を作ります。wrap が空でなければ先頭に付けます
func EntryName(relPath, wrap string, isDir bool) string {
	name := filepath.ToSlash(relPath)
	if wrap != "" {
		name = path.Join(wrap, name)
	}
	if isDir {
		name += "/"
	}
	return name
}

// ArchiveTime は更新時刻を loc の時刻に変換し、アーカイブで表現できる範囲に丸めます
func ArchiveTime(mtime time.Time, loc *time.Location) (t time.Time, clamped bool) {
	floor := time.Date(minArchiveTime.Year(), minArchiveTime.Month(), minArchiveTime.Day(), 0, 0, 0, 0, loc)
	switch {
	case mtime.Before(floor):
		mtime, clamped = floor, true
	case mtime.After(maxArchiveTime):
		mtime, clamped = maxArchiveTime, true
	}
	return mtime.In(loc), clamped
}

// deriveOptions はエントリのファイル情報からオプションを導出します
func deriveOptions(e model.Entry, info os.FileInfo, wrap string, method uint16, loc *time.Location) (EntryOptions, error) {
	if e.RelPath == "" || e.RelPath == "." {
		return EntryOptions{}, fmt.Errorf("ルート自身はアーカイブに追加できません: %s", e.Path)
	}

	modified, clamped := ArchiveTime(info.ModTime(), loc)
	opts := EntryOptions{
		Name:     EntryName(e.RelPath, wrap, e.IsDir()),
		Modified: modified,
		Clamped:  clamped,
		Method:   method,
	}
	if e.IsDir() {
		opts.Method = MethodIDStore
	}
	opts.Mode, opts.HasMode = permissionBits(info)
	return opts, nil
}

// Header は zip のファイルヘッダを組み立てます
func (o EntryOptions) Header() *zip.FileHeader {
	fh := &zip.FileHeader{
		Name:     o.Name,
		Method:   o.Method,
		Modified: o.Modified,
	}
	if o.HasMode {
		fh.SetMode(o.Mode)
	}
	return fh
}
