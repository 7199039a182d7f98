package model

import (
	"path/filepath"
	"strings"
)

// CompressionMethod はアーカイブ内の各エントリに適用する圧縮方式を表します
type CompressionMethod string

const (
	MethodStored   CompressionMethod = "stored"
	MethodDeflated CompressionMethod = "deflated"
	MethodBzip2    CompressionMethod = "bzip2"
	MethodZstd     CompressionMethod = "zstd"
	MethodLZ4      CompressionMethod = "lz4"
)

// DefaultMethod は圧縮方式が指定されなかった場合に使用する方式です
const DefaultMethod = MethodDeflated

// UnlimitedDepth は走査深さに上限を設けないことを表します
const UnlimitedDepth = -1

// Methods は利用可能な圧縮方式の一覧を返します
func Methods() []CompressionMethod {
	return []CompressionMethod{MethodStored, MethodDeflated, MethodBzip2, MethodZstd, MethodLZ4}
}

// Settings は起動時に一度だけ解決される実行設定です
type Settings struct {
	// Input はスキャン対象のルートディレクトリ（絶対パス）です
	Input string
	// Output は作成するアーカイブのパスです
	Output string
	// MaxDepth は走査の最大深さです。UnlimitedDepth なら無制限です
	MaxDepth int
	// IgnoreHidden は隠しファイルを除外するかどうかを示します
	IgnoreHidden bool
	// ReadGitignore は .zipignore に加えて .gitignore を読むかどうかを示します
	ReadGitignore bool
	// Parent はすべてのエントリを出力ファイル名のディレクトリで包むかどうかを示します
	Parent bool
	// Method は圧縮方式です
	Method CompressionMethod
	// Level は圧縮レベルです。nil ならコーデックの既定値を使います
	Level *int
	// DryRun が真の場合はツリー表示のみを行います
	DryRun bool
	// Digest はアーカイブのチェックサムを表示するかどうかを示します
	Digest bool
	// MetricsFile が空でなければ、メトリクスをテキスト形式で書き出します
	MetricsFile string
}

// WrapName は Parent が有効な場合にエントリ名の先頭に付けるディレクトリ名を返します
func (s Settings) WrapName() string {
	base := filepath.Base(s.Output)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DepthLimited は深さの上限が設定されているかどうかを返します
func (s Settings) DepthLimited() bool {
	return s.MaxDepth >= 0
}

// Summary はアーカイブ作成後に報告する件数を表します
type Summary struct {
	Directories int
	Files       int
	Bytes       int64
}
