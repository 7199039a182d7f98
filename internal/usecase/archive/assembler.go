// Package archive はスキャン結果から zip アーカイブを組み立てる機能を提供します
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"

	"ZipScope/internal/domain/model"
	"ZipScope/internal/infrastructure/logging"
	"ZipScope/internal/infrastructure/metrics"
)

// copyBufferSize はファイル内容をコピーする際の中間バッファのサイズです
const copyBufferSize = 32 * 1024

var (
	// ErrFinished は完了または中断した Assembler にエントリを追加しようとした場合のエラーです
	ErrFinished = errors.New("アーカイブは既に確定しています")
	// ErrDirectoryAfterFile はファイルの後にディレクトリを追加しようとした場合のエラーです
	ErrDirectoryAfterFile = errors.New("ディレクトリはファイルより前に追加する必要があります")
)

// Assembler はエントリを zip アーカイブに書き込みます。
// ディレクトリをすべて書き込んでからファイルを書き込みます
type Assembler struct {
	file     *os.File
	zw       *zip.Writer
	method   uint16
	wrap     string
	loc      *time.Location
	logger   logging.Logger
	recorder metrics.Recorder
	buf      []byte

	summary      model.Summary
	filesStarted bool
	finished     bool
}

// NewAssembler は settings.Output にアーカイブを作成します。
// 圧縮方式の検証は出力ファイルを作成する前に行います
func NewAssembler(settings model.Settings, logger logging.Logger, recorder metrics.Recorder) (*Assembler, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	method, comp, err := compressorFor(settings.Method, settings.Level)
	if err != nil {
		return nil, fmt.Errorf("圧縮方式の設定が不正です: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(settings.Output), 0o755); err != nil {
		return nil, fmt.Errorf("出力先ディレクトリの作成に失敗しました: %w", err)
	}
	file, err := os.Create(settings.Output)
	if err != nil {
		return nil, fmt.Errorf("アーカイブファイルの作成に失敗しました: %w", err)
	}

	zw := zip.NewWriter(file)
	if comp != nil {
		zw.RegisterCompressor(method, comp)
	}

	a := &Assembler{
		file:     file,
		zw:       zw,
		method:   method,
		loc:      time.Local,
		logger:   logger,
		recorder: recorder,
		buf:      make([]byte, copyBufferSize),
	}
	if settings.Parent {
		a.wrap = settings.WrapName()
	}
	logger.Log(logging.LevelInfo, fmt.Sprintf("アーカイブを作成します: %s (%s)", settings.Output, settings.Method), nil)
	return a, nil
}

// Build はエントリをディレクトリとファイルに分け、ディレクトリから順に書き込みます
func (a *Assembler) Build(entries []model.Entry) error {
	dirs, files := model.Partition(entries)
	if err := a.AddDirectories(dirs); err != nil {
		return err
	}
	return a.AddFiles(files)
}

// AddDirectories はディレクトリエントリを順に書き込みます
func (a *Assembler) AddDirectories(dirs []model.Entry) error {
	for _, d := range dirs {
		if err := a.AddDirectory(d); err != nil {
			return err
		}
	}
	return nil
}

// AddFiles はファイルエントリを順に書き込みます
func (a *Assembler) AddFiles(files []model.Entry) error {
	for _, f := range files {
		if err := a.AddFile(f); err != nil {
			return err
		}
	}
	return nil
}

// AddDirectory はディレクトリエントリを1件書き込みます
func (a *Assembler) AddDirectory(e model.Entry) error {
	if a.finished {
		return ErrFinished
	}
	if a.filesStarted {
		return fmt.Errorf("%s: %w", e.RelPath, ErrDirectoryAfterFile)
	}
	if !e.IsDir() {
		return fmt.Errorf("ディレクトリではありません: %s", e.Path)
	}

	opts, err := a.options(e)
	if err != nil {
		return err
	}
	if _, err := a.zw.CreateHeader(opts.Header()); err != nil {
		return fmt.Errorf("ディレクトリエントリの書き込みに失敗しました: %s: %w", opts.Name, err)
	}

	a.summary.Directories++
	a.recorder.DirectoryWritten()
	a.logger.Log(logging.LevelDebug, fmt.Sprintf("ディレクトリを追加しました: %s", opts.Name), nil)
	return nil
}

// AddFile はファイルエントリを1件書き込み、内容をディスクからコピーします
func (a *Assembler) AddFile(e model.Entry) error {
	if a.finished {
		return ErrFinished
	}
	if e.IsDir() {
		return fmt.Errorf("ファイルではありません: %s", e.Path)
	}
	a.filesStarted = true

	opts, err := a.options(e)
	if err != nil {
		return err
	}

	src, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("ファイルを開けませんでした: %w", err)
	}
	defer src.Close()

	dst, err := a.zw.CreateHeader(opts.Header())
	if err != nil {
		return fmt.Errorf("ファイルエントリの書き込みに失敗しました: %s: %w", opts.Name, err)
	}
	n, err := copyBuffer(dst, src, a.buf)
	if err != nil {
		return fmt.Errorf("ファイル内容のコピーに失敗しました: %s: %w", e.Path, err)
	}

	a.summary.Files++
	a.summary.Bytes += n
	a.recorder.FileWritten(n)
	a.logger.Log(logging.LevelDebug, fmt.Sprintf("ファイルを追加しました: %s (%d bytes)", opts.Name, n), nil)
	return nil
}

// Finish はセントラルディレクトリを書き込んでアーカイブを確定し、件数を返します。
// 確定後の Assembler には何も追加できません
func (a *Assembler) Finish() (model.Summary, error) {
	if a.finished {
		return a.summary, ErrFinished
	}
	a.finished = true

	if err := a.zw.Close(); err != nil {
		a.file.Close()
		return a.summary, fmt.Errorf("アーカイブの確定に失敗しました: %w", err)
	}
	if err := a.file.Close(); err != nil {
		return a.summary, fmt.Errorf("アーカイブファイルのクローズに失敗しました: %w", err)
	}
	a.logger.Log(logging.LevelInfo, fmt.Sprintf("アーカイブを確定しました: %d directory(s), %d file(s)", a.summary.Directories, a.summary.Files), nil)
	return a.summary, nil
}

// Abort は確定せずに出力ファイルを閉じます。途中まで書かれたファイルは削除しません
func (a *Assembler) Abort() error {
	if a.finished {
		return nil
	}
	a.finished = true
	a.logger.Log(logging.LevelWarn, fmt.Sprintf("アーカイブの作成を中断しました: %s", a.file.Name()), nil)
	return a.file.Close()
}

// Summary はこれまでに書き込んだ件数を返します
func (a *Assembler) Summary() model.Summary {
	return a.summary
}

func (a *Assembler) options(e model.Entry) (EntryOptions, error) {
	info, err := os.Stat(e.Path)
	if err != nil {
		return EntryOptions{}, fmt.Errorf("ファイル情報の取得に失敗しました: %w", err)
	}
	opts, err := deriveOptions(e, info, a.wrap, a.method, a.loc)
	if err != nil {
		return EntryOptions{}, err
	}
	if opts.Clamped {
		a.logger.Log(logging.LevelDebug, fmt.Sprintf("更新時刻を zip の範囲に丸めました: %s (%s)", opts.Name, info.ModTime().Format(time.RFC3339)), nil)
	}
	return opts, nil
}

// copyBuffer は src を buf 経由で dst にコピーします。
// 短い読み込みは継続し、EOF または 0 バイトの読み込みで終了します
func copyBuffer(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, werr
			}
			if w != n {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
		if n == 0 {
			return written, nil
		}
	}
}
