// Package filesystem はファイルシステム操作を提供します
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"ZipScope/internal/domain/model"
	"ZipScope/internal/infrastructure/logging"
)

const (
	// IgnoreFileName は各ディレクトリで読み込む独自の除外ルールファイル名です
	IgnoreFileName = ".zipignore"
	// GitignoreFileName は ReadGitignore が有効な場合に追加で読み込むファイル名です
	GitignoreFileName = ".gitignore"
)

// ErrNotDirectory は指定パスがディレクトリでない場合に返されます
var ErrNotDirectory = errors.New("指定されたパスはディレクトリではありません")

// DirectoryValidator はディレクトリの検証機能を提供するインターフェースです
type DirectoryValidator interface {
	ValidateDirectoryPath(path string) error
}

// EntryWalker はフィルタ済みのエントリを走査順に通知するインターフェースです
type EntryWalker interface {
	DirectoryValidator
	Walk(ctx context.Context, rootDir string, fn func(model.Entry) error) error
	Scan(ctx context.Context, rootDir string) ([]model.Entry, error)
}

// Options は走査時のフィルタ設定です
type Options struct {
	// MaxDepth はルートからの最大深さです。負の値なら無制限です
	MaxDepth int
	// IgnoreHidden が真なら名前が "." で始まる要素を除外します
	IgnoreHidden bool
	// ReadGitignore が真なら .gitignore も除外ルールとして読み込みます
	ReadGitignore bool
	// Exclude は常に除外する絶対パスです（出力アーカイブ自身など）
	Exclude []string
}

// OptionsFromSettings は実行設定から走査オプションを組み立てます
func OptionsFromSettings(s model.Settings) Options {
	opts := Options{
		MaxDepth:      s.MaxDepth,
		IgnoreHidden:  s.IgnoreHidden,
		ReadGitignore: s.ReadGitignore,
	}
	if s.Output != "" {
		if abs, err := filepath.Abs(s.Output); err == nil {
			opts.Exclude = append(opts.Exclude, abs)
		}
	}
	return opts
}

// ignoreScope はあるディレクトリに置かれた除外ルールと、その適用起点です
type ignoreScope struct {
	base    string
	matcher *ignore.GitIgnore
}

// Walker はルール付きでファイルシステムを走査するための構造体です
type Walker struct {
	logger logging.Logger
	opts   Options
	// excludes は Walk 開始時点で存在した Exclude の実体です。パスの表記によらず同一ファイルを判定します
	excludes []os.FileInfo
}

// NewWalker は新しい Walker インスタンスを作成します
func NewWalker(logger logging.Logger, opts Options) *Walker {
	return &Walker{
		logger: logger,
		opts:   opts,
	}
}

// ValidateDirectoryPath はパスが有効なディレクトリであることを確認します
func (w *Walker) ValidateDirectoryPath(path string) error {
	if path == "" {
		return fmt.Errorf("ディレクトリパスが指定されていません")
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("絶対パスで指定してください: %s", path)
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ディレクトリが存在しません: %w", err)
	}

	if !fileInfo.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}

	return nil
}

// Scan はファイルシステムを走査し、エントリを走査順に収集します
func (w *Walker) Scan(ctx context.Context, rootDir string) ([]model.Entry, error) {
	var entries []model.Entry
	err := w.Walk(ctx, rootDir, func(e model.Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Walk はルートを前順で走査し、除外されなかった要素ごとに fn を呼び出します。
// 各ディレクトリの子要素は名前の辞書順で訪問されます。ルート自身は通知されません
func (w *Walker) Walk(ctx context.Context, rootDir string, fn func(model.Entry) error) error {
	if err := w.ValidateDirectoryPath(rootDir); err != nil {
		return err
	}
	root := filepath.Clean(rootDir)
	w.excludes = w.excludes[:0]
	for _, ex := range w.opts.Exclude {
		if info, err := os.Stat(ex); err == nil {
			w.excludes = append(w.excludes, info)
		}
	}
	if err := w.walkDir(ctx, root, root, 0, nil, fn); err != nil {
		return fmt.Errorf("ファイルシステムの走査に失敗しました: %w", err)
	}
	return nil
}

func (w *Walker) walkDir(ctx context.Context, root, dir string, depth int, scopes []ignoreScope, fn func(model.Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	childDepth := depth + 1
	if w.opts.MaxDepth >= 0 && childDepth > w.opts.MaxDepth {
		w.logger.Log(logging.LevelDebug, fmt.Sprintf("深さ制限のため走査しません: %s", dir), nil)
		return nil
	}

	scopes, err := w.loadIgnoreFiles(dir, scopes)
	if err != nil {
		return err
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("ディレクトリ '%s' の読み込みに失敗: %w", dir, err)
	}

	for _, child := range children {
		path := filepath.Join(dir, child.Name())

		isDir, descend, err := w.classify(path, child)
		if err != nil {
			w.logger.Log(logging.LevelWarn, fmt.Sprintf("リンク先を解決できないためスキップ: %s", path), err)
			continue
		}

		if reason := w.excluded(path, child.Name(), isDir, scopes); reason != "" {
			w.logger.Log(logging.LevelDebug, fmt.Sprintf("%sのため除外: %s", reason, path), nil)
			continue
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("相対パスの取得に失敗: %s: %w", path, err)
		}

		entry := model.Entry{
			Path:    path,
			RelPath: relPath,
			Depth:   childDepth,
			Kind:    model.KindFile,
		}
		if isDir {
			entry.Kind = model.KindDirectory
		}

		if err := fn(entry); err != nil {
			return err
		}

		if descend {
			if err := w.walkDir(ctx, root, path, childDepth, scopes, fn); err != nil {
				return err
			}
		}
	}

	return nil
}

// classify は要素がディレクトリ相当か、また下位を走査するかを判定します。
// シンボリックリンクは辿らず、リンク先の種別のみを採用します
func (w *Walker) classify(path string, child fs.DirEntry) (isDir, descend bool, err error) {
	if child.Type()&fs.ModeSymlink == 0 {
		return child.IsDir(), child.IsDir(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, false, err
	}
	return info.IsDir(), false, nil
}

// excluded は要素を除外すべき理由を返します。除外しない場合は空文字列です
func (w *Walker) excluded(path, name string, isDir bool, scopes []ignoreScope) string {
	for _, ex := range w.opts.Exclude {
		if path == ex {
			return "出力ファイル"
		}
	}
	if !isDir && len(w.excludes) > 0 {
		if info, err := os.Stat(path); err == nil {
			for _, ex := range w.excludes {
				if os.SameFile(info, ex) {
					return "出力ファイル"
				}
			}
		}
	}

	if w.opts.IgnoreHidden && strings.HasPrefix(name, ".") {
		return "隠しファイル"
	}

	for _, scope := range scopes {
		rel, err := filepath.Rel(scope.base, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if isDir {
			rel += "/"
		}
		if scope.matcher.MatchesPath(rel) {
			return "除外ルール"
		}
	}

	return ""
}

// loadIgnoreFiles は dir に置かれた除外ルールファイルを読み込み、親のスコープに追加します
func (w *Walker) loadIgnoreFiles(dir string, parent []ignoreScope) ([]ignoreScope, error) {
	names := []string{IgnoreFileName}
	if w.opts.ReadGitignore {
		names = append(names, GitignoreFileName)
	}

	scopes := parent[:len(parent):len(parent)]
	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("除外ルール '%s' の確認に失敗: %w", path, err)
		}
		if info.IsDir() {
			continue
		}

		matcher, err := ignore.CompileIgnoreFile(path)
		if err != nil {
			return nil, fmt.Errorf("除外ルール '%s' の読み込みに失敗: %w", path, err)
		}
		w.logger.Log(logging.LevelDebug, fmt.Sprintf("除外ルールを読み込みました: %s", path), nil)
		scopes = append(scopes, ignoreScope{base: dir, matcher: matcher})
	}

	return scopes, nil
}
