// Package config は起動時の設定解決（既定値・設定ファイル・フラグ）を提供します
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"ZipScope/internal/domain/model"
)

const (
	// SettingsFileName は入力ルートに置かれていれば自動で読み込む設定ファイル名です
	SettingsFileName = ".zipscope.ini"
	// ArchiveExt は既定の出力ファイルに付ける拡張子です
	ArchiveExt = ".zip"

	fallbackArchiveName = "archive"
)

var (
	// ErrUnknownMethod は未知の圧縮方式が指定された場合に返されます
	ErrUnknownMethod = errors.New("未知の圧縮方式です")
	// ErrInvalidLevel は圧縮方式の範囲外のレベルが指定された場合に返されます
	ErrInvalidLevel = errors.New("圧縮レベルが範囲外です")
)

// Overrides はコマンドラインで明示的に指定された値です。nil は未指定を表します
type Overrides struct {
	Input         *string
	Output        *string
	MaxDepth      *int
	IgnoreHidden  *bool
	ReadGitignore *bool
	Parent        *bool
	Method        *string
	Level         *int
	DryRun        *bool
	Digest        *bool
	MetricsFile   *string
	// ConfigFile が空でなければ、入力ルートの設定ファイルの代わりに読み込みます
	ConfigFile string
}

// Resolver は設定解決に必要な環境を抽象化します
type Resolver struct {
	Getwd func() (string, error)
}

// NewResolver は実際のカレントディレクトリを使う Resolver を作成します
func NewResolver() *Resolver {
	return &Resolver{Getwd: os.Getwd}
}

// Resolve は既定値、設定ファイル、フラグの順に値を重ね、検証済みの設定を返します
func (r *Resolver) Resolve(o Overrides) (model.Settings, error) {
	cwd, err := r.Getwd()
	if err != nil {
		return model.Settings{}, fmt.Errorf("カレントディレクトリの取得に失敗しました: %w", err)
	}

	input := cwd
	if o.Input != nil && *o.Input != "" {
		input = *o.Input
	}
	input, err = canonicalDir(cwd, input)
	if err != nil {
		return model.Settings{}, err
	}

	s := model.Settings{
		Input:    input,
		Output:   filepath.Join(cwd, DefaultArchiveName(input)),
		MaxDepth: model.UnlimitedDepth,
		Method:   model.DefaultMethod,
		Digest:   true,
	}

	path, err := settingsFilePath(o.ConfigFile, cwd, input)
	if err != nil {
		return model.Settings{}, err
	}
	if path != "" {
		if err := applyFile(&s, path); err != nil {
			return model.Settings{}, err
		}
	}

	applyOverrides(&s, o, cwd)

	if err := Validate(s); err != nil {
		return model.Settings{}, err
	}
	return s, nil
}

// DefaultArchiveName は入力ルートの名前から既定の出力ファイル名を作ります
func DefaultArchiveName(input string) string {
	name := filepath.Base(filepath.Clean(input))
	if name == "" || name == "." || name == string(filepath.Separator) || strings.HasSuffix(name, ":") {
		name = fallbackArchiveName
	}
	return name + ArchiveExt
}

// canonicalDir は入力パスを絶対パス化し、ディレクトリであることを確認します
func canonicalDir(cwd, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	path = filepath.Clean(path)

	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("入力ディレクトリ '%s' を参照できません: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("入力パス '%s' はディレクトリではありません", path)
	}
	return path, nil
}

func settingsFilePath(explicit, cwd, input string) (string, error) {
	if explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(cwd, explicit)
		}
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("設定ファイル '%s' を参照できません: %w", explicit, err)
		}
		return explicit, nil
	}

	candidate := filepath.Join(input, SettingsFileName)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, nil
	}
	return "", nil
}

// applyFile は INI 形式の設定ファイルの値を s に反映します。
// 相対パスは設定ファイルのあるディレクトリを基準に解決します
func applyFile(s *model.Settings, path string) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("設定ファイル '%s' の読み込みに失敗しました: %w", path, err)
	}
	base := filepath.Dir(path)

	walk := cfg.Section("walk")
	if walk.HasKey("depth") {
		depth, err := walk.Key("depth").Int()
		if err != nil {
			return fmt.Errorf("%s: walk.depth: %w", path, err)
		}
		s.MaxDepth = normalizeDepth(depth)
	}
	if err := readBool(walk, "ignore_hidden", &s.IgnoreHidden); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := readBool(walk, "read_gitignore", &s.ReadGitignore); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	archive := cfg.Section("archive")
	if archive.HasKey("output") {
		s.Output = resolvePath(base, archive.Key("output").String())
	}
	if err := readBool(archive, "parent", &s.Parent); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if archive.HasKey("method") {
		method, err := ParseMethod(archive.Key("method").String())
		if err != nil {
			return fmt.Errorf("%s: archive.method: %w", path, err)
		}
		s.Method = method
	}
	if archive.HasKey("level") {
		level, err := archive.Key("level").Int()
		if err != nil {
			return fmt.Errorf("%s: archive.level: %w", path, err)
		}
		s.Level = &level
	}

	report := cfg.Section("report")
	if err := readBool(report, "digest", &s.Digest); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if report.HasKey("metrics_file") {
		s.MetricsFile = resolvePath(base, report.Key("metrics_file").String())
	}

	return nil
}

func readBool(section *ini.Section, key string, dst *bool) error {
	if !section.HasKey(key) {
		return nil
	}
	v, err := section.Key(key).Bool()
	if err != nil {
		return fmt.Errorf("%s.%s: %w", section.Name(), key, err)
	}
	*dst = v
	return nil
}

func applyOverrides(s *model.Settings, o Overrides, cwd string) {
	if o.Output != nil && *o.Output != "" {
		s.Output = resolvePath(cwd, *o.Output)
	}
	if o.MaxDepth != nil {
		s.MaxDepth = normalizeDepth(*o.MaxDepth)
	}
	if o.IgnoreHidden != nil {
		s.IgnoreHidden = *o.IgnoreHidden
	}
	if o.ReadGitignore != nil {
		s.ReadGitignore = *o.ReadGitignore
	}
	if o.Parent != nil {
		s.Parent = *o.Parent
	}
	if o.Method != nil {
		s.Method = model.CompressionMethod(strings.ToLower(strings.TrimSpace(*o.Method)))
	}
	if o.Level != nil {
		level := *o.Level
		s.Level = &level
	}
	if o.DryRun != nil {
		s.DryRun = *o.DryRun
	}
	if o.Digest != nil {
		s.Digest = *o.Digest
	}
	if o.MetricsFile != nil && *o.MetricsFile != "" {
		s.MetricsFile = resolvePath(cwd, *o.MetricsFile)
	}
}

func normalizeDepth(depth int) int {
	if depth < 0 {
		return model.UnlimitedDepth
	}
	return depth
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
