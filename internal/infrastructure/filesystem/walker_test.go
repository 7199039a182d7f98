package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ZipScope/internal/domain/model"
	"ZipScope/internal/infrastructure/logging"
)

type mockLogger struct {
	logs []struct {
		level   string
		message string
		err     error
	}
}

func (m *mockLogger) Log(level, message string, err error) {
	m.logs = append(m.logs, struct {
		level   string
		message string
		err     error
	}{level, message, err})
}

// writeTree はテスト用のファイル構成を作成します。末尾が "/" のキーはディレクトリです
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatalf("ディレクトリの作成に失敗: %v", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("ディレクトリの作成に失敗: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("ファイルの作成に失敗: %v", err)
		}
	}
}

func relPaths(entries []model.Entry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.ToSlash(e.RelPath))
	}
	return paths
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWalker_ValidateDirectoryPath(t *testing.T) {
	walker := NewWalker(&mockLogger{}, Options{MaxDepth: model.UnlimitedDepth})

	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0644); err != nil {
		t.Fatalf("ファイルの作成に失敗: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
		target  error
	}{
		{name: "有効なディレクトリパス", path: tempDir},
		{name: "空のパス", path: "", wantErr: true},
		{name: "相対パス", path: "relative/dir", wantErr: true},
		{name: "存在しないパス", path: filepath.Join(tempDir, "notexist"), wantErr: true},
		{name: "ファイルのパス", path: filePath, wantErr: true, target: ErrNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := walker.ValidateDirectoryPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDirectoryPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("ValidateDirectoryPath() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestWalker_Scan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":     "a",
		"b.txt":     "b",
		"sub/c.txt": "c",
	})

	walker := NewWalker(&mockLogger{}, Options{MaxDepth: model.UnlimitedDepth})
	entries, err := walker.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{"a.txt", "b.txt", "sub", "sub/c.txt"}
	if got := relPaths(entries); !equalStrings(got, want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}

	wantDepth := []int{1, 1, 1, 2}
	for i, e := range entries {
		if e.Depth != wantDepth[i] {
			t.Errorf("%s: Depth = %d, want %d", e.RelPath, e.Depth, wantDepth[i])
		}
		if e.Path != filepath.Join(root, e.RelPath) {
			t.Errorf("%s: Path = %s", e.RelPath, e.Path)
		}
	}
	if !entries[2].IsDir() || entries[3].IsDir() {
		t.Errorf("種別が不正: %+v", entries)
	}
}

func TestWalker_Filters(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		opts  Options
		want  []string
	}{
		{
			name: "除外ルールファイル",
			files: map[string]string{
				".zipignore":     "*.log\nbuild/\n",
				"main.go":        "package main",
				"debug.log":      "log",
				"build/out.bin":  "bin",
				"docs/readme.md": "doc",
				"docs/trace.log": "log",
			},
			opts: Options{MaxDepth: model.UnlimitedDepth},
			want: []string{".zipignore", "docs", "docs/readme.md", "main.go"},
		},
		{
			name: "下位ディレクトリの除外ルールはその配下のみに適用",
			files: map[string]string{
				"secret.txt":     "root",
				"sub/.zipignore": "secret.txt\n",
				"sub/secret.txt": "sub",
				"sub/keep.txt":   "keep",
			},
			opts: Options{MaxDepth: model.UnlimitedDepth},
			want: []string{"secret.txt", "sub", "sub/.zipignore", "sub/keep.txt"},
		},
		{
			name: "隠しファイルを除外",
			files: map[string]string{
				".hidden/inner.txt": "x",
				".env":              "x",
				"visible.txt":       "x",
			},
			opts: Options{MaxDepth: model.UnlimitedDepth, IgnoreHidden: true},
			want: []string{"visible.txt"},
		},
		{
			name: "gitignore は無効なら読まない",
			files: map[string]string{
				".gitignore":  "vendor/\n",
				"vendor/x.go": "x",
			},
			opts: Options{MaxDepth: model.UnlimitedDepth},
			want: []string{".gitignore", "vendor", "vendor/x.go"},
		},
		{
			name: "gitignore を有効化",
			files: map[string]string{
				".gitignore":  "vendor/\n",
				"vendor/x.go": "x",
			},
			opts: Options{MaxDepth: model.UnlimitedDepth, ReadGitignore: true},
			want: []string{".gitignore"},
		},
		{
			name: "深さ制限",
			files: map[string]string{
				"top.txt":            "x",
				"one/two.txt":        "x",
				"one/deep/three.txt": "x",
			},
			opts: Options{MaxDepth: 2},
			want: []string{"one", "one/deep", "one/two.txt", "top.txt"},
		},
		{
			name: "深さ0はルート直下も出力しない",
			files: map[string]string{
				"top.txt": "x",
			},
			opts: Options{MaxDepth: 0},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files)

			walker := NewWalker(&mockLogger{}, tt.opts)
			entries, err := walker.Scan(context.Background(), root)
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if got := relPaths(entries); !equalStrings(got, tt.want) {
				t.Errorf("Scan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalker_ExcludesOutputArchive(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"data.txt":    "x",
		"project.zip": "old archive",
	})

	logger := &mockLogger{}
	opts := OptionsFromSettings(model.Settings{
		MaxDepth: model.UnlimitedDepth,
		Output:   filepath.Join(root, "project.zip"),
	})
	entries, err := NewWalker(logger, opts).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := relPaths(entries); !equalStrings(got, []string{"data.txt"}) {
		t.Errorf("Scan() = %v", got)
	}

	var found bool
	for _, log := range logger.logs {
		if log.level == logging.LevelDebug && strings.Contains(log.message, "project.zip") {
			found = true
		}
	}
	if !found {
		t.Error("出力ファイル除外のログが出力されていません")
	}
}

func TestWalker_ExcludesOutputArchiveThroughSymlink(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"data.txt": "x",
		"self.zip": "previous archive",
	})
	links := t.TempDir()
	link := filepath.Join(links, "link")
	if err := os.Symlink(root, link); err != nil {
		t.Skipf("シンボリックリンクを作成できません: %v", err)
	}
	parentLink := filepath.Join(links, "parent")
	if err := os.Symlink(filepath.Dir(root), parentLink); err != nil {
		t.Skipf("シンボリックリンクを作成できません: %v", err)
	}

	tests := []struct {
		name   string
		output string
	}{
		{name: "リンク経由の出力先", output: filepath.Join(link, "self.zip")},
		{name: "親ディレクトリのリンク経由の出力先", output: filepath.Join(parentLink, filepath.Base(root), "self.zip")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := OptionsFromSettings(model.Settings{
				MaxDepth: model.UnlimitedDepth,
				Output:   tt.output,
			})
			walker := NewWalker(&mockLogger{}, opts)

			for run := 0; run < 2; run++ {
				entries, err := walker.Scan(context.Background(), root)
				if err != nil {
					t.Fatalf("Scan() error = %v", err)
				}
				if got := relPaths(entries); !equalStrings(got, []string{"data.txt"}) {
					t.Errorf("run %d: Scan() = %v, want [data.txt]", run, got)
				}
			}
		})
	}
}

func TestWalker_KeepsDistinctFileWithOutputName(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"self.zip": "input file",
	})
	outDir := t.TempDir()
	writeTree(t, outDir, map[string]string{
		"self.zip": "archive elsewhere",
	})

	opts := OptionsFromSettings(model.Settings{
		MaxDepth: model.UnlimitedDepth,
		Output:   filepath.Join(outDir, "self.zip"),
	})
	entries, err := NewWalker(&mockLogger{}, opts).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := relPaths(entries); !equalStrings(got, []string{"self.zip"}) {
		t.Errorf("Scan() = %v, want [self.zip]", got)
	}
}

func TestWalker_WalkStopsOnCallbackError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a", "b.txt": "b"})

	stop := errors.New("stop")
	var seen int
	err := NewWalker(&mockLogger{}, Options{MaxDepth: model.UnlimitedDepth}).Walk(context.Background(), root, func(model.Entry) error {
		seen++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if seen != 1 {
		t.Errorf("callback called %d times, want 1", seen)
	}
}

func TestWalker_CanceledContext(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWalker(&mockLogger{}, Options{MaxDepth: model.UnlimitedDepth}).Scan(ctx, root)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}
