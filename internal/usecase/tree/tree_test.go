package tree

import (
	"errors"
	"fmt"
	"math/rand"
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

const testRoot = "/scan/root"

// entry はテスト用のエントリを rel から組み立てます
func entry(rel string, isDir bool) model.Entry {
	rel = filepath.FromSlash(rel)
	e := model.Entry{
		Path:    filepath.Join(filepath.FromSlash(testRoot), rel),
		RelPath: rel,
		Depth:   strings.Count(rel, string(filepath.Separator)) + 1,
		Kind:    model.KindFile,
	}
	if isDir {
		e.Kind = model.KindDirectory
	}
	return e
}

func twoLevelFixture() []model.Entry {
	return []model.Entry{
		entry("a.txt", false),
		entry("b.txt", false),
		entry("sub", true),
		entry("sub/c.txt", false),
	}
}

func TestAnnotate(t *testing.T) {
	got, err := Annotate(filepath.FromSlash(testRoot), twoLevelFixture())
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}

	want := []bool{false, false, true, true}
	for i, e := range got {
		if e.IsLast != want[i] {
			t.Errorf("%s: IsLast = %v, want %v", e.RelPath, e.IsLast, want[i])
		}
	}
}

func TestAnnotate_DiscoveryOrderDecidesLast(t *testing.T) {
	// 名前順ではなく受け取った順で最後が決まる
	entries := []model.Entry{
		entry("zeta.txt", false),
		entry("alpha.txt", false),
	}
	got, err := Annotate(filepath.FromSlash(testRoot), entries)
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if got[0].IsLast || !got[1].IsLast {
		t.Errorf("IsLast = [%v %v], want [false true]", got[0].IsLast, got[1].IsLast)
	}
}

func TestAnnotate_OrphanEntry(t *testing.T) {
	tests := []struct {
		name    string
		entries []model.Entry
	}{
		{
			name:    "親ディレクトリより先に子が来る",
			entries: []model.Entry{entry("sub/c.txt", false), entry("sub", true)},
		},
		{
			name: "ルート外のエントリ",
			entries: []model.Entry{{
				Path:    filepath.FromSlash("/elsewhere/file.txt"),
				RelPath: "file.txt",
				Depth:   1,
			}},
		},
		{
			name:    "ファイルの下にエントリ",
			entries: []model.Entry{entry("f", false), entry("f/x", false)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Annotate(filepath.FromSlash(testRoot), tt.entries)
			if !errors.Is(err, ErrOrphanEntry) {
				t.Errorf("Annotate() error = %v, want %v", err, ErrOrphanEntry)
			}
		})
	}
}

func TestAnnotator_EntriesIsIdempotent(t *testing.T) {
	a := NewAnnotator(filepath.FromSlash(testRoot))
	for _, e := range twoLevelFixture() {
		if err := a.Add(e); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	first := Lines(a.Entries())
	second := Lines(a.Entries())
	if strings.Join(first, "\n") != strings.Join(second, "\n") {
		t.Errorf("Entries() の結果が呼び出しごとに異なる: %v / %v", first, second)
	}
	if a.Len() != 4 {
		t.Errorf("Len() = %d, want 4", a.Len())
	}
}

// randomTree は seed から決定的に前順のエントリ列を生成します
func randomTree(r *rand.Rand, prefix string, depth int, out *[]model.Entry) {
	n := r.Intn(4)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("n%d", i)
		rel := name
		if prefix != "" {
			rel = prefix + "/" + name
		}
		isDir := depth < 4 && r.Intn(2) == 0
		*out = append(*out, entry(rel, isDir))
		if isDir {
			randomTree(r, rel, depth+1, out)
		}
	}
}

func TestAnnotate_ExactlyOneLastPerParent(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			var entries []model.Entry
			randomTree(rand.New(rand.NewSource(seed)), "", 1, &entries)

			got, err := Annotate(filepath.FromSlash(testRoot), entries)
			if err != nil {
				t.Fatalf("Annotate() error = %v", err)
			}

			lastCount := make(map[string]int)
			lastIndex := make(map[string]int)
			for i, e := range got {
				lastIndex[e.Parent()] = i
				if e.IsLast {
					lastCount[e.Parent()]++
				}
			}
			for parent, idx := range lastIndex {
				if lastCount[parent] != 1 {
					t.Errorf("%s: IsLast の数 = %d, want 1", parent, lastCount[parent])
				}
				if !got[idx].IsLast {
					t.Errorf("%s: 最後の子 %s の IsLast が偽", parent, got[idx].RelPath)
				}
			}
		})
	}
}

func TestRenderer_TwoLevelFixture(t *testing.T) {
	entries, err := Annotate(filepath.FromSlash(testRoot), twoLevelFixture())
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}

	var buf strings.Builder
	if err := NewRenderer(&mockLogger{}).Render(&buf, entries); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "├── a.txt\n" +
		"├── b.txt\n" +
		"└── sub\n" +
		"    └── c.txt\n"
	if buf.String() != want {
		t.Errorf("Render() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestRenderer_Lines(t *testing.T) {
	tests := []struct {
		name    string
		entries []model.Entry
		want    []string
	}{
		{
			name:    "空のエントリ列",
			entries: nil,
			want:    []string{},
		},
		{
			name: "開いた祖先は縦線、閉じた祖先は空白",
			entries: []model.Entry{
				entry("dir1", true),
				entry("dir1/x", true),
				entry("dir1/x/y.txt", false),
				entry("dir1/w.txt", false),
				entry("z", true),
				entry("z/q", true),
				entry("z/q/r.txt", false),
			},
			want: []string{
				"├── dir1",
				"│   ├── x",
				"│   │   └── y.txt",
				"│   └── w.txt",
				"└── z",
				"    └── q",
				"        └── r.txt",
			},
		},
		{
			name: "深い行の後に浅い行へ戻る",
			entries: []model.Entry{
				entry("a", true),
				entry("a/b", true),
				entry("a/b/c", false),
				entry("d", false),
			},
			want: []string{
				"├── a",
				"│   └── b",
				"│       └── c",
				"└── d",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotated, err := Annotate(filepath.FromSlash(testRoot), tt.entries)
			if err != nil {
				t.Fatalf("Annotate() error = %v", err)
			}
			got := Lines(annotated)
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("Lines() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestRenderer_IsPure(t *testing.T) {
	var entries []model.Entry
	randomTree(rand.New(rand.NewSource(7)), "", 1, &entries)
	annotated, err := Annotate(filepath.FromSlash(testRoot), entries)
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}

	renderer := NewRenderer(&mockLogger{})
	var first, second strings.Builder
	if err := renderer.Render(&first, annotated); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := renderer.Render(&second, annotated); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("同じ入力に対する出力が異なる:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestRenderer_ClampsDepthJump(t *testing.T) {
	logger := &mockLogger{}
	renderer := NewRenderer(logger)

	rows := []string{
		renderer.Row(model.Entry{RelPath: "a", Depth: 1}),
		renderer.Row(model.Entry{RelPath: "a/b/c/d", Depth: 4, IsLast: true}),
	}

	want := []string{"├── a", "│   └── d"}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("Row() = %q, want %q", rows[i], want[i])
		}
	}

	if len(logger.logs) != 1 || logger.logs[0].level != logging.LevelWarn {
		t.Errorf("深さ補正の警告ログが1件出力されていません: %+v", logger.logs)
	}
}

func TestTrunk_NewRow(t *testing.T) {
	var trunk Trunk

	segs, adjusted := trunk.NewRow(0, false)
	if adjusted || len(segs) != 1 || segs[0] != SegmentTee {
		t.Errorf("NewRow(0, false) = %v, %v", segs, adjusted)
	}

	segs, adjusted = trunk.NewRow(1, true)
	if adjusted || len(segs) != 2 || segs[0] != SegmentPipe || segs[1] != SegmentElbow {
		t.Errorf("NewRow(1, true) = %v, %v", segs, adjusted)
	}
	if trunk.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", trunk.Depth())
	}

	_, adjusted = trunk.NewRow(-1, true)
	if !adjusted {
		t.Error("負の深さが補正されていません")
	}
}
