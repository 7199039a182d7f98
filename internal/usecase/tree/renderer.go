package tree

import (
	"fmt"
	"io"
	"strings"

	"ZipScope/internal/domain/model"
	"ZipScope/internal/infrastructure/logging"
)

// Renderer は IsLast 付きのエントリ列を1行ずつASCIIツリーに変換します
type Renderer struct {
	trunk  Trunk
	logger logging.Logger
}

// NewRenderer は新しい Renderer を作成します
func NewRenderer(logger logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Renderer{logger: logger}
}

// Row はエントリ1件分の行（改行なし）を返します。呼び出し順に状態が進みます
func (r *Renderer) Row(e model.Entry) string {
	segments, adjusted := r.trunk.NewRow(e.Depth-1, e.IsLast)
	if adjusted {
		r.logger.Log(logging.LevelWarn, fmt.Sprintf("深さ %d が不正なため %d 段目として描画します: %s", e.Depth, len(segments), e.RelPath), nil)
	}

	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.ASCIIArt())
	}
	b.WriteString(e.Name())
	return b.String()
}

// Render はエントリ列を先頭から描画し、1エントリ1行で w に書き出します
func (r *Renderer) Render(w io.Writer, entries []model.Entry) error {
	r.trunk.Reset()
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, r.Row(e)); err != nil {
			return fmt.Errorf("ツリーの出力に失敗しました: %w", err)
		}
	}
	return nil
}

// Lines はエントリ列を描画した行のスライスを返します
func Lines(entries []model.Entry) []string {
	r := NewRenderer(nil)
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, r.Row(e))
	}
	return lines
}
