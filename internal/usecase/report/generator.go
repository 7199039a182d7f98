// Package report は標準出力に表示する内容の生成機能を提供します
package report

import (
	"fmt"
	"io"

	"ZipScope/internal/domain/model"
	"ZipScope/internal/infrastructure/digest"
	"ZipScope/internal/infrastructure/logging"
	"ZipScope/internal/usecase/tree"
)

// SummaryFormat はアーカイブ作成後に表示する件数行の書式です
const SummaryFormat = "Zip Complete: %d directory(s), %d file(s) in total\n"

// Generator はツリー・件数・チェックサムを writer に出力します
type Generator struct {
	writer io.Writer
	logger logging.Logger
}

// NewGenerator は新しい Generator インスタンスを作成します
func NewGenerator(writer io.Writer, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Generator{writer: writer, logger: logger}
}

// WriteTree は IsLast 付きのエントリ列をASCIIツリーとして出力します
func (g *Generator) WriteTree(entries []model.Entry) error {
	return tree.NewRenderer(g.logger).Render(g.writer, entries)
}

// WriteSummary は書き込んだディレクトリとファイルの件数を出力します
func (g *Generator) WriteSummary(summary model.Summary) error {
	if _, err := fmt.Fprintf(g.writer, SummaryFormat, summary.Directories, summary.Files); err != nil {
		return fmt.Errorf("件数の出力に失敗しました: %w", err)
	}
	return nil
}

// WriteDigest は archivePath のチェックサムを計算して出力します
func (g *Generator) WriteDigest(archivePath string) (digest.Digest, error) {
	d, err := digest.File(archivePath)
	if err != nil {
		return digest.Digest{}, err
	}
	for _, line := range d.Lines() {
		if _, err := fmt.Fprintln(g.writer, line); err != nil {
			return d, fmt.Errorf("チェックサムの出力に失敗しました: %w", err)
		}
	}
	return d, nil
}
