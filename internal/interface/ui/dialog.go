// Package ui はユーザーインターフェース機能を提供します
package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sqweek/dialog"

	"ZipScope/internal/infrastructure/filesystem"
)

// ArchiveExt はアーカイブファイルの拡張子です
const ArchiveExt = ".zip"

// ErrCancelled はダイアログがキャンセルされた場合のエラーです
var ErrCancelled = errors.New("保存先の選択がキャンセルされました")

// ArchivePicker は保存ダイアログで出力アーカイブのパスを選択する機能を提供します
type ArchivePicker struct {
	// validator は保存先ディレクトリの検証を行うインターフェースです
	validator filesystem.DirectoryValidator
	// save はダイアログを表示して選択されたパスを返します
	save func(title, startDir string) (string, error)
}

// NewArchivePicker は新しい ArchivePicker インスタンスを作成します
func NewArchivePicker(validator filesystem.DirectoryValidator) *ArchivePicker {
	return &ArchivePicker{validator: validator, save: showSaveDialog}
}

func showSaveDialog(title, startDir string) (string, error) {
	return dialog.File().
		Title(title).
		Filter("Zip archive", strings.TrimPrefix(ArchiveExt, ".")).
		SetStartDir(startDir).
		Save()
}

// SelectArchive はダイアログを表示し、出力アーカイブのパスを返します。
// 拡張子がなければ .zip を付けます
func (p *ArchivePicker) SelectArchive(title, suggested string) (string, error) {
	path, err := p.save(title, filepath.Dir(suggested))
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("保存先の選択に失敗しました: %w", err)
	}
	if path == "" {
		return "", ErrCancelled
	}

	if !strings.EqualFold(filepath.Ext(path), ArchiveExt) {
		path += ArchiveExt
	}
	if err := p.validator.ValidateDirectoryPath(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("無効な保存先が選択されました: %w", err)
	}
	return path, nil
}
