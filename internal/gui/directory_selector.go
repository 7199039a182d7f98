// Package gui はGUIを提供します
package gui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

// Default window size constants
const (
	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600
)

// ErrCancelled はフォルダ選択がキャンセルされた場合のエラーです
var ErrCancelled = errors.New("入力フォルダの選択がキャンセルされました")

// DirectoryValidator は、ディレクトリパスの検証を行うインターフェース
type DirectoryValidator interface {
	ValidateDirectoryPath(path string) error
}

// DirectorySelector は、Fyneを使用してアーカイブ対象のフォルダを選択する構造体
type DirectorySelector struct {
	validator DirectoryValidator
}

// NewDirectorySelector は、DirectorySelectorの新しいインスタンスを作成します
func NewDirectorySelector(validator DirectoryValidator) *DirectorySelector {
	return &DirectorySelector{
		validator: validator,
	}
}

// SelectDirectory は、Fyneダイアログを使用してディレクトリを選択し、
// 選択されたパスまたはエラーを返します
func (s *DirectorySelector) SelectDirectory(title string) (string, error) {
	done := make(chan struct{})
	var path string
	var resultErr error

	a := app.New()
	w := a.NewWindow(title)
	w.Resize(fyne.NewSize(DefaultWindowWidth, DefaultWindowHeight))

	d := dialog.NewFolderOpen(func(selectedURI fyne.ListableURI, err error) {
		defer close(done)
		if err != nil {
			resultErr = fmt.Errorf("フォルダ選択エラー: %w", err)
			return
		}
		if selectedURI == nil {
			resultErr = ErrCancelled
			return
		}
		path, resultErr = s.accept(selectedURI.Path())
	}, w)
	d.Show()
	w.Show()

	// イベントループ内で待機するため、a.Run() を実行
	go func() {
		<-done
		a.Quit()
	}()
	a.Run()
	return path, resultErr
}

// accept は選択されたパスを検証します
func (s *DirectorySelector) accept(path string) (string, error) {
	if err := s.validator.ValidateDirectoryPath(path); err != nil {
		return "", fmt.Errorf("パス検証エラー: %w", err)
	}
	return path, nil
}
