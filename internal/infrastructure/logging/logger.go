// Package logging はロギング機能を提供します
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ログレベル
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogEntry はログエントリを表す構造体です
type LogEntry struct {
	// Timestamp はログが記録された時刻をRFC3339形式で表します
	Timestamp string `json:"timestamp"`
	// Level はログレベル（DEBUG, INFO, WARN, ERROR）を表します
	Level string `json:"level"`
	// Message はログメッセージの内容を表します
	Message string `json:"message"`
	// Error はエラーが発生した場合のエラーメッセージを表します
	Error string `json:"error,omitempty"`
}

// Logger は構造化ログを出力するためのインターフェースです
type Logger interface {
	Log(level, message string, err error)
}

// JSONLogger はJSONフォーマットでログを出力するロガーです
type JSONLogger struct {
	writer io.Writer
	now    func() time.Time
}

// NewJSONLogger は新しいJSONLoggerインスタンスを作成します。writer が nil なら標準エラー出力に書きます
func NewJSONLogger(writer io.Writer) *JSONLogger {
	if writer == nil {
		writer = os.Stderr
	}
	return &JSONLogger{writer: writer, now: time.Now}
}

// Log はメッセージをJSONフォーマットでログ出力します
func (l *JSONLogger) Log(level, message string, err error) {
	entry := LogEntry{
		Timestamp: l.now().Format(time.RFC3339),
		Level:     level,
		Message:   message,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ログのJSONエンコードに失敗: %v\n", err)
		return
	}

	fmt.Fprintln(l.writer, string(jsonData))
}

// severity はレベル文字列の重要度を返します。未知のレベルは常に出力されるよう最大値を返します
func severity(level string) int {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	}
	return 4
}

// LevelFilter は指定レベル未満のログを破棄するロガーです
type LevelFilter struct {
	next Logger
	min  int
}

// NewLevelFilter は min 以上のログのみを next に渡す LevelFilter を作成します
func NewLevelFilter(next Logger, min string) *LevelFilter {
	return &LevelFilter{next: next, min: severity(min)}
}

// Log は重要度が閾値以上の場合のみ出力します
func (f *LevelFilter) Log(level, message string, err error) {
	if severity(level) < f.min {
		return
	}
	f.next.Log(level, message, err)
}

// Nop は何も出力しないロガーです
type Nop struct{}

// Log は何もしません
func (Nop) Log(string, string, error) {}
