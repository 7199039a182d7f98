package config

import (
	"fmt"
	"strings"

	"ZipScope/internal/domain/model"
)

// LevelRange は圧縮方式ごとに受け付けるレベルの範囲です
type LevelRange struct {
	Min, Max int
}

var levelRanges = map[model.CompressionMethod]LevelRange{
	model.MethodDeflated: {Min: 0, Max: 9},
	model.MethodBzip2:    {Min: 1, Max: 9},
	model.MethodZstd:     {Min: -7, Max: 22},
	model.MethodLZ4:      {Min: 0, Max: 9},
}

// LevelRangeOf は method が受け付けるレベル範囲を返します。レベルを持たない方式では ok が偽です
func LevelRangeOf(method model.CompressionMethod) (r LevelRange, ok bool) {
	r, ok = levelRanges[method]
	return r, ok
}

// ParseMethod は文字列を圧縮方式に変換します
func ParseMethod(s string) (model.CompressionMethod, error) {
	want := model.CompressionMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range model.Methods() {
		if m == want {
			return m, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownMethod)
}

// Validate は解決済みの設定を検証します
func Validate(s model.Settings) error {
	if _, err := ParseMethod(string(s.Method)); err != nil {
		return err
	}

	if s.Level != nil {
		r, ok := LevelRangeOf(s.Method)
		if !ok {
			return fmt.Errorf("%s はレベルを指定できません: %w", s.Method, ErrInvalidLevel)
		}
		if *s.Level < r.Min || *s.Level > r.Max {
			return fmt.Errorf("%s のレベル %d (%d..%d): %w", s.Method, *s.Level, r.Min, r.Max, ErrInvalidLevel)
		}
	}

	if s.Output == "" {
		return fmt.Errorf("出力ファイルが指定されていません")
	}
	return nil
}
