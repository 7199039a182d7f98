package tree

// Segment はツリー行を構成するASCIIアートの1区画です
type Segment int

const (
	// SegmentPipe は兄弟が残っている祖先の縦線です
	SegmentPipe Segment = iota
	// SegmentBlank は最後の兄弟だった祖先の空白です
	SegmentBlank
	// SegmentTee は後続の兄弟がある行の接続子です
	SegmentTee
	// SegmentElbow は最後の兄弟の行の接続子です
	SegmentElbow
)

const (
	pipeArt  = "│   "
	blankArt = "    "
	teeArt   = "├── "
	elbowArt = "└── "
)

// ASCIIArt は区画の描画文字列を返します
func (s Segment) ASCIIArt() string {
	switch s {
	case SegmentPipe:
		return pipeArt
	case SegmentBlank:
		return blankArt
	case SegmentTee:
		return teeArt
	case SegmentElbow:
		return elbowArt
	}
	return ""
}

// Trunk は深さごとの祖先の開閉状態をスタックとして保持します。
// stack[i] が真なら深さ i の祖先にはまだ兄弟が残っています
type Trunk struct {
	stack []bool
}

// NewRow は level の行を1行分進め、描画区画を返します。
// level が直前の行より2段以上深い場合は直前+1に丸め、adjusted を真にします
func (t *Trunk) NewRow(level int, isLast bool) (segments []Segment, adjusted bool) {
	if level < 0 {
		level, adjusted = 0, true
	}
	if level > len(t.stack) {
		level, adjusted = len(t.stack), true
	}

	t.stack = t.stack[:level]
	segments = make([]Segment, 0, level+1)
	for _, open := range t.stack {
		if open {
			segments = append(segments, SegmentPipe)
		} else {
			segments = append(segments, SegmentBlank)
		}
	}
	if isLast {
		segments = append(segments, SegmentElbow)
	} else {
		segments = append(segments, SegmentTee)
	}

	t.stack = append(t.stack, !isLast)
	return segments, adjusted
}

// Depth は現在のスタックの深さを返します
func (t *Trunk) Depth() int {
	return len(t.stack)
}

// Reset は状態を初期化します
func (t *Trunk) Reset() {
	t.stack = t.stack[:0]
}
