package archive

import (
	stdbzip2 "compress/bzip2"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"ZipScope/internal/domain/model"
)

// zip のメソッドID
const (
	MethodIDStore   uint16 = zip.Store
	MethodIDDeflate uint16 = zip.Deflate
	MethodIDBzip2   uint16 = 12
	MethodIDZstd    uint16 = zstd.ZipMethodWinZip
	// MethodIDLZ4 は APPNOTE に割り当てのない私的なIDです。ZipScope 以外では展開できません
	MethodIDLZ4 uint16 = 0x4C34
)

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// MethodID は圧縮方式に対応する zip のメソッドIDを返します
func MethodID(m model.CompressionMethod) (uint16, error) {
	switch m {
	case model.MethodStored:
		return MethodIDStore, nil
	case model.MethodDeflated:
		return MethodIDDeflate, nil
	case model.MethodBzip2:
		return MethodIDBzip2, nil
	case model.MethodZstd:
		return MethodIDZstd, nil
	case model.MethodLZ4:
		return MethodIDLZ4, nil
	}
	return 0, fmt.Errorf("未対応の圧縮方式です: %q", m)
}

// compressorFor は method を level で書き込むコンプレッサとメソッドIDを返します。
// 無圧縮ではコンプレッサは nil です。level が nil ならコーデックの既定値を使います
func compressorFor(method model.CompressionMethod, level *int) (uint16, zip.Compressor, error) {
	id, err := MethodID(method)
	if err != nil {
		return 0, nil, err
	}

	switch method {
	case model.MethodDeflated:
		lvl := flate.DefaultCompression
		if level != nil {
			lvl = *level
		}
		if _, err := flate.NewWriter(io.Discard, lvl); err != nil {
			return 0, nil, fmt.Errorf("deflate レベル %d: %w", lvl, err)
		}
		return id, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, lvl)
		}, nil

	case model.MethodBzip2:
		conf := &bzip2.WriterConfig{Level: bzip2.DefaultCompression}
		if level != nil {
			conf.Level = *level
		}
		if _, err := bzip2.NewWriter(io.Discard, conf); err != nil {
			return 0, nil, fmt.Errorf("bzip2 レベル %d: %w", conf.Level, err)
		}
		return id, func(out io.Writer) (io.WriteCloser, error) {
			return bzip2.NewWriter(out, conf)
		}, nil

	case model.MethodZstd:
		var opts []zstd.EOption
		if level != nil {
			opts = append(opts, zstd.WithEncoderLevel(zstdLevel(*level)))
		}
		return id, zstd.ZipCompressor(opts...), nil

	case model.MethodLZ4:
		var opts []lz4.Option
		if level != nil {
			if *level < 0 || *level >= len(lz4Levels) {
				return 0, nil, fmt.Errorf("lz4 レベル %d は範囲外です", *level)
			}
			opts = append(opts, lz4.CompressionLevelOption(lz4Levels[*level]))
		}
		return id, func(out io.Writer) (io.WriteCloser, error) {
			lw := lz4.NewWriter(out)
			if err := lw.Apply(opts...); err != nil {
				return nil, err
			}
			return lw, nil
		}, nil
	}

	// 無圧縮
	return id, nil, nil
}

// zstdLevel は zstd のレベル番号をエンコーダのレベルに変換します。0 はコーデックの既定値です
func zstdLevel(level int) zstd.EncoderLevel {
	if level == 0 {
		return zstd.SpeedDefault
	}
	return zstd.EncoderLevelFromZstd(level)
}

// RegisterDecompressors は ZipScope が書き込む全メソッドの展開器を r に登録します
func RegisterDecompressors(r *zip.Reader) {
	r.RegisterDecompressor(MethodIDBzip2, func(in io.Reader) io.ReadCloser {
		return io.NopCloser(stdbzip2.NewReader(in))
	})
	r.RegisterDecompressor(MethodIDZstd, zstd.ZipDecompressor())
	r.RegisterDecompressor(MethodIDLZ4, func(in io.Reader) io.ReadCloser {
		return io.NopCloser(lz4.NewReader(in))
	})
}
