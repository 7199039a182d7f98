// Package digest は作成済みアーカイブのチェックサム計算を提供します
package digest

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

const bufferSize = 32 * 1024

// Digest はアーカイブ1つ分のチェックサムを保持します
type Digest struct {
	Path   string
	MD5    [md5.Size]byte
	SHA256 [sha256.Size]byte
	XXH64  uint64
}

// File は path の内容を1回の読み込みで MD5・SHA-256・XXH64 にかけます
func File(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("チェックサム対象 '%s' を開けません: %w", path, err)
	}
	defer f.Close()

	d, err := Reader(f)
	if err != nil {
		return Digest{}, fmt.Errorf("チェックサム対象 '%s' の読み込みに失敗: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// Reader は r を終端まで読み、チェックサムを返します
func Reader(r io.Reader) (Digest, error) {
	md5h := md5.New()
	sha := sha256.New()
	xxh := xxhash.New()

	w := io.MultiWriter(md5h, sha, xxh)
	if _, err := io.CopyBuffer(w, r, make([]byte, bufferSize)); err != nil {
		return Digest{}, err
	}

	var d Digest
	copy(d.MD5[:], md5h.Sum(nil))
	copy(d.SHA256[:], sha.Sum(nil))
	d.XXH64 = xxh.Sum64()
	return d, nil
}

// XXH64Hex は XXH64 を16進数（ビッグエンディアン）で返します
func (d Digest) XXH64Hex() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], d.XXH64)
	return hex.EncodeToString(b[:])
}

// Lines は表示用の行を返します
func (d Digest) Lines() []string {
	return []string{
		"MD5   : " + hex.EncodeToString(d.MD5[:]),
		"SHA256: " + hex.EncodeToString(d.SHA256[:]),
		"XXH64 : " + d.XXH64Hex(),
	}
}
