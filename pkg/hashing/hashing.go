// Package hashing computes SHA-256 and BLAKE3 digests over a byte
// range of an io.ReaderAt, the way pkg/filesystem's FileSystemEntry
// computes MD5/SHA-256 over an extracted file's bytes, extended to a
// second algorithm and to operate over an arbitrary offset/length
// window rather than only a whole extracted file.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// Digest holds both hash results for one byte range.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Range computes both digests over length bytes starting at offset in
// source. Each call opens its own io.SectionReader, so concurrent
// callers over the same source never share read state.
func Range(source io.ReaderAt, offset, length int64) (Digest, error) {
	section := io.NewSectionReader(source, offset, length)

	sha := sha256.New()
	b3 := blake3.New(32, nil)

	if _, err := io.Copy(io.MultiWriter(sha, b3), section); err != nil {
		return Digest{}, fmt.Errorf("hashing range [%d, %d): %w", offset, offset+length, err)
	}

	return Digest{
		SHA256: hex.EncodeToString(sha.Sum(nil)),
		BLAKE3: hex.EncodeToString(b3.Sum(nil)),
	}, nil
}
