// Package compression wraps the codecs used to store blog content at rest.
package compression

import (
	"bytes"
	"fmt"
	"strings"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// None stores data as-is.
type None struct{}

func (None) Compress(data []byte) ([]byte, error)   { return data, nil }
func (None) Decompress(data []byte) ([]byte, error) { return decode(data) }

// ByName returns the compressor configured under storage.compression. Every
// codec reads content written by the others, so the setting can change
// without rewriting stored blogs.
func ByName(name string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zstd":
		return ZstdCompressor{}, nil
	case "gzip":
		return GzipCompressor{}, nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

// decode picks the codec from the frame magic. Anything unframed was stored
// uncompressed.
func decode(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return decodeZstd(data)
	case bytes.HasPrefix(data, gzipMagic):
		return decodeGzip(data)
	default:
		return data, nil
	}
}
