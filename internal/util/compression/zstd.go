package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Encoders and decoders are safe for concurrent EncodeAll/DecodeAll calls and
// costly to build, so every blog write shares one of each.
var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
)

type ZstdCompressor struct{}

func (ZstdCompressor) Compress(data []byte) ([]byte, error) {
	enc, err := zstdEncoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return decode(data)
}

func decodeZstd(data []byte) ([]byte, error) {
	dec, err := zstdDecoder()
	if err != nil {
		return nil, err
	}
	return dec.DecodeAll(data, nil)
}
