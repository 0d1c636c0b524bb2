package model

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// Codec selects the compression applied to a persisted model.
// The value is stored as the first byte after the file magic.
type Codec byte

const (
	CodecNone Codec = iota
	CodecZstd
	CodecS2
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecS2:
		return "s2"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Codec(%d)", byte(c))
	}
}

// ParseCodec maps a codec name to a Codec. The empty string means zstd.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "raw":
		return CodecNone, nil
	case "", "zstd":
		return CodecZstd, nil
	case "s2":
		return CodecS2, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return CodecNone, errors.NewValidationError("codec", "must be one of none, zstd, s2, lz4", name)
	}
}

// maxDecodedSize bounds the size of a decompressed model payload.
const maxDecodedSize = 128 * 1024 * 1024

// lz4MaxRatio is the largest expansion an LZ4 block can encode.
const lz4MaxRatio = 255

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxDecodedSize),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}
		return encoder
	},
}

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// lz4 payload flags
const (
	lz4Raw        byte = 0
	lz4Compressed byte = 1
)

func compress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return data, nil
	case CodecZstd:
		encoder := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(encoder)
		return encoder.EncodeAll(data, nil), nil
	case CodecS2:
		return s2.Encode(nil, data), nil
	case CodecLZ4:
		return compressLZ4(data)
	default:
		return nil, errors.NewValidationError("codec", "unknown codec", byte(c))
	}
}

func decompress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return data, nil
	case CodecZstd:
		decoder := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(decoder)
		out, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.Wrap(err, "zstd decompression failed")
		}
		return out, nil
	case CodecS2:
		n, err := s2.DecodedLen(data)
		if err != nil {
			return nil, errors.Wrap(err, "s2 decompression failed")
		}
		if n > maxDecodedSize {
			return nil, errors.NewValueError("s2", fmt.Sprintf("decoded length %d exceeds limit %d", n, maxDecodedSize))
		}
		out, err := s2.Decode(nil, data)
		if err != nil {
			return nil, errors.Wrap(err, "s2 decompression failed")
		}
		return out, nil
	case CodecLZ4:
		return decompressLZ4(data)
	default:
		return nil, errors.NewValidationError("codec", "unknown codec", byte(c))
	}
}

// compressLZ4 writes uvarint(original length), a flag byte and the block.
// Incompressible input is stored raw.
func compressLZ4(data []byte) ([]byte, error) {
	header := binary.AppendUvarint(nil, uint64(len(data)))
	if len(data) == 0 {
		return append(header, lz4Raw), nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compression failed")
	}
	if n == 0 || n >= len(data) {
		out := append(header, lz4Raw)
		return append(out, data...), nil
	}
	out := append(header, lz4Compressed)
	return append(out, dst[:n]...), nil
}

func decompressLZ4(data []byte) ([]byte, error) {
	size, read := binary.Uvarint(data)
	if read <= 0 || len(data) < read+1 {
		return nil, errors.NewValueError("lz4", "corrupt length header")
	}
	flag, body := data[read], data[read+1:]
	switch flag {
	case lz4Raw:
		if uint64(len(body)) != size {
			return nil, errors.NewValueError("lz4", "raw payload length mismatch")
		}
		return append([]byte(nil), body...), nil
	case lz4Compressed:
		// 壊れたヘッダで巨大なバッファを確保しない
		if size > maxDecodedSize || size > uint64(len(body))*lz4MaxRatio {
			return nil, errors.NewValueError("lz4", fmt.Sprintf("declared length %d exceeds limit for %d byte block", size, len(body)))
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, errors.Wrap(err, "lz4 decompression failed")
		}
		if uint64(n) != size {
			return nil, errors.NewValueError("lz4", "decompressed length mismatch")
		}
		return out, nil
	default:
		return nil, errors.NewValueError("lz4", "unknown payload flag")
	}
}
