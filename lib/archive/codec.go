// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive provides the compression codecs used for manifest
// backups and settled audit streams, plus the integrity digests
// recorded alongside archived files.
//
// Manifest backups accumulate on every commit and audit streams grow
// for the life of a job, so both are compressed at rest. The codec is
// chosen by probing: zstd for text-like content (manifest JSON and
// audit JSONL almost always land here), LZ4 when the ratio only
// justifies a fast pass, uncompressed when neither helps. Both codecs
// use their self-describing frame formats, so archived files decode
// without sidecar size metadata.
package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a compression algorithm. The codec is recorded in
// the archived file's extension, so these values are format constants.
type Codec uint8

const (
	// CodecNone stores data uncompressed. Chosen when probing shows
	// compression would not reduce size.
	CodecNone Codec = 0

	// CodecLZ4 is LZ4 frame compression: a fast pass for data that
	// compresses, but not well enough to pay for zstd.
	CodecLZ4 Codec = 1

	// CodecZstd is zstd at the default level. The usual choice for
	// manifest JSON and audit JSONL.
	CodecZstd Codec = 2
)

// String returns the human-readable name of a codec.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// Extension returns the filename suffix for data compressed with this
// codec: "" for none, ".lz4" for LZ4, ".zst" for zstd.
func (c Codec) Extension() string {
	switch c {
	case CodecLZ4:
		return ".lz4"
	case CodecZstd:
		return ".zst"
	default:
		return ""
	}
}

// CodecForExtension maps a filename suffix back to its codec.
// Unrecognized extensions mean uncompressed data.
func CodecForExtension(extension string) Codec {
	switch extension {
	case ".lz4":
		return CodecLZ4
	case ".zst":
		return CodecZstd
	default:
		return CodecNone
	}
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("archive: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible is returned by compression functions when the
// output is not smaller than the input. Callers fall back to
// CodecNone.
var errIncompressible = fmt.Errorf("data is incompressible")

// IsIncompressible reports whether the error indicates that data could
// not be compressed smaller than its original size.
func IsIncompressible(err error) bool {
	return err == errIncompressible
}

// Compress compresses data with the given codec. For CodecNone the
// input is returned unchanged (no copy). Returns an incompressible
// error (testable with IsIncompressible) when the output would not be
// smaller than the input.
func Compress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecLZ4:
		return compressLZ4(data)

	case CodecZstd:
		return compressZstd(data)

	default:
		return nil, fmt.Errorf("unsupported codec: %d", codec)
	}
}

// Decompress reverses Compress.
func Decompress(compressed []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return compressed, nil

	case CodecLZ4:
		return decompressLZ4(compressed)

	case CodecZstd:
		return decompressZstd(compressed)

	default:
		return nil, fmt.Errorf("unsupported codec: %d", codec)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer := lz4.NewWriter(&buffer)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if buffer.Len() >= len(data) {
		return nil, errIncompressible
	}
	return buffer.Bytes(), nil
}

func decompressLZ4(compressed []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(compressed))
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return data, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte) ([]byte, error) {
	data, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return data, nil
}

// Select probes data to choose a codec: zstd when the ratio exceeds
// 1.5x, LZ4 between 1.1x and 1.5x, none below that. Empty data is
// never compressed.
func Select(data []byte) Codec {
	if len(data) == 0 {
		return CodecNone
	}

	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))

	switch {
	case ratio >= 1.5:
		return CodecZstd
	case ratio >= 1.1:
		return CodecLZ4
	default:
		return CodecNone
	}
}

// CompressAuto compresses data with the probed best codec, returning
// the compressed bytes and the codec used. Incompressible data is
// returned unchanged with CodecNone.
func CompressAuto(data []byte) ([]byte, Codec, error) {
	codec := Select(data)

	compressed, err := Compress(data, codec)
	if err != nil {
		if IsIncompressible(err) {
			return data, CodecNone, nil
		}
		return nil, 0, err
	}

	return compressed, codec, nil
}
