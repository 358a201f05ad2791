// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docket-works/docket/lib/fsatomic"
)

// WriteFile compresses data with the probed best codec and writes it
// atomically to basePath plus the codec's extension. Returns the
// final path and the codec used. basePath should carry the logical
// extension of the content (".json", ".jsonl"); the codec extension
// is appended after it, so readers can recover both the content type
// and the codec from the filename alone.
func WriteFile(basePath string, data []byte) (string, Codec, error) {
	compressed, codec, err := CompressAuto(data)
	if err != nil {
		return "", 0, fmt.Errorf("compressing %s: %w", basePath, err)
	}

	path := basePath + codec.Extension()
	if err := fsatomic.WriteBytes(path, compressed, 0o600); err != nil {
		return "", 0, err
	}
	return path, codec, nil
}

// ReadFile reads a file written by WriteFile, inferring the codec
// from the filename extension and returning the decompressed content.
func ReadFile(path string) ([]byte, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	codec := CodecForExtension(filepath.Ext(path))
	data, err := Decompress(compressed, codec)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return data, nil
}
