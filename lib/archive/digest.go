// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest of archived content, computed over
// the uncompressed bytes so the digest survives codec changes.
type Digest [32]byte

// digestDomainKey is the BLAKE3 keyed-hash domain for archive digests.
// The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes.
var digestDomainKey = [32]byte{
	'd', 'o', 'c', 'k', 'e', 't', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// DigestOf computes the archive-domain digest of data.
func DigestOf(data []byte) Digest {
	hasher, err := blake3.NewKeyed(digestDomainKey[:])
	if err != nil {
		panic("archive: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// String returns the hex encoding of the digest, the canonical form
// used in archive sidecar records and logs.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing archive digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("archive digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
