// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// IDPrefix is the prefix of every job identifier.
const IDPrefix = "job-"

// idHexLength is the number of hex characters following the prefix.
const idHexLength = 12

// idDomainKey is the BLAKE3 keyed-hash domain for job identifiers.
// Domain separation keeps job IDs from colliding with any other
// hash-derived reference even for identical input bytes. The byte
// values are the ASCII encoding of the domain name, zero-padded to 32
// bytes, so the key is inspectable in hex dumps without losing any
// cryptographic property.
var idDomainKey = [32]byte{
	'd', 'o', 'c', 'k', 'e', 't', '.', 'j', 'o', 'b', '.', 'i', 'd',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// NewID derives a fresh job identifier from the title, the creation
// time, and a random nonce: "job-" followed by the first 12 hex
// characters of a keyed BLAKE3 hash. The nonce keeps identical titles
// created in the same instant from colliding; the store additionally
// regenerates on the (vanishing) chance of a short-prefix collision.
func NewID(title string, createdAt time.Time) string {
	hasher, err := blake3.NewKeyed(idDomainKey[:])
	if err != nil {
		panic("job: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var stamp [8]byte
	binary.LittleEndian.PutUint64(stamp[:], uint64(createdAt.UnixNano()))

	var nonce [8]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		panic("job: reading random nonce failed: " + err.Error())
	}

	hasher.Write([]byte(title))
	hasher.Write(stamp[:])
	hasher.Write(nonce[:])

	digest := hasher.Sum(nil)
	return IDPrefix + hex.EncodeToString(digest)[:idHexLength]
}

// ValidateID checks that id has the canonical job identifier shape.
func ValidateID(id string) error {
	if !strings.HasPrefix(id, IDPrefix) {
		return fmt.Errorf("job id %q must start with %q", id, IDPrefix)
	}
	suffix := id[len(IDPrefix):]
	if len(suffix) != idHexLength {
		return fmt.Errorf("job id %q must have %d hex characters after the prefix", id, idHexLength)
	}
	if _, err := hex.DecodeString(suffix); err != nil {
		return fmt.Errorf("job id %q is not hex after the prefix", id)
	}
	return nil
}
