// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest of a square file's bytes as stored
// on disk (after any compression).
type Digest [32]byte

// String returns the hex encoding.
func (d Digest) String() string {
	return FormatDigest(d)
}

// HashFile computes the BLAKE3 digest of the file at path, streaming
// it so memory stays constant regardless of file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	digest, err := HashReader(file)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return digest, nil
}

// HashReader computes the BLAKE3 digest of everything remaining in r.
func HashReader(r io.Reader) (Digest, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return Digest{}, err
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the hex-encoded form of digest, as recorded in
// run manifests and log output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
