// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest records what a conversion run did: the shape and
// format of the squares, the shift applied, how many squares moved,
// and BLAKE3 digests of the input and output files. Manifests are
// CBOR (see lib/codec) so they are compact and deterministic.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/msorigin/lib/binhash"
	"github.com/bureau-foundation/msorigin/lib/codec"
)

// CurrentVersion is the manifest schema version written by this
// package. Read rejects manifests from a newer schema.
const CurrentVersion = 1

// Manifest describes one conversion run.
type Manifest struct {
	Version int    `cbor:"version"`
	Tool    string `cbor:"tool"`

	Order         int    `cbor:"order"`
	Shift         int    `cbor:"shift"`
	Format        string `cbor:"format"`
	Compression   string `cbor:"compression"`
	BufferSquares int    `cbor:"buffer_squares"`

	Input  File `cbor:"input"`
	Output File `cbor:"output"`

	Squares    int       `cbor:"squares"`
	StartedAt  time.Time `cbor:"started_at"`
	FinishedAt time.Time `cbor:"finished_at"`
}

// File identifies one file by path, size, and content digest.
type File struct {
	Path   string `cbor:"path"`
	Bytes  int64  `cbor:"bytes"`
	Digest string `cbor:"digest"`
}

// Describe stats and hashes the file at path.
func Describe(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("describing %s: %w", path, err)
	}
	digest, err := binhash.HashFile(path)
	if err != nil {
		return File{}, err
	}
	return File{
		Path:   path,
		Bytes:  info.Size(),
		Digest: binhash.FormatDigest(digest),
	}, nil
}

// Write encodes m to path. The manifest is written to a temporary file
// in the same directory and renamed into place, so readers never see a
// partial manifest.
func Write(path string, m *Manifest) error {
	if m.Version == 0 {
		m.Version = CurrentVersion
	}
	data, err := codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	temporary, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return fmt.Errorf("creating manifest: %w", err)
	}
	temporaryPath := temporary.Name()
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing manifest: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("installing manifest at %s: %w", path, err)
	}
	return nil
}

// Read decodes the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if m.Version > CurrentVersion {
		return nil, fmt.Errorf("manifest %s has version %d, this build reads up to %d", path, m.Version, CurrentVersion)
	}
	return &m, nil
}

// Verify re-hashes the output file and reports whether it still
// matches the manifest.
func (m *Manifest) Verify() error {
	current, err := Describe(m.Output.Path)
	if err != nil {
		return err
	}
	if current.Digest != m.Output.Digest {
		return fmt.Errorf("output %s digest %s does not match manifest digest %s",
			m.Output.Path, current.Digest, m.Output.Digest)
	}
	return nil
}
