// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes BLAKE3 content digests of square files.
//
// A conversion run records the digest of its input and output files in
// the run manifest so a later run (or a different machine) can confirm
// it is looking at the same bytes. Digests cover the file as stored:
// a zstd-compressed output hashes differently from its uncompressed
// twin.
//
// The API surface:
//
//   - [HashFile] -- streams a file through BLAKE3 with constant memory
//   - [HashReader] -- the same for any io.Reader
//   - [FormatDigest] / [ParseDigest] -- canonical hex form
//
// This package has no dependencies on other packages in this module.
package binhash
