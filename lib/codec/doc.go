// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the module's CBOR encoding configuration.
//
// CBOR is used for run manifests: small structured records written
// next to a conversion's output. Square payloads themselves never go
// through CBOR; they use the fixed record layouts in lib/square.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same logical manifest always produces identical bytes:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types serialized here carry `cbor` struct tags.
package codec
