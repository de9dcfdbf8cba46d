// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds the pieces every msorigin entry point shares: the
// stderr logger and the mapping from returned errors to exit codes.
package cli
