// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for msorigin.
//
// Configuration comes from a single file named by either the
// MSORIGIN_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search. Without either, [Load] returns [Default].
//
// The manifest path is expanded after loading: ${HOME} and
// ${VAR:-default} patterns are replaced from the environment.
//
// Key exports:
//
//   - [Config] -- format, buffer size, compression, log level, manifest
//   - [Default] -- the settings used when no file is given
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- reports every invalid field at once
package config
