// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/msorigin/lib/squareio"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "MSORIGIN_CONFIG"

// Config holds the settings a conversion run takes from its config
// file. Command line flags override every field.
type Config struct {
	// Format is the on-disk square format: "text", "binary" (portable
	// 32-bit little-endian), or "host-binary" (native int width).
	// Default: text
	Format string `yaml:"format"`

	// BufferSquares is how many squares the binary reader and writer
	// buffer between system calls. The default is lowered for squares
	// too large to buffer 1000 of within squareio.MaxBufferBytes.
	// Default: 1000
	BufferSquares int `yaml:"buffer_squares"`

	// Compression wraps input and output streams: "none", "zstd", or
	// "lz4". Compressed input is never detected; it must be declared.
	// Default: none
	Compression string `yaml:"compression"`

	// LogLevel is the minimum level logged to stderr: debug, info,
	// warn, or error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// Manifest, when set, is the path a CBOR run manifest is written
	// to after every successful conversion.
	Manifest string `yaml:"manifest"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Format:        squareio.FormatText.String(),
		BufferSquares: squareio.DefaultBufferSquares,
		Compression:   squareio.CompressionNone.String(),
		LogLevel:      "info",
	}
}

// Load loads configuration from the file named by MSORIGIN_CONFIG. When
// the variable is unset the built-in defaults are returned; no other
// location is searched.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, on top of
// [Default]. Unknown keys are rejected so a misspelled setting fails
// loudly instead of silently keeping its default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Manifest = expandVars(cfg.Manifest)
	return cfg, nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration and reports every problem found,
// not just the first.
func (c *Config) Validate() error {
	var errs []error

	if _, err := squareio.ParseFormat(c.Format); err != nil {
		errs = append(errs, fmt.Errorf("format: %w", err))
	}

	if c.BufferSquares < 1 {
		errs = append(errs, fmt.Errorf("buffer_squares must be at least 1, got %d", c.BufferSquares))
	} else if c.BufferSquares > squareio.MaxBufferSquares {
		errs = append(errs, fmt.Errorf("buffer_squares must be at most %d, got %d", squareio.MaxBufferSquares, c.BufferSquares))
	}

	if _, err := squareio.ParseCompression(c.Compression); err != nil {
		errs = append(errs, fmt.Errorf("compression: %w", err))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
