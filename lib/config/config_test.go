// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/msorigin/lib/squareio"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "msorigin.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Format != "text" {
		t.Errorf("expected format=text, got %s", cfg.Format)
	}
	if cfg.BufferSquares != 1000 {
		t.Errorf("expected buffer_squares=1000, got %d", cfg.BufferSquares)
	}
	if cfg.Compression != "none" {
		t.Errorf("expected compression=none, got %s", cfg.Compression)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoad_WithoutEnvironmentUsesDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoad_WithEnvironment(t *testing.T) {
	configPath := writeConfig(t, "format: binary\nbuffer_squares: 64\n")
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Format != "binary" {
		t.Errorf("expected format=binary, got %s", cfg.Format)
	}
	if cfg.BufferSquares != 64 {
		t.Errorf("expected buffer_squares=64, got %d", cfg.BufferSquares)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
format: host-binary
buffer_squares: 250
compression: zstd
log_level: debug
manifest: /var/lib/msorigin/run.manifest
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	want := Config{
		Format:        "host-binary",
		BufferSquares: 250,
		Compression:   "zstd",
		LogLevel:      "debug",
		Manifest:      "/var/lib/msorigin/run.manifest",
	}
	if *cfg != want {
		t.Errorf("LoadFile = %+v, want %+v", *cfg, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	level, err := cfg.Level()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("Level() = %v, %v, want debug", level, err)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "compression: lz4\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Format != "text" || cfg.BufferSquares != 1000 || cfg.LogLevel != "info" {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
	if cfg.Compression != "lz4" {
		t.Errorf("expected compression=lz4, got %s", cfg.Compression)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadFile(empty) failed: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("LoadFile(empty) = %+v, want defaults", cfg)
	}
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "buffer_size: 10\n"))
	if err == nil {
		t.Fatal("expected error for unknown key buffer_size")
	}
	if !strings.Contains(err.Error(), "buffer_size") {
		t.Errorf("error %q does not name the unknown key", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("MSORIGIN_TEST_RUNS", "")

	tests := []struct {
		input string
		want  string
	}{
		{"${HOME}/runs/latest.manifest", "/home/tester/runs/latest.manifest"},
		{"${MSORIGIN_TEST_RUNS:-/tmp/runs}/a.manifest", "/tmp/runs/a.manifest"},
		{"${MSORIGIN_TEST_RUNS}/a.manifest", "/a.manifest"},
		{"plain/path", "plain/path"},
	}
	for _, test := range tests {
		if got := expandVars(test.input); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestLoadFile_ExpandsManifest(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg, err := LoadFile(writeConfig(t, "manifest: ${HOME}/last.manifest\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Manifest != "/home/tester/last.manifest" {
		t.Errorf("expected expanded manifest path, got %s", cfg.Manifest)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Format:        "csv",
		BufferSquares: 0,
		Compression:   "gzip",
		LogLevel:      "loud",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"format", "buffer_squares", "compression", "log_level"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("validation error does not mention %s: %v", field, err)
		}
	}
}

func TestValidate_BufferSquaresLimit(t *testing.T) {
	cfg := Default()
	cfg.BufferSquares = squareio.MaxBufferSquares
	if err := cfg.Validate(); err != nil {
		t.Errorf("buffer_squares at the limit rejected: %v", err)
	}

	cfg.BufferSquares = squareio.MaxBufferSquares + 1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected buffer_squares above the limit to fail validation")
	}
	if !strings.Contains(err.Error(), "buffer_squares must be at most") {
		t.Errorf("unexpected error: %v", err)
	}
}
