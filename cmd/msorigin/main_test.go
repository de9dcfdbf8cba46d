// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/msorigin/lib/cli"
	"github.com/bureau-foundation/msorigin/lib/manifest"
	"github.com/bureau-foundation/msorigin/lib/square"
	"github.com/bureau-foundation/msorigin/lib/squareio"
	"github.com/bureau-foundation/msorigin/lib/testutil"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MSORIGIN_CONFIG", "")
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.txt", "0 1 2 3\n")
	output := filepath.Join(dir, "out.txt")
	files := []string{"-i", input, "-o", output}

	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"missing order", append([]string{"-0"}, files...)},
		{"missing origin", append([]string{"-x", "2"}, files...)},
		{"missing input", []string{"-x", "2", "-0", "-o", output}},
		{"missing output", []string{"-x", "2", "-0", "-i", input}},
		{"order twice", append([]string{"-x", "2", "-x", "2", "-0"}, files...)},
		{"order through both spellings", append([]string{"-x", "2", "-X", "2", "-0"}, files...)},
		{"order zero", append([]string{"-x", "0", "-0"}, files...)},
		{"order not a number", append([]string{"-x", "four", "-0"}, files...)},
		{"both origins", append([]string{"-x", "2", "-0", "-1"}, files...)},
		{"origin twice", append([]string{"-x", "2", "-1", "-1"}, files...)},
		{"two formats", append([]string{"-x", "2", "-0", "-n", "-b"}, files...)},
		{"format twice", append([]string{"-x", "2", "-0", "-h", "-h"}, files...)},
		{"input twice", []string{"-x", "2", "-0", "-i", input, "-i", input, "-o", output}},
		{"output twice", []string{"-x", "2", "-0", "-i", input, "-o", output, "-o", output}},
		{"zero buffer", append([]string{"-x", "2", "-0", "-s", "0"}, files...)},
		{"buffer past the byte limit", append([]string{"-x", "2", "-0", "-s", "576460752303423488"}, files...)},
		{"buffer overflowing the allocation", append([]string{"-x", "2", "-0", "-h", "-s", "1125899906842624"}, files...)},
		{"unknown compression", append([]string{"-x", "2", "-0", "--compress", "gzip"}, files...)},
		{"unknown log level", append([]string{"-x", "2", "-0", "--log-level", "loud"}, files...)},
		{"unknown flag", append([]string{"-x", "2", "-0", "-q"}, files...)},
		{"positional argument", append([]string{"-x", "2", "-0", "extra"}, files...)},
		{"same input and output", []string{"-x", "2", "-0", "-i", input, "-o", input}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := runCommand(t, test.args...)
			if code := cli.ExitCode(err); code != cli.ExitUsage {
				t.Errorf("run(%q) = %v (exit %d), want exit %d", test.args, err, code, cli.ExitUsage)
			}
		})
	}

	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("a usage error created the output file: %v", err)
	}
}

func TestHelpAndVersion(t *testing.T) {
	for _, flag := range []string{"--help", "-?"} {
		stdout, err := runCommand(t, flag)
		if err != nil {
			t.Fatalf("run(%s) = %v", flag, err)
		}
		if !strings.Contains(stdout, "Usage:") || !strings.Contains(stdout, "--compress") {
			t.Errorf("run(%s) printed %q, want usage with flags", flag, stdout)
		}
		if strings.Contains(stdout, "order-upper") {
			t.Errorf("help shows the hidden -X flag")
		}
	}

	stdout, err := runCommand(t, "--version")
	if err != nil {
		t.Fatalf("run(--version) = %v", err)
	}
	if !strings.HasPrefix(stdout, "msorigin ") {
		t.Errorf("run(--version) printed %q", stdout)
	}
}

func TestConvertText(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.txt", "2 7 6 9 5 1 4 3 8\n")
	output := filepath.Join(dir, "out.txt")

	if _, err := runCommand(t, "-X", "3", "-1", "-i", input, "-o", output); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if want := "1 6 5 8 4 0 3 2 7\n"; string(data) != want {
		t.Errorf("output = %q, want %q", data, want)
	}
}

func TestConvertBinaryWithManifest(t *testing.T) {
	dir := t.TempDir()
	inputConfig := testutil.Config(t, 2, square.OriginZero)
	input := testutil.WriteRecords(t, dir, inputConfig, square.Host, testutil.SequentialSquares(inputConfig, 7))
	output := filepath.Join(dir, "out.bin")
	manifestPath := filepath.Join(dir, "run.manifest")

	_, err := runCommand(t, "-x2", "-0", "-h", "-s", "3", "-i", input, "-o", output, "--manifest", manifestPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	outputConfig := testutil.Config(t, 2, square.OriginOne)
	testutil.RequireSquares(t, testutil.ReadRecords(t, output, outputConfig, square.Host),
		testutil.SequentialSquares(outputConfig, 7))

	record, err := manifest.Read(manifestPath)
	if err != nil {
		t.Fatalf("manifest.Read: %v", err)
	}
	if record.Format != "host-binary" || record.BufferSquares != 3 || record.Squares != 7 {
		t.Errorf("manifest = %+v", record)
	}
}

func TestVerifyManifest(t *testing.T) {
	dir := t.TempDir()
	inputConfig := testutil.Config(t, 3, square.OriginOne)
	input := testutil.WriteRecords(t, dir, inputConfig, square.Portable, testutil.SequentialSquares(inputConfig, 5))
	output := filepath.Join(dir, "out.bin")
	manifestPath := filepath.Join(dir, "run.manifest")

	if _, err := runCommand(t, "-x3", "-1", "-b", "-i", input, "-o", output, "--manifest", manifestPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	stdout, err := runCommand(t, "--verify-manifest", manifestPath)
	if err != nil {
		t.Fatalf("verify unchanged output: %v", err)
	}
	if !strings.Contains(stdout, output) || !strings.Contains(stdout, "5 squares") {
		t.Errorf("verify printed %q", stdout)
	}

	if _, err := runCommand(t, "--verify-manifest", manifestPath, "-i", input); cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("verify with -i = %v, want a usage error", err)
	}

	if err := os.WriteFile(output, []byte("tampered"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err = runCommand(t, "--verify-manifest", manifestPath)
	if code := cli.ExitCode(err); code != cli.ExitFailure {
		t.Fatalf("verify changed output = %v (exit %d), want exit %d", err, code, cli.ExitFailure)
	}
	if !strings.Contains(err.Error(), "does not match") {
		t.Errorf("unexpected error: %v", err)
	}

	_, err = runCommand(t, "--verify-manifest", filepath.Join(dir, "absent.manifest"))
	if code := cli.ExitCode(err); code != cli.ExitFailure {
		t.Errorf("verify missing manifest = %v (exit %d), want exit %d", err, code, cli.ExitFailure)
	}
}

func TestDefaultBufferFitsLargeSquares(t *testing.T) {
	dir := t.TempDir()
	const order = 100
	inputConfig := testutil.Config(t, order, square.OriginZero)
	input := testutil.WriteRecords(t, dir, inputConfig, square.Host, testutil.SequentialSquares(inputConfig, 1))
	output := filepath.Join(dir, "out.bin")
	manifestPath := filepath.Join(dir, "run.manifest")

	// 1000 squares of this order would need more than the byte limit.
	_, err := runCommand(t, "-x", "100", "-0", "-h", "-s", "1000", "-i", input, "-o", output)
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Fatalf("explicit -s 1000 = %v (exit %d), want exit %d", err, code, cli.ExitUsage)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("a rejected buffer size created the output file: %v", err)
	}

	if _, err := runCommand(t, "-x", "100", "-0", "-h", "-i", input, "-o", output, "--manifest", manifestPath); err != nil {
		t.Fatalf("run with default buffer: %v", err)
	}
	outputConfig := testutil.Config(t, order, square.OriginOne)
	testutil.RequireSquares(t, testutil.ReadRecords(t, output, outputConfig, square.Host),
		testutil.SequentialSquares(outputConfig, 1))

	record, err := manifest.Read(manifestPath)
	if err != nil {
		t.Fatalf("manifest.Read: %v", err)
	}
	want := squareio.MaxBufferBytes / outputConfig.RecordSize(square.Host)
	if record.BufferSquares != want {
		t.Errorf("manifest buffer_squares = %d, want %d", record.BufferSquares, want)
	}
}

func TestConfigFileSuppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "msorigin.yaml", "format: binary\nbuffer_squares: 2\ncompression: zstd\n")
	inputConfig := testutil.Config(t, 3, square.OriginOne)
	rawInput := testutil.WriteRecords(t, dir, inputConfig, square.Portable, testutil.SequentialSquares(inputConfig, 4))

	// The config says zstd; override it on the command line for the
	// uncompressed fixture.
	output := filepath.Join(dir, "out.bin")
	_, err := runCommand(t, "--config", configPath, "--compress", "none", "-x", "3", "-1", "-i", rawInput, "-o", output)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	outputConfig := testutil.Config(t, 3, square.OriginZero)
	testutil.RequireSquares(t, testutil.ReadRecords(t, output, outputConfig, square.Portable),
		testutil.SequentialSquares(outputConfig, 4))

	// A format flag overrides the file's format.
	textInput := writeFile(t, dir, "in.txt", "1 2 3 4 5 6 7 8 9\n")
	textOutput := filepath.Join(dir, "out.txt")
	_, err = runCommand(t, "--config", configPath, "--compress", "none", "-n", "-x", "3", "-1", "-i", textInput, "-o", textOutput)
	if err != nil {
		t.Fatalf("run with -n: %v", err)
	}
	data, err := os.ReadFile(textOutput)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "0 1 2 3 4 5 6 7 8\n" {
		t.Errorf("output = %q", data)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "msorigin.yaml", "format: binary\n")
	inputConfig := testutil.Config(t, 2, square.OriginZero)
	input := testutil.WriteRecords(t, dir, inputConfig, square.Portable, testutil.SequentialSquares(inputConfig, 2))
	output := filepath.Join(dir, "out.bin")

	t.Setenv("MSORIGIN_CONFIG", configPath)
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-x", "2", "-0", "-i", input, "-o", output}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	outputConfig := testutil.Config(t, 2, square.OriginOne)
	testutil.RequireSquares(t, testutil.ReadRecords(t, output, outputConfig, square.Portable),
		testutil.SequentialSquares(outputConfig, 2))
}

func TestFailuresExitOne(t *testing.T) {
	dir := t.TempDir()
	badConfig := writeFile(t, dir, "bad.yaml", "buffer_squares: -3\n")
	unknownKey := writeFile(t, dir, "typo.yaml", "fromat: text\n")
	truncated := writeFile(t, dir, "short.bin", "\x01\x00\x00")
	output := filepath.Join(dir, "out")

	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"-x", "2", "-0", "-i", filepath.Join(dir, "absent"), "-o", output}},
		{"truncated input", []string{"-x", "1", "-0", "-b", "-i", truncated, "-o", output}},
		{"invalid config", []string{"--config", badConfig, "-x", "1", "-0", "-i", truncated, "-o", output}},
		{"unknown config key", []string{"--config", unknownKey, "-x", "1", "-0", "-i", truncated, "-o", output}},
		{"missing config", []string{"--config", filepath.Join(dir, "none.yaml"), "-x", "1", "-0", "-i", truncated, "-o", output}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := runCommand(t, test.args...)
			if code := cli.ExitCode(err); code != cli.ExitFailure {
				t.Errorf("run(%q) = %v (exit %d), want exit %d", test.args, err, code, cli.ExitFailure)
			}
		})
	}
}
