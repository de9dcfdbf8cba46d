// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// msorigin converts files of magic squares between 0-origin and
// 1-origin numbering. Every cell of every square gains 1 (-0) or loses
// 1 (-1); order and layout are untouched.
//
// Squares may be text (one per line), portable binary (32-bit
// little-endian cells), or host binary (native int cells), optionally
// wrapped in zstd or LZ4 compression. Defaults for format, buffer size,
// compression, log level, and manifest path can come from a YAML file
// named by --config or $MSORIGIN_CONFIG; flags override it.
//
// --verify-manifest FILE reads a manifest written by --manifest and
// checks that the output it records still has the recorded digest.
//
// Exit status is 0 on success, 2 for a command line mistake, and 1 for
// any other failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/msorigin/lib/cli"
	"github.com/bureau-foundation/msorigin/lib/config"
	"github.com/bureau-foundation/msorigin/lib/convert"
	"github.com/bureau-foundation/msorigin/lib/manifest"
	"github.com/bureau-foundation/msorigin/lib/square"
	"github.com/bureau-foundation/msorigin/lib/squareio"
	"github.com/bureau-foundation/msorigin/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintf(os.Stderr, "msorigin: %v\n", err)
		}
		if cli.ExitCode(err) == cli.ExitUsage {
			fmt.Fprintln(os.Stderr, "run 'msorigin --help' for usage")
		}
		os.Exit(cli.ExitCode(err))
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options
	flagSet := newFlagSet(&opts)
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return nil
		}
		return &cli.ExitError{Code: cli.ExitUsage, Err: err}
	}
	if opts.help {
		printHelp(stdout, flagSet)
		return nil
	}
	if opts.showVersion {
		version.Print(stdout, "msorigin")
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return cli.Usage("unexpected argument: %s", rest[0])
	}
	if flagSet.Changed("verify-manifest") {
		return verifyManifest(flagSet, opts.verifyPath, stdout)
	}

	switch {
	case !opts.order.set:
		return cli.Usage("order (-x) is required")
	case opts.origin.name == "":
		return cli.Usage("one of -0 or -1 is required")
	case !opts.input.set || opts.input.value == "":
		return cli.Usage("input file (-i) is required")
	case !opts.output.set || opts.output.value == "":
		return cli.Usage("output file (-o) is required")
	}

	settings, err := loadSettings(flagSet, &opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cli.NewCommandLogger(settings.level).With("command", "msorigin")
	_, err = convert.Run(ctx, convert.Options{
		Order:         opts.order.value,
		From:          opts.origin.value,
		InputPath:     opts.input.value,
		OutputPath:    opts.output.value,
		Format:        settings.format,
		Compression:   settings.compression,
		BufferSquares: settings.bufferSquares,
		ManifestPath:  settings.manifestPath,
		Logger:        logger,
	})
	return err
}

// verifyManifest checks the output recorded by an earlier run's
// manifest against the file now on disk.
func verifyManifest(flagSet *pflag.FlagSet, path string, stdout io.Writer) error {
	if path == "" {
		return cli.Usage("--verify-manifest needs a manifest file")
	}
	for _, name := range []string{"order", "order-upper", "from-zero", "from-one", "input", "output", "manifest"} {
		if flagSet.Changed(name) {
			return cli.Usage("--verify-manifest cannot be combined with --%s", name)
		}
	}
	record, err := manifest.Read(path)
	if err != nil {
		return square.Wrap(square.KindIO, "verify manifest", err)
	}
	if err := record.Verify(); err != nil {
		return square.Wrap(square.KindIO, "verify manifest", err)
	}
	fmt.Fprintf(stdout, "%s: %d squares, digest %s\n", record.Output.Path, record.Squares, record.Output.Digest)
	return nil
}

// settings are the stream settings after merging the config file with
// the command line.
type settings struct {
	format        squareio.Format
	compression   squareio.Compression
	bufferSquares int
	manifestPath  string
	level         slog.Level
}

// loadSettings reads the config file, if any, and lets every flag the
// user actually gave override it. A bad config file is a config error
// (exit 1); a bad flag value is a usage error (exit 2).
func loadSettings(flagSet *pflag.FlagSet, opts *options) (settings, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return settings{}, square.Wrap(square.KindConfig, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return settings{}, square.Wrap(square.KindConfig, "validate config", err)
	}

	if opts.format.name != "" {
		cfg.Format = opts.format.value.String()
	}
	if flagSet.Changed("buffer") {
		if opts.bufferSquares < 1 || opts.bufferSquares > squareio.MaxBufferSquares {
			return settings{}, cli.Usage("buffer (-s) must be between 1 and %d squares, got %d",
				squareio.MaxBufferSquares, opts.bufferSquares)
		}
		cfg.BufferSquares = opts.bufferSquares
	}
	if flagSet.Changed("compress") {
		cfg.Compression = opts.compression
	}
	if flagSet.Changed("manifest") {
		cfg.Manifest = opts.manifestPath
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}

	var result settings
	if result.format, err = squareio.ParseFormat(cfg.Format); err != nil {
		return settings{}, err
	}
	if result.compression, err = squareio.ParseCompression(cfg.Compression); err != nil {
		return settings{}, err
	}
	if result.level, err = cfg.Level(); err != nil {
		return settings{}, cli.Usage("%v", err)
	}
	// Left at the default, the buffer shrinks to fit very large squares.
	if flagSet.Changed("buffer") || cfg.BufferSquares != squareio.DefaultBufferSquares {
		result.bufferSquares = cfg.BufferSquares
	}
	result.manifestPath = cfg.Manifest
	return result, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `msorigin converts magic squares between 0-origin and 1-origin numbering.

Usage:
  msorigin -x N (-0|-1) -i FILE -o FILE [-n|-b|-h] [-s N] [flags]
  msorigin --verify-manifest FILE

Examples:
  # Renumber a text file of order-4 squares from 0..15 to 1..16
  msorigin -x 4 -0 -i squares0.txt -o squares1.txt

  # Same for portable binary, buffering 5000 squares per read
  msorigin -x 4 -0 -b -s 5000 -i squares0.bin -o squares1.bin

  # zstd-compressed host binary, recording a manifest of the run
  msorigin -x 5 -1 -h --compress zstd -i in.zst -o out.zst --manifest run.cbor

  # Later, confirm out.zst still matches that run
  msorigin --verify-manifest run.cbor

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
