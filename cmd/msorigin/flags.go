// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/msorigin/lib/square"
	"github.com/bureau-foundation/msorigin/lib/squareio"
)

// onceString is a string flag that may be given at most once.
type onceString struct {
	what  string
	value string
	set   bool
}

func (s *onceString) String() string { return s.value }
func (s *onceString) Type() string   { return "file" }

func (s *onceString) Set(value string) error {
	if s.set {
		return fmt.Errorf("%s given more than once", s.what)
	}
	s.value, s.set = value, true
	return nil
}

// orderFlag is the square order. It backs both -x and -X, so giving
// either twice, or one of each, is an error.
type orderFlag struct {
	value int
	set   bool
}

func (o *orderFlag) String() string {
	if !o.set {
		return ""
	}
	return strconv.Itoa(o.value)
}

func (o *orderFlag) Type() string { return "N" }

func (o *orderFlag) Set(value string) error {
	if o.set {
		return fmt.Errorf("order given more than once")
	}
	order, err := strconv.Atoi(value)
	if err != nil || order < 1 {
		return fmt.Errorf("order must be a positive integer")
	}
	o.value, o.set = order, true
	return nil
}

// choice records which of several mutually exclusive switches was
// given. Each switch is its own pflag bool flag pointing at a shared
// choice.
type choice[T any] struct {
	what  string
	value T
	name  string
}

type choiceSwitch[T any] struct {
	choice *choice[T]
	name   string
	value  T
}

func (s *choiceSwitch[T]) String() string { return "false" }
func (s *choiceSwitch[T]) Type() string   { return "bool" }

func (s *choiceSwitch[T]) Set(value string) error {
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}
	if s.choice.name != "" {
		if s.choice.name == s.name {
			return fmt.Errorf("%s given more than once", s.choice.what)
		}
		return fmt.Errorf("-%s conflicts with -%s: give only one %s", s.name, s.choice.name, s.choice.what)
	}
	s.choice.value, s.choice.name = s.value, s.name
	return nil
}

// addSwitch registers a no-argument flag that selects value.
func addSwitch[T any](flagSet *pflag.FlagSet, c *choice[T], long, short string, value T, usage string) {
	flag := flagSet.VarPF(&choiceSwitch[T]{choice: c, name: short, value: value}, long, short, usage)
	flag.NoOptDefVal = "true"
}

// options is everything the command line can say.
type options struct {
	order  orderFlag
	origin choice[square.Origin]
	format choice[squareio.Format]

	input  onceString
	output onceString

	bufferSquares int
	compression   string
	configPath    string
	manifestPath  string
	logLevel      string
	verifyPath    string

	help        bool
	showVersion bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	opts.origin.what = "origin"
	opts.format.what = "format"
	opts.input.what = "input file"
	opts.output.what = "output file"

	flagSet := pflag.NewFlagSet("msorigin", pflag.ContinueOnError)
	flagSet.SortFlags = false

	flagSet.VarP(&opts.order, "order", "x", "order of the squares (required)")
	flagSet.VarP(&opts.order, "order-upper", "X", "same as -x")
	flagSet.MarkHidden("order-upper")

	addSwitch(flagSet, &opts.origin, "from-zero", "0", square.OriginZero, "convert 0-origin squares to 1-origin")
	addSwitch(flagSet, &opts.origin, "from-one", "1", square.OriginOne, "convert 1-origin squares to 0-origin")

	flagSet.VarP(&opts.input, "input", "i", "input file (required)")
	flagSet.VarP(&opts.output, "output", "o", "output file, overwritten (required)")

	addSwitch(flagSet, &opts.format, "text", "n", squareio.FormatText, "text squares, one per line (default)")
	addSwitch(flagSet, &opts.format, "binary", "b", squareio.FormatPortable, "portable binary squares (32-bit little-endian)")
	addSwitch(flagSet, &opts.format, "host-binary", "h", squareio.FormatHost, "host binary squares (native int)")

	flagSet.IntVarP(&opts.bufferSquares, "buffer", "s", squareio.DefaultBufferSquares, "squares buffered per binary read and write")
	flagSet.StringVar(&opts.compression, "compress", "none", "stream compression for input and output: none, zstd, lz4")
	flagSet.StringVar(&opts.configPath, "config", "", "YAML config file (default $MSORIGIN_CONFIG)")
	flagSet.StringVar(&opts.manifestPath, "manifest", "", "write a CBOR run manifest to this file")
	flagSet.StringVar(&opts.verifyPath, "verify-manifest", "", "check that the output named by a run manifest is unchanged, then exit")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.BoolVarP(&opts.help, "help", "?", false, "show help")

	return flagSet
}
