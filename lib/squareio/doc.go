// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package squareio streams squares through files.
//
// [Reader] and [Writer] move headerless binary records (see
// [square.Width]) through an internal buffer of whole records. The
// reader fetches bufferSquares records per refill and decodes from the
// buffer; the writer encodes into its buffer and writes it out when
// full and on Close:
//
//	reader, err := squareio.OpenReader(input, config, square.Portable)
//	if err != nil {
//	    return err
//	}
//	defer reader.Close()
//	reader.SetBufferCapacity(2000)
//
//	sq := config.NewSquare()
//	for {
//	    err := reader.ReadNext(sq)
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
//
// End of stream is io.EOF. A file that ends inside a record yields
// every whole record and then [square.ErrTruncatedRecord], never a
// short or padded square.
//
// [TextReader] and [TextWriter] do the same for one-line-per-square
// text, and [OpenFormatReader]/[OpenFormatWriter] pick the right
// implementation for a [Format].
//
// Any stream can be wrapped in zstd or LZ4 compression with
// [WithCompression]. Compression is a property of how the file was
// written, not something the reader detects, so both sides must agree.
package squareio
