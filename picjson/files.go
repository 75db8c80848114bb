/*
 * files.go, part of gopic.
 *
 *
 * Copyright 2024 The gopic Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package picjson

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

//writeCloser closes the compressor and then the file.
type writeCloser struct {
	io.WriteCloser
	f *os.File
}

func (W *writeCloser) Close() error {
	if err := W.WriteCloser.Close(); err != nil {
		W.f.Close()
		return err
	}
	return W.f.Close()
}

//*zstd.Decoder doesn't implement io.ReadCloser.
type zstdReader struct {
	*zstd.Decoder
}

func (z zstdReader) Close() error {
	z.Decoder.Close()
	return nil
}

type readCloser struct {
	io.ReadCloser
	f *os.File
}

func (R *readCloser) Close() error {
	R.ReadCloser.Close()
	return R.f.Close()
}

//Create creates the file name for writing. Names ending in .zst are compressed
//with z-standard and names ending in .gz with gzip. The returned WriteCloser must be
//closed for the data to be flushed.
func Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, NewError("open", "Create", err)
	}
	var w io.WriteCloser
	switch {
	case strings.HasSuffix(name, ".zst"):
		w, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case strings.HasSuffix(name, ".gz"):
		w = gzip.NewWriter(f)
	default:
		return f, nil
	}
	if err != nil {
		f.Close()
		jerr := NewError("open", "Create", err)
		jerr.File = name
		return nil, jerr
	}
	return &writeCloser{WriteCloser: w, f: f}, nil
}

//Open opens the file name, decompressing it if its name ends in .zst or .gz.
//The reader is buffered, and can be passed to ReadField or ReadParticles.
func Open(name string) (*bufio.Reader, io.Closer, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, NewError("open", "Open", err)
	}
	var r io.ReadCloser
	switch {
	case strings.HasSuffix(name, ".zst"):
		var d *zstd.Decoder
		d, err = zstd.NewReader(bufio.NewReader(f))
		if err == nil {
			r = zstdReader{d}
		}
	case strings.HasSuffix(name, ".gz"):
		r, err = gzip.NewReader(bufio.NewReader(f))
	default:
		return bufio.NewReader(f), f, nil
	}
	if err != nil {
		f.Close()
		jerr := NewError("open", "Open", err)
		jerr.File = name
		return nil, nil, jerr
	}
	c := &readCloser{ReadCloser: r, f: f}
	return bufio.NewReader(c), c, nil
}
