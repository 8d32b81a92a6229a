// Package zlibutil wraps the zlib codec used for loose objects and
// packfile entries
package zlibutil

import (
	"bytes"
	"io"

	"github.com/grit-scm/grit/internal/errutil"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/xerrors"
)

// Compress returns the zlib compression of data, using the default
// compression level so identical inputs always produce identical
// outputs
func Compress(data []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zlib.NewWriter(buf)

	if _, err := zw.Write(data); err != nil {
		return nil, xerrors.Errorf("could not compress data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, xerrors.Errorf("could not flush the compressor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates a single zlib stream read from r
func Decompress(r io.Reader) (out []byte, err error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, xerrors.Errorf("could not create zlib reader: %w", err)
	}
	defer errutil.Close(zr, &err)

	buf := new(bytes.Buffer)
	if _, err = io.Copy(buf, zr); err != nil {
		return nil, xerrors.Errorf("could not decompress data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressStream inflates the zlib stream found at the current
// position of r and reports how many input bytes the stream used.
//
// The consumed count is what lets a packfile reader move its cursor
// past an entry: the compressed size of an entry is not stored
// anywhere, zlib's own framing is the only delimiter. This relies on
// r being an io.ByteReader (bytes.Reader is), which guarantees the
// inflater never reads past the end of the stream.
func DecompressStream(r *bytes.Reader) (out []byte, consumed int, err error) {
	before := r.Len()
	data, err := Decompress(r)
	if err != nil {
		return nil, 0, err
	}
	return data, before - r.Len(), nil
}
