// Package testhelper contains helpers shared by tests, most notably
// a packfile builder since the decoder only ever reads packs
package testhelper

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/grit-scm/grit/internal/zlibutil"
	"github.com/stretchr/testify/require"
)

// PackEntry describes a single entry of a pack to build.
// For a regular object Content is the object's content; for a
// ref-delta Content is the raw delta stream and BaseID the oid of
// the base object
type PackEntry struct {
	Typ     object.Type
	Content []byte
	BaseID  ginternals.Oid
}

// BuildPack assembles a valid version 2 packfile containing the
// given entries, in order, with a correct trailing checksum
func BuildPack(t *testing.T, entries []PackEntry) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	buf.WriteString("PACK")

	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], 2)
	binary.BigEndian.PutUint32(header[4:8], uint32(len(entries)))
	buf.Write(header)

	for _, e := range entries {
		buf.Write(encodeEntryHeader(e.Typ, uint64(len(e.Content))))
		if e.Typ == object.ObjectDeltaRef {
			buf.Write(e.BaseID.Bytes())
		}
		compressed, err := zlibutil.Compress(e.Content)
		require.NoError(t, err)
		buf.Write(compressed)
	}

	trailer := ginternals.NewOidFromContent(buf.Bytes())
	buf.Write(trailer.Bytes())
	return buf.Bytes()
}

// encodeEntryHeader encodes the variable-length (type, size) metadata
// that precedes every packfile entry: 4 bits of size and the type in
// the first byte, then 7 bits of size per continuation byte,
// little-endian
func encodeEntryHeader(typ object.Type, size uint64) []byte {
	b := byte(typ)<<4 | byte(size&0b_0000_1111)
	size >>= 4

	out := []byte{}
	for size > 0 {
		out = append(out, b|0b_1000_0000)
		b = byte(size & 0b_0111_1111)
		size >>= 7
	}
	return append(out, b)
}

// EncodeDeltaSize encodes n the way delta headers store their source
// and target sizes: 7 bits per byte, little-endian, MSB as
// continuation marker
func EncodeDeltaSize(n uint64) []byte {
	out := []byte{}
	for {
		b := byte(n & 0b_0111_1111)
		n >>= 7
		if n > 0 {
			b |= 0b_1000_0000
		}
		out = append(out, b)
		if n == 0 {
			return out
		}
	}
}

// InsertOnlyDelta builds a delta stream that reconstructs target from
// base using only INSERT instructions
func InsertOnlyDelta(base, target []byte) []byte {
	out := []byte{}
	out = append(out, EncodeDeltaSize(uint64(len(base)))...)
	out = append(out, EncodeDeltaSize(uint64(len(target)))...)

	for len(target) > 0 {
		chunk := len(target)
		if chunk > 127 {
			chunk = 127
		}
		out = append(out, byte(chunk))
		out = append(out, target[:chunk]...)
		target = target[chunk:]
	}
	return out
}
