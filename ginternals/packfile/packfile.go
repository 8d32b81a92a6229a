// Package packfile contains methods and structs to read packfiles
//
// The packfile contains a header, a content, and a footer
// Header: 12 bytes
//         The first 4 bytes contain the magic ('P', 'A', 'C', 'K')
//         The next 4 bytes contain the version (0, 0, 0, 2)
//         The last 4 bytes contain the number of objects in the packfile
// Content: Variable size
//          The content contains all the objects of the packfile, each
//          zlib compressed.
//          Before every zlib compressed object comes a few bytes of
//          metadata about the object (the type and size of the object).
//          The size of the metadata is variable, so every byte contains
//          a MSB (Most Significant bit, the most left bit of a byte)
//          that indicates if the next byte is also part of the size or
//          not.
//          The very first byte of the metadata contains:
//          - The MSB (1 bit)
//          - The type of the object (3 bits)
//          - The beginning of the size (4 bits)
//          The subsequent bytes contain:
//          - The MSB (1 bit)
//          - The next part of the size (7 bits)
//          The chunks of the size are little-endian encoded.
//          /!\ The size of the object cannot be used to extract the
//          object. The size corresponds to the real size of the object
//          and not the size of the zlib compressed object. Only zlib's
//          own framing tells us where an entry ends.
// Footer: 20 bytes
//         Contains the SHA1 sum of the packfile (without this SHA)
// https://git-scm.com/docs/gitformat-pack
package packfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/grit-scm/grit/internal/zlibutil"
	"golang.org/x/xerrors"
)

const (
	// packfileHeaderSize contains the size of the header of a
	// packfile: 4 bytes of magic, 4 bytes of version, and 4 bytes for
	// the number of objects
	packfileHeaderSize = 12

	// packfileVersion is the only version this decoder supports
	packfileVersion = 2
)

func packfileMagic() []byte {
	return []byte{'P', 'A', 'C', 'K'}
}

var (
	// ErrIntOverflow is an error thrown when the packfile couldn't
	// be parsed because some data couldn't fit in an int64
	ErrIntOverflow = errors.New("int64 overflow")

	// ErrInvalidMagic is an error thrown when a stream doesn't have
	// the expected magic
	ErrInvalidMagic = errors.New("invalid magic")

	// ErrInvalidVersion is an error thrown when a packfile has an
	// unsupported version
	ErrInvalidVersion = errors.New("invalid version")

	// ErrChecksumMismatch is an error thrown when the SHA1 sum stored
	// in the packfile footer doesn't match the packfile content
	ErrChecksumMismatch = errors.New("packfile checksum mismatch")

	// ErrUnsupportedObjectType is an error thrown when a packfile
	// entry has a type we cannot decode (including ofs-delta)
	ErrUnsupportedObjectType = errors.New("unsupported object type")

	// ErrObjectCountMismatch is an error thrown when the packfile
	// doesn't contain as many objects as its header advertises
	ErrObjectCountMismatch = errors.New("object count mismatch")
)

// BaseFunc looks up a delta base that is not part of the packfile
// being decoded, typically in the local object database.
// It must return ginternals.ErrObjectNotFound for unknown oids
type BaseFunc func(oid ginternals.Oid) (*object.Object, error)

// entry represents a single packfile entry while it's being decoded.
// An entry is either already a full object, or a ref-delta waiting
// for its base
type entry struct {
	o      *object.Object
	baseID ginternals.Oid
	delta  []byte
}

// Unpack decodes every object contained in a raw packfile, resolving
// ref-deltas along the way, and returns the objects in packfile order.
//
// findBase may be nil if deltas can only target objects of the same
// pack. Deltas may target bases that appear later in the pack, so
// resolution runs over the decoded entries until it stops making
// progress
func Unpack(data []byte, findBase BaseFunc) ([]*object.Object, error) {
	if len(data) < packfileHeaderSize+ginternals.OidSize {
		return nil, xerrors.Errorf("stream of %d bytes is too short to be a packfile: %w", len(data), ErrInvalidMagic)
	}

	// The footer is checked first: there's no point in parsing
	// anything if the stream is corrupted
	content := data[:len(data)-ginternals.OidSize]
	trailer := data[len(data)-ginternals.OidSize:]
	if ginternals.NewOidFromContent(content) != mustOid(trailer) {
		return nil, ErrChecksumMismatch
	}

	if !bytes.Equal(data[0:4], packfileMagic()) {
		return nil, xerrors.Errorf("invalid header: %w", ErrInvalidMagic)
	}
	if version := binary.BigEndian.Uint32(data[4:8]); version != packfileVersion {
		return nil, xerrors.Errorf("version %d not supported: %w", version, ErrInvalidVersion)
	}
	objectCount := binary.BigEndian.Uint32(data[8:12])

	r := bytes.NewReader(content[packfileHeaderSize:])
	entries := make([]*entry, 0, objectCount)
	for i := uint32(0); i < objectCount; i++ {
		e, err := readEntry(r)
		if err != nil {
			return nil, xerrors.Errorf("could not read object %d of %d: %w", i+1, objectCount, err)
		}
		entries = append(entries, e)
	}
	if r.Len() != 0 {
		return nil, xerrors.Errorf("%d trailing bytes after the last object: %w", r.Len(), ErrObjectCountMismatch)
	}

	if err := resolveDeltas(entries, findBase); err != nil {
		return nil, err
	}

	out := make([]*object.Object, len(entries))
	for i, e := range entries {
		out[i] = e.o
	}
	return out, nil
}

// readEntry decodes a single entry at the current position of r
func readEntry(r *bytes.Reader) (*entry, error) {
	typ, size, err := readEntryHeader(r)
	if err != nil {
		return nil, err
	}

	switch typ {
	case object.TypeCommit, object.TypeTree, object.TypeBlob, object.TypeTag:
		content, _, err := zlibutil.DecompressStream(r)
		if err != nil {
			return nil, xerrors.Errorf("could not decompress object: %w", err)
		}
		if uint64(len(content)) != size {
			return nil, xerrors.Errorf("object advertised as size %d, but has %d: %w", size, len(content), object.ErrSizeMismatch)
		}
		return &entry{o: object.New(typ, content)}, nil
	case object.ObjectDeltaRef:
		rawOid := make([]byte, ginternals.OidSize)
		if _, err := io.ReadFull(r, rawOid); err != nil {
			return nil, xerrors.Errorf("could not read the base object SHA: %w", err)
		}
		baseID, err := ginternals.NewOidFromHex(rawOid)
		if err != nil {
			return nil, xerrors.Errorf("could not parse the base object SHA: %w", err)
		}
		delta, _, err := zlibutil.DecompressStream(r)
		if err != nil {
			return nil, xerrors.Errorf("could not decompress delta: %w", err)
		}
		return &entry{baseID: baseID, delta: delta}, nil
	case object.ObjectDeltaOFS:
		return nil, xerrors.Errorf("ofs-delta: %w", ErrUnsupportedObjectType)
	default:
		return nil, xerrors.Errorf("type id %d: %w", typ, ErrUnsupportedObjectType)
	}
}

// readEntryHeader parses the variable-length metadata in front of
// every packfile entry and returns the object type and the
// uncompressed size.
//
// To extract the type (bits 2, 3, and 4 of the first byte) we apply a
// mask to unset all the bits we don't want, then we move our 3 bits
// to the right:
// value       : MTTT_SSSS // M = MSB ; T = type ; S = size
// & 0111_0000 : 0TTT_0000
// >> 4        : 0000_0TTT
// The first part of the size is on the last 4 bits of the first byte,
// every following byte contributes 7 more bits, little-endian
func readEntryHeader(r *bytes.Reader) (object.Type, uint64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, xerrors.Errorf("could not read object header: %w", err)
	}

	typ := object.Type((b & 0b_0111_0000) >> 4)
	size := uint64(b & 0b_0000_1111)

	shift := uint(4)
	for isMSBSet(b) {
		if b, err = r.ReadByte(); err != nil {
			return 0, 0, xerrors.Errorf("could not read object size: %w", err)
		}
		if shift > 63 {
			return 0, 0, ErrIntOverflow
		}
		size |= uint64(unsetMSB(b)) << shift
		shift += 7
	}

	return typ, size, nil
}

// resolveDeltas turns every delta entry into a full object.
//
// A delta may target a base that (a) already exists in the odb,
// (b) appeared earlier in the pack, or (c) appears later in the pack,
// possibly as another delta. We keep looping over the unresolved
// entries until a full pass resolves nothing, which either means
// we're done or that a base is genuinely missing
func resolveDeltas(entries []*entry, findBase BaseFunc) error {
	resolved := map[ginternals.Oid]*object.Object{}
	pending := 0
	for _, e := range entries {
		if e.o != nil {
			resolved[e.o.ID()] = e.o
		} else {
			pending++
		}
	}

	for pending > 0 {
		progressed := false
		for _, e := range entries {
			if e.o != nil {
				continue
			}
			base, ok := resolved[e.baseID]
			if !ok && findBase != nil {
				o, err := findBase(e.baseID)
				if err != nil {
					if errors.Is(err, ginternals.ErrObjectNotFound) {
						continue
					}
					return xerrors.Errorf("could not look up base object %s: %w", e.baseID.String(), err)
				}
				base = o
			}
			if base == nil {
				continue
			}

			o, err := applyDelta(base, e.delta)
			if err != nil {
				return xerrors.Errorf("could not apply delta on %s: %w", e.baseID.String(), err)
			}
			e.o = o
			e.delta = nil
			resolved[o.ID()] = o
			pending--
			progressed = true
		}
		if !progressed {
			return xerrors.Errorf("%d deltas have no reachable base: %w", pending, ginternals.ErrObjectNotFound)
		}
	}
	return nil
}

func mustOid(raw []byte) ginternals.Oid {
	oid, _ := ginternals.NewOidFromHex(raw)
	return oid
}

// isMSBSet checks if the MSB of a byte is set to 1.
// The MSB is the first bit on the left
func isMSBSet(b byte) bool {
	return b >= 0b_1000_0000
}

// unsetMSB sets the most left bit of the byte to 0
func unsetMSB(b byte) byte {
	// To make any bit turn to 0 we can use a mask and a AND operator:
	// value       : XXXX_XXXX
	// & 0111_1111 : 0XXX_XXXX
	return b & 0b_0111_1111
}
