package packfile

import (
	"bytes"
	"errors"

	"github.com/grit-scm/grit/ginternals/object"
	"golang.org/x/xerrors"
)

var (
	// ErrDeltaBaseSizeMismatch is an error thrown when the source
	// size stored in a delta doesn't match the size of the base
	// object it is applied to
	ErrDeltaBaseSizeMismatch = errors.New("delta base size mismatch")

	// ErrDeltaTargetSizeMismatch is an error thrown when applying a
	// delta doesn't produce as many bytes as the delta advertised
	ErrDeltaTargetSizeMismatch = errors.New("delta target size mismatch")

	// ErrDeltaCopyOutOfBounds is an error thrown when a COPY
	// instruction points outside of the base object
	ErrDeltaCopyOutOfBounds = errors.New("delta copy out of bounds")

	// ErrDeltaBadInstruction is an error thrown when a delta contains
	// the reserved all-zero instruction or is truncated mid
	// instruction
	ErrDeltaBadInstruction = errors.New("invalid delta instruction")
)

// copyLenZero is the copy length to use when a COPY instruction
// carries a length of 0
const copyLenZero = 0x10000

// applyDelta reconstructs a full object by running a delta program
// against its base.
//
// The format of a delta is:
// - The size of the source (variable length)
// - The size of the target (variable length)
// - A set of COPY and INSERT instructions, until the stream is
//   exhausted
// https://git-scm.com/docs/pack-format#_deltified_representation
//
// The reconstructed object inherits the type of its base
func applyDelta(base *object.Object, delta []byte) (*object.Object, error) {
	r := bytes.NewReader(delta)

	srcSize, err := readDeltaSize(r)
	if err != nil {
		return nil, xerrors.Errorf("couldn't read the source size: %w", err)
	}
	if srcSize != uint64(base.Size()) {
		return nil, xerrors.Errorf("expected a base of %d bytes, got %d: %w", srcSize, base.Size(), ErrDeltaBaseSizeMismatch)
	}
	dstSize, err := readDeltaSize(r)
	if err != nil {
		return nil, xerrors.Errorf("couldn't read the target size: %w", err)
	}

	baseContent := base.Bytes()
	out := bytes.Buffer{}
	out.Grow(int(dstSize))

	for r.Len() > 0 {
		instr, _ := r.ReadByte()

		// There are 2 types of instruction: COPY and INSERT.
		// If the MSB of the byte is 1 it's a COPY, otherwise it's an
		// INSERT
		switch {
		case isMSBSet(instr):
			// COPY. The low 7 bits are a flag field telling which of
			// the 4 offset bytes and 3 length bytes follow, little
			// endian: bit 0 -> offset byte 0, ..., bit 4 -> length
			// byte 0, ... Absent bytes are 0
			var offset, length uint64
			for bit := uint(0); bit < 4; bit++ {
				if (instr>>bit)&1 == 1 {
					b, err := r.ReadByte()
					if err != nil {
						return nil, xerrors.Errorf("truncated COPY offset: %w", ErrDeltaBadInstruction)
					}
					offset |= uint64(b) << (bit * 8)
				}
			}
			for bit := uint(4); bit < 7; bit++ {
				if (instr>>bit)&1 == 1 {
					b, err := r.ReadByte()
					if err != nil {
						return nil, xerrors.Errorf("truncated COPY length: %w", ErrDeltaBadInstruction)
					}
					length |= uint64(b) << ((bit - 4) * 8)
				}
			}
			// a length of 0 means 0x10000, there would be no point
			// in copying nothing
			if length == 0 {
				length = copyLenZero
			}
			if offset+length > uint64(len(baseContent)) {
				return nil, xerrors.Errorf("copy of %d bytes at offset %d on a base of %d bytes: %w", length, offset, len(baseContent), ErrDeltaCopyOutOfBounds)
			}
			out.Write(baseContent[offset : offset+length])
		case instr == 0:
			// 0 is reserved
			return nil, ErrDeltaBadInstruction
		default:
			// INSERT. The byte itself is the number of bytes to read
			// from the delta and append to the output
			if int(instr) > r.Len() {
				return nil, xerrors.Errorf("truncated INSERT of %d bytes: %w", instr, ErrDeltaBadInstruction)
			}
			chunk := make([]byte, instr)
			_, _ = r.Read(chunk)
			out.Write(chunk)
		}
	}

	if uint64(out.Len()) != dstSize {
		return nil, xerrors.Errorf("expected %d bytes, produced %d: %w", dstSize, out.Len(), ErrDeltaTargetSizeMismatch)
	}
	return object.New(base.Type(), out.Bytes()), nil
}

// readDeltaSize reads one of the variable-length sizes found at the
// start of a delta. Each byte contributes 7 bits, little-endian, and
// the MSB tells whether another byte follows
func readDeltaSize(r *bytes.Reader) (uint64, error) {
	var size uint64
	shift := uint(0)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, ErrDeltaBadInstruction
		}
		if shift > 63 {
			return 0, ErrIntOverflow
		}
		size |= uint64(unsetMSB(b)) << shift
		shift += 7
		if !isMSBSet(b) {
			break
		}
	}
	return size, nil
}
