package packfile_test

import (
	"testing"

	"github.com/grit-scm/grit/ginternals/object"
	"github.com/grit-scm/grit/ginternals/packfile"
	"github.com/grit-scm/grit/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unpackDelta runs a single hand-crafted delta against a base by
// packing both into a minimal packfile
func unpackDelta(t *testing.T, base *object.Object, delta []byte) ([]*object.Object, error) {
	t.Helper()

	pack := testhelper.BuildPack(t, []testhelper.PackEntry{
		{Typ: base.Type(), Content: base.Bytes()},
		{Typ: object.ObjectDeltaRef, BaseID: base.ID(), Content: delta},
	})
	return packfile.Unpack(pack, nil)
}

// rawDelta builds a delta stream from a source size, a target size,
// and raw instruction bytes
func rawDelta(srcSize, dstSize uint64, instructions ...byte) []byte {
	out := testhelper.EncodeDeltaSize(srcSize)
	out = append(out, testhelper.EncodeDeltaSize(dstSize)...)
	return append(out, instructions...)
}

func TestApplyDeltaCopy(t *testing.T) {
	t.Parallel()

	base := object.New(object.TypeBlob, []byte("0123456789abcdef"))

	t.Run("COPY with offset and length bytes", func(t *testing.T) {
		t.Parallel()

		// 0b_1001_0001: COPY, offset byte 0 present, length byte 0
		// present. offset=4 length=5
		delta := rawDelta(16, 5, 0b_1001_0001, 0x04, 0x05)
		objects, err := unpackDelta(t, base, delta)
		require.NoError(t, err)
		assert.Equal(t, []byte("45678"), objects[1].Bytes())
	})

	t.Run("COPY with no offset byte defaults to offset 0", func(t *testing.T) {
		t.Parallel()

		// 0b_1001_0000: COPY, only length byte 0 present
		delta := rawDelta(16, 3, 0b_1001_0000, 0x03)
		objects, err := unpackDelta(t, base, delta)
		require.NoError(t, err)
		assert.Equal(t, []byte("012"), objects[1].Bytes())
	})

	t.Run("COPY mixed with INSERT", func(t *testing.T) {
		t.Parallel()

		// INSERT "xy" then COPY 4 bytes at offset 10
		delta := rawDelta(16, 6,
			0x02, 'x', 'y',
			0b_1001_0001, 0x0a, 0x04,
		)
		objects, err := unpackDelta(t, base, delta)
		require.NoError(t, err)
		assert.Equal(t, []byte("xyabcd"), objects[1].Bytes())
	})

	t.Run("COPY with a length of 0 copies 0x10000 bytes", func(t *testing.T) {
		t.Parallel()

		content := make([]byte, 0x10000+10)
		for i := range content {
			content[i] = byte(i % 127)
		}
		bigBase := object.New(object.TypeBlob, content)

		// 0b_1000_0000: COPY with no offset and no length bytes
		delta := rawDelta(uint64(len(content)), 0x10000, 0b_1000_0000)
		objects, err := unpackDelta(t, bigBase, delta)
		require.NoError(t, err)
		assert.Equal(t, content[:0x10000], objects[1].Bytes())
	})
}

func TestApplyDeltaErrors(t *testing.T) {
	t.Parallel()

	base := object.New(object.TypeBlob, []byte("0123456789abcdef"))

	t.Run("a wrong source size should fail", func(t *testing.T) {
		t.Parallel()

		delta := rawDelta(99, 3, 0x03, 'a', 'b', 'c')
		_, err := unpackDelta(t, base, delta)
		require.Error(t, err)
		assert.ErrorIs(t, err, packfile.ErrDeltaBaseSizeMismatch)
	})

	t.Run("a wrong target size should fail", func(t *testing.T) {
		t.Parallel()

		delta := rawDelta(16, 99, 0x03, 'a', 'b', 'c')
		_, err := unpackDelta(t, base, delta)
		require.Error(t, err)
		assert.ErrorIs(t, err, packfile.ErrDeltaTargetSizeMismatch)
	})

	t.Run("a COPY past the end of the base should fail", func(t *testing.T) {
		t.Parallel()

		// offset=10 length=10 on a 16 bytes base
		delta := rawDelta(16, 10, 0b_1001_0001, 0x0a, 0x0a)
		_, err := unpackDelta(t, base, delta)
		require.Error(t, err)
		assert.ErrorIs(t, err, packfile.ErrDeltaCopyOutOfBounds)
	})

	t.Run("the reserved 0 instruction should fail", func(t *testing.T) {
		t.Parallel()

		delta := rawDelta(16, 1, 0x00)
		_, err := unpackDelta(t, base, delta)
		require.Error(t, err)
		assert.ErrorIs(t, err, packfile.ErrDeltaBadInstruction)
	})

	t.Run("a truncated INSERT should fail", func(t *testing.T) {
		t.Parallel()

		// advertises 5 bytes but only carries 2
		delta := rawDelta(16, 5, 0x05, 'a', 'b')
		_, err := unpackDelta(t, base, delta)
		require.Error(t, err)
		assert.ErrorIs(t, err, packfile.ErrDeltaBadInstruction)
	})

	t.Run("a truncated COPY should fail", func(t *testing.T) {
		t.Parallel()

		// announces an offset byte that isn't there
		delta := rawDelta(16, 5, 0b_1001_0001)
		_, err := unpackDelta(t, base, delta)
		require.Error(t, err)
		assert.ErrorIs(t, err, packfile.ErrDeltaBadInstruction)
	})
}
