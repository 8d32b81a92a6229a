package main

import (
	"bytes"
	"testing"

	"github.com/grit-scm/grit/ginternals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatFileCmd(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)
	require.NoError(t, initCmd(new(bytes.Buffer)))

	t.Run("a missing object should fail", func(t *testing.T) {
		err := catFileCmd(new(bytes.Buffer), "9b91da06e69613397b38e0808e0ba5ee6983251b", true)
		require.Error(t, err)
		assert.ErrorIs(t, err, ginternals.ErrObjectNotFound)
	})

	t.Run("an invalid sha should fail", func(t *testing.T) {
		err := catFileCmd(new(bytes.Buffer), "not-a-sha", true)
		require.Error(t, err)
	})

	t.Run("a tree should be rejected", func(t *testing.T) {
		out := new(bytes.Buffer)
		require.NoError(t, writeTreeCmd(out))
		treeSha := out.String()[:40]

		err := catFileCmd(new(bytes.Buffer), treeSha, true)
		require.Error(t, err)
	})

	t.Run("without -p it should fail", func(t *testing.T) {
		err := catFileCmd(new(bytes.Buffer), "9b91da06e69613397b38e0808e0ba5ee6983251b", false)
		require.Error(t, err)
	})
}
