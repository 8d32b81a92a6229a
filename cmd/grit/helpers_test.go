package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// inDir runs the rest of the test from the given directory.
// Commands resolve the repository from the working directory, so
// these tests cannot run in parallel
func inDir(t *testing.T, dir string) {
	t.Helper()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(old))
	})
}
