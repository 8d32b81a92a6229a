// Package pathutil contains methods to find the repository on disk
package pathutil

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/grit-scm/grit/internal/gitpath"
	"golang.org/x/xerrors"
)

// ErrNoRepo is an error returned when no repo can be found
var ErrNoRepo = errors.New("not a git repository (or any of the parent directories)")

// maxLookupDepth caps the upward walk so a weird mount layout cannot
// make us loop forever
const maxLookupDepth = 256

// WorkingTree returns the absolute path to the root of the repo
// containing the current working directory
func WorkingTree() (path string, err error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", xerrors.Errorf("could not get current working directory: %w", err)
	}
	return WorkingTreeFromPath(wd)
}

// WorkingTreeFromPath returns the absolute path to the root of the repo
// containing the provided directory
func WorkingTreeFromPath(p string) (path string, err error) {
	prev := ""
	for depth := 0; p != prev && depth < maxLookupDepth; depth++ {
		info, err := os.Stat(filepath.Join(p, gitpath.DotGitPath))
		if err == nil && info.IsDir() {
			return p, nil
		}

		prev = p
		p = filepath.Dir(p)
	}
	return "", ErrNoRepo
}
