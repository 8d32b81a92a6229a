package main

import (
	grit "github.com/grit-scm/grit"
	"github.com/grit-scm/grit/internal/pathutil"
)

// loadRepository opens the repository containing the current working
// directory
func loadRepository() (*grit.Repository, error) {
	root, err := pathutil.WorkingTree()
	if err != nil {
		return nil, err
	}
	return grit.OpenRepository(root)
}
