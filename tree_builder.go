package grit

import (
	"path/filepath"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/grit-scm/grit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// TreeBuilder is used to build trees
type TreeBuilder struct {
	repo    *Repository
	entries map[string]object.TreeEntry
}

// NewTreeBuilder creates a new empty tree builder
func (r *Repository) NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{
		repo:    r,
		entries: map[string]object.TreeEntry{},
	}
}

// Insert inserts a new entry in the tree.
// Inserting an entry with an existing path overwrites it
func (tb *TreeBuilder) Insert(path string, oid ginternals.Oid, mode object.TreeObjectMode) error {
	if !mode.IsValid() {
		return xerrors.Errorf("invalid mode %o: %w", mode, object.ErrObjectInvalid)
	}

	tb.entries[path] = object.TreeEntry{
		Mode: mode,
		Path: path,
		ID:   oid,
	}
	return nil
}

// Write creates and persists a new Tree object.
// The entries are ordered canonically no matter the insertion order
func (tb *TreeBuilder) Write() (*object.Tree, error) {
	entries := make([]object.TreeEntry, 0, len(tb.entries))
	for _, e := range tb.entries {
		entries = append(entries, e)
	}

	t := object.NewTree(entries)
	if _, err := tb.repo.WriteObject(t.ToObject()); err != nil {
		return nil, xerrors.Errorf("could not write the tree to the odb: %w", err)
	}
	return t, nil
}

// WriteWorkingTree snapshots the whole working tree into the odb:
// every regular file becomes a blob, every directory becomes a tree,
// and the oid of the root tree is returned.
//
// The .git directory is skipped; there is no other exclusion
// mechanism. Only regular files and directories are supported
func (r *Repository) WriteWorkingTree() (ginternals.Oid, error) {
	return r.writeTreeAt(r.repoRoot)
}

func (r *Repository) writeTreeAt(dir string) (ginternals.Oid, error) {
	infos, err := afero.ReadDir(r.wt, dir)
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not read directory %s: %w", dir, err)
	}

	tb := r.NewTreeBuilder()
	for _, info := range infos {
		fullPath := filepath.Join(dir, info.Name())
		switch {
		case info.IsDir():
			if info.Name() == gitpath.DotGitPath {
				continue
			}
			oid, err := r.writeTreeAt(fullPath)
			if err != nil {
				return ginternals.NullOid, err
			}
			if err := tb.Insert(info.Name(), oid, object.ModeDirectory); err != nil {
				return ginternals.NullOid, err
			}
		default:
			content, err := afero.ReadFile(r.wt, fullPath)
			if err != nil {
				return ginternals.NullOid, xerrors.Errorf("could not read file %s: %w", fullPath, err)
			}
			oid, err := r.WriteObject(object.New(object.TypeBlob, content))
			if err != nil {
				return ginternals.NullOid, err
			}
			if err := tb.Insert(info.Name(), oid, object.ModeFile); err != nil {
				return ginternals.NullOid, err
			}
		}
	}

	t, err := tb.Write()
	if err != nil {
		return ginternals.NullOid, err
	}
	return t.ID(), nil
}
