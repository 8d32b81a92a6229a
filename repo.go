// Package grit implements a minimal, interoperable git storage
// engine: a content-addressed object database, the smart HTTP
// transport, and enough porcelain to init, snapshot, commit, and
// clone a repository
package grit

import (
	"errors"
	"path/filepath"

	"github.com/grit-scm/grit/backend/fsbackend"
	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/grit-scm/grit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

var (
	// ErrRepositoryNotExist is an error thrown when no repository
	// can be found at a given path
	ErrRepositoryNotExist = errors.New("repository does not exist")
)

// Repository represents a git repository: a .git directory holding
// the object database and the refs, and the working tree around it
type Repository struct {
	dotGit   *fsbackend.Backend
	repoRoot string
	wt       afero.Fs
}

// InitRepository initializes a new repository by creating the .git
// directory in the given path, which is where almost everything git
// stores and manipulates is located
// https://git-scm.com/book/en/v2/Git-Internals-Plumbing-and-Porcelain
func InitRepository(repoPath string) (*Repository, error) {
	return initRepositoryWithFs(afero.NewOsFs(), repoPath)
}

func initRepositoryWithFs(fs afero.Fs, repoPath string) (*Repository, error) {
	r := &Repository{
		repoRoot: repoPath,
		dotGit:   fsbackend.NewWithFs(fs, filepath.Join(repoPath, gitpath.DotGitPath)),
		wt:       fs,
	}

	if err := r.dotGit.Init(); err != nil {
		return nil, err
	}

	// A fresh repo has a HEAD pointing at a branch that doesn't
	// exist yet. We only write it if there's none so rerunning init
	// on an existing repo doesn't reset the current branch. Only the
	// file's presence is checked: an unborn branch cannot be resolved
	if _, err := fs.Stat(filepath.Join(r.dotGit.Root(), gitpath.HEADPath)); err != nil {
		ref := ginternals.NewSymbolicReference(ginternals.Head, ginternals.LocalBranchFullName(ginternals.Master))
		if err := r.dotGit.WriteReference(ref); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// OpenRepository loads an existing repository located at the given
// path. ErrRepositoryNotExist is returned if no repository is there
func OpenRepository(repoPath string) (*Repository, error) {
	return openRepositoryWithFs(afero.NewOsFs(), repoPath)
}

func openRepositoryWithFs(fs afero.Fs, repoPath string) (*Repository, error) {
	r := &Repository{
		repoRoot: repoPath,
		dotGit:   fsbackend.NewWithFs(fs, filepath.Join(repoPath, gitpath.DotGitPath)),
		wt:       fs,
	}

	// since we can't tell a repo apart from a random directory, we
	// check for a HEAD file (it's always there in a valid repo).
	// We only check its presence: right after init HEAD points at a
	// branch that doesn't exist yet, so it cannot be resolved
	info, err := fs.Stat(filepath.Join(r.dotGit.Root(), gitpath.HEADPath))
	if err != nil || info.IsDir() {
		return nil, ErrRepositoryNotExist
	}
	return r, nil
}

// Root returns the path of the working tree of the repository
func (r *Repository) Root() string {
	return r.repoRoot
}

// Object returns the object matching the given oid
func (r *Repository) Object(oid ginternals.Oid) (*object.Object, error) {
	return r.dotGit.Object(oid)
}

// WriteObject adds the given object to the odb
func (r *Repository) WriteObject(o *object.Object) (ginternals.Oid, error) {
	oid, err := r.dotGit.WriteObject(o)
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not write object to the odb: %w", err)
	}
	return oid, nil
}

// Reference returns the resolved reference matching the given name
func (r *Repository) Reference(name string) (*ginternals.Reference, error) {
	return r.dotGit.Reference(name)
}
