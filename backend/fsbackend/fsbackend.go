// Package fsbackend contains the object database and reference store
// backed by the filesystem, the way git itself persists a repository
package fsbackend

import (
	"path/filepath"

	"github.com/grit-scm/grit/internal/cache"
	"github.com/grit-scm/grit/internal/gitpath"
	"github.com/grit-scm/grit/internal/syncutil"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

const (
	// objectCacheSize is the number of decompressed objects kept in
	// memory. Mostly useful while resolving deltas during a clone,
	// where the same base gets requested over and over
	objectCacheSize = 1000

	// objectMutexCount is the number of mutexes sharded by oid.
	// A prime number offers a better distribution
	objectMutexCount = 101
)

// Backend stores the objects and references of a repository on disk,
// under the .git directory
type Backend struct {
	fs   afero.Fs
	root string

	cache    *cache.LRU
	objectMu *syncutil.NamedMutex
}

// New returns a new Backend rooted at the given .git directory,
// using the OS filesystem
func New(dotGitPath string) *Backend {
	return NewWithFs(afero.NewOsFs(), dotGitPath)
}

// NewWithFs returns a new Backend rooted at the given .git directory
// on the given filesystem
func NewWithFs(fs afero.Fs, dotGitPath string) *Backend {
	return &Backend{
		fs:       fs,
		root:     dotGitPath,
		cache:    cache.NewLRU(objectCacheSize),
		objectMu: syncutil.NewNamedMutex(objectMutexCount),
	}
}

// Root returns the path of the .git directory backing the Backend
func (b *Backend) Root() string {
	return b.root
}

// Init initializes the .git directory: creates the directory layout
// and nothing else. HEAD is written by the caller since its content
// depends on how the repo is being created
func (b *Backend) Init() error {
	dirs := []string{
		gitpath.ObjectsPath,
		gitpath.RefsPath,
	}
	for _, d := range dirs {
		fullPath := filepath.Join(b.root, d)
		if err := b.fs.MkdirAll(fullPath, 0o755); err != nil {
			return xerrors.Errorf("could not create directory %s: %w", d, err)
		}
	}
	return nil
}
