package grit

import (
	"path"
	"strings"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/grit-scm/grit/ginternals/packfile"
	"github.com/grit-scm/grit/ginternals/transport"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// persistConcurrency bounds how many objects get written to the odb
// at the same time after a pack was decoded. Object writes are
// independent and idempotent, so the fan out doesn't change the
// outcome
const persistConcurrency = 4

// DefaultCloneDirectory returns the directory a clone of the given
// URL lands in when none is provided: the last path segment, with a
// trailing .git dropped
func DefaultCloneDirectory(repoURL string) string {
	name := path.Base(strings.TrimSuffix(repoURL, "/"))
	return strings.TrimSuffix(name, ".git")
}

// Clone fetches the repository at repoURL over smart HTTP into dir
// and checks out its default branch.
//
// The pipeline is linear: discover the refs, send the wants, receive
// and decode the pack, persist the objects, write the refs and HEAD,
// materialize the working tree, and record the remote in the config.
// Any failure aborts and leaves the partially written directory
// behind, there is nothing to roll back for a fresh clone
func Clone(repoURL, dir string) (*Repository, error) {
	return cloneWithFs(afero.NewOsFs(), repoURL, dir)
}

func cloneWithFs(fs afero.Fs, repoURL, dir string) (*Repository, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.Errorf("could not create %s: %w", dir, err)
	}
	r, err := initRepositoryWithFs(fs, dir)
	if err != nil {
		return nil, xerrors.Errorf("could not init the repository: %w", err)
	}

	c := transport.NewClient(repoURL)
	ad, err := c.FetchRefs()
	if err != nil {
		return nil, xerrors.Errorf("could not discover the remote refs: %w", err)
	}
	// without this capability the server would reject our want lines
	if !ad.SupportsSHA1Want() {
		return nil, transport.ErrCapabilityUnsupported
	}

	wants := make([]ginternals.Oid, 0, len(ad.Refs))
	seen := map[ginternals.Oid]struct{}{}
	for _, ref := range ad.Refs {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		wants = append(wants, ref.ID)
	}

	pack, err := c.FetchPack(wants)
	if err != nil {
		return nil, xerrors.Errorf("could not fetch the pack: %w", err)
	}

	objects, err := packfile.Unpack(pack, r.dotGit.Object)
	if err != nil {
		return nil, xerrors.Errorf("could not decode the pack: %w", err)
	}

	if err := r.persistObjects(objects); err != nil {
		return nil, err
	}

	if err := r.writeRemoteRefs(ad.Refs); err != nil {
		return nil, xerrors.Errorf("could not write the refs: %w", err)
	}
	if err := r.CheckoutHead(); err != nil {
		return nil, xerrors.Errorf("could not checkout HEAD: %w", err)
	}
	if err := r.writeConfig(repoURL); err != nil {
		return nil, xerrors.Errorf("could not write the config: %w", err)
	}
	return r, nil
}

// persistObjects writes a batch of unpacked objects to the odb
func (r *Repository) persistObjects(objects []*object.Object) error {
	g := errgroup.Group{}
	g.SetLimit(persistConcurrency)
	for _, o := range objects {
		o := o
		g.Go(func() error {
			if _, err := r.dotGit.WriteObject(o); err != nil {
				return xerrors.Errorf("could not persist object %s: %w", o.ID().String(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
