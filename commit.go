package grit

import (
	"time"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"golang.org/x/xerrors"
)

// Default identity used to author commits when none is provided.
// The offset is fixed so commits don't depend on the machine's
// timezone database
const (
	defaultAuthorName  = "grit"
	defaultAuthorEmail = "grit@localhost"
)

var defaultTimezone = time.FixedZone("", -7*60*60)

// CommitOptions represents the optional data available when creating
// a commit
type CommitOptions struct {
	// Author represents the person that made the changes.
	// If not provided a default identity is used
	Author object.Signature
	// Committer represents the person creating the commit.
	// If not provided, the author is used
	Committer object.Signature
	// ParentIDs contains the commits this one descends from, in
	// order. Empty for a root commit
	ParentIDs []ginternals.Oid
}

// CommitTree creates and persists a commit object pointing at the
// given tree. The message is stored verbatim, with no trimming or
// wrapping
func (r *Repository) CommitTree(treeID ginternals.Oid, message string, opts CommitOptions) (*object.Commit, error) {
	author := opts.Author
	if author.IsZero() {
		author = object.Signature{
			Name:  defaultAuthorName,
			Email: defaultAuthorEmail,
			Time:  time.Now().In(defaultTimezone),
		}
	}

	c := object.NewCommit(treeID, author, &object.CommitOptions{
		Message:   message,
		Committer: opts.Committer,
		ParentIDs: opts.ParentIDs,
	})

	if _, err := r.WriteObject(c.ToObject()); err != nil {
		return nil, xerrors.Errorf("could not write the commit to the odb: %w", err)
	}
	return c, nil
}
