package grit_test

import (
	"testing"
	"time"

	grit "github.com/grit-scm/grit"
	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitTree(t *testing.T) {
	t.Parallel()

	newRepoWithTree := func(t *testing.T) (*grit.Repository, ginternals.Oid) {
		t.Helper()

		dir := t.TempDir()
		r, err := grit.InitRepository(dir)
		require.NoError(t, err)
		populateWorkingTree(t, dir)
		treeID, err := r.WriteWorkingTree()
		require.NoError(t, err)
		return r, treeID
	}

	t.Run("a root commit should be persisted and readable", func(t *testing.T) {
		t.Parallel()

		r, treeID := newRepoWithTree(t)
		c, err := r.CommitTree(treeID, "initial commit\n", grit.CommitOptions{})
		require.NoError(t, err)

		o, err := r.Object(c.ID())
		require.NoError(t, err)
		parsed, err := o.AsCommit()
		require.NoError(t, err)
		assert.Equal(t, treeID, parsed.TreeID())
		assert.Empty(t, parsed.ParentIDs())
		assert.Equal(t, "initial commit\n", parsed.Message())
		assert.Equal(t, "grit", parsed.Author().Name)
	})

	t.Run("a parent should be recorded", func(t *testing.T) {
		t.Parallel()

		r, treeID := newRepoWithTree(t)
		root, err := r.CommitTree(treeID, "initial\n", grit.CommitOptions{})
		require.NoError(t, err)

		c, err := r.CommitTree(treeID, "second\n", grit.CommitOptions{
			ParentIDs: []ginternals.Oid{root.ID()},
		})
		require.NoError(t, err)

		o, err := r.Object(c.ID())
		require.NoError(t, err)
		parsed, err := o.AsCommit()
		require.NoError(t, err)
		require.Len(t, parsed.ParentIDs(), 1)
		assert.Equal(t, root.ID(), parsed.ParentIDs()[0])
	})

	t.Run("a custom author should be kept verbatim", func(t *testing.T) {
		t.Parallel()

		r, treeID := newRepoWithTree(t)
		author := object.Signature{
			Name:  "Jane Doe",
			Email: "jane@domain.tld",
			Time:  time.Unix(1566115917, 0).In(time.FixedZone("", -7*60*60)),
		}
		c, err := r.CommitTree(treeID, "custom author\n", grit.CommitOptions{Author: author})
		require.NoError(t, err)

		o, err := r.Object(c.ID())
		require.NoError(t, err)
		parsed, err := o.AsCommit()
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe <jane@domain.tld> 1566115917 -0700", parsed.Author().String())
		assert.Equal(t, parsed.Author().String(), parsed.Committer().String())
	})
}
