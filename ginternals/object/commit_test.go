package object_test

import (
	"testing"
	"time"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignature() object.Signature {
	return object.Signature{
		Name:  "John Doe",
		Email: "john@domain.tld",
		Time:  time.Unix(1566115917, 0).In(time.FixedZone("", -7*60*60)),
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	t.Run("String() should print the canonical format", func(t *testing.T) {
		t.Parallel()

		sig := testSignature()
		assert.Equal(t, "John Doe <john@domain.tld> 1566115917 -0700", sig.String())
	})

	t.Run("String() then parse should roundtrip", func(t *testing.T) {
		t.Parallel()

		sig := testSignature()
		parsed, err := object.NewSignatureFromBytes([]byte(sig.String()))
		require.NoError(t, err)
		assert.Equal(t, sig.Name, parsed.Name)
		assert.Equal(t, sig.Email, parsed.Email)
		assert.Equal(t, sig.Time.Unix(), parsed.Time.Unix())
		assert.Equal(t, sig.String(), parsed.String())
	})

	t.Run("truncated signatures should fail", func(t *testing.T) {
		t.Parallel()

		for _, data := range []string{
			"",
			"John Doe",
			"John Doe <john@domain.tld>",
			"John Doe <john@domain.tld> 1566115917",
			"John Doe <john@domain.tld> nope -0700",
		} {
			_, err := object.NewSignatureFromBytes([]byte(data))
			require.Error(t, err, "expected %q to fail", data)
			assert.ErrorIs(t, err, object.ErrSignatureInvalid)
		}
	})
}

func TestCommit(t *testing.T) {
	t.Parallel()

	treeID, err := ginternals.NewOidFromStr("c799e9129faae8d358e4b6de7813d6f970607893")
	require.NoError(t, err)
	parentID, err := ginternals.NewOidFromStr("f96f63e52cb8862b2c2d1a8b868229259c57854e")
	require.NoError(t, err)

	t.Run("build then parse should roundtrip", func(t *testing.T) {
		t.Parallel()

		c := object.NewCommit(treeID, testSignature(), &object.CommitOptions{
			Message:   "commit message\n\nwith a body\n",
			ParentIDs: []ginternals.Oid{parentID},
		})

		parsed, err := c.ToObject().AsCommit()
		require.NoError(t, err)
		assert.Equal(t, treeID, parsed.TreeID())
		require.Len(t, parsed.ParentIDs(), 1)
		assert.Equal(t, parentID, parsed.ParentIDs()[0])
		assert.Equal(t, "commit message\n\nwith a body\n", parsed.Message())
		assert.Equal(t, testSignature().String(), parsed.Author().String())
		assert.Equal(t, testSignature().String(), parsed.Committer().String())
		assert.Equal(t, c.ID(), parsed.ID())
	})

	t.Run("a root commit should have no parent line", func(t *testing.T) {
		t.Parallel()

		c := object.NewCommit(treeID, testSignature(), &object.CommitOptions{
			Message: "initial\n",
		})
		assert.NotContains(t, string(c.ToObject().Bytes()), "parent")

		parsed, err := c.ToObject().AsCommit()
		require.NoError(t, err)
		assert.Empty(t, parsed.ParentIDs())
	})

	t.Run("the committer should default to the author", func(t *testing.T) {
		t.Parallel()

		c := object.NewCommit(treeID, testSignature(), &object.CommitOptions{
			Message: "msg\n",
		})
		assert.Equal(t, c.Author(), c.Committer())
	})

	t.Run("a commit without a tree should fail to parse", func(t *testing.T) {
		t.Parallel()

		raw := "author " + testSignature().String() + "\n" +
			"committer " + testSignature().String() + "\n" +
			"\nmsg\n"
		o := object.New(object.TypeCommit, []byte(raw))
		_, err := o.AsCommit()
		require.Error(t, err)
		assert.ErrorIs(t, err, object.ErrCommitInvalid)
	})

	t.Run("a commit without an author should fail to parse", func(t *testing.T) {
		t.Parallel()

		raw := "tree " + treeID.String() + "\n\nmsg\n"
		o := object.New(object.TypeCommit, []byte(raw))
		_, err := o.AsCommit()
		require.Error(t, err)
		assert.ErrorIs(t, err, object.ErrCommitInvalid)
	})

	t.Run("parsing a non-commit should fail", func(t *testing.T) {
		t.Parallel()

		o := object.New(object.TypeBlob, []byte("nope"))
		_, err := o.AsCommit()
		require.Error(t, err)
		assert.ErrorIs(t, err, object.ErrObjectInvalid)
	})
}
