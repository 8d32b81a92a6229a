package ginternals_test

import (
	"testing"

	"github.com/grit-scm/grit/ginternals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReference(t *testing.T) {
	t.Parallel()

	sha := "9b91da06e69613397b38e0808e0ba5ee6983251b"

	t.Run("should resolve an oid reference", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			require.Equal(t, "refs/heads/master", name)
			return []byte(sha + "\n"), nil
		}
		ref, err := ginternals.ResolveReference("refs/heads/master", finder)
		require.NoError(t, err)
		assert.Equal(t, ginternals.OidReference, ref.Type())
		assert.Equal(t, sha, ref.Target().String())
	})

	t.Run("should follow a symbolic reference", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			if name == ginternals.Head {
				return []byte("ref: refs/heads/master\n"), nil
			}
			return []byte(sha), nil
		}
		ref, err := ginternals.ResolveReference(ginternals.Head, finder)
		require.NoError(t, err)
		assert.Equal(t, ginternals.SymbolicReference, ref.Type())
		assert.Equal(t, "refs/heads/master", ref.SymbolicTarget())
		assert.Equal(t, sha, ref.Target().String())
	})

	t.Run("should accept content without trailing newline", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			return []byte(sha), nil
		}
		ref, err := ginternals.ResolveReference("refs/heads/main", finder)
		require.NoError(t, err)
		assert.Equal(t, sha, ref.Target().String())
	})

	t.Run("should reject circular references", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			if name == "refs/heads/a" {
				return []byte("ref: refs/heads/b"), nil
			}
			return []byte("ref: refs/heads/a"), nil
		}
		_, err := ginternals.ResolveReference("refs/heads/a", finder)
		require.Error(t, err)
		assert.ErrorIs(t, err, ginternals.ErrRefInvalid)
	})

	t.Run("should reject garbage content", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			return []byte("not a sha at all"), nil
		}
		_, err := ginternals.ResolveReference("refs/heads/master", finder)
		require.Error(t, err)
		assert.ErrorIs(t, err, ginternals.ErrRefInvalid)
	})
}

func TestLocalBranchFullName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "refs/heads/master", ginternals.LocalBranchFullName("master"))
}
