package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willothy/wit/pkg/object"
)

func TestFindByRefNames(t *testing.T) {
	r := newTestRepo(t)
	c := commitFile(t, r, "a.txt", "a")
	require.NoError(t, r.UpdateRef("refs/heads/main", c))
	require.NoError(t, r.UpdateRef("refs/remotes/origin/main", c))

	for _, name := range []string{"HEAD", "main", "refs/heads/main", "origin/main", string(c), string(c[:7]), string(c[:4])} {
		h, err := r.Find(name, "", false)
		require.NoError(t, err, name)
		assert.Equal(t, c, h, name)
	}
}

func TestFindShortPrefixIsNotAHash(t *testing.T) {
	r := newTestRepo(t)
	c := commitFile(t, r, "a.txt", "a")

	_, err := r.Find(string(c[:3]), "", false)
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestFindUnknown(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Find("nothing", "", false)
	assert.ErrorIs(t, err, ErrUnknownRef)

	_, err = r.Find("  ", "", false)
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestFindAmbiguous(t *testing.T) {
	r := newTestRepo(t)
	c1 := commitFile(t, r, "a.txt", "a")
	c2 := commitFile(t, r, "b.txt", "b")
	require.NoError(t, r.UpdateRef("refs/heads/release", c1))
	require.NoError(t, r.UpdateRef("refs/tags/release", c2))

	_, err := r.Find("release", "", false)
	assert.ErrorIs(t, err, ErrAmbiguousRef)

	// Candidates agreeing on one hash are not ambiguous.
	require.NoError(t, r.UpdateRef("refs/tags/release", c1))
	h, err := r.Find("release", "", false)
	require.NoError(t, err)
	assert.Equal(t, c1, h)
}

func TestFindPeeling(t *testing.T) {
	r := newTestRepo(t)
	blob := writeBlob(t, r, "content")
	tree := writeTree(t, r, fileLeaf("f", blob))
	c := writeCommit(t, r, tree, "one")
	tagHash, err := r.CreateAnnotatedTag("v1", c, "Tagger <t@example.com>", "release", false)
	require.NoError(t, err)

	h, err := r.Find("v1", object.TypeTag, false)
	require.NoError(t, err)
	assert.Equal(t, tagHash, h)

	h, err = r.Find("v1", object.TypeCommit, true)
	require.NoError(t, err)
	assert.Equal(t, c, h)

	h, err = r.Find("v1", object.TypeTree, true)
	require.NoError(t, err)
	assert.Equal(t, tree, h)

	_, err = r.Find("v1", object.TypeCommit, false)
	assert.ErrorIs(t, err, object.ErrMalformedObject)

	// A commit never peels to a blob.
	_, err = r.Find(string(c), object.TypeBlob, true)
	assert.ErrorIs(t, err, object.ErrMalformedObject)
}

func TestFindTreePath(t *testing.T) {
	r := newTestRepo(t)
	blob := writeBlob(t, r, "deep")
	sub := writeTree(t, r, fileLeaf("file.txt", blob))
	root := writeTree(t, r, dirLeaf("dir", sub))
	c := writeCommit(t, r, root, "nested")
	require.NoError(t, r.UpdateRef("refs/heads/main", c))

	h, err := r.Find("main:dir/file.txt", "", false)
	require.NoError(t, err)
	assert.Equal(t, blob, h)

	h, err = r.Find(":dir", object.TypeTree, false)
	require.NoError(t, err)
	assert.Equal(t, sub, h)

	h, err = r.Find("HEAD:", "", false)
	require.NoError(t, err)
	assert.Equal(t, root, h)

	_, err = r.Find("main:dir/missing", "", false)
	assert.ErrorIs(t, err, ErrUnknownRef)

	_, err = r.Find("main:dir/file.txt/below", "", false)
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestTreeEntryAtPath(t *testing.T) {
	r := newTestRepo(t)
	blob := writeBlob(t, r, "x")
	sub := writeTree(t, r, fileLeaf("x", blob))
	root := writeTree(t, r, dirLeaf("d", sub))

	leaf, found, err := r.TreeEntryAtPath(root, "d/x")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, fileLeaf("x", blob), leaf)

	leaf, found, err = r.TreeEntryAtPath(root, "d")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, leaf.IsTree())

	_, found, err = r.TreeEntryAtPath(root, "nope")
	require.NoError(t, err)
	assert.False(t, found)
}
