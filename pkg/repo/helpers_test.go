package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/willothy/wit/pkg/object"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Create(filepath.Join(t.TempDir(), "work"))
	require.NoError(t, err)
	return r
}

func writeBlob(t *testing.T, r *Repo, content string) object.Hash {
	t.Helper()
	h, err := r.Store.Write(&object.Blob{Data: []byte(content)})
	require.NoError(t, err)
	return h
}

func writeTree(t *testing.T, r *Repo, leaves ...object.Leaf) object.Hash {
	t.Helper()
	h, err := r.Store.Write(&object.Tree{Leaves: leaves})
	require.NoError(t, err)
	return h
}

func fileLeaf(name string, h object.Hash) object.Leaf {
	return object.Leaf{Mode: object.TreeModeFile, Path: name, Hash: h}
}

func dirLeaf(name string, h object.Hash) object.Leaf {
	return object.Leaf{Mode: object.TreeModeDir, Path: name, Hash: h}
}

func writeCommit(t *testing.T, r *Repo, tree object.Hash, message string, parents ...object.Hash) object.Hash {
	t.Helper()
	h, err := r.CommitTree(tree, parents, "Test <test@example.com>", message, testTime)
	require.NoError(t, err)
	return h
}

// commitFile writes a single-file tree and a commit holding it.
func commitFile(t *testing.T, r *Repo, name, content string, parents ...object.Hash) object.Hash {
	t.Helper()
	tree := writeTree(t, r, fileLeaf(name, writeBlob(t, r, content)))
	return writeCommit(t, r, tree, "add "+name, parents...)
}

func writeRefFile(t *testing.T, r *Repo, name, content string) {
	t.Helper()
	p := r.Path(filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func writeWorkFile(t *testing.T, r *Repo, rel, content string) {
	t.Helper()
	p := filepath.Join(r.Worktree, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}
