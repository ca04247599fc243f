package repo

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willothy/wit/pkg/object"
)

func blobID(content string) object.Hash {
	return object.HashObject(object.TypeBlob, []byte(content))
}

func writeIndex(t *testing.T, r *Repo, entries ...*gitindex.Entry) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gitindex.NewEncoder(&buf).Encode(&gitindex.Index{Version: 2, Entries: entries}))
	require.NoError(t, os.WriteFile(r.Path("index"), buf.Bytes(), 0o644))
}

func indexEntry(name, content string) *gitindex.Entry {
	return &gitindex.Entry{
		Name: name,
		Hash: plumbing.NewHash(string(blobID(content))),
		Mode: filemode.Regular,
	}
}

func TestStatusFreshRepo(t *testing.T) {
	r := newTestRepo(t)
	entries, err := r.Status()
	require.NoError(t, err)
	assert.Empty(t, entries)

	writeWorkFile(t, r, "new.txt", "x")
	entries, err = r.Status()
	require.NoError(t, err)
	assert.Equal(t, []StatusEntry{{Path: "new.txt", IndexStatus: StatusUntracked, WorkStatus: StatusUntracked}}, entries)
}

func TestStatusCombined(t *testing.T) {
	r := newTestRepo(t)

	headTree := writeTree(t, r,
		fileLeaf("gone.txt", writeBlob(t, r, "gone\n")),
		fileLeaf("keep.txt", writeBlob(t, r, "keep\n")),
		fileLeaf("lost.txt", writeBlob(t, r, "lost\n")),
		fileLeaf("mod.txt", writeBlob(t, r, "old\n")),
		fileLeaf("old.txt", writeBlob(t, r, "same\n")),
	)
	require.NoError(t, r.UpdateRef("refs/heads/main", writeCommit(t, r, headTree, "base")))

	conflict := indexEntry("conflict.txt", "ours\n")
	conflict.Stage = gitindex.OurMode
	writeIndex(t, r,
		conflict,
		indexEntry("keep.txt", "keep\n"),
		indexEntry("lost.txt", "lost\n"),
		indexEntry("mod.txt", "new\n"),
		indexEntry("new.txt", "added\n"),
		indexEntry("renamed.txt", "same\n"),
	)

	writeWorkFile(t, r, ".gitignore", "*.log\n")
	writeWorkFile(t, r, "conflict.txt", "<<<<<<<\n")
	writeWorkFile(t, r, "ignored.log", "noise")
	writeWorkFile(t, r, "keep.txt", "keep\n")
	writeWorkFile(t, r, "mod.txt", "new\n")
	writeWorkFile(t, r, "new.txt", "added, then edited\n")
	writeWorkFile(t, r, "renamed.txt", "same\n")
	writeWorkFile(t, r, "untracked.txt", "?")

	entries, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, []StatusEntry{
		{Path: ".gitignore", IndexStatus: StatusUntracked, WorkStatus: StatusUntracked},
		{Path: "conflict.txt", IndexStatus: StatusConflict, WorkStatus: StatusConflict},
		{Path: "gone.txt", IndexStatus: StatusDeleted, WorkStatus: StatusClean},
		{Path: "lost.txt", IndexStatus: StatusClean, WorkStatus: StatusDeleted},
		{Path: "mod.txt", IndexStatus: StatusModified, WorkStatus: StatusClean},
		{Path: "new.txt", IndexStatus: StatusNew, WorkStatus: StatusDirty},
		{Path: "renamed.txt", RenamedFrom: "old.txt", IndexStatus: StatusRenamed, WorkStatus: StatusClean},
		{Path: "untracked.txt", IndexStatus: StatusUntracked, WorkStatus: StatusUntracked},
	}, entries)
}

func TestStatusModeChangeIsDirty(t *testing.T) {
	r := newTestRepo(t)
	r.Config.Set("core", "filemode", "true")
	e := indexEntry("run.sh", "echo\n")
	e.Mode = filemode.Executable
	writeIndex(t, r, e)
	writeWorkFile(t, r, "run.sh", "echo\n")

	entries, err := r.Status()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusNew, entries[0].IndexStatus)
	assert.Equal(t, StatusDirty, entries[0].WorkStatus)
}

func TestStatusExecBitWithoutFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no exec bit on windows")
	}
	r := newTestRepo(t)
	require.False(t, r.Config.FileMode())
	writeIndex(t, r, indexEntry("a.sh", "echo\n"))
	writeWorkFile(t, r, "a.sh", "echo\n")
	require.NoError(t, os.Chmod(filepath.Join(r.Worktree, "a.sh"), 0o755))

	entries, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, []StatusEntry{{Path: "a.sh", IndexStatus: StatusNew, WorkStatus: StatusClean}}, entries)

	r.Config.Set("core", "filemode", "true")
	entries, err = r.Status()
	require.NoError(t, err)
	assert.Equal(t, []StatusEntry{{Path: "a.sh", IndexStatus: StatusNew, WorkStatus: StatusDirty}}, entries)
}

func TestFileStatusCode(t *testing.T) {
	assert.Equal(t, byte(' '), StatusClean.Code())
	assert.Equal(t, byte('A'), StatusNew.Code())
	assert.Equal(t, byte('M'), StatusDirty.Code())
	assert.Equal(t, byte('R'), StatusRenamed.Code())
	assert.Equal(t, byte('?'), StatusUntracked.Code())
}

func TestBareRepositoryHasNoWorktreeOperations(t *testing.T) {
	r := newTestRepo(t)
	r.Config.Set("core", "bare", "true")
	require.True(t, r.Config.Bare())

	_, err := r.Status()
	assert.ErrorIs(t, err, ErrBareRepository)
	_, err = r.Commit("Jane <jane@example.com>", "msg", testTime)
	assert.ErrorIs(t, err, ErrBareRepository)
}
