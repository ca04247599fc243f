package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/willothy/wit/pkg/index"
	"github.com/willothy/wit/pkg/object"
)

// FileStatus represents the state of a file in the working tree or index.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusNew                         // in the index, not in the HEAD tree
	StatusModified                    // in the index, different from HEAD
	StatusRenamed                     // same content, path changed
	StatusConflict                    // unmerged stages in the index
	StatusDeleted                     // in HEAD but not in the index (or indexed but gone from disk)
	StatusUntracked                   // in the working tree but not in the index
	StatusDirty                       // indexed but the working copy differs
)

// Code is the one-letter short status code.
func (s FileStatus) Code() byte {
	switch s {
	case StatusNew:
		return 'A'
	case StatusModified, StatusDirty:
		return 'M'
	case StatusRenamed:
		return 'R'
	case StatusConflict:
		return 'U'
	case StatusDeleted:
		return 'D'
	case StatusUntracked:
		return '?'
	default:
		return ' '
	}
}

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // worktree-relative, slash-separated
	RenamedFrom string     // non-empty when IndexStatus is StatusRenamed
	IndexStatus FileStatus // index vs HEAD
	WorkStatus  FileStatus // working tree vs index
}

// Clean reports whether the path has no changes in either comparison.
func (e StatusEntry) Clean() bool {
	return e.IndexStatus == StatusClean && e.WorkStatus == StatusClean
}

type treeState struct {
	hash object.Hash
	mode string
}

// statusRacyWindow marks files modified this recently as needing a content
// hash even when their stat data matches the index.
const statusRacyWindow = 2 * time.Second

// Status compares the HEAD tree, the index and the working tree. The index
// is only read and a bare repository is refused. A missing index is treated as empty and an unborn HEAD as
// an empty tree. Clean paths are omitted.
func (r *Repo) Status() ([]StatusEntry, error) {
	if err := r.requireWorktree(); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	idx, err := r.ReadIndex()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		idx = &index.Index{Version: 2}
	case err != nil:
		return nil, fmt.Errorf("status: %w", err)
	}

	indexed := make(map[string]treeState)
	conflicted := make(map[string]bool)
	for _, e := range idx.Entries {
		if e.Stage() != 0 {
			conflicted[e.Path] = true
			continue
		}
		indexed[e.Path] = treeState{hash: e.Hash, mode: fmt.Sprintf("%o", e.Mode)}
	}

	head, err := r.headTreeEntries()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	result := make(map[string]*StatusEntry)
	entry := func(path string) *StatusEntry {
		e, ok := result[path]
		if !ok {
			e = &StatusEntry{Path: path}
			result[path] = e
		}
		return e
	}

	// Index vs HEAD.
	newToOld, oldToNew := detectIndexRenames(indexed, head)
	for path := range conflicted {
		e := entry(path)
		e.IndexStatus = StatusConflict
		e.WorkStatus = StatusConflict
	}
	for path, st := range indexed {
		hs, inHead := head[path]
		switch {
		case conflicted[path]:
		case !inHead:
			e := entry(path)
			if old, ok := newToOld[path]; ok {
				e.IndexStatus = StatusRenamed
				e.RenamedFrom = old
			} else {
				e.IndexStatus = StatusNew
			}
		case hs != st:
			entry(path).IndexStatus = StatusModified
		}
	}
	for path := range head {
		if _, ok := indexed[path]; ok || conflicted[path] {
			continue
		}
		if _, ok := oldToNew[path]; ok {
			continue
		}
		entry(path).IndexStatus = StatusDeleted
	}

	// Working tree vs index.
	for _, e := range idx.Entries {
		if e.Stage() != 0 || conflicted[e.Path] {
			continue
		}
		ws, err := r.worktreeStatus(e)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if ws != StatusClean {
			entry(e.Path).WorkStatus = ws
		}
	}

	untracked, err := r.untrackedFiles(indexed, conflicted)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	for _, path := range untracked {
		e := entry(path)
		e.IndexStatus = StatusUntracked
		e.WorkStatus = StatusUntracked
	}

	entries := make([]StatusEntry, 0, len(result))
	for _, e := range result {
		if !e.Clean() {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// headTreeEntries flattens the tree of the commit HEAD resolves to. An
// unborn HEAD yields an empty map.
func (r *Repo) headTreeEntries() (map[string]treeState, error) {
	out := make(map[string]treeState)
	headHash, err := r.ResolveHead()
	if err != nil {
		return nil, err
	}
	if headHash == "" {
		return out, nil
	}
	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return nil, fmt.Errorf("head commit: %w", err)
	}
	treeHash, err := commit.TreeHash()
	if err != nil {
		return nil, fmt.Errorf("head commit %s: %w", headHash, err)
	}
	files, err := r.FlattenTree(treeHash)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		out[f.Path] = treeState{hash: f.Hash, mode: f.Mode}
	}
	return out, nil
}

func (r *Repo) worktreeStatus(e index.Entry) (FileStatus, error) {
	abs := filepath.Join(r.Worktree, filepath.FromSlash(e.Path))
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusDeleted, nil
		}
		return 0, fmt.Errorf("%w: stat %s: %w", object.ErrIO, e.Path, err)
	}

	wantMode := fmt.Sprintf("%o", e.Mode)
	if wantMode == object.TreeModeGitlink {
		if info.IsDir() {
			return StatusClean, nil
		}
		return StatusDirty, nil
	}
	if info.IsDir() {
		return StatusDeleted, nil
	}

	var (
		mode string
		data []byte
	)
	if info.Mode()&os.ModeSymlink != 0 {
		mode = object.TreeModeSymlink
		target, err := os.Readlink(abs)
		if err != nil {
			return 0, fmt.Errorf("%w: readlink %s: %w", object.ErrIO, e.Path, err)
		}
		data = []byte(target)
	} else {
		mode = modeFromFileInfo(info)
		if !r.Config.FileMode() && isRegularMode(mode) && isRegularMode(wantMode) {
			mode = wantMode
		}
		if mode != wantMode {
			return StatusDirty, nil
		}
		if statMatches(e, info) {
			return StatusClean, nil
		}
		data, err = os.ReadFile(abs)
		if err != nil {
			return 0, fmt.Errorf("%w: read %s: %w", object.ErrIO, e.Path, err)
		}
	}
	if mode != wantMode || object.HashObject(object.TypeBlob, data) != e.Hash {
		return StatusDirty, nil
	}
	return StatusClean, nil
}

// isRegularMode reports whether mode is a plain or executable file.
func isRegularMode(mode string) bool {
	return mode == object.TreeModeFile || mode == object.TreeModeExecutable
}

// statMatches reports whether the cached stat data of e still describes
// info, so the file content need not be hashed.
func statMatches(e index.Entry, info os.FileInfo) bool {
	if int64(e.Size) != info.Size() {
		return false
	}
	mtime := info.ModTime()
	if time.Since(mtime) < statusRacyWindow {
		return false
	}
	return int64(e.MTime.Sec) == mtime.Unix() && int64(e.MTime.Nsec) == int64(mtime.Nanosecond())
}

// untrackedFiles walks the working tree for files that are neither indexed
// nor ignored.
func (r *Repo) untrackedFiles(indexed map[string]treeState, conflicted map[string]bool) ([]string, error) {
	ic, err := NewIgnoreChecker(r.Worktree)
	if err != nil {
		return nil, err
	}
	var out []string
	err = filepath.WalkDir(r.Worktree, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.Worktree, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ic.IsIgnored(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if st, ok := indexed[rel]; ok && st.mode == object.TreeModeGitlink {
				return fs.SkipDir
			}
			return nil
		}
		if _, ok := indexed[rel]; !ok && !conflicted[rel] {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk worktree: %w", object.ErrIO, err)
	}
	return out, nil
}

// detectIndexRenames pairs paths added to the index with paths removed
// from HEAD that carry the same content and mode.
func detectIndexRenames(indexed, head map[string]treeState) (newToOld, oldToNew map[string]string) {
	newByKey := make(map[treeState][]string)
	oldByKey := make(map[treeState][]string)
	for path, st := range indexed {
		if _, ok := head[path]; !ok {
			newByKey[st] = append(newByKey[st], path)
		}
	}
	for path, st := range head {
		if _, ok := indexed[path]; !ok {
			oldByKey[st] = append(oldByKey[st], path)
		}
	}

	newToOld = make(map[string]string)
	oldToNew = make(map[string]string)
	for key, newPaths := range newByKey {
		oldPaths := oldByKey[key]
		if len(oldPaths) == 0 {
			continue
		}
		sort.Strings(newPaths)
		sort.Strings(oldPaths)
		for i := 0; i < min(len(newPaths), len(oldPaths)); i++ {
			newToOld[newPaths[i]] = oldPaths[i]
			oldToNew[oldPaths[i]] = newPaths[i]
		}
	}
	return newToOld, oldToNew
}
