package repo

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/willothy/wit/pkg/object"
)

// TreeFileEntry is a non-tree leaf of a flattened tree, named by its full
// slash-separated path.
type TreeFileEntry struct {
	Path string
	Mode string
	Hash object.Hash
}

// FlattenTree walks a tree and its subtrees, returning every non-tree leaf
// with its full path, sorted by path.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	type item struct {
		hash   object.Hash
		prefix string
	}
	var result []TreeFileEntry
	stack := []item{{h, ""}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tree, err := r.Store.ReadTree(it.hash)
		if err != nil {
			return nil, fmt.Errorf("flatten tree: read %s: %w", it.hash, err)
		}
		for _, leaf := range tree.Leaves {
			full := path.Join(it.prefix, leaf.Path)
			if leaf.IsTree() {
				stack = append(stack, item{leaf.Hash, full})
				continue
			}
			result = append(result, TreeFileEntry{Path: full, Mode: leaf.Mode, Hash: leaf.Hash})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// TreeEntryAtPath looks up the leaf at the slash-separated relPath below
// treeHash. found is false when any component is missing or a non-final
// component is not a tree.
func (r *Repo) TreeEntryAtPath(treeHash object.Hash, relPath string) (object.Leaf, bool, error) {
	parts := strings.Split(relPath, "/")
	current := treeHash

	for i, part := range parts {
		tree, err := r.Store.ReadTree(current)
		if err != nil {
			return object.Leaf{}, false, fmt.Errorf("read tree %s: %w", current, err)
		}

		var (
			entry object.Leaf
			found bool
		)
		for _, leaf := range tree.Leaves {
			if leaf.Path == part {
				entry = leaf
				found = true
				break
			}
		}
		if !found {
			return object.Leaf{}, false, nil
		}

		if i == len(parts)-1 {
			return entry, true, nil
		}
		if !entry.IsTree() {
			return object.Leaf{}, false, nil
		}
		current = entry.Hash
	}

	return object.Leaf{}, false, nil
}

// BuildTree snapshots the directory dir into blob and tree objects and
// returns the root tree hash. Entries are sorted the way git sorts them
// (directories compare as if their name ended in "/"). A .git directory and
// paths matched by .gitignore are skipped. Symlinks are stored as blobs
// holding the link target.
func (r *Repo) BuildTree(dir string) (object.Hash, error) {
	ignore, err := NewIgnoreChecker(dir)
	if err != nil {
		return "", fmt.Errorf("build tree: %w", err)
	}

	type frame struct {
		dir    string
		rel    string
		leaves []object.Leaf
		names  []os.DirEntry
		next   int
		// name of this directory in its parent, empty for the root
		name string
	}

	open := func(d, rel, name string) (*frame, error) {
		entries, err := os.ReadDir(d)
		if err != nil {
			return nil, fmt.Errorf("%w: build tree: read %s: %w", object.ErrIO, d, err)
		}
		return &frame{dir: d, rel: rel, names: entries, name: name}, nil
	}

	root, err := open(dir, "", "")
	if err != nil {
		return "", err
	}
	stack := []*frame{root}
	for {
		top := stack[len(stack)-1]
		if top.next < len(top.names) {
			e := top.names[top.next]
			top.next++
			rel := path.Join(top.rel, e.Name())
			full := filepath.Join(top.dir, e.Name())
			info, err := os.Lstat(full)
			if err != nil {
				return "", fmt.Errorf("%w: build tree: stat %s: %w", object.ErrIO, full, err)
			}
			if ignore.IsIgnored(rel, info.IsDir()) {
				continue
			}
			switch {
			case info.IsDir():
				child, err := open(full, rel, e.Name())
				if err != nil {
					return "", err
				}
				stack = append(stack, child)
			case info.Mode()&os.ModeSymlink != 0:
				target, err := os.Readlink(full)
				if err != nil {
					return "", fmt.Errorf("%w: build tree: readlink %s: %w", object.ErrIO, full, err)
				}
				h, err := r.Store.Write(&object.Blob{Data: []byte(target)})
				if err != nil {
					return "", fmt.Errorf("build tree %s: %w", full, err)
				}
				top.leaves = append(top.leaves, object.Leaf{Mode: object.TreeModeSymlink, Path: e.Name(), Hash: h})
			case info.Mode().IsRegular():
				h, err := object.HashFile(full, object.TypeBlob, r.Store)
				if err != nil {
					return "", fmt.Errorf("build tree: %w", err)
				}
				top.leaves = append(top.leaves, object.Leaf{Mode: modeFromFileInfo(info), Path: e.Name(), Hash: h})
			}
			continue
		}

		sortLeaves(top.leaves)
		h, err := r.Store.Write(&object.Tree{Leaves: top.leaves})
		if err != nil {
			return "", fmt.Errorf("build tree %s: %w", top.dir, err)
		}
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return h, nil
		}
		parent := stack[len(stack)-1]
		// Empty directories are not representable in a tree.
		if len(top.leaves) > 0 {
			parent.leaves = append(parent.leaves, object.Leaf{Mode: object.TreeModeDir, Path: top.name, Hash: h})
		}
	}
}

func sortLeaves(leaves []object.Leaf) {
	key := func(l object.Leaf) string {
		if l.IsTree() {
			return l.Path + "/"
		}
		return l.Path
	}
	sort.Slice(leaves, func(i, j int) bool { return key(leaves[i]) < key(leaves[j]) })
}
