package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/willothy/wit/pkg/object"
	"go.uber.org/zap"
)

// Checkout materializes the tree named by name (a tree, or a commit or tag
// that peels to one) into dest. dest must be an empty directory or not
// exist yet.
func (r *Repo) Checkout(name, dest string) error {
	treeHash, err := r.Find(name, object.TypeTree, true)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	tree, err := r.Store.ReadTree(treeHash)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := PrepareCheckoutDir(dest); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	return r.CheckoutTree(tree, dest)
}

// PrepareCheckoutDir checks that dest is an empty directory, creating it
// when it does not exist.
func PrepareCheckoutDir(dest string) error {
	info, err := os.Stat(dest)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %w", object.ErrIO, dest, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", object.ErrIO, dest, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dest)
	}
	empty, err := isEmptyDir(dest)
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("%w: %s", ErrNotEmpty, dest)
	}
	return nil
}

// CheckoutTree writes every leaf of tree below dest: blobs become files
// (or symlinks for mode 120000), subtrees become directories that are
// filled in turn, and gitlinks become empty directories. Any other object under a leaf is ErrMalformedObject.
func (r *Repo) CheckoutTree(tree *object.Tree, dest string) error {
	type job struct {
		tree *object.Tree
		dir  string
	}
	work := []job{{tree, dest}}
	for len(work) > 0 {
		j := work[len(work)-1]
		work = work[:len(work)-1]

		for _, leaf := range j.tree.Leaves {
			if !safeLeafPath(leaf.Path) {
				return fmt.Errorf("checkout: %w: unsafe path %q", object.ErrMalformedObject, leaf.Path)
			}
			target := filepath.Join(j.dir, leaf.Path)

			if leaf.Mode == object.TreeModeGitlink {
				if err := os.MkdirAll(target, 0o755); err != nil {
					return fmt.Errorf("%w: checkout: mkdir %s: %w", object.ErrIO, target, err)
				}
				continue
			}

			obj, err := r.Store.Read(leaf.Hash)
			if err != nil {
				return fmt.Errorf("checkout %s: %w", target, err)
			}
			switch o := obj.(type) {
			case *object.Blob:
				if leaf.Mode == object.TreeModeSymlink {
					if err := os.Symlink(string(o.Data), target); err != nil {
						return fmt.Errorf("%w: checkout: symlink %s: %w", object.ErrIO, target, err)
					}
					r.log.Debug("checkout symlink", zap.String("path", target), zap.String("hash", string(leaf.Hash)))
					continue
				}
				if err := os.WriteFile(target, o.Data, filePermFromMode(leaf.Mode)); err != nil {
					return fmt.Errorf("%w: checkout: write %s: %w", object.ErrIO, target, err)
				}
				r.log.Debug("checkout file", zap.String("path", target), zap.String("hash", string(leaf.Hash)))
			case *object.Tree:
				if err := os.MkdirAll(target, 0o755); err != nil {
					return fmt.Errorf("%w: checkout: mkdir %s: %w", object.ErrIO, target, err)
				}
				work = append(work, job{o, target})
			default:
				return fmt.Errorf("checkout %s: %w: leaf %s is a %s", target, object.ErrMalformedObject, leaf.Hash, obj.Type())
			}
		}
	}
	return nil
}

// safeLeafPath rejects leaf names that would escape their directory.
func safeLeafPath(name string) bool {
	if name == "" || name == "." || name == ".." || name == ".git" {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
