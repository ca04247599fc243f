package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/willothy/wit/pkg/object"
)

// ErrBranchExists is returned when creating a branch that already exists.
var ErrBranchExists = errors.New("branch already exists")

// CreateBranch points refs/heads/<name> at target, which must be a commit.
// An existing branch is an error.
func (r *Repo) CreateBranch(name string, target object.Hash) error {
	refName := "refs/heads/" + name
	if err := validateRefName(refName); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if _, err := r.Store.ReadCommit(target); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	if r.refExists(refName) {
		return fmt.Errorf("create branch: %w: %q", ErrBranchExists, name)
	}
	if err := r.UpdateRefReason(refName, target, "branch: created"); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes refs/heads/<name>. The branch HEAD points at cannot
// be deleted.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}

	refName := "refs/heads/" + name
	if err := validateRefName(refName); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if err := os.Remove(r.Path(strings.Split(refName, "/")...)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete branch: %w: %q", ErrUnknownRef, name)
		}
		return fmt.Errorf("%w: delete branch %q: %w", object.ErrIO, name, err)
	}
	return nil
}

// ListBranches returns the branches under refs/heads/ in name order.
// Nested names such as "feature/x" keep their slashes.
func (r *Repo) ListBranches() ([]NamedRef, error) {
	if _, err := os.Stat(r.Path("refs", "heads")); os.IsNotExist(err) {
		return nil, nil
	}
	heads, err := r.listRefDir("refs/heads")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return heads.Flatten(""), nil
}

// CurrentBranch returns the branch HEAD points at ("ref: refs/heads/main"
// gives "main"), or "" when HEAD is detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	branch, ok := strings.CutPrefix(head, "refs/heads/")
	if !ok {
		return "", nil
	}
	return branch, nil
}
