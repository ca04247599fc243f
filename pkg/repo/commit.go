package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/willothy/wit/pkg/object"
	"go.uber.org/zap"
)

// CommitTree writes a commit object for tree with the given parents. author
// is an identity such as "Jane <jane@example.com>"; it is used for both the
// author and committer fields, stamped with now.
func (r *Repo) CommitTree(tree object.Hash, parents []object.Hash, author, message string, now time.Time) (object.Hash, error) {
	if _, err := r.Store.ReadTree(tree); err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	for _, p := range parents {
		if _, err := r.Store.ReadCommit(p); err != nil {
			return "", fmt.Errorf("commit tree: parent: %w", err)
		}
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = "unknown <unknown>"
	}

	c := &object.Commit{KVLM: object.NewKVLM()}
	c.KVLM.Add("tree", string(tree))
	for _, p := range parents {
		c.KVLM.Add("parent", string(p))
	}
	sig := Signature(author, now)
	c.KVLM.Add("author", sig)
	c.KVLM.Add("committer", sig)
	c.KVLM.Message = ensureTrailingNewline(message)

	h, err := r.Store.Write(c)
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	r.log.Debug("commit written", zap.String("hash", string(h)), zap.Int("parents", len(parents)))
	return h, nil
}

// Commit snapshots the working tree, writes a commit whose parent is the
// current HEAD (if any) and advances the branch HEAD points at, or HEAD
// itself when detached.
func (r *Repo) Commit(author, message string, now time.Time) (object.Hash, error) {
	if err := r.requireWorktree(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	tree, err := r.BuildTree(r.Worktree)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	parent, err := r.ResolveHead()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	var parents []object.Hash
	if parent != "" {
		parents = append(parents, parent)
	}

	h, err := r.CommitTree(tree, parents, author, message, now)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	ref := "HEAD"
	if strings.HasPrefix(head, "refs/") {
		ref = head
	}
	if err := r.UpdateRef(ref, h); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return h, nil
}
