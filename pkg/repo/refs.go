package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/willothy/wit/pkg/object"
	"go.uber.org/zap"
)

const (
	symrefPrefix = "ref: "

	// maxRefDepth bounds symbolic ref chains in addition to cycle detection.
	maxRefDepth = 32

	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Ref is a node of the reference namespace: either a direct ref holding a
// resolved hash or a directory of further refs.
type Ref struct {
	Name     string
	Hash     object.Hash
	Children []*Ref
	dir      bool
}

// IsDir reports whether the ref is a namespace rather than a direct ref.
func (ref *Ref) IsDir() bool {
	return ref.dir
}

// NamedRef is a direct ref with its full slash-separated name.
type NamedRef struct {
	Name string
	Hash object.Hash
}

// Flatten returns the direct refs below ref in listing order, named
// relative to prefix.
func (ref *Ref) Flatten(prefix string) []NamedRef {
	var out []NamedRef
	type item struct {
		ref    *Ref
		prefix string
	}
	stack := []item{{ref, prefix}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !it.ref.dir {
			out = append(out, NamedRef{Name: it.prefix, Hash: it.ref.Hash})
			continue
		}
		for i := len(it.ref.Children) - 1; i >= 0; i-- {
			child := it.ref.Children[i]
			stack = append(stack, item{child, path.Join(it.prefix, child.Name)})
		}
	}
	return out
}

// Head reads .git/HEAD. If it is symbolic, the target ref name is returned
// (e.g. "refs/heads/main"); otherwise the detached hash.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(r.Path("HEAD"))
	if err != nil {
		return "", fmt.Errorf("%w: head: %w", object.ErrIO, err)
	}
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, symrefPrefix); ok {
		return strings.TrimSpace(target), nil
	}
	return content, nil
}

// ResolveRef follows a chain of ref files starting at name (a path relative
// to .git, such as "HEAD" or "refs/heads/main") until it reaches one that
// holds a hash. A chain that revisits a ref fails with ErrRefCycle.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	seen := make(map[string]struct{})
	cur := name
	for depth := 0; ; depth++ {
		if _, ok := seen[cur]; ok {
			return "", fmt.Errorf("resolve ref %q: %w at %q", name, ErrRefCycle, cur)
		}
		if depth >= maxRefDepth {
			return "", fmt.Errorf("resolve ref %q: %w: more than %d hops", name, ErrRefCycle, maxRefDepth)
		}
		seen[cur] = struct{}{}

		data, err := os.ReadFile(r.Path(filepath.FromSlash(cur)))
		if err != nil {
			return "", fmt.Errorf("%w: resolve ref %q: %w", object.ErrIO, cur, err)
		}
		content := string(data)
		target, ok := strings.CutPrefix(content, symrefPrefix)
		if !ok {
			return object.Hash(strings.TrimSpace(content)), nil
		}
		next := strings.TrimSpace(target)
		r.log.Debug("ref hop", zap.String("from", cur), zap.String("to", next))
		cur = next
	}
}

// ResolveHead resolves HEAD. An unborn branch, whose ref file does not
// exist yet, gives an empty hash and no error.
func (r *Repo) ResolveHead() (object.Hash, error) {
	return r.resolveOptional("HEAD")
}

func (r *Repo) resolveOptional(name string) (object.Hash, error) {
	h, err := r.ResolveRef(name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return h, err
}

// ListRefs returns the refs/ namespace as a tree of Ref nodes. Each file is
// resolved to a hash; directories become nested namespaces in name order.
func (r *Repo) ListRefs() (*Ref, error) {
	return r.listRefDir("refs")
}

func (r *Repo) listRefDir(rel string) (*Ref, error) {
	root := &Ref{Name: path.Base(rel), dir: true}
	type item struct {
		node *Ref
		rel  string
	}
	queue := []item{{root, rel}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(r.Path(filepath.FromSlash(it.rel)))
		if err != nil {
			return nil, fmt.Errorf("%w: list refs %s: %w", object.ErrIO, it.rel, err)
		}
		for _, e := range entries {
			childRel := path.Join(it.rel, e.Name())
			if e.IsDir() {
				child := &Ref{Name: e.Name(), dir: true}
				it.node.Children = append(it.node.Children, child)
				queue = append(queue, item{child, childRel})
				continue
			}
			if strings.HasSuffix(e.Name(), ".lock") {
				continue
			}
			h, err := r.ResolveRef(childRel)
			if err != nil {
				return nil, fmt.Errorf("list refs: %w", err)
			}
			it.node.Children = append(it.node.Children, &Ref{Name: e.Name(), Hash: h})
		}
	}
	return root, nil
}

// UpdateRef points name at h, overwriting the whole ref file, and records
// the change in the ref's reflog.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	return r.UpdateRefReason(name, h, "update")
}

// UpdateRefReason is UpdateRef with the reflog reason spelled out.
func (r *Repo) UpdateRefReason(name string, h object.Hash, reason string) error {
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	old, err := r.resolveOptional(name)
	if err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	if err := r.writeRef(name, string(h)+"\n"); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	r.log.Debug("ref updated", zap.String("ref", name), zap.String("hash", string(h)))
	if err := r.appendReflog(name, old, h, reason); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	return nil
}

// SetSymbolicRef makes name a symbolic ref to target ("refs/heads/main").
func (r *Repo) SetSymbolicRef(name, target string) error {
	if err := r.writeRef(name, symrefPrefix+target+"\n"); err != nil {
		return fmt.Errorf("set symbolic ref %q: %w", name, err)
	}
	return nil
}

// writeRef writes content through a lock file renamed into place.
func (r *Repo) writeRef(name, content string) error {
	if err := validateRefName(name); err != nil {
		return err
	}
	parts := strings.Split(name, "/")
	refPath, err := r.File(true, parts...)
	if err != nil {
		return err
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("%w: lock: %w", object.ErrIO, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	if _, err := lockFile.WriteString(content); err != nil {
		return fmt.Errorf("%w: write: %w", object.ErrIO, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("%w: close: %w", object.ErrIO, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("%w: rename: %w", object.ErrIO, err)
	}
	cleanupLock = false
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

func validateRefName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty ref name", ErrUnknownRef)
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.Contains(name, "..") || strings.Contains(name, "//") ||
		strings.HasSuffix(name, ".lock") ||
		strings.ContainsAny(name, " \t\n\r\\:?*[~^") {
		return fmt.Errorf("%w: invalid ref name %q", ErrUnknownRef, name)
	}
	return nil
}
