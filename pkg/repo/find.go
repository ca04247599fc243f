package repo

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/willothy/wit/pkg/object"
	"go.uber.org/zap"
)

const (
	minPrefixLen = 4
	maxPrefixLen = object.HashSize * 2
)

// Find resolves a user-supplied name to an object hash.
//
// The name may be HEAD, a hex prefix of 4 to 40 characters, a tag, branch
// or remote-tracking branch name, a full refs/ path, or "<name>:<path>" to
// address an entry inside a commit's tree. If several distinct objects
// match, Find fails with ErrAmbiguousRef; if none do, ErrUnknownRef.
//
// When typ is non-empty the result must have that type. With follow set,
// tags are peeled through their object field and commits through their
// tree field until the type matches; without it a mismatch is
// ErrMalformedObject.
func (r *Repo) Find(name string, typ object.ObjectType, follow bool) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("find: %w: empty name", ErrUnknownRef)
	}

	var (
		h   object.Hash
		err error
	)
	if rev, rel, ok := strings.Cut(name, ":"); ok {
		h, err = r.findTreeEntry(rev, rel)
	} else {
		h, err = r.findUnique(name)
	}
	if err != nil {
		return "", err
	}
	if typ == "" {
		return h, nil
	}
	return r.peel(name, h, typ, follow)
}

func (r *Repo) findUnique(name string) (object.Hash, error) {
	candidates, err := r.candidates(name)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("find: %w: %q", ErrUnknownRef, name)
	case 1:
		r.log.Debug("name resolved", zap.String("name", name), zap.String("hash", string(candidates[0])))
		return candidates[0], nil
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = string(c)
		}
		return "", fmt.Errorf("find: %w: %q matches %s", ErrAmbiguousRef, name, strings.Join(names, ", "))
	}
}

// candidates returns the distinct hashes name could refer to, sorted.
func (r *Repo) candidates(name string) ([]object.Hash, error) {
	set := make(map[object.Hash]struct{})

	if name == "HEAD" {
		h, err := r.ResolveRef("HEAD")
		if err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
		set[h] = struct{}{}
	}

	lower := strings.ToLower(name)
	if len(lower) >= minPrefixLen && len(lower) <= maxPrefixLen && isHex(lower) {
		matches, err := r.Store.PrefixMatch(lower)
		if err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
		for _, m := range matches {
			set[m] = struct{}{}
		}
	}

	refNames := []string{"refs/tags/" + name, "refs/heads/" + name, "refs/remotes/" + name}
	if strings.HasPrefix(name, "refs/") {
		refNames = append(refNames, name)
	}
	for _, ref := range refNames {
		if validateRefName(ref) != nil {
			continue
		}
		info, err := os.Stat(r.Path(strings.Split(ref, "/")...))
		if err != nil || info.IsDir() {
			continue
		}
		h, err := r.ResolveRef(ref)
		if err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
		set[h] = struct{}{}
	}

	out := make([]object.Hash, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// peel follows tags and commits from h until an object of type want is
// reached.
func (r *Repo) peel(name string, h object.Hash, want object.ObjectType, follow bool) (object.Hash, error) {
	for {
		obj, err := r.Store.Read(h)
		if err != nil {
			return "", fmt.Errorf("find %q: %w", name, err)
		}
		if obj.Type() == want {
			return h, nil
		}
		if !follow {
			return "", fmt.Errorf("find %q: %w: %s is a %s, not a %s", name, object.ErrMalformedObject, h, obj.Type(), want)
		}

		switch o := obj.(type) {
		case *object.Tag:
			target, _, err := o.Target()
			if err != nil {
				return "", fmt.Errorf("find %q: tag %s: %w", name, h, err)
			}
			h = target
		case *object.Commit:
			if want != object.TypeTree {
				return "", fmt.Errorf("find %q: %w: commit %s cannot be peeled to a %s", name, object.ErrMalformedObject, h, want)
			}
			tree, err := o.TreeHash()
			if err != nil {
				return "", fmt.Errorf("find %q: commit %s: %w", name, h, err)
			}
			h = tree
		default:
			return "", fmt.Errorf("find %q: %w: %s is a %s, not a %s", name, object.ErrMalformedObject, h, obj.Type(), want)
		}
	}
}

// findTreeEntry resolves "<rev>:<path>". An empty path names the root tree.
func (r *Repo) findTreeEntry(rev, rel string) (object.Hash, error) {
	if rev == "" {
		rev = "HEAD"
	}
	root, err := r.Find(rev, object.TypeTree, true)
	if err != nil {
		return "", err
	}
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return root, nil
	}
	leaf, found, err := r.TreeEntryAtPath(root, rel)
	if err != nil {
		return "", fmt.Errorf("find %s:%s: %w", rev, rel, err)
	}
	if !found {
		return "", fmt.Errorf("find: %w: path %q does not exist in %q", ErrUnknownRef, rel, rev)
	}
	return leaf.Hash, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
