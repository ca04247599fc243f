package object

import (
	"fmt"
	"sort"
	"strings"
)

// ReachableSet returns every object hash reachable from roots by following
// tag targets, commit trees and parents, and tree leaves. Missing objects
// are skipped. Gitlink leaves name commits in other repositories and are
// not followed.
func (s *Store) ReachableSet(roots []Hash) (map[Hash]struct{}, error) {
	roots = uniqueNormalizedHashes(roots)
	out := make(map[Hash]struct{}, len(roots))
	if len(roots) == 0 {
		return out, nil
	}

	stack := make([]Hash, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := out[h]; ok {
			continue
		}
		if !s.Has(h) {
			continue
		}
		out[h] = struct{}{}

		obj, err := s.Read(h)
		if err != nil {
			return nil, fmt.Errorf("reachable set read %s: %w", h, err)
		}
		refs, err := referencedHashes(obj)
		if err != nil {
			return nil, fmt.Errorf("reachable set parse %s (%s): %w", h, obj.Type(), err)
		}
		stack = append(stack, refs...)
	}

	return out, nil
}

// Missing returns the hashes referenced from roots, directly or through
// other objects, that are absent from the store. The result is sorted.
func (s *Store) Missing(roots []Hash) ([]Hash, error) {
	seen := make(map[Hash]struct{})
	var missing []Hash
	stack := uniqueNormalizedHashes(roots)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		if !s.Has(h) {
			missing = append(missing, h)
			continue
		}
		obj, err := s.Read(h)
		if err != nil {
			return nil, fmt.Errorf("missing objects read %s: %w", h, err)
		}
		refs, err := referencedHashes(obj)
		if err != nil {
			return nil, fmt.Errorf("missing objects parse %s (%s): %w", h, obj.Type(), err)
		}
		stack = append(stack, refs...)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

func referencedHashes(obj Object) ([]Hash, error) {
	switch o := obj.(type) {
	case *Blob:
		return nil, nil
	case *Tag:
		target, _, err := o.Target()
		if err != nil {
			return nil, err
		}
		return []Hash{target}, nil
	case *Commit:
		tree, err := o.TreeHash()
		if err != nil {
			return nil, err
		}
		parents := o.Parents()
		refs := make([]Hash, 0, 1+len(parents))
		refs = append(refs, tree)
		refs = append(refs, parents...)
		return refs, nil
	case *Tree:
		refs := make([]Hash, 0, len(o.Leaves))
		for _, l := range o.Leaves {
			if l.Mode == TreeModeGitlink {
				continue
			}
			refs = append(refs, l.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownObjectType, obj)
	}
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.ToLower(strings.TrimSpace(string(h))))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
