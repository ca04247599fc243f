package repo

import (
	"fmt"
	"sort"

	"github.com/willothy/wit/pkg/object"
)

// FsckReport summarizes the connectivity of the object store.
type FsckReport struct {
	Objects  int           // loose objects in the store
	Roots    []object.Hash // HEAD plus every ref, deduplicated
	Missing  []object.Hash // referenced but absent
	Dangling []object.Hash // stored but unreachable from any root
}

// OK reports whether no referenced object is missing.
func (rep *FsckReport) OK() bool {
	return len(rep.Missing) == 0
}

// Roots returns the hashes named by HEAD and every ref under refs/, sorted
// and deduplicated. An unborn HEAD contributes nothing.
func (r *Repo) Roots() ([]object.Hash, error) {
	set := make(map[object.Hash]struct{})
	h, err := r.ResolveHead()
	if err != nil {
		return nil, fmt.Errorf("roots: %w", err)
	}
	if h != "" {
		set[h] = struct{}{}
	}
	refs, err := r.ListRefs()
	if err != nil {
		return nil, fmt.Errorf("roots: %w", err)
	}
	for _, nr := range refs.Flatten("refs") {
		if nr.Hash != "" {
			set[nr.Hash] = struct{}{}
		}
	}
	roots := make([]object.Hash, 0, len(set))
	for h := range set {
		roots = append(roots, h)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots, nil
}

// Fsck checks that everything reachable from the refs is present and lists
// stored objects nothing refers to.
func (r *Repo) Fsck() (*FsckReport, error) {
	roots, err := r.Roots()
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	missing, err := r.Store.Missing(roots)
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	reachable, err := r.Store.ReachableSet(roots)
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	all, err := r.Store.List()
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}

	rep := &FsckReport{Objects: len(all), Roots: roots, Missing: missing}
	for _, h := range all {
		if _, ok := reachable[h]; !ok {
			rep.Dangling = append(rep.Dangling, h)
		}
	}
	return rep, nil
}
