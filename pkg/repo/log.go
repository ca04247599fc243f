package repo

import (
	"fmt"

	"github.com/willothy/wit/pkg/object"
	"go.uber.org/zap"
)

// Edge links a commit to one of its parents.
type Edge struct {
	Child  object.Hash
	Parent object.Hash
}

// LogEntry is a commit reached by Log.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Walk visits the ancestry of start depth-first. For every commit entered
// for the first time, each parent edge is passed to emit in stored order
// before that parent is descended into. Commits already in visited are
// read but not expanded again, so shared ancestors are emitted and walked
// once. visited may be nil; it is updated in place otherwise.
func (r *Repo) Walk(start object.Hash, visited map[object.Hash]struct{}, emit func(Edge) error) error {
	return r.walk(start, visited, nil, emit)
}

// Log returns the commits reachable from start in the order Walk first
// enters them.
func (r *Repo) Log(start object.Hash) ([]LogEntry, error) {
	var out []LogEntry
	err := r.walk(start, nil, func(h object.Hash, c *object.Commit) {
		out = append(out, LogEntry{Hash: h, Commit: c})
	}, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) walk(
	start object.Hash,
	visited map[object.Hash]struct{},
	enterFn func(object.Hash, *object.Commit),
	emit func(Edge) error,
) error {
	if visited == nil {
		visited = make(map[object.Hash]struct{})
	}

	// enter reads h (which must be a commit) and reports whether it was
	// newly visited, together with its parents.
	enter := func(h object.Hash) (bool, []object.Hash, error) {
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return false, nil, fmt.Errorf("walk %s: %w", h, err)
		}
		if _, ok := visited[h]; ok {
			return false, nil, nil
		}
		visited[h] = struct{}{}
		if enterFn != nil {
			enterFn(h, c)
		}
		return true, c.Parents(), nil
	}

	type frame struct {
		hash    object.Hash
		parents []object.Hash
		next    int
	}

	fresh, parents, err := enter(start)
	if err != nil || !fresh {
		return err
	}
	stack := []frame{{hash: start, parents: parents}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.parents) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.hash
		p := top.parents[top.next]
		top.next++

		r.log.Debug("walk edge", zap.String("child", string(child)), zap.String("parent", string(p)))
		if emit != nil {
			if err := emit(Edge{Child: child, Parent: p}); err != nil {
				return err
			}
		}
		fresh, pp, err := enter(p)
		if err != nil {
			return err
		}
		if fresh {
			stack = append(stack, frame{hash: p, parents: pp})
		}
	}
	return nil
}
