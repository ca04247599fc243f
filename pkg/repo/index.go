package repo

import (
	"fmt"

	"github.com/willothy/wit/pkg/index"
)

// ReadIndex parses .git/index.
func (r *Repo) ReadIndex() (*index.Index, error) {
	idx, err := index.ReadFile(r.Path("index"))
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return idx, nil
}
