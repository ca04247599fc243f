package repo

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/willothy/wit/pkg/object"
	"go.uber.org/zap"
)

const (
	defaultDescription = "Unnamed repository; edit this file 'description' to name the repository.\n"
	defaultHead        = "ref: refs/heads/main\n"
)

// Open opens the repository whose working tree is worktree. The .git
// directory and its config must exist, and the config must declare a
// supported format version.
func Open(worktree string, opts ...Option) (*Repo, error) {
	o := buildOptions(opts)
	gitDir := filepath.Join(worktree, ".git")

	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("open: %w: %s is not a repository", ErrRepoNotFound, worktree)
	}

	cfgPath := filepath.Join(gitDir, "config")
	if info, err := os.Stat(cfgPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("open: %w: %s has no config file", ErrRepoNotFound, worktree)
	}
	cfg, err := ReadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("open %s: %w", worktree, err)
	}

	o.log.Debug("repository opened", zap.String("worktree", worktree))
	return newRepo(worktree, gitDir, cfg, o), nil
}

// Create initializes a repository at worktree, which must not exist or be
// an empty directory. It writes branches/, objects/, refs/tags/,
// refs/heads/, description, HEAD and a default config.
//
// Files are written one after another; a failure part way through leaves
// whatever was already created in place.
func Create(worktree string, opts ...Option) (*Repo, error) {
	o := buildOptions(opts)

	info, err := os.Stat(worktree)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %w: %s", ErrRepoCreation, ErrNotDirectory, worktree)
		}
		empty, err := isEmptyDir(worktree)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRepoCreation, err)
		}
		if !empty {
			return nil, fmt.Errorf("%w: %w: %s", ErrRepoCreation, ErrNotEmpty, worktree)
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(worktree, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w: mkdir %s: %w", ErrRepoCreation, object.ErrIO, worktree, err)
		}
	default:
		return nil, fmt.Errorf("%w: %w: stat %s: %w", ErrRepoCreation, object.ErrIO, worktree, err)
	}

	cfg := DefaultConfig()
	r := newRepo(worktree, filepath.Join(worktree, ".git"), cfg, o)

	for _, dir := range [][]string{
		{"branches"},
		{"objects"},
		{"refs", "tags"},
		{"refs", "heads"},
	} {
		if _, err := r.Dir(true, dir...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRepoCreation, err)
		}
	}

	var cfgText bytes.Buffer
	if err := cfg.Encode(&cfgText); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepoCreation, err)
	}
	files := []struct {
		name string
		data []byte
	}{
		{"description", []byte(defaultDescription)},
		{"HEAD", []byte(defaultHead)},
		{"config", cfgText.Bytes()},
	}
	for _, f := range files {
		p, err := r.File(true, f.name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRepoCreation, err)
		}
		if err := os.WriteFile(p, f.data, 0o644); err != nil {
			return nil, fmt.Errorf("%w: %w: write %s: %w", ErrRepoCreation, object.ErrIO, f.name, err)
		}
	}

	o.log.Debug("repository created", zap.String("worktree", worktree))
	return r, nil
}

// Find searches upward from start for a directory containing .git and
// opens it. When nothing is found, Find returns ErrRepoNotFound if
// required is set and (nil, nil) otherwise.
func Find(start string, required bool, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("find: %w: %w", ErrPathConversion, err)
	}
	cur, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("find: %w: %s: %w", object.ErrIO, abs, err)
	}

	for {
		info, err := os.Stat(filepath.Join(cur, ".git"))
		if err == nil && info.IsDir() {
			return Open(cur, opts...)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			if required {
				return nil, fmt.Errorf("find: %w: no .git directory in %s or any parent", ErrRepoNotFound, abs)
			}
			return nil, nil
		}
		cur = parent
	}
}

func isEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, fmt.Errorf("%w: open %s: %w", object.ErrIO, dir, err)
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %w", object.ErrIO, dir, err)
	}
	return false, nil
}
