package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/willothy/wit/pkg/object"
	"go.uber.org/zap"
)

// Repo represents an opened repository.
type Repo struct {
	Worktree string        // working tree root
	GitDir   string        // .git/ directory
	Config   *Config       // parsed .git/config
	Store    *object.Store // content-addressed object store

	log      *zap.Logger
	identity string
}

// DefaultIdentity signs reflog entries when no identity is configured.
const DefaultIdentity = "wit <wit@localhost>"

// Option configures how a repository is opened or created.
type Option func(*options)

type options struct {
	log       *zap.Logger
	cacheSize int
	identity  string
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop(), cacheSize: object.DefaultCacheSize, identity: DefaultIdentity}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger routes debug events of the repository and its store to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithCacheSize sets the object cache size. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithIdentity sets the "Name <email>" recorded in reflog entries.
func WithIdentity(identity string) Option {
	return func(o *options) {
		if identity != "" {
			o.identity = identity
		}
	}
}

func newRepo(worktree, gitDir string, cfg *Config, o options) *Repo {
	return &Repo{
		Worktree: worktree,
		GitDir:   gitDir,
		Config:   cfg,
		Store: object.NewStore(gitDir,
			object.WithLogger(o.log),
			object.WithCacheSize(o.cacheSize),
		),
		log:      o.log,
		identity: o.identity,
	}
}

// requireWorktree fails with ErrBareRepository when core.bare is set.
func (r *Repo) requireWorktree() error {
	if r.Config.Bare() {
		return fmt.Errorf("%w: %s is bare", ErrBareRepository, r.GitDir)
	}
	return nil
}

// Path joins parts onto the metadata directory without touching the
// filesystem.
func (r *Repo) Path(parts ...string) string {
	return filepath.Join(append([]string{r.GitDir}, parts...)...)
}

// Dir returns the metadata subdirectory named by parts. An existing
// non-directory is ErrNotDirectory. A missing directory is created when
// mkdir is set and reported as an I/O error otherwise.
func (r *Repo) Dir(mkdir bool, parts ...string) (string, error) {
	p := r.Path(parts...)
	info, err := os.Stat(p)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrNotDirectory, p)
		}
		return p, nil
	case !os.IsNotExist(err):
		return "", fmt.Errorf("%w: stat %s: %w", object.ErrIO, p, err)
	case !mkdir:
		return "", fmt.Errorf("%w: %s: %w", object.ErrIO, p, err)
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %w", object.ErrIO, p, err)
	}
	return p, nil
}

// File returns the metadata path named by parts after making sure its
// parent directory exists (creating it when mkdir is set).
func (r *Repo) File(mkdir bool, parts ...string) (string, error) {
	if len(parts) > 1 {
		if _, err := r.Dir(mkdir, parts[:len(parts)-1]...); err != nil {
			return "", err
		}
	}
	return r.Path(parts...), nil
}
