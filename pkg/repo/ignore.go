package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/willothy/wit/pkg/object"
)

// IgnoreChecker determines if a worktree path should be left out of a
// snapshot. .git is always ignored; further patterns come from .gitignore
// files throughout the worktree and from .git/info/exclude.
type IgnoreChecker struct {
	matcher gitignore.Matcher
}

// NewIgnoreChecker reads the ignore patterns of the worktree rooted at root.
// Patterns in .git/info/exclude rank below every .gitignore file.
func NewIgnoreChecker(root string) (*IgnoreChecker, error) {
	patterns, err := readExcludeFile(filepath.Join(root, ".git", "info", "exclude"))
	if err != nil {
		return nil, err
	}
	found, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, fmt.Errorf("read ignore patterns: %w", err)
	}
	patterns = append(patterns, found...)
	return &IgnoreChecker{matcher: gitignore.NewMatcher(patterns)}, nil
}

// NewIgnoreCheckerFromLines builds a checker from .gitignore-style lines
// applying at the worktree root.
func NewIgnoreCheckerFromLines(lines []string) *IgnoreChecker {
	return &IgnoreChecker{matcher: gitignore.NewMatcher(parseIgnoreLines(lines))}
}

func readExcludeFile(path string) ([]gitignore.Pattern, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", object.ErrIO, path, err)
	}
	return parseIgnoreLines(strings.Split(string(data), "\n")), nil
}

func parseIgnoreLines(lines []string) []gitignore.Pattern {
	var patterns []gitignore.Pattern
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}

// IsIgnored reports whether the slash-separated worktree path is ignored.
func (ic *IgnoreChecker) IsIgnored(relPath string, isDir bool) bool {
	parts := strings.Split(strings.Trim(relPath, "/"), "/")
	if parts[0] == ".git" {
		return true
	}
	if ic == nil || ic.matcher == nil {
		return false
	}
	return ic.matcher.Match(parts, isDir)
}
