package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Store hands out directories for working copies.
// This abstraction lets the resolver be tested without touching the real temp dir.
type Store interface {
	// Allocate creates a fresh, empty directory for cloning reference.
	Allocate(ctx context.Context, reference string) (string, error)

	// Release removes a directory previously returned by Allocate.
	Release(ctx context.Context, dir string) error
}

// DirStore is a filesystem Store rooted at a base directory.
// Working copies live under <baseDir>/<repo-slug>-<random>.
type DirStore struct {
	baseDir string
}

// NewDirStore creates the base directory if needed and returns a store over it.
func NewDirStore(baseDir string) (*DirStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace directory: %w", err)
	}
	return &DirStore{baseDir: abs}, nil
}

// BaseDir returns the directory working copies are created in.
func (s *DirStore) BaseDir() string {
	return s.baseDir
}

func (s *DirStore) Allocate(ctx context.Context, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(s.baseDir, Slug(reference)+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create working copy directory: %w", err)
	}
	return dir, nil
}

func (s *DirStore) Release(ctx context.Context, dir string) error {
	rel, err := filepath.Rel(s.baseDir, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to remove %s: not inside %s", dir, s.baseDir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove working copy: %w", err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug turns a repository reference into a short directory-safe name,
// using the last two path segments ("org/app" -> "org-app").
func Slug(reference string) string {
	ref := strings.TrimSuffix(strings.TrimRight(reference, "/"), ".git")
	ref = strings.ReplaceAll(ref, ":", "/")
	parts := strings.FieldsFunc(ref, func(r rune) bool { return r == '/' })
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.Join(parts, "-"), "_"), "._-")
	if slug == "" {
		return "repo"
	}
	return slug
}
