// Package security confines user-supplied paths and file names.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoots is returned when a path resolves outside every allowed
// directory.
var ErrOutsideRoots = errors.New("path is outside the allowed directories")

// canonical resolves symlinks in path. For a path that does not exist yet,
// the nearest existing parent is resolved and the rest re-attached, so a
// symlinked parent cannot smuggle a new file elsewhere.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, err := filepath.Rel(dir, abs)
			if err != nil {
				return "", err
			}
			return filepath.Join(resolved, rel), nil
		}
		if dir == filepath.Dir(dir) {
			return abs, nil
		}
	}
}

// Within reports an error unless path resolves inside root.
func Within(path, root string) error {
	p, err := canonical(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	r, err := canonical(root)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", root, err)
	}
	rel, err := filepath.Rel(r, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%s: %w", path, ErrOutsideRoots)
	}
	return nil
}

// CheckRoots accepts path if it is inside any of roots. An empty roots list
// accepts everything.
func CheckRoots(path string, roots []string) error {
	if len(roots) == 0 {
		return nil
	}
	for _, root := range roots {
		if Within(path, root) == nil {
			return nil
		}
	}
	return fmt.Errorf("%s: %w %v", path, ErrOutsideRoots, roots)
}

// DefaultRoots returns the working directory and the temp directory.
func DefaultRoots() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return []string{cwd, os.TempDir()}, nil
}

// maxFilename caps SanitizeFilename output.
const maxFilename = 128

// SanitizeFilename turns an arbitrary label, such as a product name, into a
// file name made of ASCII letters, digits, dot, underscore and dash. Runs of
// other characters collapse to one underscore. It never returns "".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if b.Len() >= maxFilename {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			if pending {
				b.WriteByte('_')
				pending = false
			}
			b.WriteRune(r)
		default:
			pending = b.Len() > 0
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
