// Package pathutil confines client-supplied paths to a project directory.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned when a path would resolve outside its base directory.
var ErrOutsideBase = errors.New("path escapes the project directory")

// RedactPath reduces a full path to .../<parent>/<basename> for error messages
// that may reach a remote client.
// For example, "/home/user/project/.epigraph/results" becomes ".../.epigraph/results".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// Within joins rel onto base and returns the absolute result. rel must be a
// local relative path, and the result must stay inside base after symlinks
// on its existing ancestors are resolved. The target need not exist.
func Within(base, rel string) (string, error) {
	if rel == "" {
		return "", errors.New("path is empty")
	}
	if strings.ContainsRune(rel, '\x00') {
		return "", errors.New("path contains null byte")
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q must be relative and must not use \"..\"", ErrOutsideBase, rel)
	}

	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving project directory: %w", err)
	}
	baseResolved, err := resolveExisting(baseAbs)
	if err != nil {
		return "", err
	}

	target := filepath.Join(baseAbs, rel)
	resolved, err := resolveExisting(target)
	if err != nil {
		return "", err
	}

	if !isSubpath(resolved, baseResolved) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, RedactPath(target))
	}
	return target, nil
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of path
// and re-appends the missing tail.
func resolveExisting(path string) (string, error) {
	var tail []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("cannot resolve path: %s", RedactPath(path))
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}

// isSubpath reports whether path is base or lies below it.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}
