package fsutil

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrEscape is returned when a client-supplied path or name would resolve
// outside of the owning user's root.
var ErrEscape = errors.New("invalid path")

// CleanRelPath normalizes a client path to slash form relative to some
// root: backslashes count as separators, leading slashes and "." segments
// are dropped, and ".." cannot climb above the root. "" names the root.
func CleanRelPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// UserRoot returns <root>/<username>. The username must be a single path
// element.
func UserRoot(root, username string) (string, error) {
	if err := ValidName(username); err != nil {
		return "", err
	}
	return filepath.Join(root, username), nil
}

// Resolve returns the absolute on-disk path for rel scoped under
// <root>/<username>/. The result is the user root itself or one of its
// descendants; anything else yields ErrEscape. Existence is not checked.
func Resolve(root, username, rel string) (string, error) {
	userRoot, err := UserRoot(root, username)
	if err != nil {
		return "", err
	}
	return JoinWithinRoot(userRoot, rel)
}

// JoinWithinRoot returns a filesystem path under root for a given rel
// path. It rejects escapes (..).
func JoinWithinRoot(root string, rel string) (string, error) {
	if strings.Contains(rel, "\x00") {
		return "", ErrEscape
	}
	rel = CleanRelPath(rel)
	rootClean := filepath.Clean(root)
	if rel == "" {
		return rootClean, nil
	}
	absClean := filepath.Clean(filepath.Join(rootClean, filepath.FromSlash(rel)))
	if absClean != rootClean && !strings.HasPrefix(absClean, rootClean+string(filepath.Separator)) {
		return "", ErrEscape
	}
	return absClean, nil
}

// ValidName reports whether name can be used as a single path element:
// a file name inside a directory or a per-user directory name.
func ValidName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return ErrEscape
	case strings.ContainsAny(name, "/\\\x00"):
		return ErrEscape
	}
	return nil
}
