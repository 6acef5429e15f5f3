package inventory

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LocalRelativePath strips root plus one separator from fullPath and
// converts the result to forward slashes.
func LocalRelativePath(root, fullPath string) (string, error) {
	root = filepath.Clean(root)
	fullPath = filepath.Clean(fullPath)

	base := root
	if !strings.HasSuffix(base, string(filepath.Separator)) {
		base += string(filepath.Separator)
	}
	if !strings.HasPrefix(fullPath, base) {
		return "", fmt.Errorf("%s is not under %s", fullPath, root)
	}

	return filepath.ToSlash(strings.TrimPrefix(fullPath, base)), nil
}

// RemoteRelativePath strips prefix plus one "/" from key. An empty prefix
// leaves the key untouched. Keys outside the prefix report false.
func RemoteRelativePath(prefix, key string) (string, bool) {
	if prefix == "" {
		return key, true
	}

	rel, ok := strings.CutPrefix(key, prefix+"/")
	if !ok {
		return "", false
	}
	return rel, true
}

// NormalizePrefix drops leading and trailing slashes so "p", "p/" and "/p"
// address the same namespace.
func NormalizePrefix(prefix string) string {
	return strings.Trim(prefix, "/")
}

// ObjectKey is the destination key for rel under prefix.
func ObjectKey(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

// ListPrefix is the prefix sent to the store so that sibling prefixes such
// as "p2" are not listed for "p".
func ListPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
