package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

// LocalPath converts a document URI to a local path.
// Handles file:// URIs and bare paths.
func LocalPath(uri string) string {
	return filepath.Clean(strings.TrimPrefix(uri, "file://"))
}

// isHidden reports whether any element of path starts with a dot.
// The . and .. elements are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

// within reports whether path is root or lies beneath it.
func within(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}
