// Package utils holds small helpers shared by the command line and the
// merge pipeline.
package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading ~ with the user's home directory. Nothing
// else in path is interpreted, so names containing $ are kept as given.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ExpandPath expands a leading ~ and environment variables. It is meant
// for paths read from configuration, not for file names given on the
// command line. URLs are returned unchanged.
func ExpandPath(path string) string {
	if IsURL(path) {
		return path
	}
	return os.ExpandEnv(ExpandHome(path))
}

// IsURL reports whether path carries a storage scheme such as file:// or s3://.
func IsURL(path string) bool {
	return strings.Contains(path, "://")
}

// Location turns a local path into an absolute one, expanding only a
// leading ~. URLs pass through.
func Location(path string) string {
	if IsURL(path) {
		return path
	}
	path = ExpandHome(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
