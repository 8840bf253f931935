// Package paths provides shared filesystem path helpers for kforge.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand expands environment variables and a leading ~ in path.
func Expand(path string) string {
	return ExpandHome(os.ExpandEnv(path))
}

// ExpandHome expands only a leading ~ to the user's home directory.
// Paths that do not start with ~ come back unchanged, as do ones whose
// home directory cannot be determined.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// EnsureDir creates the parent directory of path when missing.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// EnsureDirPath creates the directory itself when missing.
func EnsureDirPath(dirPath string) error {
	return os.MkdirAll(dirPath, 0o755)
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
