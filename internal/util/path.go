// Package util provides filesystem helpers shared by the project operations.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsRootPath checks if the given path represents the current directory.
// It handles "", ".", "./", ".\", and variants with trailing slashes.
func IsRootPath(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	normalized = strings.TrimRight(normalized, "/")
	return normalized == "" || normalized == "."
}

// ResolveTarget turns a user-supplied project directory into a clean absolute
// path and checks that it is an existing directory.
func ResolveTarget(dir string) (string, error) {
	if IsRootPath(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("cannot resolve current directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", dir, err)
	}
	st, err := os.Stat(abs)
	if err != nil || !st.IsDir() {
		return "", fmt.Errorf("target directory does not exist or is not a directory: %s", abs)
	}
	return abs, nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
