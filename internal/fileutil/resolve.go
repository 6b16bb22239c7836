// Package fileutil resolves, loads and lists files under the site directories.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModPrefix marks a path relative to the plugins directory (case-insensitive)
const ModPrefix = "mod:"

// ErrNotFound indicates the requested file does not exist
var ErrNotFound = errors.New("file not found")

// ErrNotDir indicates a path expected to be a directory is something else
var ErrNotDir = errors.New("not a directory")

// ResolveFilePath expands a leading mod: prefix to pluginsDir and returns the
// path if it exists. Returns ErrNotFound otherwise.
func ResolveFilePath(path, pluginsDir string) (string, error) {
	if len(path) >= len(ModPrefix) && strings.EqualFold(path[:len(ModPrefix)], ModPrefix) {
		path = filepath.Join(pluginsDir, path[len(ModPrefix):])
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return path, nil
}

// Load decodes the YAML file at path into v.
// Returns ErrNotFound if the file does not exist.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}
