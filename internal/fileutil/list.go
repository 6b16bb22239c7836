package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Filter decides whether a listed file is included in the result
type Filter interface {
	Accept(path string, info fs.FileInfo) bool
}

// FilterFunc adapts a plain function to Filter
type FilterFunc func(path string, info fs.FileInfo) bool

// Accept implements Filter
func (f FilterFunc) Accept(path string, info fs.FileInfo) bool {
	return f(path, info)
}

// GeneralFileFilter accepts regular files whose name does not start with a dot
var GeneralFileFilter Filter = FilterFunc(func(_ string, info fs.FileInfo) bool {
	return info.Mode().IsRegular() && !strings.HasPrefix(info.Name(), ".")
})

// ExtensionFilter accepts the files GeneralFileFilter accepts that also carry
// the given extension (including the dot, e.g. ".md").
func ExtensionFilter(ext string) Filter {
	return FilterFunc(func(path string, info fs.FileInfo) bool {
		return GeneralFileFilter.Accept(path, info) && filepath.Ext(info.Name()) == ext
	})
}

// List walks dir recursively, following symbolic links, and returns the paths
// accepted by filter in lexical order. A nil filter means GeneralFileFilter.
// Directories reached twice through links are walked only once.
func List(dir string, filter Filter) ([]string, error) {
	if filter == nil {
		filter = GeneralFileFilter
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, dir)
	}

	w := &walker{filter: filter, visited: make(map[string]bool)}
	if err := w.walk(dir); err != nil {
		return nil, err
	}

	return w.result, nil
}

type walker struct {
	filter  Filter
	visited map[string]bool
	result  []string
}

func (w *walker) walk(dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if w.visited[resolved] {
		return nil
	}
	w.visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// os.Stat follows links so linked files and directories look like their targets
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				// dangling link
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if info.IsDir() {
			if err := w.walk(path); err != nil {
				return err
			}
			continue
		}

		if w.filter.Accept(path, info) {
			w.result = append(w.result, path)
		}
	}

	return nil
}
