// Package atomicfile handles atomic replacement of small files such as the site config.
package atomicfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/philecms/philekit/internal/nanoid"
)

const (
	// DefaultMode is the permission mode for written files (0600)
	DefaultMode = 0600
	// TempFilePrefix is the prefix for temporary files
	TempFilePrefix = ".philekit_"
)

// Writer handles atomic file writes
type Writer struct {
	// idGenerator allows for dependency injection in tests
	idGenerator func() (string, error)
	// timeNow allows for dependency injection in tests
	timeNow func() time.Time
}

// New creates a new Writer
func New() *Writer {
	return &Writer{
		idGenerator: nanoid.Generate,
		timeNow:     time.Now,
	}
}

// NewWithDeps creates a new Writer with custom dependencies (for testing)
func NewWithDeps(idGen func() (string, error), timeNow func() time.Time) *Writer {
	return &Writer{
		idGenerator: idGen,
		timeNow:     timeNow,
	}
}

// WriteResult contains information about a write operation
type WriteResult struct {
	// Changed indicates whether the file content was different
	Changed bool
	// Path is the final path of the written file
	Path string
}

// WriteAtomic atomically replaces the file at path with content.
// The content goes to a temp file in the same directory which is synced
// and then renamed over the target, so readers never see a partial file.
// Nothing is written when the existing content is identical.
func (w *Writer) WriteAtomic(path string, content []byte, mode os.FileMode) (*WriteResult, error) {
	existingContent, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existingContent, content) {
		return &WriteResult{Changed: false, Path: path}, nil
	}

	timestamp := w.timeNow().UTC().Format("20060102_150405")
	id, err := w.idGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate temp file ID: %w", err)
	}
	tempFilename := fmt.Sprintf("%s%s_%s", TempFilePrefix, timestamp, id)
	tempPath := filepath.Join(filepath.Dir(path), tempFilename)

	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_EXCL, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	// umask may have narrowed the mode at creation
	if err := tempFile.Chmod(mode); err != nil {
		return nil, fmt.Errorf("failed to set temp file permissions: %w", err)
	}

	if _, err := tempFile.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write content: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return &WriteResult{Changed: true, Path: path}, nil
}

// ReadContent reads the current content of a file.
// Returns empty byte slice if file doesn't exist.
func ReadContent(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	return content, nil
}

// WriterProvider is an interface for atomic file writing
type WriterProvider interface {
	WriteAtomic(path string, content []byte, mode os.FileMode) (*WriteResult, error)
}
