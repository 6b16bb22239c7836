// Package backup handles creation and rotation of config file backups.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/philecms/philekit/internal/nanoid"
)

const (
	// BackupDirSuffix is appended to the file name to form the backup directory
	BackupDirSuffix = "_backups"
	// BackupDirMode is the permission mode for the backup directory
	BackupDirMode = 0700
	// BackupFileMode is the permission mode for backup files
	BackupFileMode = 0600
)

// Manager handles backup creation and rotation
type Manager struct {
	// idGenerator allows for dependency injection in tests
	idGenerator func() (string, error)
	// timeNow allows for dependency injection in tests
	timeNow func() time.Time
}

// New creates a new backup Manager
func New() *Manager {
	return &Manager{
		idGenerator: nanoid.Generate,
		timeNow:     time.Now,
	}
}

// NewWithDeps creates a new backup Manager with custom dependencies (for testing)
func NewWithDeps(idGen func() (string, error), timeNow func() time.Time) *Manager {
	return &Manager{
		idGenerator: idGen,
		timeNow:     timeNow,
	}
}

// Dir returns the backup directory for the file at path.
// Backups of config.yaml live in config.yaml_backups next to it.
func Dir(path string) string {
	return path + BackupDirSuffix
}

// prefix is the filename prefix shared by every backup of path
func prefix(path string) string {
	return filepath.Base(path) + "_"
}

// CreateBackup creates a backup of the file at path.
// Returns the backup file path, or empty string if no backup was created.
// If the source file doesn't exist or is empty, no backup is created.
func (m *Manager) CreateBackup(path string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", filepath.Base(path), err)
	}

	if stat.Size() == 0 {
		return "", nil
	}

	backupDir := Dir(path)
	if err := m.ensureBackupDir(backupDir); err != nil {
		return "", err
	}

	timestamp := m.timeNow().UTC().Format("20060102_150405")
	id, err := m.idGenerator()
	if err != nil {
		return "", fmt.Errorf("failed to generate backup ID: %w", err)
	}
	backupFilename := fmt.Sprintf("%s%s_%s", prefix(path), timestamp, id)
	backupPath := filepath.Join(backupDir, backupFilename)

	if err := m.copyFile(path, backupPath); err != nil {
		return "", err
	}

	return backupPath, nil
}

// ensureBackupDir creates the backup directory if it doesn't exist
func (m *Manager) ensureBackupDir(backupDir string) error {
	stat, err := os.Stat(backupDir)
	if err == nil {
		if !stat.IsDir() {
			return fmt.Errorf("backup path exists but is not a directory: %s", backupDir)
		}
		return nil
	}

	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat backup directory: %w", err)
	}

	if err := os.Mkdir(backupDir, BackupDirMode); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	return nil
}

// copyFile copies a file with backup permissions and syncs it to disk
func (m *Manager) copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, BackupFileMode)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync backup file: %w", err)
	}

	return nil
}

// RotateBackups removes old backups of path, keeping only the specified count.
// Oldest files are deleted first (based on filename which includes timestamp).
func (m *Manager) RotateBackups(path string, retentionCount int) ([]string, error) {
	if retentionCount < 0 {
		return nil, fmt.Errorf("retention count cannot be negative")
	}

	backupDir := Dir(path)
	if _, err := os.Stat(backupDir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix(path)) {
			backups = append(backups, entry.Name())
		}
	}

	// alphabetical = chronological
	sort.Strings(backups)

	deleteCount := len(backups) - retentionCount
	if deleteCount <= 0 {
		return nil, nil
	}

	deleted := make([]string, 0, deleteCount)
	for i := 0; i < deleteCount; i++ {
		p := filepath.Join(backupDir, backups[i])
		if err := os.Remove(p); err != nil {
			return deleted, fmt.Errorf("failed to remove backup %s: %w", backups[i], err)
		}
		deleted = append(deleted, backups[i])
	}

	return deleted, nil
}

// ManagerProvider is an interface for backup management
type ManagerProvider interface {
	CreateBackup(path string) (string, error)
	RotateBackups(path string, retentionCount int) ([]string, error)
}
