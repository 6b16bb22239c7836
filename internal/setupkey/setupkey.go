// Package setupkey provisions the site encryption key in the config file.
package setupkey

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/philecms/philekit/internal/atomicfile"
	"github.com/philecms/philekit/internal/backup"
	"github.com/philecms/philekit/internal/config"
	"github.com/philecms/philekit/internal/token"
)

// KeyLength is the length of generated encryption keys
const KeyLength = 64

// ErrKeyExists indicates the config already holds an encryption key
var ErrKeyExists = errors.New("encryption key already set")

// Provisioner generates and stores encryption keys
type Provisioner struct {
	tokens  *token.Generator
	writer  atomicfile.WriterProvider
	backups backup.ManagerProvider
	logger  *slog.Logger
}

// New creates a Provisioner using crypto/rand and the given logger.
// A nil logger discards output.
func New(logger *slog.Logger) *Provisioner {
	return NewWithDeps(token.New(), atomicfile.New(), backup.New(), logger)
}

// NewWithDeps creates a Provisioner with custom dependencies (for testing)
func NewWithDeps(tokens *token.Generator, writer atomicfile.WriterProvider, backups backup.ManagerProvider, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Provisioner{
		tokens:  tokens,
		writer:  writer,
		backups: backups,
		logger:  logger,
	}
}

// Result describes a provisioning run
type Result struct {
	// Key is the newly generated encryption key
	Key string
	// Changed indicates the config file was rewritten
	Changed bool
	// BackupPath is the backup of the previous config, if one was made
	BackupPath string
	// Rotated lists backups removed by retention
	Rotated []string
}

// Run generates a new encryption key and writes it to the config at path.
// A missing config file is created. An existing key is only replaced when
// force is set; the previous file is backed up first. Only the key is
// edited, so comments and other settings in the file are kept.
func (p *Provisioner) Run(path string, force bool) (*Result, error) {
	existing, err := atomicfile.ReadContent(path)
	if err != nil {
		return nil, err
	}

	// decode only: a weak or malformed key must still be replaceable with force
	cfg, err := config.Unmarshal(existing)
	if err != nil {
		return nil, err
	}

	if cfg.EncryptionKey != "" && !force {
		return nil, ErrKeyExists
	}

	key, err := p.tokens.Generate(KeyLength, token.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}

	content, err := config.SetEncryptionKey(existing, key)
	if err != nil {
		return nil, err
	}

	cfg, err = config.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &Result{Key: key}

	if len(existing) > 0 {
		backupPath, err := p.backups.CreateBackup(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create backup: %w", err)
		}
		result.BackupPath = backupPath
		if backupPath != "" {
			p.logger.Info("created config backup", "path", backupPath)
		}

		deleted, err := p.backups.RotateBackups(path, cfg.GetBackupRetentionCount())
		if err != nil {
			p.logger.Warn("failed to rotate backups",
				"path", path,
				"error", err)
		}
		result.Rotated = deleted
		for _, name := range deleted {
			p.logger.Debug("removed old backup", "name", name)
		}
	}

	written, err := p.writer.WriteAtomic(path, content, atomicfile.DefaultMode)
	if err != nil {
		return nil, fmt.Errorf("failed to write config: %w", err)
	}
	result.Changed = written.Changed

	p.logger.Info("encryption key written",
		"path", written.Path,
		"key_length", KeyLength)

	return result, nil
}
