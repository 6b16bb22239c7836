package setupkey

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philecms/philekit/internal/atomicfile"
	"github.com/philecms/philekit/internal/backup"
	"github.com/philecms/philekit/internal/config"
	"github.com/philecms/philekit/internal/token"
)

type failingBackups struct{}

func (failingBackups) CreateBackup(string) (string, error) {
	return "", errors.New("disk full")
}

func (failingBackups) RotateBackups(string, int) ([]string, error) {
	return nil, nil
}

func TestRun_CreatesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	result, err := New(nil).Run(path, false)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Empty(t, result.BackupPath)
	assert.Equal(t, KeyLength, utf8.RuneCountInString(result.Key))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, result.Key, cfg.EncryptionKey)

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(atomicfile.DefaultMode), stat.Mode().Perm())
}

func TestRun_FillsEmptyKeyAndKeepsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: "https://example.com/"
plugins:
  phile/demo:
    active: true
`), 0600))

	result, err := New(nil).Run(path, false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.BackupPath)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, result.Key, cfg.EncryptionKey)
	assert.Equal(t, "https://example.com/", cfg.BaseURL)
	assert.True(t, cfg.IsPluginActive("phile/demo"))
}

func TestRun_ExistingKeyWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := []byte("encryption_key: \"0123456789abcdef\"\n")
	require.NoError(t, os.WriteFile(path, original, 0600))

	_, err := New(nil).Run(path, false)
	assert.ErrorIs(t, err, ErrKeyExists)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, content)
}

func TestRun_ForceReplacesKeyWithBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := []byte("encryption_key: \"0123456789abcdef\"\nbackup_retention_count: 1\n")
	require.NoError(t, os.WriteFile(path, original, 0600))

	p := New(nil)
	first, err := p.Run(path, true)
	require.NoError(t, err)
	assert.NotEqual(t, "0123456789abcdef", first.Key)

	backupContent, err := os.ReadFile(first.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, original, backupContent)

	second, err := p.Run(path, true)
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)

	entries, err := os.ReadDir(backup.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "retention of 1 keeps only the newest backup")
}

func TestRun_ForceReplacesWeakKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("encryption_key: weak\n"), 0600))

	_, err := New(nil).Run(path, false)
	assert.ErrorIs(t, err, ErrKeyExists)

	result, err := New(nil).Run(path, true)
	require.NoError(t, err)
	assert.Equal(t, KeyLength, utf8.RuneCountInString(result.Key))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, result.Key, cfg.EncryptionKey)
}

func TestRun_KeepsCommentsAndUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`# site settings
encryption_key: "0123456789abcdef" # generated by setup
theme: default
content_dir: pages # relative to the site root
`), 0600))

	result, err := New(nil).Run(path, true)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(content)
	assert.Contains(t, out, "# site settings")
	assert.Contains(t, out, "# generated by setup")
	assert.Contains(t, out, "theme: default")
	assert.Contains(t, out, "# relative to the site root")
	assert.NotContains(t, out, "0123456789abcdef\"")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, result.Key, cfg.EncryptionKey)
	assert.Equal(t, "pages", cfg.ContentDir)
}

func TestRun_BackupFailureLeavesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := []byte("encryption_key: \"0123456789abcdef\"\n")
	require.NoError(t, os.WriteFile(path, original, 0600))

	p := NewWithDeps(token.New(), atomicfile.New(), failingBackups{}, nil)
	_, err := p.Run(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create backup")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, content)
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: valid: yaml: ["), 0600))

	_, err := New(nil).Run(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}
