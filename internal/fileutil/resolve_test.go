package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFilePath(t *testing.T) {
	root := t.TempDir()
	pluginsDir := filepath.Join(root, "plugins")
	require.NoError(t, os.MkdirAll(filepath.Join(pluginsDir, "phile", "demo"), 0755))
	pluginFile := filepath.Join(pluginsDir, "phile", "demo", "config.yaml")
	require.NoError(t, os.WriteFile(pluginFile, []byte("a: 1"), 0644))
	plainFile := filepath.Join(root, "plain.txt")
	require.NoError(t, os.WriteFile(plainFile, []byte("x"), 0644))

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "mod prefix", path: "mod:phile/demo/config.yaml", expected: pluginFile},
		{name: "upper case prefix", path: "MOD:phile/demo/config.yaml", expected: pluginFile},
		{name: "mixed case prefix", path: "Mod:phile/demo/config.yaml", expected: pluginFile},
		{name: "plain path", path: plainFile, expected: plainFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := ResolveFilePath(tt.path, pluginsDir)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestResolveFilePath_NotFound(t *testing.T) {
	pluginsDir := t.TempDir()

	tests := []string{
		"mod:missing/config.yaml",
		filepath.Join(pluginsDir, "missing.txt"),
		"mod",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			_, err := ResolveFilePath(path, pluginsDir)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: Demo\npages: 3\n"), 0644))

	var v struct {
		Title string `yaml:"title"`
		Pages int    `yaml:"pages"`
	}
	require.NoError(t, Load(path, &v))
	assert.Equal(t, "Demo", v.Title)
	assert.Equal(t, 3, v.Pages)
}

func TestLoad_Generic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0644))

	var v any
	require.NoError(t, Load(path, &v))
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestLoad_NotFound(t *testing.T) {
	var v any
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &v)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: valid: yaml: ["), 0644))

	var v any
	err := Load(path, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
