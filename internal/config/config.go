// Package config handles YAML site configuration loading and validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/philecms/philekit/internal/fileutil"
)

const (
	// DefaultConfigPath is the default configuration file path
	DefaultConfigPath = "config.yaml"

	// DefaultPluginsDir is the default plugins directory
	DefaultPluginsDir = "plugins"

	// DefaultContentDir is the default content directory
	DefaultContentDir = "content"

	// DefaultContentExtension is the default extension of content files
	DefaultContentExtension = ".md"

	// DefaultBackupRetentionCount is the default number of config backups to keep
	DefaultBackupRetentionCount = 10

	// MinEncryptionKeyLength is the shortest accepted encryption key
	MinEncryptionKeyLength = 16
)

// Environment variables overriding file values
const (
	EnvEncryptionKey = "PHILE_ENCRYPTION_KEY"
	EnvBaseURL       = "PHILE_BASE_URL"
	EnvPluginsDir    = "PHILE_PLUGINS_DIR"
)

var extensionPattern = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Config represents the site configuration
type Config struct {
	EncryptionKey        string            `yaml:"encryption_key"`
	BaseURL              string            `yaml:"base_url,omitempty"`
	PluginsDir           string            `yaml:"plugins_dir,omitempty"`
	ContentDir           string            `yaml:"content_dir,omitempty"`
	ContentExtension     string            `yaml:"content_extension,omitempty"`
	BackupRetentionCount *int              `yaml:"backup_retention_count,omitempty"`
	Plugins              map[string]Plugin `yaml:"plugins,omitempty"`
}

// Plugin holds the per-plugin settings
type Plugin struct {
	Active bool `yaml:"active"`
}

// GetPluginsDir returns the plugins directory (default: plugins)
func (c *Config) GetPluginsDir() string {
	if c.PluginsDir == "" {
		return DefaultPluginsDir
	}
	return c.PluginsDir
}

// GetContentDir returns the content directory (default: content)
func (c *Config) GetContentDir() string {
	if c.ContentDir == "" {
		return DefaultContentDir
	}
	return c.ContentDir
}

// GetContentExtension returns the content file extension (default: .md)
func (c *Config) GetContentExtension() string {
	if c.ContentExtension == "" {
		return DefaultContentExtension
	}
	return c.ContentExtension
}

// GetBackupRetentionCount returns the backup retention count (default: 10)
func (c *Config) GetBackupRetentionCount() int {
	if c.BackupRetentionCount == nil {
		return DefaultBackupRetentionCount
	}
	return *c.BackupRetentionCount
}

// IsPluginActive reports whether the named plugin is configured and active
func (c *Config) IsPluginActive(name string) bool {
	p, ok := c.Plugins[name]
	return ok && p.Active
}

// Load reads a configuration file, applies .env and environment overrides
// and validates the result. A missing file yields fileutil.ErrNotFound.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := fileutil.Load(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loadDotEnv(filepath.Dir(path))
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Parse parses and validates YAML configuration data
func Parse(data []byte) (*Config, error) {
	cfg, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Unmarshal decodes YAML configuration data without validating it
func Unmarshal(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv loads .env from the config directory, then the working directory.
// Variables already set in the environment win.
func loadDotEnv(dir string) {
	for _, p := range []string{filepath.Join(dir, ".env"), ".env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// ApplyEnv overrides file values with environment variables when set
func (c *Config) ApplyEnv() {
	c.EncryptionKey = env.GetString(EnvEncryptionKey, c.EncryptionKey)
	c.BaseURL = env.GetString(EnvBaseURL, c.BaseURL)
	c.PluginsDir = env.GetString(EnvPluginsDir, c.PluginsDir)
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.EncryptionKey, validation.Length(MinEncryptionKeyLength, 0)),
		validation.Field(&c.BaseURL, validation.By(absoluteURL)),
		validation.Field(&c.ContentExtension, validation.Match(extensionPattern)),
		validation.Field(&c.BackupRetentionCount, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

// SetEncryptionKey returns data with encryption_key set to key.
// The document is edited in place so comments, ordering and keys unknown to
// Config survive. Empty data yields a new single-key document.
func SetEncryptionKey(data []byte, key string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("config: top level must be a mapping")
	}
	root := doc.Content[0]

	value := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Style: yaml.DoubleQuotedStyle,
		Value: key,
	}

	replaced := false
	// mapping content alternates key, value
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "encryption_key" {
			value.HeadComment = root.Content[i+1].HeadComment
			value.LineComment = root.Content[i+1].LineComment
			root.Content[i+1] = value
			replaced = true
			break
		}
	}
	if !replaced {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "encryption_key"}
		root.Content = append(root.Content, keyNode, value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return buf.Bytes(), nil
}
