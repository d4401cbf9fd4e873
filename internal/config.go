package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFilename = "config.yaml"
	DataDirName    = ".retrace"
)

type EmbeddingConfig struct {
	Backend   string `yaml:"backend"` // "ollama" or "openai-compat"
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

type AnalysisConfig struct {
	Provider string `yaml:"provider,omitempty"` // "ollama", "openai", "anthropic", "openrouter"
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

type Config struct {
	Capacity        int             `yaml:"capacity"`
	DataDir         string          `yaml:"data_dir,omitempty"`
	InboxDir        string          `yaml:"inbox_dir,omitempty"`
	ProviderTimeout time.Duration   `yaml:"provider_timeout,omitempty"`
	Embedding       EmbeddingConfig `yaml:"embedding"`
	Analysis        AnalysisConfig  `yaml:"analysis,omitempty"`
	Server          ServerConfig    `yaml:"server"`
}

func DefaultConfig() *Config {
	return &Config{
		Capacity:        DefaultCapacity,
		ProviderTimeout: DefaultProviderTimeout,
		Embedding: EmbeddingConfig{
			Backend:   "ollama",
			BaseURL:   "http://localhost:11434",
			Model:     "nomic-embed-text",
			Dimension: 768,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:7878",
			AllowedOrigins: []string{"chrome-extension://*"},
		},
	}
}

// DefaultDataDir is ~/.retrace, falling back to the working directory
// when the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDirName
	}
	return filepath.Join(home, DataDirName)
}

// ResolveDataDir returns the configured data directory or the default.
func (c *Config) ResolveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir()
}

// Timeout returns the provider timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.ProviderTimeout > 0 {
		return c.ProviderTimeout
	}
	return DefaultProviderTimeout
}

// LoadConfig reads the config file under dataDir, returning defaults
// when none exists yet.
func LoadConfig(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, ConfigFilename)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.DataDir = dataDir
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}

	return cfg, nil
}

func SaveConfig(dataDir string, cfg *Config) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	path := filepath.Join(dataDir, ConfigFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
