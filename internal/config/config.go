package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up inside the data directory.
const FileName = "config.yaml"

// Config is the page builder configuration.
type Config struct {
	DataDir      string        `yaml:"data_dir"`
	Catalog      string        `yaml:"catalog,omitempty"`  // component library YAML
	Autosave     string        `yaml:"autosave,omitempty"` // cron spec, e.g. "@every 10s"
	UndoLimit    int           `yaml:"undo_limit,omitempty"`
	PollInterval string        `yaml:"poll_interval,omitempty"` // external-change watcher
	MCPAddr      string        `yaml:"mcp_addr,omitempty"`      // in-app MCP over HTTP, e.g. 127.0.0.1:7410
	Publish      PublishConfig `yaml:"publish,omitempty"`
}

// PublishConfig seeds a default publish target on first start.
type PublishConfig struct {
	Name     string `yaml:"name,omitempty"`
	Driver   string `yaml:"driver,omitempty"` // mysql, postgres, mongodb, sqlite
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	Username string `yaml:"username,omitempty"`
	SSLMode  string `yaml:"ssl_mode,omitempty"`
	Table    string `yaml:"table,omitempty"`
	// PasswordEnv names the environment variable holding the password.
	PasswordEnv string `yaml:"password_env,omitempty"`
}

// Enabled reports whether a publish target is configured.
func (p PublishConfig) Enabled() bool {
	return p.Driver != ""
}

// GetName returns the target name (default: the driver name).
func (p PublishConfig) GetName() string {
	if p.Name == "" {
		return p.Driver
	}
	return p.Name
}

// Password reads the password from PasswordEnv.
func (p PublishConfig) Password() string {
	if p.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(p.PasswordEnv)
}

// DefaultDataDir is ~/.local/share/pagebuilder.
func DefaultDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "pagebuilder")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		DataDir:      DefaultDataDir(),
		Autosave:     "@every 10s",
		UndoLimit:    40,
		PollInterval: "2s",
	}
}

// DBPath is the builder's SQLite database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "pagebuilder.db")
}

// CatalogPath resolves Catalog relative to DataDir. Empty when unset.
func (c *Config) CatalogPath() string {
	if c.Catalog == "" {
		return ""
	}
	if filepath.IsAbs(c.Catalog) {
		return c.Catalog
	}
	return filepath.Join(c.DataDir, c.Catalog)
}

// GetUndoLimit returns the undo history cap (default: 40).
func (c *Config) GetUndoLimit() int {
	if c.UndoLimit <= 0 {
		return 40
	}
	return c.UndoLimit
}

// GetAutosave returns the autosave cron spec (default: every 10s).
func (c *Config) GetAutosave() string {
	if c.Autosave == "" {
		return "@every 10s"
	}
	return c.Autosave
}

// GetPollInterval returns the external-change poll interval (default: 2s).
func (c *Config) GetPollInterval() time.Duration {
	if c.PollInterval == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Load reads configPath over the defaults. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.DataDir == "" {
		config.DataDir = DefaultDataDir()
	}
	return config, nil
}

// LoadDefault reads $PAGEBUILDER_CONFIG, or config.yaml in the default data dir.
func LoadDefault() (*Config, error) {
	if p := os.Getenv("PAGEBUILDER_CONFIG"); p != "" {
		return Load(p)
	}
	return Load(filepath.Join(DefaultDataDir(), FileName))
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
