// Package config loads aniflax settings from ~/.aniflax/config.yaml, .env
// files and ANIFLAX_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full bot configuration.
type Config struct {
	// Token is the bot token or a secret reference such as keyring://.
	Token  string   `yaml:"token"`
	Prefix string   `yaml:"prefix"`
	Owners []string `yaml:"owners"`
	Shards int      `yaml:"shards"`

	Command    CommandConfig    `yaml:"command"`
	Intents    IntentsConfig    `yaml:"intents"`
	Backup     BackupConfig     `yaml:"backup"`
	Audit      AuditConfig      `yaml:"audit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Introspect IntrospectConfig `yaml:"introspect"`
	Debug      DebugConfig      `yaml:"debug"`
}

// CommandConfig names the root command group.
type CommandConfig struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	// Visible lists the group in help from startup.
	Visible bool `yaml:"visible"`
}

// IntentsConfig selects the privileged gateway intents.
type IntentsConfig struct {
	Presences      bool `yaml:"presences"`
	Members        bool `yaml:"members"`
	MessageContent bool `yaml:"message_content"`
}

// BackupConfig controls the source archive.
type BackupConfig struct {
	Root         string   `yaml:"root"`
	Extensions   []string `yaml:"extensions"`
	UseGitignore bool     `yaml:"use_gitignore"`
	Exclude      []string `yaml:"exclude"`
}

// AuditConfig controls the audit trail of administrative actions.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path of the SQLite database. Default: ~/.aniflax/audit.db.
	Path string `yaml:"path"`
}

// MetricsConfig controls the Prometheus listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// IntrospectConfig locates the proc filesystem.
type IntrospectConfig struct {
	ProcMount string `yaml:"proc_mount"`
}

// DebugConfig controls debug log retention.
type DebugConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Prefix: "!",
		Shards: 1,
		Command: CommandConfig{
			Name:    "aniflax",
			Aliases: []string{"ani"},
		},
		Intents: IntentsConfig{MessageContent: true},
		Backup: BackupConfig{
			Root:         ".",
			Extensions:   []string{".go"},
			UseGitignore: true,
		},
		Audit:      AuditConfig{Enabled: true},
		Introspect: IntrospectConfig{ProcMount: "/proc"},
		Debug:      DebugConfig{RetentionDays: 14},
	}
}

// Dir returns ~/.aniflax.
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".aniflax")
	}
	return filepath.Join(homeDir, ".aniflax")
}

// DefaultPath returns ~/.aniflax/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DebugDir returns where debug logs are written.
func DebugDir() string {
	return filepath.Join(Dir(), "debug")
}

// AuditPath returns the audit database path.
func (c *Config) AuditPath() string {
	if c.Audit.Path != "" {
		return c.Audit.Path
	}
	return filepath.Join(Dir(), "audit.db")
}

// Load reads path (DefaultPath when empty) over the defaults, loads .env
// from the working directory without overriding the environment, and
// applies ANIFLAX_* overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	// A missing .env is the common case.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ANIFLAX_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("ANIFLAX_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv("ANIFLAX_OWNERS"); v != "" {
		c.Owners = splitList(v)
	}
	if v := os.Getenv("ANIFLAX_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("ANIFLAX_SHARDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ANIFLAX_SHARDS: %q is not a number", v)
		}
		c.Shards = n
	}
	if v := os.Getenv("ANIFLAX_AUDIT_PATH"); v != "" {
		c.Audit.Path = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks what the bot needs to connect.
func (c *Config) Validate() error {
	var problems []string
	if c.Token == "" {
		problems = append(problems, "token is not set (config token, ANIFLAX_TOKEN, or `aniflax token set`)")
	}
	if len(c.Owners) == 0 {
		problems = append(problems, "owners is empty, no one could run commands")
	}
	if c.Prefix == "" {
		problems = append(problems, "prefix is empty")
	}
	if c.Shards < 1 {
		problems = append(problems, fmt.Sprintf("shards must be at least 1, got %d", c.Shards))
	}
	if c.Command.Name == "" {
		problems = append(problems, "command.name is empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
