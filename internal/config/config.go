package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mailsift/mailsift/internal/classifier"
	"github.com/mailsift/mailsift/internal/mailbox"
)

const (
	defaultPort        = 8080
	defaultConcurrency = 4
)

func checkFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %04o; should be 0600", path, perm)
	}
	return nil
}

type Config struct {
	Triage   TriageConfig   `yaml:"triage"`
	Web      WebConfig      `yaml:"web,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Patterns PatternsConfig `yaml:"patterns,omitempty"`
}

// TriageConfig holds the batch defaults applied at the boundary before
// emails reach the engine.
type TriageConfig struct {
	MaxEmails       int  `yaml:"max_emails"`       // Batch size cap, clamped to 100
	AutoUnsubscribe bool `yaml:"auto_unsubscribe"` // Simulate unsubscribes for marketing mail with a link
	Concurrency     int  `yaml:"concurrency"`      // Parallel classification workers
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type HistoryConfig struct {
	Path     string `yaml:"path,omitempty"` // SQLite file, default ~/.mailsift/history.db
	Disabled bool   `yaml:"disabled,omitempty"`
}

// PatternsConfig optionally replaces individual pattern tables, e.g. with a
// localized keyword set. Empty lists keep the built-in table.
type PatternsConfig struct {
	Marketing        []string `yaml:"marketing,omitempty"`
	Important        []string `yaml:"important,omitempty"`
	MarketingSenders []string `yaml:"marketing_senders,omitempty"`
	ImportantSenders []string `yaml:"important_senders,omitempty"`
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".mailsift", "config.yaml")
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Triage: TriageConfig{
			MaxEmails:   mailbox.DefaultBatchLimit,
			Concurrency: defaultConcurrency,
		},
		Web: WebConfig{Port: defaultPort},
	}
}

func Load(path string) (*Config, error) {
	if err := checkFilePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Triage.MaxEmails = mailbox.ClampLimit(cfg.Triage.MaxEmails)
	if cfg.Triage.Concurrency <= 0 {
		cfg.Triage.Concurrency = defaultConcurrency
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = defaultPort
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web: port %d is out of range", c.Web.Port)
	}
	if c.Triage.MaxEmails > mailbox.MaxBatchLimit {
		return fmt.Errorf("triage: max_emails %d exceeds the cap of %d", c.Triage.MaxEmails, mailbox.MaxBatchLimit)
	}

	// The engine lowercases email fields, never the tables, so overrides
	// must already be lowercase.
	for name, entries := range map[string][]string{
		"marketing":         c.Patterns.Marketing,
		"important":         c.Patterns.Important,
		"marketing_senders": c.Patterns.MarketingSenders,
		"important_senders": c.Patterns.ImportantSenders,
	} {
		for _, entry := range entries {
			if entry != strings.ToLower(entry) {
				return fmt.Errorf("patterns.%s: entry %q must be lowercase", name, entry)
			}
		}
	}

	return nil
}

// Tables builds the classifier tables, substituting any configured overrides
// for the built-in sets.
func (c *Config) Tables() classifier.Tables {
	tables := classifier.DefaultTables()
	if len(c.Patterns.Marketing) > 0 {
		tables.Marketing = c.Patterns.Marketing
	}
	if len(c.Patterns.Important) > 0 {
		tables.Important = c.Patterns.Important
	}
	if len(c.Patterns.MarketingSenders) > 0 {
		tables.MarketingSenders = c.Patterns.MarketingSenders
	}
	if len(c.Patterns.ImportantSenders) > 0 {
		tables.ImportantSenders = c.Patterns.ImportantSenders
	}
	return tables
}
