// Package config loads recall's settings.
//
// Settings merge in order: built-in defaults, the global file
// ~/.recall/config.yaml, the project file ./.recall/config.yaml, then
// RECALL_* environment variables. Later sources win key by key.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/recall/internal/capture"
	"github.com/HendryAvila/recall/internal/memory"
)

// EnvPrefix namespaces environment overrides, e.g. RECALL_DATA_DIR.
const EnvPrefix = "RECALL"

const dirName = ".recall"

// Config is the effective configuration.
type Config struct {
	// DataDir holds memory.db. A leading ~ expands to the home directory.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// KnowledgeSources are file basenames whose reads are always remembered.
	KnowledgeSources []string `yaml:"knowledge_sources" mapstructure:"knowledge_sources"`
	// PlansDir marks plan documents; reads beneath it are remembered.
	PlansDir string `yaml:"plans_dir" mapstructure:"plans_dir"`
	// ProjectRoot shortens paths in titles. Empty uses the transcript's cwd.
	ProjectRoot string `yaml:"project_root" mapstructure:"project_root"`

	LogLevel           string `yaml:"log_level" mapstructure:"log_level"`
	DefaultSearchLimit int    `yaml:"default_search_limit" mapstructure:"default_search_limit"`
	MaxSearchResults   int    `yaml:"max_search_results" mapstructure:"max_search_results"`
}

// Default returns the built-in configuration.
func Default() *Config {
	mem := memory.DefaultConfig()
	return &Config{
		DataDir:            mem.DataDir,
		KnowledgeSources:   []string{"ARCHITECTURE.md", "CONVENTIONS.md", "AGENTS.md", "rules.md"},
		PlansDir:           "docs/plans",
		LogLevel:           "info",
		DefaultSearchLimit: mem.DefaultSearchLimit,
		MaxSearchResults:   mem.MaxSearchResults,
	}
}

// Load merges defaults, the global and project files, and the environment.
func Load() (*Config, error) {
	return LoadFiles(GlobalPath(), ProjectPath())
}

// LoadFiles merges defaults, each existing file in order, and the
// environment. Missing files are skipped.
func LoadFiles(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("knowledge_sources", d.KnowledgeSources)
	v.SetDefault("plans_dir", d.PlansDir)
	v.SetDefault("project_root", d.ProjectRoot)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("default_search_limit", d.DefaultSearchLimit)
	v.SetDefault("max_search_results", d.MaxSearchResults)
}

// Validate rejects settings the rest of the program cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: data_dir must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.MaxSearchResults < 1 {
		return fmt.Errorf("config: max_search_results must be positive, got %d", c.MaxSearchResults)
	}
	if c.DefaultSearchLimit < 1 || c.DefaultSearchLimit > c.MaxSearchResults {
		return fmt.Errorf("config: default_search_limit must be in [1, %d], got %d", c.MaxSearchResults, c.DefaultSearchLimit)
	}
	return nil
}

// Level parses LogLevel. Empty means info.
func (c *Config) Level() (zerolog.Level, error) {
	if strings.TrimSpace(c.LogLevel) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("config: log_level: %w", err)
	}
	return lvl, nil
}

// Memory returns the store configuration.
func (c *Config) Memory() memory.Config {
	return memory.Config{
		DataDir:            c.DataDir,
		DefaultSearchLimit: c.DefaultSearchLimit,
		MaxSearchResults:   c.MaxSearchResults,
	}
}

// Capture returns the classifier options.
func (c *Config) Capture() capture.Options {
	return capture.Options{
		PlansDir:         c.PlansDir,
		KnowledgeSources: c.KnowledgeSources,
		ProjectRoot:      c.ProjectRoot,
	}
}

// YAML renders the configuration as it would appear in a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// GlobalPath returns the per-user config file path.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, dirName, "config.yaml")
}

// ProjectPath returns the config file path for the working directory.
func ProjectPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, dirName, "config.yaml")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
