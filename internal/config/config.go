// Package config handles configuration loading and management for finagent.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ProjectConfigName is the project-level override file searched for in the
// working directory and its parents.
const ProjectConfigName = ".finagent.yaml"

// Config holds all configuration for finagent.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Data       DataConfig       `mapstructure:"data"`
	History    HistoryConfig    `mapstructure:"history"`
	Log        LogConfig        `mapstructure:"log"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// PlannerConfig holds reasoning-service settings for plan construction.
type PlannerConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	// RulesFile replaces the embedded fallback rule table when set.
	RulesFile string `mapstructure:"rules_file"`
}

// SummarizerConfig holds reasoning-service settings for report writing.
type SummarizerConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

// DataConfig locates the financial dataset.
type DataConfig struct {
	// Path is a CSV file or an SQLite database.
	Path string `mapstructure:"path"`
	// Table is the SQLite table to read.
	Table string `mapstructure:"table"`
	// Watch enables file-change invalidation of the cached dataset.
	Watch bool `mapstructure:"watch"`
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	DebugFile string `mapstructure:"debug_file"`
}

// TimeoutsConfig holds timeout settings.
type TimeoutsConfig struct {
	// Reasoning bounds a single request, including both reasoning calls.
	Reasoning time.Duration `mapstructure:"reasoning"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, FINAGENT_*)
// 2. Project config (.finagent.yaml in current directory or parent)
// 3. User config (~/.config/finagent/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.expand()

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.expand()

	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return SaveToPath(cfg, filepath.Join(userConfigDir, "config.yaml"))
}

// SaveToPath writes the configuration to path.
func SaveToPath(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("planner.temperature", cfg.Planner.Temperature)
	v.Set("planner.max_tokens", cfg.Planner.MaxTokens)
	v.Set("planner.rules_file", cfg.Planner.RulesFile)
	v.Set("summarizer.temperature", cfg.Summarizer.Temperature)
	v.Set("summarizer.max_tokens", cfg.Summarizer.MaxTokens)
	v.Set("data.path", cfg.Data.Path)
	v.Set("data.table", cfg.Data.Table)
	v.Set("data.watch", cfg.Data.Watch)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.debug_file", cfg.Log.DebugFile)
	v.Set("timeouts.reasoning", cfg.Timeouts.Reasoning.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultHistoryPath returns the XDG data path of the run history database.
func DefaultHistoryPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".finagent", "history.db")
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "finagent", "history.db")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", d.Anthropic.APIKey)
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.use_bedrock", d.Anthropic.UseBedrock)
	v.SetDefault("anthropic.aws_region", d.Anthropic.AWSRegion)
	v.SetDefault("anthropic.aws_profile", d.Anthropic.AWSProfile)

	v.SetDefault("planner.temperature", d.Planner.Temperature)
	v.SetDefault("planner.max_tokens", d.Planner.MaxTokens)
	v.SetDefault("planner.rules_file", d.Planner.RulesFile)

	v.SetDefault("summarizer.temperature", d.Summarizer.Temperature)
	v.SetDefault("summarizer.max_tokens", d.Summarizer.MaxTokens)

	v.SetDefault("data.path", d.Data.Path)
	v.SetDefault("data.table", d.Data.Table)
	v.SetDefault("data.watch", d.Data.Watch)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.debug_file", d.Log.DebugFile)

	v.SetDefault("timeouts.reasoning", d.Timeouts.Reasoning.String())
}

// bindEnv maps environment variables onto config keys.
func bindEnv(v *viper.Viper) {
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "FINAGENT_MODEL")
	v.BindEnv("anthropic.use_bedrock", "FINAGENT_USE_BEDROCK")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")
	v.BindEnv("anthropic.aws_profile", "AWS_PROFILE")
	v.BindEnv("data.path", "FINAGENT_DATA")
	v.BindEnv("log.level", "FINAGENT_LOG_LEVEL")
}

// getUserConfigDir returns the XDG config directory for finagent.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "finagent")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "finagent")
	}
	return filepath.Join(home, ".config", "finagent")
}

// findProjectConfig searches for .finagent.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expand resolves ${VAR} references in string settings.
func (c *Config) expand() {
	c.Anthropic.APIKey = os.ExpandEnv(c.Anthropic.APIKey)
	c.Data.Path = os.ExpandEnv(c.Data.Path)
	c.History.Path = os.ExpandEnv(c.History.Path)
	c.Planner.RulesFile = os.ExpandEnv(c.Planner.RulesFile)
	c.Log.DebugFile = os.ExpandEnv(c.Log.DebugFile)
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath()
	}
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Planner: PlannerConfig{
			Temperature: 0.1,
			MaxTokens:   1000,
		},
		Summarizer: SummarizerConfig{
			Temperature: 0.3,
			MaxTokens:   2000,
		},
		Data: DataConfig{
			Path:  "financials.csv",
			Table: "financials",
			Watch: true,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Timeouts: TimeoutsConfig{
			Reasoning: 60 * time.Second,
		},
	}
}
