package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/finagent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify finagent configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/finagent/config.yaml
Project-specific overrides can be placed in .finagent.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		w := cmd.OutOrStdout()

		switch len(args) {
		case 0:
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Fprintf(w, "%s: %s\n", key, value)
			}
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, value)
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(w, "Set %s = %s\n", args[0], args[1])
		}
		return nil
	},
}

// configKeys lists every key in display order.
var configKeys = []string{
	"anthropic.api_key",
	"anthropic.model",
	"anthropic.use_bedrock",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"planner.temperature",
	"planner.max_tokens",
	"planner.rules_file",
	"summarizer.temperature",
	"summarizer.max_tokens",
	"data.path",
	"data.table",
	"data.watch",
	"history.enabled",
	"history.path",
	"log.level",
	"log.debug_file",
	"timeouts.reasoning",
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "planner.temperature":
		return strconv.FormatFloat(cfg.Planner.Temperature, 'g', -1, 64), nil
	case "planner.max_tokens":
		return strconv.FormatInt(cfg.Planner.MaxTokens, 10), nil
	case "planner.rules_file":
		return cfg.Planner.RulesFile, nil
	case "summarizer.temperature":
		return strconv.FormatFloat(cfg.Summarizer.Temperature, 'g', -1, 64), nil
	case "summarizer.max_tokens":
		return strconv.FormatInt(cfg.Summarizer.MaxTokens, 10), nil
	case "data.path":
		return cfg.Data.Path, nil
	case "data.table":
		return cfg.Data.Table, nil
	case "data.watch":
		return strconv.FormatBool(cfg.Data.Watch), nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.path":
		return cfg.History.Path, nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.debug_file":
		return cfg.Log.DebugFile, nil
	case "timeouts.reasoning":
		return cfg.Timeouts.Reasoning.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		return parseBool(key, value, &cfg.Anthropic.UseBedrock)
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "planner.temperature":
		return parseFloat(key, value, &cfg.Planner.Temperature)
	case "planner.max_tokens":
		return parseInt(key, value, &cfg.Planner.MaxTokens)
	case "planner.rules_file":
		cfg.Planner.RulesFile = value
	case "summarizer.temperature":
		return parseFloat(key, value, &cfg.Summarizer.Temperature)
	case "summarizer.max_tokens":
		return parseInt(key, value, &cfg.Summarizer.MaxTokens)
	case "data.path":
		cfg.Data.Path = value
	case "data.table":
		cfg.Data.Table = value
	case "data.watch":
		return parseBool(key, value, &cfg.Data.Watch)
	case "history.enabled":
		return parseBool(key, value, &cfg.History.Enabled)
	case "history.path":
		cfg.History.Path = value
	case "log.level":
		probe := config.LogConfig{Level: value}
		if _, err := probe.SlogLevel(); err != nil {
			return err
		}
		cfg.Log.Level = value
	case "log.debug_file":
		cfg.Log.DebugFile = value
	case "timeouts.reasoning":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		cfg.Timeouts.Reasoning = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func parseBool(key, value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	*dst = b
	return nil
}

func parseFloat(key, value string, dst *float64) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number for %s: %w", key, err)
	}
	*dst = f
	return nil
}

func parseInt(key, value string, dst *int64) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	*dst = n
	return nil
}
