package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/vegasq/logq/internal/config"
)

var validLevels = map[string]bool{
	"all": true, "debug": true, "info": true,
	"warning": true, "error": true, "fatal": true, "trace": true,
}

var validFormats = map[string]bool{
	"json": true, "table": true, "csv": true, "pretty": true,
}

// configSetCommand updates one config key.
type configSetCommand struct {
	key   *string
	value *string
}

func (cmd *configSetCommand) run(c *kingpin.ParseContext) error {
	value, err := validateConfigKey(*cmd.key, *cmd.value)
	if err != nil {
		return err
	}
	store := config.DefaultStore()
	if err := store.Update(func(cfg *config.Config) {
		applyConfigKey(cfg, *cmd.key, value)
	}); err != nil {
		return err
	}
	fmt.Printf("%s set to %s\n", *cmd.key, value)
	return nil
}

// validateConfigKey normalizes and checks a key/value pair before it is
// written. Level aliases collapse (warn becomes warning).
func validateConfigKey(key, value string) (string, error) {
	switch key {
	case "source":
		return value, nil
	case "limit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return "", fmt.Errorf("limit must be a positive integer, got %q", value)
		}
		return value, nil
	case "format":
		if !validFormats[value] {
			return "", fmt.Errorf("invalid format %q: must be one of json, table, csv, pretty", value)
		}
		return value, nil
	case "logLevel":
		level := strings.ToLower(value)
		if level == "warn" {
			level = "warning"
		}
		if !validLevels[level] {
			return "", fmt.Errorf("invalid log level %q: must be one of all, debug, info, warning, error, fatal, trace", value)
		}
		return level, nil
	case "queryBaseUrl":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return "", fmt.Errorf("queryBaseUrl must start with http:// or https://")
		}
		return value, nil
	default:
		return "", fmt.Errorf("unknown config key %q: valid keys are source, limit, format, logLevel, queryBaseUrl", key)
	}
}

func applyConfigKey(cfg *config.Config, key, value string) {
	switch key {
	case "source":
		cfg.DefaultSource = value
	case "limit":
		cfg.DefaultLimit, _ = strconv.Atoi(value)
	case "format":
		cfg.OutputFormat = value
	case "logLevel":
		cfg.DefaultLogLevel = value
	case "queryBaseUrl":
		cfg.QueryBaseURL = value
	}
}

// configShowCommand prints the effective configuration.
type configShowCommand struct{}

func (cmd *configShowCommand) run(c *kingpin.ParseContext) error {
	store := config.DefaultStore()
	cfg := store.Load()

	fmt.Printf("config file: %s\n", store.Path)
	fmt.Printf("source: %s\n", orUnset(cfg.DefaultSource))
	fmt.Printf("limit: %d\n", cfg.DefaultLimit)
	fmt.Printf("format: %s\n", cfg.OutputFormat)
	fmt.Printf("logLevel: %s\n", cfg.DefaultLogLevel)
	if cfg.QueryBaseURL != "" {
		fmt.Printf("queryBaseUrl: %s\n", cfg.QueryBaseURL)
	} else {
		fmt.Printf("queryBaseUrl: %s (default)\n", config.DefaultQueryBaseURL)
	}
	for alias, full := range cfg.SourceAliases {
		fmt.Printf("alias %s: %s\n", alias, full)
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// configSourceCommand is the documented shortcut for "config set source".
type configSourceCommand struct {
	name *string
}

func (cmd *configSourceCommand) run(c *kingpin.ParseContext) error {
	store := config.DefaultStore()
	if err := store.Update(func(cfg *config.Config) {
		cfg.DefaultSource = *cmd.name
	}); err != nil {
		return err
	}
	fmt.Printf("default source set to %s\n", *cmd.name)
	return nil
}

func addConfigCommands(app *kingpin.Application) {
	conf := app.Command("config", "Inspect and change stored defaults.")

	setCmd := &configSetCommand{}
	set := conf.Command("set", "Set a config key: source, limit, format, logLevel or queryBaseUrl.").Action(setCmd.run)
	setCmd.key = set.Arg("key", "Config key to set.").Required().String()
	setCmd.value = set.Arg("value", "New value.").Required().String()

	showCmd := &configShowCommand{}
	conf.Command("show", "Show the current configuration.").Action(showCmd.run)

	sourceCmd := &configSourceCommand{}
	source := conf.Command("source", "Set the default source (shortcut for config set source).").Action(sourceCmd.run)
	sourceCmd.name = source.Arg("name", "Source name.").Required().String()
}
