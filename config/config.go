// Package config loads CLI configuration from an optional YAML file
// and MAILWARD_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mailward/mailward"
)

// Config holds everything the command-line runner needs.
type Config struct {
	Validation ValidationConfig `mapstructure:"validation"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ValidationConfig maps onto mailward.Options.
type ValidationConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	CheckSMTP      bool   `mapstructure:"check_smtp"`
	AcceptCatchAll bool   `mapstructure:"accept_catch_all"`
	Mode           string `mapstructure:"mode"`
	ProbeFrom      string `mapstructure:"probe_from"`
	HeloDomain     string `mapstructure:"helo_domain"`
	DisposableFile string `mapstructure:"disposable_file"`
}

// BatchConfig controls batch shaping and output.
type BatchConfig struct {
	MaxEmails       int    `mapstructure:"max_emails"`
	Concurrency     int    `mapstructure:"concurrency"`
	CheckpointEvery int    `mapstructure:"checkpoint_every"`
	OutputFile      string `mapstructure:"output_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config.yaml from the given directory, if one exists, then
// applies environment overrides. MAILWARD_VALIDATION_MODE overrides
// validation.mode, and so on. A missing file is fine; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MAILWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := mailward.DefaultOptions()
	v.SetDefault("validation.timeout_seconds", int(def.Timeout/time.Second))
	v.SetDefault("validation.check_smtp", !def.DisableSMTP)
	v.SetDefault("validation.accept_catch_all", def.AcceptCatchAll)
	v.SetDefault("validation.mode", string(def.Mode))
	v.SetDefault("validation.probe_from", def.ProbeFrom)
	v.SetDefault("batch.max_emails", def.MaxEmails)
	v.SetDefault("batch.concurrency", def.Concurrency)
	v.SetDefault("batch.checkpoint_every", def.CheckpointEvery)
	v.SetDefault("batch.output_file", "results.csv")
	v.SetDefault("logging.level", "info")
}

// Options converts the loaded configuration into engine options.
func (c *Config) Options() mailward.Options {
	opts := mailward.DefaultOptions()
	opts.Timeout = time.Duration(c.Validation.TimeoutSeconds) * time.Second
	opts.DisableSMTP = !c.Validation.CheckSMTP
	opts.AcceptCatchAll = c.Validation.AcceptCatchAll
	opts.Mode = mailward.Mode(c.Validation.Mode)
	opts.ProbeFrom = c.Validation.ProbeFrom
	opts.HeloDomain = c.Validation.HeloDomain
	opts.DisposableFile = c.Validation.DisposableFile
	opts.MaxEmails = c.Batch.MaxEmails
	opts.Concurrency = c.Batch.Concurrency
	opts.CheckpointEvery = c.Batch.CheckpointEvery
	opts.LogLevel = c.Logging.Level
	return opts
}
