// Package config loads the shell configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "METTA_CONFIG"

// EnvHistoryKey overrides history.encryption_key.
const EnvHistoryKey = "METTA_HISTORY_KEY"

// History backends.
const (
	HistoryFile  = "file"
	HistoryRedis = "redis"
	HistoryNone  = "none"
)

// Config is the resolved shell configuration.
type Config struct {
	Prompt             string        `mapstructure:"prompt"`
	ContinuationPrompt string        `mapstructure:"continuation_prompt"`
	Banner             bool          `mapstructure:"banner"`
	LogLevel           string        `mapstructure:"log_level"`
	History            HistoryConfig `mapstructure:"history"`
	Cancel             CancelConfig  `mapstructure:"cancel"`
	Metrics            MetricsConfig `mapstructure:"metrics"`
	Hosted             HostedConfig  `mapstructure:"hosted"`
}

type HistoryConfig struct {
	Backend    string      `mapstructure:"backend"`
	Path       string      `mapstructure:"path"`
	MaxEntries int         `mapstructure:"max_entries"`
	Redis      RedisConfig `mapstructure:"redis"`

	// EncryptionKey (base64, 32 bytes) seals entries at rest. FallbackKeys
	// still open entries sealed before a key rotation.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// Redact lists regular expressions masked before entries are saved.
	Redact []string `mapstructure:"redact"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type CancelConfig struct {
	// Grace is how long a cancelled evaluation may take to stop before its
	// worker is abandoned.
	Grace time.Duration `mapstructure:"grace"`
	// Escalation is how long a repeated interrupt waits before terminating.
	Escalation time.Duration `mapstructure:"escalation"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type HostedConfig struct {
	Extensions []string `mapstructure:"extensions"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Prompt:             "metta> ",
		ContinuationPrompt: "...> ",
		Banner:             true,
		LogLevel:           "info",
		History: HistoryConfig{
			Backend:    HistoryFile,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "metta:history",
			},
		},
		Cancel: CancelConfig{
			Grace:      250 * time.Millisecond,
			Escalation: 3 * time.Second,
		},
	}
}

// DefaultPath returns $METTA_CONFIG, or config.yaml under the user config
// directory ($XDG_CONFIG_HOME/metta, falling back to ~/.config/metta).
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "metta", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "metta", "config.yaml")
}

// Load reads path over the defaults. An empty path means DefaultPath, and a
// missing default file is not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	cfg := Default()
	if path == "" {
		return withEnv(cfg), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return withEnv(cfg), nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return withEnv(cfg), cfg.Validate()
}

func withEnv(cfg Config) Config {
	if key := os.Getenv(EnvHistoryKey); key != "" {
		cfg.History.EncryptionKey = key
	}
	return cfg
}

// Decode merges raw into cfg. Durations accept strings like "500ms" and
// scalar types are converted loosely, so `db: "2"` works.
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate rejects settings the shell cannot run with.
func (c Config) Validate() error {
	switch c.History.Backend {
	case HistoryFile, HistoryRedis, HistoryNone:
	default:
		return fmt.Errorf("unknown history backend %q (want file, redis or none)", c.History.Backend)
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must not be negative")
	}
	if c.Cancel.Grace < 0 || c.Cancel.Escalation < 0 {
		return fmt.Errorf("cancel durations must not be negative")
	}
	return nil
}
