// Package config loads Canopy settings from a YAML file, an optional .env file and
// CANOPY_* environment variables, in that order of precedence (last wins).
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/canopy/pkg/digest"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CANOPY_"

// Config is the complete runtime configuration.
type Config struct {
	Log          LogConfig          `yaml:"log"`
	Model        ModelConfig        `yaml:"model"`
	Conversation ConversationConfig `yaml:"conversation"`
	Digest       DigestConfig       `yaml:"digest"`
	Tools        tools.Budgets      `yaml:"tools"`
	Tree         TreeConfig         `yaml:"tree"`
	Server       ServerConfig       `yaml:"server"`
	Redis        RedisConfig        `yaml:"redis"`
	Storage      StorageConfig      `yaml:"storage"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ModelConfig points at an OpenAI-compatible chat completions endpoint.
type ModelConfig struct {
	Name        string  `yaml:"name"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float32 `yaml:"temperature"`
}

type ConversationConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	MaxRounds    int    `yaml:"max_rounds"`
	HistoryKeep  int    `yaml:"history_keep"`
	MaxInput     int    `yaml:"max_input"`
}

type DigestConfig struct {
	ValueBudget   int `yaml:"value_budget"`
	RelatedBudget int `yaml:"related_budget"`
	EntryBudget   int `yaml:"entry_budget"`
	CousinBudget  int `yaml:"cousin_budget"`
}

// TreeConfig selects where the topic tree comes from. Feeds names a YAML/JSON
// file of subprocesses whose output lines are "<topic> <payload>".
type TreeConfig struct {
	Snapshot        string `yaml:"snapshot"`
	Feeds           string `yaml:"feeds"`
	HistoryCapacity int    `yaml:"history_capacity"`
	Watch           bool   `yaml:"watch"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig enables the redis session store when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// StorageConfig selects and transforms session storage. Dir enables the file
// store (redis wins when both are set). Keys are base64-encoded 32-byte AES keys; Redact holds regular expressions
// whose matches are masked in stored messages.
type StorageConfig struct {
	Dir           string   `yaml:"dir"`
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	Redact        []string `yaml:"redact"`
}

// Default returns the built-in configuration.
func Default() *Config {
	d := digest.DefaultOptions()
	return &Config{
		Log:   LogConfig{Level: "info", Format: "text"},
		Model: ModelConfig{Name: "gpt-4o-mini", Temperature: 0.2},
		Conversation: ConversationConfig{
			MaxRounds:   5,
			HistoryKeep: 20,
			MaxInput:    4096,
		},
		Digest: DigestConfig{
			ValueBudget:   d.ValueBudget,
			RelatedBudget: d.RelatedBudget,
			EntryBudget:   d.EntryBudget,
			CousinBudget:  d.CousinBudget,
		},
		Tools:  tools.DefaultBudgets(),
		Tree:   TreeConfig{HistoryCapacity: 50},
		Server: ServerConfig{Addr: ":8080"},
		Redis:  RedisConfig{Prefix: "canopy:session:", TTL: time.Hour},
	}
}

// Load reads path (optional: "" or a missing file keeps the defaults), then the
// .env file in the working directory if present, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DigestOptions converts the digest section to builder options.
func (c *Config) DigestOptions() []digest.Option {
	return []digest.Option{
		digest.WithValueBudget(c.Digest.ValueBudget),
		digest.WithRelatedBudget(c.Digest.RelatedBudget),
		digest.WithEntryBudgets(c.Digest.EntryBudget, c.Digest.CousinBudget),
	}
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (s StorageConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = base64.StdEncoding.DecodeString(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("invalid storage.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid storage.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("MODEL", &c.Model.Name)
	str("BASE_URL", &c.Model.BaseURL)
	str("API_KEY", &c.Model.APIKey)
	str("SNAPSHOT", &c.Tree.Snapshot)
	str("FEEDS", &c.Tree.Feeds)
	str("ADDR", &c.Server.Addr)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("ENCRYPTION_KEY", &c.Storage.EncryptionKey)
	str("SESSIONS_DIR", &c.Storage.Dir)

	// The conventional provider variable is honored when no explicit key is set.
	if c.Model.APIKey == "" {
		if v, ok := lookup("OPENAI_API_KEY"); ok {
			c.Model.APIKey = v
		}
	}

	for key, dst := range map[string]*int{
		"MAX_ROUNDS":     &c.Conversation.MaxRounds,
		"HISTORY_KEEP":   &c.Conversation.HistoryKeep,
		"MAX_INPUT":      &c.Conversation.MaxInput,
		"RELATED_BUDGET": &c.Digest.RelatedBudget,
		"REDIS_DB":       &c.Redis.DB,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}
