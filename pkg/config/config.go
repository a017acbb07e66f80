// Package config loads mirrorclaw configuration from a JSON file with
// environment variable overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Mirror   MirrorConfig   `json:"mirror"`
	Dedup    DedupConfig    `json:"dedup"`
	Provider ProviderConfig `json:"provider"`
	Cleanup  CleanupConfig  `json:"cleanup"`
}

type TelegramConfig struct {
	Token string `env:"MIRRORCLAW_TELEGRAM_TOKEN" json:"token"`
}

type MirrorConfig struct {
	// Sources are the chat ids or @usernames of the channels to mirror from.
	Sources []string `env:"MIRRORCLAW_MIRROR_SOURCES"            json:"sources"`
	// Destination is the chat id or @username of the channel to post into.
	Destination string `env:"MIRRORCLAW_MIRROR_DESTINATION"      json:"destination"`
	// DestinationHandle replaces @mentions in mirrored captions. Defaults to
	// Destination stripped of a leading "@".
	DestinationHandle string `env:"MIRRORCLAW_MIRROR_DESTINATION_HANDLE" json:"destination_handle,omitempty"`
	// Workdir holds downloaded media between fetch and send.
	Workdir string `env:"MIRRORCLAW_MIRROR_WORKDIR"              json:"workdir"`
	// StateFile is the persisted mapping + dedup history document.
	StateFile string `env:"MIRRORCLAW_MIRROR_STATE_FILE"         json:"state_file"`
}

type DedupConfig struct {
	WindowSize     int     `env:"MIRRORCLAW_DEDUP_WINDOW_SIZE"     json:"window_size"`
	Threshold      float64 `env:"MIRRORCLAW_DEDUP_THRESHOLD"       json:"threshold"`
	MaxComparisons int     `env:"MIRRORCLAW_DEDUP_MAX_COMPARISONS" json:"max_comparisons"`
	MinLength      int     `env:"MIRRORCLAW_DEDUP_MIN_LENGTH"      json:"min_length"`
}

type ProviderConfig struct {
	// Name selects the LLM backend: "anthropic", "openai" or "deepseek".
	// DeepSeek is served through the OpenAI-compatible client.
	Name        string   `env:"MIRRORCLAW_PROVIDER_NAME"        json:"name"`
	APIKey      string   `env:"MIRRORCLAW_PROVIDER_API_KEY"     json:"api_key"`
	APIBase     string   `env:"MIRRORCLAW_PROVIDER_API_BASE"    json:"api_base,omitempty"`
	Model       string   `env:"MIRRORCLAW_PROVIDER_MODEL"       json:"model"`
	MaxTokens   int      `env:"MIRRORCLAW_PROVIDER_MAX_TOKENS"  json:"max_tokens"`
	Temperature *float64 `env:"MIRRORCLAW_PROVIDER_TEMPERATURE" json:"temperature,omitempty"`
}

type CleanupConfig struct {
	// Schedule is a cron expression for the periodic workdir sweep.
	Schedule string `env:"MIRRORCLAW_CLEANUP_SCHEDULE" json:"schedule"`
}

func DefaultConfig() *Config {
	return &Config{
		Mirror: MirrorConfig{
			Workdir:   "./_mirror_tmp",
			StateFile: "./mirror_map.json",
		},
		Dedup: DedupConfig{
			WindowSize: 100,
			Threshold:  0.2,
			MinLength:  20,
		},
		Provider: ProviderConfig{
			Name:      "deepseek",
			APIBase:   "https://api.deepseek.com",
			Model:     "deepseek-chat",
			MaxTokens: 300,
		},
		Cleanup: CleanupConfig{
			Schedule: "0 * * * *",
		},
	}
}

// LoadConfig reads the JSON config at path and applies environment variable
// overrides. A missing file is not an error: defaults plus environment apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.applyDerived()
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDerived() {
	if c.Mirror.DestinationHandle == "" && c.Mirror.Destination != "" {
		handle := c.Mirror.Destination
		if handle[0] == '@' {
			handle = handle[1:]
		}
		c.Mirror.DestinationHandle = handle
	}
}

// Validate checks the fields without which the mirror cannot start.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}
	if len(c.Mirror.Sources) == 0 {
		return errors.New("mirror.sources must list at least one source channel")
	}
	if c.Mirror.Destination == "" {
		return errors.New("mirror.destination is required")
	}
	if c.Provider.APIKey == "" {
		return errors.New("provider.api_key is required")
	}
	switch c.Provider.Name {
	case "anthropic", "openai", "deepseek":
	default:
		return fmt.Errorf("provider.name %q is not supported", c.Provider.Name)
	}
	return nil
}
