package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all server settings. Every field can be overridden with a
// JEIARY_* environment variable (e.g. JEIARY_SERVER_PORT, JEIARY_OLLAMA_MODEL).
type Config struct {
	Server  ServerConfig
	Ollama  OllamaConfig
	Storage StorageConfig
	Batch   BatchConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int `default:"4100" split_words:"true"`
	MCPPort int `default:"4101" envconfig:"MCP_PORT"`
}

type OllamaConfig struct {
	BaseURL string `default:"http://localhost:11434" envconfig:"BASE_URL"`
	Model   string `default:"llama3.1:8b"`
}

type StorageConfig struct {
	DataDir string `split_words:"true"`
}

type BatchConfig struct {
	LogDir        string `split_words:"true"`
	RetentionDays int    `default:"14" split_words:"true"`
}

type LogConfig struct {
	Level string `default:"info"`
}

// Load reads configuration from the environment, applying struct-tag defaults
// for anything unset. DataDir and LogDir default relative to the user home.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("jeiary_server", &cfg.Server); err != nil {
		return Config{}, fmt.Errorf("loading server config: %w", err)
	}
	if err := envconfig.Process("jeiary_ollama", &cfg.Ollama); err != nil {
		return Config{}, fmt.Errorf("loading ollama config: %w", err)
	}
	if err := envconfig.Process("jeiary_storage", &cfg.Storage); err != nil {
		return Config{}, fmt.Errorf("loading storage config: %w", err)
	}
	if err := envconfig.Process("jeiary_batch", &cfg.Batch); err != nil {
		return Config{}, fmt.Errorf("loading batch config: %w", err)
	}
	if err := envconfig.Process("jeiary_log", &cfg.Log); err != nil {
		return Config{}, fmt.Errorf("loading log config: %w", err)
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaultDataDir()
	}
	if cfg.Batch.LogDir == "" {
		cfg.Batch.LogDir = filepath.Join(cfg.Storage.DataDir, "logs", "batch")
	}

	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jeiary"
	}
	return filepath.Join(home, ".jeiary")
}
