package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 4101 {
		t.Errorf("Server.MCPPort = %d, want 4101", cfg.Server.MCPPort)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Batch.RetentionDays != 14 {
		t.Errorf("Batch.RetentionDays = %d, want 14", cfg.Batch.RetentionDays)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
	if want := filepath.Join(cfg.Storage.DataDir, "logs", "batch"); cfg.Batch.LogDir != want {
		t.Errorf("Batch.LogDir = %q, want %q", cfg.Batch.LogDir, want)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JEIARY_SERVER_PORT", "5200")
	t.Setenv("JEIARY_OLLAMA_MODEL", "qwen2.5:7b")
	t.Setenv("JEIARY_STORAGE_DATA_DIR", "/tmp/jeiary-test")
	t.Setenv("JEIARY_BATCH_LOG_DIR", "/tmp/jeiary-test/batchlogs")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 5200 {
		t.Errorf("Server.Port = %d, want 5200", cfg.Server.Port)
	}
	if cfg.Ollama.Model != "qwen2.5:7b" {
		t.Errorf("Ollama.Model = %q, want qwen2.5:7b", cfg.Ollama.Model)
	}
	if cfg.Storage.DataDir != "/tmp/jeiary-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Batch.LogDir != "/tmp/jeiary-test/batchlogs" {
		t.Errorf("Batch.LogDir = %q", cfg.Batch.LogDir)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("JEIARY_SERVER_PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded with a non-numeric port")
	}
}
