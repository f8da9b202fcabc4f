package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Tokenizer.VocabSize < 256 {
		t.Errorf("Expected Tokenizer VocabSize of at least 256, got %d", cfg.Tokenizer.VocabSize)
	}

	if cfg.Engine.Dim <= 0 || cfg.Engine.Dim%cfg.Engine.Heads != 0 {
		t.Errorf("Expected Engine Dim to be a positive multiple of Heads, got %d/%d", cfg.Engine.Dim, cfg.Engine.Heads)
	}

	if cfg.Engine.Temperature <= 0 {
		t.Error("Expected Engine Temperature to be positive")
	}

	if cfg.Gateway.Addr == "" {
		t.Error("Expected Gateway Addr to be set")
	}

	if cfg.Protocol.IndexPath == "" {
		t.Error("Expected Protocol IndexPath to be set")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Engine.Seed = 7
	cfg.Gateway.Addr = "127.0.0.1:9999"

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Engine.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", loaded.Engine.Seed)
	}
	if loaded.Gateway.Addr != "127.0.0.1:9999" {
		t.Errorf("Expected addr 127.0.0.1:9999, got %s", loaded.Gateway.Addr)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"workspace": "/tmp/gamma"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Workspace != "/tmp/gamma" {
		t.Errorf("Expected workspace /tmp/gamma, got %s", cfg.Workspace)
	}
	if cfg.Engine.Dim != 128 {
		t.Errorf("Expected default Engine Dim 128, got %d", cfg.Engine.Dim)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}
