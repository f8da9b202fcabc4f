package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the configuration for the whole Γ-protocol toolkit
type Config struct {
	Workspace string          `json:"workspace"`
	Tokenizer TokenizerConfig `json:"tokenizer"`
	Engine    EngineConfig    `json:"engine"`
	Gateway   GatewayConfig   `json:"gateway"`
	Protocol  ProtocolConfig  `json:"protocol"`
}

// TokenizerConfig configures BPE training and persistence
type TokenizerConfig struct {
	VocabSize int    `json:"vocab_size"`
	StatePath string `json:"state_path"`
}

// EngineConfig configures the transformer engine
type EngineConfig struct {
	Dim         int     `json:"dim"`
	Heads       int     `json:"heads"`
	Layers      int     `json:"layers"`
	MaxSeqLen   int     `json:"max_seq_len"`
	Seed        int64   `json:"seed"`
	Temperature float64 `json:"temperature"`
}

// GatewayConfig configures the WebSocket gateway
type GatewayConfig struct {
	Addr string `json:"addr"`
}

// ProtocolConfig locates the master index and report output
type ProtocolConfig struct {
	IndexPath string `json:"index_path"`
	ReportDir string `json:"report_dir"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Workspace: ".gamma",
		Tokenizer: TokenizerConfig{
			VocabSize: 500,
			StatePath: ".gamma/tokenizer/bpe_state.json",
		},
		Engine: EngineConfig{
			Dim:         128,
			Heads:       4,
			Layers:      4,
			MaxSeqLen:   512,
			Seed:        42,
			Temperature: 0.8,
		},
		Gateway: GatewayConfig{
			Addr: "127.0.0.1:18789",
		},
		Protocol: ProtocolConfig{
			IndexPath: "MASTER_INDEX.json",
			ReportDir: ".gamma",
		},
	}
}

// Load reads a configuration file, applying defaults for absent fields
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
