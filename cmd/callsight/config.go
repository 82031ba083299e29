package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/callsight"
)

// loadConfig builds the effective configuration: defaults, then the config
// file if given, then environment variables. YAML and JSON files are both
// accepted, decided by extension.
func loadConfig(path string) (callsight.Config, error) {
	cfg := callsight.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides config fields from environment variables.
func applyEnv(cfg *callsight.Config) {
	if v := os.Getenv("CALLSIGHT_PROVIDER"); v != "" {
		cfg.Extraction.Provider = v
	}
	if v := os.Getenv("CALLSIGHT_MODEL"); v != "" {
		cfg.Extraction.Model = v
	}
	if v := os.Getenv("CALLSIGHT_BASE_URL"); v != "" {
		cfg.Extraction.BaseURL = v
	}
	if v := os.Getenv("CALLSIGHT_API_KEY"); v != "" {
		cfg.Extraction.APIKey = v
	}
	if v := os.Getenv("CALLSIGHT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	// Fallback: check well-known provider env vars for API keys.
	if cfg.Extraction.APIKey == "" {
		switch cfg.Extraction.Provider {
		case "gemini":
			cfg.Extraction.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			cfg.Extraction.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.Extraction.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}
}
