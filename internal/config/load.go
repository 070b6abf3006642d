package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TRANSCRIBER_ENGINE_NAME.
const EnvPrefix = "TRANSCRIBER_"

// Path returns the config file location, honoring TRANSCRIBER_CONFIG.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG")); p != "" {
		return p
	}
	return "config.yaml"
}

// Load reads the YAML file at path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	// Well-known provider variables.
	if cfg.Engine.OpenAI.APIKey == "" {
		cfg.Engine.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if len(cfg.Engine.Gemini.APIKeys) == 0 {
		if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
			cfg.Engine.Gemini.APIKeys = splitList(v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
