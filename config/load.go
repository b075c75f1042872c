package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Load. Secrets are deliberately
// env-only so config files stay safe to commit.
const (
	EnvHTTPAddr          = "ORATIO_HTTP_ADDR"
	EnvLogLevel          = "ORATIO_LOG_LEVEL"
	EnvDomain            = "ORATIO_DOMAIN"
	EnvMongoURI          = "ORATIO_MONGO_URI"
	EnvChatEndpoint      = "ORATIO_AZURE_OPENAI_ENDPOINT"
	EnvChatAPIKey        = "ORATIO_AZURE_OPENAI_API_KEY"
	EnvEmbeddingEndpoint = "ORATIO_AZURE_EMBEDDINGS_ENDPOINT"
	EnvEmbeddingAPIKey   = "ORATIO_AZURE_EMBEDDINGS_API_KEY"
)

// Load builds the configuration in three layers: defaults, then the YAML
// file at path (optional, "" skips it), then environment overrides. The
// prompt template file, when configured, is read here so the rest of the
// service only ever sees the resolved template.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.PromptFile != "" {
		data, err := os.ReadFile(cfg.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("read prompt file: %w", err)
		}
		cfg.Pipeline.PromptTemplate = string(data)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setIfPresent(EnvHTTPAddr, &cfg.Server.Addr)
	setIfPresent(EnvLogLevel, &cfg.Log.Level)
	setIfPresent(EnvDomain, &cfg.Domain)
	setIfPresent(EnvMongoURI, &cfg.Mongo.URI)
	setIfPresent(EnvChatEndpoint, &cfg.Chat.Endpoint)
	setIfPresent(EnvChatAPIKey, &cfg.Chat.APIKey)
	setIfPresent(EnvEmbeddingEndpoint, &cfg.Embeddings.Endpoint)
	setIfPresent(EnvEmbeddingAPIKey, &cfg.Embeddings.APIKey)
}

func setIfPresent(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
