package config

import (
	"fmt"
	"time"

	"github.com/oratio-labs/oratio-svc/internal/mongodb"
	"github.com/oratio-labs/oratio-svc/internal/server"
	"github.com/oratio-labs/oratio-svc/internal/telemetry"
	"github.com/oratio-labs/oratio-svc/llm/embedding"
	"github.com/oratio-labs/oratio-svc/llm/providers/azure"
	"github.com/oratio-labs/oratio-svc/rag"
)

// DefaultPromptTemplate is the system prompt used when no template file
// is configured. {summaries} is replaced with the retrieved passages.
const DefaultPromptTemplate = `You are a helpful assistant. Answer the question using only the context below. Cite the context when you can, and say so when the context does not contain the answer.

Context:
{summaries}`

// CollectionConfig maps a domain tag to a pre-provisioned vector
// collection, with fallback metadata for chunks stored without any.
type CollectionConfig struct {
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Title      string `yaml:"title"`
	Source     string `yaml:"source"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or console.
	Format string `yaml:"format"`
}

// Config is the complete service configuration.
type Config struct {
	Server      server.Config         `yaml:"server"`
	MetricsAddr string                `yaml:"metrics_addr"`
	Mongo       mongodb.Config        `yaml:"mongo"`
	Chat        azure.Config          `yaml:"chat"`
	Embeddings  embedding.AzureConfig `yaml:"embeddings"`
	Expander    rag.ExpanderConfig    `yaml:"expander"`
	Synthesizer rag.SynthesizerConfig `yaml:"synthesizer"`
	Pipeline    rag.PipelineConfig    `yaml:"pipeline"`

	// Domain selects which collection tag the service answers from.
	Domain string `yaml:"domain"`

	// Collections maps domain tags to provisioned vector collections.
	Collections map[string]CollectionConfig `yaml:"collections"`

	// PromptFile optionally overrides the built-in prompt template.
	PromptFile string `yaml:"prompt_file"`

	Log       LogConfig        `yaml:"log"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// Default returns the baseline configuration before file and environment
// overrides.
func Default() *Config {
	return &Config{
		Server:      server.DefaultConfig(),
		MetricsAddr: ":9090",
		Mongo: mongodb.Config{
			URI:            "mongodb://localhost:27017",
			ConnectTimeout: 10 * time.Second,
		},
		Expander:    rag.DefaultExpanderConfig(),
		Synthesizer: rag.SynthesizerConfig{Temperature: 0.2},
		Pipeline: rag.PipelineConfig{
			Chunks:         3,
			PromptTemplate: DefaultPromptTemplate,
			RequestTimeout: 60 * time.Second,
		},
		Domain: "youtube_data",
		Collections: map[string]CollectionConfig{
			"youtube_data": {
				Database:   "youtube_vector_database",
				Collection: "youtube_transcripts_vectors",
			},
			"immigration_law": {
				Database:   "youtube_vector_database",
				Collection: "immigration_law_sections",
			},
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Telemetry: telemetry.Config{
			ServiceName: "oratio-svc",
			SampleRate:  1.0,
		},
	}
}

// Collection resolves a domain tag to its provisioned collection.
// Unknown tags are a deployment defect and fail loudly.
func (c *Config) Collection(tag string) (CollectionConfig, error) {
	ref, ok := c.Collections[tag]
	if !ok {
		return CollectionConfig{}, fmt.Errorf("unknown collection tag %q: not present in collections config", tag)
	}
	return ref, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if _, err := c.Collection(c.Domain); err != nil {
		return err
	}
	for tag, ref := range c.Collections {
		if ref.Database == "" || ref.Collection == "" {
			return fmt.Errorf("collection tag %q must name a database and collection", tag)
		}
	}
	if c.Expander.Expansions <= 0 {
		return fmt.Errorf("expander.expansions must be positive")
	}
	if c.Pipeline.PromptTemplate == "" {
		return fmt.Errorf("pipeline.prompt_template must not be empty")
	}
	return nil
}
