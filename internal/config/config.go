package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PipelineConfig holds the orchestrator parameters.
type PipelineConfig struct {
	CollectionName string `yaml:"collection_name"`
	ResultCount    int    `yaml:"result_count"`
	TokenLimit     int    `yaml:"token_limit"`
	// Tokenizer is "estimate" or "words".
	Tokenizer string `yaml:"tokenizer"`
	HardSplit bool   `yaml:"hard_split"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into indexed passages.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SQLiteConfig locates the database file. An empty path means
// <collection_name>.db in the working directory.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
// An empty collection falls back to the pipeline collection name.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIAgentConfig configures the chat completions agent.
type OpenAIAgentConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// AgentConfig selects the extraction agent: "local" or "openai".
type AgentConfig struct {
	Type         string             `yaml:"type"`
	MaxSentences int                `yaml:"max_sentences"`
	OpenAI       *OpenAIAgentConfig `yaml:"openai,omitempty"`
}

// LogConfig controls the log file. Level "error" drops progress lines.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Agent       AgentConfig       `yaml:"agent"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/omniparse/config.yaml.
// If neither exists, it writes defaults to ~/.config/omniparse/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LogFile returns the configured log file, <collection_name>.log by default.
func (c *AppConfig) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return c.Pipeline.CollectionName + ".log"
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "omniparse", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Pipeline:    PipelineConfig{CollectionName: "omniparse", ResultCount: 10, TokenLimit: 10000, Tokenizer: "estimate"},
		Embedder:    EmbedderConfig{Type: "tfidf"},
		Chunker:     ChunkerConfig{Type: "sentence", SentencesPerChunk: 5, OverlapSentences: 1},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Agent:       AgentConfig{Type: "local", MaxSentences: 3},
		Log:         LogConfig{Level: "info", MaxSizeMB: 10, MaxAgeDays: 7},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Pipeline.CollectionName == "" {
		cfg.Pipeline.CollectionName = def.Pipeline.CollectionName
	}
	if cfg.Pipeline.ResultCount == 0 {
		cfg.Pipeline.ResultCount = def.Pipeline.ResultCount
	}
	if cfg.Pipeline.TokenLimit == 0 {
		cfg.Pipeline.TokenLimit = def.Pipeline.TokenLimit
	}
	if cfg.Pipeline.Tokenizer == "" {
		cfg.Pipeline.Tokenizer = def.Pipeline.Tokenizer
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = def.Chunker.Type
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = def.Chunker.SentencesPerChunk
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = def.VectorStore.Type
	}
	if cfg.Agent.Type == "" {
		cfg.Agent.Type = def.Agent.Type
	}
	if cfg.Agent.MaxSentences == 0 {
		cfg.Agent.MaxSentences = def.Agent.MaxSentences
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = def.Log.MaxAgeDays
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Agent.Type == "openai" {
		if cfg.Agent.OpenAI == nil {
			cfg.Agent.OpenAI = &OpenAIAgentConfig{}
		}
		if cfg.Agent.OpenAI.APIKeyEnv == "" {
			cfg.Agent.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Agent.OpenAI.Model == "" {
			cfg.Agent.OpenAI.Model = "gpt-4o-mini"
		}
		if cfg.Agent.OpenAI.MaxTokens == 0 {
			cfg.Agent.OpenAI.MaxTokens = 2000
		}
		if cfg.Agent.OpenAI.TimeoutSecs == 0 {
			cfg.Agent.OpenAI.TimeoutSecs = 60
		}
	}
}
