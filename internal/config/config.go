// Package config loads service configuration from an optional YAML file
// overlaid with environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an external AI backend.
type Provider string

const (
	ProviderLocal     Provider = "local"
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// VectorBackend identifies the vector index implementation.
type VectorBackend string

const (
	VectorBackendMemory VectorBackend = "memory"
	VectorBackendQdrant VectorBackend = "qdrant"
)

// FallbackMode controls what happens when retrieval is insufficient.
type FallbackMode string

const (
	// FallbackCanned returns a fixed "insufficient knowledge" answer.
	FallbackCanned FallbackMode = "canned"
	// FallbackGeneral falls back to ungrounded generation.
	FallbackGeneral FallbackMode = "general"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	Port string `yaml:"port"`

	// Ingestion
	Workers      int    `yaml:"workers"`
	ChunkSize    int    `yaml:"chunk_size"`    // words per chunk
	ChunkOverlap int    `yaml:"chunk_overlap"` // words shared between adjacent chunks
	DataDir      string `yaml:"data_dir"`

	// Retrieval
	TopK                int          `yaml:"top_k"`
	ConfidenceThreshold float64      `yaml:"confidence_threshold"`
	Fallback            FallbackMode `yaml:"fallback"`

	// Embedding
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// Generation
	LLMProvider       Provider      `yaml:"llm_provider"`
	LLMModel          string        `yaml:"llm_model"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	QueryConcurrency  int           `yaml:"query_concurrency"`

	// Provider credentials and endpoints
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`

	// Vector index
	VectorBackend VectorBackend `yaml:"vector_backend"`
	QdrantURL     string        `yaml:"qdrant_url"`
	QdrantAPIKey  string        `yaml:"-"`

	// Bookkeeping store
	DBPath string `yaml:"db_path"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Port:                "8080",
		Workers:             4,
		ChunkSize:           250,
		ChunkOverlap:        40,
		DataDir:             "./data",
		TopK:                5,
		ConfidenceThreshold: 0.6,
		Fallback:            FallbackCanned,
		EmbedProvider:       ProviderLocal,
		EmbedModel:          "all-minilm:l6-v2",
		EmbedDimension:      384,
		LLMProvider:         ProviderOllama,
		LLMModel:            "llama3.2",
		GenerationTimeout:   60 * time.Second,
		QueryConcurrency:    8,
		OllamaHost:          "http://localhost:11434",
		VectorBackend:       VectorBackendMemory,
		QdrantURL:           "http://localhost:6333",
		DBPath:              "elimu.db",
		LogLevel:            slog.LevelInfo,
	}
}

// Load reads configuration from environment variables over the defaults.
func Load() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// LoadFile reads a YAML config file, then applies environment overrides.
// Environment variables always win over file values.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be >= 1, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be in [0, chunk size), chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %g", c.ConfidenceThreshold)
	}
	switch c.Fallback {
	case FallbackCanned, FallbackGeneral:
	default:
		return fmt.Errorf("unknown fallback mode: %q", c.Fallback)
	}
	switch c.VectorBackend {
	case VectorBackendMemory, VectorBackendQdrant:
	default:
		return fmt.Errorf("unknown vector backend: %q", c.VectorBackend)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("ELIMU_PORT", cfg.Port)
	cfg.Workers = getEnvInt("ELIMU_WORKERS", cfg.Workers)
	cfg.ChunkSize = getEnvInt("ELIMU_CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = getEnvInt("ELIMU_CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.DataDir = getEnv("ELIMU_DATA_DIR", cfg.DataDir)

	cfg.TopK = getEnvInt("ELIMU_TOP_K", cfg.TopK)
	cfg.ConfidenceThreshold = getEnvFloat("ELIMU_CONFIDENCE_THRESHOLD", cfg.ConfidenceThreshold)
	cfg.Fallback = FallbackMode(getEnv("ELIMU_FALLBACK", string(cfg.Fallback)))

	cfg.EmbedProvider = Provider(getEnv("ELIMU_EMBED_PROVIDER", string(cfg.EmbedProvider)))
	cfg.EmbedModel = getEnv("ELIMU_EMBED_MODEL", cfg.EmbedModel)
	cfg.EmbedDimension = getEnvInt("ELIMU_EMBED_DIMENSION", cfg.EmbedDimension)

	cfg.LLMProvider = Provider(getEnv("ELIMU_LLM_PROVIDER", string(cfg.LLMProvider)))
	cfg.LLMModel = getEnv("ELIMU_LLM_MODEL", cfg.LLMModel)
	cfg.GenerationTimeout = getEnvDuration("ELIMU_GENERATION_TIMEOUT", cfg.GenerationTimeout)
	cfg.QueryConcurrency = getEnvInt("ELIMU_QUERY_CONCURRENCY", cfg.QueryConcurrency)

	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)

	cfg.VectorBackend = VectorBackend(getEnv("ELIMU_VECTOR_BACKEND", string(cfg.VectorBackend)))
	cfg.QdrantURL = getEnv("ELIMU_QDRANT_URL", cfg.QdrantURL)
	cfg.QdrantAPIKey = getEnv("ELIMU_QDRANT_API_KEY", cfg.QdrantAPIKey)

	cfg.DBPath = getEnv("ELIMU_DB_PATH", cfg.DBPath)

	cfg.LogFile = getEnv("ELIMU_LOG_FILE", cfg.LogFile)
	if lvl := os.Getenv("ELIMU_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = parseLogLevel(lvl)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
