package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the full application configuration
type Config struct {
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
	Index         IndexConfig         `mapstructure:"index"`
	Chunk         ChunkConfig         `mapstructure:"chunk"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Planner       PlannerConfig       `mapstructure:"planner"`
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Currency      CurrencyConfig      `mapstructure:"currency"`
}

type KnowledgeBaseConfig struct {
	Dir string `mapstructure:"dir"`
}

// IndexConfig locates the persisted index. A postgres:// URL selects the
// pgvector store, anything else is a SQLite file path.
type IndexConfig struct {
	Location  string  `mapstructure:"location"`
	TopK      int     `mapstructure:"top_k"`
	Threshold float64 `mapstructure:"threshold"`
}

type ChunkConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

type EmbeddingConfig struct {
	Provider      string `mapstructure:"provider"`
	Model         string `mapstructure:"model"`
	Dimension     int    `mapstructure:"dimension"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	BatchSize     int    `mapstructure:"batch_size"`
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`
	Model        string        `mapstructure:"model"`
	OllamaHost   string        `mapstructure:"ollama_host"`
	OpenAIAPIKey string        `mapstructure:"openai_api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Temperature  float64       `mapstructure:"temperature"`
}

type PlannerConfig struct {
	MaxDays int `mapstructure:"max_days"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type CurrencyConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("knowledge_base.dir", "./knowledge_base")
	v.SetDefault("index.location", "./vector_store.db")
	v.SetDefault("index.top_k", 3)
	v.SetDefault("index.threshold", 0.4)
	v.SetDefault("chunk.size", 1000)
	v.SetDefault("chunk.overlap", 150)
	v.SetDefault("embedding.provider", ProviderOllama)
	v.SetDefault("embedding.model", "all-minilm")
	v.SetDefault("embedding.dimension", 384)
	v.SetDefault("embedding.max_concurrent", 4)
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("llm.provider", ProviderOllama)
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.ollama_host", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.timeout", "5m")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("planner.max_days", 30)
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("currency.base_url", "https://api.exchangerate-api.com/v4/latest/")
	v.SetDefault("currency.timeout", "10s")
	v.SetDefault("currency.retry_max", 3)
}

// LoadConfig reads the optional config file, .env and TRIP_* environment
// variables into a Config. Environment variables win over the file.
func LoadConfig(configFile string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.BindEnv("llm.openai_api_key", "TRIP_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("error binding environment variable: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found or unable to load")
	}
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 {
		return fmt.Errorf("chunk.size must be positive, got %d", c.Chunk.Size)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk.overlap must be in [0, %d), got %d", c.Chunk.Size, c.Chunk.Overlap)
	}
	if c.Index.TopK < 1 {
		return fmt.Errorf("index.top_k must be at least 1, got %d", c.Index.TopK)
	}
	if c.Index.Threshold < 0 || c.Index.Threshold > 1 {
		return fmt.Errorf("index.threshold must be in [0, 1], got %g", c.Index.Threshold)
	}

	if c.Planner.MaxDays < 0 {
		return fmt.Errorf("planner.max_days must not be negative, got %d", c.Planner.MaxDays)
	}

	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderHash:
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}

	switch c.LLM.Provider {
	case ProviderOllama:
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return errors.New("llm.openai_api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}

	return nil
}

// Addr returns the HTTP listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
