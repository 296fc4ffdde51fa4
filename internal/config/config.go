package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Retrieval modes understood by the retriever.
const (
	RetrievalModeAuto        = "auto"
	RetrievalModeWhole       = "whole"
	RetrievalModePerQuestion = "per_question"
)

type Config struct {
	Server        ServerConfig
	Logger        LoggerConfig
	LLM           LLMConfig
	Embedding     EmbeddingConfig
	VectorStore   VectorStoreConfig
	RAG           RAGConfig
	DocumentCache DocumentCacheConfig
	Redis         RedisConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
	AllowOrigins string
	UploadDir    string
}

type LoggerConfig struct {
	Level string
	Env   string
}

type LLMConfig struct {
	Provider       string // "ollama" or "openai"
	ServerURL      string
	Model          string
	APIKey         string
	Temperature    float64
	Timeout        time.Duration
	RequireHealthy bool
}

type EmbeddingConfig struct {
	Source   string // "ollama" or "openai"
	Timeout  time.Duration
	CacheTTL time.Duration
	Ollama   OllamaEmbeddingConfig
	OpenAI   OpenAIEmbeddingConfig
}

type OllamaEmbeddingConfig struct {
	ServerURL string
	Model     string
}

type OpenAIEmbeddingConfig struct {
	APIKey string
	Model  string
}

type VectorStoreConfig struct {
	Driver     string // "bolt" or "memory"
	Path       string
	Collection string
}

type RAGConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	RetrievalMode  string
	QueryTemplate  string
	MaxConcurrency int
}

type DocumentCacheConfig struct {
	Driver string // "memory" or "redis"
	TTL    time.Duration
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 120)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.body_limit_mb", 20)
	v.SetDefault("server.allow_origins", "http://localhost:3000")
	v.SetDefault("server.upload_dir", os.TempDir())

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.server", "http://localhost:11434")
	v.SetDefault("llm.model", "llama2")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", 60)
	v.SetDefault("llm.require_healthy", false)

	v.SetDefault("embedding.source", "ollama")
	v.SetDefault("embedding.timeout", 60)
	v.SetDefault("embedding.cache_ttl", "168h")
	v.SetDefault("embedding.ollama.server_url", "http://localhost:11434")
	v.SetDefault("embedding.ollama.model", "llama2")
	v.SetDefault("embedding.openai.model", "text-embedding-ada-002")

	v.SetDefault("vector_store.driver", "bolt")
	v.SetDefault("vector_store.path", "./data/index.db")
	v.SetDefault("vector_store.collection", "document_chunks")

	v.SetDefault("rag.chunk_size", 1000)
	v.SetDefault("rag.chunk_overlap", 200)
	v.SetDefault("rag.top_k", 3)
	v.SetDefault("rag.retrieval_mode", RetrievalModeAuto)
	v.SetDefault("rag.query_template", "important concept %d")
	v.SetDefault("rag.max_concurrency", 5)

	v.SetDefault("document_cache.driver", "memory")
	v.SetDefault("document_cache.ttl", "1h")

	v.SetDefault("redis.db", 0)
}

func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile reads path when given, otherwise searches for config.yaml.
// A missing default config file is not an error.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Add config paths based on environment
		if os.Getenv("ENV") == "test" {
			v.AddConfigPath("../../config")
			v.AddConfigPath("../../")
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
		}
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
			AllowOrigins: v.GetString("server.allow_origins"),
			UploadDir:    v.GetString("server.upload_dir"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		LLM: LLMConfig{
			Provider:       v.GetString("llm.provider"),
			ServerURL:      v.GetString("llm.server"),
			Model:          v.GetString("llm.model"),
			APIKey:         v.GetString("llm.api_key"),
			Temperature:    v.GetFloat64("llm.temperature"),
			Timeout:        time.Duration(v.GetInt("llm.timeout")) * time.Second,
			RequireHealthy: v.GetBool("llm.require_healthy"),
		},
		Embedding: EmbeddingConfig{
			Source:   v.GetString("embedding.source"),
			Timeout:  time.Duration(v.GetInt("embedding.timeout")) * time.Second,
			CacheTTL: ParseTTLStringOrDefault(v.GetString("embedding.cache_ttl"), 168*time.Hour),
			Ollama: OllamaEmbeddingConfig{
				ServerURL: v.GetString("embedding.ollama.server_url"),
				Model:     v.GetString("embedding.ollama.model"),
			},
			OpenAI: OpenAIEmbeddingConfig{
				APIKey: v.GetString("embedding.openai.api_key"),
				Model:  v.GetString("embedding.openai.model"),
			},
		},
		VectorStore: VectorStoreConfig{
			Driver:     v.GetString("vector_store.driver"),
			Path:       v.GetString("vector_store.path"),
			Collection: v.GetString("vector_store.collection"),
		},
		RAG: RAGConfig{
			ChunkSize:      v.GetInt("rag.chunk_size"),
			ChunkOverlap:   v.GetInt("rag.chunk_overlap"),
			TopK:           v.GetInt("rag.top_k"),
			RetrievalMode:  v.GetString("rag.retrieval_mode"),
			QueryTemplate:  v.GetString("rag.query_template"),
			MaxConcurrency: v.GetInt("rag.max_concurrency"),
		},
		DocumentCache: DocumentCacheConfig{
			Driver: v.GetString("document_cache.driver"),
			TTL:    ParseTTLStringOrDefault(v.GetString("document_cache.ttl"), time.Hour),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}

	// Override with the legacy environment variable names
	if llmServer := os.Getenv("LLM_SERVER"); llmServer != "" {
		config.LLM.ServerURL = llmServer
	}
	if openAIKey := os.Getenv("OPENAI_API_KEY"); openAIKey != "" {
		if config.LLM.APIKey == "" {
			config.LLM.APIKey = openAIKey
		}
		if config.Embedding.OpenAI.APIKey == "" {
			config.Embedding.OpenAI.APIKey = openAIKey
		}
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if indexPath := os.Getenv("VECTOR_STORE_PATH"); indexPath != "" {
		config.VectorStore.Path = indexPath
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ValidQueryTemplate reports whether tpl renders cleanly with one integer
// argument and the rendering depends on that argument.
func ValidQueryTemplate(tpl string) bool {
	first := fmt.Sprintf(tpl, 1)
	return !strings.Contains(first, "%!") && first != fmt.Sprintf(tpl, 2)
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size), got %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	switch c.RAG.RetrievalMode {
	case RetrievalModeAuto, RetrievalModeWhole, RetrievalModePerQuestion:
	default:
		return fmt.Errorf("unsupported rag.retrieval_mode: %q", c.RAG.RetrievalMode)
	}
	if !ValidQueryTemplate(c.RAG.QueryTemplate) {
		return fmt.Errorf("rag.query_template must format a single integer (e.g. %%d), got %q", c.RAG.QueryTemplate)
	}
	if c.RAG.MaxConcurrency <= 0 {
		c.RAG.MaxConcurrency = 1
	}
	if c.VectorStore.Collection == "" {
		return fmt.Errorf("vector_store.collection must not be empty")
	}
	if c.DocumentCache.Driver == "redis" && c.Redis.Address == "" {
		return fmt.Errorf("document_cache.driver is redis but redis.address is empty")
	}
	return nil
}

// ParseTTLStringOrDefault parses a Go duration string, returning def when it is empty or invalid.
func ParseTTLStringOrDefault(ttl string, def time.Duration) time.Duration {
	if ttl == "" {
		return def
	}
	d, err := time.ParseDuration(ttl)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
