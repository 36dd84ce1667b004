package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"multistep-rag-be/pkg/rag"

	"github.com/joho/godotenv"
)

const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RagConfig
	Store    StoreConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	JwtSecret          string // empty disables bearer auth on the chat API
	NatsURL            string // empty disables event forwarding
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	OllamaBaseURL  string
	EmbeddingModel string
	LLMProvider    string // "ollama"
	LLMModel       string // e.g. "llama3", "qwen2.5"
	LabelModel     string // optional smaller model for topic and relevance labels
	Temperature    float64
}

type RagConfig struct {
	MaxRephrase    int
	TopK           int
	FetchK         int
	MMRLambda      float64
	GraderWorkers  int
	GatewayTimeout time.Duration
	StreamTimeout  time.Duration
	Topics         []string
}

type StoreConfig struct {
	Backend    string // "redis", "postgres" or "memory"
	SessionTTL time.Duration
	LockTTL    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/ws.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			LabelModel:     getEnv("LLM_LABEL_MODEL", ""),
			Temperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		},
		Rag: RagConfig{
			MaxRephrase:    getEnvAsInt("RAG_MAX_REPHRASE", 2),
			TopK:           getEnvAsInt("RAG_TOP_K", 3),
			FetchK:         getEnvAsInt("RAG_FETCH_K", 20),
			MMRLambda:      getEnvAsFloat("RAG_MMR_LAMBDA", 0.5),
			GraderWorkers:  getEnvAsInt("RAG_GRADER_WORKERS", 3),
			GatewayTimeout: getEnvAsDuration("RAG_GATEWAY_TIMEOUT", 60*time.Second),
			StreamTimeout:  getEnvAsDuration("RAG_STREAM_TIMEOUT", 5*time.Minute),
			Topics:         getEnvAsList("RAG_TOPICS", []string{"Attention is all you need research paper"}),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STATE_STORE", StoreRedis)),
			SessionTTL: getEnvAsDuration("STATE_TTL", 0),
			LockTTL:    getEnvAsDuration("SESSION_LOCK_TTL", 5*time.Minute),
		},
	}
}

// Validate reports every missing or inconsistent setting at once. The returned error wraps
// rag.ErrConfiguration and the process must not serve requests when it is non-nil.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	// retrieval always reads the passages table
	if c.Database.Connection == "" {
		fail("DB_CONNECTION_STRING is required")
	}
	if c.Ai.LLMProvider != "ollama" {
		fail("unsupported LLM_PROVIDER %q", c.Ai.LLMProvider)
	}
	if c.Ai.OllamaBaseURL == "" {
		fail("OLLAMA_BASE_URL is required")
	}
	if c.Ai.LLMModel == "" {
		fail("LLM_MODEL is required")
	}
	if c.Ai.EmbeddingModel == "" {
		fail("OLLAMA_EMBEDDING_MODEL is required")
	}

	if c.Rag.MaxRephrase < 0 {
		fail("RAG_MAX_REPHRASE must not be negative, got %d", c.Rag.MaxRephrase)
	}
	if c.Rag.TopK <= 0 {
		fail("RAG_TOP_K must be positive, got %d", c.Rag.TopK)
	}
	if c.Rag.FetchK < c.Rag.TopK {
		fail("RAG_FETCH_K (%d) must be at least RAG_TOP_K (%d)", c.Rag.FetchK, c.Rag.TopK)
	}
	if c.Rag.MMRLambda < 0 || c.Rag.MMRLambda > 1 {
		fail("RAG_MMR_LAMBDA must be within [0,1], got %v", c.Rag.MMRLambda)
	}
	if c.Rag.GraderWorkers <= 0 {
		fail("RAG_GRADER_WORKERS must be positive, got %d", c.Rag.GraderWorkers)
	}
	if c.Rag.GatewayTimeout <= 0 || c.Rag.StreamTimeout <= 0 {
		fail("RAG_GATEWAY_TIMEOUT and RAG_STREAM_TIMEOUT must be positive")
	}
	if len(c.Rag.Topics) == 0 {
		fail("RAG_TOPICS must name at least one topic")
	}

	switch c.Store.Backend {
	case StoreRedis:
		if c.App.RedisURL == "" {
			fail("REDIS_URL is required when STATE_STORE=redis")
		}
	case StorePostgres, StoreMemory:
	default:
		fail("unknown STATE_STORE %q", c.Store.Backend)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", rag.ErrConfiguration, errors.Join(errs...))
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits on ";" since topic names may contain commas
func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
