package config

import (
	"testing"
	"time"

	"multistep-rag-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{RedisURL: "redis://localhost:6379"},
		Database: DatabaseConfig{Connection: "postgres://rag@localhost/rag"},
		Ai: AIConfig{
			OllamaBaseURL:  "http://localhost:11434",
			EmbeddingModel: "nomic-embed-text",
			LLMProvider:    "ollama",
			LLMModel:       "llama3",
		},
		Rag: RagConfig{
			MaxRephrase:    2,
			TopK:           3,
			FetchK:         20,
			MMRLambda:      0.5,
			GraderWorkers:  3,
			GatewayTimeout: time.Minute,
			StreamTimeout:  time.Minute,
			Topics:         []string{"Attention is all you need research paper"},
		},
		Store: StoreConfig{Backend: StoreRedis},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero refinements allowed", mutate: func(c *Config) { c.Rag.MaxRephrase = 0 }},
		{name: "memory store", mutate: func(c *Config) { c.Store.Backend = StoreMemory; c.App.RedisURL = "" }},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.Connection = "" }, wantErr: "DB_CONNECTION_STRING"},
		{name: "unknown provider", mutate: func(c *Config) { c.Ai.LLMProvider = "gpt" }, wantErr: "LLM_PROVIDER"},
		{name: "negative rephrase", mutate: func(c *Config) { c.Rag.MaxRephrase = -1 }, wantErr: "RAG_MAX_REPHRASE"},
		{name: "fetch below top k", mutate: func(c *Config) { c.Rag.FetchK = 2 }, wantErr: "RAG_FETCH_K"},
		{name: "lambda out of range", mutate: func(c *Config) { c.Rag.MMRLambda = 1.5 }, wantErr: "RAG_MMR_LAMBDA"},
		{name: "no topics", mutate: func(c *Config) { c.Rag.Topics = nil }, wantErr: "RAG_TOPICS"},
		{name: "redis without url", mutate: func(c *Config) { c.App.RedisURL = "" }, wantErr: "REDIS_URL"},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Backend = "sqlite" }, wantErr: "STATE_STORE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, rag.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Connection = ""
	cfg.Rag.GraderWorkers = 0

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_CONNECTION_STRING")
	assert.Contains(t, err.Error(), "RAG_GRADER_WORKERS")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RAG_MAX_REPHRASE", "4")
	t.Setenv("RAG_GATEWAY_TIMEOUT", "15s")
	t.Setenv("RAG_TOPICS", "Transformers; attention, in general ;")
	t.Setenv("STATE_STORE", "Postgres")
	t.Setenv("RAG_TOP_K", "not-a-number")
	t.Setenv("LLM_LABEL_MODEL", "qwen2.5:0.5b")

	cfg := Load()

	assert.Equal(t, 4, cfg.Rag.MaxRephrase)
	assert.Equal(t, 15*time.Second, cfg.Rag.GatewayTimeout)
	assert.Equal(t, []string{"Transformers", "attention, in general"}, cfg.Rag.Topics)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Rag.TopK)
	assert.Equal(t, "qwen2.5:0.5b", cfg.Ai.LabelModel)
}
