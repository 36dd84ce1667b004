package main

import (
	"log"

	"multistep-rag-be/internal/config"
	"multistep-rag-be/internal/model"
	"multistep-rag-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM migration...")

	models := []interface{}{
		&model.Passage{},
		&model.ConversationState{},
	}

	postMigrationSQL := []string{
		// cosine distance index for SearchSimilar
		`CREATE INDEX IF NOT EXISTS passages_embedding_hnsw_idx ON passages USING hnsw (embedding_value vector_cosine_ops);`,
		`CREATE INDEX IF NOT EXISTS conversation_states_updated_at_idx ON conversation_states (updated_at);`,
	}

	if err := database.Migrate(db, models, postMigrationSQL...); err != nil {
		log.Fatalf("Error: migration failed: %v", err)
	}

	log.Println("Success: database migration completed.")
}
