package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate prepares the vector extension, creates the given models' tables and runs extra
// statements such as index definitions. Statements must be idempotent.
func Migrate(db *gorm.DB, models []interface{}, statements ...string) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("create pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("post migration %q: %w", stmt, err)
		}
	}
	return nil
}
