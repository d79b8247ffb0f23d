package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/abdolrhman-mo/focusmetricapi/internal/config"
	"github.com/abdolrhman-mo/focusmetricapi/internal/database"
)

// Creates the application schema from the bun models. Safe to re-run:
// every statement is IF NOT EXISTS.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db := database.NewBunDB(sqlDB)
	ctx := context.Background()

	if err := createTables(ctx, db); err != nil {
		return err
	}

	log.Println("Migration complete")
	return nil
}

func createTables(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*database.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*database.Reason)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create reasons table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*database.FocusEntry)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		ForeignKey(`("reason_id") REFERENCES "reasons" ("id") ON DELETE SET NULL`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create focus_entries table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*database.Goal)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create goals table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*database.Feedback)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create feedback table: %w", err)
	}

	return nil
}
