package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	clanbattlemigrations "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories/migrations"
	clanbattlequeue "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/queue"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// runMigrations creates the clan battle tables and River's.
func runMigrations(ctx context.Context, db *bun.DB, dsn string) error {
	migrator := migrate.NewMigrator(db, clanbattlemigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	if _, err := clanbattlequeue.MigrateRiver(ctx, dsn, rivermigrate.DirectionUp, 0); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run clanbattle migrations: %w", err)
	}
	if group.ID == 0 {
		log.Println("No clanbattle migrations to run")
	} else {
		log.Printf("Ran clanbattle migrations group #%d", group.ID)
	}
	return nil
}

var appTables = []string{"attack_records", "boss_states", "members", "panel_refs"}

// CleanupRiverJobs deletes all jobs from the River queue
func CleanupRiverJobs(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, "DELETE FROM river_job")
	return err
}

// CleanupDatabase truncates all tables in the database to ensure a clean state
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s", strings.Join(appTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	if err := CleanupRiverJobs(ctx, db); err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("failed to cleanup river jobs: %w", err)
		}
	}
	return nil
}
