package clanbattlequeue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// MigrateRiver moves River's own tables up or down. A zero targetVersion
// means all the way up, or a single step down.
func MigrateRiver(ctx context.Context, dsn string, direction rivermigrate.Direction, targetVersion int) (*rivermigrate.MigrateResult, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, direction, &rivermigrate.MigrateOpts{TargetVersion: targetVersion})
	if err != nil {
		return nil, fmt.Errorf("failed to run River migrations: %w", err)
	}
	return res, nil
}
