package clanbattlemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding attack_records indexes...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			// At most one open declaration per member across every slot.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS ux_attack_records_member_declared
				ON attack_records (member_id)
				WHERE active AND status = 'declared';
			`); err != nil {
				return fmt.Errorf("failed to create declared uniqueness index: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_attack_records_lap
				ON attack_records (cycle_key, boss_slot, lap_at_start);
				CREATE INDEX IF NOT EXISTS idx_attack_records_day
				ON attack_records (cycle_key, day_index);
			`); err != nil {
				return fmt.Errorf("failed to create attack_records lookup indexes: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping attack_records indexes...")

		_, err := db.ExecContext(ctx, `
			DROP INDEX IF EXISTS ux_attack_records_member_declared;
			DROP INDEX IF EXISTS idx_attack_records_lap;
			DROP INDEX IF EXISTS idx_attack_records_day;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop attack_records indexes: %w", err)
		}
		return nil
	})
}
