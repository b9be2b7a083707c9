package clanbattledb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/uptrace/bun"
)

// UpsertBossState overwrites the (cycle, slot) row in full.
func (r *Impl) UpsertBossState(ctx context.Context, db bun.IDB, boss *clanbattledomain.Boss) error {
	db = r.resolveDB(db)
	row := bossFromDomain(boss)
	row.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(row).
		On("CONFLICT (cycle_key, slot) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("current_hp = EXCLUDED.current_hp").
		Set("max_hp_by_tier = EXCLUDED.max_hp_by_tier").
		Set("laps = EXCLUDED.laps").
		Set("tier = EXCLUDED.tier").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clanbattledb.UpsertBossState: %w", err)
	}
	boss.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Impl) GetBossState(ctx context.Context, db bun.IDB, cycleKey string, slot int) (*clanbattledomain.Boss, error) {
	return r.getBossState(ctx, r.resolveDB(db), cycleKey, slot, false)
}

func (r *Impl) GetBossStateForUpdate(ctx context.Context, db bun.IDB, cycleKey string, slot int) (*clanbattledomain.Boss, error) {
	return r.getBossState(ctx, r.resolveDB(db), cycleKey, slot, true)
}

func (r *Impl) getBossState(ctx context.Context, db bun.IDB, cycleKey string, slot int, lock bool) (*clanbattledomain.Boss, error) {
	row := new(BossState)
	q := db.NewSelect().
		Model(row).
		Where("cycle_key = ?", cycleKey).
		Where("slot = ?", slot)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clanbattledb.GetBossState: %w", err)
	}
	return row.toDomain(), nil
}

func (r *Impl) ListBossStates(ctx context.Context, db bun.IDB, cycleKey string) ([]clanbattledomain.Boss, error) {
	db = r.resolveDB(db)
	var rows []BossState
	err := db.NewSelect().
		Model(&rows).
		Where("cycle_key = ?", cycleKey).
		Order("slot ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("clanbattledb.ListBossStates: %w", err)
	}
	out := make([]clanbattledomain.Boss, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toDomain())
	}
	return out, nil
}

func (r *Impl) ApplyBossDamage(ctx context.Context, db bun.IDB, cycleKey string, slot int, amount int64) (int64, error) {
	db = r.resolveDB(db)
	var hp int64
	err := db.NewRaw(
		"UPDATE boss_states SET current_hp = GREATEST(current_hp - ?, 0), updated_at = ? WHERE cycle_key = ? AND slot = ? RETURNING current_hp",
		amount, time.Now().UTC(), cycleKey, slot,
	).Scan(ctx, &hp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("clanbattledb.ApplyBossDamage: %w", err)
	}
	return hp, nil
}

func (r *Impl) UpdateBossProgress(ctx context.Context, db bun.IDB, cycleKey string, slot int, progress clanbattledomain.Progress) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*BossState)(nil)).
		Set("laps = ?", progress.Laps).
		Set("tier = ?", progress.Tier).
		Set("current_hp = ?", progress.HP).
		Set("updated_at = ?", time.Now().UTC()).
		Where("cycle_key = ?", cycleKey).
		Where("slot = ?", slot).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clanbattledb.UpdateBossProgress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
