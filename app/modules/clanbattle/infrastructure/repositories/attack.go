package clanbattledb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

func (r *Impl) AcquireMemberLock(ctx context.Context, db bun.IDB, memberID string) error {
	db = r.resolveDB(db)
	_, err := db.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "clanbattle.member:"+memberID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("clanbattledb.AcquireMemberLock: %w", err)
	}
	return nil
}

func (r *Impl) GetActiveAttack(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Attack, error) {
	db = r.resolveDB(db)
	row := new(AttackRecord)
	err := db.NewSelect().
		Model(row).
		Where("member_id = ?", memberID).
		Where("active = TRUE").
		Where("status = ?", string(clanbattledomain.StatusDeclared)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clanbattledb.GetActiveAttack: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}

// InsertAttack assigns an id when the attack has none.
func (r *Impl) InsertAttack(ctx context.Context, db bun.IDB, attack *clanbattledomain.Attack) error {
	db = r.resolveDB(db)
	if attack.ID == uuid.Nil {
		attack.ID = uuid.New()
	}
	_, err := db.NewInsert().Model(attackFromDomain(attack)).Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return ErrActiveAttackExists
		}
		return fmt.Errorf("clanbattledb.InsertAttack: %w", err)
	}
	return nil
}

func (r *Impl) UpdateAttackDamage(ctx context.Context, db bun.IDB, attackID uuid.UUID, damage int64) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*AttackRecord)(nil)).
		Set("damage = ?", damage).
		Where("id = ?", attackID).
		Where("active = TRUE").
		Where("status = ?", string(clanbattledomain.StatusDeclared)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clanbattledb.UpdateAttackDamage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *Impl) FinishAttack(ctx context.Context, db bun.IDB, attackID uuid.UUID, status clanbattledomain.AttackStatus, damage int64, at time.Time) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*AttackRecord)(nil)).
		Set("status = ?", string(status)).
		Set("active = FALSE").
		Set("damage = ?", damage).
		Set("completed_at = ?", at).
		Where("id = ?", attackID).
		Where("active = TRUE").
		Where("status = ?", string(clanbattledomain.StatusDeclared)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clanbattledb.FinishAttack: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *Impl) KillActiveAttacks(ctx context.Context, db bun.IDB, cycleKey string, slot, lap int, at time.Time) ([]clanbattledomain.Attack, error) {
	db = r.resolveDB(db)
	var rows []AttackRecord
	err := db.NewRaw(
		`UPDATE attack_records SET status = ?, active = FALSE, completed_at = ?
		WHERE cycle_key = ? AND boss_slot = ? AND lap_at_start = ? AND active = TRUE AND status = ?
		RETURNING *`,
		string(clanbattledomain.StatusKilled), at, cycleKey, slot, lap, string(clanbattledomain.StatusDeclared),
	).Scan(ctx, &rows)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("clanbattledb.KillActiveAttacks: %w", err)
	}
	return attacksToDomain(rows), nil
}

func (r *Impl) ListAttacksForLap(ctx context.Context, db bun.IDB, cycleKey string, slot, lap int) ([]clanbattledomain.Attack, error) {
	return r.listAttacks(ctx, db, "clanbattledb.ListAttacksForLap", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("cycle_key = ?", cycleKey).
			Where("boss_slot = ?", slot).
			Where("lap_at_start = ?", lap)
	})
}

func (r *Impl) ListAttacksForDay(ctx context.Context, db bun.IDB, cycleKey string, dayIndex int) ([]clanbattledomain.Attack, error) {
	return r.listAttacks(ctx, db, "clanbattledb.ListAttacksForDay", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("cycle_key = ?", cycleKey).
			Where("day_index = ?", dayIndex)
	})
}

func (r *Impl) ListAttacksForCycle(ctx context.Context, db bun.IDB, cycleKey string) ([]clanbattledomain.Attack, error) {
	return r.listAttacks(ctx, db, "clanbattledb.ListAttacksForCycle", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("cycle_key = ?", cycleKey)
	})
}

func (r *Impl) listAttacks(ctx context.Context, db bun.IDB, op string, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]clanbattledomain.Attack, error) {
	db = r.resolveDB(db)
	var rows []AttackRecord
	q := filter(db.NewSelect().Model(&rows)).Order("declared_at ASC", "id ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return attacksToDomain(rows), nil
}
