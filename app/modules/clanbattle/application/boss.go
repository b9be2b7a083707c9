package clanbattleservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattledb "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/results"
	"github.com/uptrace/bun"
)

// SetupBoss creates or overwrites the boss for (cycle, slot) at lap 1.
// Re-running it restarts the slot from scratch.
func (s *ClanBattleService) SetupBoss(ctx context.Context, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (*clanbattledomain.Boss, error) {
	return unwrap(withTelemetry(s, ctx, "SetupBoss", fmt.Sprintf("%s/%d", cycleKey, slot), func(ctx context.Context) (results.OperationResult[*clanbattledomain.Boss, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*clanbattledomain.Boss, error], error) {
			return s.setupBossLogic(ctx, db, cycleKey, slot, name, maxHP)
		})
	}))
}

func (s *ClanBattleService) setupBossLogic(ctx context.Context, db bun.IDB, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (results.OperationResult[*clanbattledomain.Boss, error], error) {
	name = strings.TrimSpace(name)
	if slot < 1 || name == "" {
		return results.FailureResult[*clanbattledomain.Boss, error](fmt.Errorf("%w: slot and name are required", clanbattledomain.ErrInvalidBossSetup)), nil
	}
	if err := maxHP.Validate(s.tiers); err != nil {
		return results.FailureResult[*clanbattledomain.Boss, error](err), nil
	}

	start := s.tiers.Start(maxHP)
	boss := &clanbattledomain.Boss{
		CycleKey: cycleKey,
		Slot:     slot,
		Name:     name,
		HP:       start.HP,
		MaxHP:    maxHP,
		Laps:     start.Laps,
		Tier:     start.Tier,
	}
	if err := s.repo.UpsertBossState(ctx, db, boss); err != nil {
		return results.OperationResult[*clanbattledomain.Boss, error]{}, fmt.Errorf("failed to set up boss: %w", err)
	}
	return results.SuccessResult[*clanbattledomain.Boss, error](boss), nil
}

// ApplyDamage subtracts amount from the boss hp, clamped at zero.
func (s *ClanBattleService) ApplyDamage(ctx context.Context, cycleKey string, slot int, amount int64) (int64, error) {
	return unwrap(withTelemetry(s, ctx, "ApplyDamage", fmt.Sprintf("%s/%d", cycleKey, slot), func(ctx context.Context) (results.OperationResult[int64, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[int64, error], error) {
			return s.applyDamageLogic(ctx, db, cycleKey, slot, amount)
		})
	}))
}

func (s *ClanBattleService) applyDamageLogic(ctx context.Context, db bun.IDB, cycleKey string, slot int, amount int64) (results.OperationResult[int64, error], error) {
	if amount < 0 {
		return results.FailureResult[int64, error](clanbattledomain.ErrInvalidDamage), nil
	}
	hp, err := s.repo.ApplyBossDamage(ctx, db, cycleKey, slot, amount)
	if err != nil {
		if errors.Is(err, clanbattledb.ErrNotFound) {
			return results.FailureResult[int64, error](clanbattledomain.ErrUnknownBoss), nil
		}
		return results.OperationResult[int64, error]{}, fmt.Errorf("failed to apply damage: %w", err)
	}
	return results.SuccessResult[int64, error](hp), nil
}

// AdvanceLap moves the boss to its next lap and refills hp. Kill calls the
// logic directly under the boss row lock.
func (s *ClanBattleService) AdvanceLap(ctx context.Context, cycleKey string, slot int) (clanbattledomain.Progress, error) {
	return unwrap(withTelemetry(s, ctx, "AdvanceLap", fmt.Sprintf("%s/%d", cycleKey, slot), func(ctx context.Context) (results.OperationResult[clanbattledomain.Progress, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[clanbattledomain.Progress, error], error) {
			boss, err := s.repo.GetBossStateForUpdate(ctx, db, cycleKey, slot)
			if err != nil {
				if errors.Is(err, clanbattledb.ErrNotFound) {
					return results.FailureResult[clanbattledomain.Progress, error](clanbattledomain.ErrUnknownBoss), nil
				}
				return results.OperationResult[clanbattledomain.Progress, error]{}, fmt.Errorf("failed to load boss: %w", err)
			}
			next, err := s.advanceLapLogic(ctx, db, boss)
			if err != nil {
				return results.OperationResult[clanbattledomain.Progress, error]{}, err
			}
			return results.SuccessResult[clanbattledomain.Progress, error](next), nil
		})
	}))
}

func (s *ClanBattleService) advanceLapLogic(ctx context.Context, db bun.IDB, boss *clanbattledomain.Boss) (clanbattledomain.Progress, error) {
	next := s.tiers.Advance(boss.Progress(), boss.MaxHP)
	if err := s.repo.UpdateBossProgress(ctx, db, boss.CycleKey, boss.Slot, next); err != nil {
		return clanbattledomain.Progress{}, fmt.Errorf("failed to advance lap: %w", err)
	}
	return next, nil
}

func (s *ClanBattleService) ListBosses(ctx context.Context, cycleKey string) ([]clanbattledomain.Boss, error) {
	return unwrap(withTelemetry(s, ctx, "ListBosses", cycleKey, func(ctx context.Context) (results.OperationResult[[]clanbattledomain.Boss, error], error) {
		bosses, err := s.repo.ListBossStates(ctx, nil, cycleKey)
		if err != nil {
			return results.OperationResult[[]clanbattledomain.Boss, error]{}, fmt.Errorf("failed to list bosses: %w", err)
		}
		return results.SuccessResult[[]clanbattledomain.Boss, error](bosses), nil
	}))
}
