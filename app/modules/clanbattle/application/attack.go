package clanbattleservice

import (
	"context"
	"errors"
	"fmt"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattledb "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/results"
	"github.com/uptrace/bun"
)

type attackResult = results.OperationResult[*clanbattledomain.Attack, error]

func attackFailure(err error) (attackResult, error) {
	return results.FailureResult[*clanbattledomain.Attack, error](err), nil
}

func attackError(format string, err error) (attackResult, error) {
	return attackResult{}, fmt.Errorf(format+": %w", err)
}

// Declare opens an attack window for the member on slot. A member holds at
// most one open declaration across all slots.
func (s *ClanBattleService) Declare(ctx context.Context, memberID string, slot int, carryOver bool) (*clanbattledomain.Attack, error) {
	attack, err := unwrap(withTelemetry(s, ctx, "Declare", memberID, func(ctx context.Context) (attackResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (attackResult, error) {
			return s.declareLogic(ctx, db, memberID, slot, carryOver)
		})
	}))
	if err != nil {
		return nil, err
	}
	s.refreshBossPanel(ctx, slot)
	return attack, nil
}

func (s *ClanBattleService) declareLogic(ctx context.Context, db bun.IDB, memberID string, slot int, carryOver bool) (attackResult, error) {
	if failure, err := s.checkMember(ctx, db, memberID); err != nil || failure != nil {
		if err != nil {
			return attackResult{}, err
		}
		return attackFailure(failure)
	}
	if err := s.repo.AcquireMemberLock(ctx, db, memberID); err != nil {
		return attackError("failed to lock member", err)
	}

	if _, err := s.repo.GetActiveAttack(ctx, db, memberID); err == nil {
		return attackFailure(clanbattledomain.ErrAlreadyAttacking)
	} else if !errors.Is(err, clanbattledb.ErrNotFound) {
		return attackError("failed to check active attack", err)
	}

	// The lap snapshot must not go stale before the insert commits, so the
	// boss row stays locked against a concurrent Kill.
	cycleKey := s.clock.CurrentCycleKey()
	boss, err := s.repo.GetBossStateForUpdate(ctx, db, cycleKey, slot)
	if err != nil {
		if errors.Is(err, clanbattledb.ErrNotFound) {
			return attackFailure(clanbattledomain.ErrUnknownBoss)
		}
		return attackError("failed to lock boss", err)
	}

	attack := s.newAttack(memberID, boss.Slot, boss.Progress(), carryOver)
	if err := s.repo.InsertAttack(ctx, db, attack); err != nil {
		if errors.Is(err, clanbattledb.ErrActiveAttackExists) {
			return attackFailure(clanbattledomain.ErrAlreadyAttacking)
		}
		return attackError("failed to declare attack", err)
	}
	return results.SuccessResult[*clanbattledomain.Attack, error](attack), nil
}

func (s *ClanBattleService) newAttack(memberID string, slot int, at clanbattledomain.Progress, carryOver bool) *clanbattledomain.Attack {
	return &clanbattledomain.Attack{
		CycleKey:    s.clock.CurrentCycleKey(),
		DayIndex:    s.clock.CurrentDayIndex(),
		MemberID:    memberID,
		Slot:        slot,
		LapAtStart:  at.Laps,
		TierAtStart: at.Tier,
		CarryOver:   carryOver,
		Active:      true,
		Status:      clanbattledomain.StatusDeclared,
		DeclaredAt:  s.now(),
	}
}

// SubmitDamage records the damage of the member's open declaration. A
// resubmission replaces the previous value.
func (s *ClanBattleService) SubmitDamage(ctx context.Context, memberID string, raw string) (*clanbattledomain.Attack, error) {
	damage, err := clanbattledomain.ParseDamage(raw)
	if err != nil {
		return nil, err
	}
	attack, err := unwrap(withTelemetry(s, ctx, "SubmitDamage", memberID, func(ctx context.Context) (attackResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (attackResult, error) {
			return s.submitDamageLogic(ctx, db, memberID, damage)
		})
	}))
	if err != nil {
		return nil, err
	}
	s.refreshBossPanel(ctx, attack.Slot)
	return attack, nil
}

func (s *ClanBattleService) submitDamageLogic(ctx context.Context, db bun.IDB, memberID string, damage int64) (attackResult, error) {
	attack, result, err := s.lockedActiveAttack(ctx, db, memberID)
	if attack == nil {
		return result, err
	}
	if err := s.repo.UpdateAttackDamage(ctx, db, attack.ID, damage); err != nil {
		if errors.Is(err, clanbattledb.ErrNoRowsAffected) {
			return attackFailure(clanbattledomain.ErrNoActiveAttack)
		}
		return attackError("failed to record damage", err)
	}
	attack.Damage = damage
	return results.SuccessResult[*clanbattledomain.Attack, error](attack), nil
}

// Complete closes the member's open declaration and subtracts its damage
// from the boss in the same transaction.
func (s *ClanBattleService) Complete(ctx context.Context, memberID string) (*clanbattledomain.Attack, error) {
	return s.finish(ctx, "Complete", memberID, false)
}

// Cancel withdraws the member's open declaration without damage.
func (s *ClanBattleService) Cancel(ctx context.Context, memberID string) (*clanbattledomain.Attack, error) {
	return s.finish(ctx, "Cancel", memberID, true)
}

func (s *ClanBattleService) finish(ctx context.Context, op, memberID string, withdraw bool) (*clanbattledomain.Attack, error) {
	attack, err := unwrap(withTelemetry(s, ctx, op, memberID, func(ctx context.Context) (attackResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (attackResult, error) {
			return s.finishLogic(ctx, db, memberID, withdraw)
		})
	}))
	if err != nil {
		return nil, err
	}
	s.refreshBossPanel(ctx, attack.Slot)
	s.refreshDailyPanels(ctx)
	return attack, nil
}

func (s *ClanBattleService) finishLogic(ctx context.Context, db bun.IDB, memberID string, withdraw bool) (attackResult, error) {
	attack, result, err := s.lockedActiveAttack(ctx, db, memberID)
	if attack == nil {
		return result, err
	}
	if withdraw {
		attack.Damage = 0
	}

	// Boss row before attack rows, the same order Kill takes them.
	if _, err := s.repo.GetBossStateForUpdate(ctx, db, attack.CycleKey, attack.Slot); err != nil {
		if errors.Is(err, clanbattledb.ErrNotFound) {
			return attackFailure(clanbattledomain.ErrUnknownBoss)
		}
		return attackError("failed to lock boss", err)
	}

	at := s.now()
	if err := s.repo.FinishAttack(ctx, db, attack.ID, clanbattledomain.StatusCompleted, attack.Damage, at); err != nil {
		if errors.Is(err, clanbattledb.ErrNoRowsAffected) {
			return attackFailure(clanbattledomain.ErrNoActiveAttack)
		}
		return attackError("failed to complete attack", err)
	}
	if !withdraw {
		if _, err := s.repo.ApplyBossDamage(ctx, db, attack.CycleKey, attack.Slot, attack.Damage); err != nil {
			return attackError("failed to apply damage", err)
		}
	}

	attack.Status = clanbattledomain.StatusCompleted
	attack.Active = false
	attack.CompletedAt = &at
	return results.SuccessResult[*clanbattledomain.Attack, error](attack), nil
}

// lockedActiveAttack verifies the member, takes the member lock and loads the
// open declaration. A nil attack means the returned result or error is final.
func (s *ClanBattleService) lockedActiveAttack(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Attack, attackResult, error) {
	if failure, err := s.checkMember(ctx, db, memberID); err != nil || failure != nil {
		if err != nil {
			return nil, attackResult{}, err
		}
		r, _ := attackFailure(failure)
		return nil, r, nil
	}
	if err := s.repo.AcquireMemberLock(ctx, db, memberID); err != nil {
		r, e := attackError("failed to lock member", err)
		return nil, r, e
	}
	attack, err := s.repo.GetActiveAttack(ctx, db, memberID)
	if err != nil {
		if errors.Is(err, clanbattledb.ErrNotFound) {
			r, _ := attackFailure(clanbattledomain.ErrNoActiveAttack)
			return nil, r, nil
		}
		r, e := attackError("failed to load active attack", err)
		return nil, r, e
	}
	return attack, attackResult{}, nil
}

// Kill ends the boss's lap. The caller's lap must match the live lap, so a
// second click on an already processed kill is rejected as stale. Every open
// declaration on the lap is marked killed, the lap advances once, and the
// caller gets a carry-over declaration on the new lap unless they hold an
// open declaration elsewhere.
func (s *ClanBattleService) Kill(ctx context.Context, memberID string, slot, lap int) (*KillResult, error) {
	out, err := unwrap(withTelemetry(s, ctx, "Kill", fmt.Sprintf("%s/%d/%d", memberID, slot, lap), func(ctx context.Context) (results.OperationResult[*KillResult, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*KillResult, error], error) {
			return s.killLogic(ctx, db, memberID, slot, lap)
		})
	}))
	if err != nil {
		return nil, err
	}
	s.postBossPanel(ctx, slot)
	s.refreshDailyPanels(ctx)
	return out, nil
}

func (s *ClanBattleService) killLogic(ctx context.Context, db bun.IDB, memberID string, slot, lap int) (results.OperationResult[*KillResult, error], error) {
	fail := func(err error) (results.OperationResult[*KillResult, error], error) {
		return results.FailureResult[*KillResult, error](err), nil
	}
	if failure, err := s.checkMember(ctx, db, memberID); err != nil || failure != nil {
		if err != nil {
			return results.OperationResult[*KillResult, error]{}, err
		}
		return fail(failure)
	}
	if err := s.repo.AcquireMemberLock(ctx, db, memberID); err != nil {
		return results.OperationResult[*KillResult, error]{}, fmt.Errorf("failed to lock member: %w", err)
	}

	cycleKey := s.clock.CurrentCycleKey()
	boss, err := s.repo.GetBossStateForUpdate(ctx, db, cycleKey, slot)
	if err != nil {
		if errors.Is(err, clanbattledb.ErrNotFound) {
			return fail(clanbattledomain.ErrUnknownBoss)
		}
		return results.OperationResult[*KillResult, error]{}, fmt.Errorf("failed to lock boss: %w", err)
	}
	if boss.Laps != lap {
		return fail(fmt.Errorf("%w: lap %d is now %d", clanbattledomain.ErrStaleAction, lap, boss.Laps))
	}

	killed, err := s.repo.KillActiveAttacks(ctx, db, cycleKey, slot, lap, s.now())
	if err != nil {
		return results.OperationResult[*KillResult, error]{}, fmt.Errorf("failed to kill attacks: %w", err)
	}
	next, err := s.advanceLapLogic(ctx, db, boss)
	if err != nil {
		return results.OperationResult[*KillResult, error]{}, err
	}
	out := &KillResult{Killed: killed, Progress: next}

	_, err = s.repo.GetActiveAttack(ctx, db, memberID)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "Skipping carry-over, member holds another declaration")
	case errors.Is(err, clanbattledb.ErrNotFound):
		carry := s.newAttack(memberID, slot, next, true)
		if err := s.repo.InsertAttack(ctx, db, carry); err != nil {
			return results.OperationResult[*KillResult, error]{}, fmt.Errorf("failed to create carry-over: %w", err)
		}
		out.CarryOver = carry
	default:
		return results.OperationResult[*KillResult, error]{}, fmt.Errorf("failed to check active attack: %w", err)
	}
	return results.SuccessResult[*KillResult, error](out), nil
}

func (s *ClanBattleService) ListCycleAttacks(ctx context.Context, cycleKey string) ([]clanbattledomain.Attack, error) {
	return unwrap(withTelemetry(s, ctx, "ListCycleAttacks", cycleKey, func(ctx context.Context) (results.OperationResult[[]clanbattledomain.Attack, error], error) {
		attacks, err := s.repo.ListAttacksForCycle(ctx, nil, cycleKey)
		if err != nil {
			return results.OperationResult[[]clanbattledomain.Attack, error]{}, fmt.Errorf("failed to list attacks: %w", err)
		}
		return results.SuccessResult[[]clanbattledomain.Attack, error](attacks), nil
	}))
}
