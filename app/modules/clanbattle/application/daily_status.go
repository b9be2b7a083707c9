package clanbattleservice

import (
	"context"
	"fmt"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/results"
)

func (s *ClanBattleService) loadDailySnapshot(ctx context.Context, cycleKey string, dayIndex int) (clanbattledomain.DailySnapshot, error) {
	members, err := s.repo.ListActiveMembers(ctx, nil)
	if err != nil {
		return clanbattledomain.DailySnapshot{}, fmt.Errorf("failed to load members: %w", err)
	}
	attacks, err := s.repo.ListAttacksForDay(ctx, nil, cycleKey, dayIndex)
	if err != nil {
		return clanbattledomain.DailySnapshot{}, fmt.Errorf("failed to load day attacks: %w", err)
	}
	return clanbattledomain.DailySnapshot{
		CycleKey: cycleKey,
		DayIndex: dayIndex,
		Members:  members,
		Attacks:  attacks,
	}, nil
}

// BuildDailyStatus renders the per-member counters for one battle day.
func (s *ClanBattleService) BuildDailyStatus(ctx context.Context, cycleKey string, dayIndex int) (*clanbattledomain.RenderModel, error) {
	return unwrap(withTelemetry(s, ctx, "BuildDailyStatus", fmt.Sprintf("%s/%d", cycleKey, dayIndex), func(ctx context.Context) (results.OperationResult[*clanbattledomain.RenderModel, error], error) {
		snap, err := s.loadDailySnapshot(ctx, cycleKey, dayIndex)
		if err != nil {
			return results.OperationResult[*clanbattledomain.RenderModel, error]{}, err
		}
		return results.SuccessResult[*clanbattledomain.RenderModel, error](clanbattledomain.BuildDailyStatus(snap)), nil
	}))
}

// DailyCounts returns the raw counters behind BuildDailyStatus.
func (s *ClanBattleService) DailyCounts(ctx context.Context, cycleKey string, dayIndex int) ([]clanbattledomain.DailyCounts, error) {
	return unwrap(withTelemetry(s, ctx, "DailyCounts", fmt.Sprintf("%s/%d", cycleKey, dayIndex), func(ctx context.Context) (results.OperationResult[[]clanbattledomain.DailyCounts, error], error) {
		snap, err := s.loadDailySnapshot(ctx, cycleKey, dayIndex)
		if err != nil {
			return results.OperationResult[[]clanbattledomain.DailyCounts, error]{}, err
		}
		return results.SuccessResult[[]clanbattledomain.DailyCounts, error](clanbattledomain.CountDaily(snap)), nil
	}))
}

func (s *ClanBattleService) dailyBuilder(cycleKey string, dayIndex int) BuildFunc {
	return func(ctx context.Context) (*clanbattledomain.RenderModel, error) {
		snap, err := s.loadDailySnapshot(ctx, cycleKey, dayIndex)
		if err != nil {
			return nil, err
		}
		return clanbattledomain.BuildDailyStatus(snap), nil
	}
}

// EmitDailyStatus posts a fresh daily panel for the current battle day.
func (s *ClanBattleService) EmitDailyStatus(ctx context.Context, channelID string) error {
	if s.panels == nil {
		return nil
	}
	cycleKey, dayIndex := s.clock.CurrentCycleKey(), s.clock.CurrentDayIndex()
	if err := s.panels.PostNew(ctx, clanbattledomain.DailyPanel(channelID), s.dailyBuilder(cycleKey, dayIndex)); err != nil {
		return fmt.Errorf("failed to emit daily status: %w", err)
	}
	return nil
}
