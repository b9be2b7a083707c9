package clanbattleservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattledb "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/results"
)

// BuildPanel loads the boss snapshot and renders it. It returns nil when the
// slot has no boss for the cycle.
func (s *ClanBattleService) BuildPanel(ctx context.Context, cycleKey string, slot int) (*clanbattledomain.RenderModel, error) {
	return unwrap(withTelemetry(s, ctx, "BuildPanel", fmt.Sprintf("%s/%d", cycleKey, slot), func(ctx context.Context) (results.OperationResult[*clanbattledomain.RenderModel, error], error) {
		panel, err := s.buildPanelLogic(ctx, cycleKey, slot)
		if err != nil {
			return results.OperationResult[*clanbattledomain.RenderModel, error]{}, err
		}
		return results.SuccessResult[*clanbattledomain.RenderModel, error](panel), nil
	}))
}

func (s *ClanBattleService) buildPanelLogic(ctx context.Context, cycleKey string, slot int) (*clanbattledomain.RenderModel, error) {
	boss, err := s.repo.GetBossState(ctx, nil, cycleKey, slot)
	if err != nil {
		if errors.Is(err, clanbattledb.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load boss: %w", err)
	}
	attacks, err := s.repo.ListAttacksForLap(ctx, nil, cycleKey, slot, boss.Laps)
	if err != nil {
		return nil, fmt.Errorf("failed to load lap attacks: %w", err)
	}

	ids := make([]string, 0, len(attacks))
	for _, a := range attacks {
		ids = append(ids, a.MemberID)
	}
	members, err := s.repo.ListMembersByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load member names: %w", err)
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name()
	}

	return clanbattledomain.BuildBossPanel(clanbattledomain.PanelSnapshot{
		Boss:    *boss,
		Attacks: attacks,
		Names:   names,
	}), nil
}

func (s *ClanBattleService) bossBuilder(cycleKey string, slot int) BuildFunc {
	return func(ctx context.Context) (*clanbattledomain.RenderModel, error) {
		return s.buildPanelLogic(ctx, cycleKey, slot)
	}
}

// SyncChannel refreshes the boss panel bound to channelID in place.
func (s *ClanBattleService) SyncChannel(ctx context.Context, channelID string) error {
	slot, ok := s.channels.SlotForChannel(channelID)
	if !ok {
		return fmt.Errorf("%w: no boss bound to channel %s", clanbattledomain.ErrUnknownBoss, channelID)
	}
	if s.panels == nil {
		return nil
	}
	return s.panels.Sync(ctx, clanbattledomain.BossPanel(channelID), s.bossBuilder(s.clock.CurrentCycleKey(), slot))
}

// PostBossPanel posts a fresh boss panel for slot, replacing the tracked one.
func (s *ClanBattleService) PostBossPanel(ctx context.Context, slot int) error {
	channelID, ok := s.channels.ChannelForSlot(slot)
	if !ok {
		return fmt.Errorf("%w: slot %d has no channel", clanbattledomain.ErrUnknownBoss, slot)
	}
	if s.panels == nil {
		return nil
	}
	return s.panels.PostNew(ctx, clanbattledomain.BossPanel(channelID), s.bossBuilder(s.clock.CurrentCycleKey(), slot))
}

// PostBossPanelInChannel posts a fresh panel for the boss bound to channelID.
func (s *ClanBattleService) PostBossPanelInChannel(ctx context.Context, channelID string) error {
	slot, ok := s.channels.SlotForChannel(channelID)
	if !ok {
		return fmt.Errorf("%w: no boss bound to channel %s", clanbattledomain.ErrUnknownBoss, channelID)
	}
	return s.PostBossPanel(ctx, slot)
}

// RestorePanelRefs warms the panel cache from persisted refs.
func (s *ClanBattleService) RestorePanelRefs(ctx context.Context) (int, error) {
	if s.panels == nil {
		return 0, nil
	}
	n, err := s.panels.Restore(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to restore panel refs: %w", err)
	}
	s.logger.InfoContext(ctx, "Panel refs restored", slog.Int("count", n))
	return n, nil
}

// refreshBossPanel and the helpers below run after a committed mutation.
// State is already durable, so failures are only logged.
func (s *ClanBattleService) refreshBossPanel(ctx context.Context, slot int) {
	channelID, ok := s.channels.ChannelForSlot(slot)
	if !ok || s.panels == nil {
		return
	}
	if err := s.panels.Sync(ctx, clanbattledomain.BossPanel(channelID), s.bossBuilder(s.clock.CurrentCycleKey(), slot)); err != nil {
		s.logger.WarnContext(ctx, "Boss panel refresh failed",
			slog.Int("slot", slot),
			slog.String("channel_id", channelID),
			slog.Any("error", err),
		)
	}
}

func (s *ClanBattleService) postBossPanel(ctx context.Context, slot int) {
	if _, ok := s.channels.ChannelForSlot(slot); !ok || s.panels == nil {
		return
	}
	if err := s.PostBossPanel(ctx, slot); err != nil {
		s.logger.WarnContext(ctx, "Boss panel post failed", slog.Int("slot", slot), slog.Any("error", err))
	}
}

func (s *ClanBattleService) refreshDailyPanels(ctx context.Context) {
	if s.panels == nil {
		return
	}
	for _, channelID := range s.channels.DailyChannels {
		target := clanbattledomain.DailyPanel(channelID)
		if !s.panels.Tracked(target) {
			continue
		}
		if err := s.panels.Sync(ctx, target, s.dailyBuilder(s.clock.CurrentCycleKey(), s.clock.CurrentDayIndex())); err != nil {
			s.logger.WarnContext(ctx, "Daily panel refresh failed",
				slog.String("channel_id", channelID),
				slog.Any("error", err),
			)
		}
	}
}
