package clanbattleservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattledb "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/results"
	"github.com/uptrace/bun"
)

// RegisterMember upserts the member and reactivates it.
func (s *ClanBattleService) RegisterMember(ctx context.Context, memberID, displayName string) (*clanbattledomain.Member, error) {
	return unwrap(withTelemetry(s, ctx, "RegisterMember", memberID, func(ctx context.Context) (results.OperationResult[*clanbattledomain.Member, error], error) {
		memberID = strings.TrimSpace(memberID)
		if memberID == "" {
			return results.FailureResult[*clanbattledomain.Member, error](clanbattledomain.ErrUnregisteredMember), nil
		}
		member := clanbattledomain.Member{ID: memberID, DisplayName: strings.TrimSpace(displayName), Active: true}
		if err := s.repo.UpsertMember(ctx, nil, member, nil); err != nil {
			return results.OperationResult[*clanbattledomain.Member, error]{}, fmt.Errorf("failed to register member: %w", err)
		}
		return results.SuccessResult[*clanbattledomain.Member, error](&member), nil
	}))
}

// SyncRoster makes the roster match members: everyone listed is upserted
// as active and everyone else is deactivated. An empty snapshot deactivates
// nobody.
func (s *ClanBattleService) SyncRoster(ctx context.Context, members []clanbattledomain.Member) (*RosterSyncResult, error) {
	return unwrap(withTelemetry(s, ctx, "SyncRoster", fmt.Sprintf("%d members", len(members)), func(ctx context.Context) (results.OperationResult[*RosterSyncResult, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*RosterSyncResult, error], error) {
			return s.syncRosterLogic(ctx, db, members)
		})
	}))
}

func (s *ClanBattleService) syncRosterLogic(ctx context.Context, db bun.IDB, members []clanbattledomain.Member) (results.OperationResult[*RosterSyncResult, error], error) {
	out := &RosterSyncResult{}
	if len(members) == 0 {
		s.logger.WarnContext(ctx, "Ignoring empty roster snapshot")
		return results.SuccessResult[*RosterSyncResult, error](out), nil
	}

	now := s.clock.Now().UTC()
	keep := make([]string, 0, len(members))
	for _, m := range members {
		if m.ID == "" {
			continue
		}
		if err := s.repo.UpsertMember(ctx, db, m, &now); err != nil {
			return results.OperationResult[*RosterSyncResult, error]{}, fmt.Errorf("failed to sync member %s: %w", m.ID, err)
		}
		keep = append(keep, m.ID)
		out.Upserted++
	}

	n, err := s.repo.DeactivateMembersNotIn(ctx, db, keep)
	if err != nil {
		return results.OperationResult[*RosterSyncResult, error]{}, fmt.Errorf("failed to deactivate departed members: %w", err)
	}
	out.Deactivated = n
	s.logger.InfoContext(ctx, "Roster synced",
		slog.Int("upserted", out.Upserted),
		slog.Int("deactivated", out.Deactivated),
	)
	return results.SuccessResult[*RosterSyncResult, error](out), nil
}

// RequireMember returns ErrUnregisteredMember unless memberID is an active member.
func (s *ClanBattleService) RequireMember(ctx context.Context, memberID string) error {
	failure, err := s.checkMember(ctx, nil, memberID)
	if err != nil {
		return err
	}
	return failure
}

// checkMember separates the domain failure from infrastructure errors.
func (s *ClanBattleService) checkMember(ctx context.Context, db bun.IDB, memberID string) (failure error, err error) {
	member, err := s.repo.GetMember(ctx, db, memberID)
	if err != nil {
		if errors.Is(err, clanbattledb.ErrNotFound) {
			return clanbattledomain.ErrUnregisteredMember, nil
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if !member.Active {
		return clanbattledomain.ErrUnregisteredMember, nil
	}
	return nil, nil
}

func (s *ClanBattleService) now() time.Time {
	return s.clock.Now().UTC()
}
