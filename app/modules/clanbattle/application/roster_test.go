package clanbattleservice

import (
	"context"
	"errors"
	"testing"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestClanBattleService_RegisterMember(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		memberID string
		display  string
		wantErr  error
	}{
		{name: "new member", memberID: "alice", display: " Alice "},
		{name: "blank id", memberID: "   ", display: "Nobody", wantErr: clanbattledomain.ErrUnregisteredMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepo()
			s := newTestService(t, repo, nil)

			member, err := s.RegisterMember(ctx, tt.memberID, tt.display)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NotContains(t, repo.Trace(), "UpsertMember")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Alice", member.DisplayName)
			assert.NoError(t, s.RequireMember(ctx, tt.memberID))
		})
	}
}

func TestClanBattleService_RegisterMember_Reactivates(t *testing.T) {
	ctx := context.Background()
	repo := NewFakeRepo()
	repo.SeedMember("alice", "Alice")
	_, err := repo.DeactivateMembersNotIn(ctx, nil, nil)
	require.NoError(t, err)
	s := newTestService(t, repo, nil)
	require.ErrorIs(t, s.RequireMember(ctx, "alice"), clanbattledomain.ErrUnregisteredMember)

	_, err = s.RegisterMember(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.NoError(t, s.RequireMember(ctx, "alice"))
}

func TestClanBattleService_SyncRoster(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name            string
		snapshot        []clanbattledomain.Member
		wantUpserted    int
		wantDeactivated int
		wantActive      []string
	}{
		{
			name: "adds new and deactivates departed",
			snapshot: []clanbattledomain.Member{
				{ID: "alice", DisplayName: "Alice"},
				{ID: "carol", DisplayName: "Carol"},
			},
			wantUpserted:    2,
			wantDeactivated: 1,
			wantActive:      []string{"alice", "carol"},
		},
		{
			name: "entries without id are skipped",
			snapshot: []clanbattledomain.Member{
				{ID: "alice", DisplayName: "Alice"},
				{ID: "bob", DisplayName: "Bob"},
				{DisplayName: "Ghost"},
			},
			wantUpserted: 2,
			wantActive:   []string{"alice", "bob"},
		},
		{
			name:       "empty snapshot deactivates nobody",
			wantActive: []string{"alice", "bob"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepo()
			repo.SeedMember("alice", "Alice")
			repo.SeedMember("bob", "Bob")
			s := newTestService(t, repo, nil)

			res, err := s.SyncRoster(ctx, tt.snapshot)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUpserted, res.Upserted)
			assert.Equal(t, tt.wantDeactivated, res.Deactivated)

			active, err := repo.ListActiveMembers(ctx, nil)
			require.NoError(t, err)
			var ids []string
			for _, m := range active {
				ids = append(ids, m.ID)
				if tt.wantUpserted > 0 {
					require.NotNil(t, m.SyncedAt)
					assert.True(t, m.SyncedAt.Equal(fixedNow))
				}
			}
			assert.Equal(t, tt.wantActive, ids)
		})
	}
}

func TestClanBattleService_RequireMember_InfrastructureError(t *testing.T) {
	repo := NewFakeRepo()
	repo.GetMemberFunc = func(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Member, error) {
		return nil, errors.New("pool exhausted")
	}
	s := newTestService(t, repo, nil)

	err := s.RequireMember(context.Background(), "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, clanbattledomain.ErrUnregisteredMember)
}
