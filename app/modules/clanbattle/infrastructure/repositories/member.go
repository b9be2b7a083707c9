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

func (r *Impl) GetMember(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Member, error) {
	db = r.resolveDB(db)
	row := new(Member)
	err := db.NewSelect().
		Model(row).
		Where("id = ?", memberID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clanbattledb.GetMember: %w", err)
	}
	m := row.toDomain()
	return &m, nil
}

// UpsertMember inserts or refreshes a member and marks it active. A nil
// syncedAt keeps the previous sync timestamp.
func (r *Impl) UpsertMember(ctx context.Context, db bun.IDB, member clanbattledomain.Member, syncedAt *time.Time) error {
	db = r.resolveDB(db)
	row := &Member{
		ID:          member.ID,
		DisplayName: member.DisplayName,
		Active:      true,
		SyncedAt:    syncedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	_, err := db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("active = TRUE").
		Set("synced_at = COALESCE(EXCLUDED.synced_at, m.synced_at)").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clanbattledb.UpsertMember: %w", err)
	}
	return nil
}

func (r *Impl) ListActiveMembers(ctx context.Context, db bun.IDB) ([]clanbattledomain.Member, error) {
	db = r.resolveDB(db)
	var rows []Member
	err := db.NewSelect().
		Model(&rows).
		Where("active = TRUE").
		Order("display_name ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("clanbattledb.ListActiveMembers: %w", err)
	}
	return membersToDomain(rows), nil
}

func (r *Impl) ListMembersByIDs(ctx context.Context, db bun.IDB, ids []string) ([]clanbattledomain.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var rows []Member
	err := db.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("clanbattledb.ListMembersByIDs: %w", err)
	}
	return membersToDomain(rows), nil
}

func (r *Impl) DeactivateMembersNotIn(ctx context.Context, db bun.IDB, keep []string) (int, error) {
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*Member)(nil)).
		Set("active = FALSE").
		Set("updated_at = ?", time.Now().UTC()).
		Where("active = TRUE")
	if len(keep) > 0 {
		q = q.Where("id NOT IN (?)", bun.In(keep))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("clanbattledb.DeactivateMembersNotIn: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clanbattledb.DeactivateMembersNotIn: %w", err)
	}
	return int(n), nil
}

func membersToDomain(rows []Member) []clanbattledomain.Member {
	out := make([]clanbattledomain.Member, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}
