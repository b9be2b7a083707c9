package clanbattledb

import (
	"context"
	"fmt"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/uptrace/bun"
)

func (r *Impl) ListPanelRefs(ctx context.Context, db bun.IDB) ([]clanbattledomain.PanelRef, error) {
	db = r.resolveDB(db)
	var rows []PanelRef
	if err := db.NewSelect().Model(&rows).Order("panel_key ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("clanbattledb.ListPanelRefs: %w", err)
	}
	out := make([]clanbattledomain.PanelRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, clanbattledomain.PanelRef{
			Key:       row.PanelKey,
			ChannelID: row.ChannelID,
			MessageID: row.MessageID,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

// UpsertPanelRef overwrites any stale message id for the key.
func (r *Impl) UpsertPanelRef(ctx context.Context, db bun.IDB, ref clanbattledomain.PanelRef) error {
	db = r.resolveDB(db)
	row := &PanelRef{
		PanelKey:  ref.Key,
		ChannelID: ref.ChannelID,
		MessageID: ref.MessageID,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := db.NewInsert().
		Model(row).
		On("CONFLICT (panel_key) DO UPDATE").
		Set("channel_id = EXCLUDED.channel_id").
		Set("message_id = EXCLUDED.message_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clanbattledb.UpsertPanelRef: %w", err)
	}
	return nil
}
