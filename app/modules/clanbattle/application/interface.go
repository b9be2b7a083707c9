package clanbattleservice

import (
	"context"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
)

// Service is the clan battle core consumed by handlers, the HTTP API and
// the scheduler.
type Service interface {
	// --- Clock ---
	CurrentCycleKey() string
	CurrentDayIndex() int
	// ValidateAction rejects tokens minted for another cycle.
	ValidateAction(token clanbattledomain.ActionToken) error

	// --- Boss progression ---
	SetupBoss(ctx context.Context, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (*clanbattledomain.Boss, error)
	ApplyDamage(ctx context.Context, cycleKey string, slot int, amount int64) (int64, error)
	AdvanceLap(ctx context.Context, cycleKey string, slot int) (clanbattledomain.Progress, error)
	ListBosses(ctx context.Context, cycleKey string) ([]clanbattledomain.Boss, error)
	TierTable() clanbattledomain.TierTable

	// --- Attack lifecycle ---
	Declare(ctx context.Context, memberID string, slot int, carryOver bool) (*clanbattledomain.Attack, error)
	SubmitDamage(ctx context.Context, memberID string, raw string) (*clanbattledomain.Attack, error)
	Complete(ctx context.Context, memberID string) (*clanbattledomain.Attack, error)
	Cancel(ctx context.Context, memberID string) (*clanbattledomain.Attack, error)
	Kill(ctx context.Context, memberID string, slot, lap int) (*KillResult, error)
	ListCycleAttacks(ctx context.Context, cycleKey string) ([]clanbattledomain.Attack, error)

	// --- Roster ---
	RegisterMember(ctx context.Context, memberID, displayName string) (*clanbattledomain.Member, error)
	SyncRoster(ctx context.Context, members []clanbattledomain.Member) (*RosterSyncResult, error)
	RequireMember(ctx context.Context, memberID string) error

	// --- Panels ---
	BuildPanel(ctx context.Context, cycleKey string, slot int) (*clanbattledomain.RenderModel, error)
	BuildDailyStatus(ctx context.Context, cycleKey string, dayIndex int) (*clanbattledomain.RenderModel, error)
	DailyCounts(ctx context.Context, cycleKey string, dayIndex int) ([]clanbattledomain.DailyCounts, error)
	SyncChannel(ctx context.Context, channelID string) error
	PostBossPanel(ctx context.Context, slot int) error
	PostBossPanelInChannel(ctx context.Context, channelID string) error
	EmitDailyStatus(ctx context.Context, channelID string) error
	RestorePanelRefs(ctx context.Context) (int, error)
}

// PanelSyncer mirrors render models to the messaging surface.
type PanelSyncer interface {
	Sync(ctx context.Context, target clanbattledomain.PanelTarget, build BuildFunc) error
	PostNew(ctx context.Context, target clanbattledomain.PanelTarget, build BuildFunc) error
	Restore(ctx context.Context) (int, error)
	// Tracked reports whether a message is known for target.
	Tracked(target clanbattledomain.PanelTarget) bool
}

// BuildFunc produces the panel to post. A nil model means nothing to show.
type BuildFunc func(ctx context.Context) (*clanbattledomain.RenderModel, error)

// KillResult describes the effects of a kill.
type KillResult struct {
	Killed    []clanbattledomain.Attack `json:"killed"`
	Progress  clanbattledomain.Progress `json:"progress"`
	CarryOver *clanbattledomain.Attack  `json:"carry_over,omitempty"`
}

// RosterSyncResult counts the effects of a roster sync.
type RosterSyncResult struct {
	Upserted    int `json:"upserted"`
	Deactivated int `json:"deactivated"`
}
