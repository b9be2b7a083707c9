package clanbattledb

import (
	"context"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for clan battle persistence. Every method
// takes an optional bun.IDB so callers can run it inside their transaction.
type Repository interface {
	// --- Members ---
	GetMember(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Member, error)
	UpsertMember(ctx context.Context, db bun.IDB, member clanbattledomain.Member, syncedAt *time.Time) error
	ListActiveMembers(ctx context.Context, db bun.IDB) ([]clanbattledomain.Member, error)
	ListMembersByIDs(ctx context.Context, db bun.IDB, ids []string) ([]clanbattledomain.Member, error)
	// DeactivateMembersNotIn deactivates active members whose id is not in keep.
	DeactivateMembersNotIn(ctx context.Context, db bun.IDB, keep []string) (int, error)

	// --- Bosses ---
	UpsertBossState(ctx context.Context, db bun.IDB, boss *clanbattledomain.Boss) error
	GetBossState(ctx context.Context, db bun.IDB, cycleKey string, slot int) (*clanbattledomain.Boss, error)
	// GetBossStateForUpdate locks the row until the surrounding transaction ends.
	GetBossStateForUpdate(ctx context.Context, db bun.IDB, cycleKey string, slot int) (*clanbattledomain.Boss, error)
	ListBossStates(ctx context.Context, db bun.IDB, cycleKey string) ([]clanbattledomain.Boss, error)
	// ApplyBossDamage subtracts amount atomically, clamped at zero, and returns the new hp.
	ApplyBossDamage(ctx context.Context, db bun.IDB, cycleKey string, slot int, amount int64) (int64, error)
	UpdateBossProgress(ctx context.Context, db bun.IDB, cycleKey string, slot int, progress clanbattledomain.Progress) error

	// --- Attacks ---
	// AcquireMemberLock takes a transaction-scoped advisory lock for the member.
	AcquireMemberLock(ctx context.Context, db bun.IDB, memberID string) error
	GetActiveAttack(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Attack, error)
	InsertAttack(ctx context.Context, db bun.IDB, attack *clanbattledomain.Attack) error
	UpdateAttackDamage(ctx context.Context, db bun.IDB, attackID uuid.UUID, damage int64) error
	// FinishAttack closes an open declaration with the given status and damage.
	FinishAttack(ctx context.Context, db bun.IDB, attackID uuid.UUID, status clanbattledomain.AttackStatus, damage int64, at time.Time) error
	// KillActiveAttacks marks every open declaration on the lap as killed.
	KillActiveAttacks(ctx context.Context, db bun.IDB, cycleKey string, slot, lap int, at time.Time) ([]clanbattledomain.Attack, error)
	ListAttacksForLap(ctx context.Context, db bun.IDB, cycleKey string, slot, lap int) ([]clanbattledomain.Attack, error)
	ListAttacksForDay(ctx context.Context, db bun.IDB, cycleKey string, dayIndex int) ([]clanbattledomain.Attack, error)
	ListAttacksForCycle(ctx context.Context, db bun.IDB, cycleKey string) ([]clanbattledomain.Attack, error)

	// --- Panel refs ---
	ListPanelRefs(ctx context.Context, db bun.IDB) ([]clanbattledomain.PanelRef, error)
	UpsertPanelRef(ctx context.Context, db bun.IDB, ref clanbattledomain.PanelRef) error
}
