package clanbattledb

import (
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Member is a roster row. Rows are deactivated, never deleted.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID          string     `bun:"id,pk,type:varchar(32)"`
	DisplayName string     `bun:"display_name,notnull"`
	Active      bool       `bun:"active,notnull,default:true"`
	SyncedAt    *time.Time `bun:"synced_at,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// BossState is the live row for one (cycle, slot).
type BossState struct {
	bun.BaseModel `bun:"table:boss_states,alias:b"`

	CycleKey    string                   `bun:"cycle_key,pk,type:varchar(6)"`
	Slot        int                      `bun:"slot,pk"`
	Name        string                   `bun:"name,notnull"`
	CurrentHP   int64                    `bun:"current_hp,notnull"`
	MaxHPByTier clanbattledomain.HPTable `bun:"max_hp_by_tier,type:jsonb,notnull"`
	Laps        int                      `bun:"laps,notnull,default:1"`
	Tier        int                      `bun:"tier,notnull"`
	CreatedAt   time.Time                `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time                `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// AttackRecord is append-mostly: only damage, status, active and
// completed_at change after insert.
type AttackRecord struct {
	bun.BaseModel `bun:"table:attack_records,alias:a"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	CycleKey    string     `bun:"cycle_key,notnull,type:varchar(6)"`
	DayIndex    int        `bun:"day_index,notnull"`
	MemberID    string     `bun:"member_id,notnull,type:varchar(32)"`
	BossSlot    int        `bun:"boss_slot,notnull"`
	LapAtStart  int        `bun:"lap_at_start,notnull"`
	TierAtStart int        `bun:"tier_at_start,notnull"`
	CarryOver   bool       `bun:"carry_over,notnull,default:false"`
	Active      bool       `bun:"active,notnull,default:true"`
	Damage      int64      `bun:"damage,notnull,default:0"`
	Status      string     `bun:"status,notnull,type:varchar(16)"`
	DeclaredAt  time.Time  `bun:"declared_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`
}

// PanelRef remembers the last message posted for a panel key.
type PanelRef struct {
	bun.BaseModel `bun:"table:panel_refs,alias:p"`

	PanelKey  string    `bun:"panel_key,pk,type:varchar(64)"`
	ChannelID string    `bun:"channel_id,notnull,type:varchar(32)"`
	MessageID string    `bun:"message_id,notnull,type:varchar(32)"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (m *Member) toDomain() clanbattledomain.Member {
	return clanbattledomain.Member{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Active:      m.Active,
		SyncedAt:    m.SyncedAt,
	}
}

func (b *BossState) toDomain() *clanbattledomain.Boss {
	return &clanbattledomain.Boss{
		CycleKey:  b.CycleKey,
		Slot:      b.Slot,
		Name:      b.Name,
		HP:        b.CurrentHP,
		MaxHP:     b.MaxHPByTier,
		Laps:      b.Laps,
		Tier:      b.Tier,
		UpdatedAt: b.UpdatedAt,
	}
}

func bossFromDomain(b *clanbattledomain.Boss) *BossState {
	return &BossState{
		CycleKey:    b.CycleKey,
		Slot:        b.Slot,
		Name:        b.Name,
		CurrentHP:   b.HP,
		MaxHPByTier: b.MaxHP,
		Laps:        b.Laps,
		Tier:        b.Tier,
	}
}

func (a *AttackRecord) toDomain() clanbattledomain.Attack {
	return clanbattledomain.Attack{
		ID:          a.ID,
		CycleKey:    a.CycleKey,
		DayIndex:    a.DayIndex,
		MemberID:    a.MemberID,
		Slot:        a.BossSlot,
		LapAtStart:  a.LapAtStart,
		TierAtStart: a.TierAtStart,
		CarryOver:   a.CarryOver,
		Active:      a.Active,
		Damage:      a.Damage,
		Status:      clanbattledomain.AttackStatus(a.Status),
		DeclaredAt:  a.DeclaredAt,
		CompletedAt: a.CompletedAt,
	}
}

func attackFromDomain(a *clanbattledomain.Attack) *AttackRecord {
	return &AttackRecord{
		ID:          a.ID,
		CycleKey:    a.CycleKey,
		DayIndex:    a.DayIndex,
		MemberID:    a.MemberID,
		BossSlot:    a.Slot,
		LapAtStart:  a.LapAtStart,
		TierAtStart: a.TierAtStart,
		CarryOver:   a.CarryOver,
		Active:      a.Active,
		Damage:      a.Damage,
		Status:      string(a.Status),
		DeclaredAt:  a.DeclaredAt,
		CompletedAt: a.CompletedAt,
	}
}

func attacksToDomain(records []AttackRecord) []clanbattledomain.Attack {
	out := make([]clanbattledomain.Attack, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out
}
