package clanbattledomain

import (
	"time"

	"github.com/google/uuid"
)

type Member struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Active      bool       `json:"active"`
	SyncedAt    *time.Time `json:"synced_at,omitempty"`
}

// Name falls back to the external id when no display name is known.
func (m Member) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ID
}

// Boss is the live state of one slot within a cycle.
type Boss struct {
	CycleKey  string    `json:"cycle_key"`
	Slot      int       `json:"slot"`
	Name      string    `json:"name"`
	HP        int64     `json:"hp"`
	MaxHP     HPTable   `json:"max_hp"`
	Laps      int       `json:"laps"`
	Tier      int       `json:"tier"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b Boss) Progress() Progress {
	return Progress{Laps: b.Laps, Tier: b.Tier, HP: b.HP}
}

func (b Boss) CurrentMax() int64 {
	return b.MaxHP.MaxFor(b.Tier)
}

type AttackStatus string

const (
	StatusDeclared  AttackStatus = "declared"
	StatusCompleted AttackStatus = "completed"
	StatusKilled    AttackStatus = "killed"
)

// Attack is one member's declaration against a boss lap.
type Attack struct {
	ID          uuid.UUID    `json:"id"`
	CycleKey    string       `json:"cycle_key"`
	DayIndex    int          `json:"day_index"`
	MemberID    string       `json:"member_id"`
	Slot        int          `json:"slot"`
	LapAtStart  int          `json:"lap_at_start"`
	TierAtStart int          `json:"tier_at_start"`
	CarryOver   bool         `json:"carry_over"`
	Active      bool         `json:"active"`
	Damage      int64        `json:"damage"`
	Status      AttackStatus `json:"status"`
	DeclaredAt  time.Time    `json:"declared_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// InProgress is an open declaration.
func (a Attack) InProgress() bool {
	return a.Active && a.Status == StatusDeclared
}

// Finished covers both completed and killed attacks.
func (a Attack) Finished() bool {
	return a.Status == StatusCompleted || a.Status == StatusKilled
}

// PanelKind distinguishes the two panels a channel can carry.
type PanelKind string

const (
	PanelBoss  PanelKind = "boss"
	PanelDaily PanelKind = "daily"
)

// PanelTarget identifies one tracked panel message.
type PanelTarget struct {
	Kind      PanelKind
	ChannelID string
}

func BossPanel(channelID string) PanelTarget  { return PanelTarget{Kind: PanelBoss, ChannelID: channelID} }
func DailyPanel(channelID string) PanelTarget { return PanelTarget{Kind: PanelDaily, ChannelID: channelID} }

// Key is the persisted panel key, e.g. "boss:123".
func (p PanelTarget) Key() string {
	return string(p.Kind) + ":" + p.ChannelID
}

// PanelRef is the last known message for a panel key.
type PanelRef struct {
	Key       string
	ChannelID string
	MessageID string
	UpdatedAt time.Time
}
