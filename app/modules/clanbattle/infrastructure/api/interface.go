package clanbattleapi

import (
	"context"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattlequeue "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/queue"
)

// Service is the part of the clan battle core the HTTP API reads and drives.
type Service interface {
	CurrentCycleKey() string
	CurrentDayIndex() int
	TierTable() clanbattledomain.TierTable
	ListBosses(ctx context.Context, cycleKey string) ([]clanbattledomain.Boss, error)
	SetupBoss(ctx context.Context, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (*clanbattledomain.Boss, error)
	PostBossPanel(ctx context.Context, slot int) error
	BuildPanel(ctx context.Context, cycleKey string, slot int) (*clanbattledomain.RenderModel, error)
	BuildDailyStatus(ctx context.Context, cycleKey string, dayIndex int) (*clanbattledomain.RenderModel, error)
	DailyCounts(ctx context.Context, cycleKey string, dayIndex int) ([]clanbattledomain.DailyCounts, error)
	ListCycleAttacks(ctx context.Context, cycleKey string) ([]clanbattledomain.Attack, error)
}

// Scheduler exposes the daily status jobs.
type Scheduler interface {
	TriggerDailyStatus(ctx context.Context, channelID string) error
	GetScheduledJobs(ctx context.Context) ([]clanbattlequeue.JobInfo, error)
}

// SetupBossRequest is the body of POST /bosses. MaxHP lists one value per
// configured tier, lowest tier first.
type SetupBossRequest struct {
	Slot  int     `json:"slot"`
	Name  string  `json:"name"`
	MaxHP []int64 `json:"max_hp"`
}

// DailyResponse is the body of GET /daily.
type DailyResponse struct {
	CycleKey string                         `json:"cycle_key"`
	DayIndex int                            `json:"day_index"`
	Panel    *clanbattledomain.RenderModel  `json:"panel"`
	Counts   []clanbattledomain.DailyCounts `json:"counts"`
}

// TriggerRequest is the body of POST /daily/emit.
type TriggerRequest struct {
	ChannelID string `json:"channel_id"`
}
