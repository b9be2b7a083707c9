package clanbattleapi

import (
	"context"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattlequeue "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/queue"
)

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	trace []string

	ListBossesFunc       func(ctx context.Context, cycleKey string) ([]clanbattledomain.Boss, error)
	SetupBossFunc        func(ctx context.Context, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (*clanbattledomain.Boss, error)
	PostBossPanelFunc    func(ctx context.Context, slot int) error
	BuildPanelFunc       func(ctx context.Context, cycleKey string, slot int) (*clanbattledomain.RenderModel, error)
	BuildDailyStatusFunc func(ctx context.Context, cycleKey string, dayIndex int) (*clanbattledomain.RenderModel, error)
	DailyCountsFunc      func(ctx context.Context, cycleKey string, dayIndex int) ([]clanbattledomain.DailyCounts, error)
	ListCycleAttacksFunc func(ctx context.Context, cycleKey string) ([]clanbattledomain.Attack, error)
}

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) CurrentCycleKey() string { return "202411" }

func (f *FakeService) CurrentDayIndex() int { return 20241110 }

func (f *FakeService) TierTable() clanbattledomain.TierTable {
	return clanbattledomain.DefaultTierTable()
}

func (f *FakeService) ListBosses(ctx context.Context, cycleKey string) ([]clanbattledomain.Boss, error) {
	f.record("ListBosses " + cycleKey)
	if f.ListBossesFunc != nil {
		return f.ListBossesFunc(ctx, cycleKey)
	}
	return []clanbattledomain.Boss{}, nil
}

func (f *FakeService) SetupBoss(ctx context.Context, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (*clanbattledomain.Boss, error) {
	f.record("SetupBoss")
	if f.SetupBossFunc != nil {
		return f.SetupBossFunc(ctx, cycleKey, slot, name, maxHP)
	}
	return &clanbattledomain.Boss{CycleKey: cycleKey, Slot: slot, Name: name, MaxHP: maxHP}, nil
}

func (f *FakeService) PostBossPanel(ctx context.Context, slot int) error {
	f.record("PostBossPanel")
	if f.PostBossPanelFunc != nil {
		return f.PostBossPanelFunc(ctx, slot)
	}
	return nil
}

func (f *FakeService) BuildPanel(ctx context.Context, cycleKey string, slot int) (*clanbattledomain.RenderModel, error) {
	f.record("BuildPanel")
	if f.BuildPanelFunc != nil {
		return f.BuildPanelFunc(ctx, cycleKey, slot)
	}
	return nil, nil
}

func (f *FakeService) BuildDailyStatus(ctx context.Context, cycleKey string, dayIndex int) (*clanbattledomain.RenderModel, error) {
	f.record("BuildDailyStatus")
	if f.BuildDailyStatusFunc != nil {
		return f.BuildDailyStatusFunc(ctx, cycleKey, dayIndex)
	}
	return nil, nil
}

func (f *FakeService) DailyCounts(ctx context.Context, cycleKey string, dayIndex int) ([]clanbattledomain.DailyCounts, error) {
	f.record("DailyCounts")
	if f.DailyCountsFunc != nil {
		return f.DailyCountsFunc(ctx, cycleKey, dayIndex)
	}
	return nil, nil
}

func (f *FakeService) ListCycleAttacks(ctx context.Context, cycleKey string) ([]clanbattledomain.Attack, error) {
	f.record("ListCycleAttacks")
	if f.ListCycleAttacksFunc != nil {
		return f.ListCycleAttacksFunc(ctx, cycleKey)
	}
	return nil, nil
}

func (f *FakeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ Service = (*FakeService)(nil)

// ------------------------
// Fake Scheduler
// ------------------------

type FakeScheduler struct {
	triggered []string

	TriggerErr error
	Jobs       []clanbattlequeue.JobInfo
}

func (f *FakeScheduler) TriggerDailyStatus(ctx context.Context, channelID string) error {
	if f.TriggerErr != nil {
		return f.TriggerErr
	}
	f.triggered = append(f.triggered, channelID)
	return nil
}

func (f *FakeScheduler) GetScheduledJobs(ctx context.Context) ([]clanbattlequeue.JobInfo, error) {
	return f.Jobs, nil
}

var _ Scheduler = (*FakeScheduler)(nil)
