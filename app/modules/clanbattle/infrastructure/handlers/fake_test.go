package clanbattlehandlers

import (
	"context"

	clanbattleservice "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/application"
	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
)

// ------------------------
// Fake Clan Battle Service
// ------------------------

type FakeClanBattleService struct {
	trace []string

	CycleKey string

	ValidateActionFunc         func(token clanbattledomain.ActionToken) error
	SetupBossFunc              func(ctx context.Context, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (*clanbattledomain.Boss, error)
	ListBossesFunc             func(ctx context.Context, cycleKey string) ([]clanbattledomain.Boss, error)
	DeclareFunc                func(ctx context.Context, memberID string, slot int, carryOver bool) (*clanbattledomain.Attack, error)
	SubmitDamageFunc           func(ctx context.Context, memberID string, raw string) (*clanbattledomain.Attack, error)
	CompleteFunc               func(ctx context.Context, memberID string) (*clanbattledomain.Attack, error)
	CancelFunc                 func(ctx context.Context, memberID string) (*clanbattledomain.Attack, error)
	KillFunc                   func(ctx context.Context, memberID string, slot, lap int) (*clanbattleservice.KillResult, error)
	RegisterMemberFunc         func(ctx context.Context, memberID, displayName string) (*clanbattledomain.Member, error)
	SyncRosterFunc             func(ctx context.Context, members []clanbattledomain.Member) (*clanbattleservice.RosterSyncResult, error)
	RequireMemberFunc          func(ctx context.Context, memberID string) error
	PostBossPanelFunc          func(ctx context.Context, slot int) error
	PostBossPanelInChannelFunc func(ctx context.Context, channelID string) error
	EmitDailyStatusFunc        func(ctx context.Context, channelID string) error
}

func NewFakeClanBattleService() *FakeClanBattleService {
	return &FakeClanBattleService{trace: []string{}, CycleKey: "202411"}
}

func (f *FakeClanBattleService) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Service Interface Implementation ---

func (f *FakeClanBattleService) CurrentCycleKey() string { return f.CycleKey }

func (f *FakeClanBattleService) CurrentDayIndex() int { return 20241110 }

func (f *FakeClanBattleService) ValidateAction(token clanbattledomain.ActionToken) error {
	f.record("ValidateAction")
	if f.ValidateActionFunc != nil {
		return f.ValidateActionFunc(token)
	}
	if token.CycleKey != f.CycleKey {
		return clanbattledomain.ErrStaleAction
	}
	return nil
}

func (f *FakeClanBattleService) SetupBoss(ctx context.Context, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (*clanbattledomain.Boss, error) {
	f.record("SetupBoss")
	if f.SetupBossFunc != nil {
		return f.SetupBossFunc(ctx, cycleKey, slot, name, maxHP)
	}
	return &clanbattledomain.Boss{CycleKey: cycleKey, Slot: slot, Name: name, MaxHP: maxHP}, nil
}

func (f *FakeClanBattleService) ApplyDamage(ctx context.Context, cycleKey string, slot int, amount int64) (int64, error) {
	f.record("ApplyDamage")
	return 0, nil
}

func (f *FakeClanBattleService) AdvanceLap(ctx context.Context, cycleKey string, slot int) (clanbattledomain.Progress, error) {
	f.record("AdvanceLap")
	return clanbattledomain.Progress{}, nil
}

func (f *FakeClanBattleService) ListBosses(ctx context.Context, cycleKey string) ([]clanbattledomain.Boss, error) {
	f.record("ListBosses")
	if f.ListBossesFunc != nil {
		return f.ListBossesFunc(ctx, cycleKey)
	}
	return nil, nil
}

func (f *FakeClanBattleService) TierTable() clanbattledomain.TierTable {
	return clanbattledomain.DefaultTierTable()
}

func (f *FakeClanBattleService) Declare(ctx context.Context, memberID string, slot int, carryOver bool) (*clanbattledomain.Attack, error) {
	if carryOver {
		f.record("Declare carry-over")
	} else {
		f.record("Declare")
	}
	if f.DeclareFunc != nil {
		return f.DeclareFunc(ctx, memberID, slot, carryOver)
	}
	return &clanbattledomain.Attack{MemberID: memberID, Slot: slot, CarryOver: carryOver}, nil
}

func (f *FakeClanBattleService) SubmitDamage(ctx context.Context, memberID string, raw string) (*clanbattledomain.Attack, error) {
	f.record("SubmitDamage")
	if f.SubmitDamageFunc != nil {
		return f.SubmitDamageFunc(ctx, memberID, raw)
	}
	return &clanbattledomain.Attack{MemberID: memberID}, nil
}

func (f *FakeClanBattleService) Complete(ctx context.Context, memberID string) (*clanbattledomain.Attack, error) {
	f.record("Complete")
	if f.CompleteFunc != nil {
		return f.CompleteFunc(ctx, memberID)
	}
	return &clanbattledomain.Attack{MemberID: memberID}, nil
}

func (f *FakeClanBattleService) Cancel(ctx context.Context, memberID string) (*clanbattledomain.Attack, error) {
	f.record("Cancel")
	if f.CancelFunc != nil {
		return f.CancelFunc(ctx, memberID)
	}
	return &clanbattledomain.Attack{MemberID: memberID}, nil
}

func (f *FakeClanBattleService) Kill(ctx context.Context, memberID string, slot, lap int) (*clanbattleservice.KillResult, error) {
	f.record("Kill")
	if f.KillFunc != nil {
		return f.KillFunc(ctx, memberID, slot, lap)
	}
	return &clanbattleservice.KillResult{}, nil
}

func (f *FakeClanBattleService) ListCycleAttacks(ctx context.Context, cycleKey string) ([]clanbattledomain.Attack, error) {
	f.record("ListCycleAttacks")
	return nil, nil
}

func (f *FakeClanBattleService) RegisterMember(ctx context.Context, memberID, displayName string) (*clanbattledomain.Member, error) {
	f.record("RegisterMember")
	if f.RegisterMemberFunc != nil {
		return f.RegisterMemberFunc(ctx, memberID, displayName)
	}
	return &clanbattledomain.Member{ID: memberID, DisplayName: displayName, Active: true}, nil
}

func (f *FakeClanBattleService) SyncRoster(ctx context.Context, members []clanbattledomain.Member) (*clanbattleservice.RosterSyncResult, error) {
	f.record("SyncRoster")
	if f.SyncRosterFunc != nil {
		return f.SyncRosterFunc(ctx, members)
	}
	return &clanbattleservice.RosterSyncResult{Upserted: len(members)}, nil
}

func (f *FakeClanBattleService) RequireMember(ctx context.Context, memberID string) error {
	f.record("RequireMember")
	if f.RequireMemberFunc != nil {
		return f.RequireMemberFunc(ctx, memberID)
	}
	return nil
}

func (f *FakeClanBattleService) BuildPanel(ctx context.Context, cycleKey string, slot int) (*clanbattledomain.RenderModel, error) {
	f.record("BuildPanel")
	return nil, nil
}

func (f *FakeClanBattleService) BuildDailyStatus(ctx context.Context, cycleKey string, dayIndex int) (*clanbattledomain.RenderModel, error) {
	f.record("BuildDailyStatus")
	return nil, nil
}

func (f *FakeClanBattleService) DailyCounts(ctx context.Context, cycleKey string, dayIndex int) ([]clanbattledomain.DailyCounts, error) {
	f.record("DailyCounts")
	return nil, nil
}

func (f *FakeClanBattleService) SyncChannel(ctx context.Context, channelID string) error {
	f.record("SyncChannel")
	return nil
}

func (f *FakeClanBattleService) PostBossPanel(ctx context.Context, slot int) error {
	f.record("PostBossPanel")
	if f.PostBossPanelFunc != nil {
		return f.PostBossPanelFunc(ctx, slot)
	}
	return nil
}

func (f *FakeClanBattleService) PostBossPanelInChannel(ctx context.Context, channelID string) error {
	f.record("PostBossPanelInChannel")
	if f.PostBossPanelInChannelFunc != nil {
		return f.PostBossPanelInChannelFunc(ctx, channelID)
	}
	return nil
}

func (f *FakeClanBattleService) EmitDailyStatus(ctx context.Context, channelID string) error {
	f.record("EmitDailyStatus")
	if f.EmitDailyStatusFunc != nil {
		return f.EmitDailyStatusFunc(ctx, channelID)
	}
	return nil
}

func (f *FakeClanBattleService) RestorePanelRefs(ctx context.Context) (int, error) {
	f.record("RestorePanelRefs")
	return 0, nil
}

// --- Accessors for assertions ---

func (f *FakeClanBattleService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ clanbattleservice.Service = (*FakeClanBattleService)(nil)

// ------------------------
// Fake Notifier
// ------------------------

type notice struct {
	ChannelID     string
	MemberID      string
	InteractionID string
	Text          string
}

type FakeNotifier struct {
	deferred []string
	notices  []notice

	DeferErr error
}

func (f *FakeNotifier) Defer(ctx context.Context, interactionID string) error {
	f.deferred = append(f.deferred, interactionID)
	return f.DeferErr
}

func (f *FakeNotifier) Notify(ctx context.Context, channelID, memberID, interactionID, text string) error {
	f.notices = append(f.notices, notice{channelID, memberID, interactionID, text})
	return nil
}

var _ Notifier = (*FakeNotifier)(nil)
