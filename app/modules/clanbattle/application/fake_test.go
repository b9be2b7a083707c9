package clanbattleservice

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattledb "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Clan Battle Repo
// ------------------------

// FakeRepo records every call. Without an override each method works
// against a small in-memory store.
type FakeRepo struct {
	mu    sync.Mutex
	trace []string

	members map[string]clanbattledomain.Member
	bosses  map[string]clanbattledomain.Boss
	attacks []clanbattledomain.Attack
	refs    map[string]clanbattledomain.PanelRef

	GetMemberFunc         func(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Member, error)
	ApplyBossDamageFunc   func(ctx context.Context, db bun.IDB, cycleKey string, slot int, amount int64) (int64, error)
	InsertAttackFunc      func(ctx context.Context, db bun.IDB, attack *clanbattledomain.Attack) error
	AcquireMemberLockFunc func(ctx context.Context, db bun.IDB, memberID string) error
	ListBossStatesFunc    func(ctx context.Context, db bun.IDB, cycleKey string) ([]clanbattledomain.Boss, error)
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		trace:   []string{},
		members: map[string]clanbattledomain.Member{},
		bosses:  map[string]clanbattledomain.Boss{},
		refs:    map[string]clanbattledomain.PanelRef{},
	}
}

func (f *FakeRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func bossKey(cycleKey string, slot int) string {
	return fmt.Sprintf("%s/%d", cycleKey, slot)
}

// --- Seeding helpers ---

func (f *FakeRepo) SeedMember(id, name string) {
	f.members[id] = clanbattledomain.Member{ID: id, DisplayName: name, Active: true}
}

func (f *FakeRepo) SeedBoss(b clanbattledomain.Boss) {
	f.bosses[bossKey(b.CycleKey, b.Slot)] = b
}

func (f *FakeRepo) Boss(cycleKey string, slot int) clanbattledomain.Boss {
	return f.bosses[bossKey(cycleKey, slot)]
}

func (f *FakeRepo) Attacks() []clanbattledomain.Attack {
	out := make([]clanbattledomain.Attack, len(f.attacks))
	copy(out, f.attacks)
	return out
}

// --- Repository Interface Implementation ---

func (f *FakeRepo) GetMember(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetMember")
	if f.GetMemberFunc != nil {
		return f.GetMemberFunc(ctx, db, memberID)
	}
	m, ok := f.members[memberID]
	if !ok {
		return nil, clanbattledb.ErrNotFound
	}
	return &m, nil
}

func (f *FakeRepo) UpsertMember(ctx context.Context, db bun.IDB, member clanbattledomain.Member, syncedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertMember")
	member.Active = true
	if syncedAt == nil {
		syncedAt = f.members[member.ID].SyncedAt
	}
	member.SyncedAt = syncedAt
	f.members[member.ID] = member
	return nil
}

func (f *FakeRepo) ListActiveMembers(ctx context.Context, db bun.IDB) ([]clanbattledomain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListActiveMembers")
	var out []clanbattledomain.Member
	for _, m := range f.members {
		if m.Active {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeRepo) ListMembersByIDs(ctx context.Context, db bun.IDB, ids []string) ([]clanbattledomain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListMembersByIDs")
	var out []clanbattledomain.Member
	for _, id := range ids {
		if m, ok := f.members[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *FakeRepo) DeactivateMembersNotIn(ctx context.Context, db bun.IDB, keep []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeactivateMembersNotIn")
	kept := map[string]bool{}
	for _, id := range keep {
		kept[id] = true
	}
	n := 0
	for id, m := range f.members {
		if m.Active && !kept[id] {
			m.Active = false
			f.members[id] = m
			n++
		}
	}
	return n, nil
}

func (f *FakeRepo) UpsertBossState(ctx context.Context, db bun.IDB, boss *clanbattledomain.Boss) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertBossState")
	f.bosses[bossKey(boss.CycleKey, boss.Slot)] = *boss
	return nil
}

func (f *FakeRepo) GetBossState(ctx context.Context, db bun.IDB, cycleKey string, slot int) (*clanbattledomain.Boss, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetBossState")
	b, ok := f.bosses[bossKey(cycleKey, slot)]
	if !ok {
		return nil, clanbattledb.ErrNotFound
	}
	return &b, nil
}

func (f *FakeRepo) GetBossStateForUpdate(ctx context.Context, db bun.IDB, cycleKey string, slot int) (*clanbattledomain.Boss, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetBossStateForUpdate")
	b, ok := f.bosses[bossKey(cycleKey, slot)]
	if !ok {
		return nil, clanbattledb.ErrNotFound
	}
	return &b, nil
}

func (f *FakeRepo) ListBossStates(ctx context.Context, db bun.IDB, cycleKey string) ([]clanbattledomain.Boss, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListBossStates")
	if f.ListBossStatesFunc != nil {
		return f.ListBossStatesFunc(ctx, db, cycleKey)
	}
	var out []clanbattledomain.Boss
	for _, b := range f.bosses {
		if b.CycleKey == cycleKey {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

func (f *FakeRepo) ApplyBossDamage(ctx context.Context, db bun.IDB, cycleKey string, slot int, amount int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ApplyBossDamage")
	if f.ApplyBossDamageFunc != nil {
		return f.ApplyBossDamageFunc(ctx, db, cycleKey, slot, amount)
	}
	key := bossKey(cycleKey, slot)
	b, ok := f.bosses[key]
	if !ok {
		return 0, clanbattledb.ErrNotFound
	}
	b.HP = max(b.HP-amount, 0)
	f.bosses[key] = b
	return b.HP, nil
}

func (f *FakeRepo) UpdateBossProgress(ctx context.Context, db bun.IDB, cycleKey string, slot int, progress clanbattledomain.Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateBossProgress")
	key := bossKey(cycleKey, slot)
	b, ok := f.bosses[key]
	if !ok {
		return clanbattledb.ErrNotFound
	}
	b.Laps, b.Tier, b.HP = progress.Laps, progress.Tier, progress.HP
	f.bosses[key] = b
	return nil
}

func (f *FakeRepo) AcquireMemberLock(ctx context.Context, db bun.IDB, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AcquireMemberLock")
	if f.AcquireMemberLockFunc != nil {
		return f.AcquireMemberLockFunc(ctx, db, memberID)
	}
	return nil
}

func (f *FakeRepo) GetActiveAttack(ctx context.Context, db bun.IDB, memberID string) (*clanbattledomain.Attack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetActiveAttack")
	for _, a := range f.attacks {
		if a.MemberID == memberID && a.InProgress() {
			return &a, nil
		}
	}
	return nil, clanbattledb.ErrNotFound
}

func (f *FakeRepo) InsertAttack(ctx context.Context, db bun.IDB, attack *clanbattledomain.Attack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertAttack")
	if f.InsertAttackFunc != nil {
		return f.InsertAttackFunc(ctx, db, attack)
	}
	for _, a := range f.attacks {
		if a.MemberID == attack.MemberID && a.InProgress() {
			return clanbattledb.ErrActiveAttackExists
		}
	}
	if attack.ID == uuid.Nil {
		attack.ID = uuid.New()
	}
	f.attacks = append(f.attacks, *attack)
	return nil
}

func (f *FakeRepo) UpdateAttackDamage(ctx context.Context, db bun.IDB, attackID uuid.UUID, damage int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateAttackDamage")
	for i := range f.attacks {
		if f.attacks[i].ID == attackID && f.attacks[i].InProgress() {
			f.attacks[i].Damage = damage
			return nil
		}
	}
	return clanbattledb.ErrNoRowsAffected
}

func (f *FakeRepo) FinishAttack(ctx context.Context, db bun.IDB, attackID uuid.UUID, status clanbattledomain.AttackStatus, damage int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FinishAttack")
	for i := range f.attacks {
		if f.attacks[i].ID == attackID && f.attacks[i].InProgress() {
			f.attacks[i].Status = status
			f.attacks[i].Active = false
			f.attacks[i].Damage = damage
			f.attacks[i].CompletedAt = &at
			return nil
		}
	}
	return clanbattledb.ErrNoRowsAffected
}

func (f *FakeRepo) KillActiveAttacks(ctx context.Context, db bun.IDB, cycleKey string, slot, lap int, at time.Time) ([]clanbattledomain.Attack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("KillActiveAttacks")
	var out []clanbattledomain.Attack
	for i := range f.attacks {
		a := &f.attacks[i]
		if a.CycleKey == cycleKey && a.Slot == slot && a.LapAtStart == lap && a.InProgress() {
			a.Status = clanbattledomain.StatusKilled
			a.Active = false
			a.CompletedAt = &at
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *FakeRepo) filterAttacks(keep func(clanbattledomain.Attack) bool) []clanbattledomain.Attack {
	var out []clanbattledomain.Attack
	for _, a := range f.attacks {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (f *FakeRepo) ListAttacksForLap(ctx context.Context, db bun.IDB, cycleKey string, slot, lap int) ([]clanbattledomain.Attack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListAttacksForLap")
	return f.filterAttacks(func(a clanbattledomain.Attack) bool {
		return a.CycleKey == cycleKey && a.Slot == slot && a.LapAtStart == lap
	}), nil
}

func (f *FakeRepo) ListAttacksForDay(ctx context.Context, db bun.IDB, cycleKey string, dayIndex int) ([]clanbattledomain.Attack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListAttacksForDay")
	return f.filterAttacks(func(a clanbattledomain.Attack) bool {
		return a.CycleKey == cycleKey && a.DayIndex == dayIndex
	}), nil
}

func (f *FakeRepo) ListAttacksForCycle(ctx context.Context, db bun.IDB, cycleKey string) ([]clanbattledomain.Attack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListAttacksForCycle")
	return f.filterAttacks(func(a clanbattledomain.Attack) bool { return a.CycleKey == cycleKey }), nil
}

func (f *FakeRepo) ListPanelRefs(ctx context.Context, db bun.IDB) ([]clanbattledomain.PanelRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPanelRefs")
	var out []clanbattledomain.PanelRef
	for _, r := range f.refs {
		out = append(out, r)
	}
	return out, nil
}

func (f *FakeRepo) UpsertPanelRef(ctx context.Context, db bun.IDB, ref clanbattledomain.PanelRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertPanelRef")
	f.refs[ref.Key] = ref
	return nil
}

// --- Accessors for assertions ---

func (f *FakeRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ clanbattledb.Repository = (*FakeRepo)(nil)

// ------------------------
// Fake Panel Syncer
// ------------------------

type FakePanelSyncer struct {
	trace   []string
	tracked map[string]bool
	built   []*clanbattledomain.RenderModel

	SyncFunc    func(ctx context.Context, target clanbattledomain.PanelTarget, build BuildFunc) error
	PostNewFunc func(ctx context.Context, target clanbattledomain.PanelTarget, build BuildFunc) error
}

func NewFakePanelSyncer() *FakePanelSyncer {
	return &FakePanelSyncer{trace: []string{}, tracked: map[string]bool{}}
}

func (f *FakePanelSyncer) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePanelSyncer) Sync(ctx context.Context, target clanbattledomain.PanelTarget, build BuildFunc) error {
	f.record("Sync " + target.Key())
	if f.SyncFunc != nil {
		return f.SyncFunc(ctx, target, build)
	}
	return f.build(ctx, target, build)
}

func (f *FakePanelSyncer) PostNew(ctx context.Context, target clanbattledomain.PanelTarget, build BuildFunc) error {
	f.record("PostNew " + target.Key())
	if f.PostNewFunc != nil {
		return f.PostNewFunc(ctx, target, build)
	}
	return f.build(ctx, target, build)
}

func (f *FakePanelSyncer) build(ctx context.Context, target clanbattledomain.PanelTarget, build BuildFunc) error {
	model, err := build(ctx)
	if err != nil {
		return err
	}
	if model != nil {
		f.tracked[target.Key()] = true
		f.built = append(f.built, model)
	}
	return nil
}

func (f *FakePanelSyncer) Restore(ctx context.Context) (int, error) {
	f.record("Restore")
	return len(f.tracked), nil
}

func (f *FakePanelSyncer) Tracked(target clanbattledomain.PanelTarget) bool {
	return f.tracked[target.Key()]
}

func (f *FakePanelSyncer) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Last returns the most recently built panel.
func (f *FakePanelSyncer) Last() *clanbattledomain.RenderModel {
	if len(f.built) == 0 {
		return nil
	}
	return f.built[len(f.built)-1]
}

var _ PanelSyncer = (*FakePanelSyncer)(nil)
