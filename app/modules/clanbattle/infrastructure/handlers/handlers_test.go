package clanbattlehandlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	clanbattleservice "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/application"
	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestHandlers(svc *FakeClanBattleService, n *FakeNotifier) Handlers {
	return NewClanBattleHandlers(svc, n, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleButtonPressed(t *testing.T) {
	tests := []struct {
		name        string
		customID    string
		setup       func(*FakeClanBattleService)
		wantTrace   []string
		wantNotices []string
	}{
		{
			name:      "attack declares",
			customID:  "atk/202411/1/5",
			wantTrace: []string{"ValidateAction", "Declare"},
		},
		{
			name:      "carry-over declares with the flag",
			customID:  "over/202411/2/5",
			wantTrace: []string{"ValidateAction", "Declare carry-over"},
		},
		{
			name:      "complete",
			customID:  "comp/202411/1/5",
			wantTrace: []string{"ValidateAction", "Complete"},
		},
		{
			name:     "kill passes the clicked lap",
			customID: "beat/202411/3/9",
			setup: func(f *FakeClanBattleService) {
				f.KillFunc = func(ctx context.Context, memberID string, slot, lap int) (*clanbattleservice.KillResult, error) {
					if slot != 3 || lap != 9 {
						return nil, errors.New("wrong coordinates")
					}
					return &clanbattleservice.KillResult{}, nil
				}
			},
			wantTrace: []string{"ValidateAction", "Kill"},
		},
		{
			name:        "stale cycle is rejected before any mutation",
			customID:    "beat/202410/1/5",
			wantTrace:   []string{"ValidateAction"},
			wantNotices: []string{"That panel is out of date. Use the latest one."},
		},
		{
			name:        "malformed token",
			customID:    "beat/202411/x",
			wantTrace:   []string{},
			wantNotices: []string{"That action could not be understood."},
		},
		{
			name:     "exclusivity conflict becomes a notice",
			customID: "atk/202411/2/1",
			setup: func(f *FakeClanBattleService) {
				f.DeclareFunc = func(ctx context.Context, memberID string, slot int, carryOver bool) (*clanbattledomain.Attack, error) {
					return nil, clanbattledomain.ErrAlreadyAttacking
				}
			},
			wantTrace:   []string{"ValidateAction", "Declare"},
			wantNotices: []string{"Already attacking elsewhere, finish first."},
		},
		{
			name:     "internal error is shown generically",
			customID: "comp/202411/1/1",
			setup: func(f *FakeClanBattleService) {
				f.CompleteFunc = func(ctx context.Context, memberID string) (*clanbattledomain.Attack, error) {
					return nil, errors.New("connection refused")
				}
			},
			wantTrace:   []string{"ValidateAction", "Complete"},
			wantNotices: []string{"Something went wrong."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeClanBattleService()
			if tt.setup != nil {
				tt.setup(svc)
			}
			n := &FakeNotifier{}

			err := newTestHandlers(svc, n).HandleButtonPressed(context.Background(), &ButtonPressedPayloadV1{
				InteractionID: "ix-1",
				CustomID:      tt.customID,
				MemberID:      "alice",
				ChannelID:     "ch1",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrace, svc.Trace())
			assert.Equal(t, []string{"ix-1"}, n.deferred, "defer always comes first")

			var texts []string
			for _, no := range n.notices {
				texts = append(texts, no.Text)
				assert.Equal(t, "ix-1", no.InteractionID)
			}
			assert.Equal(t, tt.wantNotices, texts)
		})
	}
}

func TestHandleButtonPressed_DeferFailureDoesNotBlock(t *testing.T) {
	svc := NewFakeClanBattleService()
	n := &FakeNotifier{DeferErr: errors.New("nats down")}

	err := newTestHandlers(svc, n).HandleButtonPressed(context.Background(), &ButtonPressedPayloadV1{
		InteractionID: "ix-1",
		CustomID:      "atk/202411/1/1",
		MemberID:      "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ValidateAction", "Declare"}, svc.Trace())
}

func TestHandleTextReceived_Damage(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		submitErr   error
		wantTrace   []string
		wantNotices int
	}{
		{name: "digits submit damage", text: "1500", wantTrace: []string{"SubmitDamage"}},
		{name: "zero submits damage", text: "0", wantTrace: []string{"SubmitDamage"}},
		{name: "mixed text is ignored", text: "12a", wantTrace: []string{}},
		{name: "padded digits are ignored", text: " 12", wantTrace: []string{}},
		{name: "idle member is silent", text: "100", submitErr: clanbattledomain.ErrNoActiveAttack, wantTrace: []string{"SubmitDamage"}},
		{name: "unregistered member is silent", text: "100", submitErr: clanbattledomain.ErrUnregisteredMember, wantTrace: []string{"SubmitDamage"}},
		{name: "infrastructure error is reported", text: "100", submitErr: errors.New("db down"), wantTrace: []string{"SubmitDamage"}, wantNotices: 1},
		{name: "chatter is ignored", text: "good luck everyone", wantTrace: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeClanBattleService()
			svc.SubmitDamageFunc = func(ctx context.Context, memberID string, raw string) (*clanbattledomain.Attack, error) {
				return nil, tt.submitErr
			}
			n := &FakeNotifier{}

			err := newTestHandlers(svc, n).HandleTextReceived(context.Background(), &TextReceivedPayloadV1{
				MemberID:  "alice",
				ChannelID: "ch1",
				Text:      tt.text,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrace, svc.Trace())
			assert.Len(t, n.notices, tt.wantNotices)
			assert.Empty(t, n.deferred)
		})
	}
}

func TestHandleTextReceived_Commands(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		setup       func(*FakeClanBattleService)
		wantTrace   []string
		wantNotices []string
	}{
		{
			name:        "register",
			text:        "!register",
			wantTrace:   []string{"RegisterMember"},
			wantNotices: []string{"Registered as Alice."},
		},
		{
			name:        "register in japanese",
			text:        "!登録",
			wantTrace:   []string{"RegisterMember"},
			wantNotices: []string{"Registered as Alice."},
		},
		{
			name: "boss setup maps hp onto tiers and posts a panel",
			text: "!boss 2 Mad Bear 6000000,8000000,12000000",
			setup: func(f *FakeClanBattleService) {
				f.SetupBossFunc = func(ctx context.Context, cycleKey string, slot int, name string, maxHP clanbattledomain.HPTable) (*clanbattledomain.Boss, error) {
					if cycleKey != "202411" || slot != 2 || name != "Mad Bear" || maxHP[3] != 8000000 {
						return nil, errors.New("unexpected arguments")
					}
					return &clanbattledomain.Boss{Slot: slot, Name: name}, nil
				}
			},
			wantTrace:   []string{"RequireMember", "SetupBoss", "PostBossPanel"},
			wantNotices: []string{"Boss 2 set to Mad Bear."},
		},
		{
			name:        "boss setup with too few hp values",
			text:        "!boss 1 Wyvern 100,200",
			wantTrace:   []string{"RequireMember"},
			wantNotices: []string{"Usage: !boss <slot> <name> <hp>,<hp>,<hp>"},
		},
		{
			name:        "boss setup with bad slot",
			text:        "!boss one Wyvern 1,2,3",
			wantTrace:   []string{"RequireMember"},
			wantNotices: []string{"Usage: !boss <slot> <name> <hp>,<hp>,<hp>"},
		},
		{
			name: "boss list",
			text: "!bosses",
			setup: func(f *FakeClanBattleService) {
				f.ListBossesFunc = func(ctx context.Context, cycleKey string) ([]clanbattledomain.Boss, error) {
					return []clanbattledomain.Boss{{Slot: 1, Name: "Wyvern", HP: 500, MaxHP: clanbattledomain.HPTable{2: 2000}, Laps: 3, Tier: 2}}, nil
				}
			},
			wantTrace:   []string{"RequireMember", "ListBosses"},
			wantNotices: []string{"1. Wyvern 500/2000 3周目【2段階】"},
		},
		{
			name:      "panel",
			text:      "!panel",
			wantTrace: []string{"RequireMember", "PostBossPanelInChannel"},
		},
		{
			name: "panel transport failure is surfaced",
			text: "!panel",
			setup: func(f *FakeClanBattleService) {
				f.PostBossPanelInChannelFunc = func(ctx context.Context, channelID string) error {
					return clanbattledomain.ErrTransport
				}
			},
			wantTrace:   []string{"RequireMember", "PostBossPanelInChannel"},
			wantNotices: []string{"The panel could not be posted. Try again shortly."},
		},
		{
			name:      "daily",
			text:      "!daily",
			wantTrace: []string{"RequireMember", "EmitDailyStatus"},
		},
		{
			name:      "cancel",
			text:      "!cancel",
			wantTrace: []string{"RequireMember", "Cancel"},
		},
		{
			name: "commands need registration",
			text: "!panel",
			setup: func(f *FakeClanBattleService) {
				f.RequireMemberFunc = func(ctx context.Context, memberID string) error {
					return clanbattledomain.ErrUnregisteredMember
				}
			},
			wantTrace:   []string{"RequireMember"},
			wantNotices: []string{"You are not registered. Send !register first."},
		},
		{
			name:      "unknown command is ignored",
			text:      "!dance",
			wantTrace: []string{"RequireMember"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeClanBattleService()
			if tt.setup != nil {
				tt.setup(svc)
			}
			n := &FakeNotifier{}

			err := newTestHandlers(svc, n).HandleTextReceived(context.Background(), &TextReceivedPayloadV1{
				MemberID:    "alice",
				DisplayName: "Alice",
				ChannelID:   "ch1",
				Text:        tt.text,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrace, svc.Trace())

			var texts []string
			for _, no := range n.notices {
				texts = append(texts, no.Text)
				assert.Equal(t, "ch1", no.ChannelID)
				assert.Equal(t, "alice", no.MemberID)
			}
			assert.Equal(t, tt.wantNotices, texts)
		})
	}
}

func TestHandleRosterSynced(t *testing.T) {
	svc := NewFakeClanBattleService()
	var got []clanbattledomain.Member
	svc.SyncRosterFunc = func(ctx context.Context, members []clanbattledomain.Member) (*clanbattleservice.RosterSyncResult, error) {
		got = members
		return &clanbattleservice.RosterSyncResult{Upserted: len(members)}, nil
	}

	err := newTestHandlers(svc, &FakeNotifier{}).HandleRosterSynced(context.Background(), &RosterSyncedPayloadV1{
		Members: []RosterEntryV1{{MemberID: "a", DisplayName: "Alice"}, {MemberID: "b", DisplayName: "Bob"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []clanbattledomain.Member{{ID: "a", DisplayName: "Alice"}, {ID: "b", DisplayName: "Bob"}}, got)

	svc.SyncRosterFunc = func(ctx context.Context, members []clanbattledomain.Member) (*clanbattleservice.RosterSyncResult, error) {
		return nil, errors.New("db down")
	}
	assert.NoError(t, newTestHandlers(svc, &FakeNotifier{}).HandleRosterSynced(context.Background(), &RosterSyncedPayloadV1{}))
}
