package clanbattlehandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	clanbattleservice "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/application"
	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ClanBattleHandlers implements the Handlers interface.
type ClanBattleHandlers struct {
	service  clanbattleservice.Service
	notifier Notifier
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewClanBattleHandlers creates a new ClanBattleHandlers instance.
func NewClanBattleHandlers(
	service clanbattleservice.Service,
	notifier Notifier,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &ClanBattleHandlers{
		service:  service,
		notifier: notifier,
		logger:   logger,
		tracer:   tracer,
	}
}

// HandleButtonPressed defers the interaction, then runs the action the
// button token names.
func (h *ClanBattleHandlers) HandleButtonPressed(ctx context.Context, payload *ButtonPressedPayloadV1) error {
	ctx, span := h.tracer.Start(ctx, "ClanBattleHandlers.HandleButtonPressed", trace.WithAttributes(
		attribute.String("custom_id", payload.CustomID),
		attribute.String("member_id", payload.MemberID),
	))
	defer span.End()

	if err := h.notifier.Defer(ctx, payload.InteractionID); err != nil {
		h.logger.WarnContext(ctx, "Failed to defer interaction",
			observability.CorrelationID(ctx),
			slog.String("interaction_id", payload.InteractionID),
			slog.Any("error", err),
		)
	}

	token, err := clanbattledomain.ParseActionToken(payload.CustomID)
	if err != nil {
		h.reply(ctx, payload.ChannelID, payload.MemberID, payload.InteractionID, err)
		return nil
	}
	if err := h.service.ValidateAction(token); err != nil {
		h.reply(ctx, payload.ChannelID, payload.MemberID, payload.InteractionID, err)
		return nil
	}

	switch token.Action {
	case clanbattledomain.ActionAttack:
		_, err = h.service.Declare(ctx, payload.MemberID, token.Slot, false)
	case clanbattledomain.ActionCarryOver:
		_, err = h.service.Declare(ctx, payload.MemberID, token.Slot, true)
	case clanbattledomain.ActionComplete:
		_, err = h.service.Complete(ctx, payload.MemberID)
	case clanbattledomain.ActionKill:
		_, err = h.service.Kill(ctx, payload.MemberID, token.Slot, token.Lap)
	}
	if err != nil {
		h.reply(ctx, payload.ChannelID, payload.MemberID, payload.InteractionID, err)
	}
	return nil
}

// HandleTextReceived routes plain numbers to damage submission and "!"
// commands to their operations. Anything else is ignored.
func (h *ClanBattleHandlers) HandleTextReceived(ctx context.Context, payload *TextReceivedPayloadV1) error {
	ctx, span := h.tracer.Start(ctx, "ClanBattleHandlers.HandleTextReceived")
	defer span.End()

	if clanbattledomain.IsDamageText(payload.Text) {
		h.submitDamage(ctx, payload)
		return nil
	}

	fields := strings.Fields(payload.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "!") {
		return nil
	}

	cmd := fields[0]
	if cmd != "!register" && cmd != "!登録" {
		if err := h.service.RequireMember(ctx, payload.MemberID); err != nil {
			h.reply(ctx, payload.ChannelID, payload.MemberID, "", err)
			return nil
		}
	}

	var err error
	switch cmd {
	case "!register", "!登録":
		err = h.register(ctx, payload)
	case "!boss":
		err = h.setupBoss(ctx, payload, fields[1:])
	case "!bosses":
		err = h.listBosses(ctx, payload)
	case "!panel":
		err = h.service.PostBossPanelInChannel(ctx, payload.ChannelID)
	case "!daily":
		err = h.service.EmitDailyStatus(ctx, payload.ChannelID)
	case "!cancel":
		_, err = h.service.Cancel(ctx, payload.MemberID)
	default:
		return nil
	}
	if err != nil {
		h.reply(ctx, payload.ChannelID, payload.MemberID, "", err)
	}
	return nil
}

// HandleRosterSynced replaces the active roster with the gateway's snapshot.
func (h *ClanBattleHandlers) HandleRosterSynced(ctx context.Context, payload *RosterSyncedPayloadV1) error {
	ctx, span := h.tracer.Start(ctx, "ClanBattleHandlers.HandleRosterSynced")
	defer span.End()

	members := make([]clanbattledomain.Member, 0, len(payload.Members))
	for _, e := range payload.Members {
		members = append(members, clanbattledomain.Member{ID: e.MemberID, DisplayName: e.DisplayName})
	}
	if _, err := h.service.SyncRoster(ctx, members); err != nil {
		h.logger.ErrorContext(ctx, "Roster sync failed",
			observability.CorrelationID(ctx),
			slog.Int("members", len(members)),
			slog.Any("error", err),
		)
	}
	return nil
}

func (h *ClanBattleHandlers) submitDamage(ctx context.Context, payload *TextReceivedPayloadV1) {
	_, err := h.service.SubmitDamage(ctx, payload.MemberID, payload.Text)
	switch {
	case err == nil:
	case errors.Is(err, clanbattledomain.ErrNoActiveAttack), errors.Is(err, clanbattledomain.ErrUnregisteredMember):
		// Numbers are ordinary chat for anyone not mid-attack.
		h.logger.DebugContext(ctx, "Ignoring damage text",
			slog.String("member_id", payload.MemberID),
			slog.Any("reason", err),
		)
	default:
		h.reply(ctx, payload.ChannelID, payload.MemberID, "", err)
	}
}

func (h *ClanBattleHandlers) register(ctx context.Context, payload *TextReceivedPayloadV1) error {
	member, err := h.service.RegisterMember(ctx, payload.MemberID, payload.DisplayName)
	if err != nil {
		return err
	}
	h.notify(ctx, payload.ChannelID, payload.MemberID, "", fmt.Sprintf("Registered as %s.", member.Name()))
	return nil
}

// setupBoss parses "<slot> <name...> <hp>,<hp>,..." and posts a fresh panel.
func (h *ClanBattleHandlers) setupBoss(ctx context.Context, payload *TextReceivedPayloadV1, args []string) error {
	if len(args) < 3 {
		return clanbattledomain.ErrInvalidBossSetup
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 1 {
		return fmt.Errorf("%w: bad slot %q", clanbattledomain.ErrInvalidBossSetup, args[0])
	}
	name := strings.Join(args[1:len(args)-1], " ")

	parts := strings.Split(args[len(args)-1], ",")
	values := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := clanbattledomain.ParseDamage(p)
		if err != nil {
			return fmt.Errorf("%w: bad hp %q", clanbattledomain.ErrInvalidBossSetup, p)
		}
		values = append(values, v)
	}
	hp, err := h.service.TierTable().HPTableFromList(values)
	if err != nil {
		return err
	}

	boss, err := h.service.SetupBoss(ctx, h.service.CurrentCycleKey(), slot, name, hp)
	if err != nil {
		return err
	}
	h.notify(ctx, payload.ChannelID, payload.MemberID, "", fmt.Sprintf("Boss %d set to %s.", boss.Slot, boss.Name))
	if err := h.service.PostBossPanel(ctx, slot); err != nil {
		h.logger.WarnContext(ctx, "Boss panel post after setup failed",
			observability.CorrelationID(ctx),
			slog.Int("slot", slot),
			slog.Any("error", err),
		)
	}
	return nil
}

func (h *ClanBattleHandlers) listBosses(ctx context.Context, payload *TextReceivedPayloadV1) error {
	bosses, err := h.service.ListBosses(ctx, h.service.CurrentCycleKey())
	if err != nil {
		return err
	}
	if len(bosses) == 0 {
		h.notify(ctx, payload.ChannelID, payload.MemberID, "", "No bosses are set up for this cycle.")
		return nil
	}
	lines := make([]string, 0, len(bosses))
	for _, b := range bosses {
		lines = append(lines, fmt.Sprintf("%d. %s %d/%d %d周目【%d段階】", b.Slot, b.Name, b.HP, b.CurrentMax(), b.Laps, b.Tier))
	}
	h.notify(ctx, payload.ChannelID, payload.MemberID, "", strings.Join(lines, "\n"))
	return nil
}

// reply turns an operation error into a notice. Internal errors are logged
// in full and shown generically.
func (h *ClanBattleHandlers) reply(ctx context.Context, channelID, memberID, interactionID string, err error) {
	kind := clanbattledomain.Classify(err)
	if kind == clanbattledomain.KindInternal {
		h.logger.ErrorContext(ctx, "Clan battle action failed",
			observability.CorrelationID(ctx),
			slog.String("member_id", memberID),
			slog.Any("error", err),
		)
	} else {
		h.logger.InfoContext(ctx, "Clan battle action rejected",
			observability.CorrelationID(ctx),
			slog.String("member_id", memberID),
			slog.String("kind", kind.String()),
			slog.Any("error", err),
		)
	}
	h.notify(ctx, channelID, memberID, interactionID, clanbattledomain.UserMessage(err))
}

func (h *ClanBattleHandlers) notify(ctx context.Context, channelID, memberID, interactionID, text string) {
	if err := h.notifier.Notify(ctx, channelID, memberID, interactionID, text); err != nil {
		h.logger.WarnContext(ctx, "Failed to send notice",
			observability.CorrelationID(ctx),
			slog.String("member_id", memberID),
			slog.Any("error", err),
		)
	}
}
