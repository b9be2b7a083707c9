package clanbattlerouter

import (
	"context"
	"encoding/json"
	"log/slog"

	clanbattlehandlers "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/handlers"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ClanBattleRouter handles Watermill handler registration for clan battle events.
type ClanBattleRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	tracer     trace.Tracer
}

// NewClanBattleRouter creates a new ClanBattleRouter.
func NewClanBattleRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	tracer trace.Tracer,
) *ClanBattleRouter {
	return &ClanBattleRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *ClanBattleRouter) Configure(_ context.Context, handlers clanbattlehandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandlers wires NATS topics to handler methods.
func (r *ClanBattleRouter) registerHandlers(handlers clanbattlehandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	r.logger.Info("Registering clan battle module handlers",
		slog.String("button_subject", clanbattlehandlers.ButtonPressedV1),
		slog.String("text_subject", clanbattlehandlers.TextReceivedV1),
		slog.String("roster_subject", clanbattlehandlers.RosterSyncedV1),
	)

	registerHandler(deps, clanbattlehandlers.ButtonPressedV1, handlers.HandleButtonPressed)
	registerHandler(deps, clanbattlehandlers.TextReceivedV1, handlers.HandleTextReceived)
	registerHandler(deps, clanbattlehandlers.RosterSyncedV1, handlers.HandleRosterSynced)

	r.logger.Info("Clan battle module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) error,
) {
	handlerName := "clanbattle." + topic
	deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		wrapTyped(handlerName, deps.logger, deps.tracer, handler),
	)
}

// wrapTyped decodes the JSON payload and calls handler. Every message is
// acked: a payload that fails to decode or a handler error would fail the
// same way on redelivery.
func wrapTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	handler func(context.Context, *T) error,
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := observability.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))
		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
		))
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Dropping undecodable message",
				observability.CorrelationID(ctx),
				slog.String("handler", handlerName),
				slog.String("message_id", msg.UUID),
				slog.Any("error", err),
			)
			span.RecordError(err)
			return nil
		}

		if err := handler(ctx, payload); err != nil {
			logger.ErrorContext(ctx, "Handler failed",
				observability.CorrelationID(ctx),
				slog.String("handler", handlerName),
				slog.String("message_id", msg.UUID),
				slog.Any("error", err),
			)
			span.RecordError(err)
		}
		return nil
	}
}

// Close shuts down the router.
func (r *ClanBattleRouter) Close() error {
	return r.router.Close()
}
