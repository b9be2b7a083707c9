package clanbattleservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattledb "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "ClanBattleService"

// ChannelBindings ties boss slots and daily panels to channels.
type ChannelBindings struct {
	BossChannels  map[int]string
	DailyChannels []string
}

func (b ChannelBindings) ChannelForSlot(slot int) (string, bool) {
	ch, ok := b.BossChannels[slot]
	return ch, ok && ch != ""
}

func (b ChannelBindings) SlotForChannel(channelID string) (int, bool) {
	for slot, ch := range b.BossChannels {
		if ch == channelID {
			return slot, true
		}
	}
	return 0, false
}

// Options carries the configurable parts of the service.
type Options struct {
	Clock    clanbattledomain.Clock
	Tiers    clanbattledomain.TierTable
	Channels ChannelBindings
}

// ClanBattleService implements the Service interface.
type ClanBattleService struct {
	repo     clanbattledb.Repository
	panels   PanelSyncer
	clock    clanbattledomain.Clock
	tiers    clanbattledomain.TierTable
	channels ChannelBindings
	logger   *slog.Logger
	metrics  observability.Metrics
	tracer   trace.Tracer
	db       *bun.DB
}

// NewClanBattleService creates a new ClanBattleService. panels may be nil,
// in which case no panel is ever mirrored.
func NewClanBattleService(
	repo clanbattledb.Repository,
	panels PanelSyncer,
	opts Options,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	db *bun.DB,
) *ClanBattleService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Clock.IsZero() {
		opts.Clock = clanbattledomain.DefaultClock()
	}
	if len(opts.Tiers) == 0 {
		opts.Tiers = clanbattledomain.DefaultTierTable()
	}
	return &ClanBattleService{
		repo:     repo,
		panels:   panels,
		clock:    opts.Clock,
		tiers:    opts.Tiers,
		channels: opts.Channels,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
	}
}

func (s *ClanBattleService) CurrentCycleKey() string { return s.clock.CurrentCycleKey() }

func (s *ClanBattleService) CurrentDayIndex() int { return s.clock.CurrentDayIndex() }

func (s *ClanBattleService) TierTable() clanbattledomain.TierTable { return s.tiers }

func (s *ClanBattleService) ValidateAction(token clanbattledomain.ActionToken) error {
	if current := s.clock.CurrentCycleKey(); token.CycleKey != current {
		return fmt.Errorf("%w: cycle %s is not %s", clanbattledomain.ErrStaleAction, token.CycleKey, current)
	}
	return nil
}

// unwrap turns an operation result into the public (value, error) shape.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if !result.IsSuccess() {
		return zero, nil
	}
	return *result.Success, nil
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ClanBattleService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.DebugContext(ctx, "Operation triggered",
		observability.CorrelationID(ctx),
		slog.String("operation", operationName),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				observability.CorrelationID(ctx),
				slog.String("identifier", identifier),
				slog.Any("error", err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("error", wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("failure_payload", *result.Failure),
		)
	} else {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ClanBattleService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr != nil {
			return txErr
		}
		// A domain failure must not leave half-applied writes behind.
		if result.IsFailure() {
			return errDomainRollback
		}
		return nil
	})
	if errors.Is(err, errDomainRollback) {
		return result, nil
	}
	return result, err
}

var errDomainRollback = errors.New("clanbattle: rollback for domain failure")
