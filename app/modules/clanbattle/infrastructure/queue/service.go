package clanbattlequeue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"
)

const metricsService = "river"

// QueueService interface defines the contract for job scheduling operations
type QueueService interface {
	// TriggerDailyStatus enqueues an immediate daily status post for channelID.
	TriggerDailyStatus(ctx context.Context, channelID string) error
	// GetScheduledJobs returns pending clan battle jobs (for debugging)
	GetScheduledJobs(ctx context.Context) ([]JobInfo, error)
	// HealthCheck verifies the queue service is healthy
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// Options configures the scheduler.
type Options struct {
	Clock         clanbattledomain.Clock
	DailyChannels []string
}

// Service handles job scheduling for the clan battle module using River
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics observability.Metrics
}

// NewService creates the River client with the daily status worker and one
// periodic job per daily channel.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics observability.Metrics, emitter DailyEmitter, opts Options) (*Service, error) {
	ctxLogger := logger.With(
		slog.String("operation", "new_clanbattle_queue_service"),
		slog.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", metricsService)

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewDailyStatusWorker(ctxLogger, emitter))

	if opts.Clock.IsZero() {
		opts.Clock = clanbattledomain.DefaultClock()
	}

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 5},
			QueueName:          {MaxWorkers: 5},
		},
		Workers:      workers,
		PeriodicJobs: periodicJobs(opts),
		Logger:       ctxLogger,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", metricsService)
	metrics.RecordOperationDuration(ctx, "initialize_service", metricsService, time.Since(start))
	ctxLogger.Info("Clan battle queue service initialized",
		slog.Int("daily_channels", len(opts.DailyChannels)),
	)

	return &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
	}, nil
}

func periodicJobs(opts Options) []*river.PeriodicJob {
	schedule := boundarySchedule{clock: opts.Clock}
	jobs := make([]*river.PeriodicJob, 0, len(opts.DailyChannels))
	for _, channelID := range opts.DailyChannels {
		channelID := channelID
		jobs = append(jobs, river.NewPeriodicJob(
			schedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return DailyStatusJob{ChannelID: channelID}, &river.InsertOpts{Queue: QueueName}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	return jobs
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", metricsService)
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "start_service", metricsService)
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", metricsService)
	s.logger.Info("Clan battle queue service started")
	return nil
}

// Stop stops the River queue service and releases its pool.
func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", metricsService)
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", metricsService)
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", metricsService)
	s.logger.Info("Clan battle queue service stopped")
	return nil
}

func (s *Service) TriggerDailyStatus(ctx context.Context, channelID string) error {
	s.metrics.RecordOperationAttempt(ctx, "trigger_daily_status", metricsService)
	res, err := s.client.Insert(ctx, DailyStatusJob{ChannelID: channelID}, &river.InsertOpts{Queue: QueueName})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "trigger_daily_status", metricsService)
		return fmt.Errorf("failed to enqueue daily status: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "trigger_daily_status", metricsService)
	s.logger.InfoContext(ctx, "Daily status enqueued",
		slog.Int64("job_id", res.Job.ID),
		slog.String("channel_id", channelID),
	)
	return nil
}

func (s *Service) GetScheduledJobs(ctx context.Context) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64      `bun:"id"`
		Kind        string     `bun:"kind"`
		State       string     `bun:"state"`
		ChannelID   string     `bun:"channel_id"`
		ScheduledAt *time.Time `bun:"scheduled_at"`
		Attempt     int16      `bun:"attempt"`
		MaxAttempts int16      `bun:"max_attempts"`
	}

	var rows []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "scheduled_at", "attempt", "max_attempts").
		ColumnExpr("args->>'channel_id' AS channel_id").
		Where("kind = ?", DailyStatusJob{}.Kind()).
		Where("state IN (?)", bun.In([]string{"available", "scheduled", "retryable"})).
		Order("scheduled_at ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	out := make([]JobInfo, len(rows))
	for i, r := range rows {
		scheduledAt := ""
		if r.ScheduledAt != nil {
			scheduledAt = r.ScheduledAt.Format(time.RFC3339)
		}
		out[i] = JobInfo{
			ID:          r.ID,
			Kind:        r.Kind,
			ChannelID:   r.ChannelID,
			State:       r.State,
			ScheduledAt: scheduledAt,
			Attempt:     int(r.Attempt),
			MaxAttempts: int(r.MaxAttempts),
		}
	}
	return out, nil
}

// HealthCheck verifies the queue service is healthy
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}
