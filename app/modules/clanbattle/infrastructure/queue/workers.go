package clanbattlequeue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/riverqueue/river"
)

// DailyEmitter is the part of the clan battle service the worker needs.
type DailyEmitter interface {
	EmitDailyStatus(ctx context.Context, channelID string) error
}

// DailyStatusWorker runs DailyStatusJob.
type DailyStatusWorker struct {
	river.WorkerDefaults[DailyStatusJob]
	emitter DailyEmitter
	logger  *slog.Logger
}

func NewDailyStatusWorker(logger *slog.Logger, emitter DailyEmitter) *DailyStatusWorker {
	return &DailyStatusWorker{emitter: emitter, logger: logger}
}

func (w *DailyStatusWorker) Work(ctx context.Context, job *river.Job[DailyStatusJob]) error {
	w.logger.InfoContext(ctx, "Emitting daily status",
		slog.Int64("job_id", job.ID),
		slog.String("channel_id", job.Args.ChannelID),
	)
	if err := w.emitter.EmitDailyStatus(ctx, job.Args.ChannelID); err != nil {
		return fmt.Errorf("daily status for %s: %w", job.Args.ChannelID, err)
	}
	return nil
}

// Timeout bounds one emission; the messenger has its own per-call timeout.
func (w *DailyStatusWorker) Timeout(*river.Job[DailyStatusJob]) time.Duration {
	return 30 * time.Second
}

// boundarySchedule fires at every battle-day boundary.
type boundarySchedule struct {
	clock clanbattledomain.Clock
}

func (s boundarySchedule) Next(current time.Time) time.Time {
	return s.clock.NextDayBoundary(current)
}
