package clanbattle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	clanbattleservice "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/application"
	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattleapi "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/api"
	clanbattlehandlers "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/handlers"
	clanbattlemessenger "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/messenger"
	panelsync "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/panelsync"
	clanbattlequeue "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/queue"
	clanbattledb "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories"
	clanbattlerouter "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/router"
	"github.com/Black-And-White-Club/clanbattle-bot/config"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Deps are the shared resources the module is built on.
type Deps struct {
	DB         *bun.DB
	Requester  clanbattlemessenger.Requester
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Router     *message.Router
	HTTPRouter chi.Router
}

// Module represents the clan battle module.
type Module struct {
	Service          clanbattleservice.Service
	Queue            clanbattlequeue.QueueService
	ClanBattleRouter *clanbattlerouter.ClanBattleRouter
	observability    observability.Observability
	cancelFunc       context.CancelFunc
}

// NewClanBattleModule wires storage, panel sync, transport, the scheduler
// and the HTTP API around one service instance.
func NewClanBattleModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	deps Deps,
) (*Module, error) {
	logger := obs.Provider.Logger
	metrics := obs.Registry.Metrics
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "clanbattle.NewClanBattleModule called")

	tiers := TierTableFromConfig(cfg.ClanBattle.Tiers)
	if err := tiers.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tier table: %w", err)
	}
	clock := clanbattledomain.NewClock(cfg.ClanBattle.UTCOffsetHours, cfg.ClanBattle.DayBoundaryHour, nil)

	repo := clanbattledb.NewRepository(deps.DB)

	messenger := clanbattlemessenger.NewMessenger(deps.Requester, deps.Publisher, clanbattlemessenger.Config{
		RequestTimeout:    cfg.Discord.RequestTimeout,
		RequestsPerSecond: cfg.Discord.RequestsPerSecond,
		Burst:             cfg.Discord.Burst,
	}, logger)

	syncer := panelsync.NewSyncer(messenger, repo, logger, metrics, tracer)

	service := clanbattleservice.NewClanBattleService(repo, syncer, clanbattleservice.Options{
		Clock: clock,
		Tiers: tiers,
		Channels: clanbattleservice.ChannelBindings{
			BossChannels:  cfg.ClanBattle.BossChannels,
			DailyChannels: cfg.ClanBattle.DailyChannels,
		},
	}, logger, metrics, tracer, deps.DB)

	queue, err := clanbattlequeue.NewService(ctx, deps.DB, logger, cfg.Postgres.DSN, metrics, service, clanbattlequeue.Options{
		Clock:         clock,
		DailyChannels: cfg.ClanBattle.DailyChannels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create clan battle queue: %w", err)
	}

	handlers := clanbattlehandlers.NewClanBattleHandlers(service, messenger, logger, tracer)
	router := clanbattlerouter.NewClanBattleRouter(logger, deps.Router, deps.Subscriber, tracer)
	if err := router.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure clan battle router: %w", err)
	}

	if deps.HTTPRouter != nil {
		api := clanbattleapi.NewHTTPHandlers(service, queue, logger, tracer)
		deps.HTTPRouter.Route("/api/clanbattle", api.Routes)
	}

	return &Module{
		Service:          service,
		Queue:            queue,
		ClanBattleRouter: router,
		observability:    obs,
	}, nil
}

// Run restores tracked panels, starts the scheduler and blocks until ctx
// is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting clan battle module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	restored, err := m.Service.RestorePanelRefs(ctx)
	if err != nil {
		// Panels re-register lazily on their next post.
		logger.WarnContext(ctx, "Failed to restore panel refs", slog.Any("error", err))
	} else {
		logger.InfoContext(ctx, "Restored panel refs", slog.Int("count", restored))
	}

	if err := m.Queue.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to start clan battle queue", slog.Any("error", err))
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Clan battle module goroutine stopped")
}

// Close drains the scheduler and the message router, then cancels Run.
func (m *Module) Close(ctx context.Context) error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping clan battle module")

	var err error
	if m.Queue != nil {
		err = m.Queue.Stop(ctx)
	}
	if m.ClanBattleRouter != nil {
		if cerr := m.ClanBattleRouter.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Clan battle module stopped")
	return err
}

// TierTableFromConfig converts the configured thresholds.
func TierTableFromConfig(steps []config.TierStep) clanbattledomain.TierTable {
	if len(steps) == 0 {
		return clanbattledomain.DefaultTierTable()
	}
	out := make(clanbattledomain.TierTable, len(steps))
	for i, s := range steps {
		out[i] = clanbattledomain.TierStep{FromLap: s.FromLap, Tier: s.Tier}
	}
	return out
}
