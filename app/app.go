package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle"
	"github.com/Black-And-White-Club/clanbattle-bot/config"
	natsutil "github.com/Black-And-White-Club/clanbattle-bot/internal/nats"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	watermillutil "github.com/Black-And-White-Club/clanbattle-bot/internal/watermill"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	nc "github.com/nats-io/nats.go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// App owns the process-wide resources and the clan battle module.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	NATS          *nc.Conn
	Publisher     message.Publisher
	Subscriber    message.Subscriber
	Router        *message.Router
	HTTPRouter    chi.Router
	ClanBattle    *clanbattle.Module

	server *http.Server
	wg     sync.WaitGroup
}

// NewApp opens every connection and builds the module. On error, anything
// already opened is closed again.
func NewApp(ctx context.Context, cfg *config.Config, obs observability.Observability) (_ *App, err error) {
	logger := obs.Provider.Logger
	app := &App{Config: cfg, Observability: obs}
	defer func() {
		if err != nil {
			app.closeConnections()
		}
	}()

	app.DB = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN))), pgdialect.New())
	if err := app.DB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	logger.InfoContext(ctx, "Connected to Postgres")

	natsCfg := natsutil.Config{URL: cfg.NATS.URL, Name: cfg.Observability.ServiceName, NKeySeed: cfg.NATS.NKeySeed}
	app.NATS, err = natsutil.Connect(natsCfg, logger)
	if err != nil {
		return nil, err
	}
	natsOpts, err := natsutil.Options(natsCfg, logger)
	if err != nil {
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	if app.Publisher, err = watermillutil.NewPublisher(cfg.NATS.URL, wmLogger, natsOpts...); err != nil {
		return nil, err
	}
	if app.Subscriber, err = watermillutil.NewSubscriber(cfg.NATS.URL, cfg.NATS.QueueGroup, wmLogger, natsOpts...); err != nil {
		return nil, err
	}
	if app.Router, err = watermillutil.NewRouter(wmLogger); err != nil {
		return nil, err
	}

	app.HTTPRouter = app.newHTTPRouter()

	app.ClanBattle, err = clanbattle.NewClanBattleModule(ctx, cfg, obs, clanbattle.Deps{
		DB:         app.DB,
		Requester:  app.NATS,
		Publisher:  app.Publisher,
		Subscriber: app.Subscriber,
		Router:     app.Router,
		HTTPRouter: app.HTTPRouter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize clan battle module: %w", err)
	}
	return app, nil
}

// Run starts the module, the message router and the HTTP listener. It
// returns once they are all running.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Provider.Logger

	app.wg.Add(1)
	go app.ClanBattle.Run(ctx, &app.wg)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := app.Router.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "Watermill router stopped with error", slog.Any("error", err))
		}
	}()

	select {
	case <-app.Router.Running():
	case <-ctx.Done():
		return ctx.Err()
	}
	logger.InfoContext(ctx, "Watermill router running")

	return app.Start(ctx)
}

// Close shuts everything down in reverse start order.
func (app *App) Close(ctx context.Context) {
	logger := app.Observability.Provider.Logger

	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			logger.Warn("HTTP shutdown incomplete", slog.Any("error", err))
		}
	}
	if app.ClanBattle != nil {
		if err := app.ClanBattle.Close(ctx); err != nil {
			logger.Warn("Clan battle module close failed", slog.Any("error", err))
		}
	}
	app.wg.Wait()
	app.closeConnections()
	logger.Info("Application shut down gracefully")
}

func (app *App) closeConnections() {
	if app.Subscriber != nil {
		_ = app.Subscriber.Close()
	}
	if app.Publisher != nil {
		_ = app.Publisher.Close()
	}
	if app.NATS != nil {
		app.NATS.Close()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}
