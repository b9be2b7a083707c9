package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Black-And-White-Club/clanbattle-bot/app"
	"github.com/Black-And-White-Club/clanbattle-bot/config"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	obs := observability.Init(observability.Config{
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Observability.Environment,
		LogLevel:    cfg.Observability.LogLevel,
	})
	logger := obs.Provider.Logger
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...), slog.String("component", "maxprocs"))
	})); err != nil {
		logger.Warn("Failed to set GOMAXPROCS", slog.Any("error", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.NewApp(ctx, cfg, obs)
	if err != nil {
		logger.Error("Failed to initialize app", slog.Any("error", err))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Failed to start app", slog.Any("error", err))
		application.Close(context.Background())
		os.Exit(1)
	}

	application.WaitForShutdown(ctx)
}
