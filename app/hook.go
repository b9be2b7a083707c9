package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 20 * time.Second

// WaitForShutdown blocks until SIGINT, SIGTERM or ctx ends, then closes the
// application within shutdownTimeout.
func (app *App) WaitForShutdown(ctx context.Context) {
	logger := app.Observability.Provider.Logger

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	logger.Info("Waiting for shutdown signal")
	select {
	case sig := <-interrupt:
		logger.Info("Shutting down application", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Application context canceled")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	app.Close(closeCtx)
}
