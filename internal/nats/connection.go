package natsutil

import (
	"fmt"
	"log/slog"
	"time"

	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// Config describes how to reach the NATS server.
type Config struct {
	URL      string
	Name     string
	NKeySeed string
}

// Options returns the connection options shared by the raw connection and
// the Watermill publisher and subscriber.
func Options(cfg Config, logger *slog.Logger) ([]nc.Option, error) {
	name := cfg.Name
	if name == "" {
		name = "clanbattle-bot"
	}
	opts := []nc.Option{
		nc.Name(name),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
		nc.DisconnectErrHandler(func(_ *nc.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.Any("error", err))
			}
		}),
		nc.ReconnectHandler(func(conn *nc.Conn) {
			logger.Info("NATS reconnected", slog.String("url", conn.ConnectedUrl()))
		}),
	}
	if cfg.NKeySeed != "" {
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// Connect dials NATS and retries forever after the first successful connect.
func Connect(cfg Config, logger *slog.Logger) (*nc.Conn, error) {
	opts, err := Options(cfg, logger)
	if err != nil {
		return nil, err
	}
	conn, err := nc.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", slog.String("url", conn.ConnectedUrl()))
	return conn, nil
}

func nkeyOption(seed string) (nc.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nc.Nkey(pub, kp.Sign), nil
}
