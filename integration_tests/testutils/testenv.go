package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/Black-And-White-Club/clanbattle-bot/config"
	"github.com/Black-And-White-Club/clanbattle-bot/integration_tests/containers"
	"github.com/nats-io/nats.go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *tcnats.NATSContainer
	DB            *bun.DB
	NatsConn      *nats.Conn
	Config        *config.Config
}

// NewTestEnvironment starts Postgres and NATS, migrates the schema and
// returns a config pointing at both. Everything is torn down by t.Cleanup.
// The test is skipped when Docker is unavailable.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	containers.RequireDocker(t)

	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{Ctx: ctx, CancelContext: cancel}
	t.Cleanup(env.Cleanup)

	if err := env.setupContainers(ctx); err != nil {
		t.Fatalf("failed to set up test environment: %v", err)
	}
	return env
}

// setupContainers initializes all containers and connections
func (env *TestEnvironment) setupContainers(ctx context.Context) error {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	env.DB = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgConnStr))), pgdialect.New())
	if err := runMigrations(ctx, env.DB, pgConnStr); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	env.NatsConn, err = nats.Connect(natsURL, nats.Timeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL, QueueGroup: "clanbattle-it"},
		Discord: config.DiscordConfig{
			RequestTimeout:    5 * time.Second,
			RequestsPerSecond: 100,
			Burst:             100,
		},
		ClanBattle: config.ClanBattleConfig{
			UTCOffsetHours:  9,
			DayBoundaryHour: 5,
			Tiers:           []config.TierStep{{FromLap: 1, Tier: 2}, {FromLap: 8, Tier: 3}, {FromLap: 23, Tier: 4}},
			BossChannels:    map[int]string{1: "chan-boss-1"},
			DailyChannels:   []string{"chan-daily"},
		},
		Observability: config.ObservabilityConfig{ServiceName: "clanbattle-it"},
	}
	return nil
}

// Reset truncates every table between subtests.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	return CleanupDatabase(ctx, env.DB)
}

// Cleanup closes connections and terminates the containers.
func (env *TestEnvironment) Cleanup() {
	if env.NatsConn != nil {
		env.NatsConn.Close()
	}
	if env.DB != nil {
		_ = env.DB.Close()
	}
	bg := context.Background()
	if env.NatsContainer != nil {
		_ = env.NatsContainer.Terminate(bg)
	}
	if env.PgContainer != nil {
		_ = env.PgContainer.Terminate(bg)
	}
	if env.CancelContext != nil {
		env.CancelContext()
	}
}
