package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Discord       DiscordConfig       `yaml:"discord"`
	ClanBattle    ClanBattleConfig    `yaml:"clan_battle"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn" envconfig:"DATABASE_URL"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL        string `yaml:"url" envconfig:"NATS_URL"`
	NKeySeed   string `yaml:"nkey_seed" envconfig:"NATS_NKEY_SEED"`
	QueueGroup string `yaml:"queue_group" envconfig:"NATS_QUEUE_GROUP"`
}

// DiscordConfig bounds the calls made to the chat gateway.
type DiscordConfig struct {
	RequestTimeout    time.Duration `yaml:"request_timeout" envconfig:"DISCORD_REQUEST_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"DISCORD_REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" envconfig:"DISCORD_BURST"`
}

// TierStep starts Tier at FromLap.
type TierStep struct {
	FromLap int `yaml:"from_lap"`
	Tier    int `yaml:"tier"`
}

// ClanBattleConfig holds the event calendar, tier thresholds and channel
// bindings.
type ClanBattleConfig struct {
	UTCOffsetHours  int            `yaml:"utc_offset_hours" envconfig:"CLAN_BATTLE_UTC_OFFSET_HOURS"`
	DayBoundaryHour int            `yaml:"day_boundary_hour" envconfig:"CLAN_BATTLE_DAY_BOUNDARY_HOUR"`
	Tiers           []TierStep     `yaml:"tiers" ignored:"true"`
	BossChannels    map[int]string `yaml:"boss_channels" envconfig:"CLAN_BATTLE_BOSS_CHANNELS"`
	DailyChannels   []string       `yaml:"daily_channels" envconfig:"CLAN_BATTLE_DAILY_CHANNELS"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Address string `yaml:"address" envconfig:"HTTP_ADDRESS"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment string `yaml:"environment" envconfig:"ENV"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// LoadConfig loads the configuration from a YAML file and applies
// environment overrides. A missing file means environment only.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Discord.RequestTimeout == 0 {
		c.Discord.RequestTimeout = 5 * time.Second
	}
	if c.Discord.RequestsPerSecond == 0 {
		c.Discord.RequestsPerSecond = 5
	}
	if c.Discord.Burst == 0 {
		c.Discord.Burst = 5
	}
	if c.NATS.QueueGroup == "" {
		c.NATS.QueueGroup = "clanbattle"
	}
	if c.ClanBattle.UTCOffsetHours == 0 {
		c.ClanBattle.UTCOffsetHours = 9
	}
	if c.ClanBattle.DayBoundaryHour == 0 {
		c.ClanBattle.DayBoundaryHour = 5
	}
	if len(c.ClanBattle.Tiers) == 0 {
		c.ClanBattle.Tiers = []TierStep{{FromLap: 1, Tier: 2}, {FromLap: 8, Tier: 3}, {FromLap: 23, Tier: 4}}
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "clanbattle-bot"
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	if c.NATS.URL == "" {
		return errors.New("NATS_URL environment variable not set")
	}
	if c.ClanBattle.UTCOffsetHours < -12 || c.ClanBattle.UTCOffsetHours > 14 {
		return fmt.Errorf("clan_battle.utc_offset_hours out of range: %d", c.ClanBattle.UTCOffsetHours)
	}
	if c.ClanBattle.DayBoundaryHour < 0 || c.ClanBattle.DayBoundaryHour > 23 {
		return fmt.Errorf("clan_battle.day_boundary_hour out of range: %d", c.ClanBattle.DayBoundaryHour)
	}

	tiers := c.ClanBattle.Tiers
	if len(tiers) == 0 || tiers[0].FromLap != 1 {
		return errors.New("clan_battle.tiers must start at lap 1")
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].FromLap <= tiers[i-1].FromLap {
			return fmt.Errorf("clan_battle.tiers: from_lap must increase (entry %d)", i)
		}
		if tiers[i].Tier < tiers[i-1].Tier {
			return fmt.Errorf("clan_battle.tiers: tier must not decrease (entry %d)", i)
		}
	}

	seen := make(map[string]int, len(c.ClanBattle.BossChannels))
	for slot, channel := range c.ClanBattle.BossChannels {
		if slot < 1 {
			return fmt.Errorf("clan_battle.boss_channels: invalid slot %d", slot)
		}
		if channel == "" {
			return fmt.Errorf("clan_battle.boss_channels: empty channel for slot %d", slot)
		}
		if other, dup := seen[channel]; dup {
			return fmt.Errorf("clan_battle.boss_channels: channel %s bound to slots %d and %d", channel, other, slot)
		}
		seen[channel] = slot
	}
	return nil
}
