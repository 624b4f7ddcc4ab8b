// Package config loads the deployment-fixed constants of spec.md §6.3 via
// Viper, the same config-loading library turnforge-weewar and
// Knoblauchpilze-sogserver pair with a Cobra entrypoint. The AI difficulty
// table of spec.md §4.5 is part of Config but always comes from Default();
// Load does not read it from a config file or the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Difficulty is the AI difficulty enum of spec.md §3.2.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// AIParams holds one row of the difficulty table in spec.md §4.5.
type AIParams struct {
	CooldownMs          int64
	AttackMinSourceShips int
	AttackMinAdvantage   int
	AttackMinShipsToSend int
	AttackDefenseBuffer  int
	BuildResourceMultiplier float64
	BuildMinShipsOnPlanet   int
	BuildMaxBuildAtOnce     int
}

// Config is the immutable, process-wide configuration value. It is
// constructed once at startup and threaded through constructors — no
// package-level globals, mirroring server.NewServer()'s dependency shape in
// the teacher repo.
type Config struct {
	// Economy / simulation constants (spec.md §6.3).
	ShipCost                 float64
	DefaultProductionRate    float64
	ResourceTickIntervalMs   int64
	ResourceUpdatesPerMin    float64
	StaleGameTimeoutMs       int64
	MinArmadaTravelTimeMs    int64
	EventProcessingBufferMs  int64
	MaxSlotsPerGame          int
	NeutralPlanetCount       int
	DefaultArmadaSpeed       float64

	// AI difficulty table (spec.md §4.5).
	AI map[Difficulty]AIParams

	// Storage.
	RedisAddr string // empty => use the in-memory KV adapter
	KVPrefix  string

	// Notifier client (spec.md §4.7, §6.1).
	NotifierBaseURL string
	NotifierTimeout time.Duration

	// Event processor concurrency (spec.md §4.6, §5).
	MaxConcurrentGames int
	MaxSaveRetries     int
}

// EventBufferDuration is EVENT_PROCESSING_TIME_BUFFER_MS as a duration.
func (c *Config) EventBufferDuration() time.Duration {
	return time.Duration(c.EventProcessingBufferMs) * time.Millisecond
}

// ResourceTickInterval is RESOURCE_TICK_INTERVAL_MS as a duration.
func (c *Config) ResourceTickInterval() time.Duration {
	return time.Duration(c.ResourceTickIntervalMs) * time.Millisecond
}

// Default returns the reference configuration used when no config file or
// environment overrides are present; values are the example table in
// spec.md §4.5 and the small-positive-constant guidance of spec.md §4.3.
func Default() *Config {
	return &Config{
		ShipCost:                10,
		DefaultProductionRate:   1.0,
		ResourceTickIntervalMs:  10_000,
		ResourceUpdatesPerMin:   6,
		StaleGameTimeoutMs:      30 * 60 * 1000,
		MinArmadaTravelTimeMs:   2_000,
		EventProcessingBufferMs: 150,
		MaxSlotsPerGame:         8,
		NeutralPlanetCount:      6,
		DefaultArmadaSpeed:      1.0,
		AI: map[Difficulty]AIParams{
			Easy: {
				CooldownMs:              30_000,
				AttackMinSourceShips:    10,
				AttackMinAdvantage:      4,
				AttackMinShipsToSend:    5,
				AttackDefenseBuffer:     4,
				BuildResourceMultiplier: 2,
				BuildMinShipsOnPlanet:   3,
				BuildMaxBuildAtOnce:     2,
			},
			Medium: {
				CooldownMs:              10_000,
				AttackMinSourceShips:    5,
				AttackMinAdvantage:      2,
				AttackMinShipsToSend:    4,
				AttackDefenseBuffer:     2,
				BuildResourceMultiplier: 1.5,
				BuildMinShipsOnPlanet:   2,
				BuildMaxBuildAtOnce:     5,
			},
			Hard: {
				CooldownMs:              2_000,
				AttackMinSourceShips:    2,
				AttackMinAdvantage:      0,
				AttackMinShipsToSend:    2,
				AttackDefenseBuffer:     0,
				BuildResourceMultiplier: 1,
				BuildMinShipsOnPlanet:   0,
				BuildMaxBuildAtOnce:     20,
			},
		},
		RedisAddr:          "",
		KVPrefix:           "gc_",
		NotifierBaseURL:    "http://localhost:4000",
		NotifierTimeout:    3 * time.Second,
		MaxConcurrentGames: 16,
		MaxSaveRetries:     2,
	}
}

// Load builds a Config starting from Default() and layering a config file
// (if present) and GC_-prefixed environment variables on top, via Viper.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("GC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	bindDefaults(v, cfg)

	cfg.ShipCost = v.GetFloat64("ship_cost")
	cfg.DefaultProductionRate = v.GetFloat64("default_production_rate")
	cfg.ResourceTickIntervalMs = v.GetInt64("resource_tick_interval_ms")
	cfg.ResourceUpdatesPerMin = v.GetFloat64("resource_updates_per_min")
	cfg.StaleGameTimeoutMs = v.GetInt64("stale_game_timeout_ms")
	cfg.MinArmadaTravelTimeMs = v.GetInt64("min_armada_travel_time_ms")
	cfg.EventProcessingBufferMs = v.GetInt64("event_processing_time_buffer_ms")
	cfg.MaxSlotsPerGame = v.GetInt("max_slots_per_game")
	cfg.NeutralPlanetCount = v.GetInt("neutral_planet_count")
	cfg.DefaultArmadaSpeed = v.GetFloat64("default_armada_speed")
	cfg.RedisAddr = v.GetString("redis_addr")
	cfg.KVPrefix = v.GetString("kv_prefix")
	cfg.NotifierBaseURL = v.GetString("notifier_base_url")
	cfg.NotifierTimeout = v.GetDuration("notifier_timeout")
	cfg.MaxConcurrentGames = v.GetInt("max_concurrent_games")
	cfg.MaxSaveRetries = v.GetInt("max_save_retries")

	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("ship_cost", cfg.ShipCost)
	v.SetDefault("default_production_rate", cfg.DefaultProductionRate)
	v.SetDefault("resource_tick_interval_ms", cfg.ResourceTickIntervalMs)
	v.SetDefault("resource_updates_per_min", cfg.ResourceUpdatesPerMin)
	v.SetDefault("stale_game_timeout_ms", cfg.StaleGameTimeoutMs)
	v.SetDefault("min_armada_travel_time_ms", cfg.MinArmadaTravelTimeMs)
	v.SetDefault("event_processing_time_buffer_ms", cfg.EventProcessingBufferMs)
	v.SetDefault("max_slots_per_game", cfg.MaxSlotsPerGame)
	v.SetDefault("neutral_planet_count", cfg.NeutralPlanetCount)
	v.SetDefault("default_armada_speed", cfg.DefaultArmadaSpeed)
	v.SetDefault("redis_addr", cfg.RedisAddr)
	v.SetDefault("kv_prefix", cfg.KVPrefix)
	v.SetDefault("notifier_base_url", cfg.NotifierBaseURL)
	v.SetDefault("notifier_timeout", cfg.NotifierTimeout)
	v.SetDefault("max_concurrent_games", cfg.MaxConcurrentGames)
	v.SetDefault("max_save_retries", cfg.MaxSaveRetries)
}
