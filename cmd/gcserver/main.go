// Command gcserver runs the Galactic Conflict core's scheduler: it ticks
// every active game through the Event Processor at a fixed interval until
// told to stop (spec.md §6.4: "Scheduler ticks at a rate sufficient to
// give sub-second perceived latency").
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lab1702/galactic-conflict/internal/ai"
	"github.com/lab1702/galactic-conflict/internal/battle"
	"github.com/lab1702/galactic-conflict/internal/config"
	"github.com/lab1702/galactic-conflict/internal/eventproc"
	"github.com/lab1702/galactic-conflict/internal/gameloop"
	"github.com/lab1702/galactic-conflict/internal/gamestore"
	"github.com/lab1702/galactic-conflict/internal/kv"
	"github.com/lab1702/galactic-conflict/internal/notifier"
)

var (
	configPath  string
	tickInterval time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gcserver",
		Short: "Galactic Conflict core scheduler",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file (env vars prefixed GC_ always apply)")
	cmd.Flags().DurationVar(&tickInterval, "tick-interval", time.Second, "how often to sweep active games")
	viper.BindPFlag("tick_interval", cmd.Flags().Lookup("tick-interval"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("component", "gcserver").Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("gcserver: loading config: %w", err)
	}

	store := newGameStore(cfg, log)
	battleMgr := battle.New(log.With().Str("component", "battle").Logger())
	aiDriver := ai.New(cfg, log.With().Str("component", "ai").Logger())
	loop := gameloop.New(cfg, battleMgr, aiDriver, log.With().Str("component", "gameloop").Logger())
	notify := notifier.New(cfg, log.With().Str("component", "notifier").Logger())
	processor := eventproc.New(store, loop, notify, cfg, log.With().Str("component", "eventproc").Logger())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("tickInterval", tickInterval).Msg("gcserver: starting scheduler")
	runScheduler(ctx, processor, tickInterval, log)
	log.Info().Msg("gcserver: stopped")
	return nil
}

func newGameStore(cfg *config.Config, log zerolog.Logger) *gamestore.Store {
	var store kv.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = kv.NewRedisStore(client, 0)
		log.Info().Str("addr", cfg.RedisAddr).Msg("gcserver: using Redis key-value store")
	} else {
		store = kv.NewMemStore()
		log.Info().Msg("gcserver: using in-process key-value store")
	}
	return gamestore.New(store, cfg.KVPrefix, cfg.StaleGameTimeoutMs, log.With().Str("component", "gamestore").Logger())
}

func runScheduler(ctx context.Context, processor *eventproc.Processor, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := processor.ProcessAllGameEvents(ctx)
			if result.Err != nil {
				log.Warn().Err(result.Err).Msg("gcserver: one or more games failed this tick")
			}
			if result.Changed > 0 {
				log.Debug().Int("processed", result.Processed).Int("changed", result.Changed).Msg("gcserver: tick complete")
			}
		}
	}
}
