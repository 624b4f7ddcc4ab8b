package gamestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/kv"
)

// DailyStats is the append-only daily counter record stored at
// gc_stats:YYYY-MM-DD (spec.md §6.2). It is not on the hot path: writes
// happen at most once per game lifecycle transition.
type DailyStats struct {
	Date          string `json:"date"`
	GamesCreated  int    `json:"gamesCreated"`
	GamesStarted  int    `json:"gamesStarted"`
	GamesCompleted int   `json:"gamesCompleted"`
}

// Stats is the Stats Service of spec.md §2.
type Stats struct {
	store  kv.Store
	prefix string
	log    zerolog.Logger
	now    func() time.Time
}

func newStats(store kv.Store, prefix string, log zerolog.Logger) *Stats {
	return &Stats{store: store, prefix: prefix, log: log, now: time.Now}
}

func (s *Stats) keyFor(t time.Time) string {
	return fmt.Sprintf("%sstats:%s", s.prefix, t.UTC().Format("2006-01-02"))
}

func (s *Stats) increment(ctx context.Context, field string) {
	key := s.keyFor(s.now())
	for attempt := 0; attempt < 3; attempt++ {
		var stats DailyStats
		var expected *int64

		e, err := s.store.Get(ctx, key)
		switch {
		case err == kv.ErrNotFound:
			stats = DailyStats{Date: s.now().UTC().Format("2006-01-02")}
		case err != nil:
			s.log.Warn().Err(err).Str("key", key).Msg("stats: read failed")
			return
		default:
			if jsonErr := json.Unmarshal(e.Value, &stats); jsonErr != nil {
				s.log.Warn().Err(jsonErr).Str("key", key).Msg("stats: decode failed")
				return
			}
			v := e.Version
			expected = &v
		}

		switch field {
		case "created":
			stats.GamesCreated++
		case "started":
			stats.GamesStarted++
		case "completed":
			stats.GamesCompleted++
		}

		data, err := json.Marshal(stats)
		if err != nil {
			s.log.Warn().Err(err).Msg("stats: encode failed")
			return
		}
		if _, err := s.store.Put(ctx, key, data, expected, s.now().UnixMilli()); err != nil {
			if err == kv.ErrVersionMismatch {
				continue // another writer raced us; retry the read-modify-write
			}
			s.log.Warn().Err(err).Str("key", key).Msg("stats: write failed")
			return
		}
		return
	}
	s.log.Warn().Str("key", key).Msg("stats: giving up after repeated version conflicts")
}

// RecordGameCreated increments today's GamesCreated counter.
func (s *Stats) RecordGameCreated(ctx context.Context) { s.increment(ctx, "created") }

// RecordGameStarted increments today's GamesStarted counter.
func (s *Stats) RecordGameStarted(ctx context.Context) { s.increment(ctx, "started") }

// RecordGameCompleted increments today's GamesCompleted counter. Callers
// must only invoke this the first time a game transitions to COMPLETED
// (spec.md §4.1: "Status COMPLETED (first time) records a game-completion
// stat").
func (s *Stats) RecordGameCompleted(ctx context.Context) { s.increment(ctx, "completed") }

// Get returns the stats for the given UTC calendar date (YYYY-MM-DD), or
// a zero-value DailyStats if none were recorded.
func (s *Stats) Get(ctx context.Context, date string) (DailyStats, error) {
	key := fmt.Sprintf("%sstats:%s", s.prefix, date)
	e, err := s.store.Get(ctx, key)
	if err == kv.ErrNotFound {
		return DailyStats{Date: date}, nil
	}
	if err != nil {
		return DailyStats{}, err
	}
	var stats DailyStats
	if err := json.Unmarshal(e.Value, &stats); err != nil {
		return DailyStats{}, fmt.Errorf("stats: decode %s: %w", key, err)
	}
	return stats, nil
}
