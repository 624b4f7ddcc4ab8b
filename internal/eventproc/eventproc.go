// Package eventproc is the Event Processor of spec.md §4.6: it
// orchestrates load -> simulate -> diff -> persist (with retry) ->
// broadcast for a single game, and fans that out across all active games.
package eventproc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lab1702/galactic-conflict/internal/config"
	"github.com/lab1702/galactic-conflict/internal/gamestate"
	"github.com/lab1702/galactic-conflict/internal/gamestore"
	"github.com/lab1702/galactic-conflict/internal/gcerrors"
)

// Notifier is the subset of the Notifier Client the Event Processor needs
// (spec.md §4.7); kept as an interface here so tests can stub it without
// pulling in net/http.
type Notifier interface {
	GameUpdate(ctx context.Context, gameID string, state *gamestate.State) error
}

// Simulator is the subset of the Game Loop the Event Processor drives. An
// interface so eventproc tests don't need a full battle/ai wiring.
type Simulator interface {
	ProcessGameState(state *gamestate.State, currentTime int64) *gamestate.State
}

// Processor is the Event Processor.
type Processor struct {
	store    *gamestore.Store
	loop     Simulator
	notifier Notifier
	cfg      *config.Config
	log      zerolog.Logger
}

// New builds a Processor over store, advancing games with loop and
// broadcasting through notifier.
func New(store *gamestore.Store, loop Simulator, notifier Notifier, cfg *config.Config, log zerolog.Logger) *Processor {
	return &Processor{store: store, loop: loop, notifier: notifier, cfg: cfg, log: log}
}

type snapshot struct {
	replays        int
	reinforcements int
	conquests      int
	eliminations   int
	armadaCount    int
	status         gamestate.Status
	endResult      gamestate.EndResult
	lastUpdate     int64
}

func snapshotOf(s *gamestate.State) snapshot {
	return snapshot{
		replays:        len(s.RecentBattleReplays),
		reinforcements: len(s.RecentReinforcementEvents),
		conquests:      len(s.RecentConquestEvents),
		eliminations:   len(s.RecentPlayerEliminationEvents),
		armadaCount:    len(s.Armadas),
		status:         s.Status,
		endResult:      s.EndResult,
		lastUpdate:     s.LastUpdateTime,
	}
}

func (before snapshot) changed(after snapshot) bool {
	return after.replays > before.replays ||
		after.reinforcements > before.reinforcements ||
		after.conquests > before.conquests ||
		after.eliminations > before.eliminations ||
		after.armadaCount != before.armadaCount ||
		after.status != before.status ||
		!after.endResult.Equal(before.endResult) ||
		after.lastUpdate != before.lastUpdate
}

// ProcessGameEvents implements spec.md §4.6 steps 1-6 for a single game.
// Returns true iff a change was simulated, saved and handed to the
// notifier; a notifier failure is logged and does not change the result.
func (p *Processor) ProcessGameEvents(ctx context.Context, gameID string) (bool, error) {
	for attempt := 0; attempt <= p.cfg.MaxSaveRetries; attempt++ {
		changed, retry, err := p.attempt(ctx, gameID)
		if err != nil {
			return false, err
		}
		if !retry {
			return changed, nil
		}
	}
	p.log.Warn().Str("gameId", gameID).Msg("eventproc: exhausted save retries, dropping tick")
	return false, nil
}

// attempt runs one load/simulate/save cycle, returning (changed, shouldRetry, err).
func (p *Processor) attempt(ctx context.Context, gameID string) (bool, bool, error) {
	record, err := p.store.LoadGame(ctx, gameID)
	if err != nil {
		return false, false, fmt.Errorf("eventproc: load %s: %w", gameID, err)
	}
	if record == nil || record.Status != gamestate.StatusActive {
		return false, false, nil
	}
	if ctx.Err() != nil {
		return false, false, ctx.Err()
	}

	expected := record.LastUpdateAt
	before := snapshotOf(record.GameState)

	p.loop.ProcessGameState(record.GameState, 0)

	after := snapshotOf(record.GameState)
	if !before.changed(after) {
		return false, false, nil
	}

	broadcastState := record.GameState.Clone()
	record.GameState.ClearEphemeralBuffers()

	if ctx.Err() != nil {
		return false, false, ctx.Err()
	}

	if err := p.store.SaveGame(ctx, record, &expected); err != nil {
		if _, ok := gcerrors.AsVersionConflict(err); ok {
			return false, true, nil
		}
		return false, false, fmt.Errorf("eventproc: save %s: %w", gameID, err)
	}

	if notifyErr := p.notifier.GameUpdate(ctx, gameID, broadcastState); notifyErr != nil {
		p.log.Warn().Err(notifyErr).Str("gameId", gameID).Msg("eventproc: notifier failed, state already persisted")
	}

	return true, false, nil
}

// Result is the aggregate outcome of ProcessAllGameEvents.
type Result struct {
	Processed int
	Changed   int
	Err       error
}

// ProcessAllGameEvents iterates every ACTIVE game (via the Game Store's
// cache) and processes each concurrently, bounded by
// cfg.MaxConcurrentGames (spec.md §4.6, §5 "parallel per-game"). A single
// game's failure is logged and does not cancel its siblings; the
// aggregate error is a joined summary for observability only.
func (p *Processor) ProcessAllGameEvents(ctx context.Context) Result {
	records, err := p.store.ListGames(ctx, gamestate.StatusActive)
	if err != nil {
		return Result{Err: fmt.Errorf("eventproc: list active games: %w", err)}
	}

	var mu sync.Mutex
	var changed int
	var failures []error

	g := new(errgroup.Group)
	g.SetLimit(clampConcurrency(p.cfg.MaxConcurrentGames))

	for _, record := range records {
		gameID := record.GameID
		g.Go(func() error {
			didChange, tickErr := p.ProcessGameEvents(ctx, gameID)
			mu.Lock()
			defer mu.Unlock()
			if tickErr != nil {
				p.log.Error().Err(tickErr).Str("gameId", gameID).Msg("eventproc: tick failed")
				failures = append(failures, fmt.Errorf("game %s: %w", gameID, tickErr))
				return nil
			}
			if didChange {
				changed++
			}
			return nil
		})
	}
	_ = g.Wait()

	return Result{Processed: len(records), Changed: changed, Err: errors.Join(failures...)}
}

func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
