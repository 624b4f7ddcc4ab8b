// Package gameloop is the Game Loop of spec.md §4.3: it advances a single
// gamestate.State to a chosen current time, draining due events, resolving
// arrived armadas via the Battle Manager, and running the AI Driver — the
// in-memory counterpart of the teacher's per-tick updateGame.
package gameloop

import (
	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/ai"
	"github.com/lab1702/galactic-conflict/internal/battle"
	"github.com/lab1702/galactic-conflict/internal/config"
	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

// Loop is the Game Loop. It is stateless itself; every call operates on
// the gamestate.State the caller (Event Processor) passes in.
type Loop struct {
	cfg    *config.Config
	battle *battle.Manager
	ai     *ai.Driver
	log    zerolog.Logger
}

// New builds a Loop wired to the given Battle Manager and AI Driver.
func New(cfg *config.Config, battleMgr *battle.Manager, aiDriver *ai.Driver, log zerolog.Logger) *Loop {
	return &Loop{cfg: cfg, battle: battleMgr, ai: aiDriver, log: log}
}

// nowFn supplies the wall clock when currentTime is omitted (passed as 0),
// as the Event Processor does on every tick (spec.md §4.3 step 1, "if
// currentTime is not supplied").
var nowFn = wallClockMillis

// ProcessGameState advances state to currentTime in place and returns it,
// implementing spec.md §4.3 steps 1-5. Pass currentTime == 0 to have the
// loop pick one itself (max(lastUpdateTime+EVENT_BUFFER_MS, now())).
func (l *Loop) ProcessGameState(state *gamestate.State, currentTime int64) *gamestate.State {
	if currentTime == 0 {
		currentTime = l.selectTime(state)
	}

	l.resolveArrivedArmadas(state, currentTime)
	l.drainScheduledEvents(state, currentTime)

	if state.Status != gamestate.StatusCompleted {
		l.ai.ProcessAITurns(state, currentTime)
	}

	state.LastUpdateTime = currentTime
	return state
}

func (l *Loop) selectTime(state *gamestate.State) int64 {
	candidate := state.LastUpdateTime + l.cfg.EventProcessingBufferMs
	now := nowFn()
	if now > candidate {
		return now
	}
	return candidate
}

// resolveArrivedArmadas implements spec.md §4.3 step 2. Armadas are the
// authoritative source of arrival; the legacy armada_arrival event kind is
// never dispatched (see gamestate.EventArmadaArrival).
func (l *Loop) resolveArrivedArmadas(state *gamestate.State, currentTime int64) {
	var arrived []gamestate.ArmadaID
	for _, a := range state.Armadas {
		if a.DepartureTime > currentTime {
			l.log.Warn().Str("armadaId", string(a.ID)).Msg("gameloop: armada departure is in the future, clock skew")
			continue
		}
		if currentTime-a.DepartureTime < l.cfg.MinArmadaTravelTimeMs {
			continue
		}
		if a.ArrivalTime <= currentTime {
			arrived = append(arrived, a.ID)
		}
	}

	for _, id := range arrived {
		l.battle.HandleArmadaArrival(state, id)
		l.battle.CheckGameEnd(state, currentTime)
		if state.Status == gamestate.StatusCompleted {
			return
		}
	}
}

// drainScheduledEvents implements spec.md §4.3 step 3: events due at or
// before currentTime, as scanned once at the start of this invocation, are
// dispatched; anything a dispatch reschedules lands in the queue for a
// future tick even if its new scheduledTime <= currentTime (spec.md §9 open
// question, resolved in SPEC_FULL.md §4.3: exactly one tick per
// invocation).
func (l *Loop) drainScheduledEvents(state *gamestate.State, currentTime int64) {
	// Pop every currently-due event off the live queue up front. Handlers
	// below reschedule via state.EventQueue.Schedule, which pushes onto
	// this same queue — but since dispatch only ever walks the local `due`
	// slice, a reschedule landing at or before currentTime is not picked
	// back up this invocation; it waits for the next processGameState call.
	var due []*gamestate.ScheduledEvent
	for {
		e := state.EventQueue.PopDue(currentTime)
		if e == nil {
			break
		}
		due = append(due, e)
	}

	for _, e := range due {
		switch e.Kind {
		case gamestate.EventResourceTick:
			processResourceTick(l.cfg, state, currentTime)
		case gamestate.EventGameEnd:
			processGameEnd(state, currentTime)
		case gamestate.EventArmadaArrival:
			l.log.Debug().Msg("gameloop: dropping legacy armada_arrival event")
		default:
			l.log.Warn().Str("kind", string(e.Kind)).Msg("gameloop: dropping unknown event kind")
		}

		if state.Status == gamestate.StatusCompleted {
			break
		}
	}
}
