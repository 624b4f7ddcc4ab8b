package gameloop

import (
	"github.com/lab1702/galactic-conflict/internal/config"
	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

// processResourceTick implements spec.md §4.3.1: every non-eliminated
// player's resource pool grows proportionally to the total volume of
// planets they currently own, and the next tick is rescheduled.
func processResourceTick(cfg *config.Config, state *gamestate.State, currentTime int64) {
	rate := state.ProductionRate
	if rate == 0 {
		rate = cfg.DefaultProductionRate
	}

	for _, slot := range state.NonEliminatedPlayers() {
		totalVolume := 0.0
		for _, p := range state.PlanetsOwnedBy(slot) {
			totalVolume += p.Volume
		}
		delta := totalVolume * rate / cfg.ResourceUpdatesPerMin
		state.PlayerResources[slot] += delta
	}

	state.EventQueue.Schedule(gamestate.EventResourceTick, currentTime+cfg.ResourceTickIntervalMs)
}
