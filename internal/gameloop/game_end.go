package gameloop

import "github.com/lab1702/galactic-conflict/internal/gamestate"

// processGameEnd implements spec.md §4.3.2: the scheduled time-limit check.
// A no-op if the game already completed (e.g. via the Battle Manager's
// opportunistic last-player-standing check).
func processGameEnd(state *gamestate.State, _ int64) {
	if state.Status == gamestate.StatusCompleted {
		return
	}

	remaining := presentNonEliminatedPlayers(state)
	switch len(remaining) {
	case 1:
		slot := remaining[0]
		state.EndResult = gamestate.WinnerResult(slot, nameOf(state, slot))
	default:
		state.EndResult = gamestate.DrawnGame()
	}
	state.Status = gamestate.StatusCompleted
}

func presentNonEliminatedPlayers(state *gamestate.State) []gamestate.PlayerSlot {
	var out []gamestate.PlayerSlot
	for _, slot := range state.NonEliminatedPlayers() {
		if state.HasPresence(slot) {
			out = append(out, slot)
		}
	}
	return out
}

func nameOf(state *gamestate.State, slot gamestate.PlayerSlot) string {
	for _, p := range state.Players {
		if p.SlotIndex == slot {
			return p.Name
		}
	}
	return ""
}
