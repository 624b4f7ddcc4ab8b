// Package battle is the Battle Manager of spec.md §4.4: it resolves
// armada-arrival combat deterministically against the persisted RNG state
// and emits the replay/reinforcement/conquest/elimination events the Game
// Loop and Event Processor rely on.
package battle

import (
	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

// Manager is the Battle Manager. It holds no state of its own; every
// method operates on a gamestate.State passed by the caller (the Game
// Loop), the same "no hidden state" shape the teacher's game package
// gives combat helpers like ApplyDamageWithShields.
type Manager struct {
	log zerolog.Logger
}

// New returns a Battle Manager that logs through log.
func New(log zerolog.Logger) *Manager {
	return &Manager{log: log}
}

// HandleArmadaArrival resolves the armada identified by id against its
// destination planet, exactly once (spec.md §4.4). The armada must already
// be known to have arrived; callers (Game Loop) are responsible for that
// check. A missing armada is a no-op (it may have already been resolved by
// a previous tick that raced this one under single-writer-per-game
// assumptions, spec.md §5).
func (m *Manager) HandleArmadaArrival(state *gamestate.State, id gamestate.ArmadaID) {
	armada := armadaByID(state, id)
	if armada == nil {
		return
	}
	state.RemoveArmada(id)

	planet := state.PlanetByID(armada.DestinationPlanetID)
	if planet == nil {
		m.log.Warn().Str("armadaId", string(id)).Msg("battle: destination planet no longer exists")
		return
	}

	if planet.OwnedBy(armada.OwnerSlot) {
		m.reinforce(state, planet, armada)
		return
	}
	m.fight(state, planet, armada)
}

func armadaByID(state *gamestate.State, id gamestate.ArmadaID) *gamestate.Armada {
	for _, a := range state.Armadas {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// reinforce implements the same-owner branch of spec.md §4.4: the arriving
// ships are simply added to the garrison.
func (m *Manager) reinforce(state *gamestate.State, planet *gamestate.Planet, armada *gamestate.Armada) {
	planet.Ships += armada.Ships
	state.RecentReinforcementEvents = append(state.RecentReinforcementEvents, gamestate.ReinforcementEvent{
		PlanetID: planet.ID,
		Ships:    armada.Ships,
		Owner:    armada.OwnerSlot,
	})
}

// fight implements the opposed-owner branch of spec.md §4.4: combat is
// resolved deterministically (§4.4.1), then ownership and elimination are
// updated according to the outcome.
func (m *Manager) fight(state *gamestate.State, planet *gamestate.Planet, armada *gamestate.Armada) {
	var defenderSlot *gamestate.PlayerSlot
	if !planet.IsNeutral() {
		s := *planet.OwnerSlot
		defenderSlot = &s
	}

	result, nextRNG := Resolve(state.RNGState, armada.Ships, planet.Ships)
	state.RNGState = nextRNG

	replay := gamestate.BattleReplayEntry{
		AttackerSlot:      armada.OwnerSlot,
		DefenderSlot:      defenderSlot,
		PlanetID:          planet.ID,
		AttackerStart:     armada.Ships,
		DefenderStart:     planet.Ships,
		Rounds:            result.Rounds,
		AttackerSurvivors: result.AttackerSurvivors,
		DefenderSurvivors: result.DefenderSurvivors,
		Conquered:         result.AttackerWins,
	}
	state.RecentBattleReplays = append(state.RecentBattleReplays, replay)

	if result.AttackerWins {
		previousOwner := defenderSlot
		planet.OwnerSlot = slotPtr(armada.OwnerSlot)
		planet.Ships = result.AttackerSurvivors

		state.RecentConquestEvents = append(state.RecentConquestEvents, gamestate.ConquestEvent{
			PlanetID:       planet.ID,
			PreviousOwner:  previousOwner,
			NewOwner:       armada.OwnerSlot,
			SurvivingShips: result.AttackerSurvivors,
		})

		if previousOwner != nil && !state.HasPresence(*previousOwner) {
			if !state.EliminatedPlayers[*previousOwner] {
				state.EliminatedPlayers[*previousOwner] = true
				state.RecentPlayerEliminationEvents = append(state.RecentPlayerEliminationEvents, gamestate.PlayerEliminationEvent{
					Slot: *previousOwner,
				})
			}
		}
		return
	}

	planet.Ships = result.DefenderSurvivors
}

func slotPtr(s gamestate.PlayerSlot) *gamestate.PlayerSlot { return &s }

// CheckGameEnd runs the opportunistic last-player-standing short-circuit
// spec.md §4.4 step 3 calls for after any arrival, mirroring the fuller
// scheduled check in gameloop's game_end handler.
func (m *Manager) CheckGameEnd(state *gamestate.State, currentTime int64) {
	if state.Status == gamestate.StatusCompleted {
		return
	}
	remaining := remainingPlayers(state)
	if len(remaining) == 1 {
		slot := remaining[0]
		name := playerName(state, slot)
		state.EndResult = gamestate.WinnerResult(slot, name)
		state.Status = gamestate.StatusCompleted
	}
}

func remainingPlayers(state *gamestate.State) []gamestate.PlayerSlot {
	var out []gamestate.PlayerSlot
	for _, slot := range state.NonEliminatedPlayers() {
		if state.HasPresence(slot) {
			out = append(out, slot)
		}
	}
	return out
}

func playerName(state *gamestate.State, slot gamestate.PlayerSlot) string {
	for _, p := range state.Players {
		if p.SlotIndex == slot {
			return p.Name
		}
	}
	return ""
}
