package battle

import "github.com/lab1702/galactic-conflict/internal/gamestate"

// Result is the outcome of one resolved combat (spec.md §4.4.1).
type Result struct {
	Rounds            []gamestate.BattleRound
	AttackerSurvivors int
	DefenderSurvivors int
	AttackerWins      bool
}

// diceSides is the number of faces on each round's die. Every round costs
// exactly one ship, so a battle lasts until one side's ships run out;
// diceSides only sets how often rolls tie (1 in diceSides), and ties go to
// the defender.
const diceSides = 6

// Resolve runs the minimal reference rule spec.md §4.4.1 allows: round by
// round, both sides roll a die, the lower roll takes one casualty (ties
// favour the defender), until one side reaches zero. It is deterministic
// given rngState and advances the RNG monotonically, matching the
// requirements of §4.4.1 exactly (same inputs, same replay, same next
// state).
func Resolve(rngState gamestate.RNGState, attackerShips, defenderShips int) (Result, gamestate.RNGState) {
	attacker, defender := attackerShips, defenderShips
	var rounds []gamestate.BattleRound

	for attacker > 0 && defender > 0 {
		var aRoll, dRoll int
		aRoll, rngState = rngState.Intn(diceSides)
		dRoll, rngState = rngState.Intn(diceSides)
		aRoll++
		dRoll++

		round := gamestate.BattleRound{AttackerRoll: aRoll, DefenderRoll: dRoll}
		switch {
		case aRoll > dRoll:
			defender--
			round.DefenderCasualty = 1
		default: // tie favours the defender
			attacker--
			round.AttackerCasualty = 1
		}
		rounds = append(rounds, round)
	}

	return Result{
		Rounds:            rounds,
		AttackerSurvivors: attacker,
		DefenderSurvivors: defender,
		AttackerWins:      defender == 0 && attacker > 0,
	}, rngState
}
