// Package ai is the AI Driver of spec.md §4.5: per-AI-player decision
// policy (attack/build) under difficulty-parameterised thresholds and
// cooldowns, executed against a gamestate.State snapshot.
package ai

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/config"
	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

// Driver is the AI Driver.
type Driver struct {
	cfg *config.Config
	log zerolog.Logger
}

// New returns an AI Driver parameterised by cfg.AI (spec.md §4.5 table).
func New(cfg *config.Config, log zerolog.Logger) *Driver {
	return &Driver{cfg: cfg, log: log}
}

// decisionKind tags the AI decision sum type of spec.md §9
// ("{SendArmada{...} | BuildShips{...} | Wait}").
type decisionKind int

const (
	decisionWait decisionKind = iota
	decisionAttack
	decisionBuild
)

type decision struct {
	kind decisionKind

	// attack
	source      *gamestate.Planet
	target      *gamestate.Planet
	shipsToSend int

	// build
	buildPlanet *gamestate.Planet
	shipsToBuild int
}

// ProcessAITurns runs the AI Driver for every non-eliminated AI player
// whose cooldown has elapsed, at the given currentTime (spec.md §4.5).
func (d *Driver) ProcessAITurns(state *gamestate.State, currentTime int64) {
	for _, p := range state.Players {
		if !p.IsAI || state.EliminatedPlayers[p.SlotIndex] {
			continue
		}
		params, ok := d.cfg.AI[config.Difficulty(p.Difficulty)]
		if !ok {
			d.log.Warn().Str("difficulty", string(p.Difficulty)).Msg("ai: unknown difficulty, skipping")
			continue
		}
		last := state.AILastDecisionTime[p.SlotIndex]
		if currentTime-last < params.CooldownMs {
			continue
		}

		acted := d.takeTurn(state, p.SlotIndex, config.Difficulty(p.Difficulty), params, currentTime)
		if acted {
			state.AILastDecisionTime[p.SlotIndex] = currentTime
		}
	}
}

func (d *Driver) takeTurn(state *gamestate.State, slot gamestate.PlayerSlot, difficulty config.Difficulty, params config.AIParams, currentTime int64) bool {
	attack := d.evaluateAttack(state, slot, params, difficulty)
	build := d.evaluateBuild(state, slot, params)

	hard := difficulty == config.Hard
	var order []decision
	if hard {
		if attack.kind == decisionWait {
			attack = d.evaluateFallbackAttack(state, slot, params)
		}
		order = []decision{attack, build}
	} else if anySourceMeetsThreshold(state, slot, params) {
		order = []decision{attack, build}
	} else {
		order = []decision{build, attack}
	}

	acted := false
	for _, dec := range order {
		if d.execute(state, slot, dec, currentTime) {
			acted = true
		}
	}
	return acted
}

func anySourceMeetsThreshold(state *gamestate.State, slot gamestate.PlayerSlot, params config.AIParams) bool {
	for _, p := range state.PlanetsOwnedBy(slot) {
		if p.Ships >= params.AttackMinSourceShips {
			return true
		}
	}
	return false
}

// evaluateAttack implements the AttackStrategy of spec.md §4.5.
func (d *Driver) evaluateAttack(state *gamestate.State, slot gamestate.PlayerSlot, params config.AIParams, difficulty config.Difficulty) decision {
	sources := sourceCandidates(state, slot, params.AttackMinSourceShips)
	if len(sources) == 0 && difficulty == config.Hard {
		sources = sourceCandidates(state, slot, 2)
	}
	if len(sources) == 0 {
		return decision{kind: decisionWait}
	}

	source := strongest(sources)
	target := bestTarget(state, slot, source, params.AttackMinAdvantage)
	if target == nil {
		return decision{kind: decisionWait}
	}

	shipsToSend := shipsToSendFor(source, target, params)
	if shipsToSend < params.AttackMinShipsToSend {
		return decision{kind: decisionWait}
	}

	return decision{kind: decisionAttack, source: source, target: target, shipsToSend: shipsToSend}
}

// evaluateFallbackAttack implements hard difficulty's fallback attack of
// spec.md §4.5: strongest planet vs weakest viable foreign planet.
func (d *Driver) evaluateFallbackAttack(state *gamestate.State, slot gamestate.PlayerSlot, params config.AIParams) decision {
	sources := state.PlanetsOwnedBy(slot)
	if len(sources) == 0 {
		return decision{kind: decisionWait}
	}
	source := strongest(sources)

	var best *gamestate.Planet
	for _, p := range state.Planets {
		if p.OwnedBy(slot) {
			continue
		}
		shipsToSend := p.Ships
		if shipsToSend < 1 {
			shipsToSend = 1
		}
		if shipsToSend > source.Ships-params.AttackDefenseBuffer {
			continue
		}
		if best == nil || p.Ships < best.Ships {
			best = p
		}
	}
	if best == nil {
		return decision{kind: decisionWait}
	}
	shipsToSend := best.Ships
	if shipsToSend < 1 {
		shipsToSend = 1
	}
	return decision{kind: decisionAttack, source: source, target: best, shipsToSend: shipsToSend}
}

func sourceCandidates(state *gamestate.State, slot gamestate.PlayerSlot, minShips int) []*gamestate.Planet {
	var out []*gamestate.Planet
	for _, p := range state.PlanetsOwnedBy(slot) {
		if p.Ships >= minShips {
			out = append(out, p)
		}
	}
	return out
}

func strongest(planets []*gamestate.Planet) *gamestate.Planet {
	best := planets[0]
	for _, p := range planets[1:] {
		if p.Ships > best.Ships {
			best = p
		}
	}
	return best
}

// bestTarget scores every enemy/neutral planet per spec.md §4.5's formula
// and returns the highest-scoring one meeting the advantage requirement.
func bestTarget(state *gamestate.State, slot gamestate.PlayerSlot, source *gamestate.Planet, minAdvantage int) *gamestate.Planet {
	var best *gamestate.Planet
	bestScore := math.Inf(-1)
	for _, p := range state.Planets {
		if p.OwnedBy(slot) {
			continue
		}
		if source.Ships <= p.Ships+minAdvantage {
			continue
		}
		score := targetScore(source, p)
		if score > bestScore {
			bestScore = score
			best = p
		}
	}
	return best
}

func targetScore(source, target *gamestate.Planet) float64 {
	neutralBonus := 0.0
	if target.IsNeutral() {
		neutralBonus = 20
	}
	distance := math.Hypot(source.Position.X-target.Position.X, source.Position.Y-target.Position.Y)
	return -10*float64(target.Ships) + neutralBonus - distance/10 + target.Volume/5
}

func shipsToSendFor(source, target *gamestate.Planet, params config.AIParams) int {
	available := source.Ships - params.AttackDefenseBuffer
	floor := params.AttackMinShipsToSend
	scaled := int(1.5*float64(target.Ships)) + params.AttackMinAdvantage
	if scaled > floor {
		floor = scaled
	}
	if floor > available {
		return available
	}
	return floor
}

// evaluateBuild implements the BuildStrategy of spec.md §4.5.
func (d *Driver) evaluateBuild(state *gamestate.State, slot gamestate.PlayerSlot, params config.AIParams) decision {
	resources := state.PlayerResources[slot]
	if resources < d.cfg.ShipCost*params.BuildResourceMultiplier {
		return decision{kind: decisionWait}
	}

	owned := state.PlanetsOwnedBy(slot)
	if len(owned) == 0 {
		return decision{kind: decisionWait}
	}

	candidates := make([]*gamestate.Planet, 0, len(owned))
	for _, p := range owned {
		if p.Ships <= params.BuildMinShipsOnPlanet {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 || len(owned) == 1 {
		candidates = owned
	}

	target := candidates[0]
	for _, p := range candidates[1:] {
		if p.Ships < target.Ships {
			target = p
		}
	}

	shipsToBuild := int(resources / d.cfg.ShipCost)
	if shipsToBuild > params.BuildMaxBuildAtOnce {
		shipsToBuild = params.BuildMaxBuildAtOnce
	}
	if shipsToBuild < 1 {
		return decision{kind: decisionWait}
	}

	return decision{kind: decisionBuild, buildPlanet: target, shipsToBuild: shipsToBuild}
}

// execute runs the Decision Executor of spec.md §4.5 for a single
// decision, applying it directly to state.
func (d *Driver) execute(state *gamestate.State, slot gamestate.PlayerSlot, dec decision, currentTime int64) bool {
	switch dec.kind {
	case decisionAttack:
		return d.executeSendArmada(state, slot, dec, currentTime)
	case decisionBuild:
		return d.executeBuildShips(state, dec)
	default:
		return false
	}
}

func (d *Driver) executeSendArmada(state *gamestate.State, slot gamestate.PlayerSlot, dec decision, currentTime int64) bool {
	if dec.shipsToSend <= 0 || dec.shipsToSend > dec.source.Ships {
		return false
	}
	dec.source.Ships -= dec.shipsToSend

	speed := state.ArmadaSpeed
	if speed == 0 {
		speed = d.cfg.DefaultArmadaSpeed
	}
	distance := math.Hypot(dec.source.Position.X-dec.target.Position.X, dec.source.Position.Y-dec.target.Position.Y)
	travel := int64(distance / speed)
	if travel < d.cfg.MinArmadaTravelTimeMs {
		travel = d.cfg.MinArmadaTravelTimeMs
	}

	state.Armadas = append(state.Armadas, &gamestate.Armada{
		ID:                  newArmadaID(),
		OwnerSlot:           slot,
		Ships:               dec.shipsToSend,
		SourcePlanetID:      dec.source.ID,
		DestinationPlanetID: dec.target.ID,
		DepartureTime:       currentTime,
		ArrivalTime:         currentTime + travel,
	})
	return true
}

func (d *Driver) executeBuildShips(state *gamestate.State, dec decision) bool {
	cost := float64(dec.shipsToBuild) * d.cfg.ShipCost
	slot := ownerOf(dec.buildPlanet)
	if slot == nil || state.PlayerResources[*slot] < cost {
		return false
	}
	state.PlayerResources[*slot] -= cost
	dec.buildPlanet.Ships += dec.shipsToBuild
	return true
}

func ownerOf(p *gamestate.Planet) *gamestate.PlayerSlot { return p.OwnerSlot }
