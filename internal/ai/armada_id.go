package ai

import (
	"github.com/google/uuid"

	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

// newArmadaID mints an opaque, unique-per-game armada id (spec.md §3:
// "ArmadaId is an opaque string, unique per game").
func newArmadaID() gamestate.ArmadaID {
	return gamestate.ArmadaID(uuid.NewString())
}
