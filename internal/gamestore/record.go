// Package gamestore is the typed persistence layer of spec.md §4.1: game
// records and their derived open/active indices, built on top of the
// abstract kv.Store. It owns optimistic locking, the index caches
// (Cache Coordinator, spec.md §4.2) and the append-only stats counters
// (Stats Service, spec.md §2).
package gamestore

import (
	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

// PlayerSlotConfig is one configured-but-not-yet-filled (or filled) seat
// in a pending game (spec.md §3.1 pendingConfiguration.playerSlots).
type PlayerSlotConfig struct {
	SlotIndex  gamestate.PlayerSlot     `json:"slotIndex"`
	Filled     bool                     `json:"filled"`
	Player     *gamestate.Player        `json:"player,omitempty"`
}

// PendingConfiguration enumerates player slots and game settings for a
// PENDING record (spec.md §3.1).
type PendingConfiguration struct {
	PlayerSlots     []PlayerSlotConfig `json:"playerSlots"`
	MaxPlayers      int                `json:"maxPlayers"`
	GameType        gamestate.GameType `json:"gameType"`
	AllowStartEarly bool               `json:"allowStartEarly"`
}

// OpenSlotCount returns how many configured slots are not yet filled.
func (p *PendingConfiguration) OpenSlotCount() int {
	n := 0
	for _, s := range p.PlayerSlots {
		if !s.Filled {
			n++
		}
	}
	return n
}

// Record is the persisted unit of spec.md §3.1.
type Record struct {
	GameID       string             `json:"gameId"`
	Status       gamestate.Status   `json:"status"`
	GameType     gamestate.GameType `json:"gameType"`
	Players      []gamestate.Player `json:"players"`

	GameState            *gamestate.State      `json:"gameState,omitempty"`
	PendingConfiguration *PendingConfiguration `json:"pendingConfiguration,omitempty"`

	CreatedAt    int64 `json:"createdAt"`
	LastUpdateAt int64 `json:"lastUpdateAt"` // doubles as the optimistic-lock version token
}

// Valid checks the structural invariants of spec.md §3.1.
func (r *Record) Valid() bool {
	switch r.Status {
	case gamestate.StatusPending:
		return r.GameState == nil && r.PendingConfiguration != nil && len(r.PendingConfiguration.PlayerSlots) > 0
	case gamestate.StatusActive, gamestate.StatusCompleted:
		return r.GameState != nil && r.PendingConfiguration == nil
	default:
		return false
	}
}
