package battle

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

func newTestState() *gamestate.State {
	s := gamestate.New(1)
	slot1, slot2 := gamestate.PlayerSlot(1), gamestate.PlayerSlot(2)
	s.Players = []gamestate.Player{
		{SlotIndex: slot1, Name: "alice"},
		{SlotIndex: slot2, Name: "bob"},
	}
	return s
}

func TestHandleArmadaArrivalReinforcement(t *testing.T) {
	s := newTestState()
	slot1 := gamestate.PlayerSlot(1)
	planet := &gamestate.Planet{ID: 1, OwnerSlot: &slot1, Ships: 3}
	s.Planets = []*gamestate.Planet{planet}
	armada := &gamestate.Armada{ID: "a1", OwnerSlot: slot1, Ships: 2, DestinationPlanetID: 1, ArrivalTime: 100}
	s.Armadas = []*gamestate.Armada{armada}

	m := New(zerolog.Nop())
	m.HandleArmadaArrival(s, "a1")

	if planet.Ships != 5 {
		t.Fatalf("expected 5 ships after reinforcement, got %d", planet.Ships)
	}
	if len(s.Armadas) != 0 {
		t.Fatalf("expected armada to be removed, got %d remaining", len(s.Armadas))
	}
	if len(s.RecentReinforcementEvents) != 1 {
		t.Fatalf("expected one reinforcement event, got %d", len(s.RecentReinforcementEvents))
	}
	ev := s.RecentReinforcementEvents[0]
	if ev.PlanetID != 1 || ev.Ships != 2 || ev.Owner != slot1 {
		t.Fatalf("unexpected reinforcement event: %+v", ev)
	}
}

func TestHandleArmadaArrivalEliminatesLastPlanetOwner(t *testing.T) {
	s := newTestState()
	slot1, slot2 := gamestate.PlayerSlot(1), gamestate.PlayerSlot(2)
	planet := &gamestate.Planet{ID: 1, OwnerSlot: &slot2, Ships: 0}
	s.Planets = []*gamestate.Planet{planet}
	armada := &gamestate.Armada{ID: "a1", OwnerSlot: slot1, Ships: 5, DestinationPlanetID: 1, ArrivalTime: 100}
	s.Armadas = []*gamestate.Armada{armada}

	m := New(zerolog.Nop())
	m.HandleArmadaArrival(s, "a1")

	if !planet.OwnedBy(slot1) {
		t.Fatalf("expected slot1 to own the planet after conquest")
	}
	if planet.Ships != 5 {
		t.Fatalf("expected all 5 attackers to survive an uncontested conquest, got %d", planet.Ships)
	}
	if !s.EliminatedPlayers[slot2] {
		t.Fatalf("expected slot2 to be eliminated after losing its only planet")
	}
	if len(s.RecentPlayerEliminationEvents) != 1 || s.RecentPlayerEliminationEvents[0].Slot != slot2 {
		t.Fatalf("unexpected elimination events: %+v", s.RecentPlayerEliminationEvents)
	}
	if len(s.RecentConquestEvents) != 1 {
		t.Fatalf("expected one conquest event, got %d", len(s.RecentConquestEvents))
	}
}

func TestHandleArmadaArrivalDefenderHoldsWithSecondPlanet(t *testing.T) {
	s := newTestState()
	slot1, slot2 := gamestate.PlayerSlot(1), gamestate.PlayerSlot(2)
	contested := &gamestate.Planet{ID: 1, OwnerSlot: &slot2, Ships: 0}
	safe := &gamestate.Planet{ID: 2, OwnerSlot: &slot2, Ships: 4}
	s.Planets = []*gamestate.Planet{contested, safe}
	armada := &gamestate.Armada{ID: "a1", OwnerSlot: slot1, Ships: 5, DestinationPlanetID: 1, ArrivalTime: 100}
	s.Armadas = []*gamestate.Armada{armada}

	m := New(zerolog.Nop())
	m.HandleArmadaArrival(s, "a1")

	if s.EliminatedPlayers[slot2] {
		t.Fatalf("slot2 still owns a planet and should not be eliminated")
	}
}

func TestHandleArmadaArrivalUnknownArmadaIsNoop(t *testing.T) {
	s := newTestState()
	m := New(zerolog.Nop())
	m.HandleArmadaArrival(s, "missing")
}

func TestCheckGameEndDeclaresLastStanding(t *testing.T) {
	s := newTestState()
	slot1, slot2 := gamestate.PlayerSlot(1), gamestate.PlayerSlot(2)
	s.Planets = []*gamestate.Planet{{ID: 1, OwnerSlot: &slot1, Ships: 1}}
	s.EliminatedPlayers[slot2] = true

	m := New(zerolog.Nop())
	m.CheckGameEnd(s, 1000)

	if s.Status != gamestate.StatusCompleted {
		t.Fatalf("expected game to complete once one player remains")
	}
	if !s.EndResult.Equal(gamestate.WinnerResult(slot1, "alice")) {
		t.Fatalf("unexpected end result: %+v", s.EndResult)
	}
}
