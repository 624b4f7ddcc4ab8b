package gamestate

// State is the in-memory model of a single match (spec.md §3.3). It is
// mutated only by Game Loop, Battle Manager, AI Driver and player-action
// handlers (external); nothing here performs I/O.
type State struct {
	Status           Status  `json:"status"`
	StartTime        int64   `json:"startTime"`
	DurationMinutes  int     `json:"durationMinutes"`
	LastUpdateTime   int64   `json:"lastUpdateTime"`

	Players []Player `json:"players"`

	Planets []*Planet `json:"planets"`
	Armadas []*Armada `json:"armadas"`

	PlayerResources map[PlayerSlot]float64 `json:"playerResources"`
	EliminatedPlayers map[PlayerSlot]bool  `json:"eliminatedPlayers"`
	AILastDecisionTime map[PlayerSlot]int64 `json:"aiLastDecisionTime"`

	EventQueue *EventQueue `json:"eventQueue"`

	// Ephemeral event buffers, cleared on successful broadcast (spec.md §3.3).
	RecentBattleReplays           []BattleReplayEntry        `json:"recentBattleReplays"`
	RecentReinforcementEvents     []ReinforcementEvent        `json:"recentReinforcementEvents"`
	RecentConquestEvents          []ConquestEvent              `json:"recentConquestEvents"`
	RecentPlayerEliminationEvents []PlayerEliminationEvent     `json:"recentPlayerEliminationEvents"`

	RNGSeed  int64    `json:"rngSeed"`
	RNGState RNGState `json:"rngState"`

	EndResult EndResult `json:"endResult"`

	ProductionRate     float64 `json:"productionRate"`
	ArmadaSpeed        float64 `json:"armadaSpeed"`
	NeutralPlanetCount int     `json:"neutralPlanetCount"`
}

// New returns an empty, otherwise-zeroed State with its collections
// initialised; callers (the external PENDING->ACTIVE initializer) are
// expected to populate Players/Planets/configuration afterwards.
func New(seed int64) *State {
	return &State{
		Status:             StatusActive,
		PlayerResources:    make(map[PlayerSlot]float64),
		EliminatedPlayers:  make(map[PlayerSlot]bool),
		AILastDecisionTime: make(map[PlayerSlot]int64),
		EventQueue:         NewEventQueue(),
		RNGSeed:            seed,
		RNGState:           NewRNGState(seed),
		EndResult:          NoEndResult(),
	}
}

// PlanetByID returns the planet with the given id, or nil.
func (s *State) PlanetByID(id PlanetID) *Planet {
	for _, p := range s.Planets {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlanetsOwnedBy returns all planets currently owned by slot.
func (s *State) PlanetsOwnedBy(slot PlayerSlot) []*Planet {
	var out []*Planet
	for _, p := range s.Planets {
		if p.OwnedBy(slot) {
			out = append(out, p)
		}
	}
	return out
}

// ArmadasOwnedBy returns all in-flight armadas owned by slot.
func (s *State) ArmadasOwnedBy(slot PlayerSlot) []*Armada {
	var out []*Armada
	for _, a := range s.Armadas {
		if a.OwnerSlot == slot {
			out = append(out, a)
		}
	}
	return out
}

// HasPresence reports whether slot owns at least one planet or has at
// least one armada in flight (spec.md §4.3.2 / §4.4 elimination check).
func (s *State) HasPresence(slot PlayerSlot) bool {
	for _, p := range s.Planets {
		if p.OwnedBy(slot) {
			return true
		}
	}
	for _, a := range s.Armadas {
		if a.OwnerSlot == slot {
			return true
		}
	}
	return false
}

// RemoveArmada deletes the armada with id from the in-flight list, if
// present.
func (s *State) RemoveArmada(id ArmadaID) {
	for i, a := range s.Armadas {
		if a.ID == id {
			s.Armadas = append(s.Armadas[:i], s.Armadas[i+1:]...)
			return
		}
	}
}

// NonEliminatedPlayers returns the slots of every player not currently
// marked eliminated.
func (s *State) NonEliminatedPlayers() []PlayerSlot {
	var out []PlayerSlot
	for _, p := range s.Players {
		if !s.EliminatedPlayers[p.SlotIndex] {
			out = append(out, p.SlotIndex)
		}
	}
	return out
}

// ClearEphemeralBuffers empties the recent-event buffers. Must be called
// strictly after the snapshot used for broadcast is taken and strictly
// before that snapshot is reused for the next save (spec.md §5).
func (s *State) ClearEphemeralBuffers() {
	s.RecentBattleReplays = nil
	s.RecentReinforcementEvents = nil
	s.RecentConquestEvents = nil
	s.RecentPlayerEliminationEvents = nil
}

// Clone returns a deep copy of the state, used by the Event Processor to
// take the broadcast snapshot without aliasing slices or maps.
func (s *State) Clone() *State {
	out := *s

	out.Players = append([]Player(nil), s.Players...)

	out.Planets = make([]*Planet, len(s.Planets))
	for i, p := range s.Planets {
		cp := *p
		out.Planets[i] = &cp
	}

	out.Armadas = make([]*Armada, len(s.Armadas))
	for i, a := range s.Armadas {
		cp := *a
		out.Armadas[i] = &cp
	}

	out.PlayerResources = cloneFloatMap(s.PlayerResources)
	out.EliminatedPlayers = cloneBoolMap(s.EliminatedPlayers)
	out.AILastDecisionTime = cloneIntMap(s.AILastDecisionTime)

	eq := NewEventQueue()
	eq.Restore(s.EventQueue.Snapshot())
	out.EventQueue = eq

	out.RecentBattleReplays = append([]BattleReplayEntry(nil), s.RecentBattleReplays...)
	out.RecentReinforcementEvents = append([]ReinforcementEvent(nil), s.RecentReinforcementEvents...)
	out.RecentConquestEvents = append([]ConquestEvent(nil), s.RecentConquestEvents...)
	out.RecentPlayerEliminationEvents = append([]PlayerEliminationEvent(nil), s.RecentPlayerEliminationEvents...)

	return &out
}

func cloneFloatMap(m map[PlayerSlot]float64) map[PlayerSlot]float64 {
	out := make(map[PlayerSlot]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBoolMap(m map[PlayerSlot]bool) map[PlayerSlot]bool {
	out := make(map[PlayerSlot]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneIntMap(m map[PlayerSlot]int64) map[PlayerSlot]int64 {
	out := make(map[PlayerSlot]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
