package battle

import (
	"testing"

	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

func TestResolveDeterministic(t *testing.T) {
	seed := gamestate.NewRNGState(42)

	r1, next1 := Resolve(seed, 20, 5)
	r2, next2 := Resolve(seed, 20, 5)

	if r1.AttackerSurvivors != r2.AttackerSurvivors || r1.DefenderSurvivors != r2.DefenderSurvivors {
		t.Fatalf("same seed produced different outcomes: %+v vs %+v", r1, r2)
	}
	if len(r1.Rounds) != len(r2.Rounds) {
		t.Fatalf("same seed produced different round counts: %d vs %d", len(r1.Rounds), len(r2.Rounds))
	}
	if next1 != next2 {
		t.Fatalf("same seed produced different next RNG state")
	}
}

func TestResolveBounded(t *testing.T) {
	seed := gamestate.NewRNGState(7)
	result, _ := Resolve(seed, 30, 12)

	total := result.AttackerSurvivors + result.DefenderSurvivors
	if total > 30+12 {
		t.Fatalf("casualties exceeded starting forces: survivors=%d, started with %d", total, 42)
	}
	if result.AttackerSurvivors < 0 || result.DefenderSurvivors < 0 {
		t.Fatalf("negative survivor count: %+v", result)
	}
	if result.AttackerSurvivors > 0 && result.DefenderSurvivors > 0 {
		t.Fatalf("combat ended without a decisive side: %+v", result)
	}
}

func TestResolveZeroDefenderIsUncontested(t *testing.T) {
	seed := gamestate.NewRNGState(1)
	result, next := Resolve(seed, 5, 0)

	if !result.AttackerWins {
		t.Fatalf("attacker should win uncontested against a zero-garrison planet")
	}
	if result.AttackerSurvivors != 5 {
		t.Fatalf("attacker should take no casualties against a zero-garrison planet, got %d survivors", result.AttackerSurvivors)
	}
	if len(result.Rounds) != 0 {
		t.Fatalf("expected zero rounds against a zero-garrison planet, got %d", len(result.Rounds))
	}
	if next != seed {
		t.Fatalf("RNG state should not advance when no dice are rolled")
	}
}

func TestResolveMonotonicAdvantage(t *testing.T) {
	seed := gamestate.NewRNGState(99)

	weak, _ := Resolve(seed, 6, 20)
	strong, _ := Resolve(seed, 40, 20)

	if weak.AttackerWins && !strong.AttackerWins {
		t.Fatalf("more attackers against the same defenders should not turn a win into a loss")
	}
}
