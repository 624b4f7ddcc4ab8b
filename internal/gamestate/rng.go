package gamestate

// RNGState is the persisted PRNG state (spec.md §3.3 rngSeed/rngState,
// §9 "RNG state as a first-class value"). It is a plain uint64 so the
// whole game record round-trips through JSON without any hidden global
// RNG: every call site threads the state explicitly.
type RNGState uint64

// NewRNGState seeds an RNGState from a signed seed (spec.md's rngSeed).
func NewRNGState(seed int64) RNGState {
	s := RNGState(uint64(seed))
	if s == 0 {
		s = 0x9E3779B97F4A7C15 // a zero seed starts from the splitmix64 increment
	}
	return s
}

// Next advances the PRNG by one step and returns the drawn value alongside
// the next state. It is a pure function: (state) -> (value, nextState),
// per spec.md §9 — no package-level rand.Source is ever consulted.
//
// The generator is splitmix64, chosen for exactly the property combat
// resolution needs: a cheap, well-distributed 64-bit step with no internal
// buffering, so persisting the 8-byte state is sufficient for exact replay.
func (s RNGState) Next() (value uint64, next RNGState) {
	z := uint64(s) + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z, RNGState(uint64(s) + 0x9E3779B97F4A7C15)
}

// Intn draws a value in [0, n) and returns the advanced state. n must be
// positive.
func (s RNGState) Intn(n int) (int, RNGState) {
	if n <= 0 {
		return 0, s
	}
	v, next := s.Next()
	return int(v % uint64(n)), next
}
