package game

import "math/rand"

// Randomizer is the injectable randomness capability used for the turn
// queue shuffle and owner reassignment, so tests can supply a
// deterministic sequence.
type Randomizer interface {
	Shuffle(n int, swap func(i, j int))
	Intn(n int) int
}

type systemRandomizer struct{}

func (systemRandomizer) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }
func (systemRandomizer) Intn(n int) int                     { return rand.Intn(n) }

// SystemRandomizer returns the math/rand backed randomizer.
func SystemRandomizer() Randomizer { return systemRandomizer{} }
