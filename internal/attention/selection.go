package attention

import (
	"math/rand/v2"

	"github.com/nvandessel/atomspace/internal/models"
)

// Tournament picks items by repeated small tournaments. Each tournament
// samples Size entrants; with probability Pressure the highest-scoring one
// wins, otherwise a random entrant does. The randomness keeps selection from
// locking onto a fixed top set.
type Tournament struct {
	Size     int
	Pressure float64
	rng      *rand.Rand
}

// NewTournament creates a seeded tournament selector.
func NewTournament(size int, pressure float64, seed uint64) *Tournament {
	return &Tournament{
		Size:     max(size, 1),
		Pressure: pressure,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SelectIndices returns up to count distinct indices in [0, n), in the order
// they won their tournaments. score(i) ranks index i.
func (t *Tournament) SelectIndices(n, count int, score func(i int) float64) []int {
	if n <= 0 || count <= 0 {
		return nil
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}

	out := make([]int, 0, min(count, n))
	for len(out) < count && len(pool) > 0 {
		size := min(t.Size, len(pool))
		// Partial Fisher-Yates: the first size slots become the entrants.
		for i := 0; i < size; i++ {
			j := i + t.rng.IntN(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
		}

		winner := t.rng.IntN(size)
		if t.rng.Float64() < t.Pressure {
			winner = 0
			for i := 1; i < size; i++ {
				if score(pool[i]) > score(pool[winner]) {
					winner = i
				}
			}
		}

		out = append(out, pool[winner])
		pool[winner] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return out
}

// Importance scores an atom with the economy's importance formula.
func (e *Economy) Importance(a models.Atom) float64 {
	return e.cfg.Importance(a)
}

// ImportantAtoms selects up to count economy participants by tournament
// over importance.
func (e *Economy) ImportantAtoms(count int) []models.Atom {
	atoms := participants(e.store)
	idx := e.tournament.SelectIndices(len(atoms), count, func(i int) float64 {
		return e.cfg.Importance(atoms[i])
	})
	out := make([]models.Atom, len(idx))
	for i, j := range idx {
		out[i] = atoms[j]
	}
	return out
}
