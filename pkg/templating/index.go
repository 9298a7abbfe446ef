package templating

import (
	"math/rand"
	"time"
)

// IndexContext coordinates picks within one document instantiation. Once a
// key has a position, every later lookup of that key returns the same
// position. It also carries the instantiation's random source.
//
// An IndexContext belongs to a single goroutine and is not safe for
// concurrent use.
type IndexContext struct {
	positions map[string]int
	rng       *rand.Rand
}

// NewIndexContext returns an empty context drawing from rng. A nil rng is
// replaced by a time seeded source.
func NewIndexContext(rng *rand.Rand) *IndexContext {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &IndexContext{
		positions: make(map[string]int),
		rng:       rng,
	}
}

func (ic *IndexContext) Lookup(key string) (int, bool) {
	position, ok := ic.positions[key]
	return position, ok
}

// Position returns the position recorded under key, drawing and recording a
// uniform position in [0, count) first if there is none.
func (ic *IndexContext) Position(key string, count int) int {
	if position, ok := ic.positions[key]; ok {
		return position
	}
	position := ic.rng.Intn(count)
	ic.positions[key] = position
	return position
}

// Intn draws a uniform integer in [0, n).
func (ic *IndexContext) Intn(n int) int {
	return ic.rng.Intn(n)
}

func (ic *IndexContext) Len() int {
	return len(ic.positions)
}
