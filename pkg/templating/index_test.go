package templating

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionIsRecordedOnce(t *testing.T) {
	idx := NewIndexContext(rand.New(rand.NewSource(7)))

	_, ok := idx.Lookup("slot1")
	assert.False(t, ok)

	first := idx.Position("slot1", 5)
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 5)

	for i := 0; i < 20; i++ {
		assert.Equal(t, first, idx.Position("slot1", 5))
	}
	recorded, ok := idx.Lookup("slot1")
	assert.True(t, ok)
	assert.Equal(t, first, recorded)
	assert.Equal(t, 1, idx.Len())
}

func TestPositionBounds(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		idx := NewIndexContext(rand.New(rand.NewSource(seed)))
		position := idx.Position("k", 3)
		assert.True(t, position >= 0 && position <= 2, "position %d out of [0, 2]", position)
	}
}

func TestContextsAreIndependent(t *testing.T) {
	a := NewIndexContext(nil)
	b := NewIndexContext(nil)

	a.Position("slot1", 10)
	_, ok := b.Lookup("slot1")
	assert.False(t, ok)
}
