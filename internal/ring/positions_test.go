package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionTree_RangeQueries(t *testing.T) {
	t.Parallel()
	tree := newPositionTree[int]()
	for _, v := range []int{10, 20, 30, 40} {
		tree.put(Position([]byte{byte(v)}), v)
	}
	pos := func(v int) Position { return Position([]byte{byte(v)}) }

	assert.Equal(t, 4, tree.len())
	assert.Equal(t, []int{10, 20, 30, 40}, tree.values())
	assert.Equal(t, []int{20, 30}, tree.between(nil, pos(10), pos(30)))
	assert.Equal(t, []int{20, 30}, tree.between(nil, pos(15), pos(35)))
	assert.Empty(t, tree.between(nil, pos(40), pos(50)))
	assert.Equal(t, []int{10, 20}, tree.head(nil, pos(20)))
	assert.Empty(t, tree.head(nil, pos(5)))
	assert.Equal(t, []int{30, 40}, tree.tail(nil, pos(20)))
	assert.Empty(t, tree.tail(nil, pos(40)))

	lower, ok := tree.lower(pos(30))
	assert.True(t, ok)
	assert.Equal(t, pos(20), lower)
	lower, ok = tree.lower(pos(25))
	assert.True(t, ok)
	assert.Equal(t, pos(20), lower)
	_, ok = tree.lower(pos(10))
	assert.False(t, ok)

	last, ok := tree.last()
	assert.True(t, ok)
	assert.Equal(t, pos(40), last)

	v, ok := tree.ceilingOrFirst(pos(41))
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	v, ok = tree.ceilingOrFirst(pos(11))
	assert.True(t, ok)
	assert.Equal(t, 20, v)

	tree.remove(pos(20))
	assert.Equal(t, []int{10, 30, 40}, tree.values())
}

func TestPositionTree_UnsignedOrder(t *testing.T) {
	t.Parallel()
	tree := newPositionTree[string]()
	tree.put(Position([]byte{0xff}), "high")
	tree.put(Position([]byte{0x01}), "low")
	tree.put(Position([]byte{0x7f}), "mid")
	assert.Equal(t, []string{"low", "mid", "high"}, tree.values())
}

func TestPositionTree_Empty(t *testing.T) {
	t.Parallel()
	tree := newPositionTree[int]()
	_, ok := tree.last()
	assert.False(t, ok)
	_, ok = tree.lower("x")
	assert.False(t, ok)
	_, ok = tree.ceilingOrFirst("x")
	assert.False(t, ok)
	assert.Empty(t, tree.values())
}
