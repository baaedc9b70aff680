package ring

import (
	"sync"

	"github.com/emirpasic/gods/trees/avltree"
	"github.com/emirpasic/gods/utils"
)

// Position is a hashed point on the ring. Positions compare as unsigned
// byte strings; the largest position wraps around to the smallest.
type Position string

// positionTree is an ordered map Position -> V safe for concurrent use.
// Every operation holds the tree lock only for its own duration.
type positionTree[V any] struct {
	mu   sync.RWMutex
	tree *avltree.Tree
}

func newPositionTree[V any]() *positionTree[V] {
	return &positionTree[V]{tree: avltree.NewWith(utils.StringComparator)}
}

func (t *positionTree[V]) put(p Position, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tree.Put(string(p), v)
}

func (t *positionTree[V]) remove(p Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tree.Remove(string(p))
}

func (t *positionTree[V]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree.Size()
}

// lower returns the greatest position strictly less than p.
func (t *positionTree[V]) lower(p Position) (Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, found := t.tree.Floor(string(p))
	if !found {
		return "", false
	}
	if n.Key.(string) == string(p) {
		n = n.Prev()
		if n == nil {
			return "", false
		}
	}
	return Position(n.Key.(string)), true
}

// last returns the greatest position.
func (t *positionTree[V]) last() (Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.tree.Right()
	if n == nil {
		return "", false
	}
	return Position(n.Key.(string)), true
}

// ceilingOrFirst returns the value at the smallest position >= p, wrapping
// to the first entry when p is past the last one.
func (t *positionTree[V]) ceilingOrFirst(p Position) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, found := t.tree.Ceiling(string(p))
	if !found {
		n = t.tree.Left()
	}
	if n == nil {
		var zero V
		return zero, false
	}
	return n.Value.(V), true
}

// between appends the values with positions in (lo, hi].
func (t *positionTree[V]) between(dst []V, lo, hi Position) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, found := t.tree.Ceiling(string(lo))
	if !found {
		return dst
	}
	if n.Key.(string) == string(lo) {
		n = n.Next()
	}
	return collect(dst, n, func(k string) bool { return k <= string(hi) })
}

// head appends the values with positions <= hi.
func (t *positionTree[V]) head(dst []V, hi Position) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return collect(dst, t.tree.Left(), func(k string) bool { return k <= string(hi) })
}

// tail appends the values with positions > lo.
func (t *positionTree[V]) tail(dst []V, lo Position) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, found := t.tree.Ceiling(string(lo))
	if !found {
		return dst
	}
	if n.Key.(string) == string(lo) {
		n = n.Next()
	}
	return collect(dst, n, func(string) bool { return true })
}

// values returns all values in position order.
func (t *positionTree[V]) values() []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]V, 0, t.tree.Size())
	return collect(out, t.tree.Left(), func(string) bool { return true })
}

func collect[V any](dst []V, n *avltree.Node, while func(key string) bool) []V {
	for ; n != nil && while(n.Key.(string)); n = n.Next() {
		dst = append(dst, n.Value.(V))
	}
	return dst
}
