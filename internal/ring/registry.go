package ring

import (
	"sort"
	"sync"
)

// bucketInfo is the registry entry of a bucket: its lock and the positions
// of its virtual nodes, computed once when the bucket was added.
type bucketInfo struct {
	lock      *rwLock
	positions []Position
}

// removal is a bucket removal in progress. removed is set before done is
// closed.
type removal struct {
	done    chan struct{}
	removed bool
}

// registry maps bucket identity to its bucketInfo. Presence of an entry is
// the source of truth for bucket existence.
type registry[B comparable] struct {
	entries  sync.Map // B -> *bucketInfo
	removals sync.Map // B -> *removal
}

// beginRemoval registers a removal of b. If one is already in progress it
// is returned with owner false and the caller waits for it.
func (r *registry[B]) beginRemoval(b B) (rm *removal, owner bool) {
	v, loaded := r.removals.LoadOrStore(b, &removal{done: make(chan struct{})})
	return v.(*removal), !loaded
}

// endRemoval publishes the outcome of rm to the callers waiting on it.
func (r *registry[B]) endRemoval(b B, rm *removal, removed bool) {
	r.removals.Delete(b)
	rm.removed = removed
	close(rm.done)
}

func (r *registry[B]) get(b B) (*bucketInfo, bool) {
	v, ok := r.entries.Load(b)
	if !ok {
		return nil, false
	}
	return v.(*bucketInfo), true
}

// putIfAbsent installs info unless b already has an entry.
// It reports whether info was installed.
func (r *registry[B]) putIfAbsent(b B, info *bucketInfo) bool {
	_, loaded := r.entries.LoadOrStore(b, info)
	return !loaded
}

// take atomically removes and returns the entry of b.
func (r *registry[B]) take(b B) (*bucketInfo, bool) {
	v, ok := r.entries.LoadAndDelete(b)
	if !ok {
		return nil, false
	}
	return v.(*bucketInfo), true
}

// current reports whether info is still the live entry of b.
func (r *registry[B]) current(b B, info *bucketInfo) bool {
	cur, ok := r.get(b)
	return ok && cur == info
}

func (r *registry[B]) keys() []B {
	var out []B
	r.entries.Range(func(k, _ any) bool {
		out = append(out, k.(B))
		return true
	})
	return out
}

// sortedKeys returns the registered buckets ordered by their first
// virtual node position.
func (r *registry[B]) sortedKeys() []B {
	type entry struct {
		bucket B
		first  Position
	}
	var entries []entry
	r.entries.Range(func(k, v any) bool {
		entries = append(entries, entry{bucket: k.(B), first: v.(*bucketInfo).positions[0]})
		return true
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].first < entries[j].first
	})
	out := make([]B, len(entries))
	for i, e := range entries {
		out[i] = e.bucket
	}
	return out
}

func (r *registry[B]) len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
