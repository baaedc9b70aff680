package ring

// membersIn lists the members of b found in members, holding b's read lock
// for the whole scan.
func (r *Ring[B, M]) membersIn(b B, members *positionTree[M]) []M {
	info, ok := r.registry.get(b)
	if !ok {
		return []M{}
	}
	return r.listEntry(b, info, members)
}

// listEntry lists the members of the registry entry info of b. It returns
// nothing once info is no longer b's live entry.
func (r *Ring[B, M]) listEntry(b B, info *bucketInfo, members *positionTree[M]) []M {
	info.lock.rLock()
	defer info.lock.rUnlock()

	// Removed (or removed and re-added) while waiting for the lock.
	if !r.registry.current(b, info) {
		return []M{}
	}

	result := []M{}
	for _, p := range info.positions {
		result = r.ownedBy(result, p, members)
	}
	return result
}

// ownedBy appends the members in the range of the virtual node at p: the
// interval (predecessor, p], or, for the smallest position on the ring, the
// wrapped interval (last, max] + [min, p].
func (r *Ring[B, M]) ownedBy(dst []M, p Position, members *positionTree[M]) []M {
	if prev, ok := r.buckets.lower(p); ok {
		return members.between(dst, prev, p)
	}

	dst = members.head(dst, p)
	if last, ok := r.buckets.last(); ok {
		dst = members.tail(dst, last)
	}
	return dst
}
