package ring

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"consistenthasher/internal/keyspace"
)

// DefaultVirtualNodes gives an even spread of members for small bucket counts.
const DefaultVirtualNodes = 700

// Option configures a Ring.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for bucket lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Stats is a point-in-time summary of the ring size.
type Stats struct {
	Buckets      int
	VirtualNodes int
	Members      int
}

// Ring assigns members of type M to buckets of type B.
//
// AddBucket, AddMember and RemoveMember take no bucket lock. MembersOf and
// AllBucketsToMembers hold the read lock of the listed bucket, RemoveBucket
// and TryRemoveBucket its write lock. Operations on different buckets never
// wait for each other.
type Ring[B comparable, M comparable] struct {
	vnodes      int
	bucketBytes keyspace.Converter[B]
	memberBytes keyspace.Converter[M]
	hash        keyspace.HashFunc
	logger      *zap.Logger

	buckets  *positionTree[B]
	members  *positionTree[M]
	registry registry[B]
}

// New creates an empty ring. vnodes is the number of virtual nodes per
// bucket; values below 1 are treated as 1.
func New[B comparable, M comparable](
	vnodes int,
	bucketBytes keyspace.Converter[B],
	memberBytes keyspace.Converter[M],
	hash keyspace.HashFunc,
	opts ...Option,
) (*Ring[B, M], error) {
	if bucketBytes == nil {
		return nil, invalidArgument("bucket converter can not be nil")
	}
	if memberBytes == nil {
		return nil, invalidArgument("member converter can not be nil")
	}
	if hash == nil {
		return nil, invalidArgument("hash function can not be nil")
	}
	if vnodes < 1 {
		vnodes = 1
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Ring[B, M]{
		vnodes:      vnodes,
		bucketBytes: bucketBytes,
		memberBytes: memberBytes,
		hash:        hash,
		logger:      o.logger,
		buckets:     newPositionTree[B](),
		members:     newPositionTree[M](),
	}, nil
}

// VirtualNodes returns the number of virtual nodes per bucket.
func (r *Ring[B, M]) VirtualNodes() int {
	return r.vnodes
}

// AddBucket places the virtual nodes of b on the ring. Adding an existing
// bucket is a no-op.
func (r *Ring[B, M]) AddBucket(b B) error {
	if isNil(b) {
		return invalidArgument("bucket name can not be nil")
	}
	positions, err := r.bucketPositions(b)
	if err != nil {
		return err
	}

	for _, p := range positions {
		r.buckets.put(p, b)
	}
	if r.registry.putIfAbsent(b, &bucketInfo{lock: newRWLock(), positions: positions}) {
		r.logger.Debug("bucket added", zap.Any("bucket", b), zap.Int("vnodes", len(positions)))
	}
	return nil
}

// RemoveBucket removes b from the ring, waiting for in-flight listings of b
// to finish. The bucket is hidden from new readers immediately. If ctx is
// done before the wait ends, the ring is left as it was and the context
// error is returned. Removing an absent bucket succeeds. A caller that
// arrives while another removal of b is waiting shares its outcome, and
// retries if that removal was abandoned.
func (r *Ring[B, M]) RemoveBucket(ctx context.Context, b B) error {
	_, err := r.removeBucket(ctx, b)
	return err
}

// TryRemoveBucket is RemoveBucket bounded by timeout. It returns false,
// with the ring unchanged, when the wait times out. A timeout of zero
// still removes a bucket nobody is reading.
func (r *Ring[B, M]) TryRemoveBucket(b B, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	removed, err := r.removeBucket(ctx, b)
	if errors.Is(err, context.DeadlineExceeded) {
		return false, nil
	}
	return removed, err
}

func (r *Ring[B, M]) removeBucket(ctx context.Context, b B) (bool, error) {
	if isNil(b) {
		return false, invalidArgument("bucket name can not be nil")
	}

	for {
		rm, owner := r.registry.beginRemoval(b)
		if owner {
			return r.removeOwned(ctx, b, rm)
		}
		select {
		case <-rm.done:
			if rm.removed {
				return true, nil
			}
		case <-ctx.Done():
			return false, fmt.Errorf("remove bucket %v: %w", b, ctx.Err())
		}
	}
}

func (r *Ring[B, M]) removeOwned(ctx context.Context, b B, rm *removal) (removed bool, err error) {
	defer func() { r.registry.endRemoval(b, rm, removed) }()

	info, ok := r.registry.take(b)
	if !ok {
		return true, nil
	}

	if !info.lock.tryLock() {
		if err := info.lock.lock(ctx); err != nil {
			// Nothing was removed from the ring, so the entry goes back.
			r.registry.putIfAbsent(b, info)
			r.logger.Debug("bucket removal abandoned", zap.Any("bucket", b), zap.Error(err))
			return false, fmt.Errorf("remove bucket %v: %w", b, err)
		}
	}
	defer info.lock.unlock()

	for _, p := range info.positions {
		r.buckets.remove(p)
	}
	r.logger.Debug("bucket removed", zap.Any("bucket", b))
	return true, nil
}

// HasBucket reports whether b is currently registered.
func (r *Ring[B, M]) HasBucket(b B) bool {
	if isNil(b) {
		return false
	}
	_, ok := r.registry.get(b)
	return ok
}

// AddMember places m on the ring. Re-adding a member overwrites it.
func (r *Ring[B, M]) AddMember(m M) error {
	p, err := r.memberPosition(m)
	if err != nil {
		return err
	}
	r.members.put(p, m)
	return nil
}

// RemoveMember removes m from the ring.
func (r *Ring[B, M]) RemoveMember(m M) error {
	p, err := r.memberPosition(m)
	if err != nil {
		return err
	}
	r.members.remove(p)
	return nil
}

// MembersOf returns the members owned by b, in ring order per virtual
// node. An absent bucket owns no members.
func (r *Ring[B, M]) MembersOf(b B) ([]M, error) {
	if isNil(b) {
		return nil, invalidArgument("bucket name can not be nil")
	}
	return r.membersIn(b, r.members), nil
}

// MembersAmong is MembersOf evaluated against candidates instead of the
// members stored in the ring.
func (r *Ring[B, M]) MembersAmong(b B, candidates []M) ([]M, error) {
	if isNil(b) {
		return nil, invalidArgument("bucket name can not be nil")
	}
	local := newPositionTree[M]()
	for _, m := range candidates {
		p, err := r.memberPosition(m)
		if err != nil {
			return nil, err
		}
		local.put(p, m)
	}
	return r.membersIn(b, local), nil
}

// AllBucketsToMembers lists the members of every registered bucket. Each
// listing is atomic with respect to the removal of its own bucket only.
func (r *Ring[B, M]) AllBucketsToMembers() map[B][]M {
	keys := r.registry.keys()
	out := make(map[B][]M, len(keys))
	for _, b := range keys {
		out[b] = r.membersIn(b, r.members)
	}
	return out
}

// Owner returns the bucket owning m: the bucket of the first virtual node
// at or after m's position, wrapping around. It returns false when the
// ring has no buckets.
func (r *Ring[B, M]) Owner(m M) (B, bool, error) {
	p, err := r.memberPosition(m)
	if err != nil {
		var zero B
		return zero, false, err
	}
	b, ok := r.buckets.ceilingOrFirst(p)
	return b, ok, nil
}

// Buckets returns the registered buckets ordered by their first virtual node.
func (r *Ring[B, M]) Buckets() []B {
	return r.registry.sortedKeys()
}

// Members returns all members in ring order.
func (r *Ring[B, M]) Members() []M {
	return r.members.values()
}

// Stats returns the current ring size.
func (r *Ring[B, M]) Stats() Stats {
	return Stats{
		Buckets:      r.registry.len(),
		VirtualNodes: r.buckets.len(),
		Members:      r.members.len(),
	}
}

// bucketPositions hashes b followed by each big-endian virtual node index 1..vnodes.
func (r *Ring[B, M]) bucketPositions(b B) ([]Position, error) {
	name, err := r.bucketBytes(b)
	if err != nil {
		return nil, fmt.Errorf("convert bucket %v: %w", b, err)
	}

	buf := make([]byte, len(name)+4)
	copy(buf, name)
	positions := make([]Position, 0, r.vnodes)
	for i := 1; i <= r.vnodes; i++ {
		binary.BigEndian.PutUint32(buf[len(name):], uint32(i))
		positions = append(positions, Position(r.hash(buf)))
	}
	return positions, nil
}

func (r *Ring[B, M]) memberPosition(m M) (Position, error) {
	if isNil(m) {
		return "", invalidArgument("member name can not be nil")
	}
	name, err := r.memberBytes(m)
	if err != nil {
		return "", fmt.Errorf("convert member %v: %w", m, err)
	}
	return Position(r.hash(name)), nil
}
