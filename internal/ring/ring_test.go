package ring

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"consistenthasher/internal/keyspace"
)

func newIntRing(t *testing.T, vnodes int, hash keyspace.HashFunc) *Ring[int, int] {
	t.Helper()
	r, err := New[int, int](vnodes, keyspace.IntBytes, keyspace.IntBytes, hash, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return r
}

func newStringRing(t *testing.T, vnodes int) *Ring[string, string] {
	t.Helper()
	r, err := New[string, string](vnodes, keyspace.StringBytes, keyspace.StringBytes, keyspace.SHA1)
	require.NoError(t, err)
	return r
}

func TestNew_InvalidArguments(t *testing.T) {
	t.Parallel()

	_, err := New[int, int](1, nil, keyspace.IntBytes, keyspace.SHA1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New[int, int](1, keyspace.IntBytes, nil, keyspace.SHA1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New[int, int](1, keyspace.IntBytes, keyspace.IntBytes, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNew_VirtualNodesDefaultToOne(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, -5} {
		r := newIntRing(t, n, keyspace.SHA1)
		assert.Equal(t, 1, r.VirtualNodes())
	}
}

func TestRing_EmptyRing(t *testing.T) {
	t.Parallel()
	r := newIntRing(t, 1, keyspace.Identity)

	members, err := r.MembersOf(1)
	require.NoError(t, err)
	require.NotNil(t, members)
	assert.Empty(t, members)
	assert.Empty(t, r.Buckets())
	assert.Empty(t, r.Members())
	assert.Empty(t, r.AllBucketsToMembers())

	_, found, err := r.Owner(1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRing_SingleBucketAndSingleMember(t *testing.T) {
	t.Parallel()
	r := newIntRing(t, 1, keyspace.Identity)

	require.NoError(t, r.AddBucket(1))
	require.NoError(t, r.AddMember(1))

	members, err := r.MembersOf(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, members)

	require.NoError(t, r.RemoveBucket(context.Background(), 1))

	members, err = r.MembersOf(1)
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.Equal(t, Stats{Buckets: 0, VirtualNodes: 0, Members: 1}, r.Stats())
}

func TestRing_RemoveAbsentBucket(t *testing.T) {
	t.Parallel()
	r := newIntRing(t, 1, keyspace.Identity)

	require.NoError(t, r.RemoveBucket(context.Background(), 1))
	removed, err := r.TryRemoveBucket(1, 0)
	require.NoError(t, err)
	assert.True(t, removed)

	members, err := r.MembersOf(1)
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.Equal(t, Stats{}, r.Stats())
}

func TestRing_NilArguments(t *testing.T) {
	t.Parallel()
	r, err := New[*string, *string](3,
		func(s *string) ([]byte, error) { return []byte(*s), nil },
		func(s *string) ([]byte, error) { return []byte(*s), nil },
		keyspace.SHA1,
	)
	require.NoError(t, err)

	require.ErrorIs(t, r.AddBucket(nil), ErrInvalidArgument)
	require.ErrorIs(t, r.RemoveBucket(context.Background(), nil), ErrInvalidArgument)
	_, err = r.TryRemoveBucket(nil, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, r.AddMember(nil), ErrInvalidArgument)
	require.ErrorIs(t, r.RemoveMember(nil), ErrInvalidArgument)
	_, err = r.MembersOf(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = r.MembersAmong(nil, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = r.Owner(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	name := "b1"
	_, err = r.MembersAmong(&name, []*string{nil})
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, Stats{}, r.Stats())
}

func TestRing_ConverterError(t *testing.T) {
	t.Parallel()
	r, err := New[string, string](2,
		func(string) ([]byte, error) { return nil, fmt.Errorf("boom") },
		keyspace.StringBytes,
		keyspace.SHA1,
	)
	require.NoError(t, err)

	err = r.AddBucket("b1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, r.HasBucket("b1"))
	assert.Equal(t, 0, r.Stats().VirtualNodes)
}

func TestRing_AddBucketTwice(t *testing.T) {
	t.Parallel()
	r := newStringRing(t, 16)

	require.NoError(t, r.AddBucket("node1"))
	require.NoError(t, r.AddBucket("node1"))

	assert.Equal(t, []string{"node1"}, r.Buckets())
	assert.Equal(t, Stats{Buckets: 1, VirtualNodes: 16}, r.Stats())
}

func TestRing_Buckets(t *testing.T) {
	t.Parallel()
	r := newIntRing(t, 1, keyspace.Identity)

	for _, b := range []int{3, 1, 5, 2, 4} {
		require.NoError(t, r.AddBucket(b))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, r.Buckets())
}

func TestRing_Members(t *testing.T) {
	t.Parallel()
	r := newIntRing(t, 1, keyspace.Identity)

	for _, m := range []int{5, 4, 3, 2, 1} {
		require.NoError(t, r.AddMember(m))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, r.Members())

	// Re-adding overwrites.
	require.NoError(t, r.AddMember(3))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, r.Members())
}

func TestRing_MembersAmong(t *testing.T) {
	t.Parallel()
	r := newIntRing(t, 1, keyspace.Identity)
	require.NoError(t, r.AddBucket(5))

	candidates := []int{1, 2, 3, 4, 5}
	members, err := r.MembersAmong(5, candidates)
	require.NoError(t, err)
	assert.Equal(t, candidates, members)

	// Stored members are ignored.
	assert.Empty(t, r.Members())
	stored, err := r.MembersOf(5)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRing_RemoveMember(t *testing.T) {
	t.Parallel()
	r := newIntRing(t, 1, keyspace.Identity)
	require.NoError(t, r.AddBucket(5))
	require.NoError(t, r.AddMember(1))

	members, err := r.MembersOf(5)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, members)

	require.NoError(t, r.RemoveMember(1))
	members, err = r.MembersOf(5)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestRing_Owner(t *testing.T) {
	t.Parallel()
	r := newIntRing(t, 1, keyspace.Identity)
	for _, b := range []int{5, 10, 15, 20} {
		require.NoError(t, r.AddBucket(b))
	}

	tests := []struct {
		member int
		want   int
	}{
		{member: 1, want: 5},
		{member: 5, want: 5},
		{member: 6, want: 10},
		{member: 20, want: 20},
		{member: 21, want: 5},
	}
	for _, tt := range tests {
		got, found, err := r.Owner(tt.member)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, tt.want, got, "member %d", tt.member)
	}
}

func TestRing_Determinism(t *testing.T) {
	t.Parallel()
	ring1 := newStringRing(t, 64)
	ring2 := newStringRing(t, 64)

	for _, b := range []string{"node1", "node2", "node3"} {
		require.NoError(t, ring1.AddBucket(b))
	}
	// Insertion order does not matter.
	for _, b := range []string{"node3", "node1", "node2"} {
		require.NoError(t, ring2.AddBucket(b))
	}

	testKeys := []string{"key1", "key2", "key3", "key4", "key5", "key100", "key999"}
	for _, key := range testKeys {
		require.NoError(t, ring1.AddMember(key))
		require.NoError(t, ring2.AddMember(key))

		owner1, _, _ := ring1.Owner(key)
		owner2, _, _ := ring2.Owner(key)
		if owner1 != owner2 {
			t.Errorf("Determinism failed for key %s: %s != %s", key, owner1, owner2)
		}
	}
	assert.Equal(t, ring1.AllBucketsToMembers(), ring2.AllBucketsToMembers())
}

func TestRing_Distribution(t *testing.T) {
	t.Parallel()
	r := newStringRing(t, 128)
	for _, b := range []string{"node1", "node2", "node3"} {
		require.NoError(t, r.AddBucket(b))
	}

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		require.NoError(t, r.AddMember(fmt.Sprintf("key-%d", i)))
	}

	distribution := r.AllBucketsToMembers()
	if len(distribution) != 3 {
		t.Fatalf("Expected 3 buckets, got %d", len(distribution))
	}

	total := 0
	for bucket, members := range distribution {
		total += len(members)
		percentage := float64(len(members)) / float64(numKeys) * 100
		if percentage > 90 {
			t.Errorf("Bucket %s has %.2f%% of keys (too high)", bucket, percentage)
		}
		if len(members) == 0 {
			t.Errorf("Bucket %s has no keys", bucket)
		}
	}
	assert.Equal(t, numKeys, total)
}

func TestRing_BucketRemoval(t *testing.T) {
	t.Parallel()
	r := newStringRing(t, 64)
	for _, b := range []string{"node1", "node2", "node3"} {
		require.NoError(t, r.AddBucket(b))
	}

	testKeys := []string{"key1", "key2", "key3", "key4", "key5"}
	for _, key := range testKeys {
		require.NoError(t, r.AddMember(key))
	}

	require.NoError(t, r.RemoveBucket(context.Background(), "node2"))

	for _, key := range testKeys {
		owner, found, err := r.Owner(key)
		require.NoError(t, err)
		if !found {
			t.Errorf("Expected to find bucket for key %s after removal", key)
		}
		if owner == "node2" {
			t.Errorf("Key %s still mapped to removed bucket node2", key)
		}
	}

	assert.False(t, r.HasBucket("node2"))
	assert.ElementsMatch(t, []string{"node1", "node3"}, r.Buckets())
	assert.Equal(t, 128, r.Stats().VirtualNodes)
}
