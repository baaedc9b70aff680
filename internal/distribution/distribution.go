package distribution

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"consistenthasher/internal/keyspace"
	"consistenthasher/internal/ring"
)

// Share is the part of the members one bucket received.
type Share[B comparable] struct {
	Bucket  B
	Count   int
	Percent float64
}

// Sweep describes the rings to build: one per virtual node count in
// [Start, End], each holding all Buckets and Members.
type Sweep[B comparable, M comparable] struct {
	Start, End  int
	BucketBytes keyspace.Converter[B]
	MemberBytes keyspace.Converter[M]
	Hash        keyspace.HashFunc
	Buckets     []B
	Members     []M
	// Parallelism bounds the rings built at once, GOMAXPROCS when <= 0.
	Parallelism int
}

// Run returns, per virtual node count, the members of every bucket.
func (s Sweep[B, M]) Run(ctx context.Context) (map[int]map[B][]M, error) {
	if s.Start < 1 || s.End < s.Start {
		return nil, fmt.Errorf("%w: virtual node range [%d, %d]", ring.ErrInvalidArgument, s.Start, s.End)
	}

	limit := s.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex
	result := make(map[int]map[B][]M, s.End-s.Start+1)

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(limit)
	for vnodes := s.Start; vnodes <= s.End; vnodes++ {
		vnodes := vnodes
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			assignment, err := s.assign(vnodes)
			if err != nil {
				return fmt.Errorf("vnodes=%d: %w", vnodes, err)
			}
			mu.Lock()
			result[vnodes] = assignment
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s Sweep[B, M]) assign(vnodes int) (map[B][]M, error) {
	r, err := ring.New[B, M](vnodes, s.BucketBytes, s.MemberBytes, s.Hash)
	if err != nil {
		return nil, err
	}
	for _, b := range s.Buckets {
		if err := r.AddBucket(b); err != nil {
			return nil, err
		}
	}
	for _, m := range s.Members {
		if err := r.AddMember(m); err != nil {
			return nil, err
		}
	}
	return r.AllBucketsToMembers(), nil
}

// Counts returns, per virtual node count, the number of members of every bucket.
func (s Sweep[B, M]) Counts(ctx context.Context) (map[int]map[B]int, error) {
	dist, err := s.Run(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]map[B]int, len(dist))
	for vnodes, assignment := range dist {
		counts := make(map[B]int, len(assignment))
		for b, members := range assignment {
			counts[b] = len(members)
		}
		out[vnodes] = counts
	}
	return out, nil
}

// Percentages returns, per virtual node count, the percentage of all
// members each bucket received.
func (s Sweep[B, M]) Percentages(ctx context.Context) (map[int]map[B]float64, error) {
	shares, err := s.Shares(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]map[B]float64, len(shares))
	for vnodes, list := range shares {
		pct := make(map[B]float64, len(list))
		for _, sh := range list {
			pct[sh.Bucket] = sh.Percent
		}
		out[vnodes] = pct
	}
	return out, nil
}

// Shares returns, per virtual node count, the bucket shares ordered by
// member count, smallest first. Equal counts are ordered by bucket name.
func (s Sweep[B, M]) Shares(ctx context.Context) (map[int][]Share[B], error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, err
	}
	total := len(s.Members)
	out := make(map[int][]Share[B], len(counts))
	for vnodes, perBucket := range counts {
		list := make([]Share[B], 0, len(perBucket))
		for b, n := range perBucket {
			list = append(list, Share[B]{Bucket: b, Count: n, Percent: percent(n, total)})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count < list[j].Count
			}
			return fmt.Sprint(list[i].Bucket) < fmt.Sprint(list[j].Bucket)
		})
		out[vnodes] = list
	}
	return out, nil
}

// MaxPercentage returns the largest share in list, 0 for an empty list.
func MaxPercentage[B comparable](list []Share[B]) float64 {
	maxPct := 0.0
	for _, sh := range list {
		maxPct = max(maxPct, sh.Percent)
	}
	return maxPct
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
