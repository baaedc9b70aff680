package main

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"consistenthasher/internal/distribution"
	"consistenthasher/internal/keyspace"
)

type distributionOptions struct {
	start, end int
	buckets    int
	members    int
	seed       int64
	hash       string
	verbose    bool
}

func newDistributionCommand() *cobra.Command {
	opts := distributionOptions{}

	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Show how random members spread over random buckets per virtual node count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDistribution(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.start, "start", 1, "first virtual node count")
	flags.IntVar(&opts.end, "end", 50, "last virtual node count")
	flags.IntVar(&opts.buckets, "buckets", 10, "number of random buckets")
	flags.IntVar(&opts.members, "members", 10000, "number of random members")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed, 0 uses the current time")
	flags.StringVar(&opts.hash, "hash", "sha1", "hash function: sha1, xxhash, fnv")
	flags.BoolVar(&opts.verbose, "verbose", false, "print every bucket share")

	return cmd
}

func runDistribution(cmd *cobra.Command, opts distributionOptions) error {
	hash, err := keyspace.HashByName(opts.hash)
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	buckets := make([]int, opts.buckets)
	for i := range buckets {
		buckets[i] = rnd.Intn(1<<31-1) / 5
	}
	members := make([]int, opts.members)
	for i := range members {
		members[i] = rnd.Int()
	}

	sweep := distribution.Sweep[int, int]{
		Start:       opts.start,
		End:         opts.end,
		BucketBytes: keyspace.IntBytes,
		MemberBytes: keyspace.IntBytes,
		Hash:        hash,
		Buckets:     buckets,
		Members:     members,
	}
	shares, err := sweep.Shares(cmd.Context())
	if err != nil {
		return err
	}

	return printShares(cmd.OutOrStdout(), shares, opts.verbose)
}

func printShares(out io.Writer, shares map[int][]distribution.Share[int], verbose bool) error {
	vnodes := make([]int, 0, len(shares))
	for n := range shares {
		vnodes = append(vnodes, n)
	}
	sort.Ints(vnodes)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "vnodes\tmin %\tmax %\t")
	for _, n := range vnodes {
		list := shares[n]
		minPct := 0.0
		if len(list) > 0 {
			minPct = list[0].Percent
		}
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t\n", n, minPct, distribution.MaxPercentage(list))
		if verbose {
			for _, sh := range list {
				fmt.Fprintf(w, "\t%d\t%.2f\t\n", sh.Bucket, sh.Percent)
			}
		}
	}
	return w.Flush()
}
