// Package ring implements a consistent hashing ring with virtual nodes.
// It assigns an open set of members to an open set of buckets so that
// adding or removing a bucket only remaps the members of the affected
// ranges, and it keeps a bucket's member listing atomic with respect to
// that bucket's removal.
package ring
