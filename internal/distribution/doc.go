// Package distribution evaluates how evenly a ring spreads members across
// buckets for a range of virtual node counts. Each count is evaluated on
// its own ring, so the sweep never touches a live ring.
package distribution
