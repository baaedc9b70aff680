// Package keyspace provides the hashing primitives and value-to-bytes
// converters that place buckets and members on a ring. A position is the
// raw digest produced by a HashFunc; positions are ordered as unsigned
// byte strings.
package keyspace
