// Package tag provides pluggable change-fingerprint accumulators for the
// record log.
//
// A CacheTag folds every record the engine processes (replayed or freshly
// appended) into an opaque 64-bit value. An external caching layer can
// compare tags to decide "has the log changed since I last looked" without
// deep-comparing record sets. The cost/precision tradeoff is a call-site
// decision: Counting is cheap but collides for equal append counts,
// Hashing fingerprints the full append history.
package tag

import (
	"hash"
	"hash/fnv"

	"github.com/roach88/jsonlog/record"
)

// CacheTag accumulates a fingerprint over every record folded into it.
// Implementations are not safe for concurrent use; the owning handle
// serializes access.
type CacheTag[T any] interface {
	// Fold absorbs one record into the accumulator state.
	Fold(rec record.Record[T])
	// Tag returns the current fingerprint.
	Tag() uint64
}

// countingSalt keeps an empty counting tag from reading as zero.
const countingSalt = 0x6e2797fa0b96b68f

// Counting counts folded records. It detects that something was appended
// since the tag was last observed, but two logs with the same total append
// count collide.
type Counting[T any] struct {
	n uint64
}

// NewCounting returns a fresh counting tag.
func NewCounting[T any]() *Counting[T] {
	return &Counting[T]{}
}

// Fold counts the record; the content is irrelevant.
func (c *Counting[T]) Fold(record.Record[T]) {
	c.n++
}

// Tag returns the count XORed with a fixed salt.
func (c *Counting[T]) Tag() uint64 {
	return c.n ^ countingSalt
}

// Hashing feeds every folded record's canonical byte representation into a
// 64-bit hash. The tag is order-sensitive: two logs with the same final
// live content but different append histories yield different tags. It
// fingerprints the history, not the materialized view.
type Hashing[T any] struct {
	h hash.Hash64
}

// NewHashing returns a hashing tag over h. A nil h selects FNV-1a.
func NewHashing[T any](h hash.Hash64) *Hashing[T] {
	if h == nil {
		h = fnv.New64a()
	}
	return &Hashing[T]{h: h}
}

// Fold hashes the record's canonical line bytes. Records handed to Fold
// have already passed through the line codec, so re-encoding them cannot
// fail; a record that somehow does not encode is skipped rather than
// corrupting the accumulator.
func (g *Hashing[T]) Fold(rec record.Record[T]) {
	line, err := record.Encode(rec)
	if err != nil {
		return
	}
	canonical, err := record.CanonicalizeLine(line)
	if err != nil {
		return
	}
	g.h.Write(canonical)
}

// Tag returns the running hash state.
func (g *Hashing[T]) Tag() uint64 {
	return g.h.Sum64()
}
