package kir

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"

// BigIntID is a stable handle into a BigIntPool.
type BigIntID int32

// ErrBigIntPoolFull is returned when a BigInt store would exceed the pool's
// configured capacity; its kerr.Kind is MemAllocFailure. This is the one
// place this port simulates the allocation-failure error kinds of spec.md §7 rather than
// relying on the Go runtime's own allocator (see DESIGN.md "Open Question:
// allocator-failure simulation").
var ErrBigIntPoolFull = kerr.New(kerr.MemAllocFailure, "kir: bigint pool capacity exceeded")

// BigIntPool owns the two's-complement, little-endian word storage for
// _BitInt(N) constants used in the IR and Opt-IR layers (spec.md §3
// "BigInt pool").
//
// Grounded on the teacher's append-only backing-slice pattern (StringPool
// above, itself grounded on astc/decimation_table_cache.go); BigInt values
// are not deduplicated by value (two _BitInt constants that happen to be
// numerically equal may still be distinct source constants with distinct
// provenance), only stored and handed back by ID.
type BigIntPool struct {
	entries  [][]uint64
	capacity int // 0 = unbounded
}

// NewBigIntPool returns an empty pool. A capacity of 0 means unbounded.
func NewBigIntPool(capacity int) *BigIntPool {
	return &BigIntPool{capacity: capacity}
}

// Store records the two's-complement little-endian word representation of
// a _BitInt(N) constant and returns its ID.
func (p *BigIntPool) Store(words []uint64) (BigIntID, error) {
	if p.capacity > 0 && len(p.entries) >= p.capacity {
		return 0, ErrBigIntPoolFull
	}
	cp := make([]uint64, len(words))
	copy(cp, words)
	id := BigIntID(len(p.entries))
	p.entries = append(p.entries, cp)
	return id, nil
}

// Words returns the stored little-endian word slice for id. The returned
// slice must not be mutated by the caller.
func (p *BigIntPool) Words(id BigIntID) []uint64 {
	return p.entries[id]
}

// WordsForWidth converts a BitWidth (in bits) into the qword count spec.md
// §8 property 10 and §4.3 describe: ceil(bitwidth/64).
func WordsForWidth(bitWidth int) int {
	return (bitWidth + 63) / 64
}
