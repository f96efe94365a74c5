package keyspace

// The constructors below build a *Value of each kind directly from
// already-materialized data, for internal/persistence's snapshot loader
// and append-only log replay path. They bypass the per-command mutators
// in string.go/list_ops.go/etc. entirely: persistence only ever needs to
// reconstruct an already-valid value, never to apply command semantics.

// NewStringValue wraps b as a string value.
func NewStringValue(b []byte) *Value {
	return &Value{Kind: KindString, Str: b}
}

// NewListValue builds a list value from items in head-to-tail order.
func NewListValue(items [][]byte) *Value {
	return &Value{Kind: KindList, List: &list{items: items}}
}

// NewSetValue builds a set value from members.
func NewSetValue(members [][]byte) *Value {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[string(m)] = struct{}{}
	}
	return &Value{Kind: KindSet, Set: set}
}

// NewHashValue wraps fields as a hash value. The caller hands over
// ownership of the map.
func NewHashValue(fields map[string][]byte) *Value {
	return &Value{Kind: KindHash, Hash: fields}
}

// NewZSetValue builds a sorted set value from parallel member/score
// slices, re-sorting them into the engine's canonical (score, member)
// order regardless of input order.
func NewZSetValue(members []string, scores []float64) *Value {
	z := newZSet()
	for i, m := range members {
		z.set(m, scores[i])
	}
	return &Value{Kind: KindZSet, ZSet: z}
}

// NewStreamValue builds a stream value from already-ordered entries plus
// the high-water-mark ID to restore (which may exceed the last entry's
// ID if trailing entries were trimmed/deleted before the snapshot/log
// was written).
func NewStreamValue(entries []StreamEntry, lastID StreamID) *Value {
	return &Value{Kind: KindStream, Stream: &stream{entries: entries, lastID: lastID}}
}

// NewHLLValue wraps a raw hllRegisters-byte register array.
func NewHLLValue(registers []byte) *Value {
	return &Value{Kind: KindHLL, HLL: registers}
}
