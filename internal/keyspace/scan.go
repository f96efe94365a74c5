package keyspace

import "sort"

// The scan family (SCAN/HSCAN/SSCAN/ZSCAN) returns an opaque cursor that
// resumes a previous call. Per spec.md §4.2, the only contract is that
// every element present for the entire duration of a scan is returned at
// least once; duplicates and transient misses are allowed. This engine
// satisfies that by sorting keys/members and resuming from the value of
// the last key examined rather than a raw slice index: sorted is rebuilt
// fresh on every call, so an index is only meaningful against the exact
// slice it was produced from. If an element before the cursor is deleted
// between two calls, a raw index silently shifts onto and skips past a
// surviving element; resuming by value instead finds that element's
// neighbor again regardless of how many elements before it came or went.

// scanCount is the default page size when the caller passes count<=0.
const scanCount = 10

// ScanKeys resumes a KEYS-space scan from cursor ("" to start), returning
// up to count matching keys and the next cursor ("" when exhausted).
func (k *Keyspace) ScanKeys(cursor string, pattern string, count int) ([]string, string) {
	if count <= 0 {
		count = scanCount
	}
	all := k.Keys("*") // already sorted, lazily purges expired keys
	return scanSlice(all, cursor, pattern, count)
}

// HScan resumes a field/value scan over a hash key, returning parallel
// field/value slices.
func (k *Keyspace) HScan(key string, cursor string, pattern string, count int) ([]string, [][]byte, string, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil, "", nil
	}
	if v.Kind != KindHash {
		return nil, nil, "", ErrWrongType
	}
	if count <= 0 {
		count = scanCount
	}
	fields := make([]string, 0, len(v.Hash))
	for f := range v.Hash {
		fields = append(fields, f)
	}
	sortStrings(fields)
	page, next := scanSlice(fields, cursor, pattern, count)
	values := make([][]byte, len(page))
	for i, f := range page {
		values[i] = v.Hash[f]
	}
	return page, values, next, nil
}

// SScan resumes a member scan over a set key.
func (k *Keyspace) SScan(key string, cursor string, pattern string, count int) ([]string, string, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, "", nil
	}
	if v.Kind != KindSet {
		return nil, "", ErrWrongType
	}
	if count <= 0 {
		count = scanCount
	}
	members := make([]string, 0, len(v.Set))
	for m := range v.Set {
		members = append(members, m)
	}
	sortStrings(members)
	page, next := scanSlice(members, cursor, pattern, count)
	return page, next, nil
}

// ZScan resumes a member scan over a sorted set key.
func (k *Keyspace) ZScan(key string, cursor string, pattern string, count int) ([]string, []float64, string, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil, "", nil
	}
	if v.Kind != KindZSet {
		return nil, nil, "", ErrWrongType
	}
	if count <= 0 {
		count = scanCount
	}
	members := make([]string, len(v.ZSet.sorted))
	scoreOf := make(map[string]float64, len(v.ZSet.sorted))
	for i, m := range v.ZSet.sorted {
		members[i] = m.member
		scoreOf[m.member] = m.score
	}
	sortStrings(members)
	page, next := scanSlice(members, cursor, pattern, count)
	scores := make([]float64, len(page))
	for i, m := range page {
		scores[i] = scoreOf[m]
	}
	return page, scores, next, nil
}

// scanSlice is the shared cursor walk: sorted is assumed sorted
// ascending. cursor, when non-empty, is the value of the last key
// examined by the previous call; resumption uses sort.SearchStrings to
// find that value's position in the freshly-sorted slice passed in this
// time; rather than trusting any particular index to still mean the same
// thing it did last call. Returns the next up-to-count elements matching
// pattern (empty pattern matches everything) and the resuming cursor,
// "" once sorted is exhausted.
func scanSlice(sorted []string, cursor string, pattern string, count int) ([]string, string) {
	start := 0
	if cursor != "" {
		start = sort.SearchStrings(sorted, cursor)
		if start < len(sorted) && sorted[start] == cursor {
			start++
		}
	}
	out := make([]string, 0, count)
	i := start
	for ; i < len(sorted) && len(out) < count; i++ {
		if pattern == "" || pattern == "*" || Match(pattern, sorted[i]) {
			out = append(out, sorted[i])
		}
	}
	if i >= len(sorted) {
		return out, ""
	}
	return out, sorted[i-1]
}

func sortStrings(s []string) {
	sort.Strings(s)
}
