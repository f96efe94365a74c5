package keyspace

import "sort"

// zsetMember is one (score, member) pair in the ordered list.
type zsetMember struct {
	member string
	score  float64
}

// zset is a sorted set: an order-maintained slice plus a side map for
// O(1) score lookup, per spec.md §9's suggested structure. A skip-list
// would give O(log n) insert; a sorted slice with binary-search insert
// is simpler and sufficient at the scale this engine targets (a
// production reimplementation could swap this out without touching
// callers, per spec.md §9).
type zset struct {
	sorted []zsetMember   // ascending by (score, member)
	scores map[string]float64
}

func newZSet() *zset {
	return &zset{scores: make(map[string]float64)}
}

func (z *zset) len() int { return len(z.sorted) }

// Entries returns parallel member/score slices in ascending sort order,
// for internal/persistence's snapshot encoder.
func (z *zset) Entries() ([]string, []float64) {
	members := make([]string, len(z.sorted))
	scores := make([]float64, len(z.sorted))
	for i, m := range z.sorted {
		members[i] = m.member
		scores[i] = m.score
	}
	return members, scores
}

func (z *zset) clone() *zset {
	cp := &zset{
		sorted: make([]zsetMember, len(z.sorted)),
		scores: make(map[string]float64, len(z.scores)),
	}
	copy(cp.sorted, z.sorted)
	for m, s := range z.scores {
		cp.scores[m] = s
	}
	return cp
}

func less(a zsetMember, b zsetMember) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

// searchPos finds the insertion index for m in the sorted list (the
// first position whose element is not less than m).
func (z *zset) searchPos(m zsetMember) int {
	return sort.Search(len(z.sorted), func(i int) bool {
		return !less(z.sorted[i], m)
	})
}

// set inserts or updates member's score, maintaining sort order.
// Returns true if member was newly added.
func (z *zset) set(member string, score float64) bool {
	if old, ok := z.scores[member]; ok {
		if old == score {
			return false
		}
		z.removeFromSorted(zsetMember{member, old})
		pos := z.searchPos(zsetMember{member, score})
		z.insertAt(pos, zsetMember{member, score})
		z.scores[member] = score
		return false
	}
	pos := z.searchPos(zsetMember{member, score})
	z.insertAt(pos, zsetMember{member, score})
	z.scores[member] = score
	return true
}

func (z *zset) insertAt(pos int, m zsetMember) {
	z.sorted = append(z.sorted, zsetMember{})
	copy(z.sorted[pos+1:], z.sorted[pos:])
	z.sorted[pos] = m
}

func (z *zset) removeFromSorted(m zsetMember) {
	pos := z.searchPos(m)
	// searchPos finds the first element >= m; since scores/members are
	// unique per member, this is exactly m's slot when present.
	if pos < len(z.sorted) && z.sorted[pos].member == m.member {
		z.sorted = append(z.sorted[:pos], z.sorted[pos+1:]...)
	}
}

func (z *zset) remove(member string) bool {
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	z.removeFromSorted(zsetMember{member, score})
	delete(z.scores, member)
	return true
}

func (z *zset) score(member string) (float64, bool) {
	s, ok := z.scores[member]
	return s, ok
}

// rank returns member's 0-based ascending rank, or -1 if absent.
func (z *zset) rank(member string) int {
	score, ok := z.scores[member]
	if !ok {
		return -1
	}
	pos := z.searchPos(zsetMember{member, score})
	if pos < len(z.sorted) && z.sorted[pos].member == member {
		return pos
	}
	return -1
}

// rangeByRank returns the inclusive [start,stop] slice in ascending
// order, with negative-index wraparound.
func (z *zset) rangeByRank(start, stop int) []zsetMember {
	n := len(z.sorted)
	start, stop = clampRange(start, stop, n)
	if start > stop {
		return nil
	}
	out := make([]zsetMember, stop-start+1)
	copy(out, z.sorted[start:stop+1])
	return out
}

// scoreRange bounds a ZRANGEBYSCORE-style query.
type scoreRange struct {
	Min, Max         float64
	MinExcl, MaxExcl bool
}

func (z *zset) rangeByScore(r scoreRange) []zsetMember {
	var out []zsetMember
	for _, m := range z.sorted {
		if m.score < r.Min || (m.score == r.Min && r.MinExcl) {
			continue
		}
		if m.score > r.Max || (m.score == r.Max && r.MaxExcl) {
			break
		}
		out = append(out, m)
	}
	return out
}

func (z *zset) countByScore(r scoreRange) int {
	n := 0
	for _, m := range z.sorted {
		if m.score < r.Min || (m.score == r.Min && r.MinExcl) {
			continue
		}
		if m.score > r.Max || (m.score == r.Max && r.MaxExcl) {
			break
		}
		n++
	}
	return n
}

func (z *zset) popMin(count int) []zsetMember {
	if count > len(z.sorted) {
		count = len(z.sorted)
	}
	out := make([]zsetMember, count)
	copy(out, z.sorted[:count])
	for _, m := range out {
		delete(z.scores, m.member)
	}
	z.sorted = z.sorted[count:]
	return out
}

func (z *zset) popMax(count int) []zsetMember {
	if count > len(z.sorted) {
		count = len(z.sorted)
	}
	n := len(z.sorted)
	out := make([]zsetMember, count)
	for i := 0; i < count; i++ {
		out[i] = z.sorted[n-1-i]
	}
	for _, m := range out {
		delete(z.scores, m.member)
	}
	z.sorted = z.sorted[:n-count]
	return out
}
