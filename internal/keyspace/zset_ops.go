package keyspace

import "math/rand"

// ZAddFlags carries ZADD's optional NX/XX/GT/LT/CH/INCR modifiers.
type ZAddFlags struct {
	NX, XX   bool
	GT, LT   bool
	CH       bool
	Incr     bool
}

// ZAdd adds/updates members with their scores, honoring flags. When
// flags.Incr is set, exactly one member must be supplied and the return
// is its resulting score (as a single-element float slice) rather than
// a count; that distinction is handled by the executor layer, which
// calls ZIncrBy directly for INCR mode. This method implements the
// plain (non-INCR) form and returns the number of changes: new members
// added, plus members whose score changed if flags.CH is set.
func (k *Keyspace) ZAdd(key string, flags ZAddFlags, members []string, scores []float64) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var v *Value
	if k.purgeIfExpired(key) {
		v = &Value{Kind: KindZSet, ZSet: newZSet()}
		k.data[key] = &entry{val: v}
	} else {
		e := k.data[key]
		if e.val.Kind != KindZSet {
			return 0, ErrWrongType
		}
		v = e.val
	}

	changed := 0
	touched := false
	for i, m := range members {
		score := scores[i]
		old, exists := v.ZSet.score(m)
		if flags.NX && exists {
			continue
		}
		if flags.XX && !exists {
			continue
		}
		if exists && flags.GT && score <= old {
			continue
		}
		if exists && flags.LT && score >= old {
			continue
		}
		isNew := v.ZSet.set(m, score)
		touched = true
		if isNew {
			changed++
		} else if flags.CH && old != score {
			changed++
		}
	}
	if touched {
		k.bumpVersion(key)
	}
	return changed, nil
}

// ZIncrBy adds delta to member's score (creating the zset/member with
// base score 0 if absent), honoring NX/XX/GT/LT the same way ZADD...INCR
// does. ok is false if the flag combination vetoed the update.
func (k *Keyspace) ZIncrBy(key string, flags ZAddFlags, member string, delta float64) (score float64, ok bool, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var v *Value
	if k.purgeIfExpired(key) {
		v = &Value{Kind: KindZSet, ZSet: newZSet()}
		k.data[key] = &entry{val: v}
	} else {
		e := k.data[key]
		if e.val.Kind != KindZSet {
			return 0, false, ErrWrongType
		}
		v = e.val
	}
	old, exists := v.ZSet.score(member)
	if flags.NX && exists {
		return 0, false, nil
	}
	if flags.XX && !exists {
		return 0, false, nil
	}
	next := old + delta
	if exists && flags.GT && next <= old {
		return 0, false, nil
	}
	if exists && flags.LT && next >= old {
		return 0, false, nil
	}
	v.ZSet.set(member, next)
	k.bumpVersion(key)
	return next, true, nil
}

// ZRem removes members, deleting the key if it becomes empty.
func (k *Keyspace) ZRem(key string, members ...string) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return 0, nil
	}
	e := k.data[key]
	if e.val.Kind != KindZSet {
		return 0, ErrWrongType
	}
	n := 0
	for _, m := range members {
		if e.val.ZSet.remove(m) {
			n++
		}
	}
	if n > 0 {
		k.bumpVersion(key)
	}
	k.deleteIfEmptyLocked(key, e.val)
	return n, nil
}

// ZCard returns the member count.
func (k *Keyspace) ZCard(key string) (int, error) {
	v, ok := k.get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindZSet {
		return 0, ErrWrongType
	}
	return v.ZSet.len(), nil
}

// ZScore returns member's score.
func (k *Keyspace) ZScore(key, member string) (float64, bool, error) {
	v, ok := k.get(key)
	if !ok {
		return 0, false, nil
	}
	if v.Kind != KindZSet {
		return 0, false, ErrWrongType
	}
	s, ok := v.ZSet.score(member)
	return s, ok, nil
}

// ZMScore is ZScore for several members at once.
func (k *Keyspace) ZMScore(key string, members []string) ([]float64, []bool, error) {
	v, ok := k.get(key)
	scores := make([]float64, len(members))
	present := make([]bool, len(members))
	if !ok {
		return scores, present, nil
	}
	if v.Kind != KindZSet {
		return nil, nil, ErrWrongType
	}
	for i, m := range members {
		if s, ok := v.ZSet.score(m); ok {
			scores[i] = s
			present[i] = true
		}
	}
	return scores, present, nil
}

// ZRank returns member's ascending rank, or (-1,false) if absent.
func (k *Keyspace) ZRank(key, member string) (int, bool, error) {
	v, ok := k.get(key)
	if !ok {
		return -1, false, nil
	}
	if v.Kind != KindZSet {
		return -1, false, ErrWrongType
	}
	r := v.ZSet.rank(member)
	return r, r >= 0, nil
}

// ZRevRank returns member's descending rank.
func (k *Keyspace) ZRevRank(key, member string) (int, bool, error) {
	v, ok := k.get(key)
	if !ok {
		return -1, false, nil
	}
	if v.Kind != KindZSet {
		return -1, false, ErrWrongType
	}
	r := v.ZSet.rank(member)
	if r < 0 {
		return -1, false, nil
	}
	return v.ZSet.len() - 1 - r, true, nil
}

// ZRange returns members (and scores) by ascending rank range.
func (k *Keyspace) ZRange(key string, start, stop int, reverse bool) ([]string, []float64, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil, nil
	}
	if v.Kind != KindZSet {
		return nil, nil, ErrWrongType
	}
	n := v.ZSet.len()
	if reverse {
		// Translate a reverse-rank range into the equivalent ascending
		// slice, then flip the result.
		start, stop = normIndex(start, n), normIndex(stop, n)
		start, stop = n-1-stop, n-1-start
	}
	members := v.ZSet.rangeByRank(start, stop)
	names := make([]string, len(members))
	scores := make([]float64, len(members))
	for i, m := range members {
		names[i] = m.member
		scores[i] = m.score
	}
	if reverse {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
			scores[i], scores[j] = scores[j], scores[i]
		}
	}
	return names, scores, nil
}

// ZRangeByScore returns members (and scores) within r, in ascending
// order unless reverse is set.
func (k *Keyspace) ZRangeByScore(key string, r scoreRange, reverse bool, offset, count int) ([]string, []float64, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil, nil
	}
	if v.Kind != KindZSet {
		return nil, nil, ErrWrongType
	}
	members := v.ZSet.rangeByScore(r)
	if reverse {
		for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
			members[i], members[j] = members[j], members[i]
		}
	}
	if offset > 0 {
		if offset >= len(members) {
			members = nil
		} else {
			members = members[offset:]
		}
	}
	if count >= 0 && count < len(members) {
		members = members[:count]
	}
	names := make([]string, len(members))
	scores := make([]float64, len(members))
	for i, m := range members {
		names[i] = m.member
		scores[i] = m.score
	}
	return names, scores, nil
}

// NewScoreRange builds a scoreRange, exported for the executor to
// construct from parsed ZRANGEBYSCORE bound strings.
func NewScoreRange(min, max float64, minExcl, maxExcl bool) scoreRange {
	return scoreRange{Min: min, Max: max, MinExcl: minExcl, MaxExcl: maxExcl}
}

// ZCount counts members within r.
func (k *Keyspace) ZCount(key string, r scoreRange) (int, error) {
	v, ok := k.get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindZSet {
		return 0, ErrWrongType
	}
	return v.ZSet.countByScore(r), nil
}

// ZPopMin/ZPopMax remove and return the count lowest/highest-scored
// members, deleting the key if emptied.
func (k *Keyspace) ZPopMin(key string, count int) ([]string, []float64, error) {
	return k.zpop(key, count, false)
}

func (k *Keyspace) ZPopMax(key string, count int) ([]string, []float64, error) {
	return k.zpop(key, count, true)
}

func (k *Keyspace) zpop(key string, count int, max bool) ([]string, []float64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return nil, nil, nil
	}
	e := k.data[key]
	if e.val.Kind != KindZSet {
		return nil, nil, ErrWrongType
	}
	var popped []zsetMember
	if max {
		popped = e.val.ZSet.popMax(count)
	} else {
		popped = e.val.ZSet.popMin(count)
	}
	if len(popped) > 0 {
		k.bumpVersion(key)
	}
	k.deleteIfEmptyLocked(key, e.val)
	names := make([]string, len(popped))
	scores := make([]float64, len(popped))
	for i, m := range popped {
		names[i] = m.member
		scores[i] = m.score
	}
	return names, scores, nil
}

// ZRandMember returns up to |count| distinct random members if
// hasCount and count>=0 (repeats allowed if count<0), or a single
// member if !hasCount.
func (k *Keyspace) ZRandMember(key string, count int, hasCount bool) ([]string, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindZSet {
		return nil, ErrWrongType
	}
	members := make([]string, len(v.ZSet.sorted))
	for i, m := range v.ZSet.sorted {
		members[i] = m.member
	}
	if len(members) == 0 {
		return nil, nil
	}
	if !hasCount {
		return []string{members[rand.Intn(len(members))]}, nil
	}
	if count < 0 {
		n := -count
		out := make([]string, n)
		for i := range out {
			out[i] = members[rand.Intn(len(members))]
		}
		return out, nil
	}
	rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
	if count > len(members) {
		count = len(members)
	}
	return members[:count], nil
}
