package keyspace

import "math/rand"

// SAdd adds members to key's set, creating it if absent. Returns the
// number of members actually added (i.e. not already present).
func (k *Keyspace) SAdd(key string, members ...[]byte) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var v *Value
	if k.purgeIfExpired(key) {
		v = &Value{Kind: KindSet, Set: make(map[string]struct{}, len(members))}
		k.data[key] = &entry{val: v}
	} else {
		e := k.data[key]
		if e.val.Kind != KindSet {
			return 0, ErrWrongType
		}
		v = e.val
	}
	added := 0
	for _, m := range members {
		if _, ok := v.Set[string(m)]; !ok {
			v.Set[string(m)] = struct{}{}
			added++
		}
	}
	if added > 0 {
		k.bumpVersion(key)
	}
	return added, nil
}

// SRem removes members from key's set, deleting the key if it becomes
// empty. Returns the count actually removed.
func (k *Keyspace) SRem(key string, members ...[]byte) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return 0, nil
	}
	e := k.data[key]
	if e.val.Kind != KindSet {
		return 0, ErrWrongType
	}
	n := 0
	for _, m := range members {
		if _, ok := e.val.Set[string(m)]; ok {
			delete(e.val.Set, string(m))
			n++
		}
	}
	if n > 0 {
		k.bumpVersion(key)
	}
	k.deleteIfEmptyLocked(key, e.val)
	return n, nil
}

// SIsMember reports whether member is in key's set.
func (k *Keyspace) SIsMember(key string, member []byte) (bool, error) {
	v, ok := k.get(key)
	if !ok {
		return false, nil
	}
	if v.Kind != KindSet {
		return false, ErrWrongType
	}
	_, ok = v.Set[string(member)]
	return ok, nil
}

// SMembers returns every member of key's set.
func (k *Keyspace) SMembers(key string) ([][]byte, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindSet {
		return nil, ErrWrongType
	}
	out := make([][]byte, 0, len(v.Set))
	for m := range v.Set {
		out = append(out, []byte(m))
	}
	return out, nil
}

// SCard returns the cardinality of key's set.
func (k *Keyspace) SCard(key string) (int, error) {
	v, ok := k.get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindSet {
		return 0, ErrWrongType
	}
	return len(v.Set), nil
}

// setsOf resolves each key to its member-set, erroring on non-set kinds
// and treating missing keys as empty sets.
func (k *Keyspace) setsOf(keys []string) ([]map[string]struct{}, error) {
	out := make([]map[string]struct{}, len(keys))
	for i, key := range keys {
		v, ok := k.get(key)
		if !ok {
			out[i] = map[string]struct{}{}
			continue
		}
		if v.Kind != KindSet {
			return nil, ErrWrongType
		}
		out[i] = v.Set
	}
	return out, nil
}

// SUnion returns the union of the given sets' members.
func (k *Keyspace) SUnion(keys ...string) ([][]byte, error) {
	sets, err := k.setsOf(keys)
	if err != nil {
		return nil, err
	}
	acc := map[string]struct{}{}
	for _, s := range sets {
		for m := range s {
			acc[m] = struct{}{}
		}
	}
	return setToBytes(acc), nil
}

// SInter returns the intersection of the given sets' members.
func (k *Keyspace) SInter(keys ...string) ([][]byte, error) {
	sets, err := k.setsOf(keys)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	acc := map[string]struct{}{}
	for m := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if _, ok := s[m]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			acc[m] = struct{}{}
		}
	}
	return setToBytes(acc), nil
}

// SDiff returns members of the first set absent from all others.
func (k *Keyspace) SDiff(keys ...string) ([][]byte, error) {
	sets, err := k.setsOf(keys)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	acc := map[string]struct{}{}
	for m := range sets[0] {
		acc[m] = struct{}{}
	}
	for _, s := range sets[1:] {
		for m := range s {
			delete(acc, m)
		}
	}
	return setToBytes(acc), nil
}

func setToBytes(s map[string]struct{}) [][]byte {
	out := make([][]byte, 0, len(s))
	for m := range s {
		out = append(out, []byte(m))
	}
	return out
}

// storeSet replaces dest's value with a materialized set, deleting dest
// if the result is empty. Returns the resulting cardinality.
func (k *Keyspace) storeSet(dest string, members [][]byte) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(members) == 0 {
		k.purgeIfExpired(dest)
		if _, ok := k.data[dest]; ok {
			delete(k.data, dest)
			k.bumpVersion(dest)
		}
		return 0
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[string(m)] = struct{}{}
	}
	k.data[dest] = &entry{val: &Value{Kind: KindSet, Set: set}}
	k.bumpVersion(dest)
	return len(set)
}

// SUnionStore/SInterStore/SDiffStore compute then persist at dest.
func (k *Keyspace) SUnionStore(dest string, keys ...string) (int, error) {
	m, err := k.SUnion(keys...)
	if err != nil {
		return 0, err
	}
	return k.storeSet(dest, m), nil
}

func (k *Keyspace) SInterStore(dest string, keys ...string) (int, error) {
	m, err := k.SInter(keys...)
	if err != nil {
		return 0, err
	}
	return k.storeSet(dest, m), nil
}

func (k *Keyspace) SDiffStore(dest string, keys ...string) (int, error) {
	m, err := k.SDiff(keys...)
	if err != nil {
		return 0, err
	}
	return k.storeSet(dest, m), nil
}

// SRandMember returns up to |count| distinct random members if count>=0
// (fewer if the set is smaller), or exactly |count| members allowing
// repeats if count<0.
func (k *Keyspace) SRandMember(key string, count int, hasCount bool) ([][]byte, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindSet {
		return nil, ErrWrongType
	}
	members := setToBytes(v.Set)
	if len(members) == 0 {
		return nil, nil
	}
	if !hasCount {
		return [][]byte{members[rand.Intn(len(members))]}, nil
	}
	if count < 0 {
		n := -count
		out := make([][]byte, n)
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

// SPop removes and returns up to count random members (1 if no count
// was given), deleting the key if emptied.
func (k *Keyspace) SPop(key string, count int) ([][]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return nil, nil
	}
	e := k.data[key]
	if e.val.Kind != KindSet {
		return nil, ErrWrongType
	}
	members := setToBytes(e.val.Set)
	rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
	if count > len(members) {
		count = len(members)
	}
	out := members[:count]
	for _, m := range out {
		delete(e.val.Set, string(m))
	}
	if len(out) > 0 {
		k.bumpVersion(key)
	}
	k.deleteIfEmptyLocked(key, e.val)
	return out, nil
}

// SMove atomically moves member from src's set to dst's set. Returns
// false if member was not in src.
func (k *Keyspace) SMove(src, dst string, member []byte) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(src) {
		return false, nil
	}
	se := k.data[src]
	if se.val.Kind != KindSet {
		return false, ErrWrongType
	}
	if _, ok := se.val.Set[string(member)]; !ok {
		return false, nil
	}

	var de *entry
	if src == dst {
		de = se
	} else if k.purgeIfExpired(dst) {
		de = nil
	} else {
		de = k.data[dst]
		if de.val.Kind != KindSet {
			return false, ErrWrongType
		}
	}

	delete(se.val.Set, string(member))
	if de == nil {
		k.data[dst] = &entry{val: &Value{Kind: KindSet, Set: map[string]struct{}{string(member): {}}}}
	} else if src != dst {
		de.val.Set[string(member)] = struct{}{}
	}
	k.bumpVersion(src)
	k.bumpVersion(dst)
	k.deleteIfEmptyLocked(src, se.val)
	return true, nil
}
