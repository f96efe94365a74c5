package keyspace

import (
	"math"
	"strconv"
)

// HSet sets one or more field/value pairs on key's hash, creating it if
// absent. Returns the number of fields that were newly created.
func (k *Keyspace) HSet(key string, pairs map[string][]byte) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var v *Value
	if k.purgeIfExpired(key) {
		v = &Value{Kind: KindHash, Hash: make(map[string][]byte, len(pairs))}
		k.data[key] = &entry{val: v}
	} else {
		e := k.data[key]
		if e.val.Kind != KindHash {
			return 0, ErrWrongType
		}
		v = e.val
	}
	created := 0
	for f, val := range pairs {
		if _, ok := v.Hash[f]; !ok {
			created++
		}
		v.Hash[f] = val
	}
	k.bumpVersion(key)
	return created, nil
}

// HSetNX sets field only if it doesn't already exist. Returns whether
// it was applied.
func (k *Keyspace) HSetNX(key, field string, val []byte) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var v *Value
	if k.purgeIfExpired(key) {
		v = &Value{Kind: KindHash, Hash: make(map[string][]byte, 1)}
		k.data[key] = &entry{val: v}
	} else {
		e := k.data[key]
		if e.val.Kind != KindHash {
			return false, ErrWrongType
		}
		v = e.val
	}
	if _, ok := v.Hash[field]; ok {
		return false, nil
	}
	v.Hash[field] = val
	k.bumpVersion(key)
	return true, nil
}

// HGet reads a single field.
func (k *Keyspace) HGet(key, field string) ([]byte, bool, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, false, nil
	}
	if v.Kind != KindHash {
		return nil, false, ErrWrongType
	}
	val, ok := v.Hash[field]
	return val, ok, nil
}

// HMGet reads several fields at once; missing fields yield (nil, false)
// at their position.
func (k *Keyspace) HMGet(key string, fields []string) ([][]byte, []bool, error) {
	v, ok := k.get(key)
	out := make([][]byte, len(fields))
	present := make([]bool, len(fields))
	if !ok {
		return out, present, nil
	}
	if v.Kind != KindHash {
		return nil, nil, ErrWrongType
	}
	for i, f := range fields {
		if val, ok := v.Hash[f]; ok {
			out[i] = val
			present[i] = true
		}
	}
	return out, present, nil
}

// HDel removes fields, deleting the key if it becomes empty.
func (k *Keyspace) HDel(key string, fields ...string) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return 0, nil
	}
	e := k.data[key]
	if e.val.Kind != KindHash {
		return 0, ErrWrongType
	}
	n := 0
	for _, f := range fields {
		if _, ok := e.val.Hash[f]; ok {
			delete(e.val.Hash, f)
			n++
		}
	}
	if n > 0 {
		k.bumpVersion(key)
	}
	k.deleteIfEmptyLocked(key, e.val)
	return n, nil
}

// HExists reports whether field is present.
func (k *Keyspace) HExists(key, field string) (bool, error) {
	v, ok := k.get(key)
	if !ok {
		return false, nil
	}
	if v.Kind != KindHash {
		return false, ErrWrongType
	}
	_, ok = v.Hash[field]
	return ok, nil
}

// HLen returns the field count.
func (k *Keyspace) HLen(key string) (int, error) {
	v, ok := k.get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindHash {
		return 0, ErrWrongType
	}
	return len(v.Hash), nil
}

// HKeys returns every field name.
func (k *Keyspace) HKeys(key string) ([]string, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([]string, 0, len(v.Hash))
	for f := range v.Hash {
		out = append(out, f)
	}
	return out, nil
}

// HVals returns every field value.
func (k *Keyspace) HVals(key string) ([][]byte, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([][]byte, 0, len(v.Hash))
	for _, val := range v.Hash {
		out = append(out, val)
	}
	return out, nil
}

// HGetAll returns the full field→value map.
func (k *Keyspace) HGetAll(key string) (map[string][]byte, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make(map[string][]byte, len(v.Hash))
	for f, val := range v.Hash {
		out[f] = val
	}
	return out, nil
}

// HStrlen returns the byte length of field's value, 0 if absent.
func (k *Keyspace) HStrlen(key, field string) (int, error) {
	v, ok := k.get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindHash {
		return 0, ErrWrongType
	}
	return len(v.Hash[field]), nil
}

// HIncrBy adds delta to field's integer view, creating field as "0"
// first if absent (and the hash itself if absent).
func (k *Keyspace) HIncrBy(key, field string, delta int64) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var v *Value
	if k.purgeIfExpired(key) {
		v = &Value{Kind: KindHash, Hash: make(map[string][]byte, 1)}
		k.data[key] = &entry{val: v}
	} else {
		e := k.data[key]
		if e.val.Kind != KindHash {
			return 0, ErrWrongType
		}
		v = e.val
	}
	var cur int64
	if raw, ok := v.Hash[field]; ok {
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		cur = n
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}
	next := cur + delta
	v.Hash[field] = []byte(strconv.FormatInt(next, 10))
	k.bumpVersion(key)
	return next, nil
}

// HIncrByFloat adds delta to field's float view.
func (k *Keyspace) HIncrByFloat(key, field string, delta float64) (float64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var v *Value
	if k.purgeIfExpired(key) {
		v = &Value{Kind: KindHash, Hash: make(map[string][]byte, 1)}
		k.data[key] = &entry{val: v}
	} else {
		e := k.data[key]
		if e.val.Kind != KindHash {
			return 0, ErrWrongType
		}
		v = e.val
	}
	var cur float64
	if raw, ok := v.Hash[field]; ok {
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, ErrNotFloat
		}
		cur = f
	}
	next := cur + delta
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return 0, ErrNotFloat
	}
	v.Hash[field] = []byte(formatFloat(next))
	k.bumpVersion(key)
	return next, nil
}
