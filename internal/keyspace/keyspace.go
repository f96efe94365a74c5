// Package keyspace implements the polymorphic value engine: a mapping
// from opaque binary keys to one of seven typed values (string, list,
// set, hash, sorted set, stream, HyperLogLog sketch), each with an
// optional absolute-millisecond expiry, grounded on the teacher's
// internal/memorystore.memorystore.go singleton-plus-RWMutex shape
// (see DESIGN.md §B).
package keyspace

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Kind tags which variant a Value holds. Every key maps to exactly one
// kind at a time (spec.md §3 invariant).
type Kind int

const (
	KindString Kind = iota
	KindList
	KindSet
	KindHash
	KindZSet
	KindStream
	KindHLL
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	case KindStream:
		return "stream"
	case KindHLL:
		return "string" // HLLs are stored as opaque strings from the client's point of view
	default:
		return "none"
	}
}

// ErrWrongType is returned whenever a command-family is applied to a key
// holding a mismatched Kind. The executor maps it to the WRONGTYPE wire
// tag (spec.md §7) without mutating state.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// ErrNoSuchKey is returned by operations that require the key to already
// exist (e.g. LSET on a missing key).
var ErrNoSuchKey = errors.New("no such key")

// Value is the tagged variant described in spec.md §3. Only the field
// matching Kind is populated.
type Value struct {
	Kind Kind

	Str []byte

	List *list

	Set map[string]struct{}

	Hash map[string][]byte

	ZSet *zset

	Stream *stream

	HLL []byte // exactly hllRegisters bytes
}

type entry struct {
	val      *Value
	expireAt int64 // absolute unix-ms deadline; 0 means no expiry
}

func (e *entry) expired(nowMs int64) bool {
	return e.expireAt != 0 && e.expireAt <= nowMs
}

// Keyspace is the process-wide key→value map guarded by a single coarse
// lock, per spec.md §5's "shared resources" model. A per-key version
// counter backs WATCH dirty-detection in internal/txn.
type Keyspace struct {
	mu       sync.RWMutex
	data     map[string]*entry
	versions map[string]uint64
	clock    func() int64 // injectable for tests; defaults to wall-clock ms
}

// New creates an empty keyspace.
func New() *Keyspace {
	return &Keyspace{
		data:     make(map[string]*entry),
		versions: make(map[string]uint64),
		clock:    nowMs,
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// NowMs returns the current wall-clock time in Unix milliseconds, for
// callers outside this package (internal/executor) that need to
// compute expiry deadlines the same way a Keyspace's default clock
// does.
func NowMs() int64 { return nowMs() }

// bumpVersion must be called (under the write lock) whenever key's value
// or expiry changes, including deletion. internal/txn's WATCH mechanism
// compares versions observed at WATCH time against current ones.
func (k *Keyspace) bumpVersion(key string) {
	k.versions[key]++
}

// Version returns the current version counter for key (0 if never
// touched), for use by internal/txn's WATCH bookkeeping.
func (k *Keyspace) Version(key string) uint64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.versions[key]
}

// getLocked returns the live (non-expired) entry for key. An expired
// entry is reported as missing but left in place; getLocked does not
// purge it. Caller must hold at least a read lock.
func (k *Keyspace) getLocked(key string) (*entry, bool) {
	e, ok := k.data[key]
	if !ok {
		return nil, false
	}
	if e.expired(k.clock()) {
		return nil, false
	}
	return e, true
}

// purgeIfExpired removes key under the write lock if it has expired.
// Returns true if the key is gone (either was already absent or just
// expired).
func (k *Keyspace) purgeIfExpired(key string) bool {
	e, ok := k.data[key]
	if !ok {
		return true
	}
	if e.expired(k.clock()) {
		delete(k.data, key)
		k.bumpVersion(key)
		return true
	}
	return false
}

// get returns the current value for key and whether it exists, purging
// an expired entry as a side effect (spec.md §3: "an expired entry is
// indistinguishable from a missing one and MAY be purged
// opportunistically").
func (k *Keyspace) get(key string) (*Value, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return nil, false
	}
	return k.data[key].val, true
}

// set installs val for key, replacing any existing entry and clearing
// any prior expiry (setWithExpire installs a deadline instead).
func (k *Keyspace) set(key string, val *Value) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = &entry{val: val}
	k.bumpVersion(key)
}

// setWithExpire is set plus an absolute millisecond deadline (0 = none).
func (k *Keyspace) setWithExpire(key string, val *Value, expireAt int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = &entry{val: val, expireAt: expireAt}
	k.bumpVersion(key)
}

// delete removes key unconditionally. Returns true if it existed
// (live).
func (k *Keyspace) delete(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return false
	}
	delete(k.data, key)
	k.bumpVersion(key)
	return true
}

// deleteIfEmptyLocked removes key if its value is an empty container, per
// spec.md §3: "Empty container values... do not exist: when the last
// element is removed, the key is removed." Must be called under the
// write lock by per-type mutators after removing elements.
func (k *Keyspace) deleteIfEmptyLocked(key string, val *Value) {
	empty := false
	switch val.Kind {
	case KindList:
		empty = val.List.len() == 0
	case KindSet:
		empty = len(val.Set) == 0
	case KindHash:
		empty = len(val.Hash) == 0
	case KindZSet:
		empty = val.ZSet.len() == 0
	case KindStream:
		empty = len(val.Stream.entries) == 0
	}
	if empty {
		delete(k.data, key)
	}
}

// Del removes the given keys and returns the count of keys that
// actually existed (DEL command).
func (k *Keyspace) Del(keys ...string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for _, key := range keys {
		if k.purgeIfExpired(key) {
			continue
		}
		delete(k.data, key)
		k.bumpVersion(key)
		n++
	}
	return n
}

// Exists counts how many of the given keys are currently live,
// duplicates counted once per occurrence (EXISTS command semantics).
func (k *Keyspace) Exists(keys ...string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for _, key := range keys {
		if !k.purgeIfExpired(key) {
			n++
		}
	}
	return n
}

// Type reports the kind of key, or "none" if missing/expired.
func (k *Keyspace) Type(key string) string {
	v, ok := k.get(key)
	if !ok {
		return "none"
	}
	return v.Kind.String()
}

// DBSize is the number of live keys (lazily purging as it scans, so the
// count reflects reality rather than stale entries).
func (k *Keyspace) DBSize() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.clock()
	n := 0
	for key, e := range k.data {
		if e.expired(now) {
			delete(k.data, key)
			k.bumpVersion(key)
			continue
		}
		n++
	}
	return n
}

// FlushAll removes every key.
func (k *Keyspace) FlushAll() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key := range k.data {
		k.bumpVersion(key)
	}
	k.data = make(map[string]*entry)
}

// RandomKey returns a uniformly-ish chosen live key, or "", false if the
// keyspace is empty. Map iteration order in Go is already randomized per
// run, which is sufficient for this command's "some key" contract.
func (k *Keyspace) RandomKey() (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.clock()
	for key, e := range k.data {
		if e.expired(now) {
			delete(k.data, key)
			k.bumpVersion(key)
			continue
		}
		return key, true
	}
	return "", false
}

// Keys returns every live key matching the glob pattern (KEYS command).
func (k *Keyspace) Keys(pattern string) []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.clock()
	out := make([]string, 0, len(k.data))
	for key, e := range k.data {
		if e.expired(now) {
			delete(k.data, key)
			k.bumpVersion(key)
			continue
		}
		if Match(pattern, key) {
			out = append(out, key)
		}
	}
	sort.Strings(out) // deterministic order for scan/test reproducibility
	return out
}

// Rename moves src's value (and TTL) onto dst, overwriting dst. Returns
// ErrNoSuchKey if src does not exist.
func (k *Keyspace) Rename(src, dst string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(src) {
		return ErrNoSuchKey
	}
	e := k.data[src]
	delete(k.data, src)
	k.data[dst] = e
	k.bumpVersion(src)
	k.bumpVersion(dst)
	return nil
}

// RenameNX is Rename but a no-op (returning false, nil) if dst already
// exists.
func (k *Keyspace) RenameNX(src, dst string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(src) {
		return false, ErrNoSuchKey
	}
	if !k.purgeIfExpired(dst) {
		return false, nil
	}
	e := k.data[src]
	delete(k.data, src)
	k.data[dst] = e
	k.bumpVersion(src)
	k.bumpVersion(dst)
	return true, nil
}

// Copy duplicates src's value onto dst. If replace is false and dst
// exists, returns (false, nil) without mutating.
func (k *Keyspace) Copy(src, dst string, replace bool) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(src) {
		return false, ErrNoSuchKey
	}
	if !replace && !k.purgeIfExpired(dst) {
		return false, nil
	}
	srcEntry := k.data[src]
	cp := cloneValue(srcEntry.val)
	k.data[dst] = &entry{val: cp, expireAt: srcEntry.expireAt}
	k.bumpVersion(dst)
	return true, nil
}

func cloneValue(v *Value) *Value {
	cp := &Value{Kind: v.Kind}
	switch v.Kind {
	case KindString:
		cp.Str = append([]byte(nil), v.Str...)
	case KindList:
		cp.List = v.List.clone()
	case KindSet:
		cp.Set = make(map[string]struct{}, len(v.Set))
		for m := range v.Set {
			cp.Set[m] = struct{}{}
		}
	case KindHash:
		cp.Hash = make(map[string][]byte, len(v.Hash))
		for f, val := range v.Hash {
			cp.Hash[f] = append([]byte(nil), val...)
		}
	case KindZSet:
		cp.ZSet = v.ZSet.clone()
	case KindStream:
		cp.Stream = v.Stream.clone()
	case KindHLL:
		cp.HLL = append([]byte(nil), v.HLL...)
	}
	return cp
}

// ForEachLive invokes f for every currently live key, purging expired
// entries along the way. Used by persistence snapshot encoding and AOF
// rewrite. f must not mutate the keyspace.
func (k *Keyspace) ForEachLive(f func(key string, val *Value, expireAt int64)) {
	k.mu.Lock()
	now := k.clock()
	type kv struct {
		key string
		e   *entry
	}
	snap := make([]kv, 0, len(k.data))
	for key, e := range k.data {
		if e.expired(now) {
			delete(k.data, key)
			k.bumpVersion(key)
			continue
		}
		snap = append(snap, kv{key, e})
	}
	k.mu.Unlock()

	sort.Slice(snap, func(i, j int) bool { return snap[i].key < snap[j].key })
	for _, item := range snap {
		f(item.key, item.e.val, item.e.expireAt)
	}
}

// LoadEntry installs a key during persistence load/replay without
// bumping its WATCH version (there are no live watchers yet at load
// time) or re-validating invariants; callers (internal/persistence) are
// trusted to hand back values produced by this same package.
func (k *Keyspace) LoadEntry(key string, val *Value, expireAt int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = &entry{val: val, expireAt: expireAt}
}
