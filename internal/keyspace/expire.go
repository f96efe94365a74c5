package keyspace

// ExpireFlag restricts when an expiry-setting command may take effect,
// per spec.md §4.2's NX/XX/GT/LT flags.
type ExpireFlag int

const (
	ExpireNone ExpireFlag = iota
	ExpireNX              // only set if key has no existing expiry
	ExpireXX              // only set if key already has an expiry
	ExpireGT              // only set if new expiry is later than current
	ExpireLT              // only set if new expiry is earlier than current (or none set)
)

// Expire sets an absolute-millisecond deadline on key, honoring flag.
// Returns (applied, err); err is ErrNoSuchKey if key is missing.
func (k *Keyspace) Expire(key string, atMs int64, flag ExpireFlag) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return false, ErrNoSuchKey
	}
	e := k.data[key]
	if !expireFlagAllows(flag, e.expireAt, atMs) {
		return false, nil
	}
	e.expireAt = atMs
	k.bumpVersion(key)
	return true, nil
}

func expireFlagAllows(flag ExpireFlag, current, next int64) bool {
	switch flag {
	case ExpireNX:
		return current == 0
	case ExpireXX:
		return current != 0
	case ExpireGT:
		// A key with no TTL is treated as infinite, so GT never applies.
		return current != 0 && next > current
	case ExpireLT:
		return current == 0 || next < current
	default:
		return true
	}
}

// Persist removes key's expiry. Returns true if an expiry was actually
// cleared.
func (k *Keyspace) Persist(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return false
	}
	e := k.data[key]
	if e.expireAt == 0 {
		return false
	}
	e.expireAt = 0
	k.bumpVersion(key)
	return true
}

// TTL returns remaining milliseconds until expiry, -1 if key has none,
// or -2 if key is missing (PTTL command; TTL divides by 1000).
func (k *Keyspace) TTL(key string, nowMs int64) int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return -2
	}
	e := k.data[key]
	if e.expireAt == 0 {
		return -1
	}
	remaining := e.expireAt - nowMs
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ExpireTime returns the absolute millisecond deadline, -1 if none, or
// -2 if missing (EXPIRETIME/PEXPIRETIME commands).
func (k *Keyspace) ExpireTime(key string) int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return -2
	}
	e := k.data[key]
	if e.expireAt == 0 {
		return -1
	}
	return e.expireAt
}

// ActiveExpireCycle purges every key past its deadline and returns how
// many were removed. internal/server's background scheduler (§2 domain
// stack, go-co-op/gocron) invokes this periodically so TTLs are
// reclaimed even on keys nobody touches again.
func (k *Keyspace) ActiveExpireCycle(nowMs int64) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for key, e := range k.data {
		if e.expired(nowMs) {
			delete(k.data, key)
			k.bumpVersion(key)
			n++
		}
	}
	return n
}
