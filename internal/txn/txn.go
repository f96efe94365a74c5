// Package txn implements per-connection MULTI/EXEC transaction batching
// and WATCH optimistic-concurrency dirty detection, per spec.md §4.5.
// No pack repo carries an analogous primitive — the teacher's
// internal/repository transactions are ordinary SQL transactions, a
// different mechanism entirely — so this is built fresh in the
// teacher's plain-struct-plus-mutex idiom (see DESIGN.md §E), using
// internal/keyspace's per-key version counter instead of a separate
// watcher-notification registry: a watched key's dirtiness is decided
// by comparing its WATCH-time version against its EXEC-time version,
// which is equivalent to eager dirty-marking but needs no cross-
// connection bookkeeping.
package txn

import (
	"errors"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
)

// ErrAlreadyInMulti is returned by MULTI when a transaction is already
// open on this connection.
var ErrAlreadyInMulti = errors.New("MULTI calls can not be nested")

// ErrWatchInsideMulti is returned by Watch when called after MULTI
// (spec.md §4.5: "fails if already inside MULTI").
var ErrWatchInsideMulti = errors.New("WATCH inside MULTI is not allowed")

// ErrNotInMulti is returned by Exec/Discard when no transaction is open.
var ErrNotInMulti = errors.New("EXEC without MULTI")

// QueuedCommand is one command deferred for EXEC, paired with the argv
// it will be dispatched with.
type QueuedCommand struct {
	Argv []string
}

// Tx holds one connection's transaction and watch state. Not safe for
// concurrent use by multiple goroutines — a connection is driven by a
// single goroutine, per spec.md §4.6's "scheduling model".
type Tx struct {
	active  bool
	queue   []QueuedCommand
	watched map[string]uint64
}

// New creates idle transaction state for a new connection.
func New() *Tx {
	return &Tx{watched: make(map[string]uint64)}
}

// Active reports whether MULTI has been called and EXEC/DISCARD has not
// yet closed it.
func (t *Tx) Active() bool { return t.active }

// Multi opens a transaction, resetting any previously queued commands.
func (t *Tx) Multi() error {
	if t.active {
		return ErrAlreadyInMulti
	}
	t.active = true
	t.queue = nil
	return nil
}

// Queue appends argv to the pending command queue. The caller must
// already have confirmed t.Active().
func (t *Tx) Queue(argv []string) {
	t.queue = append(t.queue, QueuedCommand{Argv: argv})
}

// Discard clears transaction state (queue and watches alike), per
// spec.md §4.5.
func (t *Tx) Discard() {
	t.active = false
	t.queue = nil
	t.watched = make(map[string]uint64)
}

// Watch records key's current version for later dirty comparison. It
// is an error to call Watch while a transaction is open.
func (t *Tx) Watch(ks *keyspace.Keyspace, keys ...string) error {
	if t.active {
		return ErrWatchInsideMulti
	}
	for _, key := range keys {
		t.watched[key] = ks.Version(key)
	}
	return nil
}

// Unwatch clears the watch set without touching any open transaction.
func (t *Tx) Unwatch() {
	t.watched = make(map[string]uint64)
}

// Dirty reports whether any watched key's version has advanced since
// Watch was called for it.
func (t *Tx) Dirty(ks *keyspace.Keyspace) bool {
	for key, seen := range t.watched {
		if ks.Version(key) != seen {
			return true
		}
	}
	return false
}

// Exec drains the queue for the caller to dispatch, clearing all
// transaction and watch state as spec.md §4.5 requires ("State is
// cleared before return"). ok is false (queue nil) when no transaction
// was open, or when the watch set was dirty — in the dirty case the
// caller must reply with a null array and not execute anything.
func (t *Tx) Exec(ks *keyspace.Keyspace) (queue []QueuedCommand, ok bool, err error) {
	if !t.active {
		return nil, false, ErrNotInMulti
	}
	dirty := t.Dirty(ks)
	queue = t.queue
	t.active = false
	t.queue = nil
	t.watched = make(map[string]uint64)
	if dirty {
		return nil, false, nil
	}
	return queue, true, nil
}
