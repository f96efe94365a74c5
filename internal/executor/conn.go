package executor

import (
	"github.com/yusa-imit/zoltraak/internal/pubsub"
	"github.com/yusa-imit/zoltraak/internal/replication"
	"github.com/yusa-imit/zoltraak/internal/txn"
)

// Conn holds the per-connection state spec.md §5 keeps outside the
// process-wide, coarsely-locked collaborators: transaction/watch state
// and the subscriber mailbox. The socket itself, and anything about how
// bytes arrive, is out of scope here (spec.md §1) and lives in
// internal/server; Conn is the capability handle command handlers get
// instead of reaching for module globals.
type Conn struct {
	ID string

	// Name is set by CLIENT SETNAME and surfaced by CLIENT GETNAME; it
	// has no effect on dispatch.
	Name string

	Tx *txn.Tx

	// Sub is non-nil once this connection has issued its first
	// SUBSCRIBE/PSUBSCRIBE. Channels/Patterns track what it's
	// registered for, so UNSUBSCRIBE with no arguments and PUBSUB
	// introspection have something to enumerate without going back to
	// the hub.
	Sub      *pubsub.Subscriber
	Channels map[string]bool
	Patterns map[string]bool

	// SubReady is closed the moment Sub is created, so a connection's
	// push-delivery goroutine (internal/server) — which runs concurrently
	// with command dispatch and so cannot see Sub's assignment directly —
	// has something to wait on instead of busy-polling.
	SubReady chan struct{}

	// Replica is set once this connection has completed a PSYNC
	// handshake and been registered with the replication state as an
	// outbound replica link; command dispatch then knows to stop
	// treating it as an ordinary client connection.
	Replica *replication.Replica
}

// NewConn creates per-connection state for a freshly accepted socket.
func NewConn(id string) *Conn {
	return &Conn{
		ID:       id,
		Tx:       txn.New(),
		Channels: map[string]bool{},
		Patterns: map[string]bool{},
		SubReady: make(chan struct{}),
	}
}

// NewReplayConn creates the Conn handed to command handlers while
// replaying the append-only log or applying a replication stream.
// Neither source can issue MULTI/SUBSCRIBE, but handlers uniformly
// expect a non-nil Tx, so one is still allocated.
func NewReplayConn() *Conn {
	return NewConn("replay")
}

// EnsureSubscriber lazily creates the connection's pub/sub mailbox on
// its first SUBSCRIBE/PSUBSCRIBE, per spec.md §5's pub/sub hub.
func (c *Conn) EnsureSubscriber() *pubsub.Subscriber {
	if c.Sub == nil {
		c.Sub = pubsub.NewSubscriber()
		close(c.SubReady)
	}
	return c.Sub
}

// SubscriptionCount is the total channel+pattern subscription count
// RESP replies to SUBSCRIBE/UNSUBSCRIBE report back to the client.
func (c *Conn) SubscriptionCount() int {
	return len(c.Channels) + len(c.Patterns)
}
