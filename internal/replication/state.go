// Package replication implements the primary/replica role, replication
// ID and offset bookkeeping, and replica registry described in
// spec.md §4.7. Grounded on pkg/nats/client.go's connect-with-retry
// and subscription-teardown-on-close pattern for the replica-side dial
// loop (see handshake.go), and on cmd/cc-backend/main.go's
// context+WaitGroup+signal graceful-shutdown wiring for how the
// replication goroutines start and stop alongside the server (see
// DESIGN.md §F).
package replication

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"sync"
	"time"
)

// Role is the node's current replication role.
type Role int

const (
	RolePrimary Role = iota
	RoleReplica
)

func (r Role) String() string {
	if r == RoleReplica {
		return "slave"
	}
	return "master"
}

// ReplicaLinkState tracks a connected replica's progress through the
// primary-side handshake, per spec.md §4.7's "handshake → rdb_transfer
// → online".
type ReplicaLinkState int

const (
	LinkHandshake ReplicaLinkState = iota
	LinkRDBTransfer
	LinkOnline
)

// Replica is a primary's view of one connected replica.
type Replica struct {
	ID            string
	Conn          net.Conn
	ListeningPort string
	State         ReplicaLinkState
	AckOffset     int64
}

// State is the process-wide replication role/offset/registry, guarded
// by a single coarse lock per spec.md §5's shared-resource model.
type State struct {
	mu sync.Mutex

	role   Role
	replID string
	offset int64

	replicas map[string]*Replica

	masterHost string
	masterPort string
}

// New creates a primary-role state with a freshly generated
// replication ID and zero offset.
func New() *State {
	return &State{
		role:     RolePrimary,
		replID:   newReplID(),
		offset:   0,
		replicas: make(map[string]*Replica),
	}
}

func newReplID() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Role returns the current role.
func (s *State) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// ReplicationID returns the replication ID used in FULLRESYNC replies
// and adopted by replicas after a full resync.
func (s *State) ReplicationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replID
}

// Offset returns the total bytes of command stream propagated so far.
func (s *State) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// MasterAddr returns the configured primary host/port when this node
// is a replica.
func (s *State) MasterAddr() (host, port string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.masterHost, s.masterPort, s.role == RoleReplica
}

// SetReplicaOf flips this node to replica role, pointed at host:port.
// The caller is responsible for starting the replica-side dial loop
// (see Dial in handshake.go).
func (s *State) SetReplicaOf(host, port string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = RoleReplica
	s.masterHost = host
	s.masterPort = port
}

// NoOne implements `REPLICAOF NO ONE` (spec.md §4.7's "Role flip"):
// flips back to primary, keeping the existing replid and offset so an
// ex-replica could resync future replicas of its own without a fresh
// identity. The caller is responsible for tearing down any open link
// to the former master.
func (s *State) NoOne() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = RolePrimary
	s.masterHost = ""
	s.masterPort = ""
}

// AdoptFullResync installs replID and offset after this node completes
// a replica-side full resync (spec.md §4.7 step 7: "Adopt the
// primary's replid; set local offset to 0" — offset then advances as
// the caller applies streamed commands).
func (s *State) AdoptFullResync(replID string, offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replID = replID
	s.offset = offset
}

// AdvanceOffset is called by the replica-side streaming loop after
// applying each command, advancing local offset by the command's
// on-the-wire byte length (spec.md §4.7 step 8).
func (s *State) AdvanceOffset(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += n
}

// RegisterReplica adds a replica connection in the handshake state,
// called once PSYNC is received on a client connection that has
// completed the REPLCONF exchange.
func (s *State) RegisterReplica(id string, conn net.Conn, listeningPort string) *Replica {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Replica{ID: id, Conn: conn, ListeningPort: listeningPort, State: LinkHandshake}
	s.replicas[id] = r
	return r
}

// MarkRDBTransfer transitions a replica to rdb_transfer (PSYNC
// accepted, about to stream the snapshot).
func (s *State) MarkRDBTransfer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.replicas[id]; ok {
		r.State = LinkRDBTransfer
	}
}

// MarkOnline transitions a replica to online once the snapshot body
// has been fully written.
func (s *State) MarkOnline(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.replicas[id]; ok {
		r.State = LinkOnline
	}
}

// Unregister drops a replica's entry, called on any TCP error for that
// connection (spec.md §7: "A TCP error during replication tears down
// that replica's entry and continues with the others").
func (s *State) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.replicas, id)
}

// Ack records a replica's last-acknowledged offset, from a `REPLCONF
// ACK <offset>` reply.
func (s *State) Ack(id string, offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.replicas[id]; ok {
		r.AckOffset = offset
	}
}

// Propagate encodes argv as a RESP command array and writes it to
// every online replica, advancing the primary's offset by the encoded
// length. A write error unregisters that replica rather than aborting
// the whole propagation (spec.md §7). Returns the bytes written, for
// AOF/log callers that want the same encoding.
func (s *State) Propagate(argv []string, encode func([]string) []byte) []byte {
	payload := encode(argv)

	s.mu.Lock()
	s.offset += int64(len(payload))
	targets := make([]*Replica, 0, len(s.replicas))
	for _, r := range s.replicas {
		if r.State == LinkOnline {
			targets = append(targets, r)
		}
	}
	ids := make([]string, 0, len(targets))
	s.mu.Unlock()

	for _, r := range targets {
		if _, err := r.Conn.Write(payload); err != nil {
			ids = append(ids, r.ID)
		}
	}
	for _, id := range ids {
		s.Unregister(id)
	}
	return payload
}

// ReplicaCount returns the number of currently online replicas.
func (s *State) ReplicaCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.replicas {
		if r.State == LinkOnline {
			n++
		}
	}
	return n
}

// Wait polls until at least n online replicas have acknowledged an
// offset >= the primary's offset at call time, or timeout elapses,
// returning the count actually reached (spec.md §4.7's WAIT, which
// "returns the actual count" rather than erroring on timeout).
func (s *State) Wait(n int, timeout time.Duration) int {
	target := s.Offset()
	deadline := time.Now().Add(timeout)
	for {
		count := s.countAcked(target)
		if count >= n || time.Now().After(deadline) {
			return count
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (s *State) countAcked(target int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.replicas {
		if r.State == LinkOnline && r.AckOffset >= target {
			n++
		}
	}
	return n
}
