// Package server implements the TCP accept loop and per-connection
// request/response cycle spec.md §6 places outside the wire codec and
// command layer: "the server loop, socket framing beyond RESP parsing,
// and connection lifecycle are this engine's integration surface, not
// its invariants." Grounded on cmd/cc-backend/main.go's
// net.Listen+sync.WaitGroup+signal.Notify graceful-shutdown shape,
// generalized from one http.Server.Serve goroutine to one goroutine per
// accepted connection (see DESIGN.md §J).
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/yusa-imit/zoltraak/internal/executor"
	"github.com/yusa-imit/zoltraak/internal/persistence"
	"github.com/yusa-imit/zoltraak/internal/replication"
	"github.com/yusa-imit/zoltraak/internal/resp"
	"github.com/yusa-imit/zoltraak/pkg/log"
)

// Server owns the listening socket and every connection spawned from
// it. One Server wraps one Executor; the Executor's own collaborators
// (keyspace, pubsub hub, replication state) are process-wide and shared
// by every connection.
type Server struct {
	Exec *executor.Executor

	listener net.Listener
	wg       sync.WaitGroup
	connSeq  uint64

	replicaCancel context.CancelFunc
	replicaDone   chan struct{}
}

// Listen binds addr ("host:port") and returns a Server ready for Serve.
func Listen(addr string, exec *executor.Executor) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return &Server{Exec: exec, listener: ln}, nil
}

// Addr reports the actual listening address, useful when Listen was
// given port 0 in tests.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until the listener is closed by Shutdown,
// spawning one goroutine per connection. It returns nil on a clean
// shutdown (net.ErrClosed surfacing from a Shutdown-triggered close is
// not treated as a failure).
func (s *Server) Serve() error {
	log.Infof("server: listening at %s", s.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		id := fmt.Sprintf("conn-%d", atomic.AddUint64(&s.connSeq, 1))
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(id, conn)
		}()
	}
}

// Shutdown closes the listener (causing Serve to return) and waits for
// every in-flight connection handler to finish, mirroring
// cmd/cc-backend/main.go's server.Shutdown-then-wait sequencing.
func (s *Server) Shutdown() {
	s.listener.Close()
	s.wg.Wait()
}

// handleConn runs one client connection's full lifecycle: decode a
// command, dispatch it, encode the reply, repeat. PSYNC is special-cased
// because its reply is a raw snapshot frame rather than an ordinary RESP
// value, and because accepting it switches the connection permanently
// into replica fan-out mode (spec.md §4.7).
func (s *Server) handleConn(id string, conn net.Conn) {
	defer conn.Close()

	c := executor.NewConn(id)
	dec := resp.NewDecoder(conn)
	var writeMu sync.Mutex

	pushDone := make(chan struct{})
	go s.deliverPushMessages(c, conn, &writeMu, pushDone)
	defer func() {
		close(pushDone)
		if c.Sub != nil {
			s.Exec.Pub.UnsubscribeAll(c.Sub)
			c.Sub.Close()
		}
	}()

	for {
		argv, err := resp.ReadCommand(dec)
		if err != nil {
			return
		}
		if len(argv) == 0 {
			continue
		}

		if isPSync(argv) {
			s.handlePSync(id, conn, &writeMu)
			return
		}

		reply := s.Exec.Dispatch(c, argv)
		if c.Replica != nil {
			// A replica connection only ever sends REPLCONF ACK, whose
			// reply must not be written back down the link — doing so
			// would interleave with the command stream it is reading
			// (internal/executor/cmds_replication.go's cmdReplConf doc).
			continue
		}
		writeMu.Lock()
		_, werr := conn.Write(resp.Encode(reply))
		writeMu.Unlock()
		if werr != nil {
			return
		}

		if reply.Kind != resp.Error && isReplicaOf(argv) {
			s.handleReplicaOf(argv)
		}
	}
}

func isPSync(argv []string) bool {
	return len(argv) >= 1 && eqFold(argv[0], "PSYNC")
}

func isReplicaOf(argv []string) bool {
	return len(argv) >= 1 && (eqFold(argv[0], "REPLICAOF") || eqFold(argv[0], "SLAVEOF"))
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// deliverPushMessages forwards a connection's subscribed pub/sub
// messages as RESP push arrays, running concurrently with the
// request/response loop above; writeMu serializes both goroutines'
// writes onto the same socket.
func (s *Server) deliverPushMessages(c *executor.Conn, conn net.Conn, writeMu *sync.Mutex, done chan struct{}) {
	select {
	case <-c.SubReady:
	case <-done:
		return
	}
	for {
		select {
		case msg, ok := <-c.Sub.Ch:
			if !ok {
				return
			}
			var frame resp.Value
			if msg.Pattern != "" {
				frame = resp.NewArray(
					resp.NewBulkStringFrom("pmessage"),
					resp.NewBulkStringFrom(msg.Pattern),
					resp.NewBulkStringFrom(msg.Channel),
					resp.NewBulkString(msg.Payload),
				)
			} else {
				frame = resp.NewArray(
					resp.NewBulkStringFrom("message"),
					resp.NewBulkStringFrom(msg.Channel),
					resp.NewBulkString(msg.Payload),
				)
			}
			writeMu.Lock()
			_, err := conn.Write(resp.Encode(frame))
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// handlePSync implements the primary side of spec.md §4.7's handshake:
// reply FULLRESYNC <replid> <offset>, then a raw snapshot frame, then
// register the connection as an online replica so future writes fan out
// to it via Executor.propagate -> replication.State.Propagate.
func (s *Server) handlePSync(id string, conn net.Conn, writeMu *sync.Mutex) {
	replID := s.Exec.Repl.ReplicationID()
	offset := s.Exec.Repl.Offset()

	writeMu.Lock()
	_, err := conn.Write(resp.Encode(resp.NewSimpleString(fmt.Sprintf("FULLRESYNC %s %d", replID, offset))))
	writeMu.Unlock()
	if err != nil {
		return
	}

	replica := s.Exec.Repl.RegisterReplica(id, conn, "")
	s.Exec.Repl.MarkRDBTransfer(id)

	payload, err := persistence.Encode(s.Exec.KS)
	if err != nil {
		log.Errorf("server: encoding snapshot for replica %s failed: %s", id, err.Error())
		s.Exec.Repl.Unregister(id)
		return
	}

	writeMu.Lock()
	_, err = conn.Write(replication.EncodeSnapshotFrame(payload))
	writeMu.Unlock()
	if err != nil {
		s.Exec.Repl.Unregister(id)
		return
	}

	s.Exec.Repl.MarkOnline(id)
	log.Infof("server: replica %s is online", id)

	// The connection is now a pure write target for Propagate; still
	// read from it so REPLCONF ACK frames update its acked offset, and
	// so a closed socket is noticed and unregistered.
	dec := resp.NewDecoder(conn)
	c := executor.NewConn(id)
	c.Replica = replica
	for {
		argv, err := resp.ReadCommand(dec)
		if err != nil {
			s.Exec.Repl.Unregister(id)
			return
		}
		s.Exec.Dispatch(c, argv)
	}
}

// StartReplicaOf is handleReplicaOf's entry point for callers outside a
// client connection — namely cmd/zoltraak-server/main.go wiring
// --replicaof at startup, before any socket has been accepted.
func (s *Server) StartReplicaOf(host, port string) {
	s.Exec.Dispatch(executor.NewReplayConn(), []string{"REPLICAOF", host, port})
	s.handleReplicaOf([]string{"REPLICAOF", host, port})
}

// handleReplicaOf starts (or stops) the replica-side dial loop once a
// client issues REPLICAOF/SLAVEOF. The command handler itself
// (internal/executor/cmds_replication.go) only flips in-memory role
// state; actually opening or tearing down the link to a primary is this
// package's job, same division of labor as PSYNC above.
func (s *Server) handleReplicaOf(argv []string) {
	if s.replicaCancel != nil {
		s.replicaCancel()
		<-s.replicaDone
		s.replicaCancel = nil
		s.replicaDone = nil
	}
	if eqFold(argv[1], "NO") && len(argv) > 2 && eqFold(argv[2], "ONE") {
		return
	}
	if len(argv) < 3 {
		return
	}
	host, port := argv[1], argv[2]
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.replicaCancel = cancel
	s.replicaDone = done
	go func() {
		defer close(done)
		s.runReplicaLink(ctx, host, port)
	}()
}
