package server

import (
	"context"
	"net"
	"time"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/persistence"
	"github.com/yusa-imit/zoltraak/internal/replication"
	"github.com/yusa-imit/zoltraak/pkg/log"
)

// reconnectDelay is how long the replica-side loop waits before retrying
// a failed handshake, grounded on pkg/nats/client.go's reconnect-handler
// pattern (the teacher's client delegates retry/backoff to nats.go
// itself; a raw net.Dial loop here needs its own, so a fixed short delay
// stands in for that built-in behavior).
const reconnectDelay = time.Second

// runReplicaLink is the replica side of spec.md §4.7: dial the primary,
// load the snapshot it sends, then apply its streamed commands forever
// (replaying each one through Executor.Apply, which suppresses AOF
// append and further replica fan-out) until ctx is cancelled by a
// subsequent REPLICAOF NO ONE / REPLICAOF pointing elsewhere.
func (s *Server) runReplicaLink(ctx context.Context, host, port string) {
	_, myPort, _ := net.SplitHostPort(s.Addr())
	addr := net.JoinHostPort(host, port)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.replicaSession(ctx, addr, myPort); err != nil {
			log.Warnf("server: replica link to %s: %s", addr, err.Error())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Server) replicaSession(ctx context.Context, addr, myPort string) error {
	hs, err := replication.Dial(addr, myPort)
	if err != nil {
		return err
	}
	defer hs.Conn.Close()

	if err := persistence.Decode(hs.Snapshot, s.Exec.KS, keyspace.NowMs()); err != nil {
		return err
	}
	s.Exec.Repl.AdoptFullResync(hs.ReplID, hs.Offset)
	log.Infof("server: full resync from %s complete, replid=%s offset=%d", addr, hs.ReplID, hs.Offset)

	session := replication.NewStreamSession(hs.Decoder)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		argv, wireLen, err := session.Next()
		if err != nil {
			return err
		}
		if len(argv) == 0 {
			continue
		}
		if err := s.Exec.Apply(argv); err != nil {
			log.Warnf("server: applying replicated command %v failed: %s", argv, err.Error())
		}
		s.Exec.Repl.AdvanceOffset(wireLen)
	}
}
