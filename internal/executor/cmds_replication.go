package executor

import (
	"strings"
	"time"

	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "REPLICAOF", minArgv: 3, maxArgv: 3, write: false, handler: cmdReplicaOf})
	register(&commandSpec{name: "SLAVEOF", minArgv: 3, maxArgv: 3, write: false, handler: cmdReplicaOf})
	register(&commandSpec{name: "REPLCONF", minArgv: 2, maxArgv: -1, write: false, handler: cmdReplConf})
	register(&commandSpec{name: "WAIT", minArgv: 3, maxArgv: 3, write: false, handler: cmdWait})
}

// cmdReplicaOf flips the process's role, per spec.md §4.7's primary/
// replica state machine. "REPLICAOF NO ONE" demotes a replica back to
// primary while keeping its replication ID and offset; internal/server
// is responsible for actually tearing down or starting the handshake
// goroutine once it sees the role change.
func cmdReplicaOf(e *Executor, c *Conn, argv []string) resp.Value {
	if strings.EqualFold(argv[1], "NO") && strings.EqualFold(argv[2], "ONE") {
		e.Repl.NoOne()
		return resp.NewSimpleString("OK")
	}
	e.Repl.SetReplicaOf(argv[1], argv[2])
	return resp.NewSimpleString("OK")
}

// cmdReplConf handles the handshake sub-commands a connecting replica
// sends before PSYNC (listening-port, capa) and the ACK it streams
// afterward to report its applied offset.
func cmdReplConf(e *Executor, c *Conn, argv []string) resp.Value {
	switch strings.ToUpper(argv[1]) {
	case "LISTENING-PORT":
		if c.Replica != nil {
			c.Replica.ListeningPort = argv[2]
		}
		return resp.NewSimpleString("OK")
	case "CAPA":
		return resp.NewSimpleString("OK")
	case "ACK":
		// A replica's ACK is fire-and-forget on the duplex replication
		// link; internal/server must not write this reply back down
		// that connection (it would corrupt the command stream the
		// replica is reading), so the actual bytes here are only ever
		// observed by tests dispatching directly.
		if len(argv) >= 3 && c.Replica != nil {
			if n, ok := parseInt(argv[2]); ok {
				e.Repl.Ack(c.Replica.ID, n)
			}
		}
		return resp.NewSimpleString("OK")
	case "GETACK":
		return resp.NewSimpleString("OK")
	default:
		return resp.NewSimpleString("OK")
	}
}

// cmdWait blocks (bounded by the given timeout) until at least numreplicas
// have acknowledged the offset current at call time, per spec.md §4.7.
func cmdWait(e *Executor, c *Conn, argv []string) resp.Value {
	n, ok1 := parseInt(argv[1])
	timeoutMs, ok2 := parseInt(argv[2])
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	acked := e.Repl.Wait(int(n), time.Duration(timeoutMs)*time.Millisecond)
	return resp.NewInteger(int64(acked))
}
