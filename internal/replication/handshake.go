package replication

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/yusa-imit/zoltraak/internal/resp"
)

// HandshakeResult carries what Dial learned from the primary before
// streaming begins. Decoder is the same decoder used during the
// handshake exchange and must be reused (not replaced by a fresh
// decoder around Conn) for streaming mode, since it may already hold
// buffered bytes read ahead of the snapshot body.
type HandshakeResult struct {
	Conn     net.Conn
	Decoder  *resp.Decoder
	ReplID   string
	Offset   int64
	Snapshot []byte
}

// Dial performs the replica-side handshake against a primary at
// addr ("host:port"), per spec.md §4.7:
//
//  1. open TCP connection
//  2. PING, expect +PONG
//  3. REPLCONF listening-port <myPort>, expect +OK
//  4. REPLCONF capa eof capa psync2, expect +OK
//  5. PSYNC ? -1, expect +FULLRESYNC <replid> <offset>
//  6. read bulk header $<n> then exactly n raw bytes, no trailing CRLF
//
// The returned Decoder is positioned exactly after the snapshot body,
// ready for the caller to switch into RESP streaming mode; the raw Conn
// may already have been read past that point by the Decoder's buffer.
func Dial(addr, myPort string) (*HandshakeResult, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("replication: dial %s: %w", addr, err)
	}

	dec := resp.NewDecoder(conn)

	if err := sendAndExpectSimple(conn, dec, []string{"PING"}, "PONG"); err != nil {
		conn.Close()
		return nil, err
	}
	if err := sendAndExpectSimple(conn, dec, []string{"REPLCONF", "listening-port", myPort}, "OK"); err != nil {
		conn.Close()
		return nil, err
	}
	if err := sendAndExpectSimple(conn, dec, []string{"REPLCONF", "capa", "eof", "capa", "psync2"}, "OK"); err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := conn.Write(resp.EncodeCommand([]string{"PSYNC", "?", "-1"})); err != nil {
		conn.Close()
		return nil, fmt.Errorf("replication: send PSYNC: %w", err)
	}
	v, err := dec.Decode()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("replication: read FULLRESYNC reply: %w", err)
	}
	if v.Kind != resp.SimpleString || !strings.HasPrefix(v.Str, "FULLRESYNC ") {
		conn.Close()
		return nil, fmt.Errorf("replication: unexpected PSYNC reply %q", v.Str)
	}
	fields := strings.Fields(v.Str)
	if len(fields) != 3 {
		conn.Close()
		return nil, fmt.Errorf("replication: malformed FULLRESYNC reply %q", v.Str)
	}
	replID := fields[1]
	offset, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("replication: malformed FULLRESYNC offset %q", fields[2])
	}

	snapshot, err := readBulkHeaderAndBody(dec)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &HandshakeResult{Conn: conn, Decoder: dec, ReplID: replID, Offset: offset, Snapshot: snapshot}, nil
}

func sendAndExpectSimple(conn net.Conn, dec *resp.Decoder, argv []string, wantSimple string) error {
	if _, err := conn.Write(resp.EncodeCommand(argv)); err != nil {
		return fmt.Errorf("replication: send %v: %w", argv, err)
	}
	v, err := dec.Decode()
	if err != nil {
		return fmt.Errorf("replication: read reply to %v: %w", argv, err)
	}
	if v.Kind == resp.Error {
		return fmt.Errorf("replication: %v rejected: %s", argv, v.Str)
	}
	if v.Kind != resp.SimpleString || v.Str != wantSimple {
		return fmt.Errorf("replication: %v got unexpected reply %q", argv, v.Str)
	}
	return nil
}

// readBulkHeaderAndBody reads the special non-RESP-terminated snapshot
// frame: a bulk-string length header "$<n>\r\n" followed by exactly n
// raw bytes with no trailing CRLF (spec.md §6's documented deviation).
// It reads through the Decoder's underlying buffered reader directly
// rather than via Decoder.Decode, since Decode always expects the
// trailing CRLF that this one frame omits.
func readBulkHeaderAndBody(dec *resp.Decoder) ([]byte, error) {
	header, err := dec.ReadRawLine()
	if err != nil {
		return nil, fmt.Errorf("replication: read snapshot header: %w", err)
	}
	if len(header) == 0 || header[0] != '$' {
		return nil, fmt.Errorf("replication: expected snapshot bulk header, got %q", header)
	}
	n, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("replication: malformed snapshot length %q", header)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(dec, buf); err != nil {
		return nil, fmt.Errorf("replication: read snapshot body: %w", err)
	}
	return buf, nil
}

// EncodeSnapshotFrame wraps a snapshot payload in the bulk-header-
// without-trailing-CRLF framing the primary side writes after
// FULLRESYNC.
func EncodeSnapshotFrame(payload []byte) []byte {
	return append([]byte(fmt.Sprintf("$%d\r\n", len(payload))), payload...)
}
