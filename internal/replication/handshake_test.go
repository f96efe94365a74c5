package replication

import (
	"net"
	"testing"

	"github.com/yusa-imit/zoltraak/internal/resp"
)

// fakePrimary runs just enough of the primary-side handshake protocol
// to exercise Dial against a real TCP connection.
func fakePrimary(t *testing.T, ln net.Listener, replID string, offset int64, snapshot []byte) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		t.Errorf("Accept: %v", err)
		return
	}
	defer conn.Close()

	dec := resp.NewDecoder(conn)

	for i := 0; i < 3; i++ {
		argv, err := resp.ReadCommand(dec)
		if err != nil {
			t.Errorf("ReadCommand #%d: %v", i, err)
			return
		}
		var reply resp.Value
		switch argv[0] {
		case "PING":
			reply = resp.NewSimpleString("PONG")
		case "REPLCONF":
			reply = resp.NewSimpleString("OK")
		default:
			t.Errorf("unexpected command %v", argv)
			return
		}
		if _, err := conn.Write(resp.Encode(reply)); err != nil {
			t.Errorf("write reply: %v", err)
			return
		}
	}

	argv, err := resp.ReadCommand(dec)
	if err != nil || argv[0] != "PSYNC" {
		t.Errorf("expected PSYNC, got %v, %v", argv, err)
		return
	}
	fullresync := resp.NewSimpleString("FULLRESYNC " + replID + " " + itoa(offset))
	if _, err := conn.Write(resp.Encode(fullresync)); err != nil {
		t.Errorf("write FULLRESYNC: %v", err)
		return
	}
	if _, err := conn.Write(EncodeSnapshotFrame(snapshot)); err != nil {
		t.Errorf("write snapshot frame: %v", err)
		return
	}

	// Stream one command after the snapshot so the test can confirm the
	// handshake decoder's buffer carries over cleanly into streaming mode.
	if _, err := conn.Write(resp.EncodeCommand([]string{"SET", "k", "v"})); err != nil {
		t.Errorf("write streamed command: %v", err)
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestDialPerformsFullHandshake(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	snapshot := []byte("fake-snapshot-bytes")
	go fakePrimary(t, ln, "abc123", 0, snapshot)

	result, err := Dial(ln.Addr().String(), "7000")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer result.Conn.Close()

	if result.ReplID != "abc123" {
		t.Fatalf("ReplID = %q, want abc123", result.ReplID)
	}
	if result.Offset != 0 {
		t.Fatalf("Offset = %d, want 0", result.Offset)
	}
	if string(result.Snapshot) != string(snapshot) {
		t.Fatalf("Snapshot = %q, want %q", result.Snapshot, snapshot)
	}

	session := NewStreamSession(result.Decoder)
	argv, n, err := session.Next()
	if err != nil {
		t.Fatalf("session.Next: %v", err)
	}
	if len(argv) != 3 || argv[0] != "SET" || argv[1] != "k" || argv[2] != "v" {
		t.Fatalf("streamed command = %v", argv)
	}
	if n != int64(len(resp.EncodeCommand([]string{"SET", "k", "v"}))) {
		t.Fatalf("wire length = %d, want %d", n, len(resp.EncodeCommand([]string{"SET", "k", "v"})))
	}
}
