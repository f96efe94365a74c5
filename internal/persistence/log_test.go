package persistence

import (
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
)

func TestLogAppendReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appendonly.aof")

	log, err := OpenLog(path)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}
	commands := [][]string{
		{"SET", "k1", "v1"},
		{"RPUSH", "list", "a", "b"},
		{"SADD", "set", "x"},
		{"DEL", "k1"},
	}
	for _, argv := range commands {
		if err := log.Append(argv); err != nil {
			t.Fatalf("Append(%v): %v", argv, err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var replayed [][]string
	if err := Replay(path, func(argv []string) error {
		replayed = append(replayed, argv)
		return nil
	}); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if !reflect.DeepEqual(replayed, commands) {
		t.Fatalf("replayed = %v, want %v", replayed, commands)
	}
}

func TestReplayMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.aof")
	called := false
	if err := Replay(path, func(argv []string) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if called {
		t.Fatalf("apply should never have been called for a missing log")
	}
}

func TestLogRewriteCompactsToCurrentState(t *testing.T) {
	dir := t.TempDir()
	tmpPath := filepath.Join(dir, "rewrite.tmp")
	finalPath := filepath.Join(dir, "appendonly.aof")

	ks := keyspace.New()
	populate(t, ks)

	if err := Rewrite(tmpPath, finalPath, ks, 0); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	replayed := keyspace.New()
	apply := func(argv []string) error {
		switch argv[0] {
		case "SET":
			replayed.Set(argv[1], []byte(argv[2]), 0, false)
		case "RPUSH":
			vals := make([][]byte, 0, len(argv)-2)
			for _, s := range argv[2:] {
				vals = append(vals, []byte(s))
			}
			_, err := replayed.Push(argv[1], true, vals)
			return err
		case "SADD":
			members := make([][]byte, 0, len(argv)-2)
			for _, s := range argv[2:] {
				members = append(members, []byte(s))
			}
			_, err := replayed.SAdd(argv[1], members...)
			return err
		case "HSET":
			pairs := make(map[string][]byte, (len(argv)-2)/2)
			for i := 2; i < len(argv); i += 2 {
				pairs[argv[i]] = []byte(argv[i+1])
			}
			_, err := replayed.HSet(argv[1], pairs)
			return err
		case "ZADD":
			members := make([]string, 0, (len(argv)-2)/2)
			scores := make([]float64, 0, (len(argv)-2)/2)
			for i := 2; i < len(argv); i += 2 {
				score, err := strconv.ParseFloat(argv[i], 64)
				if err != nil {
					return err
				}
				scores = append(scores, score)
				members = append(members, argv[i+1])
			}
			_, err := replayed.ZAdd(argv[1], keyspace.ZAddFlags{}, members, scores)
			return err
		case "XADD":
			fields := make([]keyspace.StreamField, 0, (len(argv)-3)/2)
			for i := 3; i < len(argv); i += 2 {
				fields = append(fields, keyspace.StreamField{Field: []byte(argv[i]), Value: []byte(argv[i+1])})
			}
			_, err := replayed.XAdd(argv[1], keyspace.StreamID{Ms: 100}, false, true, 0, fields)
			return err
		case "PFSETREG":
			return replayed.SetHLLRegisters(argv[1], []byte(argv[2]))
		case "PEXPIREAT":
			return nil
		}
		return nil
	}

	if err := Replay(finalPath, apply); err != nil {
		t.Fatalf("Replay(rewritten): %v", err)
	}

	if got, _, _ := replayed.Get("greeting"); string(got) != "hello" {
		t.Fatalf("greeting = %q", got)
	}
	if items, _ := replayed.LRange("mylist", 0, -1); len(items) != 3 {
		t.Fatalf("mylist = %v", items)
	}
	if members, _ := replayed.SMembers("myset"); len(members) != 2 {
		t.Fatalf("myset = %v", members)
	}

	// The HLL must survive rewrite as a PFSETREG, not a SET: a plain SET
	// would make myhll a KindString value, and every later PFCOUNT/PFADD
	// against it would fail with ErrWrongType instead of reporting its
	// cardinality.
	count, err := replayed.PFCount("myhll")
	if err != nil {
		t.Fatalf("PFCount(myhll) after rewrite: %v", err)
	}
	if count != 3 {
		t.Fatalf("PFCount(myhll) after rewrite = %d, want 3", count)
	}
	if _, err := replayed.PFAdd("myhll", []byte("e4")); err != nil {
		t.Fatalf("PFAdd(myhll) after rewrite: %v", err)
	}
}
