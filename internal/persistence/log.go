package persistence

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/resp"
)

// Log is the append-only command log described in spec.md §4.3: every
// write command that reached the keyspace is appended here as a RESP
// command array, so a restart can replay it on top of the last
// snapshot. Grounded on the teacher's checkpoint.go background-writer
// shape, adapted from a periodic-snapshot writer to a per-write
// appender guarded by a single mutex (matching Redis's own AOF, which
// serializes appends behind the event loop).
type Log struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// OpenLog opens (creating if necessary) the append-only file at path
// for appending.
func OpenLog(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Log{file: f, path: path}, nil
}

// Append writes argv as one RESP command-array record and fsyncs it.
// fsync-per-write matches Redis's appendfsync=always; spec.md leaves
// the durability/throughput tradeoff unspecified so the strictest
// option is the safe default.
func (l *Log) Append(argv []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(resp.EncodeCommand(argv)); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Reopen closes the current file handle and reopens l.path for
// appending. Callers must call this after Rewrite replaces the file
// l was originally opened against — otherwise l keeps appending to the
// old, now-unlinked inode instead of the rewritten file Rewrite's
// rename left in its place.
func (l *Log) Reopen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Replay decodes the RESP command log at path in order, invoking apply
// for each decoded argv. Replay does not know about internal/executor's
// dispatch table — the caller supplies it via apply, keeping persistence
// free of a dependency on the command layer.
func Replay(path string, apply func(argv []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	dec := resp.NewDecoder(f)
	for {
		argv, err := resp.ReadCommand(dec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("persistence: replay %s: %w", path, err)
		}
		if len(argv) == 0 {
			continue
		}
		if err := apply(argv); err != nil {
			return fmt.Errorf("persistence: replay %s: apply %v: %w", path, argv, err)
		}
	}
}

// Rewrite compacts the log at tmpPath into the minimal sequence of
// commands that reconstructs ks's current contents, then atomically
// replaces finalPath with it — the AOF-rewrite half of spec.md §4.3,
// mirroring Save's temp-file-then-rename discipline.
func Rewrite(tmpPath, finalPath string, ks *keyspace.Keyspace, nowMs int64) error {
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	var writeErr error
	ks.ForEachLive(func(key string, val *keyspace.Value, expireAt int64) {
		if writeErr != nil {
			return
		}
		for _, argv := range rewriteCommandsFor(key, val) {
			if _, err := f.Write(resp.EncodeCommand(argv)); err != nil {
				writeErr = err
				return
			}
		}
		if expireAt != 0 {
			argv := []string{"PEXPIREAT", key, strconv.FormatInt(expireAt, 10)}
			if _, err := f.Write(resp.EncodeCommand(argv)); err != nil {
				writeErr = err
				return
			}
		}
	})
	if writeErr != nil {
		f.Close()
		return writeErr
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, finalPath)
}

// rewriteCommandsFor builds the minimal write-command sequence that
// recreates val under key. The individual elements that went into
// PFADD are not recoverable from an HLL's register array, so it is
// rewritten via PFSETREG (internal/executor/cmds_hll.go), which
// installs the raw registers under keyspace.KindHLL directly — routing
// it through SET instead would silently turn the key into a plain
// string, since Set() always creates a KindString value.
func rewriteCommandsFor(key string, val *keyspace.Value) [][]string {
	switch val.Kind {
	case keyspace.KindString:
		return [][]string{{"SET", key, string(val.Str)}}
	case keyspace.KindHLL:
		return [][]string{{"PFSETREG", key, string(val.HLL)}}
	case keyspace.KindList:
		items := val.List.Items()
		argv := make([]string, 0, len(items)+2)
		argv = append(argv, "RPUSH", key)
		for _, it := range items {
			argv = append(argv, string(it))
		}
		return [][]string{argv}
	case keyspace.KindSet:
		argv := make([]string, 0, len(val.Set)+2)
		argv = append(argv, "SADD", key)
		for m := range val.Set {
			argv = append(argv, m)
		}
		return [][]string{argv}
	case keyspace.KindHash:
		argv := make([]string, 0, len(val.Hash)*2+2)
		argv = append(argv, "HSET", key)
		for f, v := range val.Hash {
			argv = append(argv, f, string(v))
		}
		return [][]string{argv}
	case keyspace.KindZSet:
		members, scores := val.ZSet.Entries()
		argv := make([]string, 0, len(members)*2+2)
		argv = append(argv, "ZADD", key)
		for i, m := range members {
			argv = append(argv, strconv.FormatFloat(scores[i], 'g', -1, 64), m)
		}
		return [][]string{argv}
	case keyspace.KindStream:
		var cmds [][]string
		for _, e := range val.Stream.Entries() {
			argv := make([]string, 0, len(e.Fields)*2+3)
			argv = append(argv, "XADD", key, e.ID.String())
			for _, fld := range e.Fields {
				argv = append(argv, string(fld.Field), string(fld.Value))
			}
			cmds = append(cmds, argv)
		}
		return cmds
	default:
		return nil
	}
}
