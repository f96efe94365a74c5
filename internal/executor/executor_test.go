package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusa-imit/zoltraak/internal/config"
	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/persistence"
	"github.com/yusa-imit/zoltraak/internal/pubsub"
	"github.com/yusa-imit/zoltraak/internal/replication"
	"github.com/yusa-imit/zoltraak/internal/resp"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return New(keyspace.New(), pubsub.New(), replication.New(), nil, config.New(), nil, "", func() int64 { return 1000 })
}

func TestDispatchSetAndGet(t *testing.T) {
	e := newTestExecutor(t)
	c := NewConn("c1")

	reply := e.Dispatch(c, []string{"SET", "k", "v"})
	require.Equal(t, resp.SimpleString, reply.Kind)
	assert.Equal(t, "OK", reply.Str)

	reply = e.Dispatch(c, []string{"GET", "k"})
	require.Equal(t, resp.BulkString, reply.Kind)
	assert.Equal(t, "v", string(reply.Bulk))
}

func TestDispatchUnknownCommand(t *testing.T) {
	e := newTestExecutor(t)
	c := NewConn("c1")

	reply := e.Dispatch(c, []string{"NOSUCHCOMMAND"})
	assert.Equal(t, resp.Error, reply.Kind)
}

func TestDispatchQueuesInsideMultiAndExecRunsThem(t *testing.T) {
	e := newTestExecutor(t)
	c := NewConn("c1")

	reply := e.Dispatch(c, []string{"MULTI"})
	require.Equal(t, resp.SimpleString, reply.Kind)

	reply = e.Dispatch(c, []string{"SET", "k", "v"})
	assert.Equal(t, "QUEUED", reply.Str)

	reply = e.Dispatch(c, []string{"EXEC"})
	require.Equal(t, resp.Array, reply.Kind)
	require.Len(t, reply.Elems, 1)
	assert.Equal(t, "OK", reply.Elems[0].Str)

	reply = e.Dispatch(c, []string{"GET", "k"})
	assert.Equal(t, "v", string(reply.Bulk))
}

func TestSaveWithoutSnapshotPathErrors(t *testing.T) {
	e := newTestExecutor(t)
	c := NewConn("c1")

	reply := e.Dispatch(c, []string{"SAVE"})
	assert.Equal(t, resp.Error, reply.Kind)
}

func TestSaveWritesSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.zoltraak")

	e := New(keyspace.New(), pubsub.New(), replication.New(), nil, config.New(), nil, path, func() int64 { return 1000 })
	c := NewConn("c1")

	require.Equal(t, "OK", e.Dispatch(c, []string{"SET", "k", "v"}).Str)

	reply := e.Dispatch(c, []string{"SAVE"})
	require.Equal(t, resp.SimpleString, reply.Kind)
	assert.Equal(t, "OK", reply.Str)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestInfoReportsReplicationSection(t *testing.T) {
	e := newTestExecutor(t)
	c := NewConn("c1")

	reply := e.Dispatch(c, []string{"INFO"})
	require.Equal(t, resp.BulkString, reply.Kind)
	assert.Contains(t, string(reply.Bulk), "# Replication")
	assert.Contains(t, string(reply.Bulk), "role:master")
}

func TestClientSetNameAndGetName(t *testing.T) {
	e := newTestExecutor(t)
	c := NewConn("c1")

	reply := e.Dispatch(c, []string{"CLIENT", "SETNAME", "myconn"})
	assert.Equal(t, "OK", reply.Str)

	reply = e.Dispatch(c, []string{"CLIENT", "GETNAME"})
	assert.Equal(t, "myconn", string(reply.Bulk))
}

func TestWriteCommandAppendsToLogUnlessReplaying(t *testing.T) {
	dir := t.TempDir()
	aofPath := filepath.Join(dir, "appendonly.aof")
	aofLog, err := persistence.OpenLog(aofPath)
	require.NoError(t, err)
	defer aofLog.Close()

	e := New(keyspace.New(), pubsub.New(), replication.New(), aofLog, config.New(), nil, "", func() int64 { return 1000 })
	c := NewConn("c1")

	require.Equal(t, "OK", e.Dispatch(c, []string{"SET", "k", "v"}).Str)
	info, err := os.Stat(aofPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	sizeAfterFirstWrite := info.Size()

	e.Replaying = true
	require.Equal(t, "OK", e.Dispatch(c, []string{"SET", "k2", "v2"}).Str)
	info, err = os.Stat(aofPath)
	require.NoError(t, err)
	assert.Equal(t, sizeAfterFirstWrite, info.Size())
}

func TestReplicaRejectsWritesWithReadOnlyError(t *testing.T) {
	e := newTestExecutor(t)
	c := NewConn("c1")

	e.Repl.SetReplicaOf("10.0.0.1", "6379")

	reply := e.Dispatch(c, []string{"SET", "k", "v"})
	require.Equal(t, resp.Error, reply.Kind)
	assert.Equal(t, "READONLY You can't write against a read only replica.", reply.Str)

	reply = e.Dispatch(c, []string{"GET", "k"})
	assert.Equal(t, resp.BulkString, reply.Kind)
	assert.True(t, reply.Null)
}

func TestReplicaStillAppliesItsOwnReplicationStream(t *testing.T) {
	e := newTestExecutor(t)
	e.Repl.SetReplicaOf("10.0.0.1", "6379")

	require.NoError(t, e.Apply([]string{"SET", "k", "v"}))
	b, ok, err := e.KS.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(b))
}

func TestApplySuppressesPropagationAndErrors(t *testing.T) {
	e := newTestExecutor(t)

	require.NoError(t, e.Apply([]string{"SET", "k", "v"}))
	assert.Equal(t, int64(0), e.Repl.Offset())
	b, ok, err := e.KS.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(b))

	err = e.Apply([]string{"INCR", "k"})
	assert.Error(t, err)
}
