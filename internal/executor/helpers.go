package executor

import (
	"strconv"
	"strings"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/resp"
)

// wrongTypeOrErr maps a keyspace error to its RESP wire form, per
// spec.md §7: WRONGTYPE gets its own tag, everything else is a plain
// "-ERR <message>".
func wrongTypeOrErr(err error) resp.Value {
	if err == keyspace.ErrWrongType {
		return resp.NewError("WRONGTYPE Operation against a key holding the wrong kind of value")
	}
	if err == keyspace.ErrNoSuchKey {
		return resp.NewErrorf("ERR no such key")
	}
	return resp.NewErrorf("ERR %s", err.Error())
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func bulkArray(items [][]byte) resp.Value {
	elems := make([]resp.Value, len(items))
	for i, it := range items {
		elems[i] = resp.NewBulkString(it)
	}
	return resp.NewArray(elems...)
}

func stringArray(items []string) resp.Value {
	elems := make([]resp.Value, len(items))
	for i, it := range items {
		elems[i] = resp.NewBulkStringFrom(it)
	}
	return resp.NewArray(elems...)
}

func floatReply(f float64) resp.Value {
	return resp.NewBulkStringFrom(formatFloatReply(f))
}

// formatFloatReply mirrors keyspace's own unexported formatFloat (the
// shortest round-tripping representation), so a ZSCORE/INCRBYFLOAT
// reply always matches what a subsequent GET of the same value would
// show.
func formatFloatReply(f float64) string {
	short := strconv.FormatFloat(f, 'g', -1, 64)
	if parsed, err := strconv.ParseFloat(short, 64); err == nil && parsed == f {
		return short
	}
	return strconv.FormatFloat(f, 'f', 17, 64)
}

func argHasPrefix(argv []string, i int, word string) bool {
	return i < len(argv) && strings.EqualFold(argv[i], word)
}
