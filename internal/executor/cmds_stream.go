package executor

import (
	"strconv"
	"strings"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "XADD", minArgv: 5, maxArgv: -1, write: true, handler: cmdXAdd})
	register(&commandSpec{name: "XLEN", minArgv: 2, maxArgv: 2, write: false, handler: cmdXLen})
	register(&commandSpec{name: "XRANGE", minArgv: 4, maxArgv: 6, write: false, handler: cmdXRange})
	register(&commandSpec{name: "XREVRANGE", minArgv: 4, maxArgv: 6, write: false, handler: cmdXRevRange})
	register(&commandSpec{name: "XDEL", minArgv: 3, maxArgv: -1, write: true, handler: cmdXDel})
	register(&commandSpec{name: "XTRIM", minArgv: 4, maxArgv: 4, write: true, handler: cmdXTrim})
}

// parseStreamID parses "ms-seq", bare "ms" (seq defaults to 0), "*"
// (fully auto), and "ms-*" (auto sequence for an explicit ms), per
// spec.md §3's XADD ID grammar.
func parseStreamID(s string, forAppend bool) (id keyspace.StreamID, autoMs, autoSeq bool, ok bool) {
	if s == "*" {
		return keyspace.StreamID{}, true, true, true
	}
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return id, false, false, false
	}
	if len(parts) == 1 {
		return keyspace.StreamID{Ms: ms}, false, false, true
	}
	if forAppend && parts[1] == "*" {
		return keyspace.StreamID{Ms: ms}, false, true, true
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return id, false, false, false
	}
	return keyspace.StreamID{Ms: ms, Seq: seq}, false, false, true
}

// parseRangeBound parses XRANGE/XREVRANGE's "-", "+", and "(exclusive"
// forms in addition to a plain ID.
func parseRangeBound(s string, isStart bool) (keyspace.StreamID, bool) {
	switch s {
	case "-":
		return keyspace.MinStreamID, true
	case "+":
		return keyspace.MaxStreamID, true
	}
	excl := strings.HasPrefix(s, "(")
	if excl {
		s = s[1:]
	}
	id, _, _, ok := parseStreamID(s, false)
	if !ok {
		return id, false
	}
	if excl {
		if isStart {
			id.Seq++
		} else if id.Seq > 0 {
			id.Seq--
		} else {
			id.Ms--
			id.Seq = ^uint64(0)
		}
	}
	return id, true
}

func cmdXAdd(e *Executor, c *Conn, argv []string) resp.Value {
	idArg := argv[2]
	rest := argv[3:]
	if len(rest)%2 != 0 || len(rest) == 0 {
		return resp.NewErrorf("ERR wrong number of arguments for 'xadd' command")
	}
	id, autoMs, autoSeq, ok := parseStreamID(idArg, true)
	if !ok {
		return resp.NewErrorf("ERR Invalid stream ID specified as stream command argument")
	}
	fields := make([]keyspace.StreamField, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		fields[i/2] = keyspace.StreamField{Field: []byte(rest[i]), Value: []byte(rest[i+1])}
	}
	got, err := e.KS.XAdd(argv[1], id, autoMs, autoSeq, e.nowMs(), fields)
	if err != nil {
		if err == keyspace.ErrStreamIDTooSmall {
			return resp.NewErrorf("ERR The ID specified in XADD is equal or smaller than the target stream top item")
		}
		return wrongTypeOrErr(err)
	}
	return resp.NewBulkStringFrom(got.String())
}

func cmdXLen(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.XLen(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func streamEntriesReply(entries []keyspace.StreamEntry) resp.Value {
	elems := make([]resp.Value, len(entries))
	for i, ent := range entries {
		fieldElems := make([]resp.Value, 0, len(ent.Fields)*2)
		for _, f := range ent.Fields {
			fieldElems = append(fieldElems, resp.NewBulkString(f.Field), resp.NewBulkString(f.Value))
		}
		elems[i] = resp.NewArray(resp.NewBulkStringFrom(ent.ID.String()), resp.NewArray(fieldElems...))
	}
	return resp.NewArray(elems...)
}

func cmdXRange(e *Executor, c *Conn, argv []string) resp.Value { return xRangeReply(e, argv, false) }
func cmdXRevRange(e *Executor, c *Conn, argv []string) resp.Value { return xRangeReply(e, argv, true) }

func xRangeReply(e *Executor, argv []string, reverse bool) resp.Value {
	startArg, endArg := argv[2], argv[3]
	if reverse {
		startArg, endArg = argv[3], argv[2]
	}
	start, ok1 := parseRangeBound(startArg, true)
	end, ok2 := parseRangeBound(endArg, false)
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR Invalid stream ID specified as stream command argument")
	}
	count := -1
	if len(argv) == 5 {
		return resp.NewErrorf("ERR syntax error, COUNT requires a value")
	}
	if len(argv) == 6 {
		if !strings.EqualFold(argv[4], "COUNT") {
			return resp.NewErrorf("ERR syntax error")
		}
		n, ok := parseInt(argv[5])
		if !ok || n < 0 {
			return resp.NewErrorf("ERR value is not an integer or out of range")
		}
		count = int(n)
	}
	var entries []keyspace.StreamEntry
	var err error
	if reverse {
		entries, err = e.KS.XRevRange(argv[1], start, end, count)
	} else {
		entries, err = e.KS.XRange(argv[1], start, end, count)
	}
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return streamEntriesReply(entries)
}

func cmdXDel(e *Executor, c *Conn, argv []string) resp.Value {
	ids := make([]keyspace.StreamID, len(argv)-2)
	for i, a := range argv[2:] {
		id, _, _, ok := parseStreamID(a, false)
		if !ok {
			return resp.NewErrorf("ERR Invalid stream ID specified as stream command argument")
		}
		ids[i] = id
	}
	n, err := e.KS.XDel(argv[1], ids)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdXTrim(e *Executor, c *Conn, argv []string) resp.Value {
	if !strings.EqualFold(argv[2], "MAXLEN") {
		return resp.NewErrorf("ERR syntax error")
	}
	n, ok := parseInt(argv[3])
	if !ok || n < 0 {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	removed, err := e.KS.XTrim(argv[1], int(n))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(removed))
}
