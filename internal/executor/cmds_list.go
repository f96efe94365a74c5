package executor

import (
	"strings"

	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "LPUSH", minArgv: 3, maxArgv: -1, write: true, handler: cmdLPush})
	register(&commandSpec{name: "RPUSH", minArgv: 3, maxArgv: -1, write: true, handler: cmdRPush})
	register(&commandSpec{name: "LPUSHX", minArgv: 3, maxArgv: -1, write: true, handler: cmdLPushX})
	register(&commandSpec{name: "RPUSHX", minArgv: 3, maxArgv: -1, write: true, handler: cmdRPushX})
	register(&commandSpec{name: "LPOP", minArgv: 2, maxArgv: 3, write: true, handler: cmdLPop})
	register(&commandSpec{name: "RPOP", minArgv: 2, maxArgv: 3, write: true, handler: cmdRPop})
	register(&commandSpec{name: "LLEN", minArgv: 2, maxArgv: 2, write: false, handler: cmdLLen})
	register(&commandSpec{name: "LRANGE", minArgv: 4, maxArgv: 4, write: false, handler: cmdLRange})
	register(&commandSpec{name: "LINDEX", minArgv: 3, maxArgv: 3, write: false, handler: cmdLIndex})
	register(&commandSpec{name: "LSET", minArgv: 4, maxArgv: 4, write: true, handler: cmdLSet})
	register(&commandSpec{name: "LTRIM", minArgv: 4, maxArgv: 4, write: true, handler: cmdLTrim})
	register(&commandSpec{name: "LREM", minArgv: 4, maxArgv: 4, write: true, handler: cmdLRem})
	register(&commandSpec{name: "LINSERT", minArgv: 5, maxArgv: 5, write: true, handler: cmdLInsert})
	register(&commandSpec{name: "LPOS", minArgv: 3, maxArgv: -1, write: false, handler: cmdLPos})
	register(&commandSpec{name: "LMOVE", minArgv: 5, maxArgv: 5, write: true, handler: cmdLMove})

	register(&commandSpec{name: "BLPOP", minArgv: 3, maxArgv: -1, write: true, handler: cmdBLPop})
	register(&commandSpec{name: "BRPOP", minArgv: 3, maxArgv: -1, write: true, handler: cmdBRPop})
	register(&commandSpec{name: "BLMOVE", minArgv: 6, maxArgv: 6, write: true, handler: cmdBLMove})
}

func cmdLPush(e *Executor, c *Conn, argv []string) resp.Value { return pushReply(e, argv[1], false, argv[2:]) }
func cmdRPush(e *Executor, c *Conn, argv []string) resp.Value { return pushReply(e, argv[1], true, argv[2:]) }

func pushReply(e *Executor, key string, right bool, vals []string) resp.Value {
	raw := make([][]byte, len(vals))
	for i, v := range vals {
		raw[i] = []byte(v)
	}
	n, err := e.KS.Push(key, right, raw)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdLPushX(e *Executor, c *Conn, argv []string) resp.Value { return pushXReply(e, argv[1], false, argv[2:]) }
func cmdRPushX(e *Executor, c *Conn, argv []string) resp.Value { return pushXReply(e, argv[1], true, argv[2:]) }

func pushXReply(e *Executor, key string, right bool, vals []string) resp.Value {
	raw := make([][]byte, len(vals))
	for i, v := range vals {
		raw[i] = []byte(v)
	}
	n, err := e.KS.PushExisting(key, right, raw...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdLPop(e *Executor, c *Conn, argv []string) resp.Value { return popReply(e, argv, false) }
func cmdRPop(e *Executor, c *Conn, argv []string) resp.Value { return popReply(e, argv, true) }

func popReply(e *Executor, argv []string, right bool) resp.Value {
	count := 1
	hasCount := false
	if len(argv) == 3 {
		n, ok := parseInt(argv[2])
		if !ok || n < 0 {
			return resp.NewErrorf("ERR value is out of range, must be positive")
		}
		count = int(n)
		hasCount = true
	}
	items, err := e.KS.Pop(argv[1], right, count)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if hasCount {
		if items == nil {
			return resp.NullArray()
		}
		return bulkArray(items)
	}
	if len(items) == 0 {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(items[0])
}

func cmdLLen(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.LLen(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdLRange(e *Executor, c *Conn, argv []string) resp.Value {
	start, ok1 := parseInt(argv[2])
	stop, ok2 := parseInt(argv[3])
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	items, err := e.KS.LRange(argv[1], int(start), int(stop))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return bulkArray(items)
}

func cmdLIndex(e *Executor, c *Conn, argv []string) resp.Value {
	idx, ok := parseInt(argv[2])
	if !ok {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	b, found, err := e.KS.LIndex(argv[1], int(idx))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !found {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(b)
}

func cmdLSet(e *Executor, c *Conn, argv []string) resp.Value {
	idx, ok := parseInt(argv[2])
	if !ok {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	if err := e.KS.LSet(argv[1], int(idx), []byte(argv[3])); err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewSimpleString("OK")
}

func cmdLTrim(e *Executor, c *Conn, argv []string) resp.Value {
	start, ok1 := parseInt(argv[2])
	stop, ok2 := parseInt(argv[3])
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	if err := e.KS.LTrim(argv[1], int(start), int(stop)); err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewSimpleString("OK")
}

func cmdLRem(e *Executor, c *Conn, argv []string) resp.Value {
	count, ok := parseInt(argv[2])
	if !ok {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	n, err := e.KS.LRem(argv[1], int(count), []byte(argv[3]))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdLInsert(e *Executor, c *Conn, argv []string) resp.Value {
	var before bool
	switch strings.ToUpper(argv[2]) {
	case "BEFORE":
		before = true
	case "AFTER":
		before = false
	default:
		return resp.NewErrorf("ERR syntax error")
	}
	n, err := e.KS.LInsert(argv[1], before, []byte(argv[3]), []byte(argv[4]))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdLPos(e *Executor, c *Conn, argv []string) resp.Value {
	rank, count, maxlen := 1, 1, 0
	hasCount := false
	i := 3
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "RANK":
			n, ok := parseInt(argv[i+1])
			if !ok {
				return resp.NewErrorf("ERR value is not an integer or out of range")
			}
			rank = int(n)
			i += 2
		case "COUNT":
			n, ok := parseInt(argv[i+1])
			if !ok || n < 0 {
				return resp.NewErrorf("ERR COUNT can't be negative")
			}
			count = int(n)
			hasCount = true
			i += 2
		case "MAXLEN":
			n, ok := parseInt(argv[i+1])
			if !ok || n < 0 {
				return resp.NewErrorf("ERR MAXLEN can't be negative")
			}
			maxlen = int(n)
			i += 2
		default:
			return resp.NewErrorf("ERR syntax error")
		}
	}
	positions, err := e.KS.LPos(argv[1], []byte(argv[2]), rank, count, maxlen)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if hasCount {
		elems := make([]resp.Value, len(positions))
		for i, p := range positions {
			elems[i] = resp.NewInteger(int64(p))
		}
		return resp.NewArray(elems...)
	}
	if len(positions) == 0 {
		return resp.NullBulkString()
	}
	return resp.NewInteger(int64(positions[0]))
}

func parseLeftRight(s string) (right bool, ok bool) {
	switch strings.ToUpper(s) {
	case "LEFT":
		return false, true
	case "RIGHT":
		return true, true
	default:
		return false, false
	}
}

func cmdLMove(e *Executor, c *Conn, argv []string) resp.Value {
	srcRight, ok1 := parseLeftRight(argv[3])
	dstRight, ok2 := parseLeftRight(argv[4])
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR syntax error")
	}
	b, ok, err := e.KS.LMove(argv[1], argv[2], srcRight, dstRight)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(b)
}

// cmdBLPop/cmdBRPop/cmdBLMove implement the immediate-check variant of
// spec.md §5's blocking commands: "never actually suspend the
// connection — behave as their non-blocking counterpart, returning the
// null reply immediately on an empty source instead of waiting."
func cmdBLPop(e *Executor, c *Conn, argv []string) resp.Value { return blockingPop(e, argv, false) }
func cmdBRPop(e *Executor, c *Conn, argv []string) resp.Value { return blockingPop(e, argv, true) }

func blockingPop(e *Executor, argv []string, right bool) resp.Value {
	keys := argv[1 : len(argv)-1]
	for _, key := range keys {
		items, err := e.KS.Pop(key, right, 1)
		if err != nil {
			return wrongTypeOrErr(err)
		}
		if len(items) > 0 {
			return resp.NewArray(resp.NewBulkStringFrom(key), resp.NewBulkString(items[0]))
		}
	}
	return resp.NullArray()
}

func cmdBLMove(e *Executor, c *Conn, argv []string) resp.Value {
	srcRight, ok1 := parseLeftRight(argv[3])
	dstRight, ok2 := parseLeftRight(argv[4])
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR syntax error")
	}
	b, ok, err := e.KS.LMove(argv[1], argv[2], srcRight, dstRight)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(b)
}
