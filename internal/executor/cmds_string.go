package executor

import (
	"strings"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "GET", minArgv: 2, maxArgv: 2, write: false, handler: cmdGet})
	register(&commandSpec{name: "SET", minArgv: 3, maxArgv: -1, write: true, handler: cmdSet})
	register(&commandSpec{name: "GETDEL", minArgv: 2, maxArgv: 2, write: true, handler: cmdGetDel})
	register(&commandSpec{name: "GETEX", minArgv: 2, maxArgv: -1, write: true, handler: cmdGetEx})
	register(&commandSpec{name: "APPEND", minArgv: 3, maxArgv: 3, write: true, handler: cmdAppend})
	register(&commandSpec{name: "STRLEN", minArgv: 2, maxArgv: 2, write: false, handler: cmdStrlen})
	register(&commandSpec{name: "INCR", minArgv: 2, maxArgv: 2, write: true, handler: cmdIncr})
	register(&commandSpec{name: "DECR", minArgv: 2, maxArgv: 2, write: true, handler: cmdDecr})
	register(&commandSpec{name: "INCRBY", minArgv: 3, maxArgv: 3, write: true, handler: cmdIncrBy})
	register(&commandSpec{name: "DECRBY", minArgv: 3, maxArgv: 3, write: true, handler: cmdDecrBy})
	register(&commandSpec{name: "INCRBYFLOAT", minArgv: 3, maxArgv: 3, write: true, handler: cmdIncrByFloat})
	register(&commandSpec{name: "GETRANGE", minArgv: 4, maxArgv: 4, write: false, handler: cmdGetRange})
	register(&commandSpec{name: "SETRANGE", minArgv: 4, maxArgv: 4, write: true, handler: cmdSetRange})
	register(&commandSpec{name: "GETBIT", minArgv: 3, maxArgv: 3, write: false, handler: cmdGetBit})
	register(&commandSpec{name: "SETBIT", minArgv: 4, maxArgv: 4, write: true, handler: cmdSetBit})
	register(&commandSpec{name: "BITCOUNT", minArgv: 2, maxArgv: 4, write: false, handler: cmdBitCount})
	register(&commandSpec{name: "BITOP", minArgv: 4, maxArgv: -1, write: true, handler: cmdBitOp})
}

func cmdGet(e *Executor, c *Conn, argv []string) resp.Value {
	b, ok, err := e.KS.Get(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(b)
}

// parseSetExpire reads SET's EX/PX/EXAT/PXAT/KEEPTTL options starting
// at argv[i]. Returns the absolute-ms deadline (0 = none), whether
// KEEPTTL was given, and ok=false on a syntax error.
func parseSetExpire(argv []string, i int, now int64) (expireAt int64, keepTTL bool, ok bool) {
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "EX", "PX", "EXAT", "PXAT":
			if i+1 >= len(argv) {
				return 0, false, false
			}
			n, good := parseInt(argv[i+1])
			if !good {
				return 0, false, false
			}
			switch strings.ToUpper(argv[i]) {
			case "EX":
				expireAt = now + n*1000
			case "PX":
				expireAt = now + n
			case "EXAT":
				expireAt = n * 1000
			case "PXAT":
				expireAt = n
			}
			i += 2
		case "KEEPTTL":
			keepTTL = true
			i++
		default:
			return 0, false, false
		}
	}
	return expireAt, keepTTL, true
}

func cmdSet(e *Executor, c *Conn, argv []string) resp.Value {
	key, val := argv[1], []byte(argv[2])
	nx, xx, get := false, false, false
	i := 3
loop:
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "NX":
			nx = true
			i++
		case "XX":
			xx = true
			i++
		case "GET":
			get = true
			i++
		default:
			break loop
		}
	}
	expireAt, keepTTL, ok := parseSetExpire(argv, i, e.nowMs())
	if !ok {
		return resp.NewErrorf("ERR syntax error")
	}
	if nx && xx {
		return resp.NewErrorf("ERR syntax error")
	}

	var prev []byte
	var hadPrev bool
	if get {
		b, exists, err := e.KS.Get(key)
		if err != nil {
			return wrongTypeOrErr(err)
		}
		prev, hadPrev = b, exists
	}

	switch {
	case nx:
		if !e.KS.SetNX(key, val, expireAt) {
			if get {
				if !hadPrev {
					return resp.NullBulkString()
				}
				return resp.NewBulkString(prev)
			}
			return resp.NullBulkString()
		}
	case xx:
		if !e.KS.SetXX(key, val, expireAt) {
			if get {
				if !hadPrev {
					return resp.NullBulkString()
				}
				return resp.NewBulkString(prev)
			}
			return resp.NullBulkString()
		}
	default:
		e.KS.Set(key, val, expireAt, keepTTL)
	}

	if get {
		if !hadPrev {
			return resp.NullBulkString()
		}
		return resp.NewBulkString(prev)
	}
	return resp.NewSimpleString("OK")
}

func cmdGetDel(e *Executor, c *Conn, argv []string) resp.Value {
	b, ok, err := e.KS.GetDel(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(b)
}

func cmdGetEx(e *Executor, c *Conn, argv []string) resp.Value {
	setExpire, persist := false, false
	var expireAt int64
	i := 2
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "EX", "PX", "EXAT", "PXAT":
			if i+1 >= len(argv) {
				return resp.NewErrorf("ERR syntax error")
			}
			n, good := parseInt(argv[i+1])
			if !good {
				return resp.NewErrorf("ERR value is not an integer or out of range")
			}
			now := e.nowMs()
			switch strings.ToUpper(argv[i]) {
			case "EX":
				expireAt = now + n*1000
			case "PX":
				expireAt = now + n
			case "EXAT":
				expireAt = n * 1000
			case "PXAT":
				expireAt = n
			}
			setExpire = true
			i += 2
		case "PERSIST":
			persist = true
			i++
		default:
			return resp.NewErrorf("ERR syntax error")
		}
	}
	b, ok, err := e.KS.GetEx(argv[1], setExpire, persist, expireAt)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(b)
}

func cmdAppend(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.Append(argv[1], []byte(argv[2]))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdStrlen(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.Strlen(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdIncr(e *Executor, c *Conn, argv []string) resp.Value {
	return incrByReply(e, argv[1], 1)
}

func cmdDecr(e *Executor, c *Conn, argv []string) resp.Value {
	return incrByReply(e, argv[1], -1)
}

func cmdIncrBy(e *Executor, c *Conn, argv []string) resp.Value {
	n, ok := parseInt(argv[2])
	if !ok {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	return incrByReply(e, argv[1], n)
}

func cmdDecrBy(e *Executor, c *Conn, argv []string) resp.Value {
	n, ok := parseInt(argv[2])
	if !ok {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	return incrByReply(e, argv[1], -n)
}

func incrByReply(e *Executor, key string, delta int64) resp.Value {
	n, err := e.KS.IncrBy(key, delta)
	if err != nil {
		if err == keyspace.ErrOverflow {
			return resp.NewErrorf("ERR increment or decrement would overflow")
		}
		if err == keyspace.ErrNotInteger {
			return resp.NewErrorf("ERR value is not an integer or out of range")
		}
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(n)
}

func cmdIncrByFloat(e *Executor, c *Conn, argv []string) resp.Value {
	delta, ok := parseFloat(argv[2])
	if !ok {
		return resp.NewErrorf("ERR value is not a valid float")
	}
	f, err := e.KS.IncrByFloat(argv[1], delta)
	if err != nil {
		if err == keyspace.ErrNotFloat {
			return resp.NewErrorf("ERR value is not a valid float")
		}
		return wrongTypeOrErr(err)
	}
	return floatReply(f)
}

func cmdGetRange(e *Executor, c *Conn, argv []string) resp.Value {
	start, ok1 := parseInt(argv[2])
	end, ok2 := parseInt(argv[3])
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	b, err := e.KS.GetRange(argv[1], int(start), int(end))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewBulkString(b)
}

func cmdSetRange(e *Executor, c *Conn, argv []string) resp.Value {
	offset, ok := parseInt(argv[2])
	if !ok || offset < 0 {
		return resp.NewErrorf("ERR offset is out of range")
	}
	n, err := e.KS.SetRange(argv[1], int(offset), []byte(argv[3]))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdGetBit(e *Executor, c *Conn, argv []string) resp.Value {
	offset, ok := parseInt(argv[2])
	if !ok || offset < 0 {
		return resp.NewErrorf("ERR bit offset is not an integer or out of range")
	}
	n, err := e.KS.GetBit(argv[1], offset)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdSetBit(e *Executor, c *Conn, argv []string) resp.Value {
	offset, ok := parseInt(argv[2])
	if !ok || offset < 0 {
		return resp.NewErrorf("ERR bit offset is not an integer or out of range")
	}
	bit, ok := parseInt(argv[3])
	if !ok || (bit != 0 && bit != 1) {
		return resp.NewErrorf("ERR bit is not an integer or out of range")
	}
	n, err := e.KS.SetBit(argv[1], offset, int(bit))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdBitCount(e *Executor, c *Conn, argv []string) resp.Value {
	withRange := len(argv) >= 4
	var start, end int
	if withRange {
		s, ok1 := parseInt(argv[2])
		en, ok2 := parseInt(argv[3])
		if !ok1 || !ok2 {
			return resp.NewErrorf("ERR value is not an integer or out of range")
		}
		start, end = int(s), int(en)
	}
	n, err := e.KS.BitCount(argv[1], withRange, start, end)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdBitOp(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.BitOp(argv[1], argv[2], argv[3:]...)
	if err != nil {
		if err == keyspace.ErrBitOpNotWrong {
			return resp.NewErrorf("ERR BITOP NOT must be called with a single source key")
		}
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}
