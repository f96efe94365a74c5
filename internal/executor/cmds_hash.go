package executor

import (
	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "HSET", minArgv: 4, maxArgv: -1, write: true, handler: cmdHSet})
	register(&commandSpec{name: "HSETNX", minArgv: 4, maxArgv: 4, write: true, handler: cmdHSetNX})
	register(&commandSpec{name: "HGET", minArgv: 3, maxArgv: 3, write: false, handler: cmdHGet})
	register(&commandSpec{name: "HMGET", minArgv: 3, maxArgv: -1, write: false, handler: cmdHMGet})
	register(&commandSpec{name: "HDEL", minArgv: 3, maxArgv: -1, write: true, handler: cmdHDel})
	register(&commandSpec{name: "HEXISTS", minArgv: 3, maxArgv: 3, write: false, handler: cmdHExists})
	register(&commandSpec{name: "HLEN", minArgv: 2, maxArgv: 2, write: false, handler: cmdHLen})
	register(&commandSpec{name: "HKEYS", minArgv: 2, maxArgv: 2, write: false, handler: cmdHKeys})
	register(&commandSpec{name: "HVALS", minArgv: 2, maxArgv: 2, write: false, handler: cmdHVals})
	register(&commandSpec{name: "HGETALL", minArgv: 2, maxArgv: 2, write: false, handler: cmdHGetAll})
	register(&commandSpec{name: "HSTRLEN", minArgv: 3, maxArgv: 3, write: false, handler: cmdHStrlen})
	register(&commandSpec{name: "HINCRBY", minArgv: 4, maxArgv: 4, write: true, handler: cmdHIncrBy})
	register(&commandSpec{name: "HINCRBYFLOAT", minArgv: 4, maxArgv: 4, write: true, handler: cmdHIncrByFloat})
}

func cmdHSet(e *Executor, c *Conn, argv []string) resp.Value {
	if len(argv)%2 != 0 {
		return resp.NewErrorf("ERR wrong number of arguments for HMSET")
	}
	pairs := map[string][]byte{}
	for i := 2; i < len(argv); i += 2 {
		pairs[argv[i]] = []byte(argv[i+1])
	}
	n, err := e.KS.HSet(argv[1], pairs)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdHSetNX(e *Executor, c *Conn, argv []string) resp.Value {
	ok, err := e.KS.HSetNX(argv[1], argv[2], []byte(argv[3]))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(boolInt(ok))
}

func cmdHGet(e *Executor, c *Conn, argv []string) resp.Value {
	b, ok, err := e.KS.HGet(argv[1], argv[2])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.NewBulkString(b)
}

func cmdHMGet(e *Executor, c *Conn, argv []string) resp.Value {
	vals, found, err := e.KS.HMGet(argv[1], argv[2:])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	elems := make([]resp.Value, len(vals))
	for i := range vals {
		if !found[i] {
			elems[i] = resp.NullBulkString()
		} else {
			elems[i] = resp.NewBulkString(vals[i])
		}
	}
	return resp.NewArray(elems...)
}

func cmdHDel(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.HDel(argv[1], argv[2:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdHExists(e *Executor, c *Conn, argv []string) resp.Value {
	ok, err := e.KS.HExists(argv[1], argv[2])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(boolInt(ok))
}

func cmdHLen(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.HLen(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdHKeys(e *Executor, c *Conn, argv []string) resp.Value {
	keys, err := e.KS.HKeys(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return stringArray(keys)
}

func cmdHVals(e *Executor, c *Conn, argv []string) resp.Value {
	vals, err := e.KS.HVals(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return bulkArray(vals)
}

func cmdHGetAll(e *Executor, c *Conn, argv []string) resp.Value {
	m, err := e.KS.HGetAll(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	elems := make([]resp.Value, 0, len(m)*2)
	for field, val := range m {
		elems = append(elems, resp.NewBulkStringFrom(field), resp.NewBulkString(val))
	}
	return resp.NewArray(elems...)
}

func cmdHStrlen(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.HStrlen(argv[1], argv[2])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdHIncrBy(e *Executor, c *Conn, argv []string) resp.Value {
	delta, ok := parseInt(argv[3])
	if !ok {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	n, err := e.KS.HIncrBy(argv[1], argv[2], delta)
	if err != nil {
		if err == keyspace.ErrNotInteger {
			return resp.NewErrorf("ERR hash value is not an integer")
		}
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(n)
}

func cmdHIncrByFloat(e *Executor, c *Conn, argv []string) resp.Value {
	delta, ok := parseFloat(argv[3])
	if !ok {
		return resp.NewErrorf("ERR value is not a valid float")
	}
	f, err := e.KS.HIncrByFloat(argv[1], argv[2], delta)
	if err != nil {
		if err == keyspace.ErrNotFloat {
			return resp.NewErrorf("ERR hash value is not a float")
		}
		return wrongTypeOrErr(err)
	}
	return floatReply(f)
}
