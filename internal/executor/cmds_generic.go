package executor

import (
	"strings"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "DEL", minArgv: 2, maxArgv: -1, write: true, handler: cmdDel})
	register(&commandSpec{name: "EXISTS", minArgv: 2, maxArgv: -1, write: false, handler: cmdExists})
	register(&commandSpec{name: "TYPE", minArgv: 2, maxArgv: 2, write: false, handler: cmdType})
	register(&commandSpec{name: "KEYS", minArgv: 2, maxArgv: 2, write: false, handler: cmdKeys})
	register(&commandSpec{name: "DBSIZE", minArgv: 1, maxArgv: 1, write: false, handler: cmdDBSize})
	register(&commandSpec{name: "FLUSHALL", minArgv: 1, maxArgv: 2, write: true, handler: cmdFlushAll})
	register(&commandSpec{name: "RANDOMKEY", minArgv: 1, maxArgv: 1, write: false, handler: cmdRandomKey})
	register(&commandSpec{name: "RENAME", minArgv: 3, maxArgv: 3, write: true, handler: cmdRename})
	register(&commandSpec{name: "RENAMENX", minArgv: 3, maxArgv: 3, write: true, handler: cmdRenameNX})
	register(&commandSpec{name: "COPY", minArgv: 3, maxArgv: -1, write: true, handler: cmdCopy})

	register(&commandSpec{name: "EXPIRE", minArgv: 3, maxArgv: 4, write: true, handler: cmdExpireSeconds})
	register(&commandSpec{name: "PEXPIRE", minArgv: 3, maxArgv: 4, write: true, handler: cmdExpireMillis})
	register(&commandSpec{name: "EXPIREAT", minArgv: 3, maxArgv: 4, write: true, handler: cmdExpireAtSeconds})
	register(&commandSpec{name: "PEXPIREAT", minArgv: 3, maxArgv: 4, write: true, handler: cmdExpireAtMillis})
	register(&commandSpec{name: "PERSIST", minArgv: 2, maxArgv: 2, write: true, handler: cmdPersist})
	register(&commandSpec{name: "TTL", minArgv: 2, maxArgv: 2, write: false, handler: cmdTTL})
	register(&commandSpec{name: "PTTL", minArgv: 2, maxArgv: 2, write: false, handler: cmdPTTL})
	register(&commandSpec{name: "EXPIRETIME", minArgv: 2, maxArgv: 2, write: false, handler: cmdExpireTime})
	register(&commandSpec{name: "PEXPIRETIME", minArgv: 2, maxArgv: 2, write: false, handler: cmdPExpireTime})

	register(&commandSpec{name: "PING", minArgv: 1, maxArgv: 2, write: false, handler: cmdPing})
	register(&commandSpec{name: "ECHO", minArgv: 2, maxArgv: 2, write: false, handler: cmdEcho})
	register(&commandSpec{name: "SELECT", minArgv: 2, maxArgv: 2, write: false, handler: cmdSelect})
}

func cmdDel(e *Executor, c *Conn, argv []string) resp.Value {
	return resp.NewInteger(int64(e.KS.Del(argv[1:]...)))
}

func cmdExists(e *Executor, c *Conn, argv []string) resp.Value {
	return resp.NewInteger(int64(e.KS.Exists(argv[1:]...)))
}

func cmdType(e *Executor, c *Conn, argv []string) resp.Value {
	return resp.NewSimpleString(e.KS.Type(argv[1]))
}

func cmdKeys(e *Executor, c *Conn, argv []string) resp.Value {
	return stringArray(e.KS.Keys(argv[1]))
}

func cmdDBSize(e *Executor, c *Conn, argv []string) resp.Value {
	return resp.NewInteger(int64(e.KS.DBSize()))
}

func cmdFlushAll(e *Executor, c *Conn, argv []string) resp.Value {
	e.KS.FlushAll()
	return resp.NewSimpleString("OK")
}

func cmdRandomKey(e *Executor, c *Conn, argv []string) resp.Value {
	key, ok := e.KS.RandomKey()
	if !ok {
		return resp.NullBulkString()
	}
	return resp.NewBulkStringFrom(key)
}

func cmdRename(e *Executor, c *Conn, argv []string) resp.Value {
	if err := e.KS.Rename(argv[1], argv[2]); err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewSimpleString("OK")
}

func cmdRenameNX(e *Executor, c *Conn, argv []string) resp.Value {
	ok, err := e.KS.RenameNX(argv[1], argv[2])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(boolInt(ok))
}

func cmdCopy(e *Executor, c *Conn, argv []string) resp.Value {
	replace := false
	for i := 3; i < len(argv); i++ {
		if strings.EqualFold(argv[i], "REPLACE") {
			replace = true
			continue
		}
		if strings.EqualFold(argv[i], "DB") {
			i++
			continue
		}
		return resp.NewErrorf("ERR syntax error")
	}
	ok, err := e.KS.Copy(argv[1], argv[2], replace)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(boolInt(ok))
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// parseExpireFlag reads an optional NX/XX/GT/LT token starting at argv[i].
func parseExpireFlag(argv []string, i int) (keyspace.ExpireFlag, bool) {
	if i >= len(argv) {
		return keyspace.ExpireNone, true
	}
	switch strings.ToUpper(argv[i]) {
	case "NX":
		return keyspace.ExpireNX, true
	case "XX":
		return keyspace.ExpireXX, true
	case "GT":
		return keyspace.ExpireGT, true
	case "LT":
		return keyspace.ExpireLT, true
	default:
		return keyspace.ExpireNone, false
	}
}

func cmdExpireGeneric(e *Executor, argv []string, toMs func(n int64, now int64) int64) resp.Value {
	n, ok := parseInt(argv[2])
	if !ok {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	flag := keyspace.ExpireNone
	if len(argv) == 4 {
		f, ok := parseExpireFlag(argv, 3)
		if !ok {
			return resp.NewErrorf("ERR Unsupported option %s", argv[3])
		}
		flag = f
	}
	atMs := toMs(n, e.nowMs())
	applied, err := e.KS.Expire(argv[1], atMs, flag)
	if err == keyspace.ErrNoSuchKey {
		return resp.NewInteger(0)
	}
	return resp.NewInteger(boolInt(applied))
}

func cmdExpireSeconds(e *Executor, c *Conn, argv []string) resp.Value {
	return cmdExpireGeneric(e, argv, func(n, now int64) int64 { return now + n*1000 })
}

func cmdExpireMillis(e *Executor, c *Conn, argv []string) resp.Value {
	return cmdExpireGeneric(e, argv, func(n, now int64) int64 { return now + n })
}

func cmdExpireAtSeconds(e *Executor, c *Conn, argv []string) resp.Value {
	return cmdExpireGeneric(e, argv, func(n, now int64) int64 { return n * 1000 })
}

func cmdExpireAtMillis(e *Executor, c *Conn, argv []string) resp.Value {
	return cmdExpireGeneric(e, argv, func(n, now int64) int64 { return n })
}

func cmdPersist(e *Executor, c *Conn, argv []string) resp.Value {
	return resp.NewInteger(boolInt(e.KS.Persist(argv[1])))
}

func cmdTTL(e *Executor, c *Conn, argv []string) resp.Value {
	ms := e.KS.TTL(argv[1], e.nowMs())
	if ms < 0 {
		return resp.NewInteger(ms)
	}
	return resp.NewInteger((ms + 500) / 1000)
}

func cmdPTTL(e *Executor, c *Conn, argv []string) resp.Value {
	return resp.NewInteger(e.KS.TTL(argv[1], e.nowMs()))
}

func cmdExpireTime(e *Executor, c *Conn, argv []string) resp.Value {
	at := e.KS.ExpireTime(argv[1])
	if at <= 0 {
		return resp.NewInteger(at)
	}
	return resp.NewInteger(at / 1000)
}

func cmdPExpireTime(e *Executor, c *Conn, argv []string) resp.Value {
	return resp.NewInteger(e.KS.ExpireTime(argv[1]))
}

func cmdPing(e *Executor, c *Conn, argv []string) resp.Value {
	if len(argv) == 2 {
		return resp.NewBulkStringFrom(argv[1])
	}
	return resp.NewSimpleString("PONG")
}

func cmdEcho(e *Executor, c *Conn, argv []string) resp.Value {
	return resp.NewBulkStringFrom(argv[1])
}

func cmdSelect(e *Executor, c *Conn, argv []string) resp.Value {
	n, ok := parseInt(argv[1])
	if !ok || n < 0 || int(n) >= 16 {
		return resp.NewErrorf("ERR DB index is out of range")
	}
	return resp.NewSimpleString("OK")
}
