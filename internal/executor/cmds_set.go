package executor

import "github.com/yusa-imit/zoltraak/internal/resp"

func init() {
	register(&commandSpec{name: "SADD", minArgv: 3, maxArgv: -1, write: true, handler: cmdSAdd})
	register(&commandSpec{name: "SREM", minArgv: 3, maxArgv: -1, write: true, handler: cmdSRem})
	register(&commandSpec{name: "SISMEMBER", minArgv: 3, maxArgv: 3, write: false, handler: cmdSIsMember})
	register(&commandSpec{name: "SMEMBERS", minArgv: 2, maxArgv: 2, write: false, handler: cmdSMembers})
	register(&commandSpec{name: "SCARD", minArgv: 2, maxArgv: 2, write: false, handler: cmdSCard})
	register(&commandSpec{name: "SUNION", minArgv: 2, maxArgv: -1, write: false, handler: cmdSUnion})
	register(&commandSpec{name: "SINTER", minArgv: 2, maxArgv: -1, write: false, handler: cmdSInter})
	register(&commandSpec{name: "SDIFF", minArgv: 2, maxArgv: -1, write: false, handler: cmdSDiff})
	register(&commandSpec{name: "SUNIONSTORE", minArgv: 3, maxArgv: -1, write: true, handler: cmdSUnionStore})
	register(&commandSpec{name: "SINTERSTORE", minArgv: 3, maxArgv: -1, write: true, handler: cmdSInterStore})
	register(&commandSpec{name: "SDIFFSTORE", minArgv: 3, maxArgv: -1, write: true, handler: cmdSDiffStore})
	register(&commandSpec{name: "SRANDMEMBER", minArgv: 2, maxArgv: 3, write: false, handler: cmdSRandMember})
	register(&commandSpec{name: "SPOP", minArgv: 2, maxArgv: 3, write: true, handler: cmdSPop})
	register(&commandSpec{name: "SMOVE", minArgv: 4, maxArgv: 4, write: true, handler: cmdSMove})
}

func bytesOf(argv []string) [][]byte {
	out := make([][]byte, len(argv))
	for i, s := range argv {
		out[i] = []byte(s)
	}
	return out
}

func cmdSAdd(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.SAdd(argv[1], bytesOf(argv[2:])...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdSRem(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.SRem(argv[1], bytesOf(argv[2:])...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdSIsMember(e *Executor, c *Conn, argv []string) resp.Value {
	ok, err := e.KS.SIsMember(argv[1], []byte(argv[2]))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(boolInt(ok))
}

func cmdSMembers(e *Executor, c *Conn, argv []string) resp.Value {
	items, err := e.KS.SMembers(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return bulkArray(items)
}

func cmdSCard(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.SCard(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdSUnion(e *Executor, c *Conn, argv []string) resp.Value {
	items, err := e.KS.SUnion(argv[1:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return bulkArray(items)
}

func cmdSInter(e *Executor, c *Conn, argv []string) resp.Value {
	items, err := e.KS.SInter(argv[1:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return bulkArray(items)
}

func cmdSDiff(e *Executor, c *Conn, argv []string) resp.Value {
	items, err := e.KS.SDiff(argv[1:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return bulkArray(items)
}

func cmdSUnionStore(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.SUnionStore(argv[1], argv[2:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdSInterStore(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.SInterStore(argv[1], argv[2:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdSDiffStore(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.SDiffStore(argv[1], argv[2:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdSRandMember(e *Executor, c *Conn, argv []string) resp.Value {
	count := 1
	hasCount := len(argv) == 3
	if hasCount {
		n, ok := parseInt(argv[2])
		if !ok {
			return resp.NewErrorf("ERR value is not an integer or out of range")
		}
		count = int(n)
	}
	items, err := e.KS.SRandMember(argv[1], count, hasCount)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !hasCount {
		if len(items) == 0 {
			return resp.NullBulkString()
		}
		return resp.NewBulkString(items[0])
	}
	return bulkArray(items)
}

func cmdSPop(e *Executor, c *Conn, argv []string) resp.Value {
	count := 1
	hasCount := len(argv) == 3
	if hasCount {
		n, ok := parseInt(argv[2])
		if !ok || n < 0 {
			return resp.NewErrorf("ERR value is out of range, must be positive")
		}
		count = int(n)
	}
	items, err := e.KS.SPop(argv[1], count)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !hasCount {
		if len(items) == 0 {
			return resp.NullBulkString()
		}
		return resp.NewBulkString(items[0])
	}
	return bulkArray(items)
}

func cmdSMove(e *Executor, c *Conn, argv []string) resp.Value {
	ok, err := e.KS.SMove(argv[1], argv[2], []byte(argv[3]))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(boolInt(ok))
}
