package executor

import "github.com/yusa-imit/zoltraak/internal/resp"

func init() {
	register(&commandSpec{name: "PFADD", minArgv: 2, maxArgv: -1, write: true, handler: cmdPFAdd})
	register(&commandSpec{name: "PFCOUNT", minArgv: 2, maxArgv: -1, write: false, handler: cmdPFCount})
	register(&commandSpec{name: "PFMERGE", minArgv: 2, maxArgv: -1, write: true, handler: cmdPFMerge})
	register(&commandSpec{name: "PFSETREG", minArgv: 3, maxArgv: 3, write: true, handler: cmdPFSetReg})
}

func cmdPFAdd(e *Executor, c *Conn, argv []string) resp.Value {
	changed, err := e.KS.PFAdd(argv[1], bytesOf(argv[2:])...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(boolInt(changed))
}

func cmdPFCount(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.PFCount(argv[1:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(n)
}

func cmdPFMerge(e *Executor, c *Conn, argv []string) resp.Value {
	if err := e.KS.PFMerge(argv[1], argv[2:]...); err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewSimpleString("OK")
}

// cmdPFSetReg installs a HyperLogLog sketch's raw register bytes
// verbatim. It isn't part of the client-facing command set documented
// in spec.md §4.2 — internal/persistence's AOF rewrite emits it to
// reconstruct an HLL key deterministically, since PFADD's element-by-
// element history isn't recoverable from a register array.
func cmdPFSetReg(e *Executor, c *Conn, argv []string) resp.Value {
	if err := e.KS.SetHLLRegisters(argv[1], []byte(argv[2])); err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewSimpleString("OK")
}
