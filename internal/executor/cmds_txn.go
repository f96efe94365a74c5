package executor

import "github.com/yusa-imit/zoltraak/internal/resp"

func init() {
	register(&commandSpec{name: "MULTI", minArgv: 1, maxArgv: 1, write: false, handler: cmdMulti})
	register(&commandSpec{name: "EXEC", minArgv: 1, maxArgv: 1, write: false, handler: cmdExec})
	register(&commandSpec{name: "DISCARD", minArgv: 1, maxArgv: 1, write: false, handler: cmdDiscard})
	register(&commandSpec{name: "WATCH", minArgv: 2, maxArgv: -1, write: false, handler: cmdWatch})
	register(&commandSpec{name: "UNWATCH", minArgv: 1, maxArgv: 1, write: false, handler: cmdUnwatch})
}

func cmdMulti(e *Executor, c *Conn, argv []string) resp.Value {
	if err := c.Tx.Multi(); err != nil {
		return resp.NewErrorf("ERR %s", err.Error())
	}
	return resp.NewSimpleString("OK")
}

func cmdDiscard(e *Executor, c *Conn, argv []string) resp.Value {
	if !c.Tx.Active() {
		return resp.NewErrorf("ERR DISCARD without MULTI")
	}
	c.Tx.Discard()
	return resp.NewSimpleString("OK")
}

func cmdWatch(e *Executor, c *Conn, argv []string) resp.Value {
	if err := c.Tx.Watch(e.KS, argv[1:]...); err != nil {
		return resp.NewErrorf("ERR %s", err.Error())
	}
	return resp.NewSimpleString("OK")
}

func cmdUnwatch(e *Executor, c *Conn, argv []string) resp.Value {
	c.Tx.Unwatch()
	return resp.NewSimpleString("OK")
}

// cmdExec runs every queued command in order, per spec.md §4.5. A dirty
// WATCH set aborts the whole batch with a null array instead of running
// anything.
func cmdExec(e *Executor, c *Conn, argv []string) resp.Value {
	queue, ok, err := c.Tx.Exec(e.KS)
	if err != nil {
		return resp.NewErrorf("ERR %s", err.Error())
	}
	if !ok {
		return resp.NullArray()
	}
	replies := make([]resp.Value, len(queue))
	for i, q := range queue {
		replies[i] = e.Dispatch(c, q.Argv)
	}
	return resp.NewArray(replies...)
}
