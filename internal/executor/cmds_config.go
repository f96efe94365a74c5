package executor

import (
	"strings"

	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "CONFIG", minArgv: 2, maxArgv: -1, write: false, handler: cmdConfig})
}

func cmdConfig(e *Executor, c *Conn, argv []string) resp.Value {
	switch strings.ToUpper(argv[1]) {
	case "GET":
		if len(argv) < 3 {
			return resp.NewErrorf("ERR wrong number of arguments for 'config|get' command")
		}
		elems := make([]resp.Value, 0)
		seen := map[string]bool{}
		for _, pattern := range argv[2:] {
			for _, p := range e.Config.Get(pattern) {
				if seen[p.Name] {
					continue
				}
				seen[p.Name] = true
				elems = append(elems, resp.NewBulkStringFrom(p.Name), resp.NewBulkStringFrom(p.Value))
			}
		}
		return resp.NewArray(elems...)
	case "SET":
		if len(argv) < 4 || len(argv)%2 != 0 {
			return resp.NewErrorf("ERR wrong number of arguments for 'config|set' command")
		}
		for i := 2; i < len(argv); i += 2 {
			if err := e.Config.Set(argv[i], argv[i+1]); err != nil {
				return resp.NewErrorf("ERR %s", err.Error())
			}
		}
		return resp.NewSimpleString("OK")
	case "REWRITE":
		if err := e.Config.Rewrite(); err != nil {
			return resp.NewErrorf("ERR %s", err.Error())
		}
		return resp.NewSimpleString("OK")
	case "RESETSTAT":
		e.Config.ResetStat()
		return resp.NewSimpleString("OK")
	default:
		return resp.NewErrorf("ERR Unknown CONFIG subcommand or wrong number of arguments for '%s'", argv[1])
	}
}
