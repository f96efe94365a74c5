package executor

import (
	"strings"

	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "SCAN", minArgv: 2, maxArgv: -1, write: false, handler: cmdScan})
	register(&commandSpec{name: "HSCAN", minArgv: 3, maxArgv: -1, write: false, handler: cmdHScan})
	register(&commandSpec{name: "SSCAN", minArgv: 3, maxArgv: -1, write: false, handler: cmdSScan})
	register(&commandSpec{name: "ZSCAN", minArgv: 3, maxArgv: -1, write: false, handler: cmdZScan})
}

// scanOpts is the shared MATCH/COUNT/TYPE option parse for the scan
// family, per spec.md §4.2's cursor-based iteration commands.
type scanOpts struct {
	pattern string
	count   int
	typ     string
}

func parseScanOpts(argv []string, i int) (scanOpts, resp.Value) {
	opts := scanOpts{pattern: "*", count: 10}
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "MATCH":
			if i+1 >= len(argv) {
				return opts, resp.NewErrorf("ERR syntax error")
			}
			opts.pattern = argv[i+1]
			i += 2
		case "COUNT":
			if i+1 >= len(argv) {
				return opts, resp.NewErrorf("ERR syntax error")
			}
			n, ok := parseInt(argv[i+1])
			if !ok || n <= 0 {
				return opts, resp.NewErrorf("ERR value is not an integer or out of range")
			}
			opts.count = int(n)
			i += 2
		case "TYPE":
			if i+1 >= len(argv) {
				return opts, resp.NewErrorf("ERR syntax error")
			}
			opts.typ = argv[i+1]
			i += 2
		default:
			return opts, resp.NewErrorf("ERR syntax error")
		}
	}
	return opts, resp.Value{}
}

func scanReply(cursor string, items []string) resp.Value {
	return resp.NewArray(
		resp.NewBulkStringFrom(formatCursor(cursor)),
		stringArray(items),
	)
}

func cmdScan(e *Executor, c *Conn, argv []string) resp.Value {
	cursor, ok := parseCursor(argv[1])
	if !ok {
		return resp.NewErrorf("ERR invalid cursor")
	}
	opts, errVal := parseScanOpts(argv, 2)
	if errVal.Kind == resp.Error {
		return errVal
	}
	keys, next := e.KS.ScanKeys(cursor, opts.pattern, opts.count)
	if opts.typ != "" {
		filtered := keys[:0]
		for _, k := range keys {
			if e.KS.Type(k) == strings.ToLower(opts.typ) {
				filtered = append(filtered, k)
			}
		}
		keys = filtered
	}
	return scanReply(next, keys)
}

// cursorKeyPrefix marks a non-terminal cursor on the wire as carrying the
// last-examined key rather than meaning "start"/"done", since a real key
// can itself be the literal string "0".
const cursorKeyPrefix = "k:"

// parseCursor decodes a client-supplied cursor into keyspace.ScanKeys's
// resume-by-value form: "0" is the conventional start/done token, and
// anything else must carry cursorKeyPrefix around the key this scan last
// examined.
func parseCursor(s string) (string, bool) {
	if s == "0" {
		return "", true
	}
	if strings.HasPrefix(s, cursorKeyPrefix) {
		return s[len(cursorKeyPrefix):], true
	}
	return "", false
}

// formatCursor is parseCursor's inverse, used to encode the next cursor
// keyspace.scanSlice hands back into the wire token clients round-trip.
func formatCursor(cursor string) string {
	if cursor == "" {
		return "0"
	}
	return cursorKeyPrefix + cursor
}

func cmdHScan(e *Executor, c *Conn, argv []string) resp.Value {
	cursor, ok := parseCursor(argv[2])
	if !ok {
		return resp.NewErrorf("ERR invalid cursor")
	}
	opts, errVal := parseScanOpts(argv, 3)
	if errVal.Kind == resp.Error {
		return errVal
	}
	fields, vals, next, err := e.KS.HScan(argv[1], cursor, opts.pattern, opts.count)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	elems := make([]resp.Value, 0, len(fields)*2)
	for i, f := range fields {
		elems = append(elems, resp.NewBulkStringFrom(f), resp.NewBulkString(vals[i]))
	}
	return resp.NewArray(resp.NewBulkStringFrom(formatCursor(next)), resp.NewArray(elems...))
}

func cmdSScan(e *Executor, c *Conn, argv []string) resp.Value {
	cursor, ok := parseCursor(argv[2])
	if !ok {
		return resp.NewErrorf("ERR invalid cursor")
	}
	opts, errVal := parseScanOpts(argv, 3)
	if errVal.Kind == resp.Error {
		return errVal
	}
	members, next, err := e.KS.SScan(argv[1], cursor, opts.pattern, opts.count)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return scanReply(next, members)
}

func cmdZScan(e *Executor, c *Conn, argv []string) resp.Value {
	cursor, ok := parseCursor(argv[2])
	if !ok {
		return resp.NewErrorf("ERR invalid cursor")
	}
	opts, errVal := parseScanOpts(argv, 3)
	if errVal.Kind == resp.Error {
		return errVal
	}
	members, scores, next, err := e.KS.ZScan(argv[1], cursor, opts.pattern, opts.count)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	elems := make([]resp.Value, 0, len(members)*2)
	for i, m := range members {
		elems = append(elems, resp.NewBulkStringFrom(m), floatReply(scores[i]))
	}
	return resp.NewArray(resp.NewBulkStringFrom(formatCursor(next)), resp.NewArray(elems...))
}
