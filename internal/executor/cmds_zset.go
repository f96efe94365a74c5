package executor

import (
	"math"
	"strconv"
	"strings"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "ZADD", minArgv: 4, maxArgv: -1, write: true, handler: cmdZAdd})
	register(&commandSpec{name: "ZREM", minArgv: 3, maxArgv: -1, write: true, handler: cmdZRem})
	register(&commandSpec{name: "ZSCORE", minArgv: 3, maxArgv: 3, write: false, handler: cmdZScore})
	register(&commandSpec{name: "ZMSCORE", minArgv: 3, maxArgv: -1, write: false, handler: cmdZMScore})
	register(&commandSpec{name: "ZRANK", minArgv: 3, maxArgv: 3, write: false, handler: cmdZRank})
	register(&commandSpec{name: "ZREVRANK", minArgv: 3, maxArgv: 3, write: false, handler: cmdZRevRank})
	register(&commandSpec{name: "ZRANGE", minArgv: 4, maxArgv: -1, write: false, handler: cmdZRange})
	register(&commandSpec{name: "ZREVRANGE", minArgv: 4, maxArgv: -1, write: false, handler: cmdZRevRange})
	register(&commandSpec{name: "ZRANGEBYSCORE", minArgv: 4, maxArgv: -1, write: false, handler: cmdZRangeByScore})
	register(&commandSpec{name: "ZREVRANGEBYSCORE", minArgv: 4, maxArgv: -1, write: false, handler: cmdZRevRangeByScore})
	register(&commandSpec{name: "ZINCRBY", minArgv: 4, maxArgv: 4, write: true, handler: cmdZIncrBy})
	register(&commandSpec{name: "ZPOPMIN", minArgv: 2, maxArgv: 3, write: true, handler: cmdZPopMin})
	register(&commandSpec{name: "ZPOPMAX", minArgv: 2, maxArgv: 3, write: true, handler: cmdZPopMax})
	register(&commandSpec{name: "ZCOUNT", minArgv: 4, maxArgv: 4, write: false, handler: cmdZCount})
	register(&commandSpec{name: "ZRANDMEMBER", minArgv: 2, maxArgv: 3, write: false, handler: cmdZRandMember})
	register(&commandSpec{name: "ZCARD", minArgv: 2, maxArgv: 2, write: false, handler: cmdZCard})

	register(&commandSpec{name: "BZPOPMIN", minArgv: 3, maxArgv: -1, write: true, handler: cmdBZPopMin})
	register(&commandSpec{name: "BZPOPMAX", minArgv: 3, maxArgv: -1, write: true, handler: cmdBZPopMax})
}

func membersAndScoresReply(names []string, scores []float64, withScores bool) resp.Value {
	if !withScores {
		return stringArray(names)
	}
	elems := make([]resp.Value, 0, len(names)*2)
	for i, n := range names {
		elems = append(elems, resp.NewBulkStringFrom(n), floatReply(scores[i]))
	}
	return resp.NewArray(elems...)
}

func cmdZAdd(e *Executor, c *Conn, argv []string) resp.Value {
	var flags keyspace.ZAddFlags
	i := 2
loop:
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "NX":
			flags.NX = true
			i++
		case "XX":
			flags.XX = true
			i++
		case "GT":
			flags.GT = true
			i++
		case "LT":
			flags.LT = true
			i++
		case "CH":
			flags.CH = true
			i++
		case "INCR":
			flags.Incr = true
			i++
		default:
			break loop
		}
	}
	rest := argv[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.NewErrorf("ERR syntax error")
	}
	if flags.Incr && len(rest) != 2 {
		return resp.NewErrorf("ERR INCR option supports a single increment-element pair")
	}
	members := make([]string, len(rest)/2)
	scores := make([]float64, len(rest)/2)
	for j := 0; j < len(rest); j += 2 {
		f, ok := parseFloat(rest[j])
		if !ok {
			return resp.NewErrorf("ERR value is not a valid float")
		}
		scores[j/2] = f
		members[j/2] = rest[j+1]
	}

	if flags.Incr {
		score, ok, err := e.KS.ZIncrBy(argv[1], flags, members[0], scores[0])
		if err != nil {
			return wrongTypeOrErr(err)
		}
		if !ok {
			return resp.NullBulkString()
		}
		return floatReply(score)
	}

	n, err := e.KS.ZAdd(argv[1], flags, members, scores)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdZRem(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.ZRem(argv[1], argv[2:]...)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdZScore(e *Executor, c *Conn, argv []string) resp.Value {
	score, ok, err := e.KS.ZScore(argv[1], argv[2])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return floatReply(score)
}

func cmdZMScore(e *Executor, c *Conn, argv []string) resp.Value {
	scores, found, err := e.KS.ZMScore(argv[1], argv[2:])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	elems := make([]resp.Value, len(scores))
	for i := range scores {
		if !found[i] {
			elems[i] = resp.NullBulkString()
		} else {
			elems[i] = floatReply(scores[i])
		}
	}
	return resp.NewArray(elems...)
}

func cmdZRank(e *Executor, c *Conn, argv []string) resp.Value { return zRankReply(e, argv, false) }
func cmdZRevRank(e *Executor, c *Conn, argv []string) resp.Value { return zRankReply(e, argv, true) }

func zRankReply(e *Executor, argv []string, reverse bool) resp.Value {
	var rank int
	var ok bool
	var err error
	if reverse {
		rank, ok, err = e.KS.ZRevRank(argv[1], argv[2])
	} else {
		rank, ok, err = e.KS.ZRank(argv[1], argv[2])
	}
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.NewInteger(int64(rank))
}

func hasWithScores(argv []string) (rest []string, withScores bool) {
	for _, a := range argv {
		if strings.EqualFold(a, "WITHSCORES") {
			withScores = true
			continue
		}
		rest = append(rest, a)
	}
	return rest, withScores
}

func cmdZRange(e *Executor, c *Conn, argv []string) resp.Value { return zRangeByRank(e, argv, false) }
func cmdZRevRange(e *Executor, c *Conn, argv []string) resp.Value { return zRangeByRank(e, argv, true) }

func zRangeByRank(e *Executor, argv []string, reverse bool) resp.Value {
	rest, withScores := hasWithScores(argv[4:])
	if len(rest) != 0 {
		return resp.NewErrorf("ERR syntax error")
	}
	start, ok1 := parseInt(argv[2])
	stop, ok2 := parseInt(argv[3])
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR value is not an integer or out of range")
	}
	names, scores, err := e.KS.ZRange(argv[1], int(start), int(stop), reverse)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return membersAndScoresReply(names, scores, withScores)
}

// parseScoreBound parses a ZRANGEBYSCORE-style bound: "-inf"/"+inf", an
// optional "(" exclusivity prefix, or a plain float.
func parseScoreBound(s string) (value float64, excl bool, ok bool) {
	if strings.HasPrefix(s, "(") {
		excl = true
		s = s[1:]
	}
	switch s {
	case "-inf":
		return math.Inf(-1), excl, true
	case "+inf", "inf":
		return math.Inf(1), excl, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}
	return f, excl, true
}

func cmdZRangeByScore(e *Executor, c *Conn, argv []string) resp.Value {
	return zRangeByScoreReply(e, argv, false)
}

func cmdZRevRangeByScore(e *Executor, c *Conn, argv []string) resp.Value {
	return zRangeByScoreReply(e, argv, true)
}

func zRangeByScoreReply(e *Executor, argv []string, reverse bool) resp.Value {
	minArg, maxArg := argv[2], argv[3]
	if reverse {
		minArg, maxArg = argv[3], argv[2]
	}
	min, minExcl, ok1 := parseScoreBound(minArg)
	max, maxExcl, ok2 := parseScoreBound(maxArg)
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR min or max is not a float")
	}

	withScores := false
	offset, count := 0, -1
	i := 4
	for i < len(argv) {
		switch strings.ToUpper(argv[i]) {
		case "WITHSCORES":
			withScores = true
			i++
		case "LIMIT":
			if i+2 >= len(argv) {
				return resp.NewErrorf("ERR syntax error")
			}
			off, ok := parseInt(argv[i+1])
			cnt, ok2 := parseInt(argv[i+2])
			if !ok || !ok2 {
				return resp.NewErrorf("ERR value is not an integer or out of range")
			}
			offset, count = int(off), int(cnt)
			i += 3
		default:
			return resp.NewErrorf("ERR syntax error")
		}
	}

	names, scores, err := e.KS.ZRangeByScore(argv[1], keyspace.NewScoreRange(min, max, minExcl, maxExcl), reverse, offset, count)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return membersAndScoresReply(names, scores, withScores)
}

func cmdZIncrBy(e *Executor, c *Conn, argv []string) resp.Value {
	delta, ok := parseFloat(argv[2])
	if !ok {
		return resp.NewErrorf("ERR value is not a valid float")
	}
	score, _, err := e.KS.ZIncrBy(argv[1], keyspace.ZAddFlags{}, argv[3], delta)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return floatReply(score)
}

func cmdZPopMin(e *Executor, c *Conn, argv []string) resp.Value { return zPopReply(e, argv, false) }
func cmdZPopMax(e *Executor, c *Conn, argv []string) resp.Value { return zPopReply(e, argv, true) }

func zPopReply(e *Executor, argv []string, max bool) resp.Value {
	count := 1
	if len(argv) == 3 {
		n, ok := parseInt(argv[2])
		if !ok || n < 0 {
			return resp.NewErrorf("ERR value is out of range, must be positive")
		}
		count = int(n)
	}
	var names []string
	var scores []float64
	var err error
	if max {
		names, scores, err = e.KS.ZPopMax(argv[1], count)
	} else {
		names, scores, err = e.KS.ZPopMin(argv[1], count)
	}
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return membersAndScoresReply(names, scores, true)
}

func cmdZCount(e *Executor, c *Conn, argv []string) resp.Value {
	min, minExcl, ok1 := parseScoreBound(argv[2])
	max, maxExcl, ok2 := parseScoreBound(argv[3])
	if !ok1 || !ok2 {
		return resp.NewErrorf("ERR min or max is not a float")
	}
	n, err := e.KS.ZCount(argv[1], keyspace.NewScoreRange(min, max, minExcl, maxExcl))
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

func cmdZRandMember(e *Executor, c *Conn, argv []string) resp.Value {
	count := 1
	hasCount := len(argv) == 3
	if hasCount {
		n, ok := parseInt(argv[2])
		if !ok {
			return resp.NewErrorf("ERR value is not an integer or out of range")
		}
		count = int(n)
	}
	names, err := e.KS.ZRandMember(argv[1], count, hasCount)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !hasCount {
		if len(names) == 0 {
			return resp.NullBulkString()
		}
		return resp.NewBulkStringFrom(names[0])
	}
	return stringArray(names)
}

func cmdZCard(e *Executor, c *Conn, argv []string) resp.Value {
	n, err := e.KS.ZCard(argv[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.NewInteger(int64(n))
}

// cmdBZPopMin/cmdBZPopMax are the immediate-check variant of the
// blocking zset pops, per spec.md §5.
func cmdBZPopMin(e *Executor, c *Conn, argv []string) resp.Value { return blockingZPop(e, argv, false) }
func cmdBZPopMax(e *Executor, c *Conn, argv []string) resp.Value { return blockingZPop(e, argv, true) }

func blockingZPop(e *Executor, argv []string, max bool) resp.Value {
	keys := argv[1 : len(argv)-1]
	for _, key := range keys {
		var names []string
		var scores []float64
		var err error
		if max {
			names, scores, err = e.KS.ZPopMax(key, 1)
		} else {
			names, scores, err = e.KS.ZPopMin(key, 1)
		}
		if err != nil {
			return wrongTypeOrErr(err)
		}
		if len(names) > 0 {
			return resp.NewArray(resp.NewBulkStringFrom(key), resp.NewBulkStringFrom(names[0]), floatReply(scores[0]))
		}
	}
	return resp.NullArray()
}
