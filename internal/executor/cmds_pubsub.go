package executor

import (
	"strings"

	"github.com/yusa-imit/zoltraak/internal/resp"
)

func init() {
	register(&commandSpec{name: "SUBSCRIBE", minArgv: 2, maxArgv: -1, write: false, handler: cmdSubscribe})
	register(&commandSpec{name: "UNSUBSCRIBE", minArgv: 1, maxArgv: -1, write: false, handler: cmdUnsubscribe})
	register(&commandSpec{name: "PSUBSCRIBE", minArgv: 2, maxArgv: -1, write: false, handler: cmdPSubscribe})
	register(&commandSpec{name: "PUNSUBSCRIBE", minArgv: 1, maxArgv: -1, write: false, handler: cmdPUnsubscribe})
	register(&commandSpec{name: "PUBLISH", minArgv: 3, maxArgv: 3, write: false, handler: cmdPublish})
	register(&commandSpec{name: "PUBSUB", minArgv: 2, maxArgv: -1, write: false, handler: cmdPubsub})

	immediateEvenInMulti["SUBSCRIBE"] = true
	immediateEvenInMulti["UNSUBSCRIBE"] = true
	immediateEvenInMulti["PSUBSCRIBE"] = true
	immediateEvenInMulti["PUNSUBSCRIBE"] = true
}

// cmdSubscribe/cmdPSubscribe reply with one push-shaped array per
// channel, per spec.md §5: "[*3, "subscribe", channel, count]". Real
// pub/sub push framing (for PUBLISH-delivered messages) is the
// server loop's concern; here we only report the registration.
func cmdSubscribe(e *Executor, c *Conn, argv []string) resp.Value {
	sub := c.EnsureSubscriber()
	var last resp.Value
	for _, ch := range argv[1:] {
		e.Pub.Subscribe(sub, ch)
		c.Channels[ch] = true
		last = resp.NewArray(
			resp.NewBulkStringFrom("subscribe"),
			resp.NewBulkStringFrom(ch),
			resp.NewInteger(int64(c.SubscriptionCount())),
		)
	}
	return last
}

func cmdPSubscribe(e *Executor, c *Conn, argv []string) resp.Value {
	sub := c.EnsureSubscriber()
	var last resp.Value
	for _, pat := range argv[1:] {
		e.Pub.PSubscribe(sub, pat)
		c.Patterns[pat] = true
		last = resp.NewArray(
			resp.NewBulkStringFrom("psubscribe"),
			resp.NewBulkStringFrom(pat),
			resp.NewInteger(int64(c.SubscriptionCount())),
		)
	}
	return last
}

func cmdUnsubscribe(e *Executor, c *Conn, argv []string) resp.Value {
	if c.Sub == nil {
		return resp.NewArray(resp.NewBulkStringFrom("unsubscribe"), resp.NullBulkString(), resp.NewInteger(0))
	}
	channels := argv[1:]
	if len(channels) == 0 {
		for ch := range c.Channels {
			channels = append(channels, ch)
		}
	}
	var last resp.Value
	for _, ch := range channels {
		e.Pub.Unsubscribe(c.Sub, ch)
		delete(c.Channels, ch)
		last = resp.NewArray(
			resp.NewBulkStringFrom("unsubscribe"),
			resp.NewBulkStringFrom(ch),
			resp.NewInteger(int64(c.SubscriptionCount())),
		)
	}
	if last.Kind == 0 {
		return resp.NewArray(resp.NewBulkStringFrom("unsubscribe"), resp.NullBulkString(), resp.NewInteger(int64(c.SubscriptionCount())))
	}
	return last
}

func cmdPUnsubscribe(e *Executor, c *Conn, argv []string) resp.Value {
	if c.Sub == nil {
		return resp.NewArray(resp.NewBulkStringFrom("punsubscribe"), resp.NullBulkString(), resp.NewInteger(0))
	}
	patterns := argv[1:]
	if len(patterns) == 0 {
		for p := range c.Patterns {
			patterns = append(patterns, p)
		}
	}
	var last resp.Value
	for _, p := range patterns {
		e.Pub.PUnsubscribe(c.Sub, p)
		delete(c.Patterns, p)
		last = resp.NewArray(
			resp.NewBulkStringFrom("punsubscribe"),
			resp.NewBulkStringFrom(p),
			resp.NewInteger(int64(c.SubscriptionCount())),
		)
	}
	if last.Kind == 0 {
		return resp.NewArray(resp.NewBulkStringFrom("punsubscribe"), resp.NullBulkString(), resp.NewInteger(int64(c.SubscriptionCount())))
	}
	return last
}

func cmdPublish(e *Executor, c *Conn, argv []string) resp.Value {
	n := e.Pub.Publish(argv[1], []byte(argv[2]))
	e.Bridge.Publish(argv[1], []byte(argv[2]))
	return resp.NewInteger(int64(n))
}

func cmdPubsub(e *Executor, c *Conn, argv []string) resp.Value {
	switch strings.ToUpper(argv[1]) {
	case "CHANNELS":
		pattern := "*"
		if len(argv) >= 3 {
			pattern = argv[2]
		}
		return stringArray(e.Pub.ChannelsWithSubscribers(pattern))
	case "NUMSUB":
		elems := make([]resp.Value, 0, len(argv[2:])*2)
		for _, ch := range argv[2:] {
			elems = append(elems, resp.NewBulkStringFrom(ch), resp.NewInteger(int64(e.Pub.NumSub(ch))))
		}
		return resp.NewArray(elems...)
	case "NUMPAT":
		return resp.NewInteger(int64(e.Pub.NumPat()))
	default:
		return resp.NewErrorf("ERR Unknown PUBSUB subcommand or wrong number of arguments for '%s'", argv[1])
	}
}
