// Package eventbridge optionally fans PUBLISH traffic out to an
// external NATS subject, so a cluster of otherwise-independent
// instances (or an external consumer) can observe the keyspace's
// pub/sub channel without a client connected directly to this process.
// Adapted from the teacher's pkg/nats client: same connection-options
// shape (auth, reconnect/error handlers), generalized from a singleton
// global into an explicit collaborator a caller constructs and holds,
// per spec.md §5's capability-handle style (DESIGN.md §I).
package eventbridge

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/yusa-imit/zoltraak/pkg/log"
)

// Config is the subset of the teacher's NatsConfig this bridge needs:
// where to connect and how to authenticate. CredsFilePath is kept even
// though nothing in this module currently sets it, since nats.go's
// UserCredentials option is otherwise unreachable from any component.
type Config struct {
	Address       string `json:"address"`
	Subject       string `json:"subject"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	CredsFilePath string `json:"creds-file-path"`
}

// Bridge wraps a NATS connection dedicated to republishing PUBLISH
// traffic. A nil *Bridge is valid and treated as "no bridge configured"
// by every method on it, so callers never need a separate present/
// absent check.
type Bridge struct {
	conn    *nats.Conn
	subject string
	mu      sync.Mutex
}

// Connect dials the configured NATS server. It returns (nil, nil) when
// cfg.Address is empty, since running without an external bridge is the
// default and not an error.
func Connect(cfg Config) (*Bridge, error) {
	if cfg.Address == "" {
		return nil, nil
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			log.Warnf("eventbridge: disconnected: %s", err.Error())
		}
	}))
	opts = append(opts, nats.ReconnectHandler(func(nc *nats.Conn) {
		log.Infof("eventbridge: reconnected to %s", nc.ConnectedUrl())
	}))
	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		if err != nil {
			log.Warnf("eventbridge: %s", err.Error())
		}
	}))

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("eventbridge: connect to %s: %w", cfg.Address, err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = "zoltraak.pubsub"
	}
	log.Infof("eventbridge: connected to %s, republishing under subject %q", cfg.Address, subject)
	return &Bridge{conn: nc, subject: subject}, nil
}

// Publish republishes a PUBLISH command's channel and payload under
// "<subject>.<channel>", so external subscribers can filter by channel
// using ordinary NATS wildcard subjects. A nil Bridge is a silent no-op.
func (b *Bridge) Publish(channel string, payload []byte) {
	if b == nil {
		return
	}
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}
	if err := conn.Publish(b.subject+"."+channel, payload); err != nil {
		log.Warnf("eventbridge: publish to channel %q failed: %s", channel, err.Error())
	}
}

// Close flushes and closes the connection. A nil Bridge is a no-op.
func (b *Bridge) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Flush()
		b.conn.Close()
		b.conn = nil
	}
}
