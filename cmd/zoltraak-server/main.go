package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/yusa-imit/zoltraak/internal/config"
	"github.com/yusa-imit/zoltraak/internal/eventbridge"
	"github.com/yusa-imit/zoltraak/internal/executor"
	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/persistence"
	"github.com/yusa-imit/zoltraak/internal/pubsub"
	"github.com/yusa-imit/zoltraak/internal/replication"
	"github.com/yusa-imit/zoltraak/internal/server"
	"github.com/yusa-imit/zoltraak/pkg/log"
)

// Defaults mirror the representative values internal/config.New seeds
// the registry with; --port/--bind/--dir/--appendonly/--replicaof let
// an operator override them the way redis-server's own flags do,
// following cmd/cc-backend/main.go's flag.*Var-then-flag.Parse shape.
func main() {
	var flagPort, flagBind, flagDir, flagDBFilename, flagAppendFilename string
	var flagAppendOnly, flagGops bool
	var flagConfigFile, flagReplicaOf, flagNatsAddr, flagNatsSubject string
	var flagLogLevel string

	flag.StringVar(&flagBind, "bind", "0.0.0.0", "Address to listen on")
	flag.StringVar(&flagPort, "port", "6379", "Port to listen on")
	flag.StringVar(&flagDir, "dir", ".", "Working directory for the snapshot and append-only files")
	flag.StringVar(&flagDBFilename, "dbfilename", "dump.zoltraak", "Snapshot file name, relative to --dir")
	flag.BoolVar(&flagAppendOnly, "appendonly", false, "Enable the append-only file")
	flag.StringVar(&flagAppendFilename, "appendfilename", "appendonly.aof", "Append-only file name, relative to --dir")
	flag.StringVar(&flagConfigFile, "config", "", "Load CONFIG parameters from this JSON file at startup")
	flag.StringVar(&flagReplicaOf, "replicaof", "", "Start as a replica of `host:port`")
	flag.StringVar(&flagNatsAddr, "nats-address", "", "Optional NATS server address to republish PUBLISH traffic to")
	flag.StringVar(&flagNatsSubject, "nats-subject", "", "Subject prefix used when --nats-address is set")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "Log level: debug, info, notice, warn, err, crit")
	flag.Parse()

	log.SetLogLevel(flagLogLevel)

	// See https://github.com/google/gops (runtime overhead is almost zero).
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	ks := keyspace.New()
	pub := pubsub.New()
	repl := replication.New()
	cfg := config.New()

	if flagConfigFile != "" {
		if err := cfg.Load(flagConfigFile); err != nil {
			log.Fatalf("loading %s failed: %s", flagConfigFile, err.Error())
		}
	}
	cfg.Set("bind", flagBind)
	cfg.Set("appendonly", map[bool]string{true: "yes", false: "no"}[flagAppendOnly])

	snapshotPath := filepath.Join(flagDir, flagDBFilename)
	if err := persistence.Load(snapshotPath, ks, keyspace.NowMs()); err != nil && !os.IsNotExist(err) {
		log.Fatalf("loading snapshot %s failed: %s", snapshotPath, err.Error())
	}

	var aofLog *persistence.Log
	aofPath := filepath.Join(flagDir, flagAppendFilename)
	if flagAppendOnly {
		exec := executor.New(ks, pub, repl, nil, cfg, nil, snapshotPath, keyspace.NowMs)
		exec.Replaying = true
		if err := persistence.Replay(aofPath, exec.Apply); err != nil && !os.IsNotExist(err) {
			log.Fatalf("replaying %s failed: %s", aofPath, err.Error())
		}

		var err error
		aofLog, err = persistence.OpenLog(aofPath)
		if err != nil {
			log.Fatalf("opening %s failed: %s", aofPath, err.Error())
		}
		defer aofLog.Close()
	}

	bridge, err := eventbridge.Connect(eventbridge.Config{Address: flagNatsAddr, Subject: flagNatsSubject})
	if err != nil {
		log.Fatalf("connecting to nats at %s failed: %s", flagNatsAddr, err.Error())
	}
	defer bridge.Close()

	exec := executor.New(ks, pub, repl, aofLog, cfg, bridge, snapshotPath, keyspace.NowMs)

	addr := net.JoinHostPort(flagBind, flagPort)
	srv, err := server.Listen(addr, exec)
	if err != nil {
		log.Fatalf("%s", err.Error())
	}

	sched, err := server.NewScheduler(srv, time.Second, 5*time.Minute, time.Hour, aofPath, aofPath+".rewrite.tmp")
	if err != nil {
		log.Fatalf("starting scheduler failed: %s", err.Error())
	}

	if flagReplicaOf != "" {
		host, port, err := net.SplitHostPort(flagReplicaOf)
		if err != nil {
			log.Fatalf("invalid --replicaof %q: %s", flagReplicaOf, err.Error())
		}
		srv.StartReplicaOf(host, port)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	log.Infof("zoltraak-server listening at %s", srv.Addr())

	select {
	case <-sigs:
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Errorf("server: %s", err.Error())
		}
	}

	sched.Shutdown()
	srv.Shutdown()

	if err := persistence.Save(snapshotPath, ks); err != nil {
		log.Errorf("final snapshot save failed: %s", err.Error())
	}
	fmt.Fprintln(os.Stderr, "zoltraak-server: graceful shutdown complete")
}
