package main

import (
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"path/filepath"

	"github.com/go-dotted/dotted/comm"
	"github.com/go-dotted/dotted/config"
	"github.com/go-dotted/dotted/crypto"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Functions

// initLogger initializes a JSON gokit-logger set to the
// according log level supplied via cli flag.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

func main() {

	// Set CPUs usable by dotted to all available.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Parse command-line flags.
	configFlag := flag.String("config", "dotted.toml", "Provide path to configuration file in TOML syntax.")
	replicaFlag := flag.String("replica", "", "Name of the replica defined in your config file this process should run as.")
	loglevelFlag := flag.String("loglevel", "debug", "This flag sets the default logging level.")
	flag.Parse()

	logger := initLogger(*loglevelFlag)

	if *replicaFlag == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the config", "err", err,
		)
		os.Exit(1)
	}

	replica, found := conf.Replicas[*replicaFlag]
	if !found {
		level.Error(logger).Log(
			"msg", "replica is not defined in the config",
			"replica", *replicaFlag,
		)
		os.Exit(1)
	}

	logger = log.With(logger, "replica", replica.Name)

	// Construct the internal TLS config all sync traffic
	// of this node runs over.
	tlsConfig, err := crypto.NewInternalTLSConfig(replica.CertLoc, replica.KeyLoc, conf.RootCertLoc)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to construct internal TLS config",
			"err", err,
		)
		os.Exit(2)
	}

	metrics := NewNodeMetrics(replica.PrometheusAddr)
	node := InitNode(logger, metrics, replica.Name, replica.ID)

	// Bring up the receiving side.
	recv, err := comm.InitReceiver(logger, replica.Name, replica.ListenSyncAddr, tlsConfig, node.Apply)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to initialize sync receiver",
			"err", err,
		)
		os.Exit(3)
	}
	defer recv.Close()

	go func() {

		if err := recv.Run(); err != nil {
			level.Error(logger).Log(
				"msg", "sync receiver failed",
				"err", err,
			)
			os.Exit(4)
		}
	}()

	// Bring up the sending side with the public sync
	// addresses of all configured peers.
	if err := os.MkdirAll(replica.CRDTLogRoot, 0700); err != nil {
		level.Error(logger).Log(
			"msg", "failed to create CRDT log root",
			"err", err,
		)
		os.Exit(5)
	}

	nodes := make(map[string]string)
	for _, peer := range replica.Peers {
		nodes[peer] = conf.Replicas[peer].PublicSyncAddr
	}

	out, err := comm.InitSender(logger, replica.Name, filepath.Join(replica.CRDTLogRoot, "send.log"), tlsConfig, nodes)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to initialize sync sender",
			"err", err,
		)
		os.Exit(6)
	}

	node.ConnectSender(out)

	// Expose prometheus metrics if configured.
	go runPromHTTP(logger, replica.PrometheusAddr)

	// Announce this replica to the cluster and report the
	// converged state periodically.
	node.Announce()

	level.Info(logger).Log("msg", "dotted node running", "listen", replica.ListenSyncAddr)

	for range time.Tick(10 * time.Second) {
		node.LogState()
	}
}
