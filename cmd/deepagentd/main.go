package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"deepagent"
)

func main() {
	var (
		configPath = flag.String("config", "agents.yaml", "path to agents.yaml")
		host       = flag.String("host", "0.0.0.0", "listen host")
		port       = flag.Int("port", 8000, "listen port")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	srv := deepagent.New(
		deepagent.WithHost(*host),
		deepagent.WithPort(*port),
		deepagent.WithConfigFile(*configPath),
		deepagent.WithLogger(logger),
	)

	if err := srv.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
