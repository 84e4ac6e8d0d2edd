package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/betonops/reconcile-backend/internal/cli"
	"github.com/betonops/reconcile-backend/internal/infrastructure/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config file (default: config.yaml, falls back to env)")
		port       = flag.Int("port", 0, "Port to listen on (overrides config)")
		verbose    = flag.Bool("verbose", false, "Verbose output")
	)
	flag.Parse()

	cfg := config.LoadOrEnv()
	if *configPath != "" {
		cfg = config.LoadOrEnvWithPath(*configPath)
	}

	if err := cli.RunServe(cfg, *port, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
