package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"maskvault/go-backend/internal/composition/daemonserver"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	rpcAddr := flag.String("rpc-addr", "", "JSON-RPC listen address (overrides config)")
	configPath := flag.String("config", "", "Path to maskd.yaml (optional)")
	dataDir := flag.String("data-dir", ".", "Directory for daemon local data")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-Maskd-RPC-Token (optional)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("maskd version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *rpcToken != "" {
		_ = os.Setenv("MASKD_RPC_TOKEN", *rpcToken)
	}

	srv, err := daemonserver.NewRPCServerWithOptions(ctx, *rpcAddr, *configPath, *dataDir)
	if err != nil {
		log.Fatalf("maskd failed to initialize: %v", err)
	}

	log.Println("maskd starting")
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("maskd failed: %v", err)
	}
	log.Println("maskd stopped")
}
