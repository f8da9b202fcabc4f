package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gammaproto/gammakit/gateway"
	"github.com/gammaproto/gammakit/logs"
	"github.com/gammaproto/gammakit/pkg/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "configuration file (defaults apply if empty)")
		addr       = flag.String("addr", "", "listen address override")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	if *addr != "" {
		cfg.Gateway.Addr = *addr
	}

	logger, closeLogs, err := logs.Setup(cfg.Workspace, slog.LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logs: %v\n", err)
		os.Exit(1)
	}
	defer closeLogs()

	gw, err := gateway.New(cfg.Gateway.Addr, cfg.Workspace, logger)
	if err != nil {
		logger.Error("gateway init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("=== Gamma Gateway ===\n")
	fmt.Printf("ws://%s/ws\n", cfg.Gateway.Addr)
	fmt.Printf("φ^(-3) coherence target: %v\n", gateway.Phi3Target)

	if err := gw.Start(ctx); err != nil {
		logger.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
	fmt.Println("✓ Gateway shut down")
}
