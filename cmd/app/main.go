package main

import (
	"context"
	"flag"
	"log"
	"os"

	"Boardroom/internal/di"
	"Boardroom/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	scanOnce := flag.Bool("scan-once", false, "run one screening pass and exit")
	monitorOnce := flag.Bool("monitor-once", false, "run one position-exit sweep and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	switch {
	case *scanOnce:
		if err := app.ScanOnce(context.Background()); err != nil {
			log.Printf("scan failed: %v", err)
			os.Exit(1)
		}
	case *monitorOnce:
		if err := app.MonitorOnce(context.Background()); err != nil {
			log.Printf("sweep failed: %v", err)
			os.Exit(1)
		}
	default:
		if err := app.Run(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
	}
}
