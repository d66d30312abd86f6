package main

import (
	"flag"
	"fmt"
	"os"

	"FinSignal/internal/di"
	"FinSignal/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "app initialization failed: %v\n", err)
		os.Exit(1)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "app error: %v\n", err)
		os.Exit(1)
	}
}
