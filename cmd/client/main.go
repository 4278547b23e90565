package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/saturnino-fabrica-de-software/facegate/internal/client"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "**ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	baseURL := flag.String("url", cfg.BaseURL, "facegate base URL")
	flag.Parse()

	c, err := client.New(*baseURL, cfg.Timeout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return client.NewApp(c, os.Stdin, os.Stdout).Run(ctx)
}
