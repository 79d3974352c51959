package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/afocalor/rair-dapp/internal/client/cli"
	"github.com/afocalor/rair-dapp/internal/client/config"
	"github.com/afocalor/rair-dapp/internal/logging"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
