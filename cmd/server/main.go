package main

import (
	"context"
	"log"
	"os"

	"github.com/afocalor/rair-dapp/internal/logging"
	"github.com/afocalor/rair-dapp/internal/server"
	"github.com/afocalor/rair-dapp/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
