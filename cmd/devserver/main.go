// Command devserver runs every function behind one local HTTP server.
package main

import (
	"context"
	"log"
	"os"

	"github.com/puranjayb/AWS-Potato/internal/server"
	"github.com/puranjayb/AWS-Potato/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer app.Close()

	if err := app.RunDevServer(ctx); err != nil {
		app.Logger().Error(ctx, "dev server stopped", "error", err)
	}
}
