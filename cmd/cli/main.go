// Command cli is the interactive client for the document API.
package main

import (
	"context"
	"log"
	"os"

	"github.com/puranjayb/AWS-Potato/internal/client/cli"
	"github.com/puranjayb/AWS-Potato/internal/client/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	cli.NewApp(cfg).Run(ctx)
}
