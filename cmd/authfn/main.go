// Command authfn is the auth function: signup and signin.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
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
		log.Fatalf("%v", err)
	}

	d, err := app.AuthFunction()
	if err != nil {
		log.Fatalf("%v", err)
	}

	lambda.Start(d.Serve)
}
