// Command projectsfn is the projects function: create_project and
// get_projects.
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

	lambda.Start(app.ProjectsFunction().Serve)
}
