// Package server wires configuration, the database, the AWS clients and the
// generative model into the four backend functions, and runs them either
// one per function runtime or together behind the local dev server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/ai"
	"github.com/puranjayb/AWS-Potato/internal/server/api"
	"github.com/puranjayb/AWS-Potato/internal/server/config"
	"github.com/puranjayb/AWS-Potato/internal/server/devhttp"
	"github.com/puranjayb/AWS-Potato/internal/server/identity"
	"github.com/puranjayb/AWS-Potato/internal/server/projectclient"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/repomanager"
	"github.com/puranjayb/AWS-Potato/internal/server/services"
	"github.com/puranjayb/AWS-Potato/internal/server/storage"
)

// seams for testing
var (
	openDB               = sql.Open
	loadAWSConfig        = awsconfig.LoadDefaultConfig
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newObjectStore       = func(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
		return storage.NewS3Store(ctx, cfg)
	}
	newGenerator = func(ctx context.Context, cfg *config.Config) (ai.Generator, func() error, error) {
		c, err := ai.NewGeminiClient(ctx, cfg.VertexProjectID, cfg.VertexRegion, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	aws         aws.Config
	closers     []func() error
}

// NewApp opens the database, applies pending migrations and loads the AWS
// configuration. Function runtimes call it once per cold start.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	db, err := openDB("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	awsCfg, err := loadAWSConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return &App{config: cfg, logger: logger, db: db, repomanager: rm, aws: awsCfg}, nil
}

// Logger returns the application logger.
func (app *App) Logger() logging.Logger {
	return app.logger
}

// Close releases the model client and the database pool.
func (app *App) Close() error {
	for _, c := range app.closers {
		if err := c(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	return app.db.Close()
}

func (app *App) projectService() *services.ProjectService {
	return services.NewProjectService(app.db, app.repomanager, app.logger)
}

// registrar picks how signup and signin register projects: by invoking the
// projects function when one is configured, otherwise in-process.
func (app *App) registrar() projectclient.Registrar {
	if app.config.ProjectsFunction != "" {
		return projectclient.NewLambdaRegistrar(app.aws, app.config.ProjectsFunction)
	}
	return app.projectService()
}

func (app *App) AuthFunction() (*api.Dispatcher, error) {
	idp, err := identity.NewCognitoProvider(app.aws, app.config.UserPoolID, app.config.ClientID)
	if err != nil {
		return nil, err
	}
	accounts := services.NewAccountService(app.db, app.repomanager, idp, app.registrar(), app.logger)
	return api.NewAuthHandler(accounts, app.logger), nil
}

func (app *App) ProjectsFunction() *api.Dispatcher {
	return api.NewProjectsHandler(app.projectService(), app.logger)
}

func (app *App) FilesFunction(ctx context.Context) (*api.Dispatcher, error) {
	store, err := newObjectStore(ctx, app.config)
	if err != nil {
		return nil, err
	}
	files := services.NewFileService(app.db, app.repomanager, store, app.config, app.logger)
	return api.NewFilesHandler(files, app.logger), nil
}

func (app *App) PDFFunction(ctx context.Context) (*api.Dispatcher, error) {
	store, err := newObjectStore(ctx, app.config)
	if err != nil {
		return nil, err
	}
	gen, closeFn, err := newGenerator(ctx, app.config)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeFn)

	pdfs := services.NewPDFService(app.db, app.repomanager, store, gen, app.config, app.logger)
	return api.NewPDFHandler(pdfs, app.logger), nil
}

// DevRoutes builds every function that can be configured. A function whose
// collaborators are missing is skipped with a warning.
func (app *App) DevRoutes(ctx context.Context) map[string]devhttp.Function {
	routes := map[string]devhttp.Function{"/projects": app.ProjectsFunction()}

	if d, err := app.AuthFunction(); err != nil {
		app.logger.Warn(ctx, "auth function disabled", "error", err)
	} else {
		routes["/auth"] = d
	}
	if d, err := app.FilesFunction(ctx); err != nil {
		app.logger.Warn(ctx, "file-upload function disabled", "error", err)
	} else {
		routes["/file-upload"] = d
	}
	if d, err := app.PDFFunction(ctx); err != nil {
		app.logger.Warn(ctx, "pdf-processor function disabled", "error", err)
	} else {
		routes["/pdf-processor"] = d
	}

	return routes
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// RunDevServer serves all functions over HTTP until a termination signal
// arrives or ctx is cancelled.
func (app *App) RunDevServer(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	s := devhttp.NewServer(app.config.DevAddr, app.logger, app.DevRoutes(ctx), app.config.DevJWTSecret, app.config.DevTokenTTL)
	return s.Run(ctx)
}
