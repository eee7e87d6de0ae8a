package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/puranjayb/AWS-Potato/internal/client/client"
	"github.com/puranjayb/AWS-Potato/internal/client/config"
	"github.com/puranjayb/AWS-Potato/internal/client/models"
)

// apiClient is the part of *client.APIClient the commands use.
type apiClient interface {
	SignedIn() bool
	Signup(ctx context.Context, username, email, password string) (*models.SignupResult, error)
	Signin(ctx context.Context, username, password string) (*models.SigninResult, error)
	Projects(ctx context.Context) ([]models.Project, error)
	Upload(ctx context.Context, path, projectID string) (*models.File, error)
	ListFiles(ctx context.Context) ([]models.File, error)
	Download(ctx context.Context, fileID, dir string) (string, error)
	Delete(ctx context.Context, fileID string) error
	Process(ctx context.Context, fileID string) (*models.ProcessResult, error)
	Ask(ctx context.Context, processingID, question string) (*models.Answer, error)
	History(ctx context.Context, processingID string) (*models.History, error)
}

type App struct {
	config   *config.Config
	api      apiClient
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    client.New(c.APIBaseURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.SignedIn()
}

func (a *App) status() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Run starts the REPL on stdin and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "Connected to %s (type 'help' for commands)\n", a.config.APIBaseURL)
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}
