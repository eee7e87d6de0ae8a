// Package devhttp runs the backend functions behind a plain HTTP server for
// local development. Each route converts the request into the gateway proxy
// envelope, emulating the user pool authorizer with locally signed tokens.
package devhttp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// Function is one backend function. *api.Dispatcher satisfies it.
type Function interface {
	Serve(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

type Server struct {
	address   string
	routes    map[string]Function
	logger    logging.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewServer maps each path (e.g. "/auth") to the function serving it.
func NewServer(address string, l logging.Logger, routes map[string]Function, secretKey string, tokenTTL time.Duration) *Server {
	return &Server{
		address:   address,
		routes:    routes,
		logger:    l.With("module", "dev_server"),
		jwtSecret: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}
}

// Router builds the gin engine with every function route and the token
// endpoint.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog)

	for path, fn := range s.routes {
		h := s.proxy(fn)
		r.POST(path, s.authorize, h)
		r.OPTIONS(path, h)
	}
	r.POST("/dev/token", s.issueToken)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"healthy": true})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info(ctx, "Starting dev server", "address", listen.Addr().String())
		if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info(ctx, "Stopping dev server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug(c.Request.Context(), "request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start))
}
