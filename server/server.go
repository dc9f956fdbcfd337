package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/fanout/auth"
	"github.com/jonwraymond/fanout/detail"
	"github.com/jonwraymond/fanout/health"
	"github.com/jonwraymond/fanout/observe"
	"github.com/jonwraymond/fanout/resilience"
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown once Run's context ends.
	// Default: 15 seconds
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = 5 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
	return c
}

// Deps are the collaborators the routes serve from. Detail, Registry,
// Health and Authenticator are required.
type Deps struct {
	Detail        *detail.Service
	Registry      *resilience.Registry
	Health        *health.Aggregator
	Authenticator auth.Authenticator

	// Authorizer defaults to auth.DefaultRoleAuthorizer().
	Authorizer auth.Authorizer

	// Gatherer backs /metrics. Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// Logger defaults to a nop logger.
	Logger observe.Logger
}

// Server is the fanoutd HTTP front end.
type Server struct {
	config Config
	deps   Deps
	engine *gin.Engine
}

// New builds the router.
func New(config Config, deps Deps) (*Server, error) {
	switch {
	case deps.Detail == nil:
		return nil, fmt.Errorf("%w: detail service", ErrMissingDependency)
	case deps.Registry == nil:
		return nil, fmt.Errorf("%w: registry", ErrMissingDependency)
	case deps.Health == nil:
		return nil, fmt.Errorf("%w: health aggregator", ErrMissingDependency)
	case deps.Authenticator == nil:
		return nil, fmt.Errorf("%w: authenticator", ErrMissingDependency)
	}
	if deps.Authorizer == nil {
		deps.Authorizer = auth.DefaultRoleAuthorizer()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Logger == nil {
		deps.Logger = observe.NewNopLogger()
	}

	s := &Server{config: config.withDefaults(), deps: deps}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(s.deps.Logger))

	r.GET("/healthz", gin.WrapF(health.LivenessHandler()))
	r.GET("/readyz", gin.WrapF(health.ReadinessHandler(s.deps.Health)))
	r.GET("/health", gin.WrapF(health.DetailedHandler(s.deps.Health)))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1", auth.Middleware(s.deps.Authenticator, s.deps.Logger))
	v1.GET("/appointments/:id", auth.Require(s.deps.Authorizer, auth.ActionReadDetail), s.getAppointmentDetail)
	v1.GET("/breakers", auth.Require(s.deps.Authorizer, auth.ActionReadBreakers), s.listBreakers)
	v1.POST("/breakers/:name/reset", auth.Require(s.deps.Authorizer, auth.ActionResetBreakers), s.resetBreaker)

	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx ends, then shuts down gracefully. It returns nil
// after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.deps.Logger.Info(ctx, "http server listening", observe.F("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()

	s.deps.Logger.Info(shutdownCtx, "http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func accessLog(logger observe.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []observe.Field{
			observe.F("method", c.Request.Method),
			observe.F("route", c.FullPath()),
			observe.F("status", status),
			observe.F("duration_ms", time.Since(start).Milliseconds()),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn(c.Request.Context(), "request failed", fields...)
			return
		}
		logger.Debug(c.Request.Context(), "request served", fields...)
	}
}
