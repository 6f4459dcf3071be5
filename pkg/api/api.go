package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruscor/contact-relay/pkg/config"
	"github.com/ruscor/contact-relay/pkg/contactform"
	"github.com/ruscor/contact-relay/pkg/metrics"
)

// ShutdownTimeout bounds how long in-flight requests may take to finish once
// the server is asked to stop.
const ShutdownTimeout = 15 * time.Second

type Server struct {
	gin     *gin.Engine
	log     *zap.SugaredLogger
	config  config.Config
	gateway *contactform.Handler
}

// NewServer builds the HTTP front of the gateway. cfg is expected to have
// Defaults applied.
func NewServer(log *zap.Logger, cfg config.Config, debug bool, gateway *contactform.Handler) (*Server, error) {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if gateway == nil {
		return nil, errors.New("contact form gateway is required")
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	engine.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.RecoveryWithZap(log, true),
		requestContext(log.Sugar()),
	)

	s := &Server{
		gin:     engine,
		log:     log.Sugar().Named("api"),
		config:  cfg,
		gateway: gateway,
	}

	engine.GET("/healthz", s.healthz)
	engine.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))
	engine.Any("/", s.handleEvent)
	// gin only routes the standard methods; anything else aimed at the form
	// endpoint still belongs to the gateway, which answers 405.
	engine.NoRoute(func(c *gin.Context) {
		if c.Request.URL.Path == "/" {
			s.handleEvent(c)
			return
		}
		c.JSON(http.StatusNotFound, contactform.APIError{Error: http.StatusText(http.StatusNotFound)})
	})

	return s, nil
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Server.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// TLS is used when both certificate and key files are configured.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.gin,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	useTLS := s.config.Server.TLSCertFile != "" && s.config.Server.TLSKeyFile != ""

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("Starting contact relay server", "address", ln.Addr().String(), "tls", useTLS)
		if useTLS {
			errCh <- srv.ServeTLS(ln, s.config.Server.TLSCertFile, s.config.Server.TLSKeyFile)
			return
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Infow("Shutting down contact relay server", "timeout", ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
