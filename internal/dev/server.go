package dev

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/sitepipe/internal/config"
	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/metrics"
)

// MetricsPath is where the dev server exposes Prometheus metrics.
const MetricsPath = "/_sitepipe/metrics"

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Reload pushes change notifications to browsers. Nil disables live
	// reload even when dev.hotReload is set.
	Reload *ReloadServer

	// Metrics is exposed at MetricsPath. May be nil.
	Metrics *metrics.Metrics

	Logger *slog.Logger

	// OpenBrowser opens url when dev.open is set. Defaults to the platform opener.
	OpenBrowser func(url string) error
}

// Server is the development server. It serves the output directory.
type Server struct {
	config     *config.Config
	options    ServerOptions
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) *Server {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.OpenBrowser == nil {
		options.OpenBrowser = openURL
	}
	return &Server{
		config:  options.Config,
		options: options,
		logger:  options.Logger,
	}
}

func (s *Server) reloadEnabled() bool {
	return s.config.Dev.HotReload && s.options.Reload != nil
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if s.reloadEnabled() {
		r.Get(ReloadPath, s.options.Reload.HandleWebSocket)
	}
	if s.options.Metrics != nil {
		r.Handle(MetricsPath, s.options.Metrics.Handler())
	}

	static := &staticHandler{root: s.config.DistPath(), inject: s.reloadEnabled()}
	r.Handle("/*", static)
	return r
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	ln, err := net.Listen("tcp", s.config.DevAddress())
	if err != nil {
		s.mu.Unlock()
		return errors.New("E501").WithDetail(s.config.DevAddress()).Wrap(err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	url := "http://" + ln.Addr().String()
	s.logger.Info("Serving files from " + s.config.DistPath())
	s.logger.Info("Server running at " + url)

	if s.config.Dev.Open {
		if err := s.options.OpenBrowser(url); err != nil {
			s.logger.Warn("could not open browser", "err", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		<-errCh
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Addr returns the listening address, or "" when not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	if s.options.Reload != nil {
		s.options.Reload.Close()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}
}

// openURL opens a URL in the default browser.
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	return cmd.Start()
}
