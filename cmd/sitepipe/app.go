package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vango-dev/sitepipe/internal/build"
	"github.com/vango-dev/sitepipe/internal/config"
	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/logging"
	"github.com/vango-dev/sitepipe/internal/metrics"
)

// globalFlags are the persistent flags every command shares.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

// LockFile is where the project lock lives, relative to the project root.
const LockFile = ".sitepipe/lock"

func loadConfig(flags *globalFlags) (*config.Config, error) {
	if flags.config != "" {
		return config.LoadFile(flags.config)
	}
	return config.LoadFromWorkingDir()
}

func newLogger(cfg *config.Config, flags *globalFlags) (*slog.Logger, error) {
	level, format := cfg.Log.Level, cfg.Log.Format
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	if flags.logFormat != "" {
		format = flags.logFormat
	}
	logger, err := logging.New(logging.Options{Level: level, Format: format})
	if err != nil {
		return nil, errors.New("E102").WithDetail(err.Error())
	}
	return logger.With("run", uuid.NewString()[:8]), nil
}

// openSite loads the configuration and builds the task registry.
func openSite(flags *globalFlags, configure func(*config.Config)) (*build.Site, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	if configure != nil {
		configure(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := newLogger(cfg, flags)
	if err != nil {
		return nil, err
	}
	return build.New(build.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	})
}

// lockProject takes the project lock. The returned func releases it.
func lockProject(cfg *config.Config) (func(), error) {
	path := cfg.Resolve(LockFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("E203").WithDetail(path)
	}
	return func() { _ = lock.Unlock() }, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// runLocked runs the named tasks while holding the project lock.
func runLocked(cmd *cobra.Command, site *build.Site, names ...string) error {
	release, err := lockProject(site.Config())
	if err != nil {
		return err
	}
	defer release()

	ctx, stop := signalContext(cmd)
	defer stop()
	return site.Run(ctx, names...)
}
