package build

import (
	"context"
	sterrors "errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/vango-dev/sitepipe/internal/config"
	"github.com/vango-dev/sitepipe/internal/dev"
	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/fileset"
	"github.com/vango-dev/sitepipe/internal/metrics"
	"github.com/vango-dev/sitepipe/internal/pipeline"
	"github.com/vango-dev/sitepipe/internal/publish"
	"github.com/vango-dev/sitepipe/internal/sass"
	"github.com/vango-dev/sitepipe/internal/task"
	"github.com/vango-dev/sitepipe/internal/transform"
)

// Options configures a Site.
type Options struct {
	// Config is the project configuration.
	Config *config.Config

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Git runs git for the publish steps. Defaults to publish.ExecRunner.
	Git publish.CommandRunner

	// S3 is the client publish:upload uses. Defaults to one built from
	// publish.s3 and the AWS_* environment.
	S3 publish.PutObjectAPI

	// Now is the clock used for commit messages and view build times.
	Now func() time.Time

	// OpenBrowser is handed to the dev server.
	OpenBrowser func(url string) error
}

// Site is a configured project: its pipelines, its reload channel and the
// registry of runnable tasks.
type Site struct {
	cfg     *config.Config
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	runner   *task.Runner
	registry *task.Registry
	reload   *dev.ReloadServer

	pipelines map[string]*pipeline.Pipeline
	tasks     map[string]*task.Task

	mu     sync.Mutex
	failed map[string]string
}

// New builds the pipelines and registers every task. Invalid bundler or
// browser options are reported here rather than on the first run.
func New(opts Options) (*Site, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("build: nil config")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Site{
		cfg:       opts.Config,
		opts:      opts,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		registry:  task.NewRegistry(),
		pipelines: make(map[string]*pipeline.Pipeline, 5),
		tasks:     make(map[string]*task.Task),
		failed:    make(map[string]string),
	}
	s.runner = task.NewRunner(task.RunnerOptions{Logger: opts.Logger, Metrics: opts.Metrics})
	if s.cfg.Dev.HotReload {
		s.reload = dev.NewReloadServer(s.cfg.DistPath(), opts.Metrics)
	}

	if err := s.buildPipelines(); err != nil {
		return nil, err
	}
	if err := s.registerTasks(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the project configuration.
func (s *Site) Config() *config.Config {
	return s.cfg
}

// Runner returns the runner every task of the site runs on.
func (s *Site) Runner() *task.Runner {
	return s.runner
}

// Registry returns the task registry.
func (s *Site) Registry() *task.Registry {
	return s.registry
}

// Reload returns the live-reload channel, or nil when dev.hotReload is off.
func (s *Site) Reload() *dev.ReloadServer {
	return s.reload
}

// Pipeline returns the pipeline of a category.
func (s *Site) Pipeline(category string) (*pipeline.Pipeline, bool) {
	p, ok := s.pipelines[category]
	return p, ok
}

// Run runs the named tasks one after another and stops at the first failure.
func (s *Site) Run(ctx context.Context, names ...string) error {
	for _, name := range names {
		t, err := s.registry.Get(name)
		if err != nil {
			return err
		}
		if err := s.runner.Run(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Clean removes the output directory.
func (s *Site) Clean(context.Context) error {
	dist := filepath.Clean(s.cfg.DistPath())
	if dist == filepath.Clean(s.cfg.Dir()) || dist == filepath.Dir(dist) {
		return errors.New("E204").WithDetail(fmt.Sprintf("refusing to remove %s", dist))
	}
	if err := os.RemoveAll(dist); err != nil {
		return errors.New("E204").WithDetail(dist).Wrap(err)
	}
	return nil
}

func (s *Site) sources(patterns ...string) (*fileset.Set, error) {
	set, err := fileset.New(s.cfg.Dir(), patterns...)
	if err != nil {
		return nil, errors.New("E102").WithDetail(fmt.Sprintf("%v", patterns)).Wrap(err)
	}
	return set, nil
}

func (s *Site) notifier() pipeline.Notifier {
	if s.reload == nil {
		return nil
	}
	return s.reload
}

func (s *Site) buildPipelines() error {
	cfg := s.cfg
	add := func(name string, src *fileset.Set, dest string, stages ...pipeline.Stage) {
		s.pipelines[name] = &pipeline.Pipeline{
			Name:     name,
			Sources:  src,
			Stages:   stages,
			Dest:     cfg.Resolve(dest),
			Notifier: s.notifier(),
			Logger:   s.logger,
			Metrics:  s.metrics,
		}
	}

	// styles
	src, err := s.sources(cfg.Styles.Src)
	if err != nil {
		return err
	}
	css, err := transform.CSS(transform.CSSOptions{
		Browsers:   cfg.Styles.Browsers,
		Minify:     cfg.Styles.Minify,
		SourceMaps: cfg.Styles.SourceMaps,
	})
	if err != nil {
		return err
	}
	compiler := sass.New(cfg.Styles.Sass, cfg.Dir(), cfg.Styles.LoadPaths)
	compiler.SourceMaps = cfg.Styles.SourceMaps
	add(config.CategoryStyles, src, cfg.Styles.Dest, transform.Sass(compiler), css)

	// scripts
	entries := cfg.Scripts.Entries
	if len(entries) == 0 {
		entries = []string{cfg.Scripts.Src}
	}
	if src, err = s.sources(entries...); err != nil {
		return err
	}
	b := cfg.Scripts.Bundle
	bundle, err := transform.Bundle(transform.BundleOptions{
		Dir:        cfg.Dir(),
		Format:     b.Format,
		Platform:   b.Platform,
		Target:     b.Target,
		Minify:     b.Minify,
		SourceMaps: b.SourceMaps,
		External:   b.External,
		Define:     b.Define,
	})
	if err != nil {
		return err
	}
	add(config.CategoryScripts, src, cfg.Scripts.Dest, bundle)

	// images
	if src, err = s.sources(cfg.Images.Src); err != nil {
		return err
	}
	add(config.CategoryImages, src, cfg.Images.Dest, transform.Images(transform.ImageOptions{
		Level:   cfg.Images.Level,
		Quality: cfg.Images.Quality,
	}))
	s.pipelines[config.CategoryImages].Since = s.runner.Since(config.CategoryImages)

	// fonts
	if src, err = s.sources(cfg.Fonts.Src); err != nil {
		return err
	}
	add(config.CategoryFonts, src, cfg.Fonts.Dest)

	// views
	if src, err = s.sources(cfg.Views.Src); err != nil {
		return err
	}
	partials, err := s.sources(cfg.Views.Partials)
	if err != nil {
		return err
	}
	add(config.CategoryViews, src, cfg.Views.Dest,
		transform.Views(transform.ViewOptions{
			Partials: partials,
			Delims:   cfg.Views.Delims,
			Data:     cfg.Views.Data,
			Ext:      cfg.Views.Ext,
			Now:      s.opts.Now,
		}),
		pipeline.Rename(cfg.Views.Ext, ".html"),
	)
	return nil
}

// report keeps the browser error overlay in sync with the category results.
// The overlay shows the most recent failure and clears once every category
// has recovered.
func (s *Site) report(category string, err error) {
	if s.reload == nil {
		return
	}

	s.mu.Lock()
	if err != nil {
		s.failed[category] = overlayText(err)
	} else {
		delete(s.failed, category)
	}
	var pending []string
	for _, name := range slices.Sorted(maps.Keys(s.failed)) {
		pending = append(pending, s.failed[name])
	}
	s.mu.Unlock()

	switch {
	case err != nil:
		s.reload.NotifyError(overlayText(err))
	case len(pending) == 0:
		s.reload.ClearError()
	default:
		s.reload.NotifyError(pending[0])
	}
}

func overlayText(err error) string {
	var coded *errors.Error
	if sterrors.As(err, &coded) {
		return coded.FormatCompact()
	}
	return err.Error()
}
