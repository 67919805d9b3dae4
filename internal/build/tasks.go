package build

import (
	"context"

	"github.com/vango-dev/sitepipe/internal/config"
	"github.com/vango-dev/sitepipe/internal/dev"
	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/publish"
	"github.com/vango-dev/sitepipe/internal/task"
)

// Task names.
const (
	TaskClean      = "clean"
	TaskServe      = "serve"
	TaskWatch      = "watch"
	TaskReload     = "reload"
	TaskBuild      = "build"
	TaskDefault    = "default"
	TaskProduction = "production"

	TaskPublishStage  = "publish:stage"
	TaskPublishCommit = "publish:commit"
	TaskPublishPush   = "publish:push"
	TaskPublishUpload = "publish:upload"
)

func (s *Site) registerTasks() error {
	clean := task.New(TaskClean, s.Clean)

	var categories []*task.Task
	for _, c := range s.cfg.Categories() {
		categories = append(categories, s.categoryTask(c.Name))
	}

	b := task.Series(TaskBuild, clean, task.Parallel("assets", categories...))
	serve := task.New(TaskServe, s.serve)
	watch := task.New(TaskWatch, s.watch)
	reload := task.New(TaskReload, func(context.Context) error {
		if s.reload != nil {
			s.reload.NotifyReload()
		}
		return nil
	})

	git := s.git()
	stage := task.New(TaskPublishStage, git.Stage)
	commit := task.New(TaskPublishCommit, git.Commit)
	push := task.New(TaskPublishPush, git.Push)
	upload := task.New(TaskPublishUpload, s.upload)

	var production *task.Task
	switch s.cfg.Publish.Target {
	case "s3":
		production = task.Series(TaskProduction, upload)
	default:
		production = task.Series(TaskProduction, stage, commit, push)
	}

	all := []*task.Task{clean}
	all = append(all, categories...)
	all = append(all,
		serve, watch, reload, b,
		task.Parallel(TaskDefault, b, serve, watch),
		stage, commit, push, upload,
		production,
	)
	for _, t := range all {
		s.tasks[t.Name()] = t
	}
	return s.registry.Register(all...)
}

func (s *Site) categoryTask(name string) *task.Task {
	p := s.pipelines[name]
	return task.New(name, func(ctx context.Context) error {
		err := p.Run(ctx)
		s.report(name, err)
		return err
	})
}

func (s *Site) serve(ctx context.Context) error {
	server := dev.NewServer(dev.ServerOptions{
		Config:      s.cfg,
		Reload:      s.reload,
		Metrics:     s.metrics,
		Logger:      s.logger,
		OpenBrowser: s.opts.OpenBrowser,
	})
	return server.Start(ctx)
}

// Watcher returns a watcher with one binding per category plus the reload
// globs. Each category binding reruns its task on the site runner.
func (s *Site) Watcher() (*dev.Watcher, error) {
	cfg := s.cfg
	delay := cfg.WatchDelay()

	watched := map[string][]string{
		config.CategoryStyles:  {cfg.Styles.Src},
		config.CategoryScripts: {cfg.Scripts.Src},
		config.CategoryImages:  {cfg.Images.Src},
		config.CategoryFonts:   {cfg.Fonts.Src},
		config.CategoryViews:   {cfg.Views.Src, cfg.Views.Partials},
	}

	var bindings []dev.Binding
	for _, c := range cfg.Categories() {
		src, err := s.sources(watched[c.Name]...)
		if err != nil {
			return nil, err
		}
		t := s.tasks[c.Name]
		bindings = append(bindings, dev.Binding{
			Name:    c.Name,
			Sources: src,
			Delay:   delay,
			Action: func(ctx context.Context, paths []string) {
				s.logger.Debug("changed", "task", t.Name(), "paths", paths)
				// Failures are logged by the runner and shown in the overlay.
				_ = s.runner.Run(ctx, t)
			},
		})
	}

	if len(cfg.Watch.Reload) > 0 {
		out, err := s.sources(cfg.Watch.Reload...)
		if err != nil {
			return nil, err
		}
		reload := s.tasks[TaskReload]
		bindings = append(bindings, dev.Binding{
			Name:    TaskReload,
			Sources: out,
			Delay:   delay,
			Action: func(ctx context.Context, _ []string) {
				_ = s.runner.Run(ctx, reload)
			},
		})
	}

	ignore := append(append([]string(nil), dev.DefaultIgnore...), cfg.Watch.Ignore...)
	return dev.NewWatcher(dev.WatcherConfig{
		Root:   cfg.Dir(),
		Ignore: ignore,
		Logger: s.logger,
	}, bindings...), nil
}

func (s *Site) watch(ctx context.Context) error {
	w, err := s.Watcher()
	if err != nil {
		return err
	}
	return w.Start(ctx)
}

func (s *Site) git() *publish.Git {
	pc := s.cfg.Publish
	return publish.NewGit(publish.GitOptions{
		Dir:       s.cfg.Dir(),
		Dist:      s.cfg.DistPath(),
		Remote:    pc.Remote,
		RemoteURL: pc.RemoteURL,
		Branch:    pc.Branch,
		Message:   pc.Message,
		Now:       s.opts.Now,
		Run:       s.opts.Git,
		Logger:    s.logger,
	})
}

func (s *Site) upload(ctx context.Context) error {
	pc := s.cfg.Publish.S3
	if pc.Bucket == "" {
		return errors.New("E404").
			WithDetail("publish.s3.bucket is not set").
			WithSuggestion(`Set "publish": {"s3": {"bucket": "..."}} in sitepipe.json`)
	}
	client := s.opts.S3
	if client == nil {
		client = publish.NewS3Client(pc)
	}
	return publish.NewS3(publish.S3Options{
		Dist:   s.cfg.DistPath(),
		Bucket: pc.Bucket,
		Prefix: pc.Prefix,
		Client: client,
		Logger: s.logger,
	}).Upload(ctx)
}
