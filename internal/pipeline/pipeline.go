// Package pipeline moves asset files from their sources to dist.
//
// A Pipeline reads the files matched by a fileset, passes them through an
// ordered list of stages, writes the survivors under its destination
// directory and tells its notifier which paths changed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/fileset"
	"github.com/vango-dev/sitepipe/internal/metrics"
)

// File is an in-flight asset.
type File struct {
	// Source is the absolute path of the file the asset came from.
	Source string

	// Path is the slash-separated output path relative to the destination.
	Path string

	// Contents are the current bytes of the asset.
	Contents []byte

	// ModTime is the source modification time.
	ModTime time.Time
}

// Notifier is told about every batch of written files.
type Notifier interface {
	Notify(paths []string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(paths []string)

// Notify calls f(paths).
func (f NotifierFunc) Notify(paths []string) { f(paths) }

// Pipeline is the source-to-destination flow of one asset category.
type Pipeline struct {
	// Name labels log lines and metrics (e.g., "styles").
	Name string

	// Sources selects the input files.
	Sources *fileset.Set

	// Since, when set, drops inputs not modified after the returned time.
	Since func() time.Time

	// Stages transform the files in order.
	Stages []Stage

	// Dest is the absolute destination directory.
	Dest string

	// Notifier is told about written files. May be nil.
	Notifier Notifier

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Run executes the pipeline once.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var since time.Time
	if p.Since != nil {
		since = p.Since()
	}

	matches, err := p.Sources.Files(since)
	if err != nil {
		return errors.New("E300").WithDetail(fmt.Sprintf("%v", p.Sources.Patterns())).Wrap(err)
	}
	if len(matches) == 0 {
		logger.Debug("no matching sources", "category", p.Name, "since", since)
		return nil
	}

	files, err := Read(matches)
	if err != nil {
		return err
	}

	for _, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		files, err = stage.Process(ctx, files)
		if err != nil {
			return err
		}
	}

	written, size, err := Write(p.Dest, files)
	if err != nil {
		return err
	}

	p.Metrics.ObserveWrite(p.Name, len(written), size)
	logger.Info(fmt.Sprintf("%s: wrote %d %s (%s)", p.Name, len(written), plural(len(written), "file"), humanize.Bytes(uint64(size))))

	if p.Notifier != nil && len(written) > 0 {
		p.Notifier.Notify(written)
	}
	return nil
}

// Read loads matched files into memory.
func Read(matches []fileset.File) ([]*File, error) {
	files := make([]*File, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m.Path)
		if err != nil {
			return nil, errors.New("E300").WithDetail(m.Path).Wrap(err)
		}
		files = append(files, &File{
			Source:   m.Path,
			Path:     m.Rel,
			Contents: data,
			ModTime:  m.ModTime,
		})
	}
	return files, nil
}

// Write stores files under dest and returns the absolute written paths and
// their total size.
func Write(dest string, files []*File) ([]string, int64, error) {
	written := make([]string, 0, len(files))
	var total int64
	for _, f := range files {
		out := filepath.Join(dest, filepath.FromSlash(f.Path))
		if rel, err := filepath.Rel(dest, out); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return written, total, errors.New("E307").WithDetail(fmt.Sprintf("%s escapes %s", f.Path, dest))
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return written, total, errors.New("E307").WithDetail(out).Wrap(err)
		}
		if err := os.WriteFile(out, f.Contents, 0644); err != nil {
			return written, total, errors.New("E307").WithDetail(out).Wrap(err)
		}
		written = append(written, out)
		total += int64(len(f.Contents))
	}
	return written, total, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
