package pipeline

import (
	"context"
	"path"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Stage transforms a batch of files. A stage may drop, add or rewrite files.
type Stage interface {
	Process(ctx context.Context, files []*File) ([]*File, error)
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context, files []*File) ([]*File, error)

// Process calls f(ctx, files).
func (f StageFunc) Process(ctx context.Context, files []*File) ([]*File, error) {
	return f(ctx, files)
}

// FileFunc transforms a single file. Returning a nil file drops it.
type FileFunc func(ctx context.Context, f *File) (*File, error)

// Each returns a stage applying fn to every file concurrently. Output order
// matches input order. The first error cancels the remaining work.
func Each(fn FileFunc) Stage {
	return StageFunc(func(ctx context.Context, files []*File) ([]*File, error) {
		out := make([]*File, len(files))
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, f := range files {
			g.Go(func() error {
				res, err := fn(ctx, f)
				if err != nil {
					return err
				}
				out[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		kept := out[:0]
		for _, f := range out {
			if f != nil {
				kept = append(kept, f)
			}
		}
		return kept, nil
	})
}

// Filter returns a stage keeping only files for which keep returns true.
func Filter(keep func(f *File) bool) Stage {
	return StageFunc(func(_ context.Context, files []*File) ([]*File, error) {
		kept := make([]*File, 0, len(files))
		for _, f := range files {
			if keep(f) {
				kept = append(kept, f)
			}
		}
		return kept, nil
	})
}

// Rename returns a stage replacing the extension from with to.
func Rename(from, to string) Stage {
	return StageFunc(func(_ context.Context, files []*File) ([]*File, error) {
		for _, f := range files {
			f.Path = ReplaceExt(f.Path, from, to)
		}
		return files, nil
	})
}

// ReplaceExt swaps the extension of p when it equals from.
func ReplaceExt(p, from, to string) string {
	if ext := path.Ext(p); ext == from {
		return strings.TrimSuffix(p, ext) + to
	}
	return p
}

// IsPartial reports whether the base name of p starts with an underscore.
func IsPartial(p string) bool {
	return strings.HasPrefix(path.Base(p), "_")
}
