package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/pipeline"
)

// BundleOptions configures script bundling.
type BundleOptions struct {
	// Dir is the working directory imports of bare modules resolve from.
	Dir string

	Format     string
	Platform   string
	Target     string
	Minify     bool
	SourceMaps bool
	External   []string
	Define     map[string]string
}

// Bundle returns a stage treating every file as an entry point and
// replacing the batch with the bundles.
func Bundle(opts BundleOptions) (pipeline.Stage, error) {
	format, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	platform, err := parsePlatform(opts.Platform)
	if err != nil {
		return nil, err
	}
	target, err := parseTarget(opts.Target)
	if err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	// Bundles are kept in memory. outdir only anchors their output paths.
	outdir := filepath.Join(dir, ".sitepipe", "bundle")

	return pipeline.StageFunc(func(_ context.Context, files []*pipeline.File) ([]*pipeline.File, error) {
		if len(files) == 0 {
			return files, nil
		}

		entries := make([]string, len(files))
		for i, f := range files {
			entries[i] = f.Source
		}
		base := sourceBase(files[0])

		bo := api.BuildOptions{
			EntryPoints:   entries,
			Bundle:        true,
			Write:         false,
			Outdir:        outdir,
			Outbase:       base,
			AbsWorkingDir: dir,
			Format:        format,
			Platform:      platform,
			Target:        target,
			External:      opts.External,
			Define:        opts.Define,
			LogLevel:      api.LogLevelSilent,

			MinifyWhitespace:  opts.Minify,
			MinifyIdentifiers: opts.Minify,
			MinifySyntax:      opts.Minify,
		}
		if opts.SourceMaps {
			bo.Sourcemap = api.SourceMapLinked
		}

		result := api.Build(bo)
		if len(result.Errors) > 0 {
			return nil, messageError("E304", dir, result.Errors)
		}

		out := make([]*pipeline.File, 0, len(result.OutputFiles))
		for _, of := range result.OutputFiles {
			rel, err := filepath.Rel(outdir, of.Path)
			if err != nil {
				return nil, errors.New("E304").Wrap(err)
			}
			out = append(out, &pipeline.File{
				Source:   of.Path,
				Path:     filepath.ToSlash(rel),
				Contents: of.Contents,
				ModTime:  files[0].ModTime,
			})
		}
		return out, nil
	}), nil
}

// sourceBase recovers the directory f.Path is relative to.
func sourceBase(f *pipeline.File) string {
	src := filepath.ToSlash(f.Source)
	return filepath.FromSlash(strings.TrimSuffix(strings.TrimSuffix(src, f.Path), "/"))
}

func parseFormat(s string) (api.Format, error) {
	switch strings.ToLower(s) {
	case "", "iife":
		return api.FormatIIFE, nil
	case "cjs", "commonjs":
		return api.FormatCommonJS, nil
	case "esm":
		return api.FormatESModule, nil
	}
	return api.FormatDefault, errors.New("E102").WithDetail(fmt.Sprintf("scripts.bundle.format: unknown format %q", s))
}

func parsePlatform(s string) (api.Platform, error) {
	switch strings.ToLower(s) {
	case "", "browser":
		return api.PlatformBrowser, nil
	case "node":
		return api.PlatformNode, nil
	case "neutral":
		return api.PlatformNeutral, nil
	}
	return api.PlatformBrowser, errors.New("E102").WithDetail(fmt.Sprintf("scripts.bundle.platform: unknown platform %q", s))
}

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"esnext": api.ESNext,
}

func parseTarget(s string) (api.Target, error) {
	if s == "" {
		return api.ES2017, nil
	}
	if t, ok := targets[strings.ToLower(s)]; ok {
		return t, nil
	}
	return api.DefaultTarget, errors.New("E102").WithDetail(fmt.Sprintf("scripts.bundle.target: unknown target %q", s))
}
