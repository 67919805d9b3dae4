package transform

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/pipeline"
	"github.com/vango-dev/sitepipe/internal/sass"
)

// Sass returns a stage compiling .scss and .sass files to CSS.
// Partials (names starting with "_") are only reachable through imports and
// produce no output of their own.
func Sass(c *sass.Compiler) pipeline.Stage {
	compile := pipeline.Each(func(ctx context.Context, f *pipeline.File) (*pipeline.File, error) {
		ext := path.Ext(f.Path)
		if ext != ".scss" && ext != ".sass" {
			return f, nil
		}
		css, err := c.Compile(ctx, f.Source)
		if err != nil {
			return nil, err
		}
		f.Contents = css
		f.Path = strings.TrimSuffix(f.Path, ext) + ".css"
		return f, nil
	})

	skipPartials := pipeline.Filter(func(f *pipeline.File) bool {
		return !pipeline.IsPartial(f.Path)
	})

	return pipeline.StageFunc(func(ctx context.Context, files []*pipeline.File) ([]*pipeline.File, error) {
		kept, err := skipPartials.Process(ctx, files)
		if err != nil {
			return nil, err
		}
		return compile.Process(ctx, kept)
	})
}

// CSSOptions configures CSS post-processing.
type CSSOptions struct {
	// Browsers are prefix targets such as "chrome58" or "safari11".
	Browsers []string

	// Minify removes whitespace and shortens syntax.
	Minify bool

	// SourceMaps adds a .map file next to every stylesheet.
	SourceMaps bool
}

// CSS returns a stage post-processing stylesheets.
func CSS(opts CSSOptions) (pipeline.Stage, error) {
	engines, err := ParseEngines(opts.Browsers)
	if err != nil {
		return nil, err
	}

	return pipeline.StageFunc(func(_ context.Context, files []*pipeline.File) ([]*pipeline.File, error) {
		out := make([]*pipeline.File, 0, len(files))
		for _, f := range files {
			if path.Ext(f.Path) != ".css" {
				out = append(out, f)
				continue
			}

			to := api.TransformOptions{
				Loader:       api.LoaderCSS,
				Sourcefile:   f.Path,
				Engines:      engines,
				LogLevel:     api.LogLevelSilent,
				MinifySyntax: opts.Minify,

				MinifyWhitespace: opts.Minify,
			}
			if opts.SourceMaps {
				to.Sourcemap = api.SourceMapExternal
			}

			result := api.Transform(string(f.Contents), to)
			if len(result.Errors) > 0 {
				return nil, messageError("E303", "", result.Errors)
			}

			f.Contents = result.Code
			out = append(out, f)

			if opts.SourceMaps && len(result.Map) > 0 {
				mapPath := f.Path + ".map"
				f.Contents = append(f.Contents, []byte(fmt.Sprintf("/*# sourceMappingURL=%s */\n", path.Base(mapPath)))...)
				out = append(out, &pipeline.File{
					Source:   f.Source,
					Path:     mapPath,
					Contents: result.Map,
					ModTime:  f.ModTime,
				})
			}
		}
		return out, nil
	}), nil
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// ParseEngines converts browser targets like "safari11" or "ios12.2" to
// esbuild engines.
func ParseEngines(browsers []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(browsers))
	for _, b := range browsers {
		b = strings.ToLower(strings.TrimSpace(b))
		i := strings.IndexFunc(b, unicode.IsDigit)
		if i <= 0 {
			return nil, errors.New("E102").WithDetail(fmt.Sprintf("styles.browsers: %q needs a name and a version, e.g. \"safari11\"", b))
		}
		name, ok := engineNames[b[:i]]
		if !ok {
			return nil, errors.New("E102").WithDetail(fmt.Sprintf("styles.browsers: unknown browser %q", b[:i]))
		}
		engines = append(engines, api.Engine{Name: name, Version: b[i:]})
	}
	return engines, nil
}

// messageError turns esbuild diagnostics into a coded error located at the
// first message. Relative message paths are resolved against dir.
func messageError(code, dir string, msgs []api.Message) *errors.Error {
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	e := errors.New(code).WithDetail(strings.Join(texts, "\n"))
	if loc := msgs[0].Location; loc != nil {
		file := loc.File
		if dir != "" && !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		// esbuild columns are 0-based.
		e.WithLocation(file, loc.Line, loc.Column+1)
	}
	return e
}
