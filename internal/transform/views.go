package transform

import (
	"bytes"
	"context"
	"html/template"
	"regexp"
	"strconv"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/fileset"
	"github.com/vango-dev/sitepipe/internal/pipeline"
)

// ViewOptions configures view rendering.
type ViewOptions struct {
	// Partials are parsed into every view under their path relative to the
	// partials base, e.g. {{template "partials/_header.ejs" .}}.
	Partials *fileset.Set

	// Delims overrides the action delimiters. Empty keeps {{ and }}.
	Delims []string

	// Data is exposed to templates as .Data.
	Data map[string]any

	// Ext is the view extension replaced by .html in the output path.
	Ext string

	// Now returns the build time exposed as .BuildTime. Defaults to time.Now.
	Now func() time.Time
}

// ViewData is the value every view is executed with.
type ViewData struct {
	// Path is the output path of the view.
	Path string

	// Data is the configured views.data map.
	Data map[string]any

	// BuildTime is when the views were rendered.
	BuildTime time.Time
}

// Views returns a stage rendering every file as an HTML template. Partials
// are read again on every run so edits to them show up in the next build.
func Views(opts ViewOptions) pipeline.Stage {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return pipeline.StageFunc(func(_ context.Context, files []*pipeline.File) ([]*pipeline.File, error) {
		views := make(map[string]bool, len(files))
		for _, f := range files {
			views[f.Source] = true
		}

		set, err := parsePartials(opts, views)
		if err != nil {
			return nil, err
		}

		data := ViewData{Data: opts.Data, BuildTime: now()}
		out := make([]*pipeline.File, 0, len(files))
		for _, f := range files {
			if pipeline.IsPartial(f.Path) {
				continue
			}
			t, err := set.Clone()
			if err != nil {
				return nil, errors.New("E306").Wrap(err)
			}
			if _, err := t.New(f.Path).Parse(string(f.Contents)); err != nil {
				return nil, templateError(err, f.Source)
			}

			var buf bytes.Buffer
			data.Path = f.Path
			if opts.Ext != "" {
				data.Path = pipeline.ReplaceExt(f.Path, opts.Ext, ".html")
			}
			if err := t.ExecuteTemplate(&buf, f.Path, data); err != nil {
				return nil, templateError(err, f.Source)
			}
			f.Contents = buf.Bytes()
			out = append(out, f)
		}
		return out, nil
	})
}

func parsePartials(opts ViewOptions, views map[string]bool) (*template.Template, error) {
	set := template.New("").Funcs(sprig.HtmlFuncMap())
	if len(opts.Delims) == 2 {
		set.Delims(opts.Delims[0], opts.Delims[1])
	}
	if opts.Partials == nil {
		return set, nil
	}

	matches, err := opts.Partials.Files(time.Time{})
	if err != nil {
		return nil, errors.New("E300").Wrap(err)
	}
	partials, err := pipeline.Read(matches)
	if err != nil {
		return nil, err
	}
	for _, p := range partials {
		if views[p.Source] {
			continue
		}
		if _, err := set.New(p.Path).Parse(string(p.Contents)); err != nil {
			return nil, templateError(err, p.Source)
		}
	}
	return set, nil
}

// templatePos matches the "name:line:col:" position html/template puts in
// its error messages.
var templatePos = regexp.MustCompile(`template: [^:]+:(\d+)(?::(\d+))?:`)

func templateError(err error, source string) *errors.Error {
	e := errors.New("E306").WithDetail(err.Error())
	if m := templatePos.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		e.WithLocation(source, line, col)
	}
	return e
}
