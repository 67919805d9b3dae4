package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/vango-dev/sitepipe/internal/errors"
)

// Config contains template configuration.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// Description is a short project description.
	Description string

	// RemoteURL is written to publish.remoteURL when set.
	RemoteURL string
}

// Template represents a project template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files is a map of relative paths to file contents.
	Files map[string]string
}

var templates = map[string]*Template{
	"basic": basicTemplate(),
	"blank": blankTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.Newf(errors.CategoryCLI, "template %q not found", name).
			WithSuggestion("Available templates: basic, blank")
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create writes the template into dir. It refuses to overwrite existing
// files; nothing is written when any target already exists.
func (t *Template) Create(dir string, cfg Config) error {
	paths := make([]string, 0, len(t.Files))
	for relPath := range t.Files {
		paths = append(paths, relPath)
	}
	sort.Strings(paths)

	for _, relPath := range paths {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(relPath))); err == nil {
			return errors.Newf(errors.CategoryCLI, "%s already exists", relPath).
				WithSuggestion("Run sitepipe init in an empty directory")
		}
	}

	for _, relPath := range paths {
		tmpl, err := template.New(relPath).Delims("[[", "]]").Parse(t.Files[relPath])
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid template %s: %v", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "template execute error %s: %v", relPath, err)
		}

		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(fullPath), err)
		}
		if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("write %s: %w", fullPath, err)
		}
	}

	return nil
}

const configFile = `{
  "name": "[[.ProjectName]]",
  "paths": {
    "src": "src",
    "dist": "dist"
  },
  "dev": {
    "port": 3000,
    "open": false
  },
  "publish": {
    "target": "git",
    "remote": "develop",
[[- if .RemoteURL]]
    "remoteURL": "[[.RemoteURL]]",
[[- end]]
    "branch": "master"
  }
}
`

const gitignore = `dist/
.sitepipe/
node_modules/
`

func basicTemplate() *Template {
	return &Template{
		Name:        "basic",
		Description: "Styles, scripts, images, fonts and a view with a partial",
		Files: map[string]string{
			"sitepipe.json": configFile,
			".gitignore":    gitignore,
			"src/index.ejs": `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>[[.ProjectName]]</title>
  <link rel="stylesheet" href="/assets/css/main.css">
</head>
<body>
  {{ template "partials/_header.ejs" . }}
  <main>
    <p>[[if .Description]][[.Description]][[else]]Edit src/index.ejs to get started.[[end]]</p>
  </main>
  <footer>Built {{ .BuildTime.Format "2006-01-02 15:04" }}</footer>
  <script src="/assets/js/main.js"></script>
</body>
</html>
`,
			"src/partials/_header.ejs": `<header>
  <h1>{{ .Data.title | default "[[.ProjectName]]" }}</h1>
</header>
`,
			"src/styles/main.scss": `@use "variables" as *;

body {
  font-family: $font-stack;
  max-width: 800px;
  margin: 0 auto;
  padding: 2rem;
}

header h1 {
  color: $primary;
  user-select: none;
}
`,
			"src/styles/_variables.scss": `$font-stack: system-ui, sans-serif;
$primary: #2563eb;
`,
			"src/scripts/main.js": `import { ready } from './lib/ready.js'

ready(() => {
  console.log('[[.ProjectName]] loaded')
})
`,
			"src/scripts/lib/ready.js": `export function ready(fn) {
  if (document.readyState !== 'loading') {
    fn()
    return
  }
  document.addEventListener('DOMContentLoaded', fn)
}
`,
			"src/images/.gitkeep": "",
			"src/fonts/.gitkeep":  "",
		},
	}
}

func blankTemplate() *Template {
	return &Template{
		Name:        "blank",
		Description: "A config file and a single view",
		Files: map[string]string{
			"sitepipe.json": configFile,
			".gitignore":    gitignore,
			"src/index.ejs": `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>[[.ProjectName]]</title></head>
<body></body>
</html>
`,
		},
	}
}
