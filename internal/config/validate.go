package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vango-dev/sitepipe/internal/errors"
)

// Category names.
const (
	CategoryStyles  = "styles"
	CategoryScripts = "scripts"
	CategoryImages  = "images"
	CategoryFonts   = "fonts"
	CategoryViews   = "views"
)

// Category is the source/destination pair of one asset category.
type Category struct {
	Name string
	Src  string
	Dest string
}

// Categories returns the five asset categories in build order.
func (c *Config) Categories() []Category {
	return []Category{
		{Name: CategoryStyles, Src: c.Styles.Src, Dest: c.Styles.Dest},
		{Name: CategoryScripts, Src: c.Scripts.Src, Dest: c.Scripts.Dest},
		{Name: CategoryImages, Src: c.Images.Src, Dest: c.Images.Dest},
		{Name: CategoryFonts, Src: c.Fonts.Src, Dest: c.Fonts.Dest},
		{Name: CategoryViews, Src: c.Views.Src, Dest: c.Views.Dest},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E102").
			WithDetail("dev.port must be between 0 and 65535")
	}
	if strings.TrimSpace(c.Paths.Dist) == "" {
		return errors.New("E102").WithDetail("paths.dist must not be empty")
	}

	dist := filepath.Clean(c.Resolve(c.Paths.Dist))
	if within(filepath.Clean(c.Dir()), dist) {
		return errors.New("E102").
			WithDetail(fmt.Sprintf("paths.dist (%s) must not be the project directory or one of its parents", c.Paths.Dist)).
			WithSuggestion("clean removes paths.dist")
	}
	if strings.TrimSpace(c.Paths.Src) != "" {
		src := filepath.Clean(c.Resolve(c.Paths.Src))
		if within(src, dist) || within(dist, src) {
			return errors.New("E102").
				WithDetail(fmt.Sprintf("paths.dist (%s) and paths.src (%s) must not overlap", c.Paths.Dist, c.Paths.Src)).
				WithSuggestion("clean removes paths.dist")
		}
	}

	seen := make(map[string]string, 5)
	for _, cat := range c.Categories() {
		if strings.TrimSpace(cat.Src) == "" {
			return errors.New("E102").WithDetail(cat.Name + ".src must not be empty")
		}
		if strings.TrimSpace(cat.Dest) == "" {
			return errors.New("E102").WithDetail(cat.Name + ".dest must not be empty")
		}

		dest := filepath.Clean(c.Resolve(cat.Dest))
		if other, ok := seen[dest]; ok {
			return errors.New("E103").
				WithDetail(fmt.Sprintf("%s and %s both write to %s", other, cat.Name, cat.Dest))
		}
		seen[dest] = cat.Name

		if !within(dest, dist) {
			return errors.New("E102").
				WithDetail(fmt.Sprintf("%s.dest (%s) must be inside paths.dist (%s)", cat.Name, cat.Dest, c.Paths.Dist)).
				WithSuggestion("clean only removes paths.dist, so output outside it would go stale")
		}
	}

	if c.Images.Level < 0 || c.Images.Level > 7 {
		return errors.New("E102").WithDetail("images.level must be between 0 and 7")
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return errors.New("E102").WithDetail("images.quality must be between 1 and 100")
	}
	if !strings.HasPrefix(c.Views.Ext, ".") {
		return errors.New("E102").WithDetail(`views.ext must start with "."`)
	}
	if n := len(c.Views.Delims); n != 0 && n != 2 {
		return errors.New("E102").WithDetail("views.delims must hold exactly two entries")
	}
	if _, err := parseDelay(c.Watch.Delay); err != nil {
		return errors.New("E102").
			WithDetail("watch.delay: " + err.Error()).
			WithSuggestion(`Use a duration such as "200ms"`)
	}

	switch c.Publish.Target {
	case "git":
	case "s3":
		if c.Publish.S3.Bucket == "" {
			return errors.New("E102").WithDetail("publish.s3.bucket is required when publish.target is \"s3\"")
		}
	default:
		return errors.New("E102").
			WithDetail(fmt.Sprintf("unknown publish.target %q", c.Publish.Target)).
			WithSuggestion(`Use "git" or "s3"`)
	}

	return nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
