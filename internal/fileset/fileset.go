// Package fileset resolves source globs to files.
//
// Patterns are relative to the project root and use doublestar syntax
// ("src/styles/**/*.scss", "src/images/**/*.{jpg,png}"). Every match carries
// its path relative to the static prefix of its pattern, so
// "src/styles/**/*.scss" maps "src/styles/pages/home.scss" to
// "pages/home.scss". Pipelines append that relative path to their
// destination directory.
package fileset

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// File is one matched source file.
type File struct {
	// Path is the absolute path of the file.
	Path string

	// Rel is the slash-separated path relative to Base.
	Rel string

	// Base is the absolute static prefix of the pattern that matched.
	Base string

	// ModTime is the modification time of the file.
	ModTime time.Time

	// Size is the file size in bytes.
	Size int64
}

type glob struct {
	pattern string // slash-separated, relative to root
	base    string // static prefix of pattern
	rest    string // pattern relative to base
}

// Set is a list of globs rooted at a directory.
type Set struct {
	root  string
	globs []glob
}

// New creates a Set for the given patterns, rooted at root.
func New(root string, patterns ...string) (*Set, error) {
	s := &Set{root: filepath.Clean(root)}
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if p == "" {
			continue
		}
		if path.IsAbs(p) || filepath.IsAbs(p) {
			return nil, fmt.Errorf("pattern %q must be relative to the project root", p)
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
		base, rest := doublestar.SplitPattern(p)
		s.globs = append(s.globs, glob{pattern: p, base: base, rest: rest})
	}
	return s, nil
}

// Root returns the directory patterns are resolved against.
func (s *Set) Root() string {
	return s.root
}

// Patterns returns the patterns of the set.
func (s *Set) Patterns() []string {
	out := make([]string, len(s.globs))
	for i, g := range s.globs {
		out[i] = g.pattern
	}
	return out
}

// Bases returns the absolute static prefix directory of every pattern.
// The watcher subscribes to these.
func (s *Set) Bases() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range s.globs {
		dir := filepath.Join(s.root, filepath.FromSlash(g.base))
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	return out
}

// Match reports whether the absolute path p is matched by any pattern.
func (s *Set) Match(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range s.globs {
		if ok, _ := doublestar.Match(g.pattern, rel); ok {
			return true
		}
	}
	return false
}

// Files returns the regular files matched by the set, sorted by path.
// When since is non-zero, files not modified after since are left out.
// A pattern whose base directory does not exist matches nothing.
func (s *Set) Files(since time.Time) ([]File, error) {
	seen := make(map[string]bool)
	var files []File

	for _, g := range s.globs {
		baseDir := filepath.Join(s.root, filepath.FromSlash(g.base))
		info, err := os.Stat(baseDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			continue
		}

		fsys := os.DirFS(baseDir)
		matches, err := doublestar.Glob(fsys, g.rest)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", g.pattern, err)
		}
		for _, rel := range matches {
			fi, err := fs.Stat(fsys, rel)
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
			abs := filepath.Join(baseDir, filepath.FromSlash(rel))
			if seen[abs] {
				continue
			}
			f := File{Path: abs, Rel: rel, Base: baseDir, ModTime: fi.ModTime(), Size: fi.Size()}
			if !keep(f, since) {
				continue
			}
			seen[abs] = true
			files = append(files, f)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func keep(f File, since time.Time) bool {
	return since.IsZero() || f.ModTime.After(since)
}
