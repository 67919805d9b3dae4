package fileset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func rels(files []File) string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Rel
	}
	return strings.Join(out, ",")
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"src/styles/main.scss",
		"src/styles/pages/home.scss",
		"src/styles/readme.md",
		"src/images/a.png",
		"src/images/b.jpg",
		"src/images/c.gif",
		"src/index.ejs",
	)

	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"recursive", "src/styles/**/*.scss", "main.scss,pages/home.scss"},
		{"braces", "src/images/**/*.{jpg,png}", "a.png,b.jpg"},
		{"literal file", "src/index.ejs", "index.ejs"},
		{"missing base", "src/fonts/**/*.woff", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(root, tt.pattern)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			files, err := s.Files(time.Time{})
			if err != nil {
				t.Fatalf("Files() error = %v", err)
			}
			if got := rels(files); got != tt.want {
				t.Errorf("Files() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilesBaseAndPath(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "src/styles/pages/home.scss")

	s, _ := New(root, "src/styles/**/*.scss")
	files, err := s.Files(time.Time{})
	if err != nil || len(files) != 1 {
		t.Fatalf("Files() = %v, %v", files, err)
	}
	f := files[0]
	if f.Base != filepath.Join(root, "src", "styles") {
		t.Errorf("Base = %q", f.Base)
	}
	if f.Path != filepath.Join(root, "src", "styles", "pages", "home.scss") {
		t.Errorf("Path = %q", f.Path)
	}
}

func TestFilesSince(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "src/images/old.png", "src/images/new.png")

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(root, "src/images/old.png"), old, old); err != nil {
		t.Fatal(err)
	}

	s, _ := New(root, "src/images/*.png")
	files, err := s.Files(time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if got := rels(files); got != "new.png" {
		t.Errorf("Files(since) = %q, want new.png", got)
	}
}

func TestFilesDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "src/scripts/main.js")

	s, _ := New(root, "src/scripts/*.js", "src/scripts/**/*.js")
	files, err := s.Files(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("Files() len = %d, want 1", len(files))
	}
}

func TestMatch(t *testing.T) {
	root := t.TempDir()
	s, _ := New(root, "src/styles/**/*.scss")

	if !s.Match(filepath.Join(root, "src", "styles", "a", "b.scss")) {
		t.Error("Match() = false for nested scss")
	}
	if s.Match(filepath.Join(root, "src", "scripts", "b.scss")) {
		t.Error("Match() = true for file outside base")
	}
	if s.Match(filepath.Join(root, "src", "styles", "b.css")) {
		t.Error("Match() = true for wrong extension")
	}
}

func TestBases(t *testing.T) {
	root := t.TempDir()
	s, _ := New(root, "src/styles/**/*.scss", "src/styles/*.css", "src/index.ejs")
	got := s.Bases()
	want := []string{filepath.Join(root, "src", "styles"), filepath.Join(root, "src")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Bases() = %v, want %v", got, want)
	}
}

func TestNewRejectsBadPatterns(t *testing.T) {
	root := t.TempDir()
	if _, err := New(root, "/abs/**/*.js"); err == nil {
		t.Error("New() with absolute pattern should fail")
	}
	if _, err := New(root, "src/[unterminated"); err == nil {
		t.Error("New() with invalid pattern should fail")
	}
}
