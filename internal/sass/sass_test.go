package sass

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/vango-dev/sitepipe/internal/errors"
)

// fakeSass writes a shell script standing in for dart-sass. It prints the
// last argument's contents, or fails when the file contains "$undefined".
func fakeSass(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	script := `#!/bin/sh
for a; do last="$a"; done
if grep -q 'undefined' "$last"; then
  echo "Error: Undefined variable." >&2
  echo "  src/main.scss 2:10  root stylesheet" >&2
  exit 65
fi
cat "$last"
`
	path := filepath.Join(dir, "fake-sass")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompile(t *testing.T) {
	dir := t.TempDir()
	bin := fakeSass(t, dir)
	src := filepath.Join(dir, "main.scss")
	if err := os.WriteFile(src, []byte("a { color: red; }\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(bin, dir, []string{"vendor"})
	css, err := c.Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !strings.Contains(string(css), "color: red") {
		t.Errorf("Compile() = %q", css)
	}
}

func TestCompileError(t *testing.T) {
	dir := t.TempDir()
	bin := fakeSass(t, dir)
	src := filepath.Join(dir, "main.scss")
	if err := os.WriteFile(src, []byte("a {\n  color: $undefined;\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(bin, dir, nil).Compile(context.Background(), src)
	if !errors.HasCode(err, "E301") {
		t.Fatalf("Compile() error = %v, want E301", err)
	}
	se := errors.FromError(err, "E301")
	if se.Location == nil || se.Location.Line != 2 || se.Location.Column != 10 {
		t.Errorf("Location = %+v, want line 2 col 10", se.Location)
	}
	if se.Detail != "Undefined variable." {
		t.Errorf("Detail = %q", se.Detail)
	}
}

func TestPathNotFound(t *testing.T) {
	dir := t.TempDir()
	c := New(filepath.Join(dir, "missing", "sass"), dir, nil)
	_, err := c.Path()
	if !errors.HasCode(err, "E302") {
		t.Errorf("Path() error = %v, want E302", err)
	}
}

func TestPathPrefersNodeModules(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("binary name differs on windows")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "node_modules", ".bin", "sass")
	if err := os.MkdirAll(filepath.Dir(bin), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := New("", dir, nil).Path()
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if got != bin {
		t.Errorf("Path() = %q, want %q", got, bin)
	}
}

func TestParseError(t *testing.T) {
	stderr := `Error: expected "{".
  ╷
3 │ a b c
  │      ^
  ╵
  src/styles/main.scss 3:6  root stylesheet`

	e := ParseError(stderr, "/proj")
	if e.Code != "E301" {
		t.Errorf("Code = %q", e.Code)
	}
	if e.Detail != `expected "{".` {
		t.Errorf("Detail = %q", e.Detail)
	}
	if e.Location == nil || e.Location.File != filepath.Join("/proj", "src/styles/main.scss") || e.Location.Line != 3 {
		t.Errorf("Location = %+v", e.Location)
	}
}

func TestCompileSourceMapFlags(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "echo-sass")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\necho \"$@\"\n"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		maps bool
		want string
		not  string
	}{
		{maps: false, want: "--no-source-map", not: "--embed-source-map"},
		{maps: true, want: "--embed-source-map --style=expanded --no-color --embed-sources", not: "--no-source-map"},
	}
	for _, tt := range tests {
		c := New(bin, dir, nil)
		c.SourceMaps = tt.maps
		out, err := c.Compile(context.Background(), "main.scss")
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		args := string(out)
		if !strings.Contains(args, tt.want) || strings.Contains(args, tt.not) {
			t.Errorf("SourceMaps=%v: args = %q", tt.maps, args)
		}
	}
}
