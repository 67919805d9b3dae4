// Package sass drives the dart-sass executable.
// It locates the binary and compiles one stylesheet at a time, translating
// compiler diagnostics into coded errors with a source location.
package sass

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/vango-dev/sitepipe/internal/errors"
)

// DefaultBinary is the executable name looked up in PATH.
const DefaultBinary = "sass"

// Compiler compiles Sass sources with the dart-sass CLI.
type Compiler struct {
	// Binary is the configured executable path. Empty means "sass" from
	// node_modules/.bin or PATH.
	Binary string

	// ProjectDir is the working directory of the compiler.
	ProjectDir string

	// LoadPaths are passed as --load-path.
	LoadPaths []string

	// SourceMaps embeds a source map with the Sass sources in the output,
	// so later stages can map back to the .scss files.
	SourceMaps bool

	// path is the cached resolved executable.
	path string
	mu   sync.Mutex
}

// New creates a new compiler.
func New(binary, projectDir string, loadPaths []string) *Compiler {
	return &Compiler{
		Binary:     binary,
		ProjectDir: projectDir,
		LoadPaths:  loadPaths,
	}
}

// Path returns the resolved executable, looking it up on first use.
func (c *Compiler) Path() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path != "" {
		return c.path, nil
	}

	for _, candidate := range c.candidates() {
		if candidate == "" {
			continue
		}
		if filepath.IsAbs(candidate) || strings.ContainsRune(candidate, filepath.Separator) {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				c.path = candidate
				return candidate, nil
			}
			continue
		}
		if p, err := exec.LookPath(candidate); err == nil {
			c.path = p
			return p, nil
		}
	}

	detail := "Looked for " + strings.Join(c.candidates(), ", ")
	return "", errors.New("E302").WithDetail(detail)
}

func (c *Compiler) candidates() []string {
	if c.Binary != "" {
		bin := c.Binary
		if !filepath.IsAbs(bin) && strings.ContainsRune(filepath.ToSlash(bin), '/') {
			bin = filepath.Join(c.ProjectDir, bin)
		}
		return []string{bin}
	}
	return []string{
		filepath.Join(c.ProjectDir, "node_modules", ".bin", binaryName()),
		binaryName(),
	}
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return DefaultBinary + ".bat"
	}
	return DefaultBinary
}

// Compile compiles the stylesheet at source and returns the CSS.
func (c *Compiler) Compile(ctx context.Context, source string) ([]byte, error) {
	path, err := c.Path()
	if err != nil {
		return nil, err
	}

	args := []string{"--no-source-map", "--style=expanded", "--no-color"}
	if c.SourceMaps {
		args[0] = "--embed-source-map"
		args = append(args, "--embed-sources")
	}
	for _, lp := range c.LoadPaths {
		if !filepath.IsAbs(lp) {
			lp = filepath.Join(c.ProjectDir, lp)
		}
		args = append(args, "--load-path="+lp)
	}
	args = append(args, source)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = c.ProjectDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ParseError(stderr.String(), c.ProjectDir).Wrap(err)
	}
	return stdout.Bytes(), nil
}

// traceLine matches the stack frame dart-sass prints under a diagnostic:
//
//	src/styles/main.scss 3:10  root stylesheet
var traceLine = regexp.MustCompile(`^\s*(\S+)\s+(\d+):(\d+)\s`)

// ParseError converts dart-sass stderr output into an E301 error.
func ParseError(stderr, projectDir string) *errors.Error {
	e := errors.New("E301")

	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for _, line := range lines {
		if msg, ok := strings.CutPrefix(strings.TrimSpace(line), "Error: "); ok {
			e.Detail = msg
			break
		}
	}
	if e.Detail == "" && len(lines) > 0 {
		e.Detail = strings.TrimSpace(lines[0])
	}

	for _, line := range lines {
		m := traceLine.FindStringSubmatch(line + " ")
		if m == nil {
			continue
		}
		file := m[1]
		if !filepath.IsAbs(file) && projectDir != "" {
			file = filepath.Join(projectDir, file)
		}
		ln, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		e.WithLocation(file, ln, col)
		break
	}
	return e
}
