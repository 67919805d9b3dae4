package publish

import (
	"bytes"
	"context"
	sterrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/sitepipe/internal/errors"
)

// CommandRunner runs git with args in dir and returns its output.
type CommandRunner func(ctx context.Context, dir string, args ...string) (string, error)

// CommandError is returned by ExecRunner when git fails.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, out)
}

// Unwrap returns the process error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the git exit status, or -1 when git did not run.
func (e *CommandError) ExitCode() int {
	var exitErr interface{ ExitCode() int }
	if sterrors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExecRunner runs the git executable.
func ExecRunner(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), &CommandError{Args: args, Output: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// GitOptions configures the git target.
type GitOptions struct {
	// Dir is the repository working directory (the project root).
	Dir string

	// Dist is the output directory to stage, absolute or relative to Dir.
	Dist string

	// Remote and Branch are the push destination.
	Remote string
	Branch string

	// RemoteURL adds Remote when it is missing. Empty makes a missing
	// remote an error.
	RemoteURL string

	// Message prefixes the commit message. The timestamp is appended.
	Message string

	// Now returns the commit timestamp. Defaults to time.Now.
	Now func() time.Time

	// Run executes git. Defaults to ExecRunner.
	Run CommandRunner

	Logger *slog.Logger
}

// Git publishes with git.
type Git struct {
	opts GitOptions
}

// NewGit creates a git publisher.
func NewGit(opts GitOptions) *Git {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Run == nil {
		opts.Run = ExecRunner
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Message == "" {
		opts.Message = "Send to production"
	}
	return &Git{opts: opts}
}

// CommitMessage returns the message Commit uses.
func (g *Git) CommitMessage() string {
	return fmt.Sprintf("%s %s", g.opts.Message, g.opts.Now().Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"))
}

func (g *Git) dist() string {
	if !filepath.IsAbs(g.opts.Dist) {
		return filepath.ToSlash(g.opts.Dist)
	}
	if rel, err := filepath.Rel(g.opts.Dir, g.opts.Dist); err == nil {
		return filepath.ToSlash(rel)
	}
	return g.opts.Dist
}

func (g *Git) git(ctx context.Context, args ...string) (string, error) {
	g.opts.Logger.Debug("git", "args", strings.Join(args, " "))
	return g.opts.Run(ctx, g.opts.Dir, args...)
}

// Stage adds every file under the output directory to the index.
func (g *Git) Stage(ctx context.Context) error {
	if _, err := g.git(ctx, "add", "--all", "--", g.dist()); err != nil {
		return errors.New("E401").WithDetail("git add " + g.dist()).Wrap(err)
	}
	return nil
}

// Commit records the staged changes. With nothing staged it logs and
// succeeds, so an unchanged site can still be pushed.
func (g *Git) Commit(ctx context.Context) error {
	_, err := g.git(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		g.opts.Logger.Info("nothing to commit")
		return nil
	}
	if code := exitCode(err); code != 1 {
		return errors.New("E401").WithDetail("git diff --cached").Wrap(err)
	}

	msg := g.CommitMessage()
	if _, err := g.git(ctx, "commit", "-m", msg); err != nil {
		return errors.New("E401").WithDetail("git commit").Wrap(err)
	}
	g.opts.Logger.Info("committed", "message", msg)
	return nil
}

// EnsureRemote checks that the push remote exists, adding it from
// RemoteURL when it does not.
func (g *Git) EnsureRemote(ctx context.Context) error {
	if _, err := g.git(ctx, "remote", "get-url", g.opts.Remote); err == nil {
		return nil
	}
	if g.opts.RemoteURL == "" {
		return errors.New("E403").WithDetail(fmt.Sprintf("No git remote named %q.", g.opts.Remote))
	}
	if _, err := g.git(ctx, "remote", "add", g.opts.Remote, g.opts.RemoteURL); err != nil {
		return errors.New("E401").WithDetail("git remote add " + g.opts.Remote).Wrap(err)
	}
	g.opts.Logger.Info("added remote", "remote", g.opts.Remote, "url", g.opts.RemoteURL)
	return nil
}

// Push sends Branch to Remote.
func (g *Git) Push(ctx context.Context) error {
	if err := g.EnsureRemote(ctx); err != nil {
		return err
	}
	if _, err := g.git(ctx, "push", g.opts.Remote, g.opts.Branch); err != nil {
		return errors.New("E402").
			WithDetail(fmt.Sprintf("git push %s %s", g.opts.Remote, g.opts.Branch)).
			Wrap(err)
	}
	g.opts.Logger.Info("pushed", "remote", g.opts.Remote, "branch", g.opts.Branch)
	return nil
}

func exitCode(err error) int {
	var exitErr interface{ ExitCode() int }
	if sterrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
