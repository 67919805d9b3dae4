package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/logging"
)

type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

// fakeGit records invocations and answers from a table keyed by the first
// two arguments.
type fakeGit struct {
	calls   []string
	answers map[string]error
}

func (f *fakeGit) run(_ context.Context, dir string, args ...string) (string, error) {
	line := strings.Join(args, " ")
	f.calls = append(f.calls, line)
	for prefix, err := range f.answers {
		if strings.HasPrefix(line, prefix) {
			return "", err
		}
	}
	return "", nil
}

func newTestGit(f *fakeGit, remoteURL string) *Git {
	return NewGit(GitOptions{
		Dir:       "/project",
		Dist:      "/project/dist",
		Remote:    "develop",
		Branch:    "master",
		RemoteURL: remoteURL,
		Now:       func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) },
		Run:       f.run,
		Logger:    logging.Discard(),
	})
}

func TestGitStage(t *testing.T) {
	f := &fakeGit{}
	g := newTestGit(f, "")

	if err := g.Stage(context.Background()); err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if len(f.calls) != 1 || f.calls[0] != "add --all -- dist" {
		t.Errorf("calls = %v", f.calls)
	}
}

func TestGitStageFailure(t *testing.T) {
	f := &fakeGit{answers: map[string]error{"add": exitError(128)}}
	err := newTestGit(f, "").Stage(context.Background())
	if !errors.HasCode(err, "E401") {
		t.Fatalf("Stage() error = %v, want E401", err)
	}
}

func TestGitCommit(t *testing.T) {
	tests := []struct {
		name       string
		diff       error
		wantCommit bool
		wantCode   string
	}{
		{name: "staged changes", diff: exitError(1), wantCommit: true},
		{name: "nothing staged", diff: nil},
		{name: "diff fails", diff: exitError(128), wantCode: "E401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGit{answers: map[string]error{}}
			if tt.diff != nil {
				f.answers["diff --cached"] = tt.diff
			}
			err := newTestGit(f, "").Commit(context.Background())

			if tt.wantCode != "" {
				if !errors.HasCode(err, tt.wantCode) {
					t.Fatalf("Commit() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Commit() error = %v", err)
			}

			committed := false
			for _, c := range f.calls {
				if strings.HasPrefix(c, "commit -m Send to production ") {
					committed = true
				}
			}
			if committed != tt.wantCommit {
				t.Errorf("committed = %v, want %v (calls %v)", committed, tt.wantCommit, f.calls)
			}
		})
	}
}

func TestCommitMessage(t *testing.T) {
	g := newTestGit(&fakeGit{}, "")
	msg := g.CommitMessage()
	if !strings.HasPrefix(msg, "Send to production Sat Mar 09 2024 14:05:00") {
		t.Errorf("CommitMessage() = %q", msg)
	}
}

func TestGitPush(t *testing.T) {
	f := &fakeGit{}
	if err := newTestGit(f, "").Push(context.Background()); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	want := []string{"remote get-url develop", "push develop master"}
	if strings.Join(f.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", f.calls, want)
	}
}

func TestGitPushUnreachable(t *testing.T) {
	f := &fakeGit{answers: map[string]error{"push": exitError(128)}}
	err := newTestGit(f, "").Push(context.Background())
	if !errors.HasCode(err, "E402") {
		t.Fatalf("Push() error = %v, want E402", err)
	}
}

func TestEnsureRemote(t *testing.T) {
	t.Run("adds missing remote", func(t *testing.T) {
		f := &fakeGit{answers: map[string]error{"remote get-url": exitError(2)}}
		g := newTestGit(f, "git@example.com:site.git")
		if err := g.EnsureRemote(context.Background()); err != nil {
			t.Fatalf("EnsureRemote() error = %v", err)
		}
		if f.calls[len(f.calls)-1] != "remote add develop git@example.com:site.git" {
			t.Errorf("calls = %v", f.calls)
		}
	})

	t.Run("missing remote without url", func(t *testing.T) {
		f := &fakeGit{answers: map[string]error{"remote get-url": exitError(2)}}
		err := newTestGit(f, "").Push(context.Background())
		if !errors.HasCode(err, "E403") {
			t.Fatalf("Push() error = %v, want E403", err)
		}
		for _, c := range f.calls {
			if strings.HasPrefix(c, "push") {
				t.Errorf("push ran without a remote")
			}
		}
	})
}

func TestCommandErrorExitCode(t *testing.T) {
	err := &CommandError{Args: []string{"push"}, Output: "fatal: unreachable\n", Err: exitError(128)}
	if err.ExitCode() != 128 {
		t.Errorf("ExitCode() = %d", err.ExitCode())
	}
	if !strings.Contains(err.Error(), "fatal: unreachable") {
		t.Errorf("Error() = %q", err.Error())
	}
}

type fakePutter struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	fail    string
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if *in.Key == f.fail {
		return nil, fmt.Errorf("access denied")
	}
	data, _ := io.ReadAll(in.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = string(data)
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func writeDist(t *testing.T) string {
	t.Helper()
	dist := t.TempDir()
	files := map[string]string{
		"index.html":           "<html></html>",
		"assets/css/main.css":  "body{}",
		"assets/js/app.js":     "1",
		"assets/fonts/a.woff2": "font",
	}
	for rel, content := range files {
		p := filepath.Join(dist, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dist
}

func TestS3Upload(t *testing.T) {
	dist := writeDist(t)
	p := &fakePutter{objects: map[string]string{}, types: map[string]string{}}
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &logs})
	if err != nil {
		t.Fatal(err)
	}
	m := NewS3(S3Options{Dist: dist, Bucket: "site", Prefix: "www", Client: p, Logger: logger})

	if err := m.Upload(context.Background()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	var keys []string
	for k := range p.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := []string{"www/assets/css/main.css", "www/assets/fonts/a.woff2", "www/assets/js/app.js", "www/index.html"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("keys = %v, want %v", keys, want)
	}
	if p.objects["www/index.html"] != "<html></html>" {
		t.Errorf("index body = %q", p.objects["www/index.html"])
	}
	if !strings.HasPrefix(p.types["www/index.html"], "text/html") {
		t.Errorf("index content type = %q", p.types["www/index.html"])
	}
	if !strings.HasPrefix(p.types["www/assets/css/main.css"], "text/css") {
		t.Errorf("css content type = %q", p.types["www/assets/css/main.css"])
	}
	if !strings.Contains(logs.String(), "uploaded 4 files") {
		t.Errorf("log = %q", logs.String())
	}
}

func TestS3UploadFailure(t *testing.T) {
	dist := writeDist(t)
	p := &fakePutter{objects: map[string]string{}, types: map[string]string{}, fail: "assets/js/app.js"}
	m := NewS3(S3Options{Dist: dist, Bucket: "site", Client: p, Logger: logging.Discard()})

	err := m.Upload(context.Background())
	if !errors.HasCode(err, "E404") {
		t.Fatalf("Upload() error = %v, want E404", err)
	}
}

func TestS3Key(t *testing.T) {
	tests := []struct {
		prefix, rel, want string
	}{
		{"", "index.html", "index.html"},
		{"www", "index.html", "www/index.html"},
		{"www/", "a/b.css", "www/a/b.css"},
	}
	for _, tt := range tests {
		m := NewS3(S3Options{Prefix: tt.prefix})
		if got := m.Key(tt.rel); got != tt.want {
			t.Errorf("Key(%q) with prefix %q = %q, want %q", tt.rel, tt.prefix, got, tt.want)
		}
	}
}
