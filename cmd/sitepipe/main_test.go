package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/sitepipe/internal/config"
	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/task"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"sitepipe.json":       `{"name": "demo", "log": {"level": "error"}}`,
		"src/fonts/a.woff2":   "font",
		"src/index.ejs":       "<p>{{ .Path }}</p>",
		"src/scripts/main.js": "console.log(1)\n",
	}
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := writeProject(t)
	cfgPath := filepath.Join(dir, "sitepipe.json")

	if _, err := execute(t, "--config", cfgPath, "run", "fonts", "views"); err != nil {
		t.Fatalf("run error = %v", err)
	}
	for _, rel := range []string{"dist/assets/fonts/a.woff2", "dist/index.html"} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("missing %s", rel)
		}
	}
}

func TestRunUnknownTask(t *testing.T) {
	dir := writeProject(t)
	_, err := execute(t, "--config", filepath.Join(dir, "sitepipe.json"), "run", "deploy")
	if !errors.HasCode(err, "E201") {
		t.Fatalf("run error = %v, want E201", err)
	}
}

func TestTasksCommand(t *testing.T) {
	dir := writeProject(t)
	out, err := execute(t, "--config", filepath.Join(dir, "sitepipe.json"), "tasks")
	if err != nil {
		t.Fatalf("tasks error = %v", err)
	}
	for _, want := range []string{"build", "series(clean, parallel(styles, scripts, images, fonts, views))", "publish:push", "production"} {
		if !strings.Contains(out, want) {
			t.Errorf("tasks output missing %q:\n%s", want, out)
		}
	}
}

func TestLockProject(t *testing.T) {
	cfg := config.New()
	cfg.SetDir(t.TempDir())

	release, err := lockProject(cfg)
	if err != nil {
		t.Fatalf("lockProject() error = %v", err)
	}

	if _, err := lockProject(cfg); !errors.HasCode(err, "E203") {
		t.Fatalf("second lockProject() error = %v, want E203", err)
	}

	release()
	again, err := lockProject(cfg)
	if err != nil {
		t.Fatalf("lockProject() after release error = %v", err)
	}
	again()
}

func TestSummaryTable(t *testing.T) {
	out := summaryTable([]task.Result{
		{Task: "clean", Duration: 3 * time.Millisecond},
		{Task: "styles", Duration: 120 * time.Millisecond, Err: os.ErrNotExist},
	})
	for _, want := range []string{"clean", "3ms", "styles", "failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	if _, err := execute(t, "init", dir, "--template", "blank"); err != nil {
		t.Fatalf("init error = %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "site" {
		t.Errorf("Name = %q, want site", cfg.Name)
	}

	if _, err := execute(t, "init", dir); err == nil {
		t.Error("init over an existing project should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("binary name differs on windows")
	}
	dir := writeProject(t)
	bin := filepath.Join(dir, "node_modules", ".bin", "sass")
	if err := os.MkdirAll(filepath.Dir(bin), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "sitepipe.json")

	out, err := execute(t, "--config", cfgPath, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	for _, want := range []string{"Version:    " + version, "Config:     " + cfgPath, "Sass:       " + bin} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, want %q", out, version)
	}
}
