package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/sitepipe/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Dev.Port != DefaultPort {
		t.Errorf("Dev.Port = %d, want %d", cfg.Dev.Port, DefaultPort)
	}
	if cfg.Dev.Open {
		t.Error("Dev.Open should default to false")
	}
	if cfg.Styles.Dest != "dist/assets/css" {
		t.Errorf("Styles.Dest = %q", cfg.Styles.Dest)
	}
	if cfg.Views.Src != "src/index.ejs" || cfg.Views.Dest != "dist" {
		t.Errorf("Views = %+v", cfg.Views.AssetConfig)
	}
	if cfg.Images.Level != 5 {
		t.Errorf("Images.Level = %d, want 5", cfg.Images.Level)
	}
	if cfg.Publish.Remote != "develop" || cfg.Publish.Branch != "master" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NoConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.DistPath() != filepath.Join(dir, "dist") {
		t.Errorf("DistPath() = %q", cfg.DistPath())
	}
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	configJSON := `{
  "dev": {"port": 8080, "host": "0.0.0.0", "hotReload": false},
  "styles": {"minify": false, "browsers": ["chrome100"]},
  "images": {"level": 2},
  "watch": {"delay": "50ms"},
  "publish": {"remote": "origin", "branch": "gh-pages"}
}
`
	if err := os.WriteFile(filepath.Join(dir, JSONFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Dev.Port != 8080 || cfg.Dev.Host != "0.0.0.0" {
		t.Errorf("Dev = %+v", cfg.Dev)
	}
	if cfg.Dev.HotReload {
		t.Error("Dev.HotReload should be false")
	}
	if cfg.Styles.Minify {
		t.Error("Styles.Minify should be false")
	}
	if !cfg.Styles.SourceMaps {
		t.Error("Styles.SourceMaps should keep its default")
	}
	if cfg.Styles.Src != "src/styles/**/*.scss" {
		t.Errorf("Styles.Src = %q, want default", cfg.Styles.Src)
	}
	if cfg.Images.Level != 2 {
		t.Errorf("Images.Level = %d, want 2", cfg.Images.Level)
	}
	if cfg.WatchDelay() != 50*time.Millisecond {
		t.Errorf("WatchDelay() = %v", cfg.WatchDelay())
	}
	if cfg.Publish.Remote != "origin" || cfg.Publish.Branch != "gh-pages" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	if cfg.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), dir)
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	configTOML := `
name = "site"

[dev]
port = 4000

[views]
src = "src/pages/*.ejs"
dest = "dist"

[publish]
target = "s3"

[publish.s3]
bucket = "my-site"
region = "eu-west-1"
`
	if err := os.WriteFile(filepath.Join(dir, TOMLFileName), []byte(configTOML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Name != "site" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Dev.Port != 4000 {
		t.Errorf("Dev.Port = %d", cfg.Dev.Port)
	}
	if cfg.Views.Src != "src/pages/*.ejs" {
		t.Errorf("Views.Src = %q", cfg.Views.Src)
	}
	if cfg.Publish.Target != "s3" || cfg.Publish.S3.Bucket != "my-site" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
}

func TestLoad_ImageLevelZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JSONFileName)
	if err := os.WriteFile(path, []byte(`{"images": {"level": 0}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Images.Level != 0 {
		t.Fatalf("Images.Level = %d, want 0", cfg.Images.Level)
	}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	again, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if again.Images.Level != 0 {
		t.Errorf("Images.Level after save = %d, want 0", again.Images.Level)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JSONFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if !errors.HasCode(err, "E101") {
		t.Errorf("LoadFile error = %v, want E101", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), JSONFileName))
	if !errors.HasCode(err, "E101") {
		t.Errorf("LoadFile error = %v, want E101", err)
	}
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitepipe.yaml")
	if err := os.WriteFile(path, []byte("dev: {}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if !errors.HasCode(err, "E104") {
		t.Errorf("LoadFile error = %v, want E104", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Dev.Port = 70000 }, "E102"},
		{"empty src", func(c *Config) { c.Fonts.Src = "" }, "E102"},
		{"duplicate dest", func(c *Config) { c.Fonts.Dest = "dist/assets/images" }, "E103"},
		{"dest equal after cleaning", func(c *Config) { c.Scripts.Dest = "dist/assets/css/" }, "E103"},
		{"dest outside dist", func(c *Config) { c.Scripts.Dest = "public/js" }, "E102"},
		{"dist is project dir", func(c *Config) { c.Paths.Dist = "." }, "E102"},
		{"dist is parent dir", func(c *Config) { c.Paths.Dist = ".." }, "E102"},
		{"dist is src", func(c *Config) { c.Paths.Dist = c.Paths.Src }, "E102"},
		{"dist inside src", func(c *Config) { c.Paths.Dist = c.Paths.Src + "/out" }, "E102"},
		{"src inside dist", func(c *Config) { c.Paths.Src = "dist/src" }, "E102"},
		{"dist outside project", func(c *Config) {
			out := filepath.Join(filepath.Dir(c.Dir()), "site-out")
			c.Paths.Dist = out
			for _, dest := range []*string{&c.Styles.Dest, &c.Scripts.Dest, &c.Images.Dest, &c.Fonts.Dest, &c.Views.Dest} {
				*dest = filepath.Join(out, strings.TrimPrefix(*dest, "dist/"))
			}
		}, ""},
		{"image level", func(c *Config) { c.Images.Level = 9 }, "E102"},
		{"image quality", func(c *Config) { c.Images.Quality = 101 }, "E102"},
		{"views ext", func(c *Config) { c.Views.Ext = "ejs" }, "E102"},
		{"delims", func(c *Config) { c.Views.Delims = []string{"<%"} }, "E102"},
		{"delay", func(c *Config) { c.Watch.Delay = "soon" }, "E102"},
		{"publish target", func(c *Config) { c.Publish.Target = "ftp" }, "E102"},
		{"s3 without bucket", func(c *Config) { c.Publish.Target = "s3" }, "E102"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.SetDir(t.TempDir())
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.HasCode(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	cats := New().Categories()
	want := []string{CategoryStyles, CategoryScripts, CategoryImages, CategoryFonts, CategoryViews}
	if len(cats) != len(want) {
		t.Fatalf("Categories() = %d entries, want %d", len(cats), len(want))
	}
	for i, name := range want {
		if cats[i].Name != name {
			t.Errorf("Categories()[%d] = %q, want %q", i, cats[i].Name, name)
		}
	}
}

func TestResolve(t *testing.T) {
	cfg := New()
	cfg.SetDir("/project")

	if got := cfg.Resolve("dist/assets"); got != filepath.Join("/project", "dist", "assets") {
		t.Errorf("Resolve(relative) = %q", got)
	}
	if got := cfg.Resolve("/abs/path"); got != "/abs/path" {
		t.Errorf("Resolve(absolute) = %q", got)
	}
	if got := cfg.Resolve(""); got != "" {
		t.Errorf("Resolve(\"\") = %q", got)
	}
}

func TestDevURL(t *testing.T) {
	cfg := New()
	cfg.Dev.Host = "127.0.0.1"
	cfg.Dev.Port = 8081
	if got := cfg.DevURL(); got != "http://127.0.0.1:8081" {
		t.Errorf("DevURL() = %q", got)
	}
}

func TestWatchDelay(t *testing.T) {
	cfg := New()
	if cfg.WatchDelay() != DefaultWatchDelay {
		t.Errorf("WatchDelay() = %v", cfg.WatchDelay())
	}
	cfg.Watch.Delay = "0"
	if cfg.WatchDelay() != 0 {
		t.Errorf("WatchDelay() = %v, want 0", cfg.WatchDelay())
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "styles")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if _, found, err := FindProjectRoot(nested); err != nil || found {
		t.Fatalf("FindProjectRoot without config = found %v, err %v", found, err)
	}

	if err := os.WriteFile(filepath.Join(root, JSONFileName), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	got, found, err := FindProjectRoot(nested)
	if err != nil || !found {
		t.Fatalf("FindProjectRoot = found %v, err %v", found, err)
	}
	if got != root {
		t.Errorf("FindProjectRoot = %q, want %q", got, root)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JSONFileName)

	cfg := New()
	cfg.Name = "roundtrip"
	cfg.Dev.Port = 5000
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Name != "roundtrip" || loaded.Dev.Port != 5000 {
		t.Errorf("loaded = %+v", loaded)
	}
}
