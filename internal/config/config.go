package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vango-dev/sitepipe/internal/errors"
)

const (
	// JSONFileName is the name of the JSON configuration file.
	JSONFileName = "sitepipe.json"

	// TOMLFileName is the name of the TOML configuration file.
	TOMLFileName = "sitepipe.toml"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultWatchDelay is the default per-binding watch delay.
	DefaultWatchDelay = 200 * time.Millisecond
)

// Config represents the complete sitepipe configuration.
type Config struct {
	// Name is the project name, used in log output and the scaffold.
	Name string `json:"name,omitempty" toml:"name,omitempty"`

	// Paths holds the source and output roots.
	Paths PathsConfig `json:"paths" toml:"paths"`

	Styles  StylesConfig  `json:"styles" toml:"styles"`
	Scripts ScriptsConfig `json:"scripts" toml:"scripts"`
	Images  ImagesConfig  `json:"images" toml:"images"`
	Fonts   AssetConfig   `json:"fonts" toml:"fonts"`
	Views   ViewsConfig   `json:"views" toml:"views"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev" toml:"dev"`

	// Watch contains file watcher configuration.
	Watch WatchConfig `json:"watch" toml:"watch"`

	// Publish contains release configuration.
	Publish PublishConfig `json:"publish" toml:"publish"`

	// Log contains logger configuration.
	Log LogConfig `json:"log" toml:"log"`

	// root is the project directory every relative path is resolved against.
	root string

	// configPath stores the path where the config was loaded from.
	configPath string
}

// PathsConfig contains the project roots.
type PathsConfig struct {
	// Src is the source tree root.
	Src string `json:"src,omitempty" toml:"src,omitempty"`

	// Dist is the output tree root. clean removes it and the dev server serves it.
	Dist string `json:"dist,omitempty" toml:"dist,omitempty"`
}

// AssetConfig is the part every asset category shares.
type AssetConfig struct {
	// Src is the source glob, relative to the project root.
	Src string `json:"src,omitempty" toml:"src,omitempty"`

	// Dest is the destination directory, relative to the project root.
	Dest string `json:"dest,omitempty" toml:"dest,omitempty"`
}

// StylesConfig configures the styles category.
type StylesConfig struct {
	AssetConfig

	// Sass is the path to the dart-sass executable. Empty means "sass" in PATH.
	Sass string `json:"sass,omitempty" toml:"sass,omitempty"`

	// LoadPaths are extra Sass load paths.
	LoadPaths []string `json:"loadPaths,omitempty" toml:"loadPaths,omitempty"`

	// Browsers are the browser targets vendor prefixes are generated for
	// (e.g., "chrome58", "safari11").
	Browsers []string `json:"browsers,omitempty" toml:"browsers,omitempty"`

	// Minify enables CSS minification.
	Minify bool `json:"minify" toml:"minify"`

	// SourceMaps writes a .map file next to every stylesheet.
	SourceMaps bool `json:"sourceMaps" toml:"sourceMaps"`
}

// ScriptsConfig configures the scripts category.
type ScriptsConfig struct {
	AssetConfig

	// Entries restricts bundling to these entry points. Empty means every
	// file matched by Src is an entry point.
	Entries []string `json:"entries,omitempty" toml:"entries,omitempty"`

	// Bundle holds the bundler options.
	Bundle BundleConfig `json:"bundle" toml:"bundle"`
}

// BundleConfig holds options handed to the module bundler.
type BundleConfig struct {
	// Format is the output module format: iife, cjs or esm.
	Format string `json:"format,omitempty" toml:"format,omitempty"`

	// Platform is browser, node or neutral.
	Platform string `json:"platform,omitempty" toml:"platform,omitempty"`

	// Target is the language target (e.g., "es2017").
	Target string `json:"target,omitempty" toml:"target,omitempty"`

	// Minify enables minification of the bundle.
	Minify bool `json:"minify,omitempty" toml:"minify,omitempty"`

	// SourceMaps writes a .map file next to every bundle.
	SourceMaps bool `json:"sourceMaps,omitempty" toml:"sourceMaps,omitempty"`

	// External lists module paths left out of the bundle.
	External []string `json:"external,omitempty" toml:"external,omitempty"`

	// Define replaces global identifiers with constant expressions.
	Define map[string]string `json:"define,omitempty" toml:"define,omitempty"`
}

// ImagesConfig configures the images category.
type ImagesConfig struct {
	AssetConfig

	// Level is the lossless optimization level (0-7) used for PNG files.
	// Zero leaves PNGs untouched.
	Level int `json:"level" toml:"level"`

	// Quality is the JPEG re-encoding quality (1-100).
	Quality int `json:"quality,omitempty" toml:"quality,omitempty"`
}

// ViewsConfig configures the views category.
type ViewsConfig struct {
	AssetConfig

	// Partials is a glob of templates parsed alongside every view so views
	// can include them with {{template "partials/header.ejs" .}}.
	Partials string `json:"partials,omitempty" toml:"partials,omitempty"`

	// Ext is the template extension that is replaced with ".html".
	Ext string `json:"ext,omitempty" toml:"ext,omitempty"`

	// Delims overrides the template action delimiters ({{ and }}).
	Delims []string `json:"delims,omitempty" toml:"delims,omitempty"`

	// Data is passed to every view as .Data.
	Data map[string]any `json:"data,omitempty" toml:"data,omitempty"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty" toml:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" toml:"host,omitempty"`

	// Open opens the browser on start. Disabled by default.
	Open bool `json:"open,omitempty" toml:"open,omitempty"`

	// HotReload injects the reload client and pushes change notifications.
	HotReload bool `json:"hotReload" toml:"hotReload"`
}

// WatchConfig contains file watcher settings.
type WatchConfig struct {
	// Delay is how long a binding waits for further events before it fires
	// (e.g., "200ms"). "0" fires on every event.
	Delay string `json:"delay,omitempty" toml:"delay,omitempty"`

	// Reload are output globs that only trigger a browser reload.
	Reload []string `json:"reload,omitempty" toml:"reload,omitempty"`

	// Ignore contains patterns skipped by the watcher.
	Ignore []string `json:"ignore,omitempty" toml:"ignore,omitempty"`
}

// PublishConfig contains release settings.
type PublishConfig struct {
	// Target is "git" (default) or "s3".
	Target string `json:"target,omitempty" toml:"target,omitempty"`

	// Remote is the git remote to push to.
	Remote string `json:"remote,omitempty" toml:"remote,omitempty"`

	// RemoteURL is used to add Remote when it does not exist yet.
	RemoteURL string `json:"remoteURL,omitempty" toml:"remoteURL,omitempty"`

	// Branch is the branch to push.
	Branch string `json:"branch,omitempty" toml:"branch,omitempty"`

	// Message is the commit message prefix. The current timestamp is appended.
	Message string `json:"message,omitempty" toml:"message,omitempty"`

	// S3 configures the object storage target.
	S3 S3Config `json:"s3" toml:"s3"`
}

// S3Config configures mirroring dist/ into a bucket.
type S3Config struct {
	Bucket string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" toml:"prefix,omitempty"`
	Region string `json:"region,omitempty" toml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `json:"level,omitempty" toml:"level,omitempty"`
	Format string `json:"format,omitempty" toml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Paths: PathsConfig{
			Src:  "src",
			Dist: "dist",
		},
		Styles: StylesConfig{
			AssetConfig: AssetConfig{Src: "src/styles/**/*.scss", Dest: "dist/assets/css"},
			Browsers:    []string{"chrome58", "firefox57", "safari11", "edge16"},
			Minify:      true,
			SourceMaps:  true,
		},
		Scripts: ScriptsConfig{
			AssetConfig: AssetConfig{Src: "src/scripts/**/*.js", Dest: "dist/assets/js"},
			Bundle: BundleConfig{
				Format:   "iife",
				Platform: "browser",
				Target:   "es2017",
			},
		},
		Images: ImagesConfig{
			AssetConfig: AssetConfig{Src: "src/images/**/*.{jpg,jpeg,png}", Dest: "dist/assets/images"},
			Level:       5,
			Quality:     80,
		},
		Fonts: AssetConfig{
			Src:  "src/fonts/**/*.{eot,svg,ttf,woff,woff2}",
			Dest: "dist/assets/fonts",
		},
		Views: ViewsConfig{
			AssetConfig: AssetConfig{Src: "src/index.ejs", Dest: "dist"},
			Partials:    "src/**/*.ejs",
			Ext:         ".ejs",
		},
		Dev: DevConfig{
			Port:      DefaultPort,
			Host:      DefaultHost,
			Open:      false,
			HotReload: true,
		},
		Watch: WatchConfig{
			Delay:  DefaultWatchDelay.String(),
			Reload: []string{"dist/index.html"},
			Ignore: []string{".git", "node_modules", ".sitepipe", "*.swp", "*~"},
		},
		Publish: PublishConfig{
			Target:  "git",
			Remote:  "develop",
			Branch:  "master",
			Message: "Send to production",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from the specified project directory. It looks
// for sitepipe.json, then sitepipe.toml. A directory without either returns
// the defaults rooted at dir.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	cfg := New()
	cfg.root = abs
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E101").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that sitepipe.toml is valid TOML")
		}
	default:
		return nil, errors.New("E104").
			WithDetail("Cannot load " + path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.configPath = abs
	cfg.root = filepath.Dir(abs)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration as JSON to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the project root directory.
func (c *Config) Dir() string {
	return c.root
}

// SetDir roots the configuration at dir. Used when the config is built in code.
func (c *Config) SetDir(dir string) {
	c.root = dir
}

// applyDefaults fills in default values for fields a config file cleared.
func (c *Config) applyDefaults() {
	d := New()

	if c.Paths.Src == "" {
		c.Paths.Src = d.Paths.Src
	}
	if c.Paths.Dist == "" {
		c.Paths.Dist = d.Paths.Dist
	}
	if c.Images.Quality == 0 {
		c.Images.Quality = d.Images.Quality
	}
	if c.Views.Ext == "" {
		c.Views.Ext = d.Views.Ext
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Watch.Delay == "" {
		c.Watch.Delay = d.Watch.Delay
	}
	if c.Publish.Target == "" {
		c.Publish.Target = d.Publish.Target
	}
	if c.Publish.Remote == "" {
		c.Publish.Remote = d.Publish.Remote
	}
	if c.Publish.Branch == "" {
		c.Publish.Branch = d.Publish.Branch
	}
	if c.Publish.Message == "" {
		c.Publish.Message = d.Publish.Message
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Resolve returns path joined to the project root unless it is absolute.
func (c *Config) Resolve(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, filepath.FromSlash(path))
}

// DistPath returns the absolute path to the output root.
func (c *Config) DistPath() string {
	return c.Resolve(c.Paths.Dist)
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + itoa(c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// WatchDelay returns the parsed watch delay.
func (c *Config) WatchDelay() time.Duration {
	d, err := parseDelay(c.Watch.Delay)
	if err != nil {
		return DefaultWatchDelay
	}
	return d
}

func parseDelay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultWatchDelay, nil
	}
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// It returns the directory containing a config file and false when none is found.
func FindProjectRoot(startDir string) (string, bool, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, err
	}

	for {
		if Exists(dir) {
			return dir, true, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration for the project containing the
// current working directory. Without a config file the working directory
// itself is the project root.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, found, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	if !found {
		root = wd
	}

	return Load(root)
}

// itoa converts int to string without importing strconv.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	digits := make([]byte, 0, 10)
	for n > 0 {
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
