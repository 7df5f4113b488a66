package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	cerrors "github.com/Aman-CERP/gocontract/internal/errors"
)

// File names.
const (
	ProjectFileName    = ".contractgen.yaml"
	ProjectFileNameAlt = ".contractgen.yml"
	UserFileName       = "config.yaml"
	appName            = "contractgen"
)

// Config is the complete contractgen configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Runtime  RuntimeConfig  `yaml:"runtime" json:"runtime"`
	Generate GenerateConfig `yaml:"generate" json:"generate"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// RuntimeConfig names the package generated guards call.
type RuntimeConfig struct {
	// ImportPath of the runtime package. Projects that vendor or fork the
	// runtime point this at their copy.
	ImportPath string `yaml:"import_path" json:"import_path"`

	// PackageName is the runtime package's declared name.
	PackageName string `yaml:"package_name" json:"package_name"`
}

// GenerateConfig controls generate, check and strip runs.
type GenerateConfig struct {
	// Typecheck resolves predicates against type-checked packages.
	Typecheck bool `yaml:"typecheck" json:"typecheck"`

	// Prune removes guards whose directive was deleted.
	Prune bool `yaml:"prune" json:"prune"`

	// Workers bounds concurrent packages. 0 means one per CPU.
	Workers int `yaml:"workers" json:"workers"`

	BuildTags    []string `yaml:"build_tags" json:"build_tags"`
	IncludeTests bool     `yaml:"include_tests" json:"include_tests"`

	// CacheSize bounds the in-sync file cache used in watch mode.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Debounce is a duration string such as "200ms".
	Debounce string `yaml:"debounce" json:"debounce"`

	// Exclude lists glob patterns matched against slash-separated paths
	// relative to the watched root, and against base names.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Runtime: RuntimeConfig{
			ImportPath:  "github.com/Aman-CERP/gocontract/pkg/contract",
			PackageName: "contract",
		},
		Generate: GenerateConfig{
			Typecheck: true,
			Prune:     true,
			Workers:   runtime.NumCPU(),
			CacheSize: 4096,
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the user configuration file. It follows the XDG
// Base Directory layout unless CONTRACTGEN_CONFIG_DIR overrides it:
//   - $CONTRACTGEN_CONFIG_DIR/config.yaml
//   - $XDG_CONFIG_HOME/contractgen/config.yaml
//   - ~/.config/contractgen/config.yaml
func GetUserConfigPath() string {
	return filepath.Join(GetUserConfigDir(), UserFileName)
}

// GetUserConfigDir returns the directory holding the user configuration.
func GetUserConfigDir() string {
	if dir := os.Getenv("CONTRACTGEN_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// Load loads configuration for the project at dir. Sources are applied in
// order of increasing precedence:
//  1. Built-in defaults
//  2. User config (see GetUserConfigPath)
//  3. Project config (.contractgen.yaml at dir)
//  4. Environment variables (CONTRACTGEN_*)
func Load(dir string) (*Config, error) {
	return LoadFrom(dir, GetUserConfigPath())
}

// LoadFrom is Load with an explicit user config path. An empty path skips
// the user layer.
func LoadFrom(dir, userConfigPath string) (*Config, error) {
	cfg := NewConfig()

	if userConfigPath != "" && fileExists(userConfigPath) {
		if err := cfg.loadYAML(userConfigPath); err != nil {
			return nil, err
		}
	}

	if path := ProjectConfigPath(dir); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" when there
// is none. The .yaml spelling wins over .yml.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectFileName, ProjectFileNameAlt} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadYAML overlays the keys present in the file onto c. Unknown keys are
// rejected so a misspelled setting does not silently fall back to its
// default.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return cerrors.New(cerrors.ErrCodeFilePermission,
			fmt.Sprintf("failed to read config file %s: %v", path, err), err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return cerrors.ConfigError(fmt.Sprintf("failed to parse config file %s: %v", path, err), err).
			WithDetail("path", path)
	}
	return nil
}

// applyEnvOverrides applies CONTRACTGEN_* environment variables. Malformed
// values are errors rather than being ignored.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("CONTRACTGEN_IMPORT_PATH"); v != "" {
		c.Runtime.ImportPath = v
	}
	if v := os.Getenv("CONTRACTGEN_PACKAGE_NAME"); v != "" {
		c.Runtime.PackageName = v
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"CONTRACTGEN_TYPECHECK", &c.Generate.Typecheck},
		{"CONTRACTGEN_PRUNE", &c.Generate.Prune},
		{"CONTRACTGEN_TESTS", &c.Generate.IncludeTests},
	}
	for _, b := range bools {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return envError(b.name, v, "a boolean")
		}
		*b.dst = parsed
	}

	if v := os.Getenv("CONTRACTGEN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("CONTRACTGEN_WORKERS", v, "an integer")
		}
		c.Generate.Workers = n
	}
	if v := os.Getenv("CONTRACTGEN_TAGS"); v != "" {
		c.Generate.BuildTags = splitList(v)
	}
	if v := os.Getenv("CONTRACTGEN_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("CONTRACTGEN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func envError(name, value, want string) error {
	return cerrors.ConfigError(fmt.Sprintf("%s=%q is not %s", name, value, want), nil)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := module.CheckImportPath(c.Runtime.ImportPath); err != nil {
		return cerrors.ConfigError(fmt.Sprintf("runtime.import_path %q is not a valid import path", c.Runtime.ImportPath), err)
	}
	if !token.IsIdentifier(c.Runtime.PackageName) || c.Runtime.PackageName == "_" {
		return cerrors.ConfigError(fmt.Sprintf("runtime.package_name %q is not a Go identifier", c.Runtime.PackageName), nil)
	}

	if c.Generate.Workers < 0 {
		return cerrors.ConfigError(fmt.Sprintf("generate.workers must be non-negative, got %d", c.Generate.Workers), nil).
			WithSuggestion("use 0 for one worker per CPU")
	}
	if c.Generate.CacheSize < 0 {
		return cerrors.ConfigError(fmt.Sprintf("generate.cache_size must be non-negative, got %d", c.Generate.CacheSize), nil)
	}
	for _, tag := range c.Generate.BuildTags {
		if strings.ContainsAny(tag, " ,\t") {
			return cerrors.ConfigError(fmt.Sprintf("generate.build_tags entry %q must be a single tag", tag), nil)
		}
	}

	if _, err := c.DebounceDuration(); err != nil {
		return err
	}
	for _, pattern := range c.Watch.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return cerrors.ConfigError(fmt.Sprintf("watch.exclude pattern %q is malformed", pattern), err)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return cerrors.ConfigError(fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level), nil)
	}
	return nil
}

// DebounceDuration parses Watch.Debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 0, cerrors.ConfigError(fmt.Sprintf("watch.debounce %q must be a positive duration such as 200ms", c.Watch.Debounce), err)
	}
	return d, nil
}

// WriteYAML writes the configuration to path, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerrors.InternalError("failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cerrors.New(cerrors.ErrCodeFileWrite, fmt.Sprintf("failed to create config directory: %v", err), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cerrors.New(cerrors.ErrCodeFileWrite, fmt.Sprintf("failed to write config file: %v", err), err)
	}
	return nil
}

// FindModuleRoot walks up from startDir to the nearest directory with a
// go.mod. When there is none it returns startDir made absolute.
func FindModuleRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dir := absDir
	for {
		if fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
