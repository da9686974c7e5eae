package config

import (
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/pkg/lazydef"
)

const (
	// ConfigName is the configuration file name without extension.
	// lazydefine.yaml, lazydefine.yml, lazydefine.json and lazydefine.toml are read.
	ConfigName = "lazydefine"

	// EnvPrefix prefixes environment overrides (LAZYDEFINE_LOADER_KIND, ...).
	EnvPrefix = "LAZYDEFINE"

	// DefaultURLPattern maps an element name to a module path.
	DefaultURLPattern = "{name}.js"

	// DefaultTimeout bounds a single HTTP or S3 load.
	DefaultTimeout = 30 * time.Second

	// DefaultCacheTTL is how long a loaded module stays cached.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultDebounce coalesces bursts of file writes in watch mode.
	DefaultDebounce = 100 * time.Millisecond

	// DefaultLogLevel is used when log_level is unset.
	DefaultLogLevel = "info"
)

// Loader kinds.
const (
	LoaderImport = "import"
	LoaderHTTP   = "http"
	LoaderFS     = "fs"
	LoaderS3     = "s3"
)

// Config is the lazydefine configuration file.
type Config struct {
	// BaseURL resolves relative module URLs.
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`

	// RoleAttribute names the attribute that customizes built-in elements.
	RoleAttribute string `mapstructure:"role_attribute" yaml:"role_attribute,omitempty"`

	// Filter lists the element names that may be defined. Empty means all.
	Filter []string `mapstructure:"filter" yaml:"filter,omitempty"`

	// URLs maps element names to module URLs. Names missing here fall back
	// to URLPattern.
	URLs map[string]string `mapstructure:"urls" yaml:"urls,omitempty"`

	// URLPattern builds a module URL by replacing {name}.
	URLPattern string `mapstructure:"url_pattern" yaml:"url_pattern,omitempty"`

	Loader  LoaderConfig  `mapstructure:"loader" yaml:"loader,omitempty"`
	Inspect InspectConfig `mapstructure:"inspect" yaml:"inspect,omitempty"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level,omitempty"`

	configPath string
}

// LoaderConfig selects and tunes the module loader.
type LoaderConfig struct {
	// Kind is import, http, fs or s3.
	Kind string `mapstructure:"kind" yaml:"kind,omitempty"`

	// Dir is the root directory for the fs loader.
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`

	// Timeout bounds a single load.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`

	// CacheTTL is how long loaded modules are cached. Negative disables the cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl,omitempty"`

	S3 S3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// S3Config configures the s3 loader.
type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region    string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style,omitempty"`
}

// InspectConfig configures the inspection server. An empty Addr disables it.
type InspectConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce,omitempty"`
}

// New returns a configuration with default values.
func New() *Config {
	return &Config{
		BaseURL:       lazydef.DefaultBaseURL,
		RoleAttribute: lazydef.DefaultRoleAttribute,
		URLPattern:    DefaultURLPattern,
		Loader: LoaderConfig{
			Kind:     LoaderImport,
			Timeout:  DefaultTimeout,
			CacheTTL: DefaultCacheTTL,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
		LogLevel: DefaultLogLevel,
	}
}

// newViper returns a viper instance seeded with defaults and bound to the
// environment. Every leaf key needs a default for AutomaticEnv to see it
// during Unmarshal.
func newViper() *viper.Viper {
	d := New()
	v := viper.New()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("role_attribute", d.RoleAttribute)
	v.SetDefault("filter", []string{})
	v.SetDefault("urls", map[string]string{})
	v.SetDefault("url_pattern", d.URLPattern)
	v.SetDefault("loader.kind", d.Loader.Kind)
	v.SetDefault("loader.dir", "")
	v.SetDefault("loader.timeout", d.Loader.Timeout)
	v.SetDefault("loader.cache_ttl", d.Loader.CacheTTL)
	v.SetDefault("loader.s3.bucket", "")
	v.SetDefault("loader.s3.region", "")
	v.SetDefault("loader.s3.endpoint", "")
	v.SetDefault("loader.s3.prefix", "")
	v.SetDefault("loader.s3.path_style", false)
	v.SetDefault("inspect.addr", "")
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads lazydefine.{yaml,yml,json,toml} from dir. A missing file is not
// an error: defaults and environment overrides are returned.
func Load(dir string) (*Config, error) {
	v := newViper()
	v.AddConfigPath(dir)
	v.SetConfigName(ConfigName)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New("E300").
				Wrap(err).
				WithSuggestion("Check the syntax of the lazydefine configuration file in " + dir)
		}
	}
	return decode(v)
}

// LoadFile reads configuration from the specified file path. The format is
// taken from the extension.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E300").
				WithDetail("No configuration file at " + path).
				WithSuggestion("Pass an existing file to --config or omit the flag")
		}
		return nil, errors.New("E300").Wrap(err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.New("E300").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that the file is valid " + strings.TrimPrefix(filepath.Ext(path), "."))
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("E300").Wrap(err)
	}
	cfg.configPath = v.ConfigFileUsed()
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryCLI, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration as YAML to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E300").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E300").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.RoleAttribute == "" {
		c.RoleAttribute = d.RoleAttribute
	}
	if c.URLPattern == "" {
		c.URLPattern = d.URLPattern
	}
	if c.Loader.Kind == "" {
		c.Loader.Kind = d.Loader.Kind
	}
	c.Loader.Kind = strings.ToLower(c.Loader.Kind)
	if c.Loader.Timeout == 0 {
		c.Loader.Timeout = d.Loader.Timeout
	}
	if c.Loader.CacheTTL == 0 {
		c.Loader.CacheTTL = d.Loader.CacheTTL
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = d.Watch.Debounce
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}

	// Relative fs roots are relative to the config file.
	if c.Loader.Dir != "" && !filepath.IsAbs(c.Loader.Dir) && c.configPath != "" {
		c.Loader.Dir = filepath.Join(c.Dir(), c.Loader.Dir)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() {
		return errors.New("E301").
			WithDetail("base_url must be an absolute URL, got " + c.BaseURL).
			WithSuggestion("Use a URL such as file:/// or https://cdn.example.com/elements/")
	}

	if strings.TrimSpace(c.RoleAttribute) == "" {
		return errors.New("E301").WithDetail("role_attribute must not be empty")
	}

	for _, name := range c.Filter {
		if !lazydef.IsValidName(name) {
			return errors.New("E301").
				WithName(name).
				WithDetail("filter entry " + name + " is not a valid custom element name").
				WithSuggestion("Names start with a lower-case letter and contain a hyphen, e.g. x-card")
		}
	}

	if len(c.URLs) == 0 && !strings.Contains(c.URLPattern, "{name}") {
		return errors.New("E301").
			WithDetail("url_pattern must contain {name} when no urls table is set")
	}

	switch c.Loader.Kind {
	case LoaderImport, LoaderHTTP:
	case LoaderFS:
		if c.Loader.Dir == "" {
			return errors.New("E301").WithDetail("loader.dir is required for the fs loader")
		}
	case LoaderS3:
		if c.Loader.S3.Bucket == "" {
			return errors.New("E301").WithDetail("loader.s3.bucket is required for the s3 loader")
		}
	default:
		return errors.New("E301").
			WithDetail("unknown loader.kind " + c.Loader.Kind).
			WithSuggestion("Use one of import, http, fs, s3")
	}

	if c.Loader.Timeout < 0 {
		return errors.New("E301").WithDetail("loader.timeout must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return errors.New("E301").WithDetail("watch.debounce must not be negative")
	}

	if _, err := c.Level(); err != nil {
		return errors.New("E301").
			WithDetail("log_level " + c.LogLevel + " is not a level").
			WithSuggestion("Use one of debug, info, warn, error")
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// ModuleURL returns the module URL string for an element name: the URLs
// entry if present, otherwise URLPattern with {name} replaced.
func (c *Config) ModuleURL(name string) string {
	if u, ok := c.URLs[name]; ok {
		return u
	}
	if !strings.Contains(c.URLPattern, "{name}") {
		return ""
	}
	return strings.ReplaceAll(c.URLPattern, "{name}", name)
}

// Exists reports whether dir contains a lazydefine configuration file.
func Exists(dir string) bool {
	for _, ext := range viper.SupportedExts {
		if _, err := os.Stat(filepath.Join(dir, ConfigName+"."+ext)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find one holding a configuration
// file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E300").
				WithDetail("No lazydefine configuration found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest directory, starting
// at the working directory, that has a configuration file. Without one it
// returns defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return Load(wd)
	}
	return Load(root)
}
