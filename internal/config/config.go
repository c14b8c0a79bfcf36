package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/vango-dev/goalfeed/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "goalfeed.json"

	// DefaultBaseURL is the default remote API origin.
	DefaultBaseURL = "http://localhost:3000"

	// DefaultDismissAfter is how long terminal status indicators stay up.
	DefaultDismissAfter = "4s"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "goalfeed"

	// DefaultStreamAddr is the default listen address of the status stream.
	DefaultStreamAddr = "localhost:7070"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Config represents the complete goalfeed.json configuration. Every scalar
// can be overridden from the environment.
type Config struct {
	// API contains the remote API settings.
	API APIConfig `json:"api"`

	// Toast contains status indicator settings.
	Toast ToastConfig `json:"toast"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Stream contains the status stream server settings.
	Stream StreamConfig `json:"stream"`

	// Log contains logging settings.
	Log LogConfig `json:"log"`

	// Identity is the signed-in user the CLI acts as. Empty means
	// anonymous.
	Identity IdentityConfig `json:"identity"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// APIConfig contains the remote API settings.
type APIConfig struct {
	// BaseURL is the origin the write and read endpoints are relative to.
	BaseURL string `json:"baseURL" env:"GOALFEED_API_BASE_URL" env-description:"remote API origin"`

	// Routes overrides endpoint paths by route name, e.g.
	// "comment/edit": "/api/fauna/goals/edit-comment".
	Routes map[string]string `json:"routes,omitempty"`
}

// ToastConfig contains status indicator settings.
type ToastConfig struct {
	// DismissAfter is a duration string; "0s" keeps terminal indicators
	// until they are dismissed.
	DismissAfter string `json:"dismissAfter" env:"GOALFEED_TOAST_DISMISS_AFTER" env-description:"how long success and failure indicators stay visible"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace" env:"GOALFEED_METRICS_NAMESPACE" env-description:"Prometheus metric namespace"`
}

// StreamConfig contains the status stream server settings.
type StreamConfig struct {
	// Addr is the listen address of `goalfeed watch`.
	Addr string `json:"addr" env:"GOALFEED_STREAM_ADDR" env-description:"status stream listen address"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level" env:"GOALFEED_LOG_LEVEL" env-description:"log level (debug, info, warn, error)"`

	// JSON switches the handler from text to JSON.
	JSON bool `json:"json,omitempty" env:"GOALFEED_LOG_JSON" env-description:"log as JSON"`
}

// IdentityConfig is the user the CLI acts as.
type IdentityConfig struct {
	ID        string `json:"id,omitempty"        env:"GOALFEED_USER_ID"         env-description:"acting user id"`
	Name      string `json:"name,omitempty"      env:"GOALFEED_USER_NAME"       env-description:"acting user account name"`
	FirstName string `json:"firstName,omitempty" env:"GOALFEED_USER_FIRST_NAME" env-description:"acting user first name"`
	Image     string `json:"image,omitempty"     env:"GOALFEED_USER_IMAGE"      env-description:"acting user avatar URL"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
		},
		Toast: ToastConfig{
			DismissAfter: DefaultDismissAfter,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Stream: StreamConfig{
			Addr: DefaultStreamAddr,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for goalfeed.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the configuration file at path and applies environment
// overrides on top of it.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or set GOALFEED_* environment variables")
		}
		return nil, errors.New(errors.CodeConfigParse).Wrap(err)
	}

	cfg := New()
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv builds the configuration from defaults and GOALFEED_* variables
// only.
func LoadEnv() (*Config, error) {
	cfg := New()
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("Failed to read environment: " + err.Error()).
			Wrap(err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to where it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigParse).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigParse).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills fields that an explicit empty value in the file or
// environment left blank.
func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.Toast.DismissAfter == "" {
		c.Toast.DismissAfter = DefaultDismissAfter
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Stream.Addr == "" {
		c.Stream.Addr = DefaultStreamAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.CodeConfigInvalid).
			WithField("api.baseURL").
			WithDetail("api.baseURL must be an absolute http(s) URL, got " + strconv.Quote(c.API.BaseURL))
	}
	for name, path := range c.API.Routes {
		if !strings.HasPrefix(path, "/") {
			return errors.New(errors.CodeConfigInvalid).
				WithField("api.routes").
				WithDetail("route " + strconv.Quote(name) + " must be an absolute path, got " + strconv.Quote(path))
		}
	}
	if d, err := time.ParseDuration(c.Toast.DismissAfter); err != nil || d < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithField("toast.dismissAfter").
			WithDetail("toast.dismissAfter must be a non-negative duration such as \"4s\"")
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return errors.New(errors.CodeConfigInvalid).
			WithField("log.level").
			WithDetail("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// DismissAfter returns Toast.DismissAfter as a duration.
func (c *Config) DismissAfter() time.Duration {
	d, err := time.ParseDuration(c.Toast.DismissAfter)
	if err != nil || d < 0 {
		d, _ = time.ParseDuration(DefaultDismissAfter)
	}
	return d
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Logger returns a slog logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, ok := levels[strings.ToLower(c.Log.Level)]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Anonymous reports whether no acting user is configured.
func (i IdentityConfig) Anonymous() bool {
	return i.ID == ""
}

// EnvHelp describes every environment variable the configuration reads.
func EnvHelp() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(New(), &header)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find goalfeed.json.
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
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads goalfeed.json from the working directory or its
// nearest parent. Without one, it falls back to LoadEnv.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return LoadEnv()
	}
	return Load(root)
}
