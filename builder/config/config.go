// handles the server configuration file and command-line flags
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/csantero/MetaWeblogPortable/builder/utils"
)

// DefaultFile is read from the working directory unless --config says otherwise
const DefaultFile = "metaweblog.yaml"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Blog      BlogConfig      `yaml:"blog"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Directory DirectoryConfig `yaml:"directory"`

	// ConfigFile is the file the values were loaded from, empty when none existed
	ConfigFile string `yaml:"-"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`            // listen address (default: 127.0.0.1:8080)
	BaseURL         string        `yaml:"baseURL"`         // absolute prefix for links in feeds and media URLs
	MaxRequestBytes int64         `yaml:"maxRequestBytes"` // XML-RPC body limit (default: 32MB)
	ReadTimeout     time.Duration `yaml:"readTimeout"`     // (default: 30s)
	WriteTimeout    time.Duration `yaml:"writeTimeout"`    // (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"` // (default: 5s)
	Gzip            bool          `yaml:"gzip"`            // compress feed and metrics responses

	// LegacyNotFoundStatus answers deletePost on a missing post with HTTP 404
	LegacyNotFoundStatus bool `yaml:"legacyNotFoundStatus"`
}

type StoreConfig struct {
	DataDir   string        `yaml:"dataDir"`   // holds posts.db and the lock file
	MediaDir  string        `yaml:"mediaDir"`  // default: <dataDir>/media
	DBTimeout time.Duration `yaml:"dbTimeout"` // bbolt open timeout (default: 10s)
	Dev       bool          `yaml:"dev"`       // skip fsync on file growth
}

type BlogConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	FeedItems   int    `yaml:"feedItems"` // posts per RSS feed (default: 20)
}

type AuthConfig struct {
	// Enforce checks credentials against the directory's users instead of allowing all
	Enforce bool `yaml:"enforce"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type DirectoryConfig struct {
	File     string        `yaml:"file"`     // blogs, users and seed categories
	Watch    bool          `yaml:"watch"`    // reload on change
	Debounce time.Duration `yaml:"debounce"` // (default: 300ms)
}

// Default returns the configuration used when neither file nor flags set a value
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			MaxRequestBytes: utils.MaxRequestBytes,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: utils.DefaultShutdownTimeout,
			Gzip:            true,
		},
		Store: StoreConfig{
			DataDir:   "data",
			DBTimeout: utils.DefaultDBTimeout,
		},
		Blog: BlogConfig{
			Title:       "MetaWeblog",
			Description: "Posts published over the MetaWeblog API",
			FeedItems:   20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Directory: DirectoryConfig{
			File:     "directory.yaml",
			Watch:    true,
			Debounce: utils.DefaultDebounce,
		},
	}
}

// Load builds the configuration from defaults, the YAML file and then args.
// A missing file is not an error; an unreadable or invalid one is.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configFile := fs.StringP("config", "c", DefaultFile, "Configuration file")
	addr := fs.StringP("addr", "a", "", "Listen address")
	baseURL := fs.String("baseurl", "", "Base URL used in feeds and media links")
	dataDir := fs.StringP("data", "d", "", "Data directory")
	directoryFile := fs.String("directory", "", "Directory file with blogs and users")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (text, json)")
	dev := fs.Bool("dev", false, "Development mode (skip fsync on db growth)")
	enforce := fs.Bool("enforce-auth", false, "Check credentials against the directory")
	noWatch := fs.Bool("no-watch", false, "Do not reload the directory file on change")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(*configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", *configFile, err)
		}
		cfg.ConfigFile = *configFile
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read %s: %w", *configFile, err)
	}

	if fs.Changed("addr") {
		cfg.Server.Addr = *addr
	}
	if fs.Changed("baseurl") {
		cfg.Server.BaseURL = *baseURL
	}
	if fs.Changed("data") {
		cfg.Store.DataDir = *dataDir
	}
	if fs.Changed("directory") {
		cfg.Directory.File = *directoryFile
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}
	if fs.Changed("dev") {
		cfg.Store.Dev = *dev
	}
	if fs.Changed("enforce-auth") {
		cfg.Auth.Enforce = *enforce
	}
	if fs.Changed("no-watch") {
		cfg.Directory.Watch = !*noWatch
	}

	cfg.validate()
	return cfg, nil
}

// validate ensures configuration values are within reasonable bounds
func (c *Config) validate() {
	c.Server.BaseURL = strings.TrimSuffix(c.Server.BaseURL, "/")
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
	if c.Server.MaxRequestBytes < 1024 {
		c.Server.MaxRequestBytes = 1024
	}
	if c.Server.MaxRequestBytes > 512*1024*1024 {
		c.Server.MaxRequestBytes = 512 * 1024 * 1024
	}
	if c.Server.ReadTimeout < time.Second {
		c.Server.ReadTimeout = time.Second
	}
	if c.Server.WriteTimeout < time.Second {
		c.Server.WriteTimeout = time.Second
	}
	if c.Server.ShutdownTimeout < 1*time.Second {
		c.Server.ShutdownTimeout = 1 * time.Second
	}
	if c.Server.ShutdownTimeout > 60*time.Second {
		c.Server.ShutdownTimeout = 60 * time.Second
	}

	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	if c.Store.MediaDir == "" {
		c.Store.MediaDir = filepath.Join(c.Store.DataDir, "media")
	}
	if c.Store.DBTimeout < 1*time.Second {
		c.Store.DBTimeout = 1 * time.Second
	}

	if c.Blog.FeedItems < 1 {
		c.Blog.FeedItems = 1
	}
	if c.Blog.FeedItems > 500 {
		c.Blog.FeedItems = 500
	}

	if c.Directory.Debounce < 10*time.Millisecond {
		c.Directory.Debounce = 10 * time.Millisecond
	}
	if c.Directory.Debounce > 5*time.Second {
		c.Directory.Debounce = 5 * time.Second
	}

	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format != "json" {
		c.Log.Format = "text"
	}
}

// NewLogger builds the process logger described by the log section
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
