// Package config loads server and CLI settings from defaults, a TOML file,
// the environment and command line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is the application directory name.
	AppName = "task-calendar"

	// ProjectConfigFile is looked up in the working directory.
	ProjectConfigFile = "task-calendar.toml"

	// UserConfigFile is looked up in the user config directory.
	UserConfigFile = "config.toml"

	DefaultPort        = 8080
	DefaultDataFile    = "tasks.json"
	DefaultAuthFile    = "auth.secret"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultAllowOrigin = "*"

	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds the settings of the service.
type Config struct {
	Port        int    `toml:"port"`
	DataFile    string `toml:"data_file"`
	Backend     string `toml:"backend"`
	AuthFile    string `toml:"auth_file"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	AllowOrigin string `toml:"allow_origin"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:        DefaultPort,
		DataFile:    DefaultDataFile,
		Backend:     BackendJSON,
		AuthFile:    defaultAuthFile(),
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		AllowOrigin: DefaultAllowOrigin,
	}
}

// Load builds the configuration. Flags are registered on fs and parsed
// from args; fs.Args() holds the remaining arguments afterwards.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()

	var (
		configFile  string
		port        int
		dataFile    string
		backend     string
		authFile    string
		logLevel    string
		logFormat   string
		allowOrigin string
	)
	fs.StringVar(&configFile, "config", "", "Path to a TOML config file")
	fs.IntVar(&port, "port", 0, "Port to listen on (default 8080)")
	fs.StringVar(&dataFile, "data", "", "Task data file (default tasks.json)")
	fs.StringVar(&backend, "backend", "", "Storage backend: json or sqlite")
	fs.StringVar(&authFile, "auth-file", "", "Basic Auth credential file")
	fs.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&logFormat, "log-format", "", "Log format: text, json, logfmt")
	fs.StringVar(&allowOrigin, "allow-origin", "", "Value of Access-Control-Allow-Origin")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
		cfg.ConfigFile = configFile
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	// Flags override everything
	if port != 0 {
		cfg.Port = port
	}
	setIfNotEmpty(&cfg.DataFile, dataFile)
	setIfNotEmpty(&cfg.Backend, backend)
	setIfNotEmpty(&cfg.AuthFile, authFile)
	setIfNotEmpty(&cfg.LogLevel, logLevel)
	setIfNotEmpty(&cfg.LogFormat, logFormat)
	setIfNotEmpty(&cfg.AllowOrigin, allowOrigin)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if strings.TrimSpace(c.DataFile) == "" {
		return errors.New("data file is empty")
	}
	switch c.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (expected %s or %s)", c.Backend, BackendJSON, BackendSQLite)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys: %v", undecoded)
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TASKCAL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TASKCAL_PORT: %w", err)
		}
		cfg.Port = port
	}
	setIfNotEmpty(&cfg.DataFile, os.Getenv("TASKCAL_DATA_FILE"))
	setIfNotEmpty(&cfg.Backend, os.Getenv("TASKCAL_BACKEND"))
	setIfNotEmpty(&cfg.AuthFile, os.Getenv("AUTH_FILE"))
	setIfNotEmpty(&cfg.LogLevel, os.Getenv("TASKCAL_LOG_LEVEL"))
	setIfNotEmpty(&cfg.LogFormat, os.Getenv("TASKCAL_LOG_FORMAT"))
	setIfNotEmpty(&cfg.AllowOrigin, os.Getenv("TASKCAL_ALLOW_ORIGIN"))
	return nil
}

// findConfigFile returns the project config file if present, else the user one.
func findConfigFile() string {
	if _, err := os.Stat(ProjectConfigFile); err == nil {
		return ProjectConfigFile
	}
	path := filepath.Join(userConfigDir(), UserConfigFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// defaultAuthFile places the credential file next to the binary.
func defaultAuthFile() string {
	execPath, err := os.Executable()
	if err != nil {
		return DefaultAuthFile
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile)
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
