// Package config loads the application configuration from config.yaml,
// expanding environment variables (optionally from a .env file).
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

type Database struct {
	Name     string `yaml:"name"`
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
	Default  bool   `yaml:"default"`
}

type Config struct {
	Application struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Author  string `yaml:"author"`
	} `yaml:"application"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database []Database `yaml:"database"`
	Pool     struct {
		MaxConnections int    `yaml:"max_connections"`
		IdleTimeout    string `yaml:"idle_timeout"`
		AbsTimeout     string `yaml:"abs_timeout"`
	} `yaml:"pool"`
	Grids struct {
		Path string `yaml:"path"`
	} `yaml:"grids"`
	Log Log `yaml:"log"`
}

type Log struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Load reads path after loading .env into the environment
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // Ignore error as it might not exist in prod

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse expands ${VAR} references and decodes the YAML
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Grids.Path == "" {
		cfg.Grids.Path = "grids"
	}
	return &cfg, nil
}

// DefaultDatabase returns the entry marked default, else the first one
func (c *Config) DefaultDatabase() (Database, error) {
	for _, d := range c.Database {
		if d.Default {
			return d, nil
		}
	}
	if len(c.Database) > 0 {
		return c.Database[0], nil
	}
	return Database{}, fmt.Errorf("no database configured")
}

// ConnString builds the driver DSN unless one is given explicitly
func (d Database) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", d.User, d.Password, d.Host, d.Port, d.Database)
	case "sqlite":
		if d.Database == "" {
			return "file:sqlgrid?mode=memory&cache=shared"
		}
		return d.Database
	default:
		s := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			d.Host, d.Port, d.User, d.Password, d.Database)
		if d.Schema != "" {
			s += " search_path=" + d.Schema + ",public"
		}
		return s
	}
}

// Durations parses the pool timeouts, falling back to 5m idle and 1h absolute
func (c *Config) Durations() (idle, abs time.Duration, err error) {
	idle, abs = 5*time.Minute, time.Hour
	if c.Pool.IdleTimeout != "" {
		if idle, err = time.ParseDuration(c.Pool.IdleTimeout); err != nil {
			return 0, 0, fmt.Errorf("invalid idle_timeout: %w", err)
		}
	}
	if c.Pool.AbsTimeout != "" {
		if abs, err = time.ParseDuration(c.Pool.AbsTimeout); err != nil {
			return 0, 0, fmt.Errorf("invalid abs_timeout: %w", err)
		}
	}
	return idle, abs, nil
}

// NewLogger builds a slog logger writing to stderr, or to a rotating file
// when Log.File is set. The returned closer releases the file.
func NewLogger(l Log) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if l.File != "" {
		lj := &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    max(1, l.MaxSizeMB),
			MaxBackups: l.MaxBackups,
		}
		w, closer = lj, lj
	}

	level := slog.LevelInfo
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), closer
	}
	return slog.New(slog.NewTextHandler(w, opts)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
