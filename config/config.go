/*
Package config resolves server settings from flags, the environment and
an optional .env file.

PRECEDENCE (highest first):
  1. Command-line flags
  2. Process environment
  3. .env file (godotenv format)
  4. Defaults

SETTINGS:
  flag          env             default
  -port         PORT            8080
  -db           DATABASE_PATH   seats.db   (":memory:" for an in-memory database)
  -district     DISTRICT_FILE   ""         (empty: built-in Beirut I)
  -log-level    LOG_LEVEL       info
  -cors-origin  CORS_ORIGINS    "*"        (comma separated)
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/warp/seat-engine/election"
	"github.com/warp/seat-engine/factory"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the resolved server settings.
type Config struct {
	Port         int
	DBPath       string
	DistrictFile string
	LogLevel     string
	CORSOrigins  []string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:        8080,
		DBPath:      "seats.db",
		LogLevel:    "info",
		CORSOrigins: []string{"*"},
	}
}

// Load reads envFile (skipped when missing), then parses args on top of it.
func Load(args []string, envFile string) (Config, error) {
	fileEnv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return fileEnv[key]
	}
	return Parse(args, lookup)
}

// Parse resolves settings from args with lookup as the environment.
func Parse(args []string, lookup func(string) string) (Config, error) {
	cfg := Default()

	if v := lookup("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := lookup("DATABASE_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := lookup("DISTRICT_FILE"); v != "" {
		cfg.DistrictFile = v
	}
	if v := lookup("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	origins := strings.Join(cfg.CORSOrigins, ",")
	if v := lookup("CORS_ORIGINS"); v != "" {
		origins = v
	}

	fset := flag.NewFlagSet("server", flag.ContinueOnError)
	fset.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fset.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fset.StringVar(&cfg.DistrictFile, "district", cfg.DistrictFile, "district seat table (YAML or JSON); empty for Beirut I")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fset.StringVar(&origins, "cors-origin", origins, "allowed CORS origins, comma separated")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.CORSOrigins = splitList(origins)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return cfg, nil
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

// Addr is the listen address for the configured port.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// District loads the configured district file, or returns Beirut I.
func (c Config) District() (election.District, error) {
	if c.DistrictFile == "" {
		return election.BeirutI(), nil
	}
	return factory.LoadDistrictFile(c.DistrictFile)
}

// NewLogger builds a production zap logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
