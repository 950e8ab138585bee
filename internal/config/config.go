// Package config holds the server settings file (TOML) and the command-line
// arguments. Simulation parameters live in the game config loaded by the
// data package; this file covers the process-level knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
	Scripting ScriptingConfig `toml:"scripting"`
}

type ServerConfig struct {
	BindAddress string `toml:"bind_address"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ScriptingConfig struct {
	Hooks string `toml:"hooks"` // path to a Lua hook script, empty disables
}

// Args carries the command-line flags after parsing.
type Args struct {
	ConfigPath      string // game config (maps, loot, retirement)
	SettingsPath    string // server settings TOML, optional
	WWWRoot         string // static front-end files
	TickPeriod      time.Duration
	StateFile       string
	SavePeriod      time.Duration
	RandomizeSpawns bool
}

// Load reads the settings file; an empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress: "0.0.0.0:8080",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
