package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30m" or "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the server configuration, loaded from an optional YAML
// file with environment overrides applied on top.
type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Rooms struct {
		CreateInterval Duration `yaml:"create_interval"`
		SweepInterval  Duration `yaml:"sweep_interval"`
		MaxIdle        Duration `yaml:"max_idle"`
	} `yaml:"rooms"`
	Lobby struct {
		RateRPS   float64 `yaml:"rate_rps"`
		RateBurst int     `yaml:"rate_burst"`
	} `yaml:"lobby"`
	Discovery struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"discovery"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Address = ""
	cfg.Server.Port = 3001
	cfg.Rooms.CreateInterval = Duration(10 * time.Second)
	cfg.Rooms.SweepInterval = Duration(5 * time.Minute)
	cfg.Rooms.MaxIdle = Duration(30 * time.Minute)
	cfg.Lobby.RateRPS = 5
	cfg.Lobby.RateBurst = 10
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty or the
// file does not exist) and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("BIND_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ROOM_MAX_IDLE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Rooms.MaxIdle = Duration(d)
		}
	}
	if v := os.Getenv("DISCOVERY_ENABLED"); v != "" {
		cfg.Discovery.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

// Addr is the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// LogLevel maps the configured level string onto slog levels,
// defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
