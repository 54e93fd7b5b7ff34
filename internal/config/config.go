package config

import (
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"gopkg.in/yaml.v3"

	"aerolease/internal/calendar"
)

const (
	CatalogSourceYAML   = "yaml"
	CatalogSourceSQLite = "sqlite"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	Server struct {
		Port          int    `yaml:"port"`
		AllowedOrigin string `yaml:"allowed_origin"`
	} `yaml:"server"`

	Calendar struct {
		EarliestBookable string `yaml:"earliest_bookable"` // YYYY-MM-DD
		Timezone         string `yaml:"timezone"`
	} `yaml:"calendar"`

	Catalog struct {
		Source        string `yaml:"source"`
		Path          string `yaml:"path"`
		SQLitePath    string `yaml:"sqlite_path"`
		SyncOnStart   bool   `yaml:"sync_on_start"`
		ReloadSeconds int    `yaml:"reload_seconds"`
	} `yaml:"catalog"`

	Relay struct {
		Endpoint       string  `yaml:"endpoint"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
		Burst          int     `yaml:"burst"`
	} `yaml:"relay"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Session struct {
		Backend    string `yaml:"backend"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"session"`

	Telegram struct {
		BotToken string  `yaml:"bot_token"`
		Managers []int64 `yaml:"managers"`
	} `yaml:"telegram"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.AllowedOrigin == "" {
		c.Server.AllowedOrigin = "*"
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = CatalogSourceYAML
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/aircraft.yaml"
	}
	if c.Catalog.SQLitePath == "" {
		c.Catalog.SQLitePath = "data/aerolease.db"
	}
	if c.Session.Backend == "" {
		c.Session.Backend = SessionBackendMemory
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

// Validate checks values the loader cannot default.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogSourceYAML, CatalogSourceSQLite:
	default:
		return fmt.Errorf("catalog.source: unknown source '%s'", c.Catalog.Source)
	}

	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("session.backend is redis but redis.address is empty")
		}
	default:
		return fmt.Errorf("session.backend: unknown backend '%s'", c.Session.Backend)
	}

	if _, err := c.CalendarRules(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Relay.RatePerSecond < 0 || c.Relay.Burst < 0 {
		return fmt.Errorf("relay: rate_per_second and burst cannot be negative")
	}
	return nil
}

// CalendarRules builds the selection rules from the calendar section.
func (c *Config) CalendarRules() (calendar.Rules, error) {
	rules := calendar.DefaultRules()
	if c.Calendar.EarliestBookable == "" {
		return rules, nil
	}
	d, err := civil.ParseDate(c.Calendar.EarliestBookable)
	if err != nil {
		return rules, fmt.Errorf("calendar.earliest_bookable: invalid date '%s', expected YYYY-MM-DD", c.Calendar.EarliestBookable)
	}
	rules.Earliest = d
	return rules, nil
}

// Location is the zone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	if c.Calendar.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

func (c *Config) RelayTimeout() time.Duration {
	if c.Relay.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Relay.TimeoutSeconds) * time.Second
}

func (c *Config) CatalogReloadInterval() time.Duration {
	if c.Catalog.ReloadSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.ReloadSeconds) * time.Second
}

// LoadAircraft reads the aircraft catalog file named in catalog.path.
func (c *Config) LoadAircraft() (*AircraftConfig, error) {
	return LoadAircraftConfig(c.Catalog.Path)
}
