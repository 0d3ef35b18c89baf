package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultPort         = 8000
	DefaultMetricsPort  = 9100
	DefaultDriver       = "postgres"
	DefaultDBPort       = 5432
	DefaultMaxOpenConns = 10
	DefaultMaxIdleConns = 5
)

// Config holds everything the server needs at startup.
type Config struct {
	// Port is the port the notes API listens on.
	Port int `yaml:"port"`

	// MetricsPort serves /metrics on its own listener. 0 disables it.
	MetricsPort int `yaml:"metrics_port"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

// DatabaseConfig describes the relational database backing the note store.
type DatabaseConfig struct {
	// Driver is one of: postgres | mysql | sqlite.
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`

	// Path is the database file, used only by the sqlite driver.
	Path string `yaml:"path"`

	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`

	// AutoMigrate creates the note table if it does not exist.
	AutoMigrate bool `yaml:"auto_migrate"`
}

// RedisConfig enables the created-notes feed when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// Load builds the configuration from defaults, the optional YAML file at
// path and finally the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:        DefaultPort,
		MetricsPort: DefaultMetricsPort,
		Database: DatabaseConfig{
			Driver:       DefaultDriver,
			Host:         "localhost",
			Port:         DefaultDBPort,
			MaxOpenConns: DefaultMaxOpenConns,
			MaxIdleConns: DefaultMaxIdleConns,
			AutoMigrate:  true,
		},
	}
}

func applyEnv(cfg *Config) error {
	strs := []struct {
		env string
		dst *string
	}{
		{"NOTEAPI_REDIS_URL", &cfg.Redis.URL},
		{"DATABASE_DRIVER", &cfg.Database.Driver},
		{"DATABASE_HOST", &cfg.Database.Host},
		{"DATABASE_USER", &cfg.Database.User},
		{"DATABASE_PASSWORD", &cfg.Database.Password},
		{"DATABASE_NAME", &cfg.Database.Name},
		{"DATABASE_PATH", &cfg.Database.Path},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"NOTEAPI_PORT", &cfg.Port},
		{"NOTEAPI_METRICS_PORT", &cfg.MetricsPort},
		{"DATABASE_PORT", &cfg.Database.Port},
		{"DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns},
		{"DATABASE_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", i.env, v)
		}
		*i.dst = n
	}

	if v := os.Getenv("DATABASE_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DATABASE_AUTO_MIGRATE: %q is not a boolean", v)
		}
		cfg.Database.AutoMigrate = b
	}

	return nil
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d is out of range [1, 65535]", cfg.Port)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port %d is out of range [0, 65535]", cfg.MetricsPort)
	}
	if cfg.MetricsPort != 0 && cfg.MetricsPort == cfg.Port {
		return fmt.Errorf("metrics_port must differ from port %d", cfg.Port)
	}

	switch cfg.Database.Driver {
	case "postgres", "mysql":
		if cfg.Database.Name == "" {
			return fmt.Errorf("database.name is required for driver %q", cfg.Database.Driver)
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver sqlite")
		}
	default:
		return fmt.Errorf("database.driver %q unknown: want postgres|mysql|sqlite", cfg.Database.Driver)
	}

	if cfg.Database.MaxOpenConns < 0 || cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database connection limits must not be negative")
	}
	return nil
}
