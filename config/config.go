// Package config provides configuration loading, validation, and hot
// reload.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/crudgate/domain/resource"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Store     StoreConfig      `yaml:"store"`
	Auth      AuthConfig       `yaml:"auth"`
	Logging   LoggingConfig    `yaml:"logging"`
	API       APIConfig        `yaml:"api"`
	Resources []ResourceConfig `yaml:"resources"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects the backend all resources are served from.
// Driver is one of "memory", "sqlite", or "gorm"; Path is the database file
// for the SQL-backed drivers.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// AuthConfig configures the optional access-control middleware. When
// TokenHash (a bcrypt hash) is set, every generated route requires the
// matching `token` query parameter. Authorization beyond that single token
// is delegated to whatever middleware the host attaches.
type AuthConfig struct {
	TokenHash string `yaml:"token_hash"`
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// APIConfig holds metadata for the served OpenAPI document.
type APIConfig struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// ResourceConfig declares one CRUD resource.
type ResourceConfig struct {
	Name        string        `yaml:"name"`
	Prefix      string        `yaml:"prefix"`
	PrimaryKey  string        `yaml:"primary_key"`
	Fields      []FieldConfig `yaml:"fields"`
	Disable     []string      `yaml:"disable"`
	StaticLimit int           `yaml:"static_limit"`
}

// FieldConfig declares one resource field.
type FieldConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Required   bool   `yaml:"required"`
	Unique     bool   `yaml:"unique"`
	References string `yaml:"references"`
}

// Schema converts the declaration into a resource schema.
func (rc ResourceConfig) Schema() resource.Schema {
	fields := make([]resource.Field, len(rc.Fields))
	for i, f := range rc.Fields {
		fields[i] = resource.Field{
			Name:     f.Name,
			Type:     resource.Type(f.Type),
			Required: f.Required,
			Unique:   f.Unique,
			Refs:     f.References,
		}
	}
	return resource.Schema{
		Name:       rc.Name,
		Prefix:     rc.Prefix,
		PrimaryKey: rc.PrimaryKey,
		Fields:     fields,
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides lets deployments tweak a checked-in config file.
//
//	CRUDGATE_SERVER_HOST  - Server host
//	CRUDGATE_SERVER_PORT  - Server port
//	CRUDGATE_STORE_DRIVER - memory, sqlite, or gorm
//	CRUDGATE_STORE_PATH   - Database file path
//	CRUDGATE_LOG_LEVEL    - debug, info, warn, error
//	CRUDGATE_LOG_FORMAT   - json or console
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CRUDGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CRUDGATE_SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("CRUDGATE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("CRUDGATE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("CRUDGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CRUDGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "crudgate.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.API.Title == "" {
		cfg.API.Title = "crudgate"
	}
	if cfg.API.Version == "" {
		cfg.API.Version = "1.0"
	}
}

var operations = map[string]bool{
	"list": true, "get": true, "create": true,
	"update": true, "delete_one": true, "delete_all": true,
}

func validate(cfg *Config) error {
	switch cfg.Store.Driver {
	case "memory", "sqlite", "gorm":
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", cfg.Logging.Format)
	}
	if len(cfg.Resources) == 0 {
		return fmt.Errorf("at least one resource is required")
	}
	seen := make(map[string]bool)
	for _, rc := range cfg.Resources {
		if err := rc.Schema().Validate(); err != nil {
			return err
		}
		if seen[rc.Name] {
			return fmt.Errorf("duplicate resource %q", rc.Name)
		}
		seen[rc.Name] = true
		for _, op := range rc.Disable {
			if !operations[op] {
				return fmt.Errorf("resource %q: unknown operation %q in disable list", rc.Name, op)
			}
		}
		if rc.StaticLimit < 0 {
			return fmt.Errorf("resource %q: static_limit must not be negative", rc.Name)
		}
	}
	return nil
}
