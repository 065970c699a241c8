package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/claude/movecoach/internal/catalog"
	"github.com/claude/movecoach/internal/exercise"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Database  DatabaseConfig            `yaml:"database"`
	Auth      AuthConfig                `yaml:"auth"`
	Tailscale TailscaleConfig           `yaml:"tailscale"`
	Engine    EngineConfig              `yaml:"engine"`
	Exercises map[string]ExerciseConfig `yaml:"exercises"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// SessionIdleTimeout ends live sessions that received no request for
	// this long.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// EngineConfig holds the defaults applied to every exercise session.
type EngineConfig struct {
	// ConfidenceThreshold must be in (0,1). Zero selects the default 0.2.
	ConfidenceThreshold  float64       `yaml:"confidence_threshold"`
	Tick                 time.Duration `yaml:"tick"`
	StartDelay           time.Duration `yaml:"start_delay"`
	NotificationInterval time.Duration `yaml:"notification_interval"`
	AutoInstruct         *bool         `yaml:"auto_instruct"`
}

// ExerciseConfig overrides the targets of one exercise. Zero values keep
// the built-in targets.
type ExerciseConfig struct {
	Repetitions        int           `yaml:"repetitions"`
	Sets               int           `yaml:"sets"`
	RepetitionDuration time.Duration `yaml:"repetition_duration"`
}

// Instructed reports whether sessions skip the wait for instructions.
func (e EngineConfig) Instructed() bool {
	return e.AutoInstruct == nil || *e.AutoInstruct
}

// Catalog builds the exercise catalog with the configured overrides.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	overrides := make(map[string]catalog.Overrides, len(c.Exercises))
	for key, ex := range c.Exercises {
		overrides[key] = catalog.Overrides{
			Repetitions:        ex.Repetitions,
			Sets:               ex.Sets,
			RepetitionDuration: ex.RepetitionDuration,
		}
	}
	return catalog.New(overrides)
}

// EngineOptions returns the engine settings shared by all sessions.
func (c *Config) EngineOptions() exercise.Options {
	return exercise.Options{
		ConfidenceThreshold:  c.Engine.ConfidenceThreshold,
		StartDelay:           c.Engine.StartDelay,
		NotificationInterval: c.Engine.NotificationInterval,
		AutoInstruct:         c.Engine.Instructed(),
	}
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used when no file is given: engine
// defaults only.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix MOVECOACH_ and underscore-separated paths:
//
//	MOVECOACH_SERVER_HOST, MOVECOACH_SERVER_PORT,
//	MOVECOACH_DB_HOST, MOVECOACH_DB_PORT, MOVECOACH_DB_NAME,
//	MOVECOACH_DB_USER, MOVECOACH_DB_PASSWORD, MOVECOACH_DB_SSLMODE,
//	MOVECOACH_AUTH_API_KEY,
//	MOVECOACH_TAILSCALE_ENABLED, MOVECOACH_TAILSCALE_HOSTNAME,
//	MOVECOACH_ENGINE_CONFIDENCE_THRESHOLD
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MOVECOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MOVECOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MOVECOACH_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("MOVECOACH_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("MOVECOACH_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("MOVECOACH_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("MOVECOACH_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MOVECOACH_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("MOVECOACH_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("MOVECOACH_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("MOVECOACH_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("MOVECOACH_ENGINE_CONFIDENCE_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.ConfidenceThreshold = threshold
		}
	}
}

func (c *Config) applyDefaults() {
	e := &c.Engine
	if e.ConfidenceThreshold == 0 {
		e.ConfidenceThreshold = exercise.DefaultConfidenceThreshold
	}
	if e.Tick == 0 {
		e.Tick = 100 * time.Millisecond
	}
	if e.StartDelay == 0 {
		e.StartDelay = 3 * time.Second
	}
	if e.NotificationInterval == 0 {
		e.NotificationInterval = time.Second
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "movecoach"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Server.SessionIdleTimeout == 0 {
		c.Server.SessionIdleTimeout = 10 * time.Minute
	}
}

func (c *Config) validate() error {
	e := c.Engine
	if e.ConfidenceThreshold <= 0 || e.ConfidenceThreshold >= 1 {
		return fmt.Errorf("engine.confidence_threshold must be in (0,1), got %v", e.ConfidenceThreshold)
	}
	if e.Tick < 0 || e.StartDelay < 0 || e.NotificationInterval < 0 {
		return fmt.Errorf("engine durations must not be negative")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must not be negative")
	}
	if c.Server.SessionIdleTimeout < 0 {
		return fmt.Errorf("server.session_idle_timeout must not be negative")
	}
	for key, ex := range c.Exercises {
		if ex.Repetitions < 0 || ex.Sets < 0 || ex.RepetitionDuration < 0 {
			return fmt.Errorf("exercises.%s: targets must not be negative", key)
		}
	}
	return nil
}

// ValidateServer checks the sections the HTTP service needs.
func (c *Config) ValidateServer() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	return nil
}
