package config

import "fmt"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	API      APIConfig      `mapstructure:"api"`
	Session  SessionConfig  `mapstructure:"session"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig points the gateway client at the processing service.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds, 0 = no client timeout
}

// SessionConfig selects and tunes the workflow state store backend.
type SessionConfig struct {
	Backend string      `mapstructure:"backend"` // "memory" or "redis"
	TTL     int         `mapstructure:"ttl"`     // seconds a session's keys live in redis
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkflowConfig carries the reference lists offered by the extract step
// and the preview row limit used by the stub service.
type WorkflowConfig struct {
	Channels     []string `mapstructure:"channels"`
	Advertisers  []string `mapstructure:"advertisers"`
	PreviewLimit int      `mapstructure:"preview_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // jaeger collector endpoint
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.backend must be \"memory\" or \"redis\", got %q", c.Session.Backend)
	}
	if c.Session.Backend == "redis" && c.Session.Redis.Address == "" {
		return fmt.Errorf("session.redis.address is required when session.backend is redis")
	}
	if c.Workflow.PreviewLimit < 0 {
		return fmt.Errorf("workflow.preview_limit must not be negative")
	}
	return nil
}
