package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the base YAML config, merges the environment-specific
// overlay, applies env-var overrides, and validates the result.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV overrides like SPOT_MONITOR_API_BASE_URL
	v.SetEnvPrefix("SPOT_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// Bare API_BASE_URL wins over everything, matching the original
	// frontend's environment override.
	if base := os.Getenv("API_BASE_URL"); base != "" {
		cfg.API.BaseURL = base
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "spot-monitor"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:5000"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 3600
	}
	if cfg.Session.Redis.Address == "" && cfg.Session.Backend == "redis" {
		cfg.Session.Redis.Address = "localhost:6379"
	}
	if len(cfg.Workflow.Channels) == 0 {
		cfg.Workflow.Channels = []string{"Tv - Derana", "Tv - Swarnavahini", "Tv - Hiru TV"}
	}
	if len(cfg.Workflow.Advertisers) == 0 {
		cfg.Workflow.Advertisers = []string{"Seylan Bank", "Singer", "cargills", "Lanka Lubricants Ltd"}
	}
	if cfg.Workflow.PreviewLimit == 0 {
		cfg.Workflow.PreviewLimit = 200
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9104"
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "http://localhost:14268/api/traces"
	}
}
