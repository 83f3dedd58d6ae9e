package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "arbiter.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "ARBITER_PORT")
	setString(&cfg.Server.CORSOrigin, "ARBITER_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ARBITER_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ARBITER_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ARBITER_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ARBITER_PG_MAX_CONN_IDLE_TIME")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Auth.APIKeyHash, "ARBITER_API_KEY_HASH")
	setString(&cfg.Logging.Level, "ARBITER_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ARBITER_LOG_SERVICE")
	setString(&cfg.Telemetry.OTLPEndpoint, "ARBITER_OTLP_ENDPOINT")
	setBool(&cfg.Engine.Autonomous, "ARBITER_ENGINE_AUTONOMOUS")
	setBool(&cfg.Engine.EvaluateRisk, "ARBITER_ENGINE_EVALUATE_RISK")
	setInt(&cfg.Engine.MaxComplexity, "ARBITER_ENGINE_MAX_COMPLEXITY")
	setInt(&cfg.Engine.MaxParallelEval, "ARBITER_ENGINE_MAX_PARALLEL_EVAL")
	setDuration(&cfg.Engine.StatsCacheTTL, "ARBITER_ENGINE_STATS_CACHE_TTL")
	setFloat64(&cfg.Engine.Weights.Benefit, "ARBITER_WEIGHT_BENEFIT")
	setFloat64(&cfg.Engine.Weights.Risk, "ARBITER_WEIGHT_RISK")
	setFloat64(&cfg.Engine.Weights.Feasibility, "ARBITER_WEIGHT_FEASIBILITY")
	setFloat64(&cfg.Engine.Weights.Speed, "ARBITER_WEIGHT_SPEED")
	setInt64(&cfg.Cache.MaxSizeMB, "ARBITER_CACHE_MAX_SIZE_MB")
	setString(&cfg.MCP.Addr, "ARBITER_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "ARBITER_MCP_API_KEY")
}

// validate checks that required fields are set and sane.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Engine.MaxParallelEval < 1 {
		return errors.New("engine.max_parallel_eval must be >= 1")
	}
	w := cfg.Engine.Weights
	if w.Benefit < 0 || w.Risk < 0 || w.Feasibility < 0 || w.Speed < 0 {
		return errors.New("engine.weights must be non-negative")
	}
	if cfg.Cache.MaxSizeMB < 1 {
		return errors.New("cache.max_size_mb must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
