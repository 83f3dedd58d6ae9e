// Package config provides hierarchical configuration loading for Arbiter.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the Arbiter service.
type Config struct {
	Server    Server    `yaml:"server"`
	Postgres  Postgres  `yaml:"postgres"`
	NATS      NATS      `yaml:"nats"`
	Auth      Auth      `yaml:"auth"`
	Logging   Logging   `yaml:"logging"`
	Telemetry Telemetry `yaml:"telemetry"`
	Engine    Engine    `yaml:"engine"`
	Cache     Cache     `yaml:"cache"`
	MCP       MCP       `yaml:"mcp"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Postgres holds the decision journal connection configuration.
// An empty DSN disables the journal entirely.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// NATS holds NATS JetStream configuration. An empty URL disables messaging.
type NATS struct {
	URL string `yaml:"url"`
}

// Auth holds API authentication configuration. APIKeyHash is a bcrypt hash
// produced by `arbiter admin hash-key`; empty disables authentication.
type Auth struct {
	APIKeyHash string `yaml:"api_key_hash"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Telemetry holds OpenTelemetry export configuration. An empty endpoint
// disables export.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Engine holds decision engine configuration.
type Engine struct {
	// Capability descriptor for the surrounding agent.
	Autonomous    bool `yaml:"autonomous"`      // may decide without a confidence floor
	EvaluateRisk  bool `yaml:"evaluate_risk"`   // enables risk calibration diagnostics
	MaxComplexity int  `yaml:"max_complexity"`  // decision complexity rating

	MaxParallelEval int           `yaml:"max_parallel_eval"` // concurrent option evaluations
	StatsCacheTTL   time.Duration `yaml:"stats_cache_ttl"`

	Weights Weights `yaml:"weights"`
}

// Weights is the default criteria weighting, overridable per request.
type Weights struct {
	Benefit     float64 `yaml:"benefit"`
	Risk        float64 `yaml:"risk"`
	Feasibility float64 `yaml:"feasibility"`
	Speed       float64 `yaml:"speed"`
}

// Cache holds in-process cache configuration.
type Cache struct {
	MaxSizeMB int64 `yaml:"max_size_mb"`
}

// MCP holds Model Context Protocol server configuration. An empty addr
// disables the MCP server. APIKey is compared as a plain shared secret.
type MCP struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
		},
		Logging: Logging{
			Level:   "info",
			Service: "arbiter",
		},
		Engine: Engine{
			Autonomous:      true,
			EvaluateRisk:    true,
			MaxComplexity:   5,
			MaxParallelEval: 4,
			StatsCacheTTL:   2 * time.Second,
			Weights: Weights{
				Benefit:     0.4,
				Risk:        0.3,
				Feasibility: 0.2,
				Speed:       0.1,
			},
		},
		Cache: Cache{
			MaxSizeMB: 16,
		},
	}
}
