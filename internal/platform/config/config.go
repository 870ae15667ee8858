// Package config loads runtime configuration from the environment so main
// stays lean.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// State backend names accepted by JML_STATE_BACKEND.
const (
	StateBackendFile     = "file"
	StateBackendPostgres = "postgres"
)

// Audit backend names accepted by JML_AUDIT_BACKEND.
const (
	AuditBackendMemory   = "memory"
	AuditBackendFile     = "file"
	AuditBackendPostgres = "postgres"
)

// Config holds runtime configuration for the server, worker, and CLI.
type Config struct {
	Addr         string        `envconfig:"JML_ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"JML_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"JML_WRITE_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"JML_LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"JML_LOG_LEVEL" default:"info"`

	PolicyDir        string `envconfig:"JML_POLICY_DIR" default:"config"`
	AccessMatrixPath string `envconfig:"JML_ACCESS_MATRIX" default:""`
	RoleMappingsPath string `envconfig:"JML_ROLE_MAPPINGS" default:""`

	StateBackend string `envconfig:"JML_STATE_BACKEND" default:"file"`
	StatePath    string `envconfig:"JML_STATE_PATH" default:"data/identity_state.json"`
	PostgresDSN  string `envconfig:"JML_PG_DSN" default:""`

	AuditBackend string `envconfig:"JML_AUDIT_BACKEND" default:"file"`
	AuditDir     string `envconfig:"JML_AUDIT_DIR" default:"data/audit"`

	// AuditAsync moves audit persistence onto a drain worker so workflow
	// steps never wait on the audit backend.
	AuditAsync  bool `envconfig:"JML_AUDIT_ASYNC" default:"false"`
	AuditBuffer int  `envconfig:"JML_AUDIT_BUFFER" default:"256"`

	RedisAddr string        `envconfig:"JML_REDIS_ADDR" default:""`
	DedupeTTL time.Duration `envconfig:"JML_DEDUPE_TTL" default:"24h"`

	// QueueEvents routes POST /events through the background queue instead
	// of executing workflows inline. Requires RedisAddr.
	QueueEvents       bool `envconfig:"JML_QUEUE_EVENTS" default:"false"`
	WorkerConcurrency int  `envconfig:"JML_WORKER_CONCURRENCY" default:"5"`
}

// Load reads configuration from the environment and validates the
// cross-field constraints envconfig cannot express.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("jml", &cfg); err != nil {
		return nil, jmlerrors.Wrap(err, jmlerrors.CodeConfiguration, "read environment")
	}

	switch cfg.StateBackend {
	case StateBackendFile, StateBackendPostgres:
	default:
		return nil, jmlerrors.Newf(jmlerrors.CodeConfiguration,
			"unknown state backend: %s", cfg.StateBackend)
	}
	if cfg.StateBackend == StateBackendPostgres && cfg.PostgresDSN == "" {
		return nil, jmlerrors.New(jmlerrors.CodeConfiguration,
			"postgres state backend requires JML_PG_DSN")
	}

	switch cfg.AuditBackend {
	case AuditBackendMemory, AuditBackendFile, AuditBackendPostgres:
	default:
		return nil, jmlerrors.Newf(jmlerrors.CodeConfiguration,
			"unknown audit backend: %s", cfg.AuditBackend)
	}
	if cfg.AuditBackend == AuditBackendPostgres && cfg.PostgresDSN == "" {
		return nil, jmlerrors.New(jmlerrors.CodeConfiguration,
			"postgres audit backend requires JML_PG_DSN")
	}

	if cfg.QueueEvents && cfg.RedisAddr == "" {
		return nil, jmlerrors.New(jmlerrors.CodeConfiguration,
			"queued execution requires JML_REDIS_ADDR")
	}

	return &cfg, nil
}

// MatrixPath returns the access matrix location, derived from PolicyDir when
// not set explicitly.
func (c *Config) MatrixPath() string {
	if c.AccessMatrixPath != "" {
		return c.AccessMatrixPath
	}
	return c.PolicyDir + "/access_matrix.yaml"
}

// MappingsPath returns the role mappings location, derived from PolicyDir
// when not set explicitly.
func (c *Config) MappingsPath() string {
	if c.RoleMappingsPath != "" {
		return c.RoleMappingsPath
	}
	return c.PolicyDir + "/role_mappings.yaml"
}
