// Package app assembles the lifecycle engine from configuration. The server,
// worker, and CLI all bootstrap through here so wiring lives in one place.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/audit/worker"
	"github.com/Raoof128/ILAE/internal/connector"
	"github.com/Raoof128/ILAE/internal/ingestion"
	"github.com/Raoof128/ILAE/internal/platform/config"
	"github.com/Raoof128/ILAE/internal/platform/metrics"
	"github.com/Raoof128/ILAE/internal/policy"
	"github.com/Raoof128/ILAE/internal/service"
	"github.com/Raoof128/ILAE/internal/state"
	"github.com/Raoof128/ILAE/internal/workflow"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// App holds the assembled components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Policy    *policy.Resolver
	State     *state.Store
	Trail     *audit.Trail
	Service   *service.Service
	Ingestion *ingestion.Registry
	Redis     *redis.Client

	// AuditDrain is non-nil when async audit persistence is enabled; the
	// host process must run it.
	AuditDrain *worker.Worker

	auditChannel *worker.ChannelStore
	db           *sql.DB
}

// New assembles all components from configuration. The simulated connector
// registry stands in for real IAM integrations.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector())
	a.Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	resolver, err := policy.NewResolver(cfg.MatrixPath(), cfg.MappingsPath(), logger)
	if err != nil {
		return nil, err
	}
	a.Policy = resolver

	if cfg.StateBackend == config.StateBackendPostgres || cfg.AuditBackend == config.AuditBackendPostgres {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, jmlerrors.Wrap(err, jmlerrors.CodeConfiguration, "open postgres")
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, jmlerrors.Wrap(err, jmlerrors.CodeUnavailable, "ping postgres")
		}
		a.db = db
	}

	snapshotter, err := a.buildSnapshotter(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.State = state.NewStore(ctx, snapshotter, logger)

	auditStore, err := a.buildAuditStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.AuditAsync {
		channelStore, drain := worker.Buffered(auditStore, cfg.AuditBuffer, logger)
		a.auditChannel = channelStore
		a.AuditDrain = drain
		auditStore = channelStore
	}
	a.Trail = audit.NewTrail(auditStore, logger)

	if cfg.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	deps := workflow.Deps{
		Policy:   a.Policy,
		State:    a.State,
		Executor: workflow.NewStepExecutor(connector.NewSimulatedRegistry(), logger, a.Metrics),
		Audit:    a.Trail,
		Logger:   logger,
		Metrics:  a.Metrics,
	}

	var dedupe service.DedupeStore
	if a.Redis != nil {
		dedupe = service.NewRedisDedupe(a.Redis, cfg.DedupeTTL)
	} else {
		dedupe = service.NewMemoryDedupe(cfg.DedupeTTL)
	}
	a.Service = service.New(deps, dedupe, logger, a.Metrics)
	a.Ingestion = ingestion.NewRegistry(logger)

	return a, nil
}

func (a *App) buildSnapshotter(ctx context.Context) (state.Snapshotter, error) {
	switch a.Config.StateBackend {
	case config.StateBackendPostgres:
		return state.NewPostgresSnapshotter(ctx, a.db)
	default:
		return state.NewFileSnapshotter(a.Config.StatePath)
	}
}

func (a *App) buildAuditStore(ctx context.Context) (audit.Store, error) {
	switch a.Config.AuditBackend {
	case config.AuditBackendPostgres:
		return audit.NewPostgresStore(ctx, a.db)
	case config.AuditBackendMemory:
		return audit.NewInMemoryStore(), nil
	default:
		return audit.NewFileStore(a.Config.AuditDir)
	}
}

// Close releases held connections and stops accepting audit writes.
func (a *App) Close() {
	if a.auditChannel != nil {
		a.auditChannel.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// ShutdownTimeout bounds graceful server shutdown.
const ShutdownTimeout = 10 * time.Second
