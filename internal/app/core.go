package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/config"
	"go-soft-delete/internal/database"
	"go-soft-delete/internal/event"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/registry"
	"go-soft-delete/internal/service"
	"go-soft-delete/internal/softdelete"
	"go-soft-delete/internal/storage"
)

// Core is the soft-delete stack shared by the server and the CLI: registry,
// store, both access layers, the decoration guard and the services on top.
type Core struct {
	Registry  *registry.Registry
	DB        *database.DB
	Store     storage.Store
	Query     *access.QueryLayer
	Records   *access.RecordService
	Guard     *softdelete.Guard
	Bus       *event.InMemoryBus
	Checker   permission.Checker
	Audit     *service.AuditService
	Restore   *service.RestoreService
	Purge     *service.PurgeService
	Explorer  *service.ExplorerService
	Retention *service.RetentionService
}

// Bootstrap loads the registry, annotates it, connects storage and decorates
// every enabled collection. It fails when any enabled collection ends up
// without captured primitives.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Core, error) {
	reg, err := registry.LoadFile(cfg.CollectionsFile)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	if len(cfg.EnabledCollections) > 0 {
		reg.Allow(cfg.EnabledCollections)
	}
	annotated := reg.Annotate()
	logger.Info("collections annotated", "total", len(reg.All()), "soft_delete", len(annotated))

	core := &Core{Registry: reg}

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; records are kept in memory")
		core.Store = storage.NewMemoryStore()
	} else {
		if err := database.Migrate(cfg.DatabaseURL, 0); err != nil {
			return nil, err
		}
		db, err := database.New(ctx, cfg.DatabaseURL, database.PoolOptions{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			logger.Warn("database pool metrics not registered", "error", err)
		}
		core.DB = db
		core.Store = storage.NewPostgresStore(db.Pool)
	}
	if cfg.CacheSize > 0 {
		core.Store = storage.NewCachedStore(core.Store, cfg.CacheSize, cfg.CacheTTL)
	}

	core.Bus = event.NewBus()
	core.Audit, err = service.NewAuditService(logger, core.Bus, cfg.AuditLogFile)
	if err != nil {
		core.Close()
		return nil, err
	}

	core.Query = access.NewQueryLayer(core.Store, reg)
	core.Records = access.NewRecordService(core.Query, reg)

	policy := softdelete.NewPolicy(reg, softdelete.WithObserver(core.Audit))
	core.Guard = softdelete.NewGuard(policy, core.Query, core.Records)
	decorated, err := core.Guard.DecorateAll()
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("decorate collections: %w", err)
	}
	if err := core.Guard.Verify(); err != nil {
		core.Close()
		return nil, fmt.Errorf("verify soft delete decoration: %w", err)
	}
	logger.Info("soft delete installed", "decorations", decorated)

	core.Checker = permission.NewRoleChecker(nil, cfg.AllowUnauthenticated)
	core.Restore = service.NewRestoreService(core.Guard, core.Checker, core.Audit, cfg.BulkMaxItems)
	core.Purge = service.NewPurgeService(core.Guard, core.Checker, core.Audit, cfg.BulkMaxItems)
	core.Explorer = service.NewExplorerService(reg, core.Records, core.Checker)
	core.Retention = service.NewRetentionService(reg, core.Guard, core.Audit, cfg.Retention())

	return core, nil
}

func (c *Core) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
}
