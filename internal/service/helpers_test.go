package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/event"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/registry"
	"go-soft-delete/internal/reqctx"
	"go-soft-delete/internal/softdelete"
	"go-soft-delete/internal/storage"
)

const (
	articles = "api::article.article"
	tags     = "api::tag.tag"
	logs     = "api::log.log"
)

var (
	adminActor  = &model.Actor{ID: "7", Username: "admin", Role: "admin", Kind: model.ActorKindAdmin}
	editorActor = &model.Actor{ID: "8", Username: "editor", Role: "editor"}
	viewerActor = &model.Actor{ID: "9", Username: "viewer", Role: "viewer"}
)

type countingChecker struct {
	permission.Checker
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingChecker) HasPermission(actor *model.Actor, action string) bool {
	c.mu.Lock()
	c.calls[action]++
	c.mu.Unlock()
	return c.Checker.HasPermission(actor, action)
}

type env struct {
	reg       *registry.Registry
	store     *storage.MemoryStore
	records   *access.RecordService
	guard     *softdelete.Guard
	bus       *event.InMemoryBus
	checker   *countingChecker
	audit     *AuditService
	restore   *RestoreService
	purge     *PurgeService
	explorer  *ExplorerService
	retention *RetentionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithStore(t, nil)
}

// newEnvWithStore lets a test put wrap between the layers and the memory
// store, for example to inject a concurrent write.
func newEnvWithStore(t *testing.T, wrap func(*storage.MemoryStore) storage.Store) *env {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(model.Collection{UID: articles, DisplayName: "Article",
		Attributes: map[string]model.Attribute{"title": {Type: "string"}}}))
	require.NoError(t, reg.Register(model.Collection{UID: tags, DisplayName: "Tag",
		Attributes: map[string]model.Attribute{"name": {Type: "string"}}}))
	require.NoError(t, reg.Register(model.Collection{UID: logs, DisplayName: "Log"}))
	reg.OptOut(logs)
	reg.Annotate()

	store := storage.NewMemoryStore()
	var backend storage.Store = store
	if wrap != nil {
		backend = wrap(store)
	}
	query := access.NewQueryLayer(backend, reg)
	records := access.NewRecordService(query, reg)

	bus := event.NewBus()
	audit, err := NewAuditService(slog.Default(), bus, "")
	require.NoError(t, err)

	guard := softdelete.NewGuard(softdelete.NewPolicy(reg, softdelete.WithObserver(audit)), query, records)
	_, err = guard.DecorateAll()
	require.NoError(t, err)
	require.NoError(t, guard.Verify())

	checker := &countingChecker{Checker: permission.NewRoleChecker(nil, false), calls: map[string]int{}}

	return &env{
		reg:       reg,
		store:     store,
		records:   records,
		guard:     guard,
		bus:       bus,
		checker:   checker,
		audit:     audit,
		restore:   NewRestoreService(guard, checker, audit, 10),
		purge:     NewPurgeService(guard, checker, audit, 10),
		explorer:  NewExplorerService(reg, records, checker),
		retention: NewRetentionService(reg, guard, audit, 30*24*time.Hour),
	}
}

func actorCtx(actor *model.Actor) context.Context {
	return reqctx.WithActor(context.Background(), actor)
}

func (e *env) create(t *testing.T, uid string, data map[string]any) model.Record {
	t.Helper()
	rec, err := e.records.Create(actorCtx(adminActor), uid, data)
	require.NoError(t, err)
	return rec
}

func (e *env) softDelete(t *testing.T, uid, id string) {
	t.Helper()
	_, err := e.records.Delete(actorCtx(adminActor), uid, id)
	require.NoError(t, err)
}
