package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/event"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/registry"
	"go-soft-delete/internal/reqctx"
	"go-soft-delete/internal/service"
	"go-soft-delete/internal/softdelete"
	"go-soft-delete/internal/storage"
	"go-soft-delete/internal/websocket"
)

const (
	articles      = "api::article.article"
	articlesPath  = "/api/v1/collections/" + articles + "/records"
	softDeleteAPI = "/api/v1/soft-delete"
)

var roles = map[string]*model.Actor{
	"admin":  {ID: "1", Username: "root", Role: "admin", Kind: model.ActorKindAdmin},
	"editor": {ID: "2", Username: "ed", Role: "editor", Kind: model.ActorKindAdmin},
	"viewer": {ID: "3", Username: "vi", Role: "viewer", Kind: model.ActorKindAdmin},
}

type testServer struct {
	handler http.Handler
	records *access.RecordService
}

// withRole stands in for bearer authentication in handler tests.
func withRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := roles[r.Header.Get("X-Test-Role")]; ok {
			r = r.WithContext(reqctx.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(model.Collection{UID: articles, DisplayName: "Article",
		Attributes: map[string]model.Attribute{"title": {Type: "string"}}}))
	reg.Annotate()

	store := storage.NewMemoryStore()
	query := access.NewQueryLayer(store, reg)
	records := access.NewRecordService(query, reg)
	bus := event.NewBus()
	audit, err := service.NewAuditService(slog.Default(), bus, "")
	require.NoError(t, err)

	guard := softdelete.NewGuard(softdelete.NewPolicy(reg, softdelete.WithObserver(audit)), query, records)
	_, err = guard.DecorateAll()
	require.NoError(t, err)

	checker := permission.NewRoleChecker(nil, false)
	sd := NewSoftDeleteHandler(
		service.NewExplorerService(reg, records, checker),
		service.NewRestoreService(guard, checker, audit, 10),
		service.NewPurgeService(guard, checker, audit, 10),
		checker,
		websocket.NewHub(bus),
		func(*http.Request) bool { return true },
	)
	rh := NewRecordHandler(records, checker)

	r := chi.NewRouter()
	r.Use(withRole)
	r.Route(softDeleteAPI, func(r chi.Router) {
		r.Get("/collections", sd.Collections)
		r.Get("/deleted", sd.ListDeleted)
		r.Post("/restore/{collection}/{id}", sd.Restore)
		r.Post("/restore-bulk", sd.RestoreBulk)
		r.Delete("/purge/{collection}/{id}", sd.Purge)
		r.Delete("/purge-bulk", sd.PurgeBulk)
	})
	r.Route("/api/v1/collections/{collection}/records", func(r chi.Router) {
		r.Get("/", rh.List)
		r.Post("/", rh.Create)
		r.Post("/delete-many", rh.DeleteMany)
		r.Get("/{id}", rh.Get)
		r.Put("/{id}", rh.Update)
		r.Delete("/{id}", rh.Delete)
	})

	return &testServer{handler: r, records: records}
}

func (s *testServer) seed(t *testing.T, id, title string) {
	t.Helper()
	_, err := s.records.Create(context.Background(), articles, map[string]any{"id": id, "title": title})
	require.NoError(t, err)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func (s *testServer) do(t *testing.T, role, method, target string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
