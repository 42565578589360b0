package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/reqctx"
	"go-soft-delete/pkg/apierror"
)

const (
	deletedOnly    = "only"
	deletedInclude = "include"
)

// RecordHandler exposes the record service. Reads hide soft-deleted records
// unless ?deleted=only|include is passed by an actor allowed to browse them.
type RecordHandler struct {
	records *access.RecordService
	checker permission.Checker
}

func NewRecordHandler(records *access.RecordService, checker permission.Checker) *RecordHandler {
	return &RecordHandler{records: records, checker: checker}
}

type deleteManyRequest struct {
	Filter filter.Filter `json:"filter"`
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "collection")
	if err := h.authorize(r, uid, "read"); err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()
	f, err := h.readFilter(r, query.Get("where"), query.Get("deleted"))
	if err != nil {
		writeError(w, err)
		return
	}

	page := max(parseIntOrDefault(query.Get("page"), 1), 1)
	limit := parseIntOrDefault(query.Get("page_size"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	items, err := h.records.FindMany(r.Context(), uid, filter.Query{
		Filter:  f,
		Limit:   limit,
		Offset:  (page - 1) * limit,
		OrderBy: strings.TrimSpace(query.Get("sort")),
		Desc:    parseBool(query.Get("desc")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := h.records.Count(r.Context(), uid, f)
	if err != nil {
		writeError(w, err)
		return
	}

	meta := model.Meta{Page: page, Limit: limit, Total: int(total), TotalPages: int((total + int64(limit) - 1) / int64(limit))}
	writeSuccess(w, http.StatusOK, model.RecordListData{Items: items}, &meta)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "collection")
	if err := h.authorize(r, uid, "read"); err != nil {
		writeError(w, err)
		return
	}

	f, err := h.readFilter(r, "", r.URL.Query().Get("deleted"))
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.records.FindOne(r.Context(), uid, chi.URLParam(r, "id"), filter.Query{Filter: f})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rec, nil)
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "collection")
	if err := h.authorize(r, uid, "create"); err != nil {
		writeError(w, err)
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.records.Create(r.Context(), uid, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, rec, nil)
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "collection")
	if err := h.authorize(r, uid, "update"); err != nil {
		writeError(w, err)
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.records.Update(r.Context(), uid, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rec, nil)
}

// Delete soft-deletes the record and returns it with its new metadata.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "collection")
	if err := h.authorize(r, uid, "delete"); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.records.Delete(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rec, nil)
}

func (h *RecordHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "collection")
	if err := h.authorize(r, uid, "delete"); err != nil {
		writeError(w, err)
		return
	}

	var payload deleteManyRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := payload.Filter.Validate(); err != nil {
		writeError(w, fmt.Errorf("%w: %v", model.ErrInvalidInput, err))
		return
	}

	count, err := h.records.DeleteMany(r.Context(), uid, payload.Filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.DeleteManyData{Count: count}, nil)
}

func (h *RecordHandler) authorize(r *http.Request, uid, verb string) error {
	return permission.Authorize(h.checker, reqctx.Actor(r.Context()), permission.CollectionAction(uid, verb))
}

// readFilter parses the where parameter and applies the deleted mode. Any
// filter that reaches soft-deleted records needs the explorer read grant.
func (h *RecordHandler) readFilter(r *http.Request, rawWhere, deleted string) (filter.Filter, error) {
	var f filter.Filter
	if strings.TrimSpace(rawWhere) != "" {
		if err := json.Unmarshal([]byte(rawWhere), &f); err != nil {
			return filter.Filter{}, apierror.BadRequest("invalid where parameter", err.Error())
		}
		if err := f.Validate(); err != nil {
			return filter.Filter{}, apierror.BadRequest("invalid where parameter", err.Error())
		}
	}

	switch strings.ToLower(strings.TrimSpace(deleted)) {
	case "":
	case deletedOnly:
		f = f.With(filter.NotNull(model.FieldDeletedAt))
	case deletedInclude:
		if len(f.Any) > 0 {
			return filter.Filter{}, apierror.BadRequest("deleted=include cannot be combined with an any group", "")
		}
		f = f.WithAny(filter.IsNull(model.FieldDeletedAt), filter.NotNull(model.FieldDeletedAt))
	default:
		return filter.Filter{}, apierror.BadRequest("deleted must be only or include", deleted)
	}

	if f.Mentions(model.FieldDeletedAt) {
		if err := permission.Authorize(h.checker, reqctx.Actor(r.Context()), permission.ActionRead); err != nil {
			return filter.Filter{}, err
		}
	}
	return f, nil
}
