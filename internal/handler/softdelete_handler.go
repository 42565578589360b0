package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/reqctx"
	"go-soft-delete/internal/service"
	"go-soft-delete/internal/websocket"
)

type SoftDeleteHandler struct {
	explorer    *service.ExplorerService
	restore     *service.RestoreService
	purge       *service.PurgeService
	checker     permission.Checker
	hub         *websocket.Hub
	checkOrigin func(*http.Request) bool
}

func NewSoftDeleteHandler(
	explorer *service.ExplorerService,
	restore *service.RestoreService,
	purge *service.PurgeService,
	checker permission.Checker,
	hub *websocket.Hub,
	checkOrigin func(*http.Request) bool,
) *SoftDeleteHandler {
	return &SoftDeleteHandler{
		explorer:    explorer,
		restore:     restore,
		purge:       purge,
		checker:     checker,
		hub:         hub,
		checkOrigin: checkOrigin,
	}
}

func (h *SoftDeleteHandler) Collections(w http.ResponseWriter, r *http.Request) {
	items, err := h.explorer.Collections(reqctx.Actor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.CollectionListData{Items: items}, nil)
}

func (h *SoftDeleteHandler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	groups, meta, err := h.explorer.ListDeleted(r.Context(), service.DeletedQuery{
		Collection: strings.TrimSpace(query.Get("collection")),
		Search:     strings.TrimSpace(query.Get("search")),
		Page:       parseIntOrDefault(query.Get("page"), 1),
		PageSize:   parseIntOrDefault(query.Get("page_size"), 0),
	}, reqctx.Actor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.DeletedListData{Groups: groups}, &meta)
}

func (h *SoftDeleteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	result, err := h.restore.Restore(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"), reqctx.Actor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *SoftDeleteHandler) RestoreBulk(w http.ResponseWriter, r *http.Request) {
	var payload model.BulkRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.restore.RestoreBulk(r.Context(), payload.Items, reqctx.Actor(r.Context()))
	writeBulk(w, result, err)
}

// Purge requires ?confirm=true.
func (h *SoftDeleteHandler) Purge(w http.ResponseWriter, r *http.Request) {
	confirm := parseBool(r.URL.Query().Get("confirm"))

	result, err := h.purge.Purge(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"), reqctx.Actor(r.Context()), confirm)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *SoftDeleteHandler) PurgeBulk(w http.ResponseWriter, r *http.Request) {
	var payload model.BulkPurgeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	confirm := payload.Confirm || parseBool(r.URL.Query().Get("confirm"))
	result, err := h.purge.PurgeBulk(r.Context(), payload.Items, reqctx.Actor(r.Context()), confirm)
	writeBulk(w, result, err)
}

// Events streams lifecycle events to actors allowed to read the explorer.
func (h *SoftDeleteHandler) Events(w http.ResponseWriter, r *http.Request) {
	if err := permission.Authorize(h.checker, reqctx.Actor(r.Context()), permission.ActionRead); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Serve(w, r, h.checkOrigin)
}

// writeBulk reports a cancelled batch with its partial result; remaining
// items already carry the cancellation code.
func writeBulk(w http.ResponseWriter, result model.BulkOperationResult, err error) {
	cancelled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if err != nil && !(cancelled && len(result.Items) > 0) {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}
