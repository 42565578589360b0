package handler

import (
	"net/http"
	"strings"

	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/reqctx"
	"go-soft-delete/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
	checker permission.Checker
}

func NewAuditHandler(service *service.AuditService, checker permission.Checker) *AuditHandler {
	return &AuditHandler{service: service, checker: checker}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := permission.Authorize(h.checker, reqctx.Actor(r.Context()), permission.ActionAudit); err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()

	items, meta, err := h.service.Query(model.AuditQuery{
		Action:     strings.TrimSpace(query.Get("action")),
		ActorID:    strings.TrimSpace(query.Get("actor_id")),
		Collection: strings.TrimSpace(query.Get("collection")),
		From:       strings.TrimSpace(query.Get("from")),
		To:         strings.TrimSpace(query.Get("to")),
		Page:       parseIntOrDefault(query.Get("page"), 1),
		Limit:      parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}
