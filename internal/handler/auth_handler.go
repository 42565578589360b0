package handler

import (
	"net/http"
	"strings"

	"go-soft-delete/internal/model"
	"go-soft-delete/internal/reqctx"
	"go-soft-delete/internal/service"
	"go-soft-delete/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(payload.Username) == "" || payload.Password == "" {
		writeError(w, apierror.BadRequest("username and password are required", ""))
		return
	}

	tokens, err := h.service.Login(payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := reqctx.Actor(r.Context())
	if actor == nil {
		writeError(w, model.ErrUnauthorized)
		return
	}

	user, err := h.service.GetUserByID(actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}
