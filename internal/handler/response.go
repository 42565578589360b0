package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go-soft-delete/internal/model"
	"go-soft-delete/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{model.ErrNotFound, http.StatusNotFound, "Record not found"},
	{model.ErrCollectionNotFound, http.StatusNotFound, "Collection not found"},
	{model.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{model.ErrNotSoftDeleted, http.StatusConflict, "Record is not soft-deleted"},
	{model.ErrNotDeleted, http.StatusConflict, "Record is not deleted"},
	{model.ErrSoftDeleteDisabled, http.StatusUnprocessableEntity, "Soft delete is disabled for this collection"},
	{model.ErrConfirmationRequired, http.StatusBadRequest, "Purge requires confirm=true"},
	{model.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{model.ErrUnauthorized, http.StatusUnauthorized, "Authentication required"},
	{model.ErrForbidden, http.StatusForbidden, "Access denied"},
	{model.ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "Request timed out"},
	{context.Canceled, http.StatusServiceUnavailable, "Request cancelled"},
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "STORAGE_FAILURE",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if m, ok := lookupError(err); ok {
		status = m.status
		body.Code = model.ErrorCode(err)
		body.Message = m.message
		if status != http.StatusUnauthorized && status != http.StatusForbidden {
			body.Details = err.Error()
		}
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func lookupError(err error) (errorMapping, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return errorMapping{}, false
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.BadRequest("invalid JSON body", err.Error())
	}
	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
