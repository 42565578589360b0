package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"go-soft-delete/internal/reqctx"
)

const requestIDHeader = "X-Request-ID"

// Logging assigns a request id (kept from the caller when present), stores it
// in the request context and writes one access log line per request. The
// line's level follows the status class.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := reqctx.WithRequestID(r.Context(), requestID)
		rec := newRecorder(w, true)
		started := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int64("duration_ms", time.Since(started).Milliseconds()),
			slog.String("client_ip", extractClientIP(r)),
		}
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			attrs = append(attrs, slog.String("route", rctx.RoutePattern()))
		}
		if rec.status >= 400 {
			if r.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", r.URL.RawQuery))
			}
			attrs = append(attrs, errorAttrs(rec.body.Bytes())...)
		}

		level := slog.LevelInfo
		switch {
		case rec.status >= 500:
			level = slog.LevelError
		case rec.status >= 400:
			level = slog.LevelWarn
		}
		slog.LogAttrs(ctx, level, "http request", attrs...)
	})
}

// errorAttrs reads the error object of a JSON envelope.
func errorAttrs(body []byte) []slog.Attr {
	if len(body) == 0 {
		return nil
	}
	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("error_code", envelope.Error.Code),
		slog.String("error_message", envelope.Error.Message),
	}
}
