// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

type callerKey struct{}

func withCaller(ctx context.Context, c auth.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// callerFrom returns the caller resolved by the session middleware.
func callerFrom(ctx context.Context) auth.Caller {
	c, _ := ctx.Value(callerKey{}).(auth.Caller) //nolint:errcheck // zero value is anonymous
	return c
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// instrument wraps one route with a request id, a span, metrics and a log line.
func (h *Handler) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := h.now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.WithRequestID(r.Context(), id)

		ctx, span := tracer.Start(ctx, route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("request.id", id),
			),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(ctx))

		elapsed := h.now().Sub(start)
		span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
		h.metrics.ObserveRequest(r.Method, route, rec.status, elapsed)
		h.logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
			"remote", r.RemoteAddr,
		)
	})
}

// session resolves the caller from the session cookie and loads its
// permissions. An unverifiable cookie or a deleted user is anonymous.
func (h *Handler) session(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := h.sessions.Authenticate(r)
		if err != nil {
			h.logger.DebugContext(ctx, "ignoring invalid session cookie", "error", err)
		}

		if caller.IsAuthenticated() {
			perms, permErr := h.perms.GetPermissions(ctx, caller.UserID)
			switch {
			case errors.Is(permErr, auth.ErrNotFound):
				caller = auth.Anonymous()
			case permErr != nil:
				writeError(ctx, w, h.logger, permErr)
				return
			default:
				caller.Permissions = perms
			}
		}

		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("session.authenticated", caller.IsAuthenticated()))
		next(w, r.WithContext(withCaller(ctx, caller)))
	}
}
