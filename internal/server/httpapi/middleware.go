package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/server/auth"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const (
	emailContextKey contextKey = "email"
	tableContextKey contextKey = "table"
)

func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		r.logger.Debug(req.Context(), "request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(req.Context()),
		)
	})
}

func (r *Router) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.anonKey != "" {
			key := req.Header.Get(common.APIKeyHeaderName)
			if subtle.ConstantTimeCompare([]byte(key), []byte(r.anonKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "Invalid API key", "invalid_api_key")
				return
			}
		}
		next.ServeHTTP(w, req)
	})
}

// authMiddleware requires a user token. The anonymous key is a valid
// bearer for the hosted backend but owns no rows here, so it is refused.
func (r *Router) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		authz := req.Header.Get(common.AuthorizationHeaderName)
		if !strings.HasPrefix(authz, common.BearerPrefix) {
			writeError(w, http.StatusUnauthorized, "missing bearer token", "PGRST301")
			return
		}
		token := strings.TrimPrefix(authz, common.BearerPrefix)

		email, err := r.auth.Authenticate(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "JWT expired"
			}
			writeError(w, http.StatusUnauthorized, msg, "PGRST301")
			return
		}

		ctx := context.WithValue(req.Context(), emailContextKey, email)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func tableMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		t := models.Table(chi.URLParam(req, "table"))
		if !t.Valid() {
			writeError(w, http.StatusNotFound, "relation \""+string(t)+"\" does not exist", "42P01")
			return
		}
		ctx := context.WithValue(req.Context(), tableContextKey, t)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func getEmail(ctx context.Context) string {
	if v, ok := ctx.Value(emailContextKey).(string); ok {
		return v
	}
	return ""
}

func getTable(ctx context.Context) models.Table {
	if v, ok := ctx.Value(tableContextKey).(models.Table); ok {
		return v
	}
	return ""
}
