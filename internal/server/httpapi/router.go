// Package httpapi serves the REST surface of the development backend. It
// speaks the subset of the PostgREST and GoTrue protocols that the
// SpendWise client uses, so the client can run against it unchanged.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/spendwise/internal/logging"
	"github.com/dmitrijs2005/spendwise/internal/restapi"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/dmitrijs2005/spendwise/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxRequestBytes = 1 << 20

// Auth is the account side of the backend.
type Auth interface {
	SignUp(ctx context.Context, email, password, displayName string) (*services.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*services.AuthResult, error)
	Authenticate(token string) (string, error)
}

// Records is the owner-scoped record store.
type Records interface {
	List(ctx context.Context, owner string, t models.Table, f models.Filter) ([]models.Record, error)
	Create(ctx context.Context, owner string, t models.Table, rec *models.Record) error
	Update(ctx context.Context, owner string, t models.Table, f models.Filter, p models.Patch) (int64, error)
	Delete(ctx context.Context, owner string, t models.Table, f models.Filter) (int64, error)
}

type Router struct {
	auth    Auth
	records Records
	anonKey string
	logger  logging.Logger
}

// NewRouter builds the handler. When anonKey is empty the apikey header is
// not checked.
func NewRouter(auth Auth, records Records, anonKey string, logger logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	r := &Router{auth: auth, records: records, anonKey: anonKey, logger: logger.With("component", "httpapi")}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(r.logRequests)
	mux.Use(middleware.Recoverer)

	mux.Get("/health", r.handleHealth)

	mux.Group(func(pr chi.Router) {
		pr.Use(r.apiKeyMiddleware)
		pr.Get("/"+restapi.PathHealth, r.handleHealth)
		pr.Post("/"+restapi.PathSignUp, r.handleSignUp)
		pr.Post("/"+restapi.PathToken, r.handleToken)

		pr.Route("/"+restapi.PathRest+"/{table}", func(rr chi.Router) {
			rr.Use(r.authMiddleware)
			rr.Use(tableMiddleware)
			rr.Get("/", r.handleList)
			rr.Post("/", r.handleCreate)
			rr.Patch("/", r.handleUpdate)
			rr.Delete("/", r.handleDelete)
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
