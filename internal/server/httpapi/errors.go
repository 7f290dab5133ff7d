package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/restapi"
)

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, restapi.ErrorResponse{Message: msg, Code: code})
}

// writeServiceError maps a service error to a status. Unknown errors are
// logged and reported without detail.
func (r *Router) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "validation_failed")
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error(), "unauthorized")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "duplicate key value violates unique constraint", "23505")
	default:
		r.logger.Error(ctx, "request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
