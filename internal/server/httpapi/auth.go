package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/restapi"
	"github.com/dmitrijs2005/spendwise/internal/server/services"
)

func authResponse(res *services.AuthResult) restapi.AuthResponse {
	return restapi.AuthResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(res.ExpiresIn.Seconds()),
		User: restapi.AuthUser{
			ID:           res.User.ID,
			Email:        res.User.Email,
			UserMetadata: restapi.UserMetadata{FullName: res.User.DisplayName},
		},
	}
}

func (r *Router) handleSignUp(w http.ResponseWriter, req *http.Request) {
	var body restapi.Credentials
	if err := decodeBody(w, req, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "bad_json")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required", "validation_failed")
		return
	}
	name := ""
	if body.Data != nil {
		name = body.Data.FullName
	}

	res, err := r.auth.SignUp(req.Context(), body.Email, body.Password, name)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyExists):
			writeError(w, http.StatusUnprocessableEntity, "User already registered", "user_already_exists")
		case errors.Is(err, common.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error(), "validation_failed")
		default:
			r.writeServiceError(req.Context(), w, err)
		}
		return
	}

	r.logger.Info(req.Context(), "user signed up", "email", res.User.Email)
	writeJSON(w, http.StatusOK, authResponse(res))
}

// handleToken serves the password grant. Bad credentials are a 400, as on
// the hosted backend.
func (r *Router) handleToken(w http.ResponseWriter, req *http.Request) {
	if gt := req.URL.Query().Get("grant_type"); gt != restapi.GrantTypePassword {
		writeError(w, http.StatusBadRequest, "unsupported grant_type", "unsupported_grant_type")
		return
	}

	var body restapi.Credentials
	if err := decodeBody(w, req, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "bad_json")
		return
	}

	res, err := r.auth.SignIn(req.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			writeError(w, http.StatusBadRequest, "Invalid login credentials", "invalid_credentials")
			return
		}
		r.writeServiceError(req.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse(res))
}
