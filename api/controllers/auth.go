package controllers

import (
	"net/http"

	"github.com/calebmoura/lumiere-gateway/api/responses"
	"github.com/calebmoura/lumiere-gateway/api/validators"
	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/internal/cart"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// AuthLogin exchanges credentials for an upstream token on the current
// session.
func AuthLogin(authSvc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := authSvc.Login(r.Context(), sess.ID, payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profileResponse{
			UserID: updated.UserID,
			Name:   updated.Name,
			Email:  updated.Email,
			Role:   updated.Role,
		})
	}
}

// AuthLogout revokes the session and drops its in-memory cart store. The
// persisted cart record stays for the shopper's next visit.
func AuthLogout(authSvc auth.Service, carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required"))
			return
		}

		if err := authSvc.Logout(r.Context(), sess.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if carts != nil {
			carts.Drop(sess.ID)
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthProfile returns the live upstream profile for the session.
func AuthProfile(authSvc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required"))
			return
		}

		user, err := authSvc.Profile(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profileResponse{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
		})
	}
}
