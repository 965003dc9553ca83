package controllers

import (
	"net/http"

	"github.com/calebmoura/lumiere-gateway/api/responses"
	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/pkg/config"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

// SessionCreate starts an anonymous storefront session. The id travels back
// both as a cookie and in the body so non-browser clients can use the
// X-Session-Id header instead.
func SessionCreate(authSvc auth.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		sess, err := authSvc.Create(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(cfg.TTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{SessionID: sess.ID})
	}
}
