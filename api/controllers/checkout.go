package controllers

import (
	"net/http"

	"github.com/calebmoura/lumiere-gateway/api/responses"
	"github.com/calebmoura/lumiere-gateway/api/validators"
	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/internal/cart"
	checkoutsvc "github.com/calebmoura/lumiere-gateway/internal/checkout"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/calebmoura/lumiere-gateway/pkg/types"
)

type checkoutRequest struct {
	ShippingAddress types.ShippingAddress `json:"shippingAddress" validate:"required"`
}

// Checkout submits the session's cart as an order. The cart survives every
// failure so a retry needs no re-entry.
func Checkout(svc checkoutsvc.Service, carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sess := auth.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required"))
			return
		}

		store, err := carts.ForSession(r.Context(), sess.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, err := svc.Submit(r.Context(), sess, store, payload.ShippingAddress)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}
