package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/calebmoura/lumiere-gateway/api/responses"
	"github.com/calebmoura/lumiere-gateway/api/validators"
	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/internal/catalog"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
)

type productRequest struct {
	Brand         string           `json:"brand,omitempty"`
	ModelName     string           `json:"modelName" validate:"required"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Image         string           `json:"image,omitempty"`
	Stock         int              `json:"stock" validate:"min=0"`
}

func (p productRequest) toInput() upstream.ProductInput {
	return upstream.ProductInput{
		Brand:         p.Brand,
		ModelName:     p.ModelName,
		Description:   p.Description,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Image:         p.Image,
		Stock:         p.Stock,
	}
}

// AdminProductCreate forwards a new catalog entry upstream.
func AdminProductCreate(svc catalog.Service, authSvc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := adminTokenFromRequest(r, authSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Price.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative"))
			return
		}

		product, err := svc.Create(r.Context(), token, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminProductUpdate forwards a catalog replacement upstream.
func AdminProductUpdate(svc catalog.Service, authSvc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := adminTokenFromRequest(r, authSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), token, chi.URLParam(r, "id"), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminProductDelete removes a catalog entry upstream.
func AdminProductDelete(svc catalog.Service, authSvc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := adminTokenFromRequest(r, authSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), token, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func adminTokenFromRequest(r *http.Request, authSvc auth.Service) (string, error) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return authSvc.ValidToken(r.Context(), sess)
}
