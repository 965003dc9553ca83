package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/calebmoura/lumiere-gateway/api/responses"
	"github.com/calebmoura/lumiere-gateway/api/validators"
	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/internal/cart"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
)

type addItemRequest struct {
	ID            string           `json:"id" validate:"required"`
	Brand         string           `json:"brand,omitempty"`
	ModelName     string           `json:"modelName" validate:"required"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Image         string           `json:"image,omitempty"`
	Quantity      int              `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Stock         *int             `json:"stock,omitempty"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartView struct {
	Cart       []cart.LineItem `json:"cart"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func newCartView(store *cart.Store) cartView {
	items, totalItems, totalPrice := store.View()
	return cartView{
		Cart:       items,
		TotalItems: totalItems,
		TotalPrice: totalPrice,
	}
}

// CartFetch returns the rehydrated cart for the session.
func CartFetch(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartAddItem adds a line or merges quantity into an existing one. Desired
// quantity is clamped to the stock hint here; the store itself never
// validates stock.
func CartAddItem(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Price.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative"))
			return
		}

		quantity := payload.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if payload.Stock != nil && quantity > *payload.Stock {
			quantity = *payload.Stock
		}
		if quantity <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeOutOfStock, "item is out of stock").
				WithDetails(map[string]any{"product_id": payload.ID}))
			return
		}

		store.Add(cart.LineItem{
			ID:            payload.ID,
			Brand:         payload.Brand,
			ModelName:     payload.ModelName,
			Price:         payload.Price,
			DiscountPrice: payload.DiscountPrice,
			Image:         payload.Image,
			Quantity:      quantity,
			Stock:         payload.Stock,
		})

		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartUpdateItem sets the quantity for an existing line; zero or a negative
// value removes it.
func CartUpdateItem(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.SetQuantity(id, payload.Quantity)
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartRemoveItem deletes a line; an unknown id is a no-op.
func CartRemoveItem(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		store.Remove(id)
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartClear empties the cart.
func CartClear(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.Clear()
		responses.WriteSuccess(w, newCartView(store))
	}
}

func storeForRequest(r *http.Request, carts *cart.Manager) (*cart.Store, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable")
	}
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return carts.ForSession(r.Context(), sess.ID)
}
