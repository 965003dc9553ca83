package checkout

import (
	"context"
	"fmt"

	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/internal/cart"
	"github.com/calebmoura/lumiere-gateway/pkg/config"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/calebmoura/lumiere-gateway/pkg/metrics"
	"github.com/calebmoura/lumiere-gateway/pkg/types"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
	"github.com/shopspring/decimal"
)

type orderCreator interface {
	CreateOrder(ctx context.Context, token string, req upstream.CreateOrderRequest) (*upstream.Order, error)
	GetProduct(ctx context.Context, id string) (*upstream.Product, error)
}

type tokenSource interface {
	ValidToken(ctx context.Context, sess *auth.Session) (string, error)
}

// Confirmation references the server-assigned order, never a client id.
type Confirmation struct {
	OrderID    string          `json:"order_id"`
	Status     string          `json:"status"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Service submits the cart as an order. The cart is cleared only after the
// upstream confirms; every failure path, including a request aborted by the
// shopper navigating away, leaves the cart exactly as it was so a retry
// needs no re-entry.
type Service interface {
	Submit(ctx context.Context, sess *auth.Session, store *cart.Store, address types.ShippingAddress) (*Confirmation, error)
}

type service struct {
	api        orderCreator
	tokens     tokenSource
	revalidate bool
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	API     orderCreator
	Tokens  tokenSource
	Config  config.CheckoutConfig
	Logger  *logger.Logger
	Metrics *metrics.CheckoutMetrics
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.API == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token source required")
	}
	return &service{
		api:        params.API,
		tokens:     params.Tokens,
		revalidate: params.Config.Revalidate,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

func (s *service) Submit(ctx context.Context, sess *auth.Session, store *cart.Store, address types.ShippingAddress) (*Confirmation, error) {
	if store == nil || !store.Ready() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart is not ready")
	}

	items, totalItems, totalPrice := store.View()
	if len(items) == 0 {
		s.metrics.IncSubmission("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if address.IsZero() {
		s.metrics.IncSubmission("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}

	token, err := s.tokens.ValidToken(ctx, sess)
	if err != nil {
		s.metrics.IncSubmission("unauthorized")
		return nil, err
	}

	if s.revalidate {
		if err := s.revalidateItems(ctx, items); err != nil {
			s.metrics.IncSubmission("revalidation_failed")
			return nil, err
		}
	}

	request := upstream.CreateOrderRequest{
		Items:           make([]upstream.OrderItem, 0, len(items)),
		ShippingAddress: address,
	}
	for _, item := range items {
		request.Items = append(request.Items, upstream.OrderItem{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice(),
			ModelName: item.ModelName,
			Image:     item.Image,
		})
	}

	order, err := s.api.CreateOrder(ctx, token, request)
	if err != nil {
		s.metrics.IncSubmission("failed")
		return nil, err
	}

	store.Clear()
	s.metrics.IncSubmission("success")

	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"order_id":    order.ID,
			"total_items": totalItems,
		})
		s.logg.Info(lctx, "checkout.submitted")
	}

	return &Confirmation{
		OrderID:    order.ID,
		Status:     order.Status,
		TotalItems: totalItems,
		TotalPrice: totalPrice,
	}, nil
}

// revalidateItems re-reads each product so price drift and stock shortfalls
// fail the submission instead of silently shipping stale data.
func (s *service) revalidateItems(ctx context.Context, items []cart.LineItem) error {
	for _, item := range items {
		product, err := s.api.GetProduct(ctx, item.ID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return pkgerrors.New(pkgerrors.CodeOutOfStock, "product is no longer available").
					WithDetails(map[string]any{"product_id": item.ID})
			}
			return err
		}
		if product.Stock < item.Quantity {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock for "+item.ModelName).
				WithDetails(map[string]any{
					"product_id": item.ID,
					"requested":  item.Quantity,
					"available":  product.Stock,
				})
		}
		if !product.EffectivePrice().Equal(item.UnitPrice()) {
			return pkgerrors.New(pkgerrors.CodePriceChanged, "price changed for "+item.ModelName).
				WithDetails(map[string]any{
					"product_id":    item.ID,
					"cart_price":    item.UnitPrice(),
					"current_price": product.EffectivePrice(),
				})
		}
	}
	return nil
}
