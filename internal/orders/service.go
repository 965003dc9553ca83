package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/calebmoura/lumiere-gateway/internal/auth"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
)

var validStatuses = map[string]struct{}{
	"pending":    {},
	"processing": {},
	"shipped":    {},
	"delivered":  {},
	"cancelled":  {},
}

type orderAPI interface {
	ListMyOrders(ctx context.Context, token string) ([]upstream.Order, error)
	GetOrder(ctx context.Context, token, id string) (*upstream.Order, error)
	ListAllOrders(ctx context.Context, token string, page, limit int) (*upstream.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, token, id, status string) (*upstream.Order, error)
}

type tokenSource interface {
	ValidToken(ctx context.Context, sess *auth.Session) (string, error)
}

// Service exposes order history for shoppers and order management for
// admins. All data lives upstream; the gateway only enforces the admin role
// and basic input shape before forwarding.
type Service interface {
	ListMine(ctx context.Context, sess *auth.Session) ([]upstream.Order, error)
	Get(ctx context.Context, sess *auth.Session, orderID string) (*upstream.Order, error)
	ListAll(ctx context.Context, sess *auth.Session, page, limit int) (*upstream.OrderPage, error)
	UpdateStatus(ctx context.Context, sess *auth.Session, orderID, status string) (*upstream.Order, error)
}

type service struct {
	api    orderAPI
	tokens tokenSource
}

// NewService builds the orders service.
func NewService(api orderAPI, tokens tokenSource) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source required")
	}
	return &service{api: api, tokens: tokens}, nil
}

func (s *service) ListMine(ctx context.Context, sess *auth.Session) ([]upstream.Order, error) {
	token, err := s.tokens.ValidToken(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.api.ListMyOrders(ctx, token)
}

func (s *service) Get(ctx context.Context, sess *auth.Session, orderID string) (*upstream.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	token, err := s.tokens.ValidToken(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.api.GetOrder(ctx, token, orderID)
}

func (s *service) ListAll(ctx context.Context, sess *auth.Session, page, limit int) (*upstream.OrderPage, error) {
	token, err := s.adminToken(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.api.ListAllOrders(ctx, token, page, limit)
}

func (s *service) UpdateStatus(ctx context.Context, sess *auth.Session, orderID, status string) (*upstream.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	normalized := strings.ToLower(strings.TrimSpace(status))
	if _, ok := validStatuses[normalized]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": status})
	}
	token, err := s.adminToken(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.api.UpdateOrderStatus(ctx, token, orderID, normalized)
}

func (s *service) adminToken(ctx context.Context, sess *auth.Session) (string, error) {
	if !sess.IsAdmin() {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return s.tokens.ValidToken(ctx, sess)
}
