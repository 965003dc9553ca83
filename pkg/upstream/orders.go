package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/calebmoura/lumiere-gateway/pkg/types"
	"github.com/shopspring/decimal"
)

// OrderItem is one submitted line: enough for the upstream to rebuild the
// line without re-querying the catalog synchronously.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ModelName string          `json:"modelName"`
	Image     string          `json:"image,omitempty"`
}

// CreateOrderRequest is the order-creation payload.
type CreateOrderRequest struct {
	Items           []OrderItem           `json:"items"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
}

// Order is an upstream order record. ID is server-assigned and is the only
// reference a confirmation may show.
type Order struct {
	ID              string                `json:"id"`
	Status          string                `json:"status"`
	Items           []OrderItem           `json:"items"`
	Total           decimal.Decimal       `json:"total"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// OrderPage is one page of the admin order listing.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
}

// CreateOrder submits a new order and returns the server-assigned record.
func (c *Client) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", token, nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListMyOrders returns the authenticated shopper's orders.
func (c *Client) ListMyOrders(ctx context.Context, token string) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, "/api/orders/my", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// GetOrder fetches a single order; the upstream enforces ownership.
func (c *Client) GetOrder(ctx context.Context, token, id string) (*Order, error) {
	var order Order
	if err := c.get(ctx, "/api/orders/"+url.PathEscape(id), token, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListAllOrders returns a page of every order (admin token required).
func (c *Client) ListAllOrders(ctx context.Context, token string, page, limit int) (*OrderPage, error) {
	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out OrderPage
	if err := c.get(ctx, "/api/orders", token, values, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus transitions an order (admin token required).
func (c *Client) UpdateOrderStatus(ctx context.Context, token, id, status string) (*Order, error) {
	body := map[string]string{"status": status}
	var order Order
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id)+"/status", token, nil, body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
