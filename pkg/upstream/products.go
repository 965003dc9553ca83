package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the upstream.
type Product struct {
	ID            string           `json:"id"`
	Brand         string           `json:"brand,omitempty"`
	ModelName     string           `json:"modelName"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Image         string           `json:"image"`
	Stock         int              `json:"stock"`
}

// EffectivePrice is the price a shopper pays: the discount price when the
// vendor set one, the list price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// ProductQuery filters a catalog listing.
type ProductQuery struct {
	Search string
	Brand  string
	Page   int
	Limit  int
}

// Values renders the query for the upstream listing endpoint.
func (q ProductQuery) Values() url.Values {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Brand != "" {
		values.Set("brand", q.Brand)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values
}

// ProductPage is one page of catalog results.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// ListProducts fetches a catalog page. Public, no token required.
func (c *Client) ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	var page ProductPage
	if err := c.get(ctx, "/api/products", "", query.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct fetches a single catalog entry.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := c.get(ctx, "/api/products/"+url.PathEscape(id), "", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductInput is the admin payload for creating or updating a product.
type ProductInput struct {
	Brand         string           `json:"brand,omitempty"`
	ModelName     string           `json:"modelName"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Image         string           `json:"image"`
	Stock         int              `json:"stock"`
}

// CreateProduct adds a catalog entry (admin token required).
func (c *Client) CreateProduct(ctx context.Context, token string, input ProductInput) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodPost, "/api/products", token, nil, input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct replaces a catalog entry (admin token required).
func (c *Client) UpdateProduct(ctx context.Context, token, id string, input ProductInput) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), token, nil, input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a catalog entry (admin token required).
func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), token, nil, nil, nil)
}
