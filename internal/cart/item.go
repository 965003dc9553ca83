package cart

import "github.com/shopspring/decimal"

// LineItem is one product entry in the cart. Price is captured when the item
// is added and is not refreshed afterwards; stock is a hint for the UI, not
// enforced here.
type LineItem struct {
	ID            string           `json:"id"`
	Brand         string           `json:"brand,omitempty"`
	ModelName     string           `json:"modelName"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Image         string           `json:"image"`
	Quantity      int              `json:"quantity"`
	Stock         *int             `json:"stock,omitempty"`
}

// UnitPrice returns the price used in totals: the discount price when one is
// present, the list price otherwise.
func (li LineItem) UnitPrice() decimal.Decimal {
	if li.DiscountPrice != nil {
		return *li.DiscountPrice
	}
	return li.Price
}

// Subtotal is UnitPrice times quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func cloneItem(item LineItem) LineItem {
	if item.DiscountPrice != nil {
		price := *item.DiscountPrice
		item.DiscountPrice = &price
	}
	if item.Stock != nil {
		stock := *item.Stock
		item.Stock = &stock
	}
	return item
}

func cloneItems(items []LineItem) []LineItem {
	cloned := make([]LineItem, len(items))
	for i, item := range items {
		cloned[i] = cloneItem(item)
	}
	return cloned
}
