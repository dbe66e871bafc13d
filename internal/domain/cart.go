package domain

// LineItem is one cart entry: a snapshot of product data taken at fetch time
// plus the cart-specific quantity state. Snapshot fields are not guaranteed
// fresh; the backend recomputes authoritative totals on checkout.
type LineItem struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	Quantity     int     `json:"quantity"`
	Subtotal     float64 `json:"subtotal"`
	ImageURL     string  `json:"image,omitempty"`
}

// CartView is the page-facing projection of a cart: line items in display
// order plus aggregates. Aggregates are always derived from the items, never
// stored independently of them.
type CartView struct {
	Items       []LineItem `json:"cart_items"`
	TotalAmount float64    `json:"total_amount"`
	ItemCount   int        `json:"item_count"`
}

// Aggregate recomputes total amount and item count over items.
func Aggregate(items []LineItem) (totalAmount float64, itemCount int) {
	for _, item := range items {
		totalAmount += item.Subtotal
		itemCount += item.Quantity
	}
	return totalAmount, itemCount
}

// NewCartView builds a view over items with freshly computed aggregates.
func NewCartView(items []LineItem) CartView {
	total, count := Aggregate(items)
	if items == nil {
		items = []LineItem{}
	}
	return CartView{Items: items, TotalAmount: total, ItemCount: count}
}
