package domain

// WishlistItem is one wishlist entry. InStock gates whether the item can be
// moved into the cart.
type WishlistItem struct {
	ID              int64   `json:"id"`
	ProductID       int64   `json:"product_id"`
	ProductName     string  `json:"product_name"`
	ProductPrice    float64 `json:"product_price"`
	ProductCategory string  `json:"product_category,omitempty"`
	ImageURL        string  `json:"image,omitempty"`
	InStock         bool    `json:"in_stock"`
}

// WishlistView is the page-facing projection of a wishlist.
type WishlistView struct {
	Items     []WishlistItem `json:"wishlist_items"`
	ItemCount int            `json:"item_count"`
}
