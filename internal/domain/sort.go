package domain

// SortKey selects the display ordering of cart line items. Ordering is
// applied by the remote store; the client performs no re-sort of its own.
type SortKey string

const (
	SortDefault      SortKey = ""
	SortPriceAsc     SortKey = "price_asc"
	SortPriceDesc    SortKey = "price_desc"
	SortNameAsc      SortKey = "name_asc"
	SortNameDesc     SortKey = "name_desc"
	SortQuantityDesc SortKey = "quantity_desc"
	SortNewest       SortKey = "newest"
)

// Valid reports whether k is one of the recognized sort keys.
func (k SortKey) Valid() bool {
	switch k {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortQuantityDesc, SortNewest:
		return true
	}
	return false
}
