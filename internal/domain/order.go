package domain

// ShippingAddress is the checkout form payload. All fields except Country are
// required before an order may be submitted.
type ShippingAddress struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
}

// PaymentMethodCOD is the only payment method the storefront offers.
const PaymentMethodCOD = "cod"

// OrderConfirmation is the remote store's answer to a successful order
// creation.
type OrderConfirmation struct {
	OrderID       int64   `json:"order_id"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	Message       string  `json:"message,omitempty"`
}

// OrderDetail describes a single placed order, as shown on the confirmation
// and order-history pages. Date is the backend's ISO-8601 timestamp, passed
// through untouched.
type OrderDetail struct {
	OrderID       int64   `json:"order_id"`
	Status        string  `json:"status"`
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Payment       float64 `json:"payment"`
	PaymentMethod string  `json:"payment_method"`
	Date          string  `json:"date,omitempty"`
}

// OrderHistory is the list of a customer's orders, newest first.
type OrderHistory struct {
	Orders []OrderDetail `json:"orders"`
	Count  int           `json:"count"`
}
