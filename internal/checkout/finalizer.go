package checkout

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"furnistore/internal/domain"
	"furnistore/internal/storeapi"
)

// State is the finalizer's position in the checkout flow.
type State string

const (
	StateLoading    State = "loading"
	StateFormEntry  State = "form_entry"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "order_confirmed"
	StateFailed     State = "failed"
)

// ErrSubmitInFlight rejects a second submit while one is outstanding, so a
// double click can never create two orders.
var ErrSubmitInFlight = errors.New("order submission already in flight")

// requiredFields are the shipping fields that must be non-empty before a
// submit is attempted. Country is optional and defaults server-side.
var requiredFields = []string{
	"first_name", "last_name", "email", "phone_number",
	"address", "city", "state", "postal_code",
}

// ValidationError lists the missing checkout fields. It is raised locally and
// never reaches the network.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

type orderClient interface {
	FetchCart(ctx context.Context, token string, sort domain.SortKey) (*domain.CartView, error)
	CreateOrder(ctx context.Context, token string, in storeapi.CreateOrderInput) (*domain.OrderConfirmation, error)
}

// NavigateFunc receives the target the view should move to when a delayed
// redirect fires. The timer behind it is canceled by Close, so navigation
// never happens after the view is gone.
type NavigateFunc func(target string)

// Finalizer drives one checkout: load the cart, collect the shipping form,
// submit exactly one order-creation request per user-settled submit, and hand
// off to the confirmation view.
type Finalizer struct {
	client   orderClient
	token    string
	delay    time.Duration
	navigate NavigateFunc
	logger   *log.Logger
	newKey   func() string

	mu      sync.Mutex
	state   State
	cart    domain.CartView
	orderID int64
	lastErr string
	timer   *time.Timer
	closed  bool
}

func NewFinalizer(client orderClient, token string, redirectDelay time.Duration, navigate NavigateFunc, logger *log.Logger) *Finalizer {
	return &Finalizer{
		client:   client,
		token:    token,
		delay:    redirectDelay,
		navigate: navigate,
		logger:   logger,
		newKey:   uuid.NewString,
		state:    StateLoading,
	}
}

// Load fetches the cart the order will be built from. An empty cart arms a
// grace-period redirect back to the cart view rather than failing hard; an
// unauthenticated fetch arms a login redirect after the notice is shown.
func (f *Finalizer) Load(ctx context.Context) (domain.CartView, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.CartView{}, domain.ErrSessionExpired
	}
	f.state = StateLoading
	f.mu.Unlock()

	view, err := f.client.FetchCart(ctx, f.token, domain.SortDefault)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return domain.CartView{}, domain.ErrSessionExpired
	}
	if err != nil {
		f.state = StateFailed
		if errors.Is(err, domain.ErrUnauthenticated) {
			f.lastErr = "Please login to proceed"
			f.armRedirectLocked("/auth/login")
		} else {
			f.lastErr = "Failed to load cart. Please try again."
		}
		return domain.CartView{}, err
	}

	f.cart = *view
	if len(view.Items) == 0 {
		f.state = StateFailed
		f.lastErr = "Your cart is empty"
		f.armRedirectLocked("/cart")
		return f.cart, domain.ErrEmptyCart
	}

	f.state = StateFormEntry
	f.lastErr = ""
	return f.cart, nil
}

// Submit validates the shipping form and issues the order-creation request.
// Validation failures stay local. While a request is outstanding any further
// submit is rejected; on failure the finalizer returns to form entry so the
// user can resubmit.
func (f *Finalizer) Submit(ctx context.Context, addr domain.ShippingAddress, email string) (*domain.OrderConfirmation, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, domain.ErrSessionExpired
	}
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if f.state != StateFormEntry {
		f.mu.Unlock()
		return nil, domain.ErrEmptyCart
	}
	if missing := missingFields(addr, email); len(missing) > 0 {
		f.lastErr = "Please fill in all fields"
		f.mu.Unlock()
		return nil, &ValidationError{Missing: missing}
	}
	f.state = StateSubmitting
	f.lastErr = ""
	key := f.newKey()
	f.mu.Unlock()

	conf, err := f.client.CreateOrder(ctx, f.token, storeapi.CreateOrderInput{
		ShippingAddress: addr,
		Email:           email,
		PaymentMethod:   domain.PaymentMethodCOD,
		IdempotencyKey:  key,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, domain.ErrSessionExpired
	}
	if err != nil {
		f.state = StateFormEntry
		var apiErr *domain.APIError
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			f.lastErr = "Please login to proceed"
			f.armRedirectLocked("/auth/login")
		case errors.As(err, &apiErr) && apiErr.Message != "":
			f.lastErr = apiErr.Message
		default:
			f.lastErr = "Failed to place order. Please try again."
		}
		return nil, err
	}

	f.state = StateConfirmed
	f.orderID = conf.OrderID
	f.cancelRedirectLocked()
	return conf, nil
}

// State returns the finalizer's current flow state.
func (f *Finalizer) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the user-facing message for the last failure, empty when none.
func (f *Finalizer) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// OrderID returns the confirmed order id, zero before confirmation.
func (f *Finalizer) OrderID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderID
}

// Cart returns the cart snapshot the order summary renders from.
func (f *Finalizer) Cart() domain.CartView {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]domain.LineItem(nil), f.cart.Items...)
	return domain.NewCartView(items)
}

// Close cancels any armed redirect and discards late responses.
func (f *Finalizer) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cancelRedirectLocked()
}

func (f *Finalizer) armRedirectLocked(target string) {
	f.cancelRedirectLocked()
	if f.navigate == nil || f.delay <= 0 {
		return
	}
	f.timer = time.AfterFunc(f.delay, func() {
		f.mu.Lock()
		closed := f.closed
		f.mu.Unlock()
		if closed {
			return
		}
		f.navigate(target)
	})
}

func (f *Finalizer) cancelRedirectLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func missingFields(addr domain.ShippingAddress, email string) []string {
	values := map[string]string{
		"first_name":   addr.FirstName,
		"last_name":    addr.LastName,
		"email":        email,
		"phone_number": addr.PhoneNumber,
		"address":      addr.Address,
		"city":         addr.City,
		"state":        addr.State,
		"postal_code":  addr.PostalCode,
	}
	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
