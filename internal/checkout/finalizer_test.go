package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"furnistore/internal/domain"
	"furnistore/internal/storeapi"
)

type stubOrderStore struct {
	mu sync.Mutex

	cart     *domain.CartView
	fetchErr error

	createConf  *domain.OrderConfirmation
	createErr   error
	createCalls int
	lastInput   storeapi.CreateOrderInput
	createGate  chan struct{}
	createEnter chan struct{}
}

func (s *stubOrderStore) FetchCart(_ context.Context, _ string, _ domain.SortKey) (*domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	view := *s.cart
	return &view, nil
}

func (s *stubOrderStore) CreateOrder(_ context.Context, _ string, in storeapi.CreateOrderInput) (*domain.OrderConfirmation, error) {
	s.mu.Lock()
	s.createCalls++
	s.lastInput = in
	enter := s.createEnter
	gate := s.createGate
	conf := s.createConf
	err := s.createErr
	s.mu.Unlock()

	if enter != nil {
		enter <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return conf, err
}

func (s *stubOrderStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createCalls
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func filledCart() *domain.CartView {
	return &domain.CartView{
		Items: []domain.LineItem{
			{ID: 1, ProductID: 11, ProductName: "Oak Table", ProductPrice: 100, Quantity: 2, Subtotal: 200},
		},
		TotalAmount: 200,
		ItemCount:   2,
	}
}

func validAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName:   "Asha",
		LastName:    "Rao",
		PhoneNumber: "9999999999",
		Address:     "12 Teak Lane",
		City:        "Pune",
		State:       "MH",
		PostalCode:  "411001",
		Country:     "India",
	}
}

func loadedFinalizer(t *testing.T, store *stubOrderStore) *Finalizer {
	t.Helper()
	fin := NewFinalizer(store, "token", 0, nil, testLogger())
	if _, err := fin.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return fin
}

func TestLoadMovesToFormEntry(t *testing.T) {
	store := &stubOrderStore{cart: filledCart()}
	fin := loadedFinalizer(t, store)

	if fin.State() != StateFormEntry {
		t.Fatalf("expected form entry, got %s", fin.State())
	}
	if got := fin.Cart(); got.TotalAmount != 200 || got.ItemCount != 2 {
		t.Fatalf("expected cart snapshot held, got %+v", got)
	}
}

func TestLoadEmptyCartArmsGraceRedirect(t *testing.T) {
	store := &stubOrderStore{cart: &domain.CartView{}}
	redirects := make(chan string, 1)
	fin := NewFinalizer(store, "token", 10*time.Millisecond, func(target string) {
		redirects <- target
	}, testLogger())

	_, err := fin.Load(context.Background())
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	if fin.Err() != "Your cart is empty" {
		t.Fatalf("unexpected message %q", fin.Err())
	}

	select {
	case target := <-redirects:
		if target != "/cart" {
			t.Fatalf("expected redirect to /cart, got %s", target)
		}
	case <-time.After(time.Second):
		t.Fatalf("grace-period redirect never fired")
	}
}

func TestLoadUnauthenticatedArmsLoginRedirect(t *testing.T) {
	store := &stubOrderStore{cart: filledCart(), fetchErr: domain.ErrUnauthenticated}
	redirects := make(chan string, 1)
	fin := NewFinalizer(store, "token", 10*time.Millisecond, func(target string) {
		redirects <- target
	}, testLogger())

	_, err := fin.Load(context.Background())
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	select {
	case target := <-redirects:
		if target != "/auth/login" {
			t.Fatalf("expected redirect to login, got %s", target)
		}
	case <-time.After(time.Second):
		t.Fatalf("login redirect never fired")
	}
}

func TestCloseCancelsArmedRedirect(t *testing.T) {
	store := &stubOrderStore{cart: &domain.CartView{}}
	redirects := make(chan string, 1)
	fin := NewFinalizer(store, "token", 20*time.Millisecond, func(target string) {
		redirects <- target
	}, testLogger())

	_, _ = fin.Load(context.Background())
	fin.Close()

	select {
	case target := <-redirects:
		t.Fatalf("redirect fired after close: %s", target)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubmitValidationStaysLocal(t *testing.T) {
	store := &stubOrderStore{cart: filledCart()}
	fin := loadedFinalizer(t, store)

	addr := validAddress()
	addr.City = ""
	_, err := fin.Submit(context.Background(), addr, "")

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Missing) != 2 {
		t.Fatalf("expected email and city missing, got %v", verr.Missing)
	}
	if store.calls() != 0 {
		t.Fatalf("validation failure must never reach the network")
	}
	if fin.State() != StateFormEntry {
		t.Fatalf("expected to stay in form entry, got %s", fin.State())
	}
}

func TestSubmitHappyPath(t *testing.T) {
	store := &stubOrderStore{
		cart:       filledCart(),
		createConf: &domain.OrderConfirmation{OrderID: 77, TotalAmount: 200, PaymentMethod: domain.PaymentMethodCOD},
	}
	fin := loadedFinalizer(t, store)

	conf, err := fin.Submit(context.Background(), validAddress(), "asha@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.OrderID != 77 || fin.OrderID() != 77 {
		t.Fatalf("expected order id 77, got %+v", conf)
	}
	if fin.State() != StateConfirmed {
		t.Fatalf("expected confirmed, got %s", fin.State())
	}
	if store.calls() != 1 {
		t.Fatalf("expected exactly one order-creation call, got %d", store.calls())
	}
	if store.lastInput.PaymentMethod != domain.PaymentMethodCOD {
		t.Fatalf("expected cod, got %s", store.lastInput.PaymentMethod)
	}
	if store.lastInput.IdempotencyKey == "" {
		t.Fatalf("expected an idempotency key on the submit")
	}
}

func TestConcurrentSubmitIssuesOneCall(t *testing.T) {
	store := &stubOrderStore{
		cart:        filledCart(),
		createConf:  &domain.OrderConfirmation{OrderID: 77},
		createGate:  make(chan struct{}),
		createEnter: make(chan struct{}, 1),
	}
	fin := loadedFinalizer(t, store)

	firstDone := make(chan error, 1)
	go func() {
		_, err := fin.Submit(context.Background(), validAddress(), "asha@example.com")
		firstDone <- err
	}()
	<-store.createEnter // first submit is on the wire

	_, err := fin.Submit(context.Background(), validAddress(), "asha@example.com")
	if !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}

	close(store.createGate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if store.calls() != 1 {
		t.Fatalf("double submit must not create two orders, got %d calls", store.calls())
	}
}

func TestSubmitFailureSurfacesServerMessageAndAllowsRetry(t *testing.T) {
	store := &stubOrderStore{
		cart:      filledCart(),
		createErr: &domain.APIError{Status: 400, Message: "Your cart is empty"},
	}
	fin := loadedFinalizer(t, store)

	_, err := fin.Submit(context.Background(), validAddress(), "asha@example.com")
	if err == nil {
		t.Fatalf("expected error")
	}
	if fin.Err() != "Your cart is empty" {
		t.Fatalf("server message must surface verbatim, got %q", fin.Err())
	}
	if fin.State() != StateFormEntry {
		t.Fatalf("failure must return to form entry, got %s", fin.State())
	}

	// Resubmission after a failure is allowed.
	store.mu.Lock()
	store.createErr = nil
	store.createConf = &domain.OrderConfirmation{OrderID: 88}
	store.mu.Unlock()

	conf, err := fin.Submit(context.Background(), validAddress(), "asha@example.com")
	if err != nil || conf.OrderID != 88 {
		t.Fatalf("expected retry to succeed, got %v/%v", conf, err)
	}
}

func TestSubmitGenericFallbackMessage(t *testing.T) {
	store := &stubOrderStore{cart: filledCart(), createErr: errors.New("connection reset")}
	fin := loadedFinalizer(t, store)

	_, err := fin.Submit(context.Background(), validAddress(), "asha@example.com")
	if err == nil {
		t.Fatalf("expected error")
	}
	if fin.Err() != "Failed to place order. Please try again." {
		t.Fatalf("expected generic fallback, got %q", fin.Err())
	}
}

func TestSubmitBeforeLoadRejected(t *testing.T) {
	store := &stubOrderStore{cart: filledCart()}
	fin := NewFinalizer(store, "token", 0, nil, testLogger())

	_, err := fin.Submit(context.Background(), validAddress(), "asha@example.com")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected rejection before load, got %v", err)
	}
	if store.calls() != 0 {
		t.Fatalf("no order call may happen before load")
	}
}
