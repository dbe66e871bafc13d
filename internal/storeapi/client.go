package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"furnistore/internal/domain"
)

// Client is a typed HTTP client for the backend store API. The backend is the
// sole source of truth; every response follows the {success, data, error}
// envelope convention.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// MutationResult is the backend's answer to a cart or wishlist mutation. The
// counts are display-only hints for the chrome badges; either may be absent.
type MutationResult struct {
	Message       string `json:"message"`
	CartCount     *int   `json:"cart_count"`
	WishlistCount *int   `json:"wishlist_count"`
}

// CreateOrderInput is the order-creation request payload. The idempotency key
// travels as a header, not in the body.
type CreateOrderInput struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	Email           string                 `json:"email"`
	PaymentMethod   string                 `json:"payment_method"`
	IdempotencyKey  string                 `json:"-"`
}

type envelope struct {
	Success       bool            `json:"success"`
	Data          json.RawMessage `json:"data"`
	Message       string          `json:"message"`
	Error         string          `json:"error"`
	CartCount     *int            `json:"cart_count"`
	WishlistCount *int            `json:"wishlist_count"`
}

// FetchCart loads the customer's cart, ordered by the remote store according
// to sort. The returned view is a transient snapshot, not durable state.
func (c *Client) FetchCart(ctx context.Context, token string, sort domain.SortKey) (*domain.CartView, error) {
	path := "/cart/"
	if sort != domain.SortDefault {
		path += "?sort=" + url.QueryEscape(string(sort))
	}
	var view domain.CartView
	if _, err := c.do(ctx, http.MethodGet, path, token, nil, "", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// AddToCart adds quantity units of a product to the cart, merging with any
// existing line for the same product.
func (c *Client) AddToCart(ctx context.Context, token string, productID int64, quantity int) (*MutationResult, error) {
	body := map[string]int{"quantity": quantity}
	env, err := c.do(ctx, http.MethodPost, "/cart/add/"+strconv.FormatInt(productID, 10), token, body, "", nil)
	if err != nil {
		return nil, err
	}
	return mutationResult(env), nil
}

// UpdateCartItem sets the absolute quantity of a cart line item.
func (c *Client) UpdateCartItem(ctx context.Context, token string, itemID int64, quantity int) (*MutationResult, error) {
	body := map[string]int{"quantity": quantity}
	env, err := c.do(ctx, http.MethodPost, "/cart/update/"+strconv.FormatInt(itemID, 10), token, body, "", nil)
	if err != nil {
		return nil, err
	}
	return mutationResult(env), nil
}

// RemoveCartItem deletes a cart line item.
func (c *Client) RemoveCartItem(ctx context.Context, token string, itemID int64) (*MutationResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/cart/remove/"+strconv.FormatInt(itemID, 10), token, nil, "", nil)
	if err != nil {
		return nil, err
	}
	return mutationResult(env), nil
}

// FetchWishlist loads the customer's wishlist.
func (c *Client) FetchWishlist(ctx context.Context, token string) (*domain.WishlistView, error) {
	var view domain.WishlistView
	if _, err := c.do(ctx, http.MethodGet, "/cart/wishlist", token, nil, "", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// AddToWishlist adds a product to the wishlist. The backend rejects
// duplicates with a business error.
func (c *Client) AddToWishlist(ctx context.Context, token string, productID int64) (*MutationResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/cart/wishlist/add/"+strconv.FormatInt(productID, 10), token, nil, "", nil)
	if err != nil {
		return nil, err
	}
	return mutationResult(env), nil
}

// RemoveWishlistItem deletes a wishlist entry.
func (c *Client) RemoveWishlistItem(ctx context.Context, token string, itemID int64) (*MutationResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/cart/wishlist/remove/"+strconv.FormatInt(itemID, 10), token, nil, "", nil)
	if err != nil {
		return nil, err
	}
	return mutationResult(env), nil
}

// CreateOrder turns the current cart into an order shipped to the given
// address. The backend clears the cart on success.
func (c *Client) CreateOrder(ctx context.Context, token string, in CreateOrderInput) (*domain.OrderConfirmation, error) {
	var conf domain.OrderConfirmation
	if _, err := c.do(ctx, http.MethodPost, "/orders/create", token, in, in.IdempotencyKey, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// FetchOrder loads one order owned by the customer.
func (c *Client) FetchOrder(ctx context.Context, token string, orderID int64) (*domain.OrderDetail, error) {
	var detail domain.OrderDetail
	if _, err := c.do(ctx, http.MethodGet, "/orders/"+strconv.FormatInt(orderID, 10), token, nil, "", &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FetchUserOrders loads the customer's order history, newest first.
func (c *Client) FetchUserOrders(ctx context.Context, token string) (*domain.OrderHistory, error) {
	var history domain.OrderHistory
	if _, err := c.do(ctx, http.MethodGet, "/orders/user/all", token, nil, "", &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}, idemKey string, out interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call remote store: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, domain.ErrUnauthenticated
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return nil, &domain.APIError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return &env, nil
}

func mutationResult(env *envelope) *MutationResult {
	res := &MutationResult{
		Message:       env.Message,
		CartCount:     env.CartCount,
		WishlistCount: env.WishlistCount,
	}
	// Some endpoints nest counts inside data instead of the envelope top level.
	if len(env.Data) > 0 {
		var nested MutationResult
		if err := json.Unmarshal(env.Data, &nested); err == nil {
			if res.CartCount == nil {
				res.CartCount = nested.CartCount
			}
			if res.WishlistCount == nil {
				res.WishlistCount = nested.WishlistCount
			}
			if res.Message == "" {
				res.Message = nested.Message
			}
		}
	}
	return res
}

// IsTransient reports whether err represents a transport-level failure rather
// than a definite answer from the remote store. Transient failures are shown
// as retryable; no automatic retry is performed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrUnauthenticated) || errors.Is(err, domain.ErrNotFound) {
		return false
	}
	var apiErr *domain.APIError
	return !errors.As(err, &apiErr)
}
