// Package api talks to the restaurant backend. Every call is a single
// best-effort round trip; the caller decides how to react to a failure.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shiv-telegram/models"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

func init() {
	// The backend serializes prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// RequestError is any transport or non-2xx failure from the backend.
type RequestError struct {
	Op     string
	Status int // 0 when the request never got a response
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

type Client struct {
	rc *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

// FetchMenu returns all menu items.
func (c *Client) FetchMenu(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := c.get(ctx, "fetch menu", "/menu/get-item", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchCategories returns the menu categories.
func (c *Client) FetchCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := c.get(ctx, "fetch categories", "/menu/get-category", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// FetchKitchenStatus reports whether the kitchen currently takes orders.
func (c *Client) FetchKitchenStatus(ctx context.Context) (*models.KitchenStatus, error) {
	var status models.KitchenStatus
	if err := c.get(ctx, "fetch kitchen status", "/kitchen/", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RegisterUser announces a fresh identity token to the backend. The
// response body is provider-defined and ignored.
func (c *Client) RegisterUser(ctx context.Context, uid string) error {
	return c.post(ctx, "register user", "/user/register", map[string]string{"uid": uid}, nil)
}

// PlaceOrder submits an order and returns the created order as echoed by
// the backend.
func (c *Client) PlaceOrder(ctx context.Context, input models.PlaceOrderInput) (*models.Order, error) {
	var order models.Order
	if err := c.post(ctx, "place order", "/order", input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchOrderHistory returns all orders placed under the given identity.
func (c *Client) FetchOrderHistory(ctx context.Context, uid string) ([]models.Order, error) {
	var resp struct {
		User struct {
			Orders []models.Order `json:"orders"`
		} `json:"user"`
	}
	if err := c.post(ctx, "fetch order history", "/user/get-order-history", map[string]string{"uid": uid}, &resp); err != nil {
		return nil, err
	}
	return resp.User.Orders, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	resp, err := c.rc.R().SetContext(ctx).Get(path)
	return c.decode(op, resp, err, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	resp, err := c.rc.R().SetContext(ctx).SetBody(body).Post(path)
	return c.decode(op, resp, err, out)
}

func (c *Client) decode(op string, resp *resty.Response, err error, out any) error {
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if resp.IsError() {
		return &RequestError{Op: op, Status: resp.StatusCode()}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &RequestError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
