package services

import (
	"context"
	"errors"
	"sync"

	"shiv-telegram/models"

	"go.uber.org/zap"
)

// ValidationError blocks submission before any network call is made.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}

var (
	// ErrEmptyCart rejects confirmation of an order with nothing in it.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrSubmitInFlight rejects a second confirmation while one is pending.
	ErrSubmitInFlight = errors.New("order submission already in flight")
)

// CustomerInfo is what the customer types in before confirming.
type CustomerInfo struct {
	Name    string
	PhoneNo string
	Address string
}

// OrderPlacer is the slice of the backend client the checkout needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, input models.PlaceOrderInput) (*models.Order, error)
}

// Checkout drives the two-stage submission protocol: RequestSubmit
// validates without side effects, ConfirmSubmit places the order and clears
// the cart on success. A failed placement leaves the cart intact so the
// customer can retry. Retrying after a transport failure may create a
// duplicate order server-side; there is no idempotency key.
type Checkout struct {
	cart   *CartStore
	placer OrderPlacer
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[int64]bool
}

func NewCheckout(cart *CartStore, placer OrderPlacer, logger *zap.Logger) *Checkout {
	return &Checkout{
		cart:     cart,
		placer:   placer,
		logger:   logger,
		inFlight: make(map[int64]bool),
	}
}

// RequestSubmit is stage one: every customer field must be non-empty. No
// network action happens here; an error keeps the flow where it was.
func (c *Checkout) RequestSubmit(info CustomerInfo) error {
	switch {
	case info.Name == "":
		return &ValidationError{Field: "name"}
	case info.PhoneNo == "":
		return &ValidationError{Field: "phone number"}
	case info.Address == "":
		return &ValidationError{Field: "address"}
	}
	return nil
}

// ConfirmSubmit is stage two: build the payload from the cart, place the
// order, and clear the cart only on success.
func (c *Checkout) ConfirmSubmit(ctx context.Context, userID int64, info CustomerInfo) (*models.Order, error) {
	if err := c.RequestSubmit(info); err != nil {
		return nil, err
	}
	if !c.begin(userID) {
		return nil, ErrSubmitInFlight
	}
	defer c.end(userID)

	lines, err := c.cart.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	input := models.PlaceOrderInput{
		CustomerName:    info.Name,
		CustomerPhoneNo: info.PhoneNo,
		CustomerAddress: info.Address,
		Items:           make([]models.PlaceOrderItem, len(lines)),
		TotalAmount:     TotalCost(lines),
	}
	for i, l := range lines {
		input.Items[i] = models.PlaceOrderItem{FoodItem: l.ItemID, Quantity: l.Quantity}
	}

	order, err := c.placer.PlaceOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := c.cart.Clear(ctx, userID); err != nil {
		// The order went through; a stale cart is recoverable.
		c.logger.Warn("clear cart after order", zap.Int64("user_id", userID), zap.Error(err))
	}
	return order, nil
}

func (c *Checkout) begin(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[userID] {
		return false
	}
	c.inFlight[userID] = true
	return true
}

func (c *Checkout) end(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, userID)
}
