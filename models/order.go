package models

import "github.com/shopspring/decimal"

// Order statuses as reported by the backend. The client only observes
// them; every transition happens server-side.
const (
	OrderStatusPlaced    = "PLACED"
	OrderStatusAccepted  = "ACCEPTED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Order is a row from the backend order history. Items come back with the
// referenced menu item populated.
type Order struct {
	ID              string          `json:"_id"`
	CustomerName    string          `json:"customerName"`
	CustomerPhoneNo string          `json:"customerPhoneNo"`
	CustomerAddress string          `json:"customerAddress"`
	Items           []OrderLine     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
}

type OrderLine struct {
	FoodItem MenuItem `json:"foodItem"`
	Quantity int      `json:"quantity"`
}

// PlaceOrderInput is the request body for order placement. Here the food
// item is referenced by id, not embedded.
type PlaceOrderInput struct {
	CustomerName    string           `json:"customerName"`
	CustomerPhoneNo string           `json:"customerPhoneNo"`
	CustomerAddress string           `json:"customerAddress"`
	Items           []PlaceOrderItem `json:"items"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
}

type PlaceOrderItem struct {
	FoodItem string `json:"foodItem"`
	Quantity int    `json:"quantity"`
}
