package models

import "github.com/shopspring/decimal"

// MenuItem is one dish as served by the backend menu endpoint.
// Immutable once fetched.
type MenuItem struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	NonVeg    bool            `json:"nonVeg"`
	Available bool            `json:"availability"`
}

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// KitchenStatus reports whether the restaurant currently accepts orders.
type KitchenStatus struct {
	Open bool `json:"open"`
}
