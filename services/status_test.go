package services

import (
	"strings"
	"testing"

	"shiv-telegram/models"

	"github.com/shopspring/decimal"
)

func TestStageReached(t *testing.T) {
	tests := []struct {
		stage, current string
		want           bool
	}{
		{models.OrderStatusPlaced, models.OrderStatusPlaced, true},
		{models.OrderStatusAccepted, models.OrderStatusPlaced, false},
		{models.OrderStatusDelivered, models.OrderStatusPlaced, false},
		{models.OrderStatusPlaced, models.OrderStatusAccepted, true},
		{models.OrderStatusAccepted, models.OrderStatusAccepted, true},
		{models.OrderStatusDelivered, models.OrderStatusAccepted, false},
		{models.OrderStatusPlaced, models.OrderStatusDelivered, true},
		{models.OrderStatusAccepted, models.OrderStatusDelivered, true},
		{models.OrderStatusDelivered, models.OrderStatusDelivered, true},
		{models.OrderStatusPlaced, models.OrderStatusCancelled, false},
		{models.OrderStatusCancelled, models.OrderStatusPlaced, false},
		{models.OrderStatusPlaced, "", false},
		{models.OrderStatusPlaced, "UNKNOWN", false},
	}
	for _, tt := range tests {
		got := StageReached(tt.stage, tt.current)
		if got != tt.want {
			t.Errorf("StageReached(%q, %q) = %v, want %v", tt.stage, tt.current, got, tt.want)
		}
	}
}

func TestProgressLine(t *testing.T) {
	line := ProgressLine(models.OrderStatusAccepted)
	if !strings.Contains(line, "● Placed") || !strings.Contains(line, "● Accepted") {
		t.Errorf("Placed and Accepted should render reached: %s", line)
	}
	if !strings.Contains(line, "○ Delivered") {
		t.Errorf("Delivered should render pending: %s", line)
	}
}

func TestBuildHistoryCard(t *testing.T) {
	o := models.Order{
		ID:              "abc123",
		CustomerName:    "Asha",
		CustomerPhoneNo: "9876543210",
		CustomerAddress: "12 Temple Road",
		TotalAmount:     decimal.NewFromInt(250),
		Status:          models.OrderStatusAccepted,
		Items: []models.OrderLine{
			{FoodItem: models.MenuItem{Name: "Paneer Tikka", Price: decimal.NewFromInt(125)}, Quantity: 2},
		},
	}
	card := BuildHistoryCard(o)
	if !strings.Contains(card, "abc123") || !strings.Contains(card, "₹250.00") {
		t.Errorf("card should contain order id and total: %s", card)
	}
	if !strings.Contains(card, "● Accepted") || !strings.Contains(card, "○ Delivered") {
		t.Errorf("card should contain the progress line: %s", card)
	}
	if !strings.Contains(card, "Paneer Tikka × 2") {
		t.Errorf("card should list items: %s", card)
	}
}

func TestBuildHistoryCardCancelled(t *testing.T) {
	o := models.Order{ID: "abc123", Status: models.OrderStatusCancelled}
	card := BuildHistoryCard(o)
	if !strings.Contains(card, "CANCELLED") {
		t.Errorf("cancelled order needs the badge: %s", card)
	}
	if strings.Contains(card, "●") || strings.Contains(card, "○") {
		t.Errorf("cancelled order must not render progress stages: %s", card)
	}
}
