package services

import (
	"fmt"
	"strings"

	"shiv-telegram/models"
)

// StatusSequence is the fixed progression rendered in order history.
// CANCELLED sits outside the sequence and gets its own badge.
var StatusSequence = []string{
	models.OrderStatusPlaced,
	models.OrderStatusAccepted,
	models.OrderStatusDelivered,
}

func statusIndex(status string) int {
	for i, s := range StatusSequence {
		if s == status {
			return i
		}
	}
	return -1
}

// StageReached reports whether the given stage should render as reached for
// an order currently in status current. Statuses outside the sequence reach
// nothing.
func StageReached(stage, current string) bool {
	si := statusIndex(stage)
	ci := statusIndex(current)
	if si < 0 || ci < 0 {
		return false
	}
	return si <= ci
}

// IsCancelled reports the orthogonal terminal state that bypasses the
// progress indicator.
func IsCancelled(status string) bool {
	return status == models.OrderStatusCancelled
}

var stageLabels = map[string]string{
	models.OrderStatusPlaced:    "Placed",
	models.OrderStatusAccepted:  "Accepted",
	models.OrderStatusDelivered: "Delivered",
}

// ProgressLine renders the 3-stage indicator, e.g. "● Placed — ● Accepted — ○ Delivered".
func ProgressLine(current string) string {
	parts := make([]string, len(StatusSequence))
	for i, stage := range StatusSequence {
		mark := "○"
		if StageReached(stage, current) {
			mark = "●"
		}
		parts[i] = mark + " " + stageLabels[stage]
	}
	return strings.Join(parts, " — ")
}

// BuildHistoryCard renders one past order as message text.
func BuildHistoryCard(o models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Order %s\n\n", o.ID)
	fmt.Fprintf(&b, "Name: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", o.CustomerPhoneNo)
	fmt.Fprintf(&b, "Address: %s\n", o.CustomerAddress)
	fmt.Fprintf(&b, "Total: %s\n\n", FormatAmount(o.TotalAmount))

	if IsCancelled(o.Status) {
		b.WriteString("🚫 CANCELLED\n")
	} else {
		b.WriteString(ProgressLine(o.Status) + "\n")
	}

	if len(o.Items) > 0 {
		b.WriteString("\nItems:\n")
		for _, it := range o.Items {
			fmt.Fprintf(&b, "• %s × %d — %s\n", it.FoodItem.Name, it.Quantity, FormatAmount(it.FoodItem.Price))
		}
	}
	return b.String()
}
