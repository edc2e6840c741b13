package processor

import (
	"fmt"
	"strings"

	"ucshop/internal/orders"
)

// Buyer-facing texts. Internal error detail never leaks here; operators get
// it through the fulfillment.failed event instead.

func paymentReceivedText(ord *orders.Order) string {
	return fmt.Sprintf("Payment received for order %s (%.2f). Your items are on the way.",
		ord.ID, float64(ord.AmountCents)/100)
}

func deliveredText(ord *orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s is complete!\n", ord.ID)
	for _, it := range ord.Items {
		if it.RedemptionCode != "" {
			fmt.Fprintf(&b, "• %s x%d — %s\n", it.Name, it.Qty, it.RedemptionCode)
		} else {
			fmt.Fprintf(&b, "• %s x%d\n", it.Name, it.Qty)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func failedText(ord *orders.Order) string {
	return fmt.Sprintf("We received your payment for order %s, but delivery hit a problem. "+
		"Our team has been notified and will sort it out shortly.", ord.ID)
}
