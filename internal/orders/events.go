package orders

import (
	"encoding/json"
	"time"
)

const (
	EventPaymentReceived   = "PaymentReceived"
	EventOrderDelivered    = "OrderDelivered"
	EventFulfillmentFailed = "FulfillmentFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "ucshop-callback"
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

// ItemOutcome carries one line item's redemption result; failed items keep
// their raw error for operator remediation.
type ItemOutcome struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
	Redeemed bool   `json:"redeemed"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

type PaymentReceivedPayload struct {
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id,omitempty"` // gateway-side id (intid)
	AmountCents int64  `json:"amount_cents"`
}

type OrderDeliveredPayload struct {
	OrderID string        `json:"order_id"`
	Items   []ItemOutcome `json:"items"`
}

type FulfillmentFailedPayload struct {
	OrderID string        `json:"order_id"`
	Items   []ItemOutcome `json:"items"`
	Reasons []string      `json:"reasons,omitempty"`
}
