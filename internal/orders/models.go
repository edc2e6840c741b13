package orders

import "time"

type Category string

const (
	// CategoryUCByID is topped up straight to the buyer's player id via the
	// provider API and has a local stock counter.
	CategoryUCByID Category = "uc_by_id"
	// CategoryVoucher is delivered manually by staff; no remote call.
	CategoryVoucher Category = "voucher"
)

func (c Category) RequiresRedemption() bool { return c == CategoryUCByID }
func (c Category) TracksStock() bool        { return c == CategoryUCByID }

type Order struct {
	ID          string
	BuyerChatID int64  // Telegram chat the buyer is notified on
	PlayerID    string // top-up target for uc_by_id items
	Status      Status
	AmountCents int64
	Items       []LineItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type LineItem struct {
	ID         int64
	OrderID    string
	SKU        string
	Name       string
	Category   Category
	Qty        int
	PriceCents int64

	// Redemption outcome, written once per item.
	Redeemed        bool
	RedemptionCode  string
	RedemptionError string
}
