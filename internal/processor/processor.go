// Package processor drives a paid order through fulfillment. It is the only
// place order status is decided; everything it talks to sits behind a narrow
// interface and is injected at construction.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"ucshop/internal/freekassa"
	kafkax "ucshop/internal/kafka"
	"ucshop/internal/orders"
	"ucshop/internal/redeem"
)

var (
	// ErrInvalidSignature: the callback did not come from the gateway (or the
	// secret is unconfigured). Never acknowledged with the success token.
	ErrInvalidSignature = errors.New("invalid signature")
	ErrOrderNotFound    = errors.New("order not found")
	// ErrNotCommitted: the terminal transition could not be written; the
	// gateway must retry the callback.
	ErrNotCommitted = errors.New("status transition not committed")
)

// OrderStore is the durable source of truth for order state. Implemented by
// orders.Repo.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	CompareAndSetStatus(ctx context.Context, orderID string, expected, next orders.Status) (bool, error)
	SetItemOutcome(ctx context.Context, itemID int64, redeemed bool, code, redemptionError string) error
	AdjustStock(ctx context.Context, sku string, delta int) error
}

// Redeemer issues one entitlement per call and is not idempotent.
type Redeemer interface {
	Redeem(ctx context.Context, playerID, sku string, qty int) redeem.Outcome
}

type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Guard closes the idempotence window between the pending write and the
// terminal write, and caches terminal statuses for replay traffic.
// Implemented by redisx.Guard.
type Guard interface {
	Acquire(ctx context.Context, orderID string) (bool, error)
	Release(ctx context.Context, orderID string)
	TerminalStatus(ctx context.Context, orderID string) (orders.Status, bool)
	SetTerminalStatus(ctx context.Context, orderID string, s orders.Status)
}

type Processor struct {
	Store    OrderStore
	Redeemer Redeemer
	Notifier Notifier
	Producer Publisher
	Guard    Guard

	Secret  string // FreeKassa SECRET_2
	Service string // producer name stamped on events

	RedeemTimeout time.Duration
	NotifyTimeout time.Duration
}

// Process handles one verified-or-not callback delivery end to end. A nil
// return means the callback is acknowledged with the success token — which
// includes replays of settled orders and orders that ended in fulfillment
// error (the payment itself was received either way).
func (p *Processor) Process(ctx context.Context, n freekassa.Notification) (err error) {
	log := slog.With("order_id", n.OrderID, "payment_id", n.PaymentID)

	if !freekassa.Verify(n, p.Secret) {
		log.Warn("callback signature rejected")
		p.markUnpaid(ctx, n.OrderID, log)
		return ErrInvalidSignature
	}

	// settled replays answered from cache, no store access
	if st, ok := p.Guard.TerminalStatus(ctx, n.OrderID); ok {
		log.Info("replay of settled order", "status", string(st))
		return nil
	}

	ord, err := p.Store.Get(ctx, n.OrderID)
	if errors.Is(err, orders.ErrNotFound) {
		log.Warn("callback for unknown order")
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	if ord.Status.Terminal() {
		p.Guard.SetTerminalStatus(ctx, ord.ID, ord.Status)
		log.Info("replay of settled order", "status", string(ord.Status))
		return nil
	}

	// the signature already covers AMOUNT; a mismatch with the stored total
	// is logged for reconciliation, not treated as a verification failure
	if cents, perr := parseAmountCents(n.Amount); perr == nil && cents != ord.AmountCents {
		log.Warn("callback amount differs from order total",
			"callback_cents", cents, "order_cents", ord.AmountCents)
	}

	locked, lockErr := p.Guard.Acquire(ctx, ord.ID)
	switch {
	case lockErr != nil:
		// redis down: the status CAS below still guards first entry; only a
		// pending-state retry loses its duplicate protection
		log.Warn("fulfillment lock unavailable, relying on status CAS alone", "error", lockErr)
	case !locked:
		log.Info("duplicate callback, fulfillment already in flight")
		return nil
	default:
		defer p.Guard.Release(ctx, ord.ID)
	}

	won, err := p.Store.CompareAndSetStatus(ctx, ord.ID, ord.Status, orders.StatusPending)
	if err != nil {
		return fmt.Errorf("enter pending: %w", err)
	}
	if !won {
		return p.shortCircuit(ctx, ord.ID, log)
	}
	from := ord.Status
	ord.Status = orders.StatusPending
	log.Info("payment confirmed, fulfillment started", "from", string(from))

	defer func() {
		if r := recover(); r != nil {
			// best-effort revert so the gateway retry starts from a clean state
			if _, rerr := p.Store.CompareAndSetStatus(ctx, ord.ID, orders.StatusPending, orders.StatusUnpaid); rerr != nil {
				log.Error("revert to unpaid failed", "error", rerr)
			}
			log.Error("fulfillment panicked", "panic", r)
			err = fmt.Errorf("fulfillment panic: %v", r)
		}
	}()

	p.notifyBuyer(ctx, ord, paymentReceivedText(ord), log)
	p.publish(orders.TopicPaymentReceived, orders.EventPaymentReceived, ord.ID,
		orders.PaymentReceivedPayload{OrderID: ord.ID, PaymentID: n.PaymentID, AmountCents: ord.AmountCents})

	outs := p.redeemAll(ctx, ord)
	final, reasons := p.settleItems(ctx, ord, outs, log)

	committed, err := p.Store.CompareAndSetStatus(ctx, ord.ID, orders.StatusPending, final)
	if err != nil {
		return fmt.Errorf("commit %s: %w", final, err)
	}
	if !committed {
		log.Error("terminal write lost the status race", "final", string(final))
		return ErrNotCommitted
	}
	ord.Status = final
	p.Guard.SetTerminalStatus(ctx, ord.ID, final)

	if final == orders.StatusDelivered {
		log.Info("order delivered")
		p.notifyBuyer(ctx, ord, deliveredText(ord), log)
		p.publish(orders.TopicOrderDelivered, orders.EventOrderDelivered, ord.ID,
			orders.OrderDeliveredPayload{OrderID: ord.ID, Items: itemOutcomes(ord)})
	} else {
		log.Error("fulfillment failed", "reasons", reasons)
		p.notifyBuyer(ctx, ord, failedText(ord), log)
		p.publish(orders.TopicFulfillmentFailed, orders.EventFulfillmentFailed, ord.ID,
			orders.FulfillmentFailedPayload{OrderID: ord.ID, Items: itemOutcomes(ord), Reasons: reasons})
	}
	return nil
}

// redeemAll fans out one redemption per item that still needs one. Results
// land in a slice indexed by the item's position in the stored order, so
// aggregation is deterministic regardless of completion order.
func (p *Processor) redeemAll(ctx context.Context, ord *orders.Order) []redeem.Outcome {
	outs := make([]redeem.Outcome, len(ord.Items))
	var wg sync.WaitGroup
	for i := range ord.Items {
		it := &ord.Items[i]
		if !it.Category.RequiresRedemption() {
			outs[i] = redeem.Outcome{Success: true}
			continue
		}
		if it.Redeemed {
			// a previous attempt died after redeeming this item; never issue
			// the entitlement twice
			outs[i] = redeem.Outcome{Success: true, Code: it.RedemptionCode}
			continue
		}
		wg.Add(1)
		go func(i int, it *orders.LineItem) {
			defer wg.Done()
			rctx, cancel := context.WithTimeout(ctx, p.RedeemTimeout)
			defer cancel()
			outs[i] = p.Redeemer.Redeem(rctx, ord.PlayerID, it.SKU, it.Qty)
		}(i, it)
	}
	wg.Wait()
	return outs
}

// settleItems persists per-item outcomes and decides the order-level status:
// error if any item failed, delivered otherwise. Failed items keep their
// error text; successes that were freshly redeemed also decrement stock.
func (p *Processor) settleItems(ctx context.Context, ord *orders.Order, outs []redeem.Outcome, log *slog.Logger) (orders.Status, []string) {
	final := orders.StatusDelivered
	var reasons []string

	for i := range ord.Items {
		it := &ord.Items[i]
		if !it.Category.RequiresRedemption() {
			continue
		}
		out := outs[i]
		fresh := !it.Redeemed

		if out.Success && fresh {
			if it.Category.TracksStock() {
				if serr := p.Store.AdjustStock(ctx, it.SKU, -it.Qty); serr != nil {
					out.Success = false
					out.Err = fmt.Sprintf("stock adjust: %v", serr)
				}
			}
		}
		if out.Success && fresh {
			if serr := p.Store.SetItemOutcome(ctx, it.ID, true, out.Code, ""); serr != nil {
				out.Success = false
				out.Err = fmt.Sprintf("record outcome: %v", serr)
			}
		}
		if !out.Success {
			if serr := p.Store.SetItemOutcome(ctx, it.ID, false, out.Code, out.Err); serr != nil {
				log.Error("failed item outcome not recorded", "sku", it.SKU, "error", serr)
			}
			final = orders.StatusError
			reasons = append(reasons, fmt.Sprintf("%s: %s", it.SKU, out.Err))
		}

		it.Redeemed = out.Success
		it.RedemptionCode = out.Code
		it.RedemptionError = out.Err
	}
	return final, reasons
}

// shortCircuit is the loser's path after a CAS miss: re-read and answer from
// whatever state the winner left behind.
func (p *Processor) shortCircuit(ctx context.Context, orderID string, log *slog.Logger) error {
	cur, err := p.Store.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("re-read after cas miss: %w", err)
	}
	if cur.Status.Terminal() {
		p.Guard.SetTerminalStatus(ctx, orderID, cur.Status)
		log.Info("lost status race to a completed duplicate", "status", string(cur.Status))
		return nil
	}
	if cur.Status == orders.StatusPending {
		log.Info("lost status race, fulfillment in flight elsewhere")
		return nil
	}
	return ErrNotCommitted
}

// markUnpaid pushes a still-open order to unpaid after a verification
// failure. Terminal orders are left untouched.
func (p *Processor) markUnpaid(ctx context.Context, orderID string, log *slog.Logger) {
	if orderID == "" {
		return
	}
	ord, err := p.Store.Get(ctx, orderID)
	if err != nil {
		return
	}
	if ord.Status.Terminal() || ord.Status == orders.StatusUnpaid {
		return
	}
	if _, err := p.Store.CompareAndSetStatus(ctx, orderID, ord.Status, orders.StatusUnpaid); err != nil {
		log.Error("mark unpaid failed", "error", err)
	}
}

func (p *Processor) notifyBuyer(ctx context.Context, ord *orders.Order, text string, log *slog.Logger) {
	nctx, cancel := context.WithTimeout(ctx, p.notifyTimeout())
	defer cancel()
	if err := p.Notifier.Send(nctx, ord.BuyerChatID, text); err != nil {
		// buyer messaging is best effort and never reaches the gateway response
		log.Warn("buyer notification failed", "chat_id", ord.BuyerChatID, "error", err)
	}
}

func (p *Processor) notifyTimeout() time.Duration {
	if p.NotifyTimeout > 0 {
		return p.NotifyTimeout
	}
	return 5 * time.Second
}

func (p *Processor) publish(topic, eventType, orderID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Producer.Publish(topic, orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func itemOutcomes(ord *orders.Order) []orders.ItemOutcome {
	outs := make([]orders.ItemOutcome, 0, len(ord.Items))
	for _, it := range ord.Items {
		outs = append(outs, orders.ItemOutcome{
			SKU:      it.SKU,
			Name:     it.Name,
			Qty:      it.Qty,
			Redeemed: it.Redeemed,
			Code:     it.RedemptionCode,
			Error:    it.RedemptionError,
		})
	}
	return outs
}

func parseAmountCents(amount string) (int64, error) {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(v * 100)), nil
}
