// Package opsrelay turns fulfillment-failure events into operator messages.
// Buyers get a generic apology from the callback service; the full diagnostic
// detail travels here, off the request path.
package opsrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "ucshop/internal/kafka"
	"ucshop/internal/orders"
)

type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string)
}

type Service struct {
	Notifier  Notifier
	Dedup     Dedup
	OpsChatID int64
}

// HandleEvent is wired as the consumer handler for the fulfillment.failed
// topic. A non-nil return leaves the offset uncommitted so the message is
// redelivered; operator alerts must not be dropped.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != orders.EventFulfillmentFailed {
		return nil
	}

	if seen, err := s.Dedup.Seen(ctx, env.EventID); err != nil {
		slog.Warn("dedup check failed, processing anyway", "event_id", env.EventID, "error", err)
	} else if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.FulfillmentFailedPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Notifier.Send(ctx, s.OpsChatID, opsText(p)); err != nil {
		return fmt.Errorf("notify ops: %w", err)
	}
	s.Dedup.Mark(ctx, env.EventID)
	slog.Info("ops alerted", "order_id", p.OrderID, "event_id", env.EventID)
	return nil
}

func opsText(p orders.FulfillmentFailedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠ Fulfillment failed for order %s\n", p.OrderID)
	for _, it := range p.Items {
		if it.Redeemed {
			fmt.Fprintf(&b, "• %s x%d — OK (%s)\n", it.SKU, it.Qty, it.Code)
		} else {
			fmt.Fprintf(&b, "• %s x%d — FAILED: %s\n", it.SKU, it.Qty, it.Error)
		}
	}
	if len(p.Reasons) > 0 {
		fmt.Fprintf(&b, "Reasons: %s", strings.Join(p.Reasons, "; "))
	}
	return strings.TrimRight(b.String(), "\n")
}
