package redeem

import (
	"context"
	"crypto/rand"
	"fmt"
)

// Simulator replaces the provider in test/demo deployments: synthetic codes,
// no real entitlements. SKUs listed in FailSKUs fail deterministically so
// the error path can be exercised end to end.
type Simulator struct {
	FailSKUs map[string]bool
}

func (s *Simulator) Redeem(ctx context.Context, playerID, sku string, qty int) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Err: fmt.Sprintf("simulated redeem: %v", err)}
	}
	if s.FailSKUs[sku] {
		return Outcome{Err: fmt.Sprintf("simulated provider failure for sku %s", sku)}
	}
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return Outcome{Success: true, Code: fmt.Sprintf("SIM-%X", b)}
}
