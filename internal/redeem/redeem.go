// Package redeem converts a paid line item into a delivered entitlement by
// calling the UC top-up provider. The provider is not idempotent: the caller
// must make sure each item is redeemed at most once per order.
package redeem

// Outcome is the result of one redemption attempt. The provider call never
// surfaces as a Go error; every failure mode collapses into a failed Outcome
// so sibling items keep processing.
type Outcome struct {
	Success bool
	Code    string // provider confirmation / activation code
	Err     string // raw failure detail, kept for operators
}
