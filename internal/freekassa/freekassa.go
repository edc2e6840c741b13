// Package freekassa implements the inbound side of the FreeKassa merchant
// protocol: the callback field set and the MD5 notification signature.
package freekassa

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
)

// SuccessToken is the plain-text body FreeKassa expects on every accepted
// callback and on merchant-verification probes.
const SuccessToken = "YES"

// Notification is the raw field set of one callback delivery. It lives for
// the duration of a single request and is never persisted.
type Notification struct {
	OrderID     string // MERCHANT_ORDER_ID
	Amount      string // AMOUNT, kept as the raw string the gateway signed
	Signature   string // SIGN
	MerchantID  string // MERCHANT_ID
	PaymentID   string // intid, gateway-side payment id (logged only)
	StatusProbe bool   // status_check=1: liveness probe, no state access
}

func ParseForm(form url.Values) Notification {
	return Notification{
		OrderID:     form.Get("MERCHANT_ORDER_ID"),
		Amount:      form.Get("AMOUNT"),
		Signature:   form.Get("SIGN"),
		MerchantID:  form.Get("MERCHANT_ID"),
		PaymentID:   form.Get("intid"),
		StatusProbe: form.Get("status_check") == "1",
	}
}

// Complete reports whether all fields required for verification are present.
func (n Notification) Complete() bool {
	return n.OrderID != "" && n.Amount != "" && n.Signature != ""
}

// Sign computes the notification signature: lowercase hex MD5 over
// "ORDERID:AMOUNT:SECRET". Field order and separators are fixed by the
// gateway and must not change.
func Sign(orderID, amount, secret string) string {
	sum := md5.Sum([]byte(orderID + ":" + amount + ":" + secret))
	return hex.EncodeToString(sum[:])
}

// Verify checks n.Signature against the expected digest. An unconfigured
// secret always fails verification; "no secret" never means "trust the
// caller".
func Verify(n Notification, secret string) bool {
	if secret == "" {
		return false
	}
	return n.Signature == Sign(n.OrderID, n.Amount, secret)
}
