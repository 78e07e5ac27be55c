package webhook

import (
	"errors"

	"github.com/mstgnz/carepay/razorpay"
)

// ErrMalformedPayload marks a body that lacks the payment or its parent entity
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Route is the webhook endpoint a delivery arrived on
type Route string

const (
	RoutePaymentLink Route = "payment_link"
	RouteQRCode      Route = "qr_code"
)

const (
	EventPaymentLinkPaid          = "payment_link.paid"
	EventPaymentLinkPartiallyPaid = "payment_link.partially_paid"
	EventQRCodeCredited           = "qr_code.credited"
)

// Event is the envelope of a gateway webhook delivery
type Event struct {
	Entity    string   `json:"entity"`
	AccountID string   `json:"account_id"`
	Event     string   `json:"event"`
	Contains  []string `json:"contains"`
	CreatedAt int64    `json:"created_at"`
	Payload   Payload  `json:"payload"`
}

type Payload struct {
	Payment     *PaymentEnvelope `json:"payment"`
	PaymentLink *SourceEnvelope  `json:"payment_link"`
	QRCode      *SourceEnvelope  `json:"qr_code"`
}

type PaymentEnvelope struct {
	Entity *Payment `json:"entity"`
}

type SourceEnvelope struct {
	Entity *Source `json:"entity"`
}

// Payment is the captured payment embedded in an event
type Payment struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	CreatedAt int64  `json:"created_at"`
}

// Source is the payment link or QR code the payment was made through
type Source struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Notes  razorpay.Notes `json:"notes"`
}

type routeDef struct {
	events  map[string]bool
	source  func(Payload) *SourceEnvelope
	missing string
	note    string
}

var routes = map[Route]routeDef{
	RoutePaymentLink: {
		events: map[string]bool{
			EventPaymentLinkPaid:          true,
			EventPaymentLinkPartiallyPaid: true,
		},
		source:  func(p Payload) *SourceEnvelope { return p.PaymentLink },
		missing: "Payment or payment link not found",
		note:    "Payment made via Razorpay's payment link.",
	},
	RouteQRCode: {
		events: map[string]bool{
			EventQRCodeCredited: true,
		},
		source:  func(p Payload) *SourceEnvelope { return p.QRCode },
		missing: "Payment or QR code not found",
		note:    "Payment made via Razorpay's QR code.",
	},
}

// Handles reports whether the route acts on the event type
func (r Route) Handles(event string) bool {
	def, ok := routes[r]
	return ok && def.events[event]
}

// Valid reports whether r is a known webhook route
func (r Route) Valid() bool {
	_, ok := routes[r]
	return ok
}
