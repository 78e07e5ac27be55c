package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mstgnz/carepay/ledger"
)

// EventIDHeader identifies a delivery across gateway retries
const EventIDHeader = "X-Razorpay-Event-Id"

// State is the position of a delivery in the processing pipeline
type State string

const (
	StateReceived   State = "received"
	StateVerified   State = "verified"
	StateCorrelated State = "correlated"
	// StateApplied is the terminal state of a delivery that wrote a record;
	// StateAcknowledged marks a redelivery accepted without writing one.
	StateApplied      State = "applied"
	StateAcknowledged State = "acknowledged"
	StateRejected     State = "rejected"
	StateIgnored      State = "ignored"
	StateFailed       State = "failed"
)

// Delivery is one inbound webhook request
type Delivery struct {
	ID        string
	Route     Route
	Body      []byte
	Signature string
}

// Outcome is the acknowledgement for a delivery. Detail is safe to return to
// the caller; Err holds the internal cause for logs only.
type Outcome struct {
	State      State
	StatusCode int
	Detail     string
	Event      string
	PaymentID  string
	InvoiceID  string
	AccountID  string
	FacilityID string
	Duplicate  bool
	Record     *ledger.ReconciliationRecord
	Err        error
}

// Dispatcher drives a delivery through verify, correlate and apply
type Dispatcher struct {
	secret     string
	correlator *Correlator
	applier    *Applier
}

func NewDispatcher(secret string, correlator *Correlator, applier *Applier) *Dispatcher {
	return &Dispatcher{
		secret:     secret,
		correlator: correlator,
		applier:    applier,
	}
}

// Dispatch always yields an acknowledgement; it never panics on payload shape
func (d *Dispatcher) Dispatch(ctx context.Context, delivery Delivery) Outcome {
	out := Outcome{State: StateReceived}

	def, ok := routes[delivery.Route]
	if !ok {
		return out.fail(http.StatusNotFound, "Unknown webhook route", fmt.Errorf("unknown webhook route %q", delivery.Route))
	}

	if err := Verify(delivery.Body, delivery.Signature, d.secret); err != nil {
		out.State = StateRejected
		out.StatusCode = http.StatusUnauthorized
		out.Err = err
		if errors.Is(err, ErrMissingSignature) {
			out.Detail = "Missing signature"
		} else {
			out.Detail = "Invalid signature"
		}
		return out
	}
	out.State = StateVerified

	var event Event
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		return out.fail(http.StatusBadRequest, "Invalid payload", fmt.Errorf("%w: %v", ErrMalformedPayload, err))
	}
	out.Event = event.Event

	if !delivery.Route.Handles(event.Event) {
		out.State = StateIgnored
		out.StatusCode = http.StatusOK
		out.Detail = fmt.Sprintf("Event %q ignored", event.Event)
		return out
	}

	corr, err := d.correlator.Correlate(ctx, delivery.Route, &event)
	if err != nil {
		if event.Payload.Payment != nil && event.Payload.Payment.Entity != nil {
			out.PaymentID = event.Payload.Payment.Entity.ID
		}
		switch {
		case errors.Is(err, ErrMalformedPayload):
			return out.fail(http.StatusBadRequest, def.missing, err)
		case errors.Is(err, ledger.ErrInvoiceNotFound):
			return out.fail(http.StatusBadRequest, "Invoice not found", err)
		default:
			return out.fail(http.StatusInternalServerError, "Internal error", err)
		}
	}
	out.State = StateCorrelated
	out.PaymentID = corr.Payment.ID
	out.InvoiceID = corr.Invoice.ExternalID
	out.AccountID = corr.AccountID()
	out.FacilityID = corr.FacilityID()

	record, err := d.applier.Apply(ctx, corr.Invoice, corr.Payment, corr.Note)
	switch {
	case errors.Is(err, ledger.ErrDuplicateReconciliation):
		out.State = StateAcknowledged
		out.StatusCode = http.StatusOK
		out.Duplicate = true
		out.Detail = "Payment already reconciled"
		return out
	case err != nil:
		return out.fail(http.StatusInternalServerError, "Internal error", err)
	}
	out.Record = record
	out.State = StateApplied
	out.StatusCode = http.StatusOK
	out.Detail = "Payment reconciled"
	return out
}

func (o Outcome) fail(status int, detail string, err error) Outcome {
	o.State = StateFailed
	o.StatusCode = status
	o.Detail = detail
	o.Err = err
	return o
}
