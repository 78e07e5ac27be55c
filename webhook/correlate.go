package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/mstgnz/carepay/ledger"
)

// Correlation is a payment event resolved to the invoice it settles
type Correlation struct {
	Invoice *ledger.Invoice
	Payment Payment
	Source  Source
	Note    string
}

// AccountID is the invoice's account, never the one echoed back in notes
func (c *Correlation) AccountID() string { return c.Invoice.AccountID }

// FacilityID is the invoice's facility
func (c *Correlation) FacilityID() string { return c.Invoice.FacilityID }

// PatientID is the invoice's patient
func (c *Correlation) PatientID() string { return c.Invoice.PatientID }

// Correlator maps gateway events back to invoices through their correlation notes
type Correlator struct {
	invoices ledger.InvoiceReader
}

func NewCorrelator(invoices ledger.InvoiceReader) *Correlator {
	return &Correlator{invoices: invoices}
}

// Correlate resolves the invoice named by the parent entity's notes.
// It fails with ErrMalformedPayload when the payment or parent entity is
// missing and with ledger.ErrInvoiceNotFound when the notes name no invoice.
func (c *Correlator) Correlate(ctx context.Context, route Route, event *Event) (*Correlation, error) {
	def, ok := routes[route]
	if !ok {
		return nil, fmt.Errorf("unknown webhook route %q", route)
	}

	payment := event.Payload.Payment
	source := def.source(event.Payload)
	if payment == nil || payment.Entity == nil || source == nil || source.Entity == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, def.missing)
	}
	if payment.Entity.ID == "" {
		return nil, fmt.Errorf("%w: payment id is missing", ErrMalformedPayload)
	}

	invoiceID := source.Entity.Notes.InvoiceID
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: notes carry no invoice_id", ledger.ErrInvoiceNotFound)
	}

	invoice, err := c.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, ledger.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup invoice %s: %w", invoiceID, err)
	}

	return &Correlation{
		Invoice: invoice,
		Payment: *payment.Entity,
		Source:  *source.Entity,
		Note:    def.note,
	}, nil
}
