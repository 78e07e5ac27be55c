package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mstgnz/carepay/ledger"
	"github.com/mstgnz/carepay/razorpay"
)

// Notifier wakes the rebalancing relay without waiting for it
type Notifier interface {
	Notify()
}

// Applier turns a correlated payment into a reconciliation record and its
// rebalancing task, written together by the ledger writer.
type Applier struct {
	writer   ledger.ReconciliationWriter
	notifier Notifier
	now      func() time.Time
}

// NewApplier creates an applier. notifier may be nil when no relay runs.
func NewApplier(writer ledger.ReconciliationWriter, notifier Notifier) *Applier {
	return &Applier{
		writer:   writer,
		notifier: notifier,
		now:      time.Now,
	}
}

// Apply records payment against invoice. A redelivered payment returns
// ledger.ErrDuplicateReconciliation and enqueues nothing.
func (a *Applier) Apply(ctx context.Context, invoice *ledger.Invoice, payment Payment, note string) (*ledger.ReconciliationRecord, error) {
	record := BuildRecord(invoice, payment, note)
	record.ID = uuid.NewString()
	record.CreatedDate = a.now().UTC()

	task := &ledger.RebalanceTask{
		ID:               uuid.NewString(),
		AccountID:        invoice.AccountID,
		InvoiceID:        invoice.ExternalID,
		ReconciliationID: record.ID,
		EnqueuedAt:       record.CreatedDate,
	}

	if err := a.writer.CreateReconciliation(ctx, record, task); err != nil {
		return nil, err
	}

	if a.notifier != nil {
		a.notifier.Notify()
	}
	return record, nil
}

// BuildRecord maps a gateway payment onto the fixed reconciliation classification
func BuildRecord(invoice *ledger.Invoice, payment Payment, note string) *ledger.ReconciliationRecord {
	amount := razorpay.FromMinorUnits(payment.Amount)
	return &ledger.ReconciliationRecord{
		TargetInvoiceID: invoice.ExternalID,
		AccountID:       invoice.AccountID,
		FacilityID:      invoice.FacilityID,
		Type:            ledger.TypePayment,
		Status:          ledger.StatusActive,
		Kind:            ledger.KindOnline,
		IssuerType:      ledger.IssuerPatient,
		Outcome:         ledger.OutcomeComplete,
		Method:          ledger.MethodDebitCard,
		PaymentDatetime: time.Unix(payment.CreatedAt, 0).UTC(),
		Amount:          amount,
		TenderedAmount:  amount,
		ReturnedAmount:  0,
		Note:            note,
		ReferenceNumber: payment.ID,
	}
}
