// Package ledger describes the invoicing collaborator this service writes into:
// the invoice read model used for correlation, the append-only reconciliation
// record, and the rebalancing task handed to the downstream ledger.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrFacilityNotFound        = errors.New("facility not found")
	ErrDuplicateReconciliation = errors.New("payment already reconciled")
)

// Facility is the owning organisation of invoices and merchant accounts
type Facility struct {
	ExternalID string `json:"id"`
	Name       string `json:"name"`
}

// Invoice is the subset of the platform invoice this service reads
type Invoice struct {
	ExternalID  string  `json:"id"`
	Title       string  `json:"title"`
	TotalGross  float64 `json:"total_gross"`
	AccountID   string  `json:"account_id"`
	PatientID   string  `json:"patient_id"`
	PatientName string  `json:"patient_name"`
	FacilityID  string  `json:"facility_id"`
}

type (
	ReconciliationType string
	Status             string
	Kind               string
	IssuerType         string
	Outcome            string
	PaymentMethod      string
)

const (
	TypePayment         ReconciliationType = "payment"
	StatusActive        Status             = "active"
	KindOnline          Kind               = "online"
	IssuerPatient       IssuerType         = "patient"
	OutcomeComplete     Outcome            = "complete"
	MethodDebitCard     PaymentMethod      = "debc"
	DefaultCurrencyCode                    = "INR"
)

// ReconciliationRecord is one recognised gateway payment against an invoice
type ReconciliationRecord struct {
	ID              string             `json:"id"`
	TargetInvoiceID string             `json:"target_invoice_id"`
	AccountID       string             `json:"account_id"`
	FacilityID      string             `json:"facility_id"`
	Type            ReconciliationType `json:"reconciliation_type"`
	Status          Status             `json:"status"`
	Kind            Kind               `json:"kind"`
	IssuerType      IssuerType         `json:"issuer_type"`
	Outcome         Outcome            `json:"outcome"`
	Method          PaymentMethod      `json:"method"`
	PaymentDatetime time.Time          `json:"payment_datetime"`
	Amount          float64            `json:"amount"`
	TenderedAmount  float64            `json:"tendered_amount"`
	ReturnedAmount  float64            `json:"returned_amount"`
	IsCreditNote    bool               `json:"is_credit_note"`
	Authorization   string             `json:"authorization"`
	Disposition     string             `json:"disposition"`
	Note            string             `json:"note"`
	ReferenceNumber string             `json:"reference_number"`
	CreatedDate     time.Time          `json:"created_date"`
}

// RebalanceTask asks the ledger to recompute an account's totals
type RebalanceTask struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account_id"`
	InvoiceID        string    `json:"invoice_id"`
	ReconciliationID string    `json:"reconciliation_id"`
	EnqueuedAt       time.Time `json:"enqueued_at"`
	Attempts         int       `json:"attempts"`
}

// InvoiceReader resolves invoices by their external identifier
type InvoiceReader interface {
	GetInvoice(ctx context.Context, externalID string) (*Invoice, error)
}

// FacilityReader resolves facilities by their external identifier
type FacilityReader interface {
	GetFacility(ctx context.Context, externalID string) (*Facility, error)
}

// ReconciliationWriter persists a record together with its rebalancing task.
// Implementations return ErrDuplicateReconciliation when the invoice already
// has a record with the same reference number, and must not enqueue the task then.
type ReconciliationWriter interface {
	CreateReconciliation(ctx context.Context, record *ReconciliationRecord, task *RebalanceTask) error
}
