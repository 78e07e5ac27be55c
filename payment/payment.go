// Package payment builds and proxies the payment link and QR code requests
// sent to the gateway on behalf of an invoice.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mstgnz/carepay/ledger"
	"github.com/mstgnz/carepay/razorpay"
)

// ValidationError rejects a creation request before any gateway call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Gateway is the subset of the Razorpay client used here
type Gateway interface {
	CreatePaymentLink(ctx context.Context, req razorpay.PaymentLinkRequest) (*razorpay.PaymentLink, error)
	FetchPaymentLink(ctx context.Context, id string) (*razorpay.PaymentLink, error)
	CreateQRCode(ctx context.Context, req razorpay.QRCodeRequest) (*razorpay.QRCode, error)
	FetchQRCode(ctx context.Context, id string) (*razorpay.QRCode, error)
}

// TransferAccounts resolves the merchant account a facility's links pay into
type TransferAccounts interface {
	TransferAccount(ctx context.Context, facilityID string) (string, error)
}

// Service validates creation requests and talks to the gateway
type Service struct {
	gateway   Gateway
	invoices  ledger.InvoiceReader
	transfers TransferAccounts
	validate  *validator.Validate
	currency  string
}

func NewService(gateway Gateway, invoices ledger.InvoiceReader, transfers TransferAccounts, validate *validator.Validate, currency string) *Service {
	if currency == "" {
		currency = ledger.DefaultCurrencyCode
	}
	return &Service{
		gateway:   gateway,
		invoices:  invoices,
		transfers: transfers,
		validate:  validate,
		currency:  currency,
	}
}

var fieldMessages = map[string]string{
	"invoice_id":           "Invalid invoice id",
	"email":                "Invalid email",
	"phone_number":         "Invalid phone number",
	"expires_at":           "Expiration date must be in the future",
	"closes_at":            "Closing date must be in the future",
	"minimum_down_payment": "Minimum down payment must be greater than zero",
	"usage":                "Usage must be single_use or multiple_use",
}

// checkStruct runs the tag rules and reports the first failure by field
func (s *Service) checkStruct(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	msg := fieldMessages[fe.Field()]
	if fe.Tag() == "required" {
		msg = "This field is required"
	} else if msg == "" {
		msg = fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}

// invoice loads the target invoice, turning a miss into a validation failure
func (s *Service) invoice(ctx context.Context, externalID string) (*ledger.Invoice, error) {
	inv, err := s.invoices.GetInvoice(ctx, externalID)
	if errors.Is(err, ledger.ErrInvoiceNotFound) {
		return nil, &ValidationError{Field: "invoice_id", Message: "Invoice not found"}
	}
	return inv, err
}

func notesFor(inv *ledger.Invoice) razorpay.Notes {
	return razorpay.Notes{
		InvoiceID:  inv.ExternalID,
		AccountID:  inv.AccountID,
		PatientID:  inv.PatientID,
		FacilityID: inv.FacilityID,
	}
}

func epoch(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}

func invoiceName(inv *ledger.Invoice) string {
	if strings.TrimSpace(inv.Title) != "" {
		return inv.Title
	}
	return "Invoice " + inv.ExternalID
}
