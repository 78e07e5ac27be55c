package payment

import (
	"context"
	"time"

	"github.com/mstgnz/carepay/ledger"
	"github.com/mstgnz/carepay/razorpay"
)

const qrTypeUPI = "upi_qr"

// CreateQRRequest asks for a UPI QR code for an invoice
type CreateQRRequest struct {
	InvoiceID     string               `json:"invoice_id" validate:"required,uuid4"`
	Usage         razorpay.QRCodeUsage `json:"usage" validate:"required,oneof=single_use multiple_use"`
	IsAmountFixed bool                 `json:"is_amount_fixed"`
	ClosesAt      *time.Time           `json:"closes_at" validate:"omitempty,future"`
}

// QRView is the QR code as returned to API callers
type QRView struct {
	ID                     string     `json:"id"`
	ImageURL               string     `json:"image_url"`
	CloseBy                *time.Time `json:"close_by"`
	CreatedAt              *time.Time `json:"created_at"`
	PaymentAmount          float64    `json:"payment_amount"`
	PaymentsAmountReceived float64    `json:"payments_amount_received"`
	PaymentsCountReceived  int        `json:"payments_count_received"`
	Status                 string     `json:"status"`
}

func NewQRView(qr *razorpay.QRCode) *QRView {
	return &QRView{
		ID:                     qr.ID,
		ImageURL:               qr.ImageURL,
		CloseBy:                razorpay.EpochTime(qr.CloseBy),
		CreatedAt:              razorpay.EpochTime(qr.CreatedAt),
		PaymentAmount:          razorpay.FromMinorUnits(qr.PaymentAmount),
		PaymentsAmountReceived: razorpay.FromMinorUnits(qr.PaymentsAmountReceived),
		PaymentsCountReceived:  qr.PaymentsCountReceived,
		Status:                 qr.Status,
	}
}

// BuildQRCodeRequest shapes the gateway body for inv. The payment amount is
// only sent for fixed-amount codes.
func BuildQRCodeRequest(inv *ledger.Invoice, req CreateQRRequest) razorpay.QRCodeRequest {
	body := razorpay.QRCodeRequest{
		Type:        qrTypeUPI,
		Name:        invoiceName(inv),
		Usage:       req.Usage,
		FixedAmount: req.IsAmountFixed,
		Description: inv.Title,
		CloseBy:     epoch(req.ClosesAt),
		Notes:       notesFor(inv),
	}
	if req.IsAmountFixed {
		amount := razorpay.ToMinorUnits(inv.TotalGross)
		body.PaymentAmount = &amount
	}
	return body
}

// CreateQRCode validates req, then creates the code at the gateway
func (s *Service) CreateQRCode(ctx context.Context, req CreateQRRequest) (*QRView, error) {
	if err := s.checkStruct(req); err != nil {
		return nil, err
	}
	if req.Usage == razorpay.UsageSingleUse && !req.IsAmountFixed {
		return nil, &ValidationError{
			Field:   "is_amount_fixed",
			Message: "Amount should be fixed when usage is single use",
		}
	}

	inv, err := s.invoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	qr, err := s.gateway.CreateQRCode(ctx, BuildQRCodeRequest(inv, req))
	if err != nil {
		return nil, err
	}
	return NewQRView(qr), nil
}

// GetQRCode fetches a QR code's current status
func (s *Service) GetQRCode(ctx context.Context, id string) (*QRView, error) {
	qr, err := s.gateway.FetchQRCode(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewQRView(qr), nil
}
