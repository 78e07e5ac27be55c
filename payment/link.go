package payment

import (
	"context"
	"errors"
	"time"

	"github.com/mstgnz/carepay/ledger"
	"github.com/mstgnz/carepay/merchant"
	"github.com/mstgnz/carepay/razorpay"
)

// CreateLinkRequest asks for a hosted payment link for an invoice
type CreateLinkRequest struct {
	InvoiceID               string     `json:"invoice_id" validate:"required,uuid4"`
	Email                   string     `json:"email" validate:"omitempty,email"`
	PhoneNumber             string     `json:"phone_number" validate:"omitempty,mobile"`
	IsPartialPaymentAllowed bool       `json:"is_partial_payment_allowed"`
	MinimumDownPayment      *float64   `json:"minimum_down_payment" validate:"omitempty,gt=0"`
	ExpiresAt               *time.Time `json:"expires_at" validate:"omitempty,future"`
}

// LinkView is the payment link as returned to API callers
type LinkView struct {
	ID         string     `json:"id"`
	ShortURL   string     `json:"short_url"`
	ExpireBy   *time.Time `json:"expire_by"`
	CreatedAt  *time.Time `json:"created_at"`
	Amount     float64    `json:"amount"`
	AmountPaid float64    `json:"amount_paid"`
	Status     string     `json:"status"`
}

// NewLinkView converts gateway epochs and minor units
func NewLinkView(link *razorpay.PaymentLink) *LinkView {
	return &LinkView{
		ID:         link.ID,
		ShortURL:   link.ShortURL,
		ExpireBy:   razorpay.EpochTime(link.ExpireBy),
		CreatedAt:  razorpay.EpochTime(link.CreatedAt),
		Amount:     razorpay.FromMinorUnits(link.Amount),
		AmountPaid: razorpay.FromMinorUnits(link.AmountPaid),
		Status:     link.Status,
	}
}

// BuildPaymentLinkRequest shapes the gateway body for inv, transferring the
// full amount to the facility's merchant account.
func BuildPaymentLinkRequest(inv *ledger.Invoice, req CreateLinkRequest, transferAccount, currency string) razorpay.PaymentLinkRequest {
	amount := razorpay.ToMinorUnits(inv.TotalGross)

	body := razorpay.PaymentLinkRequest{
		Amount:        amount,
		Currency:      currency,
		AcceptPartial: req.IsPartialPaymentAllowed,
		Description:   inv.Title,
		Customer: razorpay.Customer{
			Name:    inv.PatientName,
			Email:   req.Email,
			Contact: req.PhoneNumber,
		},
		Notify: razorpay.Notify{
			SMS:   req.PhoneNumber != "",
			Email: req.Email != "",
		},
		ReminderEnable: true,
		ReferenceID:    inv.ExternalID,
		ExpireBy:       epoch(req.ExpiresAt),
		Notes:          notesFor(inv),
		Options: &razorpay.LinkOptions{
			Order: razorpay.LinkOrderOptions{
				Transfers: []razorpay.Transfer{{
					Account:  transferAccount,
					Amount:   amount,
					Currency: currency,
				}},
			},
		},
	}

	if req.IsPartialPaymentAllowed && req.MinimumDownPayment != nil {
		minimum := razorpay.ToMinorUnits(*req.MinimumDownPayment)
		body.FirstMinPartialAmount = &minimum
	}
	return body
}

// CreatePaymentLink validates req, then creates the link at the gateway
func (s *Service) CreatePaymentLink(ctx context.Context, req CreateLinkRequest) (*LinkView, error) {
	if err := s.checkStruct(req); err != nil {
		return nil, err
	}
	if req.IsPartialPaymentAllowed && req.MinimumDownPayment == nil {
		return nil, &ValidationError{
			Field:   "minimum_down_payment",
			Message: "Minimum down payment is required when partial payment is allowed",
		}
	}

	inv, err := s.invoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if req.IsPartialPaymentAllowed && req.MinimumDownPayment != nil && *req.MinimumDownPayment > inv.TotalGross {
		return nil, &ValidationError{
			Field:   "minimum_down_payment",
			Message: "Minimum down payment cannot exceed the invoice total",
		}
	}

	transferAccount, err := s.transfers.TransferAccount(ctx, inv.FacilityID)
	if err != nil {
		if errors.Is(err, merchant.ErrNotFound) || errors.Is(err, merchant.ErrDisabled) {
			return nil, &ValidationError{Message: "Razorpay account is not configured for this facility"}
		}
		return nil, err
	}

	link, err := s.gateway.CreatePaymentLink(ctx, BuildPaymentLinkRequest(inv, req, transferAccount, s.currency))
	if err != nil {
		return nil, err
	}
	return NewLinkView(link), nil
}

// GetPaymentLink fetches a link's current status
func (s *Service) GetPaymentLink(ctx context.Context, id string) (*LinkView, error) {
	link, err := s.gateway.FetchPaymentLink(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewLinkView(link), nil
}
