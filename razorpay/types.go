package razorpay

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// Notes is the correlation bag stamped on every gateway resource this service
// creates. The gateway echoes it back verbatim on related webhooks.
type Notes struct {
	InvoiceID  string `json:"invoice_id,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	PatientID  string `json:"patient_id,omitempty"`
	FacilityID string `json:"facility_id,omitempty"`
}

// UnmarshalJSON accepts the empty array the gateway sends for resources without notes
func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")) {
		*n = Notes{}
		return nil
	}

	type plain Notes
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*n = Notes(p)
	return nil
}

type Customer struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type Notify struct {
	SMS   bool `json:"sms"`
	Email bool `json:"email"`
}

// Transfer routes part of a payment to a linked merchant account
type Transfer struct {
	Account  string `json:"account"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type LinkOrderOptions struct {
	Transfers []Transfer `json:"transfers"`
}

type LinkOptions struct {
	Order LinkOrderOptions `json:"order"`
}

// PaymentLinkRequest is the body of POST /v1/payment_links
type PaymentLinkRequest struct {
	Amount                int64        `json:"amount"`
	Currency              string       `json:"currency"`
	AcceptPartial         bool         `json:"accept_partial"`
	FirstMinPartialAmount *int64       `json:"first_min_partial_amount,omitempty"`
	Description           string       `json:"description,omitempty"`
	Customer              Customer     `json:"customer"`
	Notify                Notify       `json:"notify"`
	ReminderEnable        bool         `json:"reminder_enable"`
	ReferenceID           string       `json:"reference_id,omitempty"`
	ExpireBy              *int64       `json:"expire_by,omitempty"`
	Notes                 Notes        `json:"notes"`
	Options               *LinkOptions `json:"options,omitempty"`
}

// PaymentLink is the gateway representation of a payment link
type PaymentLink struct {
	ID          string `json:"id"`
	ShortURL    string `json:"short_url"`
	ExpireBy    int64  `json:"expire_by"`
	CreatedAt   int64  `json:"created_at"`
	Amount      int64  `json:"amount"`
	AmountPaid  int64  `json:"amount_paid"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
	Notes       Notes  `json:"notes"`
}

type QRCodeUsage string

const (
	UsageSingleUse   QRCodeUsage = "single_use"
	UsageMultipleUse QRCodeUsage = "multiple_use"
)

// QRCodeRequest is the body of POST /v1/payments/qr_codes
type QRCodeRequest struct {
	Type          string      `json:"type"`
	Name          string      `json:"name"`
	Usage         QRCodeUsage `json:"usage"`
	FixedAmount   bool        `json:"fixed_amount"`
	PaymentAmount *int64      `json:"payment_amount,omitempty"`
	Description   string      `json:"description,omitempty"`
	CloseBy       *int64      `json:"close_by,omitempty"`
	Notes         Notes       `json:"notes"`
}

// QRCode is the gateway representation of a UPI QR code
type QRCode struct {
	ID                     string      `json:"id"`
	ImageURL               string      `json:"image_url"`
	Usage                  QRCodeUsage `json:"usage"`
	FixedAmount            bool        `json:"fixed_amount"`
	CloseBy                int64       `json:"close_by"`
	CreatedAt              int64       `json:"created_at"`
	PaymentAmount          int64       `json:"payment_amount"`
	PaymentsAmountReceived int64       `json:"payments_amount_received"`
	PaymentsCountReceived  int         `json:"payments_count_received"`
	Status                 string      `json:"status"`
	Notes                  Notes       `json:"notes"`
}

// ToMinorUnits converts a major-unit amount to paise, rounding to the nearest unit
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts paise to the major-unit amount
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

// EpochTime converts gateway epoch seconds to UTC. Zero means "not set".
func EpochTime(seconds int64) *time.Time {
	if seconds == 0 {
		return nil
	}
	t := time.Unix(seconds, 0).UTC()
	return &t
}
