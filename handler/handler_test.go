package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/carepay/infra/response"
	"github.com/mstgnz/carepay/payment"
	"github.com/mstgnz/carepay/razorpay"
)

type mockPaymentService struct {
	createLinkFunc func(ctx context.Context, req payment.CreateLinkRequest) (*payment.LinkView, error)
	getLinkFunc    func(ctx context.Context, id string) (*payment.LinkView, error)
	createQRFunc   func(ctx context.Context, req payment.CreateQRRequest) (*payment.QRView, error)
	getQRFunc      func(ctx context.Context, id string) (*payment.QRView, error)
}

func (m *mockPaymentService) CreatePaymentLink(ctx context.Context, req payment.CreateLinkRequest) (*payment.LinkView, error) {
	return m.createLinkFunc(ctx, req)
}

func (m *mockPaymentService) GetPaymentLink(ctx context.Context, id string) (*payment.LinkView, error) {
	return m.getLinkFunc(ctx, id)
}

func (m *mockPaymentService) CreateQRCode(ctx context.Context, req payment.CreateQRRequest) (*payment.QRView, error) {
	return m.createQRFunc(ctx, req)
}

func (m *mockPaymentService) GetQRCode(ctx context.Context, id string) (*payment.QRView, error) {
	return m.getQRFunc(ctx, id)
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func serve(method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestPaymentLinkHandler_Create(t *testing.T) {
	var got payment.CreateLinkRequest
	svc := &mockPaymentService{
		createLinkFunc: func(_ context.Context, req payment.CreateLinkRequest) (*payment.LinkView, error) {
			got = req
			return &payment.LinkView{ID: "plink_1", ShortURL: "https://rzp.io/i/abc", Amount: 150, Status: "created"}, nil
		},
	}
	h := NewPaymentLinkHandler(svc)

	rr := serve(http.MethodPost, "/payment_link", "/payment_link",
		`{"invoice_id":"0b9f6c1e-5f5a-4c47-9a57-3f0e4b1d2a10","email":"a@b.com","is_partial_payment_allowed":false}`, h.Create)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "a@b.com", got.Email)
	assert.False(t, got.IsPartialPaymentAllowed)

	resp := decodeResponse(t, rr)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "plink_1", data["id"])
	assert.Equal(t, "https://rzp.io/i/abc", data["short_url"])
	assert.Nil(t, data["expire_by"])
}

func TestPaymentLinkHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		status  int
		message string
	}{
		{
			name:    "invalid_json",
			body:    `{"invoice_id":`,
			status:  http.StatusBadRequest,
			message: "Invalid request format",
		},
		{
			name:    "validation",
			body:    `{"invoice_id":"x","is_partial_payment_allowed":true}`,
			err:     &payment.ValidationError{Field: "minimum_down_payment", Message: "Minimum down payment is required when partial payment is allowed"},
			status:  http.StatusBadRequest,
			message: "Minimum down payment is required when partial payment is allowed",
		},
		{
			name:    "gateway_rejection",
			body:    `{"invoice_id":"x"}`,
			err:     &razorpay.GatewayError{StatusCode: 400, Code: "BAD_REQUEST_ERROR", Description: "The amount must be atleast INR 1.00"},
			status:  http.StatusBadRequest,
			message: "The amount must be atleast INR 1.00",
		},
		{
			name:    "unexpected",
			body:    `{"invoice_id":"x"}`,
			err:     errors.New("database is locked"),
			status:  http.StatusInternalServerError,
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{
				createLinkFunc: func(context.Context, payment.CreateLinkRequest) (*payment.LinkView, error) {
					return nil, tt.err
				},
			}
			rr := serve(http.MethodPost, "/payment_link", "/payment_link", tt.body, NewPaymentLinkHandler(svc).Create)

			assert.Equal(t, tt.status, rr.Code)
			resp := decodeResponse(t, rr)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
			assert.NotContains(t, rr.Body.String(), "database is locked")
		})
	}
}

func TestPaymentLinkHandler_Retrieve(t *testing.T) {
	svc := &mockPaymentService{
		getLinkFunc: func(_ context.Context, id string) (*payment.LinkView, error) {
			if id != "plink_1" {
				return nil, &razorpay.GatewayError{StatusCode: 400, Description: "The id provided does not exist"}
			}
			return &payment.LinkView{ID: id, Status: "paid", AmountPaid: 150}, nil
		},
	}
	h := NewPaymentLinkHandler(svc)

	rr := serve(http.MethodGet, "/payment_link/{id}", "/payment_link/plink_1", "", h.Retrieve)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "paid", decodeResponse(t, rr).Data.(map[string]any)["status"])

	rr = serve(http.MethodGet, "/payment_link/{id}", "/payment_link/plink_missing", "", h.Retrieve)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "The id provided does not exist", decodeResponse(t, rr).Message)
}

func TestQRCodeHandler(t *testing.T) {
	var got payment.CreateQRRequest
	svc := &mockPaymentService{
		createQRFunc: func(_ context.Context, req payment.CreateQRRequest) (*payment.QRView, error) {
			got = req
			if req.Usage == razorpay.UsageSingleUse && !req.IsAmountFixed {
				return nil, &payment.ValidationError{Field: "is_amount_fixed", Message: "Amount should be fixed when usage is single use"}
			}
			return &payment.QRView{ID: "qr_1", ImageURL: "https://rzp.io/qr.png", PaymentAmount: 150, Status: "active"}, nil
		},
		getQRFunc: func(_ context.Context, id string) (*payment.QRView, error) {
			return &payment.QRView{ID: id, Status: "closed", PaymentsCountReceived: 1}, nil
		},
	}
	h := NewQRCodeHandler(svc)

	t.Run("create", func(t *testing.T) {
		rr := serve(http.MethodPost, "/qr_code", "/qr_code",
			`{"invoice_id":"0b9f6c1e-5f5a-4c47-9a57-3f0e4b1d2a10","usage":"single_use","is_amount_fixed":true}`, h.Create)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, razorpay.UsageSingleUse, got.Usage)
		assert.Equal(t, "qr_1", decodeResponse(t, rr).Data.(map[string]any)["id"])
	})

	t.Run("single_use_without_fixed_amount", func(t *testing.T) {
		rr := serve(http.MethodPost, "/qr_code", "/qr_code",
			`{"invoice_id":"0b9f6c1e-5f5a-4c47-9a57-3f0e4b1d2a10","usage":"single_use"}`, h.Create)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Amount should be fixed when usage is single use", decodeResponse(t, rr).Message)
	})

	t.Run("retrieve", func(t *testing.T) {
		rr := serve(http.MethodGet, "/qr_code/{id}", "/qr_code/qr_9", "", h.Retrieve)
		assert.Equal(t, http.StatusOK, rr.Code)
		data := decodeResponse(t, rr).Data.(map[string]any)
		assert.Equal(t, "qr_9", data["id"])
		assert.Equal(t, "closed", data["status"])
	})
}
