package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/carepay/infra/response"
	"github.com/mstgnz/carepay/payment"
)

// PaymentLinkService is the payment link side of payment.Service
type PaymentLinkService interface {
	CreatePaymentLink(ctx context.Context, req payment.CreateLinkRequest) (*payment.LinkView, error)
	GetPaymentLink(ctx context.Context, id string) (*payment.LinkView, error)
}

// PaymentLinkHandler creates and retrieves gateway payment links
type PaymentLinkHandler struct {
	service PaymentLinkService
}

var (
	_ Creatable   = (*PaymentLinkHandler)(nil)
	_ Retrievable = (*PaymentLinkHandler)(nil)
)

func NewPaymentLinkHandler(service PaymentLinkService) *PaymentLinkHandler {
	return &PaymentLinkHandler{service: service}
}

// Create handles POST /payment_link
func (h *PaymentLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req payment.CreateLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	view, err := h.service.CreatePaymentLink(ctx, req)
	if err != nil {
		writeServiceError(w, r, "create payment link", err)
		return
	}

	response.Success(w, http.StatusCreated, "Payment link created", view)
}

// Retrieve handles GET /payment_link/{id}
func (h *PaymentLinkHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.service.GetPaymentLink(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "fetch payment link", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment link retrieved", view)
}
