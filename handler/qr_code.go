package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/carepay/infra/response"
	"github.com/mstgnz/carepay/payment"
)

// QRCodeService is the QR code side of payment.Service
type QRCodeService interface {
	CreateQRCode(ctx context.Context, req payment.CreateQRRequest) (*payment.QRView, error)
	GetQRCode(ctx context.Context, id string) (*payment.QRView, error)
}

// QRCodeHandler creates and retrieves UPI QR codes
type QRCodeHandler struct {
	service QRCodeService
}

var (
	_ Creatable   = (*QRCodeHandler)(nil)
	_ Retrievable = (*QRCodeHandler)(nil)
)

func NewQRCodeHandler(service QRCodeService) *QRCodeHandler {
	return &QRCodeHandler{service: service}
}

// Create handles POST /qr_code
func (h *QRCodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req payment.CreateQRRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	view, err := h.service.CreateQRCode(ctx, req)
	if err != nil {
		writeServiceError(w, r, "create qr code", err)
		return
	}

	response.Success(w, http.StatusCreated, "QR code created", view)
}

// Retrieve handles GET /qr_code/{id}
func (h *QRCodeHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.service.GetQRCode(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "fetch qr code", err)
		return
	}

	response.Success(w, http.StatusOK, "QR code retrieved", view)
}
