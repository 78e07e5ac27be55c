package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/carepay/infra/middle"
	"github.com/mstgnz/carepay/infra/response"
	"github.com/mstgnz/carepay/merchant"
)

// AccountService is the merchant account registration surface
type AccountService interface {
	List(ctx context.Context, scope merchant.Scope) ([]*merchant.Account, error)
	Get(ctx context.Context, scope merchant.Scope, facilityID string) (*merchant.Account, error)
	Create(ctx context.Context, req merchant.CreateRequest) (*merchant.Account, error)
	Update(ctx context.Context, facilityID string, req merchant.UpdateRequest) (*merchant.Account, error)
	Details(ctx context.Context, facilityID string) (*merchant.Account, error)
}

// RazorpayAccountHandler manages a facility's linked merchant account.
// Write permissions are enforced by middleware; visibility by scope here.
type RazorpayAccountHandler struct {
	service AccountService
}

var (
	_ Creatable   = (*RazorpayAccountHandler)(nil)
	_ Retrievable = (*RazorpayAccountHandler)(nil)
	_ Updatable   = (*RazorpayAccountHandler)(nil)
)

func NewRazorpayAccountHandler(service AccountService) *RazorpayAccountHandler {
	return &RazorpayAccountHandler{service: service}
}

// scopeOf derives visibility from the authenticated user
func scopeOf(r *http.Request) merchant.Scope {
	claims := middle.GetClaims(r.Context())
	if claims == nil {
		return merchant.Scope{}
	}
	return merchant.Scope{
		Superuser:   claims.IsSuperuser,
		FacilityIDs: claims.FacilityIDs,
	}
}

// List handles GET /razorpay_account
func (h *RazorpayAccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context(), scopeOf(r))
	if err != nil {
		writeServiceError(w, r, "list razorpay accounts", err)
		return
	}
	response.Success(w, http.StatusOK, "Razorpay accounts retrieved", accounts)
}

// Retrieve handles GET /razorpay_account/{facility_id}
func (h *RazorpayAccountHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Get(r.Context(), scopeOf(r), chi.URLParam(r, "facility_id"))
	if err != nil {
		writeServiceError(w, r, "get razorpay account", err)
		return
	}
	response.Success(w, http.StatusOK, "Razorpay account retrieved", account)
}

// Create handles POST /razorpay_account
func (h *RazorpayAccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req merchant.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	account, err := h.service.Create(ctx, req)
	if err != nil {
		writeServiceError(w, r, "create razorpay account", err)
		return
	}
	response.Success(w, http.StatusCreated, "Razorpay account created", account)
}

// Update handles PUT /razorpay_account/{facility_id}
func (h *RazorpayAccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	facilityID := chi.URLParam(r, "facility_id")
	if _, err := h.service.Get(ctx, scopeOf(r), facilityID); err != nil {
		writeServiceError(w, r, "update razorpay account", err)
		return
	}

	var req merchant.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	account, err := h.service.Update(ctx, facilityID, req)
	if err != nil {
		writeServiceError(w, r, "update razorpay account", err)
		return
	}
	response.Success(w, http.StatusOK, "Razorpay account updated", account)
}

// Details handles GET /razorpay_account/{facility_id}/details
func (h *RazorpayAccountHandler) Details(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	facilityID := chi.URLParam(r, "facility_id")
	if _, err := h.service.Get(ctx, scopeOf(r), facilityID); err != nil {
		writeServiceError(w, r, "refresh razorpay account", err)
		return
	}

	account, err := h.service.Details(ctx, facilityID)
	if err != nil {
		writeServiceError(w, r, "refresh razorpay account", err)
		return
	}
	response.Success(w, http.StatusOK, "Razorpay account refreshed", account)
}
