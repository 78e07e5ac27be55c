package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/carepay/infra/auth"
	"github.com/mstgnz/carepay/infra/middle"
	"github.com/mstgnz/carepay/merchant"
	"github.com/mstgnz/carepay/razorpay"
)

type fakeAccounts struct {
	accounts   map[string]*merchant.Account
	gatewayErr error
	updated    []string
}

func (f *fakeAccounts) List(_ context.Context, scope merchant.Scope) ([]*merchant.Account, error) {
	out := []*merchant.Account{}
	for id, a := range f.accounts {
		if scope.Allows(id) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) Get(_ context.Context, scope merchant.Scope, facilityID string) (*merchant.Account, error) {
	a, ok := f.accounts[facilityID]
	if !ok || !scope.Allows(facilityID) {
		return nil, merchant.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) Create(_ context.Context, req merchant.CreateRequest) (*merchant.Account, error) {
	if req.FacilityID == "missing" {
		return nil, &merchant.FacilityError{FacilityID: req.FacilityID}
	}
	if f.gatewayErr != nil {
		return nil, fmt.Errorf("fetch razorpay account %s: %w", req.AccountID, f.gatewayErr)
	}
	a := &merchant.Account{ID: "ra-1", FacilityID: req.FacilityID, AccountID: req.AccountID, IsEnabled: true}
	f.accounts[req.FacilityID] = a
	return a, nil
}

func (f *fakeAccounts) Update(_ context.Context, facilityID string, req merchant.UpdateRequest) (*merchant.Account, error) {
	a := f.accounts[facilityID]
	a.AccountID = req.AccountID
	f.updated = append(f.updated, facilityID)
	return a, nil
}

func (f *fakeAccounts) Details(_ context.Context, facilityID string) (*merchant.Account, error) {
	if f.gatewayErr != nil {
		return nil, f.gatewayErr
	}
	a := f.accounts[facilityID]
	a.Metadata = map[string]any{"status": "activated"}
	return a, nil
}

func accountRouter(h *RazorpayAccountHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/razorpay_account", func(r chi.Router) {
		r.Use(middle.SuperuserOrReadOnly())
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{facility_id}", h.Retrieve)
		r.Put("/{facility_id}", h.Update)
		r.With(middle.RequireSuperuser()).Get("/{facility_id}/details", h.Details)
	})
	return r
}

func asUser(req *http.Request, superuser bool, facilities ...string) *http.Request {
	claims := &auth.JWTClaims{UserID: "u-1", IsSuperuser: superuser, FacilityIDs: facilities}
	return req.WithContext(middle.WithClaims(req.Context(), claims))
}

func TestRazorpayAccountHandler_Scope(t *testing.T) {
	svc := &fakeAccounts{accounts: map[string]*merchant.Account{
		"fac-1": {ID: "ra-1", FacilityID: "fac-1", AccountID: "acc_A"},
		"fac-2": {ID: "ra-2", FacilityID: "fac-2", AccountID: "acc_B"},
	}}
	router := accountRouter(NewRazorpayAccountHandler(svc))

	t.Run("member_lists_own_facilities", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/razorpay_account/", nil), false, "fac-1"))
		assert.Equal(t, http.StatusOK, rr.Code)
		data := decodeResponse(t, rr).Data.([]any)
		assert.Len(t, data, 1)
	})

	t.Run("member_gets_own_facility", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/razorpay_account/fac-1", nil), false, "fac-1"))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("other_facility_is_not_found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/razorpay_account/fac-2", nil), false, "fac-1"))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("member_cannot_write", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/razorpay_account/fac-1", strings.NewReader(`{"account_id":"acc_X"}`))
		router.ServeHTTP(rr, asUser(req, false, "fac-1"))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Empty(t, svc.updated)
	})

	t.Run("member_cannot_refresh_details", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/razorpay_account/fac-1/details", nil), false, "fac-1"))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("superuser_updates", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/razorpay_account/fac-2", strings.NewReader(`{"account_id":"acc_C"}`))
		router.ServeHTTP(rr, asUser(req, true))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"fac-2"}, svc.updated)
		assert.Equal(t, "acc_C", svc.accounts["fac-2"].AccountID)
	})

	t.Run("superuser_refreshes_details", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/razorpay_account/fac-1/details", nil), true))
		assert.Equal(t, http.StatusOK, rr.Code)
		data := decodeResponse(t, rr).Data.(map[string]any)
		assert.Equal(t, map[string]any{"status": "activated"}, data["metadata"])
	})
}

func TestRazorpayAccountHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		gatewayErr error
		status     int
		message    string
	}{
		{
			name:   "created",
			body:   `{"facility_id":"fac-9","account_id":"acc_NEW"}`,
			status: http.StatusCreated,
		},
		{
			name:    "unknown_facility",
			body:    `{"facility_id":"missing","account_id":"acc_NEW"}`,
			status:  http.StatusBadRequest,
			message: "Facility with external_id missing does not exist.",
		},
		{
			name:       "gateway_rejects_account",
			body:       `{"facility_id":"fac-9","account_id":"acc_BAD"}`,
			gatewayErr: &razorpay.GatewayError{StatusCode: 400, Description: "The id provided does not exist"},
			status:     http.StatusBadRequest,
			message:    "The id provided does not exist",
		},
		{
			name:    "malformed",
			body:    `not json`,
			status:  http.StatusBadRequest,
			message: "Invalid request format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAccounts{accounts: map[string]*merchant.Account{}, gatewayErr: tt.gatewayErr}
			router := accountRouter(NewRazorpayAccountHandler(svc))

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/razorpay_account/", strings.NewReader(tt.body))
			router.ServeHTTP(rr, asUser(req, true))

			assert.Equal(t, tt.status, rr.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, decodeResponse(t, rr).Message)
			}
		})
	}
}

func TestRazorpayAccountHandler_DetailsNotFoundOnGateway(t *testing.T) {
	svc := &fakeAccounts{
		accounts:   map[string]*merchant.Account{"fac-1": {FacilityID: "fac-1", AccountID: "acc_A"}},
		gatewayErr: merchant.ErrDetailsNotFound,
	}
	router := accountRouter(NewRazorpayAccountHandler(svc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/razorpay_account/fac-1/details", nil), true))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Razorpay account details not found on Razorpay", decodeResponse(t, rr).Message)
}
