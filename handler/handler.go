package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/mstgnz/carepay/infra/logger"
	"github.com/mstgnz/carepay/infra/response"
	"github.com/mstgnz/carepay/merchant"
	"github.com/mstgnz/carepay/payment"
	"github.com/mstgnz/carepay/razorpay"
)

// requestTimeout bounds a single outbound-gateway backed request
const requestTimeout = 30 * time.Second

// Creatable handles POST on a collection
type Creatable interface {
	Create(w http.ResponseWriter, r *http.Request)
}

// Retrievable handles GET on a single resource
type Retrievable interface {
	Retrieve(w http.ResponseWriter, r *http.Request)
}

// Updatable handles PUT on a single resource
type Updatable interface {
	Update(w http.ResponseWriter, r *http.Request)
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError maps service errors onto client or server failures.
// Gateway rejections surface their own message as a client error.
func writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var (
		valErr      *payment.ValidationError
		gwErr       *razorpay.GatewayError
		facilityErr *merchant.FacilityError
		fieldErrs   validator.ValidationErrors
	)

	switch {
	case errors.As(err, &valErr):
		response.Error(w, http.StatusBadRequest, valErr.Message, valErr)
	case errors.As(err, &facilityErr):
		response.Error(w, http.StatusBadRequest, facilityErr.Error(), nil)
	case errors.As(err, &fieldErrs):
		response.Error(w, http.StatusBadRequest, "Validation error", err)
	case errors.Is(err, merchant.ErrDetailsNotFound):
		response.Error(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &gwErr):
		logger.Warn(action+" rejected by gateway", logger.LogContext{
			RequestID: requestID(r),
			Fields:    map[string]any{"status": gwErr.StatusCode, "code": gwErr.Code},
		})
		response.Error(w, http.StatusBadRequest, gwErr.Error(), nil)
	case errors.Is(err, merchant.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, merchant.ErrAlreadyExists):
		response.Error(w, http.StatusBadRequest, "Razorpay account already exists for this facility", nil)
	default:
		logger.Error(action+" failed", err, logger.LogContext{RequestID: requestID(r)})
		response.Error(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
