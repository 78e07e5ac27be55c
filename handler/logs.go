package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/carepay/infra/logger"
	"github.com/mstgnz/carepay/infra/opensearch"
	"github.com/mstgnz/carepay/infra/response"
)

// DeliveryLogReader reads indexed webhook deliveries
type DeliveryLogReader interface {
	GetDeliveryLogs(ctx context.Context, deliveryID string) ([]opensearch.WebhookLog, error)
}

// LogsHandler exposes the webhook delivery history for replay diagnosis
type LogsHandler struct {
	reader DeliveryLogReader
}

// NewLogsHandler creates a logs handler; reader is nil when indexing is disabled
func NewLogsHandler(reader DeliveryLogReader) *LogsHandler {
	return &LogsHandler{reader: reader}
}

// GetDeliveryLogs handles GET /webhook/deliveries/{delivery_id}
func (h *LogsHandler) GetDeliveryLogs(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		response.Error(w, http.StatusServiceUnavailable, "Delivery logging is disabled", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	deliveryID := chi.URLParam(r, "delivery_id")
	logs, err := h.reader.GetDeliveryLogs(ctx, deliveryID)
	if err != nil {
		logger.Error("Failed to read delivery logs", err, logger.LogContext{
			RequestID: requestID(r),
			Fields:    map[string]any{"delivery_id": deliveryID},
		})
		response.Error(w, http.StatusInternalServerError, "Failed to read delivery logs", nil)
		return
	}

	if len(logs) == 0 {
		response.Error(w, http.StatusNotFound, "No deliveries recorded for this event", nil)
		return
	}

	response.Success(w, http.StatusOK, "Delivery logs retrieved", map[string]any{
		"delivery_id": deliveryID,
		"attempts":    len(logs),
		"logs":        logs,
	})
}
