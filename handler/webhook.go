package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/mstgnz/carepay/infra/logger"
	"github.com/mstgnz/carepay/infra/middle"
	"github.com/mstgnz/carepay/infra/opensearch"
	"github.com/mstgnz/carepay/infra/response"
	"github.com/mstgnz/carepay/webhook"
)

// webhookTimeout keeps processing inside the gateway's delivery budget
const webhookTimeout = 5 * time.Second

// Dispatcher processes one verified or unverified webhook delivery
type Dispatcher interface {
	Dispatch(ctx context.Context, delivery webhook.Delivery) webhook.Outcome
}

// DeliveryRecorder indexes webhook deliveries for replay diagnosis
type DeliveryRecorder interface {
	LogWebhookDelivery(ctx context.Context, entry opensearch.WebhookLog) error
}

// WebhookHandler receives Razorpay webhook deliveries. Callers are trusted
// only through the signature header, never through a session.
type WebhookHandler struct {
	dispatcher Dispatcher
	recorder   DeliveryRecorder
}

// NewWebhookHandler creates a webhook handler; recorder may be nil
func NewWebhookHandler(dispatcher Dispatcher, recorder DeliveryRecorder) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		recorder:   recorder,
	}
}

// PaymentLink handles POST /webhook/payment_link
func (h *WebhookHandler) PaymentLink(w http.ResponseWriter, r *http.Request) {
	h.receive(w, r, webhook.RoutePaymentLink)
}

// QRCode handles POST /webhook/qr_code
func (h *WebhookHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	h.receive(w, r, webhook.RouteQRCode)
}

func (h *WebhookHandler) receive(w http.ResponseWriter, r *http.Request, route webhook.Route) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), webhookTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid payload", nil)
		return
	}

	delivery := webhook.Delivery{
		ID:        r.Header.Get(webhook.EventIDHeader),
		Route:     route,
		Body:      body,
		Signature: r.Header.Get(webhook.SignatureHeader),
	}
	outcome := h.dispatcher.Dispatch(ctx, delivery)

	h.record(r, delivery, outcome, time.Since(start))

	if outcome.StatusCode >= http.StatusBadRequest {
		response.Error(w, outcome.StatusCode, outcome.Detail, nil)
		return
	}
	response.Success(w, outcome.StatusCode, outcome.Detail, nil)
}

func (h *WebhookHandler) record(r *http.Request, delivery webhook.Delivery, outcome webhook.Outcome, elapsed time.Duration) {
	logCtx := logger.LogContext{
		FacilityID: outcome.FacilityID,
		Event:      outcome.Event,
		RequestID:  requestID(r),
		Fields: map[string]any{
			"delivery_id": delivery.ID,
			"route":       string(delivery.Route),
			"state":       string(outcome.State),
			"status":      outcome.StatusCode,
			"payment_id":  outcome.PaymentID,
			"invoice_id":  outcome.InvoiceID,
			"duplicate":   outcome.Duplicate,
		},
	}

	switch {
	case outcome.StatusCode >= http.StatusInternalServerError:
		logger.Error("Webhook delivery failed", outcome.Err, logCtx)
	case outcome.StatusCode >= http.StatusBadRequest:
		if outcome.Err != nil {
			logCtx.Fields["error"] = outcome.Err.Error()
		}
		logger.Warn("Webhook delivery rejected", logCtx)
	default:
		logger.Info("Webhook delivery "+string(outcome.State), logCtx)
	}

	if h.recorder == nil {
		return
	}

	entry := opensearch.WebhookLog{
		Timestamp:        time.Now().UTC(),
		DeliveryID:       delivery.ID,
		Route:            string(delivery.Route),
		Event:            outcome.Event,
		State:            string(outcome.State),
		StatusCode:       outcome.StatusCode,
		Detail:           outcome.Detail,
		PaymentID:        outcome.PaymentID,
		InvoiceID:        outcome.InvoiceID,
		AccountID:        outcome.AccountID,
		FacilityID:       outcome.FacilityID,
		RequestID:        requestID(r),
		ClientIP:         middle.GetClientIP(r),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}

	// indexing must not hold the acknowledgement
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.recorder.LogWebhookDelivery(ctx, entry); err != nil {
			logger.Warn("Failed to index webhook delivery", logger.LogContext{
				RequestID: entry.RequestID,
				Fields:    map[string]any{"error": err.Error()},
			})
		}
	}()
}
