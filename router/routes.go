package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/carepay/handler"
	"github.com/mstgnz/carepay/infra/middle"
	"github.com/mstgnz/carepay/infra/response"
)

// Handlers groups the resource handlers mounted by Routes
type Handlers struct {
	Health       *handler.HealthHandler
	PaymentLinks *handler.PaymentLinkHandler
	QRCodes      *handler.QRCodeHandler
	Webhooks     *handler.WebhookHandler
	Accounts     *handler.RazorpayAccountHandler
	Logs         *handler.LogsHandler
}

// Routes registers the plugin's route table. Webhooks authenticate by
// signature only; everything else requires a user token. limiter may be nil.
func Routes(r chi.Router, h Handlers, tokens middle.TokenValidator, limiter *middle.RateLimiter) {
	r.Get("/health_check/ping", h.Health.Ping)
	r.Get("/health_check/ready", h.Health.CheckHealth)

	r.Post("/webhook/payment_link", h.Webhooks.PaymentLink)
	r.Post("/webhook/qr_code", h.Webhooks.QRCode)

	r.Group(func(r chi.Router) {
		r.Use(middle.AuthMiddleware(tokens))
		if limiter != nil {
			r.Use(middle.RateLimitMiddleware(limiter))
		}

		r.Post("/payment_link", h.PaymentLinks.Create)
		r.Get("/payment_link/{id}", h.PaymentLinks.Retrieve)

		r.Post("/qr_code", h.QRCodes.Create)
		r.Get("/qr_code/{id}", h.QRCodes.Retrieve)

		r.Route("/razorpay_account", func(r chi.Router) {
			r.Use(middle.SuperuserOrReadOnly())
			r.Get("/", h.Accounts.List)
			r.Post("/", h.Accounts.Create)
			r.Get("/{facility_id}", h.Accounts.Retrieve)
			r.Put("/{facility_id}", h.Accounts.Update)
			r.With(middle.RequireSuperuser()).Get("/{facility_id}/details", h.Accounts.Details)
		})

		r.With(middle.RequireSuperuser()).Get("/webhook/deliveries/{delivery_id}", h.Logs.GetDeliveryLogs)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
	})
}
