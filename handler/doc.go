// Package handler provides the HTTP handlers of the carepay Razorpay plugin.
//
// Handlers are thin: they decode the request, call a service from the
// payment, merchant or webhook packages, and write the standard
// response.Response envelope. Each resource handler implements the
// capability interfaces it supports directly:
//
//   - Creatable: POST on a collection
//   - Retrievable: GET on a single resource
//   - Updatable: PUT on a single resource
//
// # Payment Links and QR Codes
//
//	links := handler.NewPaymentLinkHandler(paymentService)
//	r.Post("/payment_link", links.Create)
//	r.Get("/payment_link/{id}", links.Retrieve)
//
//	qr := handler.NewQRCodeHandler(paymentService)
//	r.Post("/qr_code", qr.Create)
//	r.Get("/qr_code/{id}", qr.Retrieve)
//
// Creation returns 201 with the normalised gateway view. Validation failures
// and gateway rejections both return 400; a gateway rejection carries the
// gateway's own description as the message:
//
//	{
//	  "code": 400,
//	  "success": false,
//	  "message": "Minimum down payment is required when partial payment is allowed",
//	  "error": "minimum_down_payment: Minimum down payment is required when partial payment is allowed"
//	}
//
// # Webhooks
//
// WebhookHandler reads the raw body, hands it to the webhook dispatcher and
// turns the outcome into an acknowledgement. Only the outcome's safe detail
// is returned; the internal cause goes to the logs. Every delivery is logged
// and, when OpenSearch is enabled, indexed by its X-Razorpay-Event-Id so
// redeliveries can be traced with LogsHandler:
//
//	GET /webhook/deliveries/{delivery_id}
//
// # Razorpay Accounts
//
// RazorpayAccountHandler registers the merchant account a facility's payment
// links transfer into. Any authenticated user may read accounts of the
// facilities they belong to; facilities outside their scope answer 404.
// Writes and the details refresh are restricted to superusers by the
// middle.SuperuserOrReadOnly and middle.RequireSuperuser middleware.
//
// # Health
//
// GET /health_check/ping answers {"status":"ok"} without touching
// dependencies. HealthHandler.CheckHealth additionally probes the database
// and the rebalancing outbox backlog and answers 503 when the database is
// unreachable.
package handler
