// Package carepay is the Razorpay payment plugin of the EMR platform. It lets
// a facility collect invoice payments through Razorpay payment links and UPI
// QR codes and records every captured payment back against its invoice.
//
// # Overview
//
// The flow has two halves:
//
//	┌─────────────┐  create link/QR   ┌─────────────┐   REST    ┌─────────────┐
//	│  EMR user   │──────────────────►│   carepay   │──────────►│  Razorpay   │
//	└─────────────┘                   │             │◄──────────│             │
//	                                  │             │  webhook  └─────────────┘
//	┌─────────────┐  rebalance task   │             │
//	│   Ledger    │◄──────────────────│             │
//	└─────────────┘    (SQS outbox)   └─────────────┘
//
// Outbound, payment.Service validates a creation request against the invoice
// and sends a payment link or QR code request stamped with correlation notes
// (invoice, account, patient and facility ids). Payment links also carry a
// transfer split to the facility's registered merchant account.
//
// Inbound, Razorpay posts webhook events. webhook.Dispatcher verifies the
// X-Razorpay-Signature HMAC over the raw body, correlates the event to its
// invoice through the echoed notes, and writes one reconciliation record plus
// a rebalancing task in a single transaction. A unique key on
// (invoice, payment id) makes redeliveries no-ops.
//
// # Packages
//
//   - razorpay: explicitly constructed gateway client and amount helpers
//   - payment: payment link and QR code builders and validation
//   - webhook: signature verification, correlation, apply, dispatch
//   - merchant: per-facility merchant account registration
//   - ledger: invoice and reconciliation types shared with the platform
//   - queue: outbox relay publishing rebalancing tasks to SQS
//   - handler, router: HTTP surface
//   - infra/...: config, database, store, auth, middleware, logging
//
// # Configuration
//
// All settings come from the environment (a .env file is loaded when present):
//
//	APP_PORT=9999
//	RAZORPAY_KEY_ID=rzp_test_xxx
//	RAZORPAY_KEY_SECRET=xxx
//	RAZORPAY_WEBHOOK_SECRET=xxx
//	DB_DRIVER=sqlite3            # or postgres
//	DB_DSN=./data/carepay.db
//	JWT_SECRET=xxx
//	REBALANCE_QUEUE_URL=https://sqs.ap-south-1.amazonaws.com/123/rebalance
//	ENABLE_OPENSEARCH_LOGGING=false
//
// Secrets are never compiled in; rotating one is a restart with new values.
//
// # HTTP API
//
//	GET  /health_check/ping
//	GET  /health_check/ready
//	POST /payment_link                       user token
//	GET  /payment_link/{id}                  user token
//	POST /qr_code                            user token
//	GET  /qr_code/{id}                       user token
//	POST /webhook/payment_link               X-Razorpay-Signature
//	POST /webhook/qr_code                    X-Razorpay-Signature
//	GET  /razorpay_account                   user token
//	POST /razorpay_account                   superuser
//	GET  /razorpay_account/{facility_id}     user token, own facilities
//	PUT  /razorpay_account/{facility_id}     superuser
//	GET  /razorpay_account/{facility_id}/details   superuser
//	GET  /webhook/deliveries/{delivery_id}   superuser
//
// Responses use the envelope {"code","success","message","error","data"}.
package carepay
