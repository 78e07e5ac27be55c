package store

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS facilities (
		external_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		external_id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		total_gross REAL NOT NULL,
		account_id TEXT NOT NULL,
		patient_id TEXT NOT NULL,
		patient_name TEXT NOT NULL DEFAULT '',
		facility_id TEXT NOT NULL REFERENCES facilities(external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payment_reconciliations (
		id TEXT PRIMARY KEY,
		target_invoice_id TEXT NOT NULL REFERENCES invoices(external_id),
		account_id TEXT NOT NULL,
		facility_id TEXT NOT NULL,
		reconciliation_type TEXT NOT NULL,
		status TEXT NOT NULL,
		kind TEXT NOT NULL,
		issuer_type TEXT NOT NULL,
		outcome TEXT NOT NULL,
		method TEXT NOT NULL,
		payment_datetime DATETIME NOT NULL,
		amount REAL NOT NULL,
		tendered_amount REAL NOT NULL,
		returned_amount REAL NOT NULL DEFAULT 0,
		is_credit_note BOOLEAN NOT NULL DEFAULT 0,
		auth_code TEXT NOT NULL DEFAULT '',
		disposition TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		reference_number TEXT NOT NULL,
		created_date DATETIME NOT NULL,
		UNIQUE (target_invoice_id, reference_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reconciliations_account ON payment_reconciliations(account_id)`,
	`CREATE TABLE IF NOT EXISTS rebalance_tasks (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		invoice_id TEXT NOT NULL,
		reconciliation_id TEXT NOT NULL UNIQUE REFERENCES payment_reconciliations(id),
		enqueued_at DATETIME NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		next_attempt_at DATETIME NOT NULL,
		dispatched_at DATETIME,
		last_error TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rebalance_pending ON rebalance_tasks(dispatched_at, next_attempt_at)`,
	`CREATE TABLE IF NOT EXISTS razorpay_accounts (
		id TEXT PRIMARY KEY,
		facility_id TEXT NOT NULL UNIQUE REFERENCES facilities(external_id) ON DELETE RESTRICT,
		account_id TEXT NOT NULL,
		is_enabled BOOLEAN NOT NULL DEFAULT 1,
		metadata TEXT NOT NULL DEFAULT '{}',
		deleted BOOLEAN NOT NULL DEFAULT 0,
		created_date DATETIME NOT NULL,
		modified_date DATETIME NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS facilities (
		external_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		external_id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		total_gross NUMERIC(14,2) NOT NULL,
		account_id TEXT NOT NULL,
		patient_id TEXT NOT NULL,
		patient_name TEXT NOT NULL DEFAULT '',
		facility_id TEXT NOT NULL REFERENCES facilities(external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payment_reconciliations (
		id TEXT PRIMARY KEY,
		target_invoice_id TEXT NOT NULL REFERENCES invoices(external_id),
		account_id TEXT NOT NULL,
		facility_id TEXT NOT NULL,
		reconciliation_type TEXT NOT NULL,
		status TEXT NOT NULL,
		kind TEXT NOT NULL,
		issuer_type TEXT NOT NULL,
		outcome TEXT NOT NULL,
		method TEXT NOT NULL,
		payment_datetime TIMESTAMPTZ NOT NULL,
		amount NUMERIC(14,2) NOT NULL,
		tendered_amount NUMERIC(14,2) NOT NULL,
		returned_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		is_credit_note BOOLEAN NOT NULL DEFAULT FALSE,
		auth_code TEXT NOT NULL DEFAULT '',
		disposition TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		reference_number TEXT NOT NULL,
		created_date TIMESTAMPTZ NOT NULL,
		UNIQUE (target_invoice_id, reference_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reconciliations_account ON payment_reconciliations(account_id)`,
	`CREATE TABLE IF NOT EXISTS rebalance_tasks (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		invoice_id TEXT NOT NULL,
		reconciliation_id TEXT NOT NULL UNIQUE REFERENCES payment_reconciliations(id),
		enqueued_at TIMESTAMPTZ NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		next_attempt_at TIMESTAMPTZ NOT NULL,
		dispatched_at TIMESTAMPTZ,
		last_error TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rebalance_pending ON rebalance_tasks(next_attempt_at) WHERE dispatched_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS razorpay_accounts (
		id TEXT PRIMARY KEY,
		facility_id TEXT NOT NULL UNIQUE REFERENCES facilities(external_id) ON DELETE RESTRICT,
		account_id VARCHAR(255) NOT NULL,
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		metadata JSONB NOT NULL DEFAULT '{}',
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_date TIMESTAMPTZ NOT NULL,
		modified_date TIMESTAMPTZ NOT NULL
	)`,
}
