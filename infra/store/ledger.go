package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mstgnz/carepay/ledger"
)

// SaveFacility upserts a facility of the platform read model. The EMR's
// invoicing side feeds facilities and invoices through it.
func (s *Store) SaveFacility(ctx context.Context, f *ledger.Facility) error {
	query := s.rebind(`
		INSERT INTO facilities (external_id, name) VALUES (?, ?)
		ON CONFLICT (external_id) DO UPDATE SET name = excluded.name`)
	if _, err := s.db.ExecContext(ctx, query, f.ExternalID, f.Name); err != nil {
		return fmt.Errorf("failed to save facility: %w", err)
	}
	return nil
}

// SaveInvoice upserts an invoice of the platform read model, written by the
// EMR's invoicing side and read by payment creation and webhook correlation.
func (s *Store) SaveInvoice(ctx context.Context, inv *ledger.Invoice) error {
	query := s.rebind(`
		INSERT INTO invoices (external_id, title, total_gross, account_id, patient_id, patient_name, facility_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO UPDATE SET
			title = excluded.title,
			total_gross = excluded.total_gross,
			account_id = excluded.account_id,
			patient_id = excluded.patient_id,
			patient_name = excluded.patient_name,
			facility_id = excluded.facility_id`)
	_, err := s.db.ExecContext(ctx, query,
		inv.ExternalID, inv.Title, inv.TotalGross, inv.AccountID, inv.PatientID, inv.PatientName, inv.FacilityID)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (s *Store) GetFacility(ctx context.Context, externalID string) (*ledger.Facility, error) {
	var f ledger.Facility
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT external_id, name FROM facilities WHERE external_id = ?`), externalID).
		Scan(&f.ExternalID, &f.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrFacilityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load facility: %w", err)
	}
	return &f, nil
}

func (s *Store) GetInvoice(ctx context.Context, externalID string) (*ledger.Invoice, error) {
	var inv ledger.Invoice
	query := s.rebind(`
		SELECT external_id, title, total_gross, account_id, patient_id, patient_name, facility_id
		FROM invoices WHERE external_id = ?`)
	err := s.db.QueryRowContext(ctx, query, externalID).Scan(
		&inv.ExternalID, &inv.Title, &inv.TotalGross, &inv.AccountID, &inv.PatientID, &inv.PatientName, &inv.FacilityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return &inv, nil
}

// CreateReconciliation writes the record and its outbox task in one
// transaction. The (invoice, reference number) unique key makes a second
// delivery of the same payment fail with ledger.ErrDuplicateReconciliation.
func (s *Store) CreateReconciliation(ctx context.Context, rec *ledger.ReconciliationRecord, task *ledger.RebalanceTask) error {
	return retryBusy(ctx, 4, func() error {
		return s.createReconciliation(ctx, rec, task)
	})
}

func (s *Store) createReconciliation(ctx context.Context, rec *ledger.ReconciliationRecord, task *ledger.RebalanceTask) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO payment_reconciliations (
			id, target_invoice_id, account_id, facility_id, reconciliation_type, status, kind,
			issuer_type, outcome, method, payment_datetime, amount, tendered_amount, returned_amount,
			is_credit_note, auth_code, disposition, note, reference_number, created_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.TargetInvoiceID, rec.AccountID, rec.FacilityID, string(rec.Type), string(rec.Status), string(rec.Kind),
		string(rec.IssuerType), string(rec.Outcome), string(rec.Method), rec.PaymentDatetime.UTC(), rec.Amount, rec.TenderedAmount,
		rec.ReturnedAmount, rec.IsCreditNote, rec.Authorization, rec.Disposition, rec.Note, rec.ReferenceNumber, rec.CreatedDate.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrDuplicateReconciliation
		}
		return err
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO rebalance_tasks (id, account_id, invoice_id, reconciliation_id, enqueued_at, attempts, next_attempt_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`),
		task.ID, task.AccountID, task.InvoiceID, task.ReconciliationID, task.EnqueuedAt.UTC(), task.EnqueuedAt.UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListReconciliations returns an invoice's records, oldest first. The EMR's
// ledger reads them back when it drains rebalance tasks.
func (s *Store) ListReconciliations(ctx context.Context, invoiceID string) ([]*ledger.ReconciliationRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, target_invoice_id, account_id, facility_id, reconciliation_type, status, kind,
			issuer_type, outcome, method, payment_datetime, amount, tendered_amount, returned_amount,
			is_credit_note, auth_code, disposition, note, reference_number, created_date
		FROM payment_reconciliations WHERE target_invoice_id = ? ORDER BY created_date, id`), invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations: %w", err)
	}
	defer rows.Close()

	var out []*ledger.ReconciliationRecord
	for rows.Next() {
		var rec ledger.ReconciliationRecord
		if err := rows.Scan(
			&rec.ID, &rec.TargetInvoiceID, &rec.AccountID, &rec.FacilityID, &rec.Type, &rec.Status, &rec.Kind,
			&rec.IssuerType, &rec.Outcome, &rec.Method, &rec.PaymentDatetime, &rec.Amount, &rec.TenderedAmount, &rec.ReturnedAmount,
			&rec.IsCreditNote, &rec.Authorization, &rec.Disposition, &rec.Note, &rec.ReferenceNumber, &rec.CreatedDate,
		); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
