package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mstgnz/carepay/ledger"
)

// PendingTasks returns undispatched tasks that are due, oldest first
func (s *Store) PendingTasks(ctx context.Context, now time.Time, limit int) ([]*ledger.RebalanceTask, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, account_id, invoice_id, reconciliation_id, enqueued_at, attempts
		FROM rebalance_tasks
		WHERE dispatched_at IS NULL AND next_attempt_at <= ?
		ORDER BY next_attempt_at, id
		LIMIT ?`), now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*ledger.RebalanceTask
	for rows.Next() {
		var task ledger.RebalanceTask
		if err := rows.Scan(&task.ID, &task.AccountID, &task.InvoiceID, &task.ReconciliationID, &task.EnqueuedAt, &task.Attempts); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}

// ClaimTask moves next_attempt_at past the lease; only one caller wins
func (s *Store) ClaimTask(ctx context.Context, id string, now, leaseUntil time.Time) (bool, error) {
	var claimed bool
	err := retryBusy(ctx, 4, func() error {
		res, err := s.db.ExecContext(ctx, s.rebind(`
			UPDATE rebalance_tasks SET next_attempt_at = ?
			WHERE id = ? AND dispatched_at IS NULL AND next_attempt_at <= ?`),
			leaseUntil.UTC(), id, now.UTC())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		claimed = n == 1
		return err
	})
	return claimed, err
}

func (s *Store) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	return retryBusy(ctx, 4, func() error {
		_, err := s.db.ExecContext(ctx, s.rebind(`
			UPDATE rebalance_tasks SET dispatched_at = ?, last_error = '' WHERE id = ?`), at.UTC(), id)
		return err
	})
}

func (s *Store) MarkFailed(ctx context.Context, id string, reason string, nextAttempt time.Time) error {
	return retryBusy(ctx, 4, func() error {
		_, err := s.db.ExecContext(ctx, s.rebind(`
			UPDATE rebalance_tasks SET attempts = attempts + 1, last_error = ?, next_attempt_at = ?
			WHERE id = ?`), reason, nextAttempt.UTC(), id)
		return err
	})
}

// OutboxStats counts tasks waiting for the relay
func (s *Store) OutboxStats(ctx context.Context) (pending int, failing int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN attempts > 0 THEN 1 ELSE 0 END), 0)
		FROM rebalance_tasks WHERE dispatched_at IS NULL`).Scan(&pending, &failing)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return pending, failing, nil
}
