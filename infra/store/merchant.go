package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mstgnz/carepay/merchant"
)

const accountColumns = `id, facility_id, account_id, is_enabled, metadata, created_date, modified_date`

func (s *Store) CreateAccount(ctx context.Context, account *merchant.Account) error {
	metadata, err := json.Marshal(account.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return retryBusy(ctx, 4, func() error {
		_, err := s.db.ExecContext(ctx, s.rebind(`
			INSERT INTO razorpay_accounts (id, facility_id, account_id, is_enabled, metadata, deleted, created_date, modified_date)
			VALUES (?, ?, ?, ?, ?, FALSE, ?, ?)`),
			account.ID, account.FacilityID, account.AccountID, account.IsEnabled, string(metadata),
			account.CreatedDate.UTC(), account.ModifiedDate.UTC())
		if isUniqueViolation(err) {
			return merchant.ErrAlreadyExists
		}
		return err
	})
}

func (s *Store) GetAccountByFacility(ctx context.Context, facilityID string) (*merchant.Account, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+accountColumns+` FROM razorpay_accounts
		WHERE facility_id = ? AND deleted = FALSE`), facilityID)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, merchant.ErrNotFound
	}
	return account, err
}

// ListAccounts returns live accounts, restricted to facilityIDs unless nil
func (s *Store) ListAccounts(ctx context.Context, facilityIDs []string) ([]*merchant.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM razorpay_accounts WHERE deleted = FALSE`
	args := make([]any, 0, len(facilityIDs))
	if facilityIDs != nil {
		if len(facilityIDs) == 0 {
			return []*merchant.Account{}, nil
		}
		query += ` AND facility_id IN (` + placeholders(len(facilityIDs)) + `)`
		for _, id := range facilityIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_date, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*merchant.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *Store) UpdateAccount(ctx context.Context, account *merchant.Account) error {
	metadata, err := json.Marshal(account.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return retryBusy(ctx, 4, func() error {
		res, err := s.db.ExecContext(ctx, s.rebind(`
			UPDATE razorpay_accounts
			SET account_id = ?, is_enabled = ?, metadata = ?, modified_date = ?
			WHERE facility_id = ? AND deleted = FALSE`),
			account.AccountID, account.IsEnabled, string(metadata), account.ModifiedDate.UTC(), account.FacilityID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return merchant.ErrNotFound
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*merchant.Account, error) {
	var (
		account  merchant.Account
		metadata []byte
	)
	err := row.Scan(&account.ID, &account.FacilityID, &account.AccountID, &account.IsEnabled,
		&metadata, &account.CreatedDate, &account.ModifiedDate)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &account.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	if account.Metadata == nil {
		account.Metadata = map[string]any{}
	}
	return &account, nil
}
