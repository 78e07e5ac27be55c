package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/carepay/infra/conn"
	"github.com/mstgnz/carepay/ledger"
	"github.com/mstgnz/carepay/merchant"
	"github.com/mstgnz/carepay/webhook"
)

const (
	facilityID = "6f1c2b9a-3d4e-4f50-8a61-7b8c9d0e1f2a"
	invoiceID  = "3c9a1f0e-7b2d-4e8f-9a6b-5c4d3e2f1a0b"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := conn.Open(conn.DriverSQLite, filepath.Join(t.TempDir(), "carepay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seed(t *testing.T, s *Store) *ledger.Invoice {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveFacility(ctx, &ledger.Facility{ExternalID: facilityID, Name: "Clinic"}))
	inv := &ledger.Invoice{
		ExternalID:  invoiceID,
		Title:       "INV-1",
		TotalGross:  150.00,
		AccountID:   "acc-1",
		PatientID:   "pat-1",
		PatientName: "Asha Rao",
		FacilityID:  facilityID,
	}
	require.NoError(t, s.SaveInvoice(ctx, inv))
	return inv
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestStore_Rebind(t *testing.T) {
	pg := &Store{driver: conn.DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2,$3)", pg.rebind("SELECT * FROM t WHERE a = ? AND b IN ("+placeholders(2)+")"))

	lite := &Store{driver: conn.DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestStore_ReadModel(t *testing.T) {
	s := newTestStore(t)
	inv := seed(t, s)
	ctx := context.Background()

	got, err := s.GetInvoice(ctx, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, inv, got)

	_, err = s.GetInvoice(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrInvoiceNotFound)

	f, err := s.GetFacility(ctx, facilityID)
	require.NoError(t, err)
	assert.Equal(t, "Clinic", f.Name)

	_, err = s.GetFacility(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrFacilityNotFound)
}

func newRecord(id, ref string, inv *ledger.Invoice) (*ledger.ReconciliationRecord, *ledger.RebalanceTask) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := webhook.BuildRecord(inv, webhook.Payment{ID: ref, Amount: 15000, CreatedAt: 1700000000}, "Payment made via Razorpay's payment link.")
	rec.ID = id
	rec.CreatedDate = now
	task := &ledger.RebalanceTask{ID: "task-" + id, AccountID: inv.AccountID, InvoiceID: inv.ExternalID, ReconciliationID: id, EnqueuedAt: now}
	return rec, task
}

func TestStore_CreateReconciliation(t *testing.T) {
	s := newTestStore(t)
	inv := seed(t, s)
	ctx := context.Background()

	rec, task := newRecord("rec-1", "pay_1", inv)
	require.NoError(t, s.CreateReconciliation(ctx, rec, task))

	list, err := s.ListReconciliations(ctx, invoiceID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 150.00, list[0].Amount)
	assert.Equal(t, 150.00, list[0].TenderedAmount)
	assert.Equal(t, "pay_1", list[0].ReferenceNumber)
	assert.Equal(t, ledger.MethodDebitCard, list[0].Method)
	assert.True(t, list[0].PaymentDatetime.Equal(time.Unix(1700000000, 0)))

	dup, dupTask := newRecord("rec-2", "pay_1", inv)
	assert.ErrorIs(t, s.CreateReconciliation(ctx, dup, dupTask), ledger.ErrDuplicateReconciliation)

	list, err = s.ListReconciliations(ctx, invoiceID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	pending, _, err := s.OutboxStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestStore_ConcurrentDuplicateDelivery(t *testing.T) {
	s := newTestStore(t)
	inv := seed(t, s)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dups    int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, task := newRecord("rec-c"+string(rune('a'+i)), "pay_same", inv)
			err := s.CreateReconciliation(ctx, rec, task)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, ledger.ErrDuplicateReconciliation):
				dups++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 5, dups)
	pending, _, err := s.OutboxStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestStore_Outbox(t *testing.T) {
	s := newTestStore(t)
	inv := seed(t, s)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rec, task := newRecord("rec-1", "pay_1", inv)
	require.NoError(t, s.CreateReconciliation(ctx, rec, task))

	tasks, err := s.PendingTasks(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task-rec-1", tasks[0].ID)
	assert.Equal(t, "acc-1", tasks[0].AccountID)
	assert.Equal(t, invoiceID, tasks[0].InvoiceID)

	claimed, err := s.ClaimTask(ctx, "task-rec-1", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = s.ClaimTask(ctx, "task-rec-1", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed, "a leased task cannot be claimed twice")

	require.NoError(t, s.MarkFailed(ctx, "task-rec-1", "throttled", now.Add(30*time.Second)))
	tasks, err = s.PendingTasks(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	later := now.Add(time.Minute)
	tasks, err = s.PendingTasks(ctx, later, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 1, tasks[0].Attempts)

	_, failing, err := s.OutboxStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, failing)

	require.NoError(t, s.MarkDispatched(ctx, "task-rec-1", later))
	tasks, err = s.PendingTasks(ctx, later.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStore_MerchantAccounts(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.GetAccountByFacility(ctx, facilityID)
	assert.ErrorIs(t, err, merchant.ErrNotFound)

	account := &merchant.Account{
		ID:           "ra-1",
		FacilityID:   facilityID,
		AccountID:    "acc_One",
		IsEnabled:    true,
		Metadata:     map[string]any{"status": "activated"},
		CreatedDate:  now,
		ModifiedDate: now,
	}
	require.NoError(t, s.CreateAccount(ctx, account))

	second := *account
	second.ID = "ra-2"
	assert.ErrorIs(t, s.CreateAccount(ctx, &second), merchant.ErrAlreadyExists)

	got, err := s.GetAccountByFacility(ctx, facilityID)
	require.NoError(t, err)
	assert.Equal(t, "ra-1", got.ID)
	assert.True(t, got.IsEnabled)
	assert.Equal(t, "activated", got.Metadata["status"])
	assert.True(t, got.CreatedDate.Equal(now))

	got.IsEnabled = false
	got.AccountID = "acc_Two"
	got.Metadata = map[string]any{"status": "suspended"}
	got.ModifiedDate = now.Add(time.Hour)
	require.NoError(t, s.UpdateAccount(ctx, got))

	got, err = s.GetAccountByFacility(ctx, facilityID)
	require.NoError(t, err)
	assert.False(t, got.IsEnabled)
	assert.Equal(t, "acc_Two", got.AccountID)
	assert.Equal(t, "suspended", got.Metadata["status"])

	all, err := s.ListAccounts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	scoped, err := s.ListAccounts(ctx, []string{"other-facility"})
	require.NoError(t, err)
	assert.Empty(t, scoped)

	scoped, err = s.ListAccounts(ctx, []string{facilityID, "other-facility"})
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	missing := *got
	missing.FacilityID = "other-facility"
	assert.ErrorIs(t, s.UpdateAccount(ctx, &missing), merchant.ErrNotFound)
}

func TestStore_MerchantAccountRequiresFacility(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	err := s.CreateAccount(context.Background(), &merchant.Account{
		ID: "ra-x", FacilityID: "nope", AccountID: "acc", CreatedDate: now, ModifiedDate: now,
	})
	assert.Error(t, err)
}
