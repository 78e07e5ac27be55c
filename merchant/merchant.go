// Package merchant manages the one-per-facility registration of a linked
// Razorpay account and keeps its cached gateway metadata fresh.
package merchant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrNotFound        = errors.New("razorpay account not found")
	ErrAlreadyExists   = errors.New("facility already has a razorpay account")
	ErrDisabled        = errors.New("razorpay account is disabled")
	ErrDetailsNotFound = errors.New("Razorpay account details not found on Razorpay")
)

// FacilityError reports a registration against an unknown facility
type FacilityError struct {
	FacilityID string
}

func (e *FacilityError) Error() string {
	return fmt.Sprintf("Facility with external_id %s does not exist.", e.FacilityID)
}

// Account is a facility's linked merchant account at the gateway
type Account struct {
	ID           string         `json:"id"`
	FacilityID   string         `json:"facility_id"`
	AccountID    string         `json:"account_id"`
	IsEnabled    bool           `json:"is_enabled"`
	Metadata     map[string]any `json:"metadata"`
	CreatedDate  time.Time      `json:"created_date"`
	ModifiedDate time.Time      `json:"modified_date"`
}

// CreateRequest registers a merchant account for a facility
type CreateRequest struct {
	FacilityID string `json:"facility_id" validate:"required,uuid"`
	AccountID  string `json:"account_id" validate:"required,max=255"`
	IsEnabled  *bool  `json:"is_enabled"`
}

// UpdateRequest replaces the account id or enabled flag of a registration
type UpdateRequest struct {
	AccountID string `json:"account_id" validate:"required,max=255"`
	IsEnabled *bool  `json:"is_enabled"`
}

// Scope is what the caller may see: everything for superusers, otherwise
// only the facilities they belong to.
type Scope struct {
	Superuser   bool
	FacilityIDs []string
}

// Allows reports whether the facility is visible in this scope
func (s Scope) Allows(facilityID string) bool {
	return s.Superuser || slices.Contains(s.FacilityIDs, facilityID)
}

// Repository persists merchant accounts. Deleted rows are never returned.
type Repository interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccountByFacility(ctx context.Context, facilityID string) (*Account, error)
	ListAccounts(ctx context.Context, facilityIDs []string) ([]*Account, error)
	UpdateAccount(ctx context.Context, account *Account) error
}

// Gateway fetches linked account details from Razorpay
type Gateway interface {
	FetchAccount(ctx context.Context, accountID string) (map[string]any, error)
}
