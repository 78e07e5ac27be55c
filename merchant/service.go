package merchant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mstgnz/carepay/infra/logger"
	"github.com/mstgnz/carepay/ledger"
)

// Service registers merchant accounts and syncs them with the gateway
type Service struct {
	repo       Repository
	facilities ledger.FacilityReader
	gateway    Gateway
	validate   *validator.Validate
	now        func() time.Time
}

func NewService(repo Repository, facilities ledger.FacilityReader, gateway Gateway, validate *validator.Validate) *Service {
	return &Service{
		repo:       repo,
		facilities: facilities,
		gateway:    gateway,
		validate:   validate,
		now:        time.Now,
	}
}

// List returns the accounts visible in scope
func (s *Service) List(ctx context.Context, scope Scope) ([]*Account, error) {
	if scope.Superuser {
		return s.repo.ListAccounts(ctx, nil)
	}
	if len(scope.FacilityIDs) == 0 {
		return []*Account{}, nil
	}
	return s.repo.ListAccounts(ctx, scope.FacilityIDs)
}

// Get returns the facility's account. Facilities outside scope look missing.
func (s *Service) Get(ctx context.Context, scope Scope, facilityID string) (*Account, error) {
	if !scope.Allows(facilityID) {
		return nil, ErrNotFound
	}
	return s.repo.GetAccountByFacility(ctx, facilityID)
}

// Create registers an account after fetching its details from the gateway.
// Nothing is stored when the gateway rejects the account id.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Account, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.facilities.GetFacility(ctx, req.FacilityID); err != nil {
		if errors.Is(err, ledger.ErrFacilityNotFound) {
			return nil, &FacilityError{FacilityID: req.FacilityID}
		}
		return nil, err
	}

	if _, err := s.repo.GetAccountByFacility(ctx, req.FacilityID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	metadata, err := s.fetch(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	account := &Account{
		ID:           uuid.NewString(),
		FacilityID:   req.FacilityID,
		AccountID:    req.AccountID,
		IsEnabled:    req.IsEnabled == nil || *req.IsEnabled,
		Metadata:     metadata,
		CreatedDate:  now,
		ModifiedDate: now,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	logger.Info("Razorpay account registered", logger.LogContext{
		FacilityID: account.FacilityID,
		Fields:     map[string]any{"account_id": account.AccountID},
	})
	return account, nil
}

// Update changes the account and re-syncs its metadata
func (s *Service) Update(ctx context.Context, facilityID string, req UpdateRequest) (*Account, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	account, err := s.repo.GetAccountByFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}

	metadata, err := s.fetch(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	account.AccountID = req.AccountID
	if req.IsEnabled != nil {
		account.IsEnabled = *req.IsEnabled
	}
	account.Metadata = metadata
	account.ModifiedDate = s.now().UTC()

	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Details force-refreshes the cached gateway metadata
func (s *Service) Details(ctx context.Context, facilityID string) (*Account, error) {
	account, err := s.repo.GetAccountByFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}

	metadata, err := s.fetch(ctx, account.AccountID)
	if err != nil {
		return nil, err
	}

	account.Metadata = metadata
	account.ModifiedDate = s.now().UTC()
	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// TransferAccount returns the gateway account that receives the facility's
// payment link transfers.
func (s *Service) TransferAccount(ctx context.Context, facilityID string) (string, error) {
	account, err := s.repo.GetAccountByFacility(ctx, facilityID)
	if err != nil {
		return "", err
	}
	if !account.IsEnabled {
		return "", ErrDisabled
	}
	return account.AccountID, nil
}

func (s *Service) fetch(ctx context.Context, accountID string) (map[string]any, error) {
	metadata, err := s.gateway.FetchAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("fetch razorpay account %s: %w", accountID, err)
	}
	if len(metadata) == 0 {
		return nil, ErrDetailsNotFound
	}
	return metadata, nil
}
