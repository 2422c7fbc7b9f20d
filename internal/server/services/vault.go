package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/cryptox"
	"github.com/avilks/passvault/internal/dbx"
	"github.com/avilks/passvault/internal/logging"
	"github.com/avilks/passvault/internal/server/models"
	"github.com/avilks/passvault/internal/server/repositories/repomanager"
	"github.com/avilks/passvault/internal/totp"
)

// timeNow is a seam for tests that need a fixed clock.
var timeNow = time.Now

// VaultService manages services and their encrypted credential and
// authenticator entries. Every secret field is sealed with the owning
// account's public key before it reaches storage; the service layer never
// sees a decryption path.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "vault_service"),
	}
}

func (s *VaultService) CreateService(ctx context.Context, accountID, url string) (*models.Service, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: missing url", common.ErrValidation)
	}

	service := &models.Service{AccountID: accountID, URL: url}
	created, err := s.repomanager.Services(s.db).CreateOrGet(ctx, service)
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	return created, nil
}

func (s *VaultService) ListServices(ctx context.Context, accountID string) ([]*models.Service, error) {
	result, err := s.repomanager.Services(s.db).ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return result, nil
}

// ownedService loads a service and checks it belongs to the account. A
// foreign service is reported as not found, never as forbidden, so service
// identifiers leak nothing across accounts.
func (s *VaultService) ownedService(ctx context.Context, db dbx.DBTX, accountID, serviceID string) (*models.Service, error) {
	service, err := s.repomanager.Services(db).GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if service.AccountID != accountID {
		return nil, common.ErrNotFound
	}
	return service, nil
}

// AddCredential seals the password under the account's public key and stores
// the entry. An encryption failure aborts before anything is written: a row
// with plaintext or partial secret data must never commit.
func (s *VaultService) AddCredential(ctx context.Context, accountID, serviceID, username, password, deviceID string) (*models.Credential, error) {
	if username == "" && password == "" {
		return nil, fmt.Errorf("%w: missing username or password", common.ErrValidation)
	}

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}

	ciphertext, err := cryptox.EncryptForAccount(account.PublicKey, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailure, err)
	}

	credential := &models.Credential{
		ServiceID:          serviceID,
		Username:           username,
		PasswordCiphertext: ciphertext,
		DeviceID:           deviceID,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.ownedService(ctx, tx, accountID, serviceID); err != nil {
			return err
		}
		_, err := s.repomanager.Credentials(tx).Create(ctx, credential)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("storing credential: %w", err)
	}
	return credential, nil
}

func (s *VaultService) ListCredentials(ctx context.Context, accountID, serviceID, deviceID string) ([]*models.Credential, error) {
	if _, err := s.ownedService(ctx, s.db, accountID, serviceID); err != nil {
		return nil, err
	}

	result, err := s.repomanager.Credentials(s.db).ListByService(ctx, serviceID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	return result, nil
}

// AddAuthenticator seals the TOTP seed and stores the entry with its
// derivation parameters. The parameters are validated against the code
// engine up front so an undecodable entry can never be saved.
func (s *VaultService) AddAuthenticator(ctx context.Context, accountID, serviceID string, entry *models.Authenticator, secret, deviceID string) (*models.Authenticator, error) {
	if entry.Name == "" || secret == "" {
		return nil, fmt.Errorf("%w: missing name or secret", common.ErrValidation)
	}
	if entry.Digits == 0 {
		entry.Digits = totp.DefaultDigits
	}
	if entry.Period == 0 {
		entry.Period = totp.DefaultPeriod
	}
	if entry.Algorithm == "" {
		entry.Algorithm = totp.DefaultAlgorithm
	}

	// Dry-run the engine: a seed or parameter set it cannot derive a code
	// from would make the stored entry useless.
	if _, err := totp.Code(secret, entry.Digits, entry.Period, entry.Algorithm, timeNow()); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}

	ciphertext, err := cryptox.EncryptForAccount(account.PublicKey, []byte(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailure, err)
	}

	entry.ServiceID = serviceID
	entry.SecretCiphertext = ciphertext
	entry.DeviceID = deviceID

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.ownedService(ctx, tx, accountID, serviceID); err != nil {
			return err
		}
		_, err := s.repomanager.Authenticators(tx).Create(ctx, entry)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("storing authenticator: %w", err)
	}
	return entry, nil
}

func (s *VaultService) ListAuthenticators(ctx context.Context, accountID, serviceID, deviceID string) ([]*models.Authenticator, error) {
	if _, err := s.ownedService(ctx, s.db, accountID, serviceID); err != nil {
		return nil, err
	}

	result, err := s.repomanager.Authenticators(s.db).ListByService(ctx, serviceID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("listing authenticators: %w", err)
	}
	return result, nil
}
