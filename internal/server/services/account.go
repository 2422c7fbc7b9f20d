// Package services contains the server-side business logic. This file
// implements AccountService: registration with key issuance and owner
// election, login, and email verification.
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
	"github.com/avilks/passvault/internal/server/auth"
	"github.com/avilks/passvault/internal/server/config"
	"github.com/avilks/passvault/internal/server/email"
	"github.com/avilks/passvault/internal/server/models"
	accountsrepo "github.com/avilks/passvault/internal/server/repositories/accounts"
	"github.com/avilks/passvault/internal/server/repositories/repomanager"
)

const verificationTokenBytes = 36 // 72 hex characters

// RegisterResult carries the one-shot private key back to the caller. The key
// exists nowhere else: it is never persisted, logged, or sent again.
type RegisterResult struct {
	AccountID  string
	Role       models.Role
	PrivateKey string
}

type AccountService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	emailSender     email.Sender
	logger          logging.Logger
	jwtSecret       []byte
	sessionValidity time.Duration
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, sender email.Sender, logger logging.Logger, cfg *config.Config) *AccountService {
	return &AccountService{
		db:              db,
		repomanager:     m,
		emailSender:     sender,
		logger:          logger.With("module", "account_service"),
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidityDuration,
	}
}

// issueKeyPair is a seam for testing registration without paying for RSA
// generation in every case.
var issueKeyPair = cryptox.IssueKeyPair

// Register creates a new account. The first registration to durably commit
// system-wide receives the owner role; everyone else is a regular user, and
// losing that race is not an error. The key pair is issued before anything is
// written, so a generation failure leaves no partial account behind.
func (s *AccountService) Register(ctx context.Context, name, emailAddr, password string) (*RegisterResult, error) {
	if name == "" || emailAddr == "" || password == "" {
		return nil, fmt.Errorf("%w: missing name or email or password", common.ErrValidation)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	publicKey, privateKey, err := issueKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailure, err)
	}

	verificationToken, err := common.MakeRandHexString(verificationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generating verification token: %w", err)
	}

	account := &models.Account{
		Name:              name,
		Email:             emailAddr,
		PasswordHash:      passwordHash,
		VerificationToken: verificationToken,
		PublicKey:         publicKey,
	}

	created, err := s.createWithOwnerElection(ctx, account)
	if err != nil {
		return nil, err
	}

	// Fire-and-forget: delivery failure is logged and never rolls back the
	// committed account.
	if err := s.emailSender.Send(ctx, email.Message{
		To:    created.Email,
		Type:  email.MessageTypeVerification,
		Token: verificationToken,
	}); err != nil {
		s.logger.Error(ctx, "sending verification email", "error", err.Error())
	}

	return &RegisterResult{
		AccountID:  created.ID,
		Role:       created.Role,
		PrivateKey: string(privateKey),
	}, nil
}

// createWithOwnerElection inserts the account with the owner role when no
// owner exists yet. The partial unique index on role='owner' is the actual
// arbiter: if a concurrent registration commits the owner first, the insert
// fails with accountsrepo.ErrOwnerTaken and is retried exactly once as a
// regular user in a fresh transaction.
func (s *AccountService) createWithOwnerElection(ctx context.Context, account *models.Account) (*models.Account, error) {
	role := models.RoleUser
	ownerExists, err := s.repomanager.Accounts(s.db).OwnerExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking owner: %w", err)
	}
	if !ownerExists {
		role = models.RoleOwner
	}

	created, err := s.createAccount(ctx, account, role)
	if errors.Is(err, accountsrepo.ErrOwnerTaken) {
		created, err = s.createAccount(ctx, account, models.RoleUser)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *AccountService) createAccount(ctx context.Context, account *models.Account, role models.Role) (*models.Account, error) {
	account.Role = role
	var created *models.Account
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var createErr error
		created, createErr = s.repomanager.Accounts(tx).Create(ctx, account)
		return createErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login verifies the credentials and mints a signed session token. An unknown
// email and a wrong password yield the same ErrInvalidCredentials so login
// can never be used as an account-existence oracle.
func (s *AccountService) Login(ctx context.Context, emailAddr, password string) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", fmt.Errorf("%w: missing secret key", common.ErrConfiguration)
	}
	if emailAddr == "" || password == "" {
		return "", fmt.Errorf("%w: missing email or password", common.ErrValidation)
	}

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", common.ErrInternal
	}

	if account.VerificationToken != "" {
		return "", common.ErrUnverifiedAccount
	}

	if !auth.CheckPassword(password, account.PasswordHash) {
		return "", common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(account.ID, account.Name, account.Email, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return "", common.ErrInternal
	}
	return token, nil
}

// SessionValidity exposes the configured token lifetime so the transport can
// stamp the cookie expiry to match.
func (s *AccountService) SessionValidity() time.Duration {
	return s.sessionValidity
}

// VerifyEmail consumes a pending verification token, unblocking login for the
// account that received it.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", common.ErrValidation)
	}
	return s.repomanager.Accounts(s.db).ClearVerificationToken(ctx, token)
}
